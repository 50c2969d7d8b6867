package commission

import (
	"fmt"

	"github.com/google/uuid"
)

// PDFStatus tells the caller whether the document can be downloaded yet
type PDFStatus string

const (
	PDFReady   PDFStatus = "READY"
	PDFPending PDFStatus = "PENDING"
)

// PDFTemplateKey is the renderer template used for commission invoices
const PDFTemplateKey = "commission-invoice-v1"

// PDFRenderRequest is what the read API returns for a PDF. The bytes are
// produced by the rendering collaborator, which uploads to StorageKey.
type PDFRenderRequest struct {
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	TemplateKey   string    `json:"template_key"`
	StorageKey    string    `json:"storage_key"`
	Status        PDFStatus `json:"status"`
	DownloadURL   string    `json:"download_url,omitempty"`
}

// PDFStorageKey is the object key the renderer writes the invoice PDF under
func PDFStorageKey(inv *Invoice) string {
	return PDFObjectKey(inv.PartnerID, inv.InvoiceNumber)
}

// PDFObjectKey builds the object key from its parts
func PDFObjectKey(partnerID uuid.UUID, invoiceNumber string) string {
	return fmt.Sprintf("invoices/%s/%s.pdf", partnerID, invoiceNumber)
}

// NewPDFRenderRequest describes the PDF of inv; Status is READY once PDFURL is set.
func NewPDFRenderRequest(inv *Invoice) PDFRenderRequest {
	req := PDFRenderRequest{
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		TemplateKey:   PDFTemplateKey,
		StorageKey:    PDFStorageKey(inv),
		Status:        PDFPending,
	}
	if inv.PDFURL != nil && *inv.PDFURL != "" {
		req.Status = PDFReady
	}
	return req
}
