package commission

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesInvoiceData is the payload handed to the accounting vendor.
type SalesInvoiceData struct {
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	OrderID       uuid.UUID       `json:"order_id"`
	IssuedAt      time.Time       `json:"issued_at"`
	Currency      string          `json:"currency"`
	NetAmount     decimal.Decimal `json:"net_amount"`
	VATRate       decimal.Decimal `json:"vat_rate"`
	VATAmount     decimal.Decimal `json:"vat_amount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Description   string          `json:"description"`
	Buyer         BillingProfile  `json:"buyer"`
}

// NewSalesInvoiceData builds the vendor payload from an invoice and the buyer's profile.
func NewSalesInvoiceData(inv *Invoice, buyer BillingProfile, vatRate decimal.Decimal) SalesInvoiceData {
	return SalesInvoiceData{
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		OrderID:       inv.OrderID,
		IssuedAt:      inv.IssuedAt,
		Currency:      string(inv.Currency),
		NetAmount:     inv.PlatformNet,
		VATRate:       vatRate,
		VATAmount:     inv.VATAmount,
		TotalAmount:   inv.TotalAmount,
		Description:   "Platform commission for order " + inv.OrderID.String(),
		Buyer:         buyer,
	}
}

// AccountingGateway is the capability every accounting vendor adapter provides.
// Calling it twice for one invoice must be harmless; callers still check
// Invoice.ExternalAccountingID before submitting.
type AccountingGateway interface {
	// CreateSalesInvoice registers the invoice and returns the vendor's reference.
	// Errors should be *IntegrationError so callers can tell transient from permanent.
	CreateSalesInvoice(ctx context.Context, data SalesInvoiceData) (externalID string, err error)
	// Name identifies the vendor in logs and metrics
	Name() string
}
