package commission

import (
	"context"

	"github.com/google/uuid"
)

// BillingType distinguishes sole traders from companies on e-invoices
type BillingType string

const (
	BillingIndividual BillingType = "INDIVIDUAL"
	BillingCorporate  BillingType = "CORPORATE"
)

// BillingAddress is the postal address printed on the invoice
type BillingAddress struct {
	Line    string `json:"line"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// BillingProfile is the partner's invoicing setup, owned by the billing
// profile service and read-only here.
type BillingProfile struct {
	PartnerID      uuid.UUID      `json:"partner_id"`
	Title          string         `json:"title"`
	BillingType    BillingType    `json:"billing_type"`
	DeliveryMethod DeliveryMethod `json:"invoice_delivery_method"`
	TaxNumber      string         `json:"tax_number"`
	TaxOffice      string         `json:"tax_office"`
	Address        BillingAddress `json:"address"`
}

// DefaultBillingProfile is used for partners without a stored profile.
func DefaultBillingProfile(partnerID uuid.UUID) BillingProfile {
	return BillingProfile{
		PartnerID:      partnerID,
		BillingType:    BillingIndividual,
		DeliveryMethod: DeliveryPDFOnly,
	}
}

// EffectiveDeliveryMethod falls back to PDF_ONLY for unknown or empty methods
func (p BillingProfile) EffectiveDeliveryMethod() DeliveryMethod {
	if p.DeliveryMethod.IsValid() {
		return p.DeliveryMethod
	}
	return DeliveryPDFOnly
}

// BillingProfileReader reads partner billing profiles
type BillingProfileReader interface {
	// FindByPartnerID returns nil, nil when the partner has no profile
	FindByPartnerID(ctx context.Context, partnerID uuid.UUID) (*BillingProfile, error)
}
