package commission

import (
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// FeeBreakdown itemizes one order's commission. Not persisted on its own; the
// Invoice stores its fields.
type FeeBreakdown struct {
	OrderAmount      decimal.Decimal      `json:"order_amount"`
	CommissionRate   decimal.Decimal      `json:"commission_rate"`
	ReferralRate     decimal.Decimal      `json:"referral_rate"`
	CommissionGross  decimal.Decimal      `json:"commission_gross"`
	ReferralFee      decimal.Decimal      `json:"referral_fee"`
	PaymentFee       decimal.Decimal      `json:"payment_fee"`
	PlatformNet      decimal.Decimal      `json:"platform_net"`
	VATOnPlatformNet decimal.Decimal      `json:"vat_on_platform_net"`
	InvoiceTotal     decimal.Decimal      `json:"invoice_total"`
	Currency         valueobject.Currency `json:"currency"`
}

// FeeCalculator computes fee breakdowns from an injected rate table.
type FeeCalculator struct {
	rates RateConfig
}

// NewFeeCalculator creates a calculator; the rate table must already be validated.
func NewFeeCalculator(rates RateConfig) *FeeCalculator {
	return &FeeCalculator{rates: rates}
}

// Rates returns the table the calculator was built with
func (c *FeeCalculator) Rates() RateConfig {
	return c.rates
}

// ComputeBreakdown splits the commission on orderAmount.
//
//	commissionGross = orderAmount * commissionRate      (half-even)
//	referralFee     = commissionGross * referralRate    (half-even)
//	paymentFee      = commissionGross * processorRate   (half-even)
//	platformNet     = commissionGross - referralFee - paymentFee
//	vat             = platformNet * vatRate             (half-even)
//	invoiceTotal    = platformNet + vat
//
// Pure and deterministic.
func (c *FeeCalculator) ComputeBreakdown(orderAmount, commissionRate, referralRate decimal.Decimal) (FeeBreakdown, error) {
	if orderAmount.IsNegative() {
		return FeeBreakdown{}, configErrorf("order amount %s is negative", orderAmount)
	}
	if !isFraction(commissionRate) {
		return FeeBreakdown{}, configErrorf("commission rate %s must be within [0, 1]", commissionRate)
	}
	if !isFraction(referralRate) {
		return FeeBreakdown{}, configErrorf("referral rate %s must be within [0, 1]", referralRate)
	}

	scale := c.rates.Currency.MinorUnitScale()

	gross := orderAmount.Mul(commissionRate).RoundBank(scale)
	referralFee := gross.Mul(referralRate).RoundBank(scale)
	paymentFee := gross.Mul(c.rates.PaymentProcessorRate).RoundBank(scale)

	net := gross.Sub(referralFee).Sub(paymentFee)
	if net.IsNegative() {
		return FeeBreakdown{}, &NegativeNetError{
			CommissionGross: gross,
			ReferralFee:     referralFee,
			PaymentFee:      paymentFee,
		}
	}

	vat := net.Mul(c.rates.VATRate).RoundBank(scale)

	return FeeBreakdown{
		OrderAmount:      orderAmount,
		CommissionRate:   commissionRate,
		ReferralRate:     referralRate,
		CommissionGross:  gross,
		ReferralFee:      referralFee,
		PaymentFee:       paymentFee,
		PlatformNet:      net,
		VATOnPlatformNet: vat,
		InvoiceTotal:     net.Add(vat),
		Currency:         c.rates.Currency,
	}, nil
}

// Validate checks the conservation identities of a breakdown.
// commissionGross must equal referralFee + paymentFee + platformNet exactly,
// and invoiceTotal must equal platformNet + VAT.
func (b FeeBreakdown) Validate() error {
	for name, v := range map[string]decimal.Decimal{
		"commission gross": b.CommissionGross,
		"referral fee":     b.ReferralFee,
		"payment fee":      b.PaymentFee,
		"platform net":     b.PlatformNet,
		"vat":              b.VATOnPlatformNet,
		"invoice total":    b.InvoiceTotal,
	} {
		if v.IsNegative() {
			return &DataIntegrityError{Reason: name + " is negative"}
		}
	}
	parts := b.ReferralFee.Add(b.PaymentFee).Add(b.PlatformNet)
	if !parts.Equal(b.CommissionGross) {
		return &DataIntegrityError{Reason: "commission gross " + b.CommissionGross.String() +
			" does not equal referral + payment + net " + parts.String()}
	}
	if !b.PlatformNet.Add(b.VATOnPlatformNet).Equal(b.InvoiceTotal) {
		return &DataIntegrityError{Reason: "invoice total does not equal platform net + vat"}
	}
	return nil
}
