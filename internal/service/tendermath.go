package service

// tendermath.go — pure ticket arithmetic. No I/O, no clock, no randomness.
// Every persisted amount is rounded to 2 decimal places here, so concurrent
// writers can never disagree about a total by a fraction of a cent.

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// TenderLine is the computational view of one ticket line.
type TenderLine struct {
	Quantity    int
	UnitPrice   decimal.Decimal
	DiscountPct decimal.Decimal
	TaxRate     decimal.Decimal
}

// SaleTotals are the four persisted sale-level amounts.
type SaleTotals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

// LineDiscount returns unit_price × quantity × discount_pct/100.
func LineDiscount(l TenderLine) decimal.Decimal {
	gross := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
	return gross.Mul(l.DiscountPct).Div(hundred)
}

// LineTotal returns the line's taxable amount grossed up by its own tax rate,
// rounded to 2 decimal places.
func LineTotal(l TenderLine) decimal.Decimal {
	gross := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
	taxable := gross.Sub(LineDiscount(l))
	return taxable.Mul(decimal.NewFromInt(1).Add(l.TaxRate.Div(hundred))).Round(2)
}

// ComputeSaleTotals applies the sale-level discount and the flat sale-level
// tax rate. Per-line tax rates feed LineTotal only; the ticket total uses the
// single flat rate throughout.
func ComputeSaleTotals(lines []TenderLine, globalDiscountPct, taxRatePct decimal.Decimal) SaleTotals {
	subtotal := decimal.Zero
	for _, l := range lines {
		gross := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		subtotal = subtotal.Add(gross.Sub(LineDiscount(l)))
	}
	subtotal = subtotal.Round(2)

	discount := subtotal.Mul(globalDiscountPct).Div(hundred).Round(2)
	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(taxRatePct).Div(hundred).Round(2)

	return SaleTotals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		Total:          taxable.Add(tax).Round(2),
	}
}

// ClassifyTender returns the single method name when exactly one distinct
// payment method was used, "mixed" otherwise.
func ClassifyTender(methods []string) string {
	if len(methods) == 0 {
		return ""
	}
	first := methods[0]
	for _, m := range methods[1:] {
		if m != first {
			return "mixed"
		}
	}
	return first
}

// ChangeDue is the overpayment handed back in cash. Never negative.
func ChangeDue(paid, total decimal.Decimal) decimal.Decimal {
	change := paid.Sub(total)
	if change.IsNegative() {
		return decimal.Zero
	}
	return change.Round(2)
}
