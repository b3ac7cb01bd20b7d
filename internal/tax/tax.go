// Package tax holds the percentage-of-base computations used by the
// calculator and entry forms. Results are rounded to two decimal places.
package tax

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrDeductionsExceedGross = errors.New("deductions exceed gross salary")

var hundred = decimal.NewFromInt(100)

// GST is the result of a GST computation
type GST struct {
	BasePrice decimal.Decimal
	Rate      decimal.Decimal
	Amount    decimal.Decimal
	CGST      decimal.Decimal
	SGST      decimal.Decimal
	Total     decimal.Decimal
}

// ComputeGST returns gst_amount = base * rate / 100 and total = base + gst_amount.
// The amount is split evenly into CGST and SGST.
func ComputeGST(base, rate decimal.Decimal) GST {
	amount := percentOf(base, rate)
	half := amount.Div(decimal.NewFromInt(2)).Round(2)
	return GST{
		BasePrice: base,
		Rate:      rate,
		Amount:    amount,
		CGST:      half,
		SGST:      amount.Sub(half),
		Total:     base.Add(amount).Round(2),
	}
}

// TDS is the result of a tax-deducted-at-source computation
type TDS struct {
	Amount     decimal.Decimal
	Rate       decimal.Decimal
	Deducted   decimal.Decimal
	NetPayable decimal.Decimal
}

// ComputeTDS returns tds = amount * rate / 100 and net_payable = amount - tds
func ComputeTDS(amount, rate decimal.Decimal) TDS {
	tds := percentOf(amount, rate)
	return TDS{
		Amount:     amount,
		Rate:       rate,
		Deducted:   tds,
		NetPayable: amount.Sub(tds).Round(2),
	}
}

// VAT is the result of a value-added-tax computation
type VAT struct {
	Amount decimal.Decimal
	Rate   decimal.Decimal
	Tax    decimal.Decimal
	Total  decimal.Decimal
}

// ComputeVAT returns vat = amount * rate / 100 and total = amount + vat
func ComputeVAT(amount, rate decimal.Decimal) VAT {
	vat := percentOf(amount, rate)
	return VAT{
		Amount: amount,
		Rate:   rate,
		Tax:    vat,
		Total:  amount.Add(vat).Round(2),
	}
}

// NetSalary returns gross - deductions
func NetSalary(gross, deductions decimal.Decimal) (decimal.Decimal, error) {
	if deductions.GreaterThan(gross) {
		return decimal.Zero, ErrDeductionsExceedGross
	}
	return gross.Sub(deductions).Round(2), nil
}

func percentOf(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Div(hundred).Round(2)
}
