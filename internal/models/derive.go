package models

import (
	"github.com/shopspring/decimal"
	"github.com/tally-dashboard/internal/tax"
)

func decimalOf(v interface{}) decimal.Decimal {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n)
	case int64:
		return decimal.NewFromInt(n)
	}
	return decimal.Zero
}

// deriveGST sets gst_amount = base_price*gst_rate/100 and total = base_price + gst_amount
func deriveGST(values map[string]interface{}) (string, error) {
	gst := tax.ComputeGST(decimalOf(values["base_price"]), decimalOf(values["gst_rate"]))
	values["gst_amount"] = gst.Amount.InexactFloat64()
	values["total"] = gst.Total.InexactFloat64()
	return "", nil
}

// deriveNetSalary sets net = gross - deductions
func deriveNetSalary(values map[string]interface{}) (string, error) {
	net, err := tax.NetSalary(decimalOf(values["gross"]), decimalOf(values["deductions"]))
	if err != nil {
		return "deductions", err
	}
	values["net"] = net.InexactFloat64()
	return "", nil
}
