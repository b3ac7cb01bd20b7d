package view

import (
	"math"
	"sort"

	"github.com/tally-dashboard/internal/models"
)

func (r renderer) records(collection string) []models.Record {
	return r.snap.Collections[collection]
}

func (r renderer) sum(collection, field string, keep func(models.Record) bool) float64 {
	var total float64
	for _, rec := range r.records(collection) {
		if keep == nil || keep(rec) {
			total += rec.Number(field)
		}
	}
	return round2(total)
}

func lowStock(rec models.Record) bool {
	return rec.Number("quantity") <= rec.Number("reorder_level")
}

func (r renderer) inventoryValue() float64 {
	var total float64
	for _, rec := range r.records(models.CollectionInventory) {
		total += rec.Number("quantity") * rec.Number("unit_price")
	}
	return round2(total)
}

func (r renderer) dashboard(d *Display) {
	for _, m := range models.ModulesFor(r.snap.Session) {
		if m.Collection == "" {
			continue
		}
		d.Metrics = append(d.Metrics, Metric{
			Name:  m.Collection + "_count",
			Label: Title(m.Collection),
			Value: float64(len(r.records(m.Collection))),
		})
	}

	var low []models.Record
	for _, rec := range r.records(models.CollectionInventory) {
		if lowStock(rec) {
			low = append(low, rec)
		}
	}

	d.Metrics = append(d.Metrics,
		Metric{Name: "sales_total", Label: "Total Sales", Value: r.sum(models.CollectionTransactions, "amount", ofType("sale"))},
		Metric{Name: "inventory_value", Label: "Inventory Value", Value: r.inventoryValue()},
		Metric{Name: "unpaid_invoices", Label: "Unpaid Invoices", Value: r.sum(models.CollectionInvoices, "amount", withStatus("unpaid"))},
		Metric{Name: "low_stock_items", Label: "Low Stock Items", Value: float64(len(low))},
	)

	schema, _ := models.LookupSchema(models.CollectionInventory)
	d.Tables = append(d.Tables, r.buildTable(schema, "Low Stock Items", low, len(low), false))

	d.Charts = append(d.Charts, r.groupChart("inventory_by_category", "Inventory Value by Category",
		models.CollectionInventory, "category", func(rec models.Record) float64 {
			return rec.Number("quantity") * rec.Number("unit_price")
		}))
}

func (r renderer) reports(d *Display) {
	debit := r.sum(models.CollectionLedger, "debit", nil)
	credit := r.sum(models.CollectionLedger, "credit", nil)
	d.Metrics = append(d.Metrics,
		Metric{Name: "total_debit", Label: "Total Debit", Value: debit},
		Metric{Name: "total_credit", Label: "Total Credit", Value: credit},
		Metric{Name: "balance", Label: "Balance", Value: round2(debit - credit)},
		Metric{Name: "gst_collected", Label: "GST Collected", Value: r.sum(models.CollectionGSTEntries, "gst_amount", nil)},
		Metric{Name: "sales_total", Label: "Total Sales", Value: r.sum(models.CollectionTransactions, "amount", ofType("sale"))},
		Metric{Name: "purchases_total", Label: "Total Purchases", Value: r.sum(models.CollectionTransactions, "amount", ofType("purchase"))},
	)
	if models.CanAccess(r.snap.Session, "payroll") {
		d.Metrics = append(d.Metrics,
			Metric{Name: "payroll_gross", Label: "Payroll Gross", Value: r.sum(models.CollectionPayrollRuns, "gross", nil)},
			Metric{Name: "payroll_net", Label: "Payroll Net", Value: r.sum(models.CollectionPayrollRuns, "net", nil)},
		)
	}

	d.Charts = append(d.Charts,
		r.groupChart("transactions_by_type", "Transactions by Type", models.CollectionTransactions, "type", amount),
		r.groupChart("ledger_by_account", "Ledger Debits by Account", models.CollectionLedger, "account", func(rec models.Record) float64 {
			return rec.Number("debit")
		}),
	)
}

func (r renderer) collectionMetrics(collection string) []Metric {
	all := r.records(collection)
	metrics := []Metric{{Name: "records", Label: Title(collection), Value: float64(len(all))}}

	switch collection {
	case models.CollectionLedger:
		metrics = append(metrics,
			Metric{Name: "total_debit", Label: "Total Debit", Value: r.sum(collection, "debit", nil)},
			Metric{Name: "total_credit", Label: "Total Credit", Value: r.sum(collection, "credit", nil)},
		)
	case models.CollectionInvoices:
		metrics = append(metrics,
			Metric{Name: "invoiced_total", Label: "Invoiced", Value: r.sum(collection, "amount", nil)},
			Metric{Name: "unpaid_total", Label: "Unpaid", Value: r.sum(collection, "amount", withStatus("unpaid"))},
		)
	case models.CollectionGSTEntries:
		metrics = append(metrics, Metric{Name: "gst_total", Label: "Total GST", Value: r.sum(collection, "gst_amount", nil)})
	case models.CollectionInventory:
		metrics = append(metrics, Metric{Name: "inventory_value", Label: "Inventory Value", Value: r.inventoryValue()})
	case models.CollectionTransactions:
		metrics = append(metrics, Metric{Name: "amount_total", Label: "Total Amount", Value: r.sum(collection, "amount", nil)})
	case models.CollectionPayrollRuns:
		metrics = append(metrics,
			Metric{Name: "gross_total", Label: "Total Gross", Value: r.sum(collection, "gross", nil)},
			Metric{Name: "net_total", Label: "Total Net", Value: r.sum(collection, "net", nil)},
		)
	}
	return metrics
}

// groupChart sums value(rec) per distinct field value, labels sorted
func (r renderer) groupChart(name, title, collection, field string, value func(models.Record) float64) Chart {
	totals := make(map[string]float64)
	for _, rec := range r.records(collection) {
		totals[rec.String(field)] += value(rec)
	}
	labels := make([]string, 0, len(totals))
	for k := range totals {
		labels = append(labels, k)
	}
	sort.Strings(labels)

	values := make([]float64, len(labels))
	for i, l := range labels {
		values[i] = round2(totals[l])
	}
	return Chart{Name: name, Title: title, Type: "bar", Labels: labels, Series: []Series{{Name: field, Values: values}}}
}

func amount(rec models.Record) float64 {
	return rec.Number("amount")
}

func ofType(t string) func(models.Record) bool {
	return func(rec models.Record) bool { return rec.String("type") == t }
}

func withStatus(s string) func(models.Record) bool {
	return func(rec models.Record) bool { return rec.String("status") == s }
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
