package state

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tally-dashboard/internal/models"
)

func invoice(customer string) map[string]interface{} {
	return map[string]interface{}{
		"date":     "2024-02-10",
		"customer": customer,
		"amount":   100,
		"gst_rate": 18,
		"status":   "unpaid",
	}
}

func TestAppend_PreservesInsertionOrder(t *testing.T) {
	st := newTestStore(t)

	names := []string{"Zeta", "Alpha", "Mid", "Alpha"}
	var ids []string
	for i, name := range names {
		id, err := st.Append(models.CollectionInventory, inventoryItem(name, i))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	records, err := st.List(models.CollectionInventory)
	require.NoError(t, err)
	require.Len(t, records, len(names))
	for i, r := range records {
		assert.Equal(t, ids[i], r.ID)
		assert.Equal(t, names[i], r.String("item_name"))
		assert.Equal(t, int64(i), r.Fields["quantity"])
	}
}

func TestAppend_GeneratesSequentialIdentifiers(t *testing.T) {
	st := newTestStore(t)

	for i := 0; i < 3; i++ {
		_, err := st.Append(models.CollectionInvoices, invoice(fmt.Sprintf("C%d", i)))
		require.NoError(t, err)
	}

	records, _ := st.List(models.CollectionInvoices)
	assert.Equal(t, "INV1000", records[0].String("invoice_no"))
	assert.Equal(t, "INV1001", records[1].String("invoice_no"))
	assert.Equal(t, "INV1002", records[2].String("invoice_no"))
}

func TestAppend_OverridesSuppliedGeneratedValue(t *testing.T) {
	st := newTestStore(t)
	fields := invoice("Acme")
	fields["invoice_no"] = "HAND-1"

	_, err := st.Append(models.CollectionInvoices, fields)
	require.NoError(t, err)

	records, _ := st.List(models.CollectionInvoices)
	assert.Equal(t, "INV1000", records[0].String("invoice_no"))
}

func TestAppend_SchemaViolation(t *testing.T) {
	st := newTestStore(t)

	tests := []struct {
		name   string
		fields map[string]interface{}
	}{
		{name: "missing required", fields: map[string]interface{}{"item_name": "Bolt"}},
		{name: "negative amount", fields: inventoryItem("Bolt", -3)},
		{name: "unknown field", fields: func() map[string]interface{} {
			f := inventoryItem("Bolt", 1)
			f["weight"] = 3
			return f
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := st.Append(models.CollectionInventory, tt.fields)
			assert.ErrorIs(t, err, ErrSchemaViolation)
			n, _ := st.Len(models.CollectionInventory)
			assert.Zero(t, n)
		})
	}

	_, err := st.Append("widgets", inventoryItem("x", 1))
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestAppendBatch_AllOrNothing(t *testing.T) {
	st := newTestStore(t)
	_, err := st.Append(models.CollectionInvoices, invoice("First"))
	require.NoError(t, err)

	bad := invoice("Broken")
	bad["amount"] = -1
	_, err = st.AppendBatch(models.CollectionInvoices, []map[string]interface{}{invoice("A"), bad, invoice("C")})
	require.ErrorIs(t, err, ErrSchemaViolation)
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 2, se.Row)

	n, _ := st.Len(models.CollectionInvoices)
	assert.Equal(t, 1, n)

	ids, err := st.AppendBatch(models.CollectionInvoices, []map[string]interface{}{invoice("A"), invoice("B")})
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	records, _ := st.List(models.CollectionInvoices)
	assert.Equal(t, "INV1001", records[1].String("invoice_no"))
	assert.Equal(t, "INV1002", records[2].String("invoice_no"))
}

func TestUpdateField(t *testing.T) {
	st := newTestStore(t)
	id, err := st.Append(models.CollectionInvoices, invoice("Acme"))
	require.NoError(t, err)

	require.NoError(t, st.UpdateField(models.CollectionInvoices, id, "status", "paid"))
	records, _ := st.List(models.CollectionInvoices)
	assert.Equal(t, "paid", records[0].String("status"))

	err = st.UpdateField(models.CollectionInvoices, "missing", "status", "paid")
	assert.ErrorIs(t, err, ErrRecordNotFound)
	n, _ := st.Len(models.CollectionInvoices)
	assert.Equal(t, 1, n, "update must never create a record")

	assert.ErrorIs(t, st.UpdateField(models.CollectionInvoices, id, "status", "lost"), ErrSchemaViolation)
	assert.ErrorIs(t, st.UpdateField(models.CollectionInvoices, id, "invoice_no", "X"), ErrSchemaViolation)
	assert.ErrorIs(t, st.UpdateField(models.CollectionInvoices, id, "colour", "red"), ErrSchemaViolation)
	assert.ErrorIs(t, st.UpdateField(models.CollectionInvoices, id, "amount", ""), ErrSchemaViolation)
}

func TestUpdateField_ClearsOptionalField(t *testing.T) {
	st := newTestStore(t)
	id, err := st.Append(models.CollectionLedger, map[string]interface{}{
		"date": "2024-01-05", "account": "Cash", "description": "Opening", "debit": 10, "credit": 0,
	})
	require.NoError(t, err)

	require.NoError(t, st.UpdateField(models.CollectionLedger, id, "description", ""))
	records, _ := st.List(models.CollectionLedger)
	_, ok := records[0].Fields["description"]
	assert.False(t, ok)
}

func gstEntry(base, rate float64) map[string]interface{} {
	return map[string]interface{}{
		"date": "2024-03-01", "description": "Chairs", "base_price": base, "gst_rate": rate,
	}
}

func TestAppend_DerivesGSTFields(t *testing.T) {
	st := newTestStore(t)
	fields := gstEntry(1000, 18)
	fields["gst_amount"] = 5.0
	fields["total"] = 99999.0

	_, err := st.Append(models.CollectionGSTEntries, fields)
	require.NoError(t, err)

	records, _ := st.List(models.CollectionGSTEntries)
	assert.Equal(t, 180.0, records[0].Number("gst_amount"))
	assert.Equal(t, 1180.0, records[0].Number("total"))
}

func TestAppend_DerivesNetSalary(t *testing.T) {
	st := newTestStore(t)
	payroll := map[string]interface{}{
		"employee": "Ann", "period": "2024-01", "gross": 50000.0, "deductions": 5000.0, "net": 1.0,
	}

	_, err := st.Append(models.CollectionPayrollRuns, payroll)
	require.NoError(t, err)
	records, _ := st.List(models.CollectionPayrollRuns)
	assert.Equal(t, 45000.0, records[0].Number("net"))

	payroll["deductions"] = 60000.0
	_, err = st.Append(models.CollectionPayrollRuns, payroll)
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "deductions", se.Errors[0].Field)
	n, _ := st.Len(models.CollectionPayrollRuns)
	assert.Equal(t, 1, n)
}

func TestAppendBatch_DerivesFields(t *testing.T) {
	st := newTestStore(t)
	rows := []map[string]interface{}{gstEntry(200, 5), gstEntry(1000, 18)}
	rows[1]["total"] = "1"

	_, err := st.AppendBatch(models.CollectionGSTEntries, rows)
	require.NoError(t, err)

	records, _ := st.List(models.CollectionGSTEntries)
	assert.Equal(t, 210.0, records[0].Number("total"))
	assert.Equal(t, 1180.0, records[1].Number("total"))
}

func TestUpdateField_RecomputesDerivedFields(t *testing.T) {
	st := newTestStore(t)
	id, err := st.Append(models.CollectionGSTEntries, gstEntry(1000, 18))
	require.NoError(t, err)

	require.NoError(t, st.UpdateField(models.CollectionGSTEntries, id, "base_price", 2000.0))
	records, _ := st.List(models.CollectionGSTEntries)
	assert.Equal(t, 360.0, records[0].Number("gst_amount"))
	assert.Equal(t, 2360.0, records[0].Number("total"))

	require.NoError(t, st.UpdateField(models.CollectionGSTEntries, id, "gst_rate", "5"))
	records, _ = st.List(models.CollectionGSTEntries)
	assert.Equal(t, 100.0, records[0].Number("gst_amount"))
	assert.Equal(t, 2100.0, records[0].Number("total"))

	assert.ErrorIs(t, st.UpdateField(models.CollectionGSTEntries, id, "total", 1.0), ErrSchemaViolation)
	assert.ErrorIs(t, st.UpdateField(models.CollectionGSTEntries, id, "gst_amount", 1.0), ErrSchemaViolation)
	records, _ = st.List(models.CollectionGSTEntries)
	assert.Equal(t, 2100.0, records[0].Number("total"))
}

func TestUpdateField_RejectsInconsistentPayroll(t *testing.T) {
	st := newTestStore(t)
	id, err := st.Append(models.CollectionPayrollRuns, map[string]interface{}{
		"employee": "Ann", "period": "2024-01", "gross": 50000.0, "deductions": 5000.0,
	})
	require.NoError(t, err)

	require.NoError(t, st.UpdateField(models.CollectionPayrollRuns, id, "deductions", 8000.0))
	records, _ := st.List(models.CollectionPayrollRuns)
	assert.Equal(t, 42000.0, records[0].Number("net"))

	assert.ErrorIs(t, st.UpdateField(models.CollectionPayrollRuns, id, "gross", 100.0), ErrSchemaViolation)
	assert.ErrorIs(t, st.UpdateField(models.CollectionPayrollRuns, id, "net", 1.0), ErrSchemaViolation)
	records, _ = st.List(models.CollectionPayrollRuns)
	assert.Equal(t, 50000.0, records[0].Number("gross"), "a rejected update leaves the record unchanged")
	assert.Equal(t, 42000.0, records[0].Number("net"))
}

func TestAuditLog_IsAppendOnly(t *testing.T) {
	st := newTestStore(t)
	entry := map[string]interface{}{"timestamp": "2024-01-01", "username": "admin", "action": "login"}
	id, err := st.Append(models.CollectionAuditLog, entry)
	require.NoError(t, err)

	assert.ErrorIs(t, st.UpdateField(models.CollectionAuditLog, id, "action", "nothing"), ErrAppendOnly)
	_, err = st.AppendBatch(models.CollectionAuditLog, []map[string]interface{}{entry})
	assert.ErrorIs(t, err, ErrAppendOnly)

	records, _ := st.List(models.CollectionAuditLog)
	require.Len(t, records, 1)
	assert.Equal(t, "login", records[0].String("action"))
}
