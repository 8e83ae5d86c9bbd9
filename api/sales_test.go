package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"kairos/export"
	"kairos/notify"
	"kairos/report"
)

func cart(productID int64, qty int64, price, total string) map[string]interface{} {
	return map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": productID, "quantity": qty, "unit_price": price},
		},
		"total":           total,
		"payment_method":  "cash",
		"amount_tendered": total,
		"change_due":      "0",
	}
}

func TestCheckoutAndRevert(t *testing.T) {
	e := newEnv(t)
	coffee := e.product("Coffee", "10.00", 6, "")

	rec := &recorder{}
	require.True(t, e.hub.Subscribe(rec))

	r := e.call(http.MethodPost, "/api/checkout", cart(coffee.ID, 2, "10.00", "20.00"))
	require.Equal(t, http.StatusOK, r.Status, string(r.Raw))
	assert.True(t, r.Success)
	require.NotZero(t, r.SaleID)
	assert.Equal(t, "sale #"+strconv.FormatInt(r.SaleID, 10)+" registered", r.Message)
	saleID := r.SaleID

	r = e.call(http.MethodGet, "/api/products/"+strconv.FormatInt(coffee.ID, 10), nil)
	require.Equal(t, http.StatusOK, r.Status)
	assert.Equal(t, int64(4), r.Product.Quantity)

	// 4 left is at or below the threshold of 5
	assert.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]notify.EventType{notify.SaleRegistered, notify.StockLow}, rec.types())
	}, 2*time.Second, 5*time.Millisecond, "got %v", rec.types())

	salePath := "/api/sales/" + strconv.FormatInt(saleID, 10)

	r = e.call(http.MethodGet, salePath, nil)
	require.Equal(t, http.StatusOK, r.Status)
	assert.Contains(t, string(r.Raw), `"customer_name":"Walk-in"`)

	r = e.call(http.MethodGet, salePath+"/receipt", nil)
	require.Equal(t, http.StatusOK, r.Status)
	assert.Equal(t, export.ContentTypePDF, r.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(r.Raw, []byte("%PDF-")))

	r = e.call(http.MethodDelete, salePath, nil)
	require.Equal(t, http.StatusOK, r.Status, string(r.Raw))

	r = e.call(http.MethodGet, "/api/products/"+strconv.FormatInt(coffee.ID, 10), nil)
	assert.Equal(t, int64(6), r.Product.Quantity)

	r = e.call(http.MethodDelete, salePath, nil)
	assert.Equal(t, http.StatusNotFound, r.Status)

	assert.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]notify.EventType{
			notify.SaleRegistered, notify.StockLow, notify.SaleReverted,
		}, rec.types())
	}, 2*time.Second, 5*time.Millisecond, "got %v", rec.types())
}

// stalled never finishes a write until released.
type stalled struct {
	release chan struct{}
}

func (s *stalled) WriteJSON(interface{}) error {
	<-s.release
	return nil
}

func (s *stalled) Close() error { return nil }

func TestCheckoutWithStalledSubscriber(t *testing.T) {
	e := newEnv(t)
	coffee := e.product("Coffee", "10.00", 100, "")

	sub := &stalled{release: make(chan struct{})}
	defer close(sub.release)
	require.True(t, e.hub.Subscribe(sub))

	for i := 0; i < 3; i++ {
		done := make(chan response, 1)
		go func() {
			done <- e.call(http.MethodPost, "/api/checkout", cart(coffee.ID, 1, "10.00", "10.00"))
		}()

		select {
		case r := <-done:
			require.Equal(t, http.StatusOK, r.Status, string(r.Raw))
			assert.True(t, r.Success)
		case <-time.After(2 * time.Second):
			t.Fatal("checkout waited on a stalled dashboard")
		}
	}

	r := e.call(http.MethodGet, "/api/products/"+strconv.FormatInt(coffee.ID, 10), nil)
	assert.Equal(t, int64(97), r.Product.Quantity)
}

func TestCheckoutErrors(t *testing.T) {
	e := newEnv(t)
	coffee := e.product("Coffee", "10.00", 6, "")

	r := e.call(http.MethodPost, "/api/checkout", map[string]interface{}{
		"items": []interface{}{}, "total": "0", "payment_method": "cash",
	})
	assert.Equal(t, http.StatusBadRequest, r.Status)
	assert.Equal(t, "invalid items: cart is empty", r.Message)

	r = e.call(http.MethodPost, "/api/checkout", cart(999, 1, "10.00", "10.00"))
	assert.Equal(t, http.StatusUnprocessableEntity, r.Status)
	assert.Equal(t, "product 999 not found", r.Message)

	c := cart(coffee.ID, 1, "10.00", "10.00")
	c["customer_id"] = 77
	r = e.call(http.MethodPost, "/api/checkout", c)
	assert.Equal(t, http.StatusUnprocessableEntity, r.Status)
	assert.Equal(t, "customer 77 not found", r.Message)

	r = e.call(http.MethodGet, "/api/products/"+strconv.FormatInt(coffee.ID, 10), nil)
	assert.Equal(t, int64(6), r.Product.Quantity)
}

type salesPage struct {
	Sales        []json.RawMessage `json:"sales"`
	GroupedSales []json.RawMessage `json:"grouped_sales"`
	Total        string            `json:"total"`
}

func TestSalesHistory(t *testing.T) {
	e := newEnv(t)
	coffee := e.product("Coffee", "10.00", 20, "")
	tea := e.product("Tea", "4.00", 20, "")

	body := cart(coffee.ID, 1, "10.00", "18.00")
	body["items"] = []map[string]interface{}{
		{"product_id": coffee.ID, "quantity": 1, "unit_price": "10.00"},
		{"product_id": tea.ID, "quantity": 2, "unit_price": "4.00"},
	}
	require.Equal(t, http.StatusOK, e.call(http.MethodPost, "/api/checkout", body).Status)
	require.Equal(t, http.StatusOK, e.call(http.MethodPost, "/api/checkout", cart(tea.ID, 1, "4.00", "4.00")).Status)

	r := e.call(http.MethodGet, "/api/sales", nil)
	require.Equal(t, http.StatusOK, r.Status)
	require.True(t, r.Success)

	var p salesPage
	require.NoError(t, json.Unmarshal(r.Data, &p))
	assert.Len(t, p.Sales, 3)
	assert.Len(t, p.GroupedSales, 2)
	assert.Equal(t, "22", p.Total)

	r = e.call(http.MethodPost, "/api/sales/filter", map[string]string{
		"date_from": "2001-01-01", "date_to": "2001-01-31",
	})
	require.Equal(t, http.StatusOK, r.Status)
	require.NoError(t, json.Unmarshal(r.Data, &p))
	assert.Empty(t, p.Sales)
	assert.Equal(t, "0", p.Total)

	r = e.call(http.MethodPost, "/api/sales/filter", map[string]string{
		"date_from": "2024-02-10", "date_to": "2024-02-01",
	})
	assert.Equal(t, http.StatusBadRequest, r.Status)
	assert.Equal(t, "invalid date_from: must not be after date_to", r.Message)

	r = e.call(http.MethodPost, "/api/sales/filter", map[string]string{"date_to": "01/02/2024"})
	assert.Equal(t, http.StatusBadRequest, r.Status)
}

func TestDashboard(t *testing.T) {
	e := newEnv(t)
	coffee := e.product("Coffee", "10.00", 3, "")
	e.product("Tea", "4.00", 0, "")
	require.Equal(t, http.StatusOK, e.call(http.MethodPost, "/api/checkout", cart(coffee.ID, 1, "10.00", "10.00")).Status)

	r := e.call(http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, r.Status)
	require.True(t, r.Success)

	var d struct {
		Stats struct {
			Products     int64  `json:"products"`
			OutOfStock   int64  `json:"out_of_stock"`
			LowStock     int64  `json:"low_stock"`
			Transactions int64  `json:"transactions"`
			SalesTotal   string `json:"sales_total"`
		} `json:"stats"`
		RecentProducts []json.RawMessage `json:"recent_products"`
		Movements      []json.RawMessage `json:"movements"`
	}
	require.NoError(t, json.Unmarshal(r.Data, &d))
	assert.Equal(t, int64(2), d.Stats.Products)
	assert.Equal(t, int64(1), d.Stats.OutOfStock)
	assert.Equal(t, int64(1), d.Stats.LowStock)
	assert.Equal(t, int64(1), d.Stats.Transactions)
	assert.Equal(t, "10", d.Stats.SalesTotal)
	assert.Len(t, d.RecentProducts, 2)
	assert.Len(t, d.Movements, 1)
}

func TestPagesDegradeWhenStoreFails(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.store.Close())

	for _, path := range []string{"/api/dashboard", "/api/sales", "/api/reports"} {
		r := e.call(http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, r.Status, path)
		assert.False(t, r.Success, path)
		assert.NotEmpty(t, r.Message, path)
		assert.NotEqual(t, "null", string(r.Data), path)
	}

	// operations still fail loudly
	r := e.call(http.MethodGet, "/api/products", nil)
	assert.Equal(t, http.StatusInternalServerError, r.Status)
	assert.Equal(t, "internal server error", r.Message)
}

func TestReports(t *testing.T) {
	e := newEnv(t)
	coffee := e.product("Coffee", "10.00", 8, "")
	require.Equal(t, http.StatusOK, e.call(http.MethodPost, "/api/checkout", cart(coffee.ID, 2, "10.00", "20.00")).Status)

	r := e.call(http.MethodGet, "/api/reports", nil)
	require.Equal(t, http.StatusOK, r.Status)
	var v report.View
	require.NoError(t, json.Unmarshal(r.Data, &v))
	assert.Equal(t, report.KindFull, v.Kind)
	assert.Len(t, v.Lines, 1)
	assert.Len(t, v.Movements, 1)
	assert.Equal(t, int64(2), v.Stats.ItemsSold)

	r = e.call(http.MethodPost, "/api/reports/filter", map[string]string{"report_type": "stock"})
	require.Equal(t, http.StatusOK, r.Status)
	v = report.View{}
	require.NoError(t, json.Unmarshal(r.Data, &v))
	assert.Equal(t, report.KindStock, v.Kind)
	assert.Empty(t, v.Lines)
	assert.Len(t, v.Products, 1)

	r = e.call(http.MethodPost, "/api/reports/filter", map[string]string{"report_type": "weekly"})
	assert.Equal(t, http.StatusBadRequest, r.Status)
}

func TestExports(t *testing.T) {
	e := newEnv(t)
	coffee := e.product("Coffee", "10.00", 8, "789100")
	require.Equal(t, http.StatusOK, e.call(http.MethodPost, "/api/checkout", cart(coffee.ID, 2, "10.00", "20.00")).Status)

	r := e.call(http.MethodGet, "/api/exports/xlsx", nil)
	require.Equal(t, http.StatusOK, r.Status)
	assert.Equal(t, export.ContentTypeXLSX, r.Header.Get("Content-Type"))
	assert.Contains(t, r.Header.Get("Content-Disposition"), "attachment")
	assert.Contains(t, r.Header.Get("Content-Disposition"), ".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(r.Raw))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetSales)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	r = e.call(http.MethodGet, "/api/exports/pdf?date_from=2024-01-01", nil)
	require.Equal(t, http.StatusOK, r.Status)
	assert.True(t, bytes.HasPrefix(r.Raw, []byte("%PDF-")))

	r = e.call(http.MethodGet, "/api/exports/pdf?customer_id=abc", nil)
	assert.Equal(t, http.StatusBadRequest, r.Status)
}
