package v1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/app"
	appctx "pharmaledger/internal/core/context"
	"pharmaledger/internal/core/types"
	"pharmaledger/internal/domain/auth"
	"pharmaledger/internal/domain/catalogs/product"
	"pharmaledger/internal/domain/documents/purchase"
	"pharmaledger/internal/domain/documents/sale"
	"pharmaledger/internal/domain/registers/account"
	"pharmaledger/internal/domain/registers/stock"
	"pharmaledger/internal/domain/registers/supplier_ledger"
	"pharmaledger/pkg/metrics"
)

type apiClient struct {
	t      *testing.T
	router *gin.Engine
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	svcs, _, err := app.NewMemoryServices("")
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	router := NewRouter(RouterConfig{
		Services: svcs,
		Metrics:  metrics.NewHTTPMetrics(reg),
		Gatherer: reg,
	})
	return &apiClient{t: t, router: router}
}

func (a *apiClient) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *apiClient) mustDo(method, path string, body any, wantStatus int, out any) {
	a.t.Helper()
	w := a.do(method, path, body)
	require.Equal(a.t, wantStatus, w.Code, w.Body.String())
	if out != nil {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), out))
	}
}

func TestHealthAndMetrics(t *testing.T) {
	api := newAPI(t)

	api.mustDo(http.MethodGet, "/health/live", nil, http.StatusOK, nil)

	var ready map[string]any
	api.mustDo(http.MethodGet, "/health/ready", nil, http.StatusOK, &ready)
	assert.Equal(t, "memory", ready["storage"])

	w := api.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pharmaledger_http_requests_total")
}

func TestCatalogRoutes(t *testing.T) {
	api := newAPI(t)

	var p product.Product
	api.mustDo(http.MethodPost, "/api/v1/catalog/products", map[string]any{
		"name":            "Paracetamol 500mg",
		"unitsPerPackage": 10,
		"sellingPrice":    "2.50",
	}, http.StatusCreated, &p)
	assert.NotEmpty(t, p.Code)
	assert.Equal(t, int64(10), p.UnitsPerPackage)

	var got product.Product
	api.mustDo(http.MethodGet, "/api/v1/catalog/products/"+p.ID.String(), nil, http.StatusOK, &got)
	assert.Equal(t, "Paracetamol 500mg", got.Name)

	var updated product.Product
	api.mustDo(http.MethodPut, "/api/v1/catalog/products/"+p.ID.String(), map[string]any{
		"sellingPrice": "3.00",
	}, http.StatusOK, &updated)
	assert.True(t, updated.SellingPrice.Equal(types.MustMoney("3.00")))
	assert.Equal(t, "Paracetamol 500mg", updated.Name)

	var list struct {
		Items      []product.Product `json:"items"`
		TotalCount int64             `json:"totalCount"`
	}
	api.mustDo(http.MethodGet, "/api/v1/catalog/products?search=parac", nil, http.StatusOK, &list)
	assert.EqualValues(t, 1, list.TotalCount)

	var problem struct {
		Code    string `json:"code"`
		Details struct {
			Fields map[string]string `json:"fields"`
		} `json:"details"`
	}
	api.mustDo(http.MethodPost, "/api/v1/catalog/products", map[string]any{"code": "X"},
		http.StatusBadRequest, &problem)
	assert.Equal(t, "VALIDATION_ERROR", problem.Code)
	assert.Equal(t, "is required", problem.Details.Fields["name"])

	w := api.do(http.MethodGet, "/api/v1/catalog/products/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaleFlowOverHTTP(t *testing.T) {
	api := newAPI(t)

	var p product.Product
	api.mustDo(http.MethodPost, "/api/v1/catalog/products", map[string]any{"name": "Ibuprofen"}, http.StatusCreated, &p)

	var acc account.BankAccount
	api.mustDo(http.MethodPost, "/api/v1/registers/accounts", map[string]any{
		"name":           "Till",
		"kind":           "cash",
		"openingBalance": "100",
	}, http.StatusCreated, &acc)

	var rec stock.Record
	api.mustDo(http.MethodPost, "/api/v1/registers/stock/"+p.ID.String()+"/adjust",
		map[string]any{"delta": 5}, http.StatusOK, &rec)
	assert.Equal(t, types.NewQuantity(5), rec.Quantity)

	var s sale.Sale
	api.mustDo(http.MethodPost, "/api/v1/document/sales", map[string]any{
		"accountId":  acc.ID,
		"paidAmount": "20",
		"items": []map[string]any{
			{"productId": p.ID, "quantity": 2, "unitPrice": "10"},
		},
	}, http.StatusCreated, &s)
	assert.True(t, s.TotalAmount.Equal(types.MustMoney("20")))
	assert.Equal(t, sale.StatusCompleted, s.Status)

	api.mustDo(http.MethodGet, "/api/v1/registers/stock/"+p.ID.String(), nil, http.StatusOK, &rec)
	assert.Equal(t, types.NewQuantity(3), rec.Quantity)

	api.mustDo(http.MethodGet, "/api/v1/registers/accounts/"+acc.ID.String(), nil, http.StatusOK, &acc)
	assert.True(t, acc.CurrentBalance.Equal(types.MustMoney("120")))

	var sup supplier_ledger.Supplier
	api.mustDo(http.MethodPost, "/api/v1/registers/suppliers", map[string]any{"name": "Pharma Co"}, http.StatusCreated, &sup)
	w := api.do(http.MethodPost, "/api/v1/document/supplier-payments", map[string]any{
		"supplierId": sup.ID,
		"accountId":  acc.ID,
		"amount":     "500",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	w = api.do(http.MethodPost, "/api/v1/document/sales", map[string]any{"items": []any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var report struct {
		OK bool `json:"ok"`
	}
	api.mustDo(http.MethodPost, "/api/v1/reconcile", nil, http.StatusOK, &report)
	assert.True(t, report.OK)
}

func TestMoneyScaleOverHTTP(t *testing.T) {
	api := newAPI(t)

	type problem struct {
		Code    string `json:"code"`
		Details struct {
			Fields map[string]string `json:"fields"`
		} `json:"details"`
	}

	var got problem
	api.mustDo(http.MethodPost, "/api/v1/registers/accounts", map[string]any{
		"name":           "Till",
		"kind":           "cash",
		"openingBalance": "100.00001",
	}, http.StatusBadRequest, &got)
	assert.Equal(t, "must have at most 4 decimal places", got.Details.Fields["openingBalance"])

	var p product.Product
	api.mustDo(http.MethodPost, "/api/v1/catalog/products", map[string]any{"name": "Aspirin"}, http.StatusCreated, &p)

	got = problem{}
	api.mustDo(http.MethodPost, "/api/v1/document/sales", map[string]any{
		"discount": "10.00000000000000001",
		"items": []map[string]any{
			{"productId": p.ID, "quantity": 2, "unitPrice": "10"},
		},
	}, http.StatusBadRequest, &got)
	assert.Equal(t, "VALIDATION_ERROR", got.Code)
	assert.Contains(t, got.Details.Fields, "discount")

	var acc account.BankAccount
	api.mustDo(http.MethodPost, "/api/v1/registers/accounts", map[string]any{
		"name":           "Safe",
		"kind":           "cash",
		"openingBalance": "100.1234",
	}, http.StatusCreated, &acc)
	assert.True(t, acc.OpeningBalance.Equal(types.MustMoney("100.1234")))
}

func TestPurchaseDeleteOverHTTP(t *testing.T) {
	api := newAPI(t)

	var p product.Product
	api.mustDo(http.MethodPost, "/api/v1/catalog/products", map[string]any{
		"name":            "Amoxicillin",
		"unitsPerPackage": 12,
	}, http.StatusCreated, &p)

	var sup supplier_ledger.Supplier
	api.mustDo(http.MethodPost, "/api/v1/registers/suppliers", map[string]any{
		"name": "MedSupply",
	}, http.StatusCreated, &sup)

	var doc purchase.Purchase
	api.mustDo(http.MethodPost, "/api/v1/document/purchases", map[string]any{
		"supplierId": sup.ID,
		"items": []map[string]any{
			{"productId": p.ID, "quantity": 2, "unitPrice": "30"},
		},
	}, http.StatusCreated, &doc)

	var rec stock.Record
	api.mustDo(http.MethodGet, "/api/v1/registers/stock/"+p.ID.String(), nil, http.StatusOK, &rec)
	assert.Equal(t, types.NewQuantity(24), rec.Quantity)

	var st supplier_ledger.Statement
	api.mustDo(http.MethodGet, "/api/v1/registers/suppliers/"+sup.ID.String()+"/statement", nil, http.StatusOK, &st)
	assert.True(t, st.Payable.Equal(types.MustMoney("60")))

	api.mustDo(http.MethodDelete, "/api/v1/document/purchases/"+doc.ID.String(), nil, http.StatusNoContent, nil)

	api.mustDo(http.MethodGet, "/api/v1/registers/stock/"+p.ID.String(), nil, http.StatusOK, &rec)
	assert.True(t, rec.Quantity.IsZero())

	w := api.do(http.MethodGet, "/api/v1/document/purchases/"+doc.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuditRoutes(t *testing.T) {
	api := newAPI(t)

	api.mustDo(http.MethodPost, "/api/v1/audit", map[string]any{
		"action":     "update",
		"entityType": "inventory",
		"entityId":   "manual-1",
		"changes":    map[string]any{"note": "recount"},
	}, http.StatusCreated, nil)

	var list struct {
		Items []map[string]any `json:"items"`
	}
	api.mustDo(http.MethodGet, "/api/v1/audit?entityType=inventory", nil, http.StatusOK, &list)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "system", list.Items[0]["actorId"])

	w := api.do(http.MethodPost, "/api/v1/audit", map[string]any{"action": "rename", "entityType": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOperatorTokens(t *testing.T) {
	svcs, _, err := app.NewMemoryServices("")
	require.NoError(t, err)
	tokens := auth.NewTokens(auth.TokenConfig{Secret: "test-secret"})
	router := NewRouter(RouterConfig{Services: svcs, Tokens: tokens})

	call := func(method, path string, roles ...string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if roles != nil {
			tok, err := tokens.Issue(appctx.UserContext{UserID: "op-1", Roles: roles})
			require.NoError(t, err)
			req.Header.Set("Authorization", "Bearer "+tok.Value)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, call(http.MethodGet, "/api/v1/registers/stock").Code)
	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/api/v1/registers/stock", auth.RoleCashier).Code)
	assert.Equal(t, http.StatusForbidden, call(http.MethodPost, "/api/v1/reconcile", auth.RoleCashier).Code)
	assert.Equal(t, http.StatusOK, call(http.MethodPost, "/api/v1/reconcile", auth.RoleAdmin).Code)
}
