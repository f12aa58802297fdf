package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Fabrica-api/internal/application/auth"
	"github.com/jhoicas/Fabrica-api/internal/application/finance"
	"github.com/jhoicas/Fabrica-api/internal/application/inventory"
	"github.com/jhoicas/Fabrica-api/internal/application/production"
	"github.com/jhoicas/Fabrica-api/internal/application/purchasing"
	"github.com/jhoicas/Fabrica-api/internal/application/sales"
	"github.com/jhoicas/Fabrica-api/internal/application/usecase"
	"github.com/jhoicas/Fabrica-api/internal/domain"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/jhoicas/Fabrica-api/internal/infrastructure/cache"
	apphttp "github.com/jhoicas/Fabrica-api/internal/interfaces/http"
	"github.com/jhoicas/Fabrica-api/internal/testutil"
	pkgjwt "github.com/jhoicas/Fabrica-api/pkg/jwt"
)

type fakeQueue struct{ calls int }

func (q *fakeQueue) EnqueueRecurringExpenses(context.Context, time.Time) (*asynq.TaskInfo, error) {
	q.calls++
	return &asynq.TaskInfo{ID: "task-1", Queue: "default"}, nil
}

func newServer(t *testing.T, queue apphttp.RecurringEnqueuer) (*fiber.App, *testutil.Fixture) {
	t.Helper()
	f := testutil.New(t)
	repos := f.Store.Repos()
	log := zerolog.Nop()
	ledger := inventory.NewLedger(repos.Products, log)
	allocator := inventory.NewLotAllocator()
	resolver := inventory.NewRecipeResolver()
	rc := finance.NewBalanceRecalculator(f.Store, repos.Balances, cache.NoopCache{}, time.Minute, log)

	deps := apphttp.RouterDeps{
		AuthUC:           auth.NewAuthUseCase(repos.Users, auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer}),
		ProductUC:        usecase.NewProductUseCase(f.Store, repos),
		CustomerUC:       usecase.NewCustomerUseCase(repos.Customers),
		CreateSale:       sales.NewCreateSaleUseCase(f.Store, repos, ledger, allocator, resolver, rc, log),
		ReceivePurchase:  purchasing.NewReceivePurchaseUseCase(f.Store, repos, ledger, rc, log),
		Production:       production.NewRegisterProductionUseCase(f.Store, repos, ledger, allocator, resolver, log),
		Recipes:          inventory.NewRecipeUseCase(f.Store, repos, resolver),
		RegisterMovement: inventory.NewRegisterMovementUseCase(f.Store, repos, ledger, log),
		Returns:          inventory.NewReturnsUseCase(f.Store, repos, ledger, log),
		Replenishment:    inventory.NewReplenishmentUseCase(repos.Products, repos.Lots),
		Transactions:     finance.NewTransactionUseCase(f.Store, repos, rc, log),
		Balances:         rc,
		Recurring:        finance.NewRecurringExpenseUseCase(f.Store, rc, log),
		RecurringQueue:   queue,
		ExpiryAlertDays:  7,
		JWTSecret:        testJWTSecret,
		Validator:        apphttp.NewValidator(),
		Responder:        apphttp.NewResponder(log, 2),
	}
	app := fiber.New(fiber.Config{ErrorHandler: deps.Responder.FiberErrorHandler})
	apphttp.Router(app, deps)
	return app, f
}

func call(t *testing.T, app *fiber.App, method, path, role string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]interface{}{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

func TestLogin(t *testing.T) {
	app, f := newServer(t, nil)
	_, err := usecase.NewUserUseCase(f.Store.Repos().Users).EnsureUser(f.Ctx, "ventas@fabrica.local", "clave-segura", "Ventas", entity.RoleVentas)
	require.NoError(t, err)

	resp, body := call(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ventas@fabrica.local", "password": "clave-segura"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tok, _ := body["token"].(string)
	_, role, err := pkgjwt.Parse(testJWTSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleVentas, role)

	resp, body = call(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ventas@fabrica.local", "password": "otra"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	resp, body = call(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "no-es-email"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errs, _ := body["errors"].(map[string]interface{})
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")
}

func TestSaleEndpoint_EndToEnd(t *testing.T) {
	app, f := newServer(t, nil)
	p := f.FinishedGood("PAN", "10", "2", "1", "10")
	f.FinishedLot(p.ID, "L1", testutil.Day(2025, 3, 1), "5", testutil.DP("1.00"))
	f.FinishedLot(p.ID, "L2", testutil.Day(2025, 3, 2), "5", testutil.DP("2.00"))

	sale := func(qty string) map[string]interface{} {
		return map[string]interface{}{"lines": []map[string]interface{}{{"product_id": p.ID, "quantity": qty, "unit_price": "10"}}}
	}

	resp, body := call(t, app, http.MethodPost, "/api/sales", entity.RoleVentas, sale("7"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "70", body["total"])
	lines, _ := body["lines"].([]interface{})
	assert.Len(t, lines, 2)
	id, _ := body["id"].(string)

	resp, body = call(t, app, http.MethodGet, "/api/sales/"+id, entity.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, id, body["id"])

	resp, body = call(t, app, http.MethodPost, "/api/sales", entity.RoleVentas, sale("2"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])
	assert.Equal(t, p.ID, body["product_id"])
	assert.Equal(t, "1", body["shortfall"])

	assert.True(t, f.Qty(p.ID).Equal(testutil.D("3")))
}

func TestSaleEndpoint_ValidationAndAuth(t *testing.T) {
	app, f := newServer(t, nil)
	p := f.FinishedGood("PAN", "10", "0", "1", "10")

	resp, body := call(t, app, http.MethodPost, "/api/sales", entity.RoleVentas, map[string]interface{}{
		"lines": []map[string]interface{}{{"product_id": p.ID, "quantity": "0", "unit_price": "-1"}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", body["code"])
	errs, _ := body["errors"].(map[string]interface{})
	assert.Contains(t, errs, "lines[0].quantity")
	assert.Contains(t, errs, "lines[0].unit_price")

	resp, body = call(t, app, http.MethodPost, "/api/sales", entity.RoleVentas, map[string]interface{}{"lines": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errs, _ = body["errors"].(map[string]interface{})
	assert.Contains(t, errs, "lines")

	// identificadores mal formados se rechazan antes de llegar a la base
	resp, body = call(t, app, http.MethodPost, "/api/sales", entity.RoleVentas, map[string]interface{}{
		"customer_id": "cliente-1",
		"lines":       []map[string]interface{}{{"product_id": "abc", "quantity": "1", "unit_price": "10"}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errs, _ = body["errors"].(map[string]interface{})
	assert.Contains(t, errs, "lines[0].product_id")
	assert.Contains(t, errs, "customer_id")
	assert.True(t, f.Qty(p.ID).Equal(testutil.D("10")))

	resp, _ = call(t, app, http.MethodPost, "/api/sales", entity.RoleFinanzas, map[string]interface{}{})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = call(t, app, http.MethodPost, "/api/sales", "", map[string]interface{}{})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = call(t, app, http.MethodGet, "/api/sales/nada", entity.RoleVentas, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestFinanceEndpoints_PeriodLock(t *testing.T) {
	app, _ := newServer(t, nil)
	tx := map[string]interface{}{"type": "EXPENSE", "amount": "100", "date": "2025-04-10T00:00:00Z", "category": "alquiler"}

	resp, body := call(t, app, http.MethodPost, "/api/finance/transactions", entity.RoleFinanzas, tx)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "FIXED", body["cost_type"])

	resp, body = call(t, app, http.MethodPost, "/api/finance/transactions", entity.RoleFinanzas, tx)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE", body["code"])

	resp, body = call(t, app, http.MethodPost, "/api/finance/balance/close", entity.RoleFinanzas, map[string]int{"month": 4, "year": 2025})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["locked"])

	tx["amount"] = "5"
	resp, body = call(t, app, http.MethodPost, "/api/finance/transactions", entity.RoleFinanzas, tx)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "PERIOD_LOCKED", body["code"])

	resp, body = call(t, app, http.MethodGet, "/api/finance/balance?month=4&year=2025", entity.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap, _ := body["snapshot"].(map[string]interface{})
	assert.Equal(t, "100", snap["fixed_costs"])

	resp, _ = call(t, app, http.MethodGet, "/api/finance/balance?month=13&year=2025", entity.RoleAdmin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = call(t, app, http.MethodGet, "/api/finance/balance?month=4&year=2025", entity.RoleVentas, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestFinanceEndpoints_RecurringExpenses(t *testing.T) {
	app, _ := newServer(t, nil)
	resp, body := call(t, app, http.MethodPost, "/api/finance/recurring-expenses/run", entity.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["created"])

	q := &fakeQueue{}
	app, _ = newServer(t, q)
	resp, body = call(t, app, http.MethodPost, "/api/finance/recurring-expenses/run", entity.RoleAdmin, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "task-1", body["task_id"])
	assert.Equal(t, 1, q.calls)
}

func TestInventoryEndpoints(t *testing.T) {
	app, f := newServer(t, nil)
	flour := f.RawMaterial("HARINA", "0", "0", "1")

	resp, body := call(t, app, http.MethodPost, "/api/purchases", entity.RoleProduccion, map[string]interface{}{
		"lines": []map[string]interface{}{{"product_id": flour.ID, "quantity": "10", "unit_price": "2"}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "20", body["total"])

	resp, body = call(t, app, http.MethodPost, "/api/inventory/movements", entity.RoleProduccion, map[string]interface{}{
		"product_id": flour.ID, "type": "OUT", "quantity": "11",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])

	resp, _ = call(t, app, http.MethodPost, "/api/inventory/movements", entity.RoleProduccion, map[string]interface{}{
		"product_id": flour.ID, "type": "OUT", "quantity": "4",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/inventory/products/"+flour.ID+"/movements?limit=1", nil)
	req.Header.Set("Authorization", tokenForRole(t, entity.RoleVentas))
	raw, err := app.Test(req, -1)
	require.NoError(t, err)
	defer raw.Body.Close()
	require.Equal(t, http.StatusOK, raw.StatusCode)
	var movs []map[string]interface{}
	require.NoError(t, json.NewDecoder(raw.Body).Decode(&movs))
	require.Len(t, movs, 1)
	assert.Equal(t, "OUT", movs[0]["direction"])

	resp, _ = call(t, app, http.MethodGet, "/api/inventory/products/"+flour.ID+"/movements?from=ayer", entity.RoleVentas, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = call(t, app, http.MethodGet, "/api/inventory/replenishment-list", entity.RoleVentas, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["total"])

	resp, _ = call(t, app, http.MethodGet, "/api/inventory/expiring-lots?days=30", entity.RoleProduccion, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestResponder_LockContention(t *testing.T) {
	r := apphttp.NewResponder(zerolog.Nop(), 3)
	app := fiber.New()
	app.Get("/busy", func(c *fiber.Ctx) error {
		return r.Error(c, &domain.LockContentionError{Resource: "product:p1"})
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return r.Error(c, &domain.IntegrityError{Constraint: "chk_qoh"})
	})

	resp, body := call(t, app, http.MethodGet, "/busy", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "3", resp.Header.Get("Retry-After"))
	assert.Equal(t, "RESOURCE_BUSY", body["code"])
	assert.Equal(t, true, body["retryable"])

	resp, body = call(t, app, http.MethodGet, "/boom", "", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "INTERNAL", body["code"])
}
