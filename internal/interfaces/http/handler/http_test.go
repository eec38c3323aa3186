package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	accessapp "github.com/backoffice/backend/internal/application/access"
	"github.com/backoffice/backend/internal/application/importer"
	"github.com/backoffice/backend/internal/domain/access"
	"github.com/backoffice/backend/internal/domain/catalog"
	"github.com/backoffice/backend/internal/domain/importsync"
	"github.com/backoffice/backend/internal/infrastructure/auth"
	"github.com/backoffice/backend/internal/infrastructure/config"
	"github.com/backoffice/backend/internal/infrastructure/persistence"
	"github.com/backoffice/backend/internal/infrastructure/persistence/models"
	"github.com/backoffice/backend/internal/interfaces/http/handler"
	"github.com/backoffice/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ---------------------------------------------------------------------------
// Harness
// ---------------------------------------------------------------------------

// viewerPermissions is what a regular catalog reader's token carries
var viewerPermissions = []string{
	"view:brand", "viewAny:brand",
	"view:product", "viewAny:product",
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context, uuid.UUID, access.EntityKind) {}
func (noopInvalidator) InvalidateUser(context.Context, uuid.UUID)                {}
func (noopInvalidator) InvalidateAll(context.Context)                           {}

// stubSource only answers the connectivity probe; no run in these tests
// ever streams rows.
type stubSource struct{ up bool }

func (s stubSource) TestConnection(context.Context) bool { return s.up }
func (s stubSource) GetOrders(context.Context, time.Time, time.Time, int) ([]importsync.OrderRow, error) {
	return nil, nil
}
func (s stubSource) GetExpenses(context.Context, time.Time, time.Time, int) ([]importsync.ExpenseRow, error) {
	return nil, nil
}
func (s stubSource) StreamOrdersIncremental(context.Context, importsync.Cursor) importsync.OrderIterator {
	return emptyOrderIter{}
}
func (s stubSource) StreamOrdersByDateRange(context.Context, time.Time, time.Time) importsync.OrderIterator {
	return emptyOrderIter{}
}
func (s stubSource) StreamExpensesIncremental(context.Context, importsync.Cursor) importsync.ExpenseIterator {
	return emptyExpenseIter{}
}
func (s stubSource) StreamExpensesByDateRange(context.Context, time.Time, time.Time) importsync.ExpenseIterator {
	return emptyExpenseIter{}
}

type emptyOrderIter struct{}

func (emptyOrderIter) Next(context.Context) (*importsync.OrderRow, bool, error) {
	return nil, false, nil
}
func (emptyOrderIter) Close() error { return nil }

type emptyExpenseIter struct{}

func (emptyExpenseIter) Next(context.Context) (*importsync.ExpenseRow, bool, error) {
	return nil, false, nil
}
func (emptyExpenseIter) Close() error { return nil }

var _ importsync.Source = stubSource{}

type webHarness struct {
	db     *gorm.DB
	engine *gin.Engine
	jwt    *auth.JWTService
	grants *persistence.GormGrantRepository
	states importsync.SyncStateRepository
}

func newWebHarness(t *testing.T, sourceUp bool) *webHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(
		&models.BrandModel{},
		&models.ProductModel{},
		&models.ProductItemModel{},
		&models.CategoryModel{},
		&models.GenderModel{},
		&models.CustomerModel{},
		&models.AddressModel{},
		&models.OrderAddressModel{},
		&models.OrderModel{},
		&models.OrderItemModel{},
		&models.ExpenseTypeModel{},
		&models.ExpenseModel{},
		&models.AccessGrantModel{},
		&models.SyncStateModel{},
	))

	graph := access.DefaultRelationGraph()
	grantRepo := persistence.NewGormGrantRepository(db)
	idSource, err := persistence.NewGormEntityIDSource(db)
	require.NoError(t, err)
	resolver := accessapp.NewGraphResolver(graph, grantRepo, idSource)
	gate := accessapp.NewGate(resolver, auth.NewClaimsPermissionChecker(), grantRepo, idSource, nil)
	grantService := accessapp.NewGrantService(grantRepo, noopInvalidator{}, nil)

	states := persistence.NewGormSyncStateRepository(db)
	runner := importer.NewOrchestrator(
		stubSource{up: sourceUp},
		persistence.NewGormUnitOfWork(db),
		states,
		persistence.NewMemoryRunLocker(),
		importer.OrchestratorConfig{},
		nil,
	)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret: "0123456789abcdef0123456789abcdef",
		Issuer: "backoffice-test",
	})

	engine := gin.New()
	router.NewRouter(engine, jwtService).
		Register(handler.NewCatalogHandler(gate, resolver,
			persistence.NewGormBrandRepository(db), persistence.NewGormProductRepository(db))).
		Register(handler.NewGrantHandler(grantService)).
		Register(handler.NewImportHandler(runner, states)).
		Setup()

	return &webHarness{db: db, engine: engine, jwt: jwtService, grants: grantRepo, states: states}
}

func (h *webHarness) token(t *testing.T, userID uuid.UUID, admin bool, permissions []string) string {
	t.Helper()
	token, err := h.jwt.GenerateToken(userID, uuid.New(), admin, permissions)
	require.NoError(t, err)
	return token
}

func (h *webHarness) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

func (h *webHarness) seedBrand(t *testing.T, name string) *catalog.Brand {
	t.Helper()
	brand, err := catalog.NewBrand(name)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormBrandRepository(h.db).Save(context.Background(), brand))
	return brand
}

func (h *webHarness) seedProduct(t *testing.T, brandID uuid.UUID, externalID int64, name string) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(brandID, externalID, name, uuid.Nil, uuid.Nil)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormProductRepository(h.db).Save(context.Background(), product))
	return product
}

func (h *webHarness) grant(t *testing.T, userID uuid.UUID, kind access.EntityKind, entityID uuid.UUID) {
	t.Helper()
	g, err := access.NewGrant(userID, kind, entityID, access.GrantLevelView)
	require.NoError(t, err)
	require.NoError(t, h.grants.Save(context.Background(), g))
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func dataLen(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	data, ok := decodeBody(t, w)["data"].([]any)
	require.True(t, ok, "response has no data array: %s", w.Body.String())
	return len(data)
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := decodeBody(t, w)["error"].(map[string]any)
	require.True(t, ok, "response has no error object: %s", w.Body.String())
	code, _ := errObj["code"].(string)
	return code
}

// ---------------------------------------------------------------------------
// Authentication
// ---------------------------------------------------------------------------

func TestAuth_MissingTokenIs401(t *testing.T) {
	h := newWebHarness(t, true)

	w := h.request(t, http.MethodGet, "/brands", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))
}

func TestAuth_GarbageTokenIs401(t *testing.T) {
	h := newWebHarness(t, true)

	w := h.request(t, http.MethodGet, "/brands", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_ValidTokenPasses(t *testing.T) {
	h := newWebHarness(t, true)
	token := h.token(t, uuid.New(), false, viewerPermissions)

	w := h.request(t, http.MethodGet, "/brands", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// ---------------------------------------------------------------------------
// Catalog reads
// ---------------------------------------------------------------------------

func TestListBrands_ScopedByGrants(t *testing.T) {
	h := newWebHarness(t, true)
	granted := h.seedBrand(t, "Acme")
	h.seedBrand(t, "Globex")
	user := uuid.New()
	h.grant(t, user, access.KindBrand, granted.ID)

	w := h.request(t, http.MethodGet, "/brands", h.token(t, user, false, viewerPermissions), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, dataLen(t, w))
}

func TestListBrands_ZeroAccessIsEmptyArrayNot403(t *testing.T) {
	h := newWebHarness(t, true)
	h.seedBrand(t, "Acme")

	w := h.request(t, http.MethodGet, "/brands", h.token(t, uuid.New(), false, viewerPermissions), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, dataLen(t, w))
	assert.Contains(t, w.Body.String(), `"data":[]`)
}

func TestListBrands_GlobalAdminSeesAll(t *testing.T) {
	h := newWebHarness(t, true)
	h.seedBrand(t, "Acme")
	h.seedBrand(t, "Globex")

	w := h.request(t, http.MethodGet, "/brands", h.token(t, uuid.New(), true, nil), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, dataLen(t, w))
}

func TestGetBrand_ThreeWayOutcomes(t *testing.T) {
	h := newWebHarness(t, true)
	granted := h.seedBrand(t, "Acme")
	other := h.seedBrand(t, "Globex")
	user := uuid.New()
	h.grant(t, user, access.KindBrand, granted.ID)
	token := h.token(t, user, false, viewerPermissions)

	// Accessible record.
	w := h.request(t, http.MethodGet, "/brands/"+granted.ID.String(), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Existing but inaccessible record is forbidden.
	w = h.request(t, http.MethodGet, "/brands/"+other.ID.String(), token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, w))

	// A record that does not exist is not found, access or not.
	w = h.request(t, http.MethodGet, "/brands/"+uuid.NewString(), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))

	// Malformed ID is a plain bad request.
	w = h.request(t, http.MethodGet, "/brands/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetBrand_MissingCoarsePermissionIs403(t *testing.T) {
	h := newWebHarness(t, true)
	brand := h.seedBrand(t, "Acme")
	user := uuid.New()
	h.grant(t, user, access.KindBrand, brand.ID)

	// A record grant without the role permission is still forbidden.
	w := h.request(t, http.MethodGet, "/brands/"+brand.ID.String(),
		h.token(t, user, false, nil), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListProducts_InheritsBrandGrant(t *testing.T) {
	h := newWebHarness(t, true)
	brand := h.seedBrand(t, "Acme")
	product := h.seedProduct(t, brand.ID, 101, "Widget")
	otherBrand := h.seedBrand(t, "Globex")
	h.seedProduct(t, otherBrand.ID, 102, "Gadget")
	user := uuid.New()
	h.grant(t, user, access.KindBrand, brand.ID)
	token := h.token(t, user, false, viewerPermissions)

	w := h.request(t, http.MethodGet, "/products", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, dataLen(t, w))

	// The inherited product is readable individually too.
	w = h.request(t, http.MethodGet, "/products/"+product.ID.String(), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// ---------------------------------------------------------------------------
// Grant administration
// ---------------------------------------------------------------------------

func TestGrantEndpoints_RequireGlobalAdmin(t *testing.T) {
	h := newWebHarness(t, true)
	body := handler.GrantRequest{UserID: uuid.New(), Kind: "brand", EntityID: uuid.New()}

	w := h.request(t, http.MethodPost, "/access/grants",
		h.token(t, uuid.New(), false, []string{"*"}), body)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGrantEndpoints_AdminFlow(t *testing.T) {
	h := newWebHarness(t, true)
	brand := h.seedBrand(t, "Acme")
	user := uuid.New()
	admin := h.token(t, uuid.New(), true, nil)
	body := handler.GrantRequest{UserID: user, Kind: "brand", EntityID: brand.ID}

	w := h.request(t, http.MethodPost, "/access/grants", admin, body)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Granting twice is a no-op, not a conflict.
	w = h.request(t, http.MethodPost, "/access/grants", admin, body)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// The grant is live.
	viewer := h.token(t, user, false, viewerPermissions)
	w = h.request(t, http.MethodGet, "/brands", viewer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, dataLen(t, w))

	w = h.request(t, http.MethodDelete, "/access/grants", admin, body)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = h.request(t, http.MethodGet, "/brands", viewer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, dataLen(t, w))
}

func TestGrantEndpoints_RejectsUnknownKind(t *testing.T) {
	h := newWebHarness(t, true)
	body := handler.GrantRequest{UserID: uuid.New(), Kind: "warehouse", EntityID: uuid.New()}

	w := h.request(t, http.MethodPost, "/access/grants", h.token(t, uuid.New(), true, nil), body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ---------------------------------------------------------------------------
// Import administration
// ---------------------------------------------------------------------------

func TestImportRun_RequiresGlobalAdmin(t *testing.T) {
	h := newWebHarness(t, true)

	w := h.request(t, http.MethodPost, "/imports/orders/runs",
		h.token(t, uuid.New(), false, []string{"*"}),
		handler.RunImportRequest{Mode: "incremental"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestImportRun_UnknownStreamIs400(t *testing.T) {
	h := newWebHarness(t, true)

	w := h.request(t, http.MethodPost, "/imports/payments/runs",
		h.token(t, uuid.New(), true, nil),
		handler.RunImportRequest{Mode: "incremental"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportRun_DateRangeNeedsBounds(t *testing.T) {
	h := newWebHarness(t, true)

	w := h.request(t, http.MethodPost, "/imports/orders/runs",
		h.token(t, uuid.New(), true, nil),
		handler.RunImportRequest{Mode: "date_range"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportRun_SourceDownIs502(t *testing.T) {
	h := newWebHarness(t, false)

	w := h.request(t, http.MethodPost, "/imports/orders/runs",
		h.token(t, uuid.New(), true, nil),
		handler.RunImportRequest{Mode: "incremental"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "CONNECTIVITY_ERROR", errorCode(t, w))
}

func TestImportRun_EmptyIncrementalSucceeds(t *testing.T) {
	h := newWebHarness(t, true)

	w := h.request(t, http.MethodPost, "/imports/orders/runs",
		h.token(t, uuid.New(), true, nil),
		handler.RunImportRequest{Mode: "incremental"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"orders"`)
}

func TestImportState_AbsentIs404(t *testing.T) {
	h := newWebHarness(t, true)

	w := h.request(t, http.MethodGet, "/imports/orders/state",
		h.token(t, uuid.New(), true, nil), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestImportState_ReturnsCheckpoint(t *testing.T) {
	h := newWebHarness(t, true)
	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, h.states.Advance(context.Background(), importsync.StreamOrders, day, 42))

	w := h.request(t, http.MethodGet, "/imports/orders/state",
		h.token(t, uuid.New(), true, nil), nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "orders", body["kind"])
	assert.Equal(t, float64(42), body["last_external_id"])
}
