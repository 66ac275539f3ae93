package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart-backend/internal/authz"
	"github.com/freshcart/freshcart-backend/internal/catalog"
	pkgAuth "github.com/freshcart/freshcart-backend/pkg/auth"
	"github.com/freshcart/freshcart-backend/pkg/config"
	"github.com/freshcart/freshcart-backend/pkg/logger"
	"github.com/freshcart/freshcart-backend/pkg/pagination"
)

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(context.Context, string) (bool, error) {
	return true, nil
}

type stubCatalogService struct{}

func (stubCatalogService) ListCategories(context.Context) ([]catalog.CategoryView, error) {
	return []catalog.CategoryView{}, nil
}

func (stubCatalogService) GetCategory(context.Context, uuid.UUID) (*catalog.CategoryView, error) {
	return &catalog.CategoryView{}, nil
}

func (stubCatalogService) CreateCategory(context.Context, catalog.CreateCategoryRequest) (*catalog.CategoryView, error) {
	return &catalog.CategoryView{}, nil
}

func (stubCatalogService) UpdateCategory(context.Context, uuid.UUID, catalog.UpdateCategoryRequest) (*catalog.CategoryView, error) {
	return &catalog.CategoryView{}, nil
}

func (stubCatalogService) DeleteCategory(context.Context, uuid.UUID) error {
	return nil
}

func (stubCatalogService) ListItems(context.Context, catalog.ItemListFilters, pagination.Params) (*catalog.ItemListView, error) {
	return &catalog.ItemListView{Items: []catalog.ItemView{}}, nil
}

func (stubCatalogService) GetItem(context.Context, uuid.UUID) (*catalog.ItemView, error) {
	return &catalog.ItemView{}, nil
}

func (stubCatalogService) CreateItem(context.Context, catalog.CreateItemRequest) (*catalog.ItemView, error) {
	return &catalog.ItemView{}, nil
}

func (stubCatalogService) UpdateItem(context.Context, uuid.UUID, catalog.UpdateItemRequest) (*catalog.ItemView, error) {
	return &catalog.ItemView{}, nil
}

func (stubCatalogService) DeleteItem(context.Context, uuid.UUID) error {
	return nil
}

func (stubCatalogService) UpdateStock(context.Context, uuid.UUID, catalog.UpdateStockRequest) (*catalog.ItemView, error) {
	return &catalog.ItemView{}, nil
}

func (stubCatalogService) UploadItemImage(context.Context, uuid.UUID, string, io.Reader) (*catalog.ItemView, error) {
	return &catalog.ItemView{}, nil
}

func testRouterConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "freshcart-test",
			ExpirationMinutes: 15,
		},
	}
}

func buildTestRouter(t *testing.T, authorizer authz.Authorizer) http.Handler {
	t.Helper()
	return NewRouter(RouterParams{
		Config:     testRouterConfig(),
		Logger:     logger.New(logger.Options{ServiceName: "router-test"}),
		Sessions:   stubSessionChecker{},
		Authorizer: authorizer,
		Catalog:    stubCatalogService{},
	})
}

func mintToken(t *testing.T, cfg *config.Config, email string) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  email,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestRouterHealthLive(t *testing.T) {
	router := buildTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-FreshCart-Env") != "test" {
		t.Fatal("expected env header")
	}
}

func TestRouterPublicCatalogNeedsNoToken(t *testing.T) {
	router := buildTestRouter(t, nil)

	for _, target := range []string{"/api/categories", "/api/items"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d: %s", target, rec.Code, rec.Body.String())
		}
	}
}

func TestRouterProtectedRoutesRequireAuth(t *testing.T) {
	router := buildTestRouter(t, nil)

	targets := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/cart"},
		{http.MethodGet, "/api/orders"},
		{http.MethodGet, "/api/addresses"},
		{http.MethodGet, "/api/users/profile"},
		{http.MethodGet, "/api/auth/me"},
		{http.MethodGet, "/api/admin/orders"},
	}
	for _, target := range targets {
		req := httptest.NewRequest(target.method, target.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", target.method, target.path, rec.Code)
		}
	}
}

func TestRouterAdminRoutesEnforceAllowlist(t *testing.T) {
	cfg := testRouterConfig()
	authorizer := authz.NewAllowlistAuthorizer([]string{"ops@freshcart.dev"})
	router := NewRouter(RouterParams{
		Config:     cfg,
		Logger:     logger.New(logger.Options{ServiceName: "router-test"}),
		Sessions:   stubSessionChecker{},
		Authorizer: authorizer,
		Catalog:    stubCatalogService{},
	})

	shopper := mintToken(t, cfg, "shopper@example.com")
	req := httptest.NewRequest(http.MethodPost, "/api/admin/categories", nil)
	req.Header.Set("Authorization", "Bearer "+shopper)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}

	admin := mintToken(t, cfg, "ops@freshcart.dev")
	req = httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	// Orders service is not wired in this fixture; clearing the allowlist
	// gate is enough, the nil-guard answers 500.
	if rec.Code == http.StatusForbidden || rec.Code == http.StatusUnauthorized {
		t.Fatalf("expected allowlisted admin through the gate, got %d", rec.Code)
	}
}
