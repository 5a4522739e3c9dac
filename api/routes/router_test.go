package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tatlico/tatlico-backend/internal/auth"
	"github.com/tatlico/tatlico-backend/internal/pricerequests"
	"github.com/tatlico/tatlico-backend/internal/pricing"
	products "github.com/tatlico/tatlico-backend/internal/products"
	"github.com/tatlico/tatlico-backend/internal/users"
	pkgAuth "github.com/tatlico/tatlico-backend/pkg/auth"
	"github.com/tatlico/tatlico-backend/pkg/auth/session"
	"github.com/tatlico/tatlico-backend/pkg/config"
	"github.com/tatlico/tatlico-backend/pkg/db/models"
	"github.com/tatlico/tatlico-backend/pkg/enums"
	"github.com/tatlico/tatlico-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubAuthService) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.RefreshResponse, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubAuthService) Logout(ctx context.Context, req auth.LogoutRequest) error {
	return nil
}

func (stubAuthService) CreateUser(ctx context.Context, req auth.CreateUserRequest) (*users.UserDTO, error) {
	return nil, fmt.Errorf("not implemented")
}

type stubProductService struct{}

func (stubProductService) GetProduct(ctx context.Context, id uuid.UUID) (*products.ProductDTO, error) {
	return &products.ProductDTO{ID: id}, nil
}

func (stubProductService) ListProducts(ctx context.Context, input products.ListProductsInput) (*products.ProductListResult, error) {
	return &products.ProductListResult{}, nil
}

func (stubProductService) CreateProduct(ctx context.Context, input products.CreateProductInput) (*products.ProductDTO, error) {
	return &products.ProductDTO{ID: uuid.New()}, nil
}

func (stubProductService) UpdateProductPrices(ctx context.Context, input products.UpdatePricesInput) (*products.ProductDTO, error) {
	return &products.ProductDTO{ID: input.ProductID}, nil
}

func (stubProductService) BulkApplyPrices(ctx context.Context, input products.BulkApplyInput) (*products.BulkApplyResult, error) {
	return &products.BulkApplyResult{}, nil
}

type stubRequestService struct{}

func (stubRequestService) CreateRequest(ctx context.Context, input pricerequests.CreateRequestInput) (*pricerequests.RequestDTO, error) {
	return &pricerequests.RequestDTO{ID: uuid.New()}, nil
}

func (stubRequestService) DecideRequest(ctx context.Context, input pricerequests.DecideInput) (*pricerequests.RequestDTO, error) {
	return &pricerequests.RequestDTO{ID: input.RequestID}, nil
}

func (stubRequestService) BulkCreateRequests(ctx context.Context, input pricerequests.BulkCreateInput) (*pricerequests.BulkCreateResult, error) {
	return &pricerequests.BulkCreateResult{}, nil
}

func (stubRequestService) GetRequest(ctx context.Context, id uuid.UUID) (*pricerequests.RequestDTO, error) {
	return &pricerequests.RequestDTO{ID: id}, nil
}

func (stubRequestService) ListRequests(ctx context.Context, input pricerequests.ListRequestsInput) (*pricerequests.RequestListResult, error) {
	return &pricerequests.RequestListResult{}, nil
}

type stubDLQReader struct {
	entries []models.OutboxDLQ
}

func (s stubDLQReader) List(ctx context.Context, limit int) ([]models.OutboxDLQ, error) {
	return s.entries, nil
}

func (s stubDLQReader) FindByEventID(ctx context.Context, eventID uuid.UUID) (*models.OutboxDLQ, error) {
	for i := range s.entries {
		if s.entries[i].EventID == eventID {
			return &s.entries[i], nil
		}
	}
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
		Pricing: config.PricingConfig{PalletCost: "350", CasesPerPallet: 384},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	calc, err := pricing.NewCalculator(cfg.Pricing)
	if err != nil {
		t.Fatalf("build calculator: %v", err)
	}
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:         cfg,
		Logger:         logg,
		DB:             stubPinger{},
		Sessions:       stubSessionChecker{},
		Calculator:     calc,
		AuthService:    stubAuthService{},
		ProductService: stubProductService{},
		RequestService: stubRequestService{},
		DLQReader:      stubDLQReader{},
	})
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(t, testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get("X-Tatlico-Env"); got != "test" {
		t.Fatalf("expected env header test got %q", got)
	}
}

func TestPublicPingIsOpen(t *testing.T) {
	router := newTestRouter(t, testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/public/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(t, testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleAnalyst))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for private ping got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	nonAdmin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/ping", nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleAnalyst))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/ping", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestDecisionEndpointIsAdminOnly(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	url := "/api/admin/v1/price-requests/" + uuid.NewString() + "/decision"
	body := `{"decision":"approve"}`

	partner := httptest.NewRequest(http.MethodPost, url, strings.NewReader(body))
	partner.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRolePartner))
	partner.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, partner)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for partner decision got %d", resp.Code)
	}
}

func TestLandedCostEndpointComputesBreakdown(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	body := `{
		"base_case_cost": "100",
		"units_per_case": 384,
		"customs_percent": "15",
		"operational_percent": "10",
		"vat_percent": "7",
		"target_margin_percent": "30"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pricing/landed-cost", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleAnalyst))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var payload struct {
		Data struct {
			TargetUnitPriceInclVAT decimal.Decimal `json:"target_unit_price_incl_vat"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	expected := decimal.RequireFromString("0.4625")
	diff := payload.Data.TargetUnitPriceInclVAT.Sub(expected).Abs()
	if diff.GreaterThan(decimal.RequireFromString("0.01")) {
		t.Fatalf("expected incl-VAT price near %s got %s", expected, payload.Data.TargetUnitPriceInclVAT)
	}
}

func TestDLQEndpointsAreAdminOnly(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	analyst := httptest.NewRequest(http.MethodGet, "/api/admin/v1/outbox/dlq", nil)
	analyst.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleAnalyst))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, analyst)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for analyst got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/outbox/dlq", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin dlq list got %d", resp.Code)
	}

	missing := httptest.NewRequest(http.MethodGet, "/api/admin/v1/outbox/dlq/"+uuid.NewString(), nil)
	missing.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.MemberRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, missing)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown dlq event got %d", resp.Code)
	}
}

func buildToken(t *testing.T, cfg *config.Config, role enums.MemberRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}
