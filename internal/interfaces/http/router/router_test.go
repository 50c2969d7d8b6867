package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	commissionapp "github.com/selimmarslann-cyber/hizmetgo-sub000/internal/application/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/shared"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/auth"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/config"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/interfaces/http/handler"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
	assert.Equal(t, "v2", NewRouter(gin.New(), WithAPIVersion("v2")).apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") }).
		POST("/items", func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/test/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/test/items", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, "test", group.Name())
	assert.Equal(t, "/test", group.Prefix())
}

func TestDomainGroupMiddleware(t *testing.T) {
	engine := gin.New()
	var order []string

	g := NewDomainGroup("test", "/test").
		Use(func(c *gin.Context) { order = append(order, "first"); c.Next() }).
		Use(func(c *gin.Context) { order = append(order, "second"); c.Next() }).
		GET("/items", func(c *gin.Context) { order = append(order, "handler") })
	g.RegisterRoutes(engine.Group("/api/v1"))

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/test/items", nil))
	assert.Equal(t, []string{"first", "second", "handler"}, order)
}

type stubInvoices struct{}

func (stubInvoices) List(context.Context, commissionapp.Actor, commissionapp.InvoiceListFilter) (*commissionapp.InvoiceListResponse, error) {
	return &commissionapp.InvoiceListResponse{Items: []commissionapp.InvoiceDTO{}, Page: 1, PageSize: 20}, nil
}

func (stubInvoices) Get(_ context.Context, _ commissionapp.Actor, id uuid.UUID) (*commissionapp.InvoiceDTO, error) {
	return &commissionapp.InvoiceDTO{ID: id}, nil
}

func (stubInvoices) GetPDF(_ context.Context, _ commissionapp.Actor, id uuid.UUID) (*commission.PDFRenderRequest, error) {
	return &commission.PDFRenderRequest{InvoiceID: id, Status: commission.PDFPending}, nil
}

func (stubInvoices) AttachPDF(_ context.Context, id uuid.UUID, _ commissionapp.AttachPDFRequest) (*commissionapp.InvoiceDTO, error) {
	return &commissionapp.InvoiceDTO{ID: id}, nil
}

type stubOrders struct{}

func (stubOrders) CompleteOrder(_ context.Context, cmd commissionapp.OrderCompletedCommand) (*commissionapp.OrderCompletionResult, error) {
	return &commissionapp.OrderCompletionResult{Invoice: commissionapp.InvoiceDTO{OrderID: cmd.OrderID}}, nil
}

type stubReviews struct{}

func (stubReviews) ListCases(context.Context, commissionapp.ReviewCaseListFilter) (*shared.Paginated[commissionapp.ReviewCaseDTO], error) {
	return &shared.Paginated[commissionapp.ReviewCaseDTO]{Items: []commissionapp.ReviewCaseDTO{}, Page: 1, PageSize: 20}, nil
}

func (stubReviews) ResolveCase(_ context.Context, id, _ uuid.UUID, _ commissionapp.ResolveReviewCaseRequest) (*commissionapp.ReviewCaseDTO, error) {
	return &commissionapp.ReviewCaseDTO{ID: id}, nil
}

func (stubReviews) RetryAccounting(_ context.Context, id uuid.UUID) (*commissionapp.InvoiceDTO, error) {
	return &commissionapp.InvoiceDTO{ID: id}, nil
}

func (stubReviews) OrderLedger(_ context.Context, orderID uuid.UUID) (*commissionapp.OrderLedgerResponse, error) {
	return &commissionapp.OrderLedgerResponse{OrderID: orderID}, nil
}

type stubDB struct{}

func (stubDB) Ping(context.Context) error { return nil }

func newCommissionEngine(t *testing.T) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "router-test-secret-at-least-32-chars",
		Issuer:                "hizmet-identity",
		AccessTokenExpiration: time.Minute,
	})

	engine := gin.New()
	r := NewRouter(engine)
	RegisterCommission(engine, r, Handlers{
		Invoices: handler.NewInvoiceHandler(stubInvoices{}),
		Orders:   handler.NewOrderHandler(stubOrders{}),
		Reviews:  handler.NewReviewHandler(stubReviews{}),
		System:   handler.NewSystemHandler(stubDB{}, "commission-engine", "test"),
	}, middleware.JWTAuthMiddleware(jwtService))
	r.Setup()
	return engine, jwtService
}

func TestRegisterCommission_RoleAccess(t *testing.T) {
	engine, jwtService := newCommissionEngine(t)
	id := uuid.NewString()
	orderBody := `{"order_id":"` + uuid.NewString() + `","partner_id":"` + uuid.NewString() +
		`","customer_id":"` + uuid.NewString() + `","order_amount":"100","commission_rate":"0.1"}`

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		role   string
		status int
	}{
		{"health is public", http.MethodGet, "/health", "", "", http.StatusOK},
		{"system info is public", http.MethodGet, "/api/v1/system/info", "", "", http.StatusOK},
		{"invoices need a token", http.MethodGet, "/api/v1/commission/invoices", "", "", http.StatusUnauthorized},
		{"partner lists invoices", http.MethodGet, "/api/v1/commission/invoices", "", auth.RolePartner, http.StatusOK},
		{"admin reads an invoice", http.MethodGet, "/api/v1/commission/invoices/" + id, "", auth.RoleAdmin, http.StatusOK},
		{"partner reads a pdf", http.MethodGet, "/api/v1/commission/invoices/" + id + "/pdf", "", auth.RolePartner, http.StatusOK},
		{"service cannot list invoices", http.MethodGet, "/api/v1/commission/invoices", "", auth.RoleService, http.StatusForbidden},
		{"service completes orders", http.MethodPost, "/api/v1/internal/orders/completed", orderBody, auth.RoleService, http.StatusCreated},
		{"partner cannot complete orders", http.MethodPost, "/api/v1/internal/orders/completed", orderBody, auth.RolePartner, http.StatusForbidden},
		{"service attaches pdfs", http.MethodPost, "/api/v1/internal/invoices/" + id + "/pdf", `{"storage_key":"k"}`, auth.RoleService, http.StatusOK},
		{"admin lists review cases", http.MethodGet, "/api/v1/admin/commission/review-cases", "", auth.RoleAdmin, http.StatusOK},
		{"admin resolves a case", http.MethodPost, "/api/v1/admin/commission/review-cases/" + id + "/resolve", "", auth.RoleAdmin, http.StatusOK},
		{"admin retries accounting", http.MethodPost, "/api/v1/admin/commission/invoices/" + id + "/accounting/retry", "", auth.RoleAdmin, http.StatusOK},
		{"admin reads a ledger", http.MethodGet, "/api/v1/admin/commission/orders/" + id + "/ledger", "", auth.RoleAdmin, http.StatusOK},
		{"partner cannot read a ledger", http.MethodGet, "/api/v1/admin/commission/orders/" + id + "/ledger", "", auth.RolePartner, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			if tt.role != "" {
				token, err := jwtService.SignToken(auth.TokenInput{UserID: uuid.New(), PartnerID: uuid.New(), Roles: []string{tt.role}})
				require.NoError(t, err)
				req.Header.Set("Authorization", "Bearer "+token)
			}

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}
