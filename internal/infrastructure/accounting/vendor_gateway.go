// Package accounting holds the accounting vendor adapters that register
// commission invoices as e-archive sales invoices.
package accounting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"go.uber.org/zap"
)

const (
	salesInvoicesPath = "/v1/sales-invoices"
	opCreateInvoice   = "accounting.create_sales_invoice"
	maxErrorBody      = 4 << 10
)

// VendorConfig configures VendorGateway
type VendorConfig struct {
	BaseURL string
	APIKey  string
	// Timeout bounds a single request. The submitter also bounds each
	// attempt with its context.
	Timeout time.Duration
}

// Validate checks the vendor configuration
func (c VendorConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("accounting: base URL is required")
	}
	if c.APIKey == "" {
		return errors.New("accounting: API key is required")
	}
	return nil
}

// VendorGateway is the HTTP JSON client of the accounting vendor
type VendorGateway struct {
	config     VendorConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewVendorGateway creates a VendorGateway
func NewVendorGateway(cfg VendorConfig, logger *zap.Logger) (*VendorGateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &VendorGateway{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

// Name identifies the vendor in logs and metrics
func (g *VendorGateway) Name() string {
	return "vendor"
}

type salesInvoiceResponse struct {
	ID string `json:"id"`
}

type vendorErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateSalesInvoice posts the invoice. Network failures, timeouts, 429 and
// 5xx are transient; every other non-2xx status is permanent. The invoice
// id is sent as the idempotency key so a retried request is not booked twice.
func (g *VendorGateway) CreateSalesInvoice(ctx context.Context, data commission.SalesInvoiceData) (string, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return "", commission.NewPermanentError(opCreateInvoice, 0, fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.BaseURL+salesInvoicesPath, bytes.NewReader(body))
	if err != nil {
		return "", commission.NewPermanentError(opCreateInvoice, 0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	req.Header.Set("Idempotency-Key", data.InvoiceID.String())

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", commission.NewTransientError(opCreateInvoice, 0, classifyTransport(err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", commission.NewTransientError(opCreateInvoice, resp.StatusCode, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		cause := vendorError(resp.StatusCode, respBody)
		g.logger.Warn("Accounting vendor rejected request",
			zap.String("invoice_number", data.InvoiceNumber),
			zap.Int("status", resp.StatusCode),
			zap.Error(cause),
		)
		if isTransientStatus(resp.StatusCode) {
			return "", commission.NewTransientError(opCreateInvoice, resp.StatusCode, cause)
		}
		return "", commission.NewPermanentError(opCreateInvoice, resp.StatusCode, cause)
	}

	var out salesInvoiceResponse
	if err := json.Unmarshal(respBody, &out); err != nil || out.ID == "" {
		return "", commission.NewPermanentError(opCreateInvoice, resp.StatusCode, errors.New("response carries no invoice id"))
	}
	return out.ID, nil
}

func isTransientStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func vendorError(status int, body []byte) error {
	var errResp vendorErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		return fmt.Errorf("%s: %s", errResp.Code, errResp.Message)
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return fmt.Errorf("HTTP %d: %s", status, strings.TrimSpace(string(body)))
}

// classifyTransport keeps deadline errors recognisable to callers
func classifyTransport(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}

var _ commission.AccountingGateway = (*VendorGateway)(nil)
