package accounting

import (
	"fmt"

	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewGateway builds the gateway selected by accounting.provider
func NewGateway(cfg config.AccountingConfig, logger *zap.Logger) (commission.AccountingGateway, error) {
	switch cfg.Provider {
	case "", "mock":
		logger.Warn("Using mock accounting gateway; e-archive invoices are not registered")
		return NewMockGateway(), nil
	case "vendor":
		return NewVendorGateway(VendorConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Timeout: cfg.RequestTimeout,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown accounting provider %q", cfg.Provider)
	}
}
