package storage

import (
	"context"
	"fmt"

	commissionapp "github.com/selimmarslann-cyber/hizmetgo-sub000/internal/application/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewPDFStore builds the store selected by storage.provider. The S3 store
// creates its bucket when ensureBucket is set.
func NewPDFStore(ctx context.Context, cfg *config.StorageConfig, ensureBucket bool, logger *zap.Logger) (commissionapp.PDFStore, error) {
	switch cfg.Provider {
	case "stub":
		logger.Warn("Using stub PDF storage; rendered PDFs are not persisted")
		return NewStubPDFStore(cfg.PublicURLPrefix), nil
	case "", "s3":
		store, err := NewS3PDFStore(cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if ensureBucket {
			if err := store.EnsureBucket(ctx); err != nil {
				return nil, err
			}
		}
		logger.Info("PDF storage initialized",
			zap.String("endpoint", store.endpoint),
			zap.String("bucket", store.Bucket()),
		)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}
