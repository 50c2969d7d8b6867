package storage

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	commissionapp "github.com/selimmarslann-cyber/hizmetgo-sub000/internal/application/commission"
)

var _ commissionapp.PDFStore = (*StubPDFStore)(nil)

// StubPDFStore is an in-memory PDFStore for local runs and tests. URLs point
// at BaseURL and no bytes are stored; MarkUploaded stands in for the renderer.
type StubPDFStore struct {
	BaseURL string

	mu       sync.RWMutex
	uploaded map[string]struct{}
}

// NewStubPDFStore creates a StubPDFStore
func NewStubPDFStore(baseURL string) *StubPDFStore {
	if baseURL == "" {
		baseURL = "http://localhost:9000/invoices"
	}
	return &StubPDFStore{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		uploaded: make(map[string]struct{}),
	}
}

// GenerateUploadURL returns a fake signed PUT URL
func (s *StubPDFStore) GenerateUploadURL(_ context.Context, storageKey, _ string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errStorageKeyRequired
	}
	if expiresIn <= 0 {
		expiresIn = defaultUploadExpiry
	}
	return s.signed(storageKey, "upload"), time.Now().Add(expiresIn), nil
}

// GenerateDownloadURL returns a fake signed GET URL
func (s *StubPDFStore) GenerateDownloadURL(_ context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errStorageKeyRequired
	}
	if expiresIn <= 0 {
		expiresIn = defaultDownloadExpiry
	}
	return s.signed(storageKey, "download"), time.Now().Add(expiresIn), nil
}

// ObjectExists reports keys passed to MarkUploaded
func (s *StubPDFStore) ObjectExists(_ context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errStorageKeyRequired
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.uploaded[storageKey]
	return ok, nil
}

// ObjectURL returns the unsigned URL of storageKey
func (s *StubPDFStore) ObjectURL(storageKey string) string {
	return s.BaseURL + "/" + strings.TrimLeft(storageKey, "/")
}

// MarkUploaded records storageKey as present
func (s *StubPDFStore) MarkUploaded(storageKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploaded[storageKey] = struct{}{}
}

func (s *StubPDFStore) signed(storageKey, action string) string {
	return s.ObjectURL(storageKey) + "?" + url.Values{"action": {action}, "stub": {"1"}}.Encode()
}
