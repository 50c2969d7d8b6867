package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/commission"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingHandler struct {
	eventTypes []string
	err        error
	panics     bool
	block      chan struct{}

	mu      sync.Mutex
	handled []shared.DomainEvent
}

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	h.handled = append(h.handled, event)
	h.mu.Unlock()
	if h.block != nil {
		<-h.block
	}
	if h.panics {
		panic("boom")
	}
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.eventTypes }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func issuedEvent() shared.DomainEvent {
	return &commission.InvoiceIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(commission.EventTypeInvoiceIssued, commission.AggregateTypeInvoice, uuid.New()),
	}
}

func manualReviewEvent() shared.DomainEvent {
	return &commission.InvoiceManualReviewRequiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(commission.EventTypeInvoiceManualReview, commission.AggregateTypeInvoice, uuid.New()),
	}
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zaptest.NewLogger(t))
	delivery := &recordingHandler{eventTypes: []string{commission.EventTypeInvoiceIssued}}
	review := &recordingHandler{eventTypes: []string{commission.EventTypeInvoiceManualReview}}
	audit := &recordingHandler{}
	bus.Subscribe(delivery)
	bus.Subscribe(review)
	bus.Subscribe(audit)

	require.NoError(t, bus.Publish(context.Background(), issuedEvent(), manualReviewEvent(), issuedEvent()))

	assert.Equal(t, 2, delivery.count())
	assert.Equal(t, 1, review.count())
	assert.Equal(t, 3, audit.count())
}

func TestInMemoryEventBus_FailingHandlerDoesNotStopOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zaptest.NewLogger(t))
	failing := &recordingHandler{err: errors.New("queue down")}
	panicking := &recordingHandler{panics: true}
	healthy := &recordingHandler{}
	bus.Subscribe(failing, commission.EventTypeInvoiceIssued)
	bus.Subscribe(panicking, commission.EventTypeInvoiceIssued)
	bus.Subscribe(healthy, commission.EventTypeInvoiceIssued)

	require.NoError(t, bus.Publish(context.Background(), issuedEvent()))

	assert.Equal(t, 1, failing.count())
	assert.Equal(t, 1, panicking.count())
	assert.Equal(t, 1, healthy.count())
}

func TestInMemoryEventBus_SubscribeTwiceDeliversOnce(t *testing.T) {
	bus := NewInMemoryEventBus(zaptest.NewLogger(t))
	h := &recordingHandler{eventTypes: []string{commission.EventTypeInvoiceIssued}}
	bus.Subscribe(h)
	bus.Subscribe(h)

	require.NoError(t, bus.Publish(context.Background(), issuedEvent()))
	assert.Equal(t, 1, h.count())

	bus.Unsubscribe(h)
	require.NoError(t, bus.Publish(context.Background(), issuedEvent()))
	assert.Equal(t, 1, h.count())
	assert.Empty(t, bus.registry.Handlers(commission.EventTypeInvoiceIssued))
}

func TestInMemoryEventBus_Stop(t *testing.T) {
	bus := NewInMemoryEventBus(zaptest.NewLogger(t))
	h := &recordingHandler{block: make(chan struct{})}
	bus.Subscribe(h)

	published := make(chan error, 1)
	go func() { published <- bus.Publish(context.Background(), issuedEvent()) }()
	require.Eventually(t, func() bool { return h.count() == 1 }, time.Second, time.Millisecond)

	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Stop(short), context.DeadlineExceeded)
	assert.ErrorIs(t, bus.Publish(context.Background(), issuedEvent()), ErrBusStopped)

	close(h.block)
	require.NoError(t, <-published)
	require.NoError(t, bus.Stop(context.Background()))

	require.NoError(t, bus.Start(context.Background()))
	assert.NoError(t, bus.Publish(context.Background(), issuedEvent()))
}
