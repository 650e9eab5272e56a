package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// EntrySubmittedEvent announces a newly stored fitness test entry.
type EntrySubmittedEvent struct {
	Source      string    `json:"source"`
	EntryID     uint      `json:"entry_id"`
	StudentID   uint      `json:"student_id"`
	Section     string    `json:"section"`
	TestType    string    `json:"test_type"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// EntryEventHandler reacts to submitted entries.
type EntryEventHandler func(ctx context.Context, event EntrySubmittedEvent)

// EntryEventBus delivers entry events to local handlers and, when a NATS
// connection is configured, to the other nodes of the deployment.
type EntryEventBus interface {
	Publish(ctx context.Context, event EntrySubmittedEvent)
	Subscribe(handler EntryEventHandler)
	Start(ctx context.Context)
}

type entryEventBus struct {
	nats     *nats.Conn
	subject  string
	nodeID   string
	logger   zerolog.Logger
	mu       sync.RWMutex
	handlers []EntryEventHandler
}

// NewEntryEventBus constructs an event bus. A nil connection keeps events local.
func NewEntryEventBus(conn *nats.Conn, subject string, logger zerolog.Logger) EntryEventBus {
	return &entryEventBus{
		nats:    conn,
		subject: subject,
		nodeID:  uuid.NewString(),
		logger:  logger.With().Str("component", "entry_event_bus").Logger(),
	}
}

func (b *entryEventBus) Subscribe(handler EntryEventHandler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	b.handlers = append(b.handlers, handler)
	b.mu.Unlock()
}

func (b *entryEventBus) Publish(ctx context.Context, event EntrySubmittedEvent) {
	event.Source = b.nodeID
	if event.SubmittedAt.IsZero() {
		event.SubmittedAt = time.Now().UTC()
	}

	b.dispatch(ctx, event)

	if b.nats == nil || b.subject == "" {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Warn().Err(err).Msg("failed to encode entry event")
		return
	}
	if err := b.nats.Publish(b.subject, payload); err != nil {
		b.logger.Warn().Err(err).Msg("failed to publish entry event")
	}
}

func (b *entryEventBus) Start(ctx context.Context) {
	if b.nats == nil || b.subject == "" {
		return
	}

	sub, err := b.nats.Subscribe(b.subject, func(msg *nats.Msg) {
		b.handleMessage(ctx, msg.Data)
	})
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to subscribe to entry events")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			b.logger.Warn().Err(err).Msg("failed to drain entry event subscription")
		}
	}()
}

func (b *entryEventBus) handleMessage(ctx context.Context, payload []byte) {
	var event EntrySubmittedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		b.logger.Warn().Err(err).Msg("invalid entry event payload")
		return
	}

	// Local handlers already ran when this node published.
	if event.Source == b.nodeID {
		return
	}

	b.dispatch(ctx, event)
}

func (b *entryEventBus) dispatch(ctx context.Context, event EntrySubmittedEvent) {
	b.mu.RLock()
	handlers := append([]EntryEventHandler(nil), b.handlers...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(ctx, event)
	}
}
