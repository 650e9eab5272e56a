package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/fitness-tracker-api/internal/dto"
	"github.com/noah-isme/fitness-tracker-api/internal/models"
	"github.com/noah-isme/fitness-tracker-api/internal/observability"
)

const (
	liveFeedLastTTL     = 30 * time.Minute
	liveFeedLastPrefix  = "live:last:"
	liveFeedSendBuffer  = 32
	liveFeedPingTimeout = 30 * time.Second
)

// LiveFeedOptions carries what was known about the client at upgrade time.
// An empty Section subscribes to every section.
type LiveFeedOptions struct {
	UserID        uint
	Section       string
	CorrelationID string
	Context       context.Context
}

// LiveFeedService streams newly submitted entries to connected administrators.
type LiveFeedService interface {
	ServeConnection(conn *websocket.Conn, opts LiveFeedOptions)
	HandleEvent(ctx context.Context, event EntrySubmittedEvent)
}

type liveFeedService struct {
	cache  *redis.Client
	logger zerolog.Logger
	hub    *liveHub
}

// liveHub tracks clients by subscribed section.
type liveHub struct {
	mu       sync.RWMutex
	sections map[string]map[*liveClient]struct{}
	log      zerolog.Logger
}

type liveClient struct {
	conn    *websocket.Conn
	send    chan dto.LiveMessage
	options LiveFeedOptions
	service *liveFeedService
	closed  chan struct{}
	once    sync.Once
}

// NewLiveFeedService constructs the live feed. A nil cache disables replay of
// the last submission.
func NewLiveFeedService(cache *redis.Client, logger zerolog.Logger) LiveFeedService {
	return &liveFeedService{
		cache:  cache,
		logger: logger.With().Str("component", "live_feed_service").Logger(),
		hub: &liveHub{
			sections: make(map[string]map[*liveClient]struct{}),
			log:      logger.With().Str("component", "live_feed_hub").Logger(),
		},
	}
}

func (s *liveFeedService) ServeConnection(conn *websocket.Conn, opts LiveFeedOptions) {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	opts.Section = strings.TrimSpace(opts.Section)

	client := &liveClient{
		conn:    conn,
		send:    make(chan dto.LiveMessage, liveFeedSendBuffer),
		options: opts,
		service: s,
		closed:  make(chan struct{}),
	}

	// Initial frames are queued before the client joins the hub so no
	// broadcast can overtake them.
	client.send <- dto.LiveMessage{Type: dto.LiveMessageConnected, Section: opts.Section}
	if last := s.fetchLast(opts.Context, opts.Section); last != nil {
		client.send <- dto.LiveMessage{Type: dto.LiveMessageEntrySubmitted, Section: last.Section, Entry: last, Replay: true}
	}

	go client.writer()
	s.hub.register(client)
	observability.LiveFeedConnections().Inc()
	defer observability.LiveFeedConnections().Dec()

	client.reader()
}

// HandleEvent fans a submission out to subscribed clients. It has the
// EntryEventHandler signature so it can be subscribed to the event bus.
func (s *liveFeedService) HandleEvent(ctx context.Context, event EntrySubmittedEvent) {
	entry := dto.LiveEntry{
		EntryID:       event.EntryID,
		StudentID:     event.StudentID,
		Section:       event.Section,
		TestType:      event.TestType,
		TestTypeLabel: models.TestTypeLabel(event.TestType),
		SubmittedAt:   event.SubmittedAt,
	}

	s.storeLast(ctx, entry)
	s.hub.broadcast(dto.LiveMessage{Type: dto.LiveMessageEntrySubmitted, Section: entry.Section, Entry: &entry})
}

func (s *liveFeedService) storeLast(ctx context.Context, entry dto.LiveEntry) {
	if s.cache == nil || entry.Section == "" {
		return
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, liveFeedLastPrefix+entry.Section, payload, liveFeedLastTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("section", entry.Section).Msg("failed to cache last live entry")
	}
}

func (s *liveFeedService) fetchLast(ctx context.Context, section string) *dto.LiveEntry {
	if s.cache == nil || section == "" {
		return nil
	}
	raw, err := s.cache.Get(ctx, liveFeedLastPrefix+section).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Str("section", section).Msg("failed to read last live entry")
		}
		return nil
	}
	var entry dto.LiveEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil
	}
	return &entry
}

func (h *liveHub) register(client *liveClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-client.closed:
		return
	default:
	}

	section := client.options.Section
	if _, ok := h.sections[section]; !ok {
		h.sections[section] = make(map[*liveClient]struct{})
	}
	h.sections[section][client] = struct{}{}
	h.log.Debug().Str("section", section).Uint("user_id", client.options.UserID).Msg("live client connected")
}

func (h *liveHub) unregister(client *liveClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	section := client.options.Section
	if clients, ok := h.sections[section]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.sections, section)
		}
	}
	h.log.Debug().Str("section", section).Uint("user_id", client.options.UserID).Msg("live client disconnected")
}

// broadcast delivers to clients of the message's section and to clients
// watching every section.
func (h *liveHub) broadcast(message dto.LiveMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	targets := []string{""}
	if message.Section != "" {
		targets = append(targets, message.Section)
	}
	for _, section := range targets {
		for client := range h.sections[section] {
			select {
			case client.send <- message:
			default:
				h.log.Warn().Str("section", section).Uint("user_id", client.options.UserID).Msg("dropping live message for slow client")
			}
		}
	}
}

// reader only watches for the client going away; the feed is one-way.
func (c *liveClient) reader() {
	defer c.close()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.service.logger.Debug().Err(err).Msg("live read loop ended")
			return
		}
	}
}

func (c *liveClient) writer() {
	defer c.close()

	for {
		select {
		case message := <-c.send:
			if err := c.conn.WriteJSON(message); err != nil {
				c.service.logger.Debug().Err(err).Msg("live write loop terminated")
				return
			}
		case <-time.After(liveFeedPingTimeout):
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				c.service.logger.Debug().Err(err).Msg("live ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *liveClient) close() {
	c.once.Do(func() {
		close(c.closed)
		c.service.hub.unregister(c)
		_ = c.conn.Close()
	})
}
