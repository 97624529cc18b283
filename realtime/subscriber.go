// Package realtime subscribes to the provider's change feed for the products
// table and feeds every change into the product caches.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jrsteele09/go-seller-dashboard/products"
	"github.com/jrsteele09/go-seller-dashboard/provider"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Sink receives reconciled changes. products.Store is the production sink.
type Sink interface {
	Apply(change products.Change) int
	MarkAllStale()
}

var _ Sink = (*products.Store)(nil)

// Observer is told about connection state and delivered events.
type Observer interface {
	ObserveRealtimeConnection(state string)
	ObserveRealtimeEvent(eventType string)
}

const (
	StateConnected    = "connected"
	StateDisconnected = "disconnected"
)

// Subscriber keeps one channel joined to the products change feed,
// reconnecting whenever the connection drops.
type Subscriber struct {
	configs     provider.ConfigSource
	sink        Sink
	dialer      *websocket.Dialer
	schema      string
	table       string
	heartbeat   time.Duration
	joinTimeout time.Duration
	limiter     *rate.Limiter
	observer    Observer
	logger      zerolog.Logger
}

type Option func(*Subscriber)

func WithDialer(d *websocket.Dialer) Option {
	return func(s *Subscriber) {
		s.dialer = d
	}
}

// WithTable selects the watched table.
func WithTable(schema, table string) Option {
	return func(s *Subscriber) {
		s.schema = schema
		s.table = table
	}
}

func WithHeartbeatInterval(d time.Duration) Option {
	return func(s *Subscriber) {
		s.heartbeat = d
	}
}

// WithReconnectLimiter paces connection attempts.
func WithReconnectLimiter(l *rate.Limiter) Option {
	return func(s *Subscriber) {
		s.limiter = l
	}
}

func WithObserver(o Observer) Option {
	return func(s *Subscriber) {
		s.observer = o
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Subscriber) {
		s.logger = logger
	}
}

func NewSubscriber(configs provider.ConfigSource, sink Sink, options ...Option) (*Subscriber, error) {
	if configs == nil {
		return nil, errors.New("[NewSubscriber] config source is required")
	}
	if sink == nil {
		return nil, errors.New("[NewSubscriber] sink is required")
	}
	s := &Subscriber{
		configs:     configs,
		sink:        sink,
		dialer:      &websocket.Dialer{HandshakeTimeout: 10 * time.Second, Proxy: http.ProxyFromEnvironment},
		schema:      "api",
		table:       "products",
		heartbeat:   25 * time.Second,
		joinTimeout: 10 * time.Second,
		limiter:     rate.NewLimiter(rate.Every(5*time.Second), 1),
		logger:      zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Topic is the channel topic for the watched table.
func (s *Subscriber) Topic() string {
	return "realtime:" + s.schema + ":" + s.table
}

// Run keeps the subscription alive until ctx is cancelled. Each successful
// join marks every cache stale, since changes made while disconnected were
// never delivered.
func (s *Subscriber) Run(ctx context.Context) error {
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return ctx.Err()
		}

		err := s.runSession(ctx)
		s.observeConnection(StateDisconnected)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn().Err(err).Str("topic", s.Topic()).Msg("realtime connection lost, reconnecting")
	}
}

func (s *Subscriber) runSession(ctx context.Context) error {
	cfg, err := s.configs.Load(ctx)
	if err != nil {
		return err
	}

	conn, _, err := s.dialer.DialContext(ctx, cfg.RealtimeURL(), nil)
	if err != nil {
		return fmt.Errorf("[realtime] dial: %w", err)
	}
	sess := &session{conn: conn}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = sess.close()
		case <-done:
		}
	}()

	joinRef := uuid.NewString()
	if err := sess.send(Message{
		Topic:   s.Topic(),
		Event:   eventJoin,
		Payload: mustJSON(newJoinPayload(s.schema, s.table, cfg.AnonKey)),
		Ref:     joinRef,
		JoinRef: joinRef,
	}); err != nil {
		return err
	}
	if err := s.awaitJoin(conn, joinRef); err != nil {
		return err
	}

	s.logger.Info().Str("topic", s.Topic()).Msg("realtime channel joined")
	s.observeConnection(StateConnected)
	s.sink.MarkAllStale()

	go s.heartbeats(sess, done)
	return s.readLoop(conn)
}

func (s *Subscriber) awaitJoin(conn *websocket.Conn, joinRef string) error {
	_ = conn.SetReadDeadline(time.Now().Add(s.joinTimeout))
	defer conn.SetReadDeadline(time.Time{})

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("[realtime] awaiting join reply: %w", err)
		}
		if msg.Event != eventReply || msg.Ref != joinRef {
			continue
		}
		var reply replyPayload
		if err := json.Unmarshal(msg.Payload, &reply); err != nil {
			return fmt.Errorf("[realtime] decoding join reply: %w", err)
		}
		if reply.Status != "ok" {
			return fmt.Errorf("[realtime] join rejected: %s %s", reply.Status, string(reply.Response))
		}
		return nil
	}
}

func (s *Subscriber) readLoop(conn *websocket.Conn) error {
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("[realtime] read: %w", err)
		}

		switch {
		case msg.Topic == heartbeatTopic:
		case msg.Event == eventPostgresChanges:
			s.handleChange(msg.Payload)
		case msg.Event == eventError || msg.Event == eventClose:
			return fmt.Errorf("[realtime] channel %s: %s", msg.Event, string(msg.Payload))
		case msg.Event == eventSystem:
			s.logger.Debug().RawJSON("payload", msg.Payload).Msg("realtime system message")
		}
	}
}

func (s *Subscriber) handleChange(payload json.RawMessage) {
	change, err := ParseChange(payload)
	if err != nil {
		s.logger.Warn().Err(err).Msg("realtime change ignored")
		return
	}
	applied := s.sink.Apply(change)
	if s.observer != nil {
		s.observer.ObserveRealtimeEvent(string(change.Type))
	}
	s.logger.Debug().
		Str("event", string(change.Type)).
		Str("product_id", change.Product.ID).
		Int("caches", applied).
		Msg("realtime change applied")
}

func (s *Subscriber) heartbeats(sess *session, done <-chan struct{}) {
	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			err := sess.send(Message{Topic: heartbeatTopic, Event: eventHeartbeat, Payload: json.RawMessage(`{}`), Ref: uuid.NewString()})
			if err != nil {
				s.logger.Debug().Err(err).Msg("realtime heartbeat failed")
				_ = sess.close()
				return
			}
		}
	}
}

func (s *Subscriber) observeConnection(state string) {
	if s.observer != nil {
		s.observer.ObserveRealtimeConnection(state)
	}
}

// session serialises writes; the connection allows one concurrent writer.
type session struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *session) send(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("[realtime] write %s: %w", msg.Event, err)
	}
	return nil
}

func (s *session) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return s.conn.Close()
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
