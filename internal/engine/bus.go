package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/eventscout-project/eventscout/internal/catalog"
	"github.com/eventscout-project/eventscout/internal/core"
)

// CatalogBus wraps NATS JetStream for serve-mode publishing. Every new or
// changed record goes out on catalog.records.<broker>.<service>, and each
// affected service gets an update notice on catalog.updates.<service>, so
// downstream consumers can follow the catalog without polling the store.
type CatalogBus struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	ns     *server.Server
	logger zerolog.Logger
	mu     sync.RWMutex
	subs   []*nats.Subscription

	metrics *BusMetrics
}

// BusMetrics tracks catalog bus performance counters.
type BusMetrics struct {
	mu               sync.Mutex
	RecordsPublished int64
	UpdatesPublished int64
	PublishFailures  int64
	MessagesAcked    int64
	MessagesNaked    int64
}

// NewCatalogBus creates a CatalogBus. If cfg.Embedded is true, it starts an
// embedded NATS server first.
func NewCatalogBus(cfg *core.BusConfig, logger zerolog.Logger) (*CatalogBus, error) {
	bus := &CatalogBus{
		logger:  logger.With().Str("component", "catalog_bus").Logger(),
		subs:    make([]*nats.Subscription, 0),
		metrics: &BusMetrics{},
	}

	if cfg.Embedded {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating NATS data dir: %w", err)
		}

		opts := &server.Options{
			Host:      "127.0.0.1",
			Port:      cfg.Port,
			JetStream: true,
			StoreDir:  cfg.DataDir,
			NoLog:     true,
			NoSigs:    true,
		}

		ns, err := server.NewServer(opts)
		if err != nil {
			return nil, fmt.Errorf("creating embedded NATS server: %w", err)
		}

		ns.Start()

		if !ns.ReadyForConnections(10 * time.Second) {
			return nil, fmt.Errorf("embedded NATS server failed to start within timeout")
		}

		bus.ns = ns
		bus.logger.Info().Int("port", cfg.Port).Msg("embedded NATS server started")
	}

	url := cfg.URL
	if cfg.Embedded {
		url = fmt.Sprintf("nats://127.0.0.1:%d", cfg.Port)
	}

	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				bus.logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			bus.logger.Info().Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	bus.nc = nc

	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}
	bus.js = js

	// AddStream returns the existing stream when the config matches; after
	// an upgrade it may exist with an older config, so fall back to update.
	recordsStreamCfg := &nats.StreamConfig{
		Name:      "CATALOG_RECORDS",
		Subjects:  []string{"catalog.records.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour * 7,
		MaxBytes:  1024 * 1024 * 1024,
		Storage:   nats.FileStorage,
		Discard:   nats.DiscardOld,
	}
	_, err = js.AddStream(recordsStreamCfg)
	if err != nil {
		if _, updateErr := js.UpdateStream(recordsStreamCfg); updateErr != nil {
			return nil, fmt.Errorf("creating/updating records stream: %w (original: %v)", updateErr, err)
		}
	}

	updatesStreamCfg := &nats.StreamConfig{
		Name:      "CATALOG_UPDATES",
		Subjects:  []string{"catalog.updates.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour * 30,
		MaxBytes:  256 * 1024 * 1024,
		Storage:   nats.FileStorage,
		Discard:   nats.DiscardOld,
	}
	_, err = js.AddStream(updatesStreamCfg)
	if err != nil {
		if _, updateErr := js.UpdateStream(updatesStreamCfg); updateErr != nil {
			return nil, fmt.Errorf("creating/updating updates stream: %w (original: %v)", updateErr, err)
		}
	}

	bus.logger.Info().Str("url", url).Msg("connected to NATS JetStream")
	return bus, nil
}

// PublishRecord publishes one canonical event record.
func (b *CatalogBus) PublishRecord(rec *core.EventRecord) error {
	data, err := rec.Marshal()
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}

	subject := fmt.Sprintf("catalog.records.%s.%s", subjectToken(string(rec.Broker)), subjectToken(rec.ServiceName))
	_, err = b.js.Publish(subject, data)
	if err != nil {
		b.metrics.mu.Lock()
		b.metrics.PublishFailures++
		b.metrics.mu.Unlock()
		return fmt.Errorf("publishing record to %s: %w", subject, err)
	}

	b.metrics.mu.Lock()
	b.metrics.RecordsPublished++
	b.metrics.mu.Unlock()

	b.logger.Debug().
		Str("record_id", rec.ID).
		Str("subject", subject).
		Str("channel", rec.ChannelName).
		Msg("record published")

	return nil
}

// PublishUpdate publishes a per-service catalog update notice carrying the
// service's index entry.
func (b *CatalogBus) PublishUpdate(entry *catalog.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling update: %w", err)
	}

	subject := "catalog.updates." + subjectToken(entry.ServiceName)
	_, err = b.js.Publish(subject, data)
	if err != nil {
		b.metrics.mu.Lock()
		b.metrics.PublishFailures++
		b.metrics.mu.Unlock()
		return fmt.Errorf("publishing update to %s: %w", subject, err)
	}

	b.metrics.mu.Lock()
	b.metrics.UpdatesPublished++
	b.metrics.mu.Unlock()

	return nil
}

// Subscribe creates a durable subscription to a subject pattern.
func (b *CatalogBus) Subscribe(subject, durableName string, handler func(msg *nats.Msg)) error {
	opts := []nats.SubOpt{nats.DeliverNew(), nats.AckExplicit()}
	if durableName != "" {
		opts = append(opts, nats.Durable(durableName))
	}
	sub, err := b.js.Subscribe(subject, handler, opts...)
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", subject, err)
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	b.logger.Debug().Str("subject", subject).Str("durable", durableName).Msg("subscribed")
	return nil
}

// SubscribeRecords subscribes to every published record with a durable
// consumer, decoding each message back into an EventRecord.
func (b *CatalogBus) SubscribeRecords(durableName string, handler func(rec *core.EventRecord)) error {
	return b.Subscribe("catalog.records.>", durableName, func(msg *nats.Msg) {
		rec, err := core.UnmarshalEventRecord(msg.Data)
		if err != nil {
			b.logger.Error().Err(err).Msg("failed to unmarshal record")
			_ = msg.Nak()
			b.metrics.mu.Lock()
			b.metrics.MessagesNaked++
			b.metrics.mu.Unlock()
			return
		}
		handler(rec)
		_ = msg.Ack()
		b.metrics.mu.Lock()
		b.metrics.MessagesAcked++
		b.metrics.mu.Unlock()
	})
}

// Close shuts down the catalog bus.
func (b *CatalogBus) Close() error {
	b.mu.Lock()
	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	b.subs = nil
	b.mu.Unlock()

	if b.nc != nil {
		b.nc.Close()
	}

	if b.ns != nil {
		b.ns.Shutdown()
		b.ns.WaitForShutdown()
		b.logger.Info().Msg("embedded NATS server stopped")
	}

	return nil
}

// IsConnected returns true if the NATS connection is active.
func (b *CatalogBus) IsConnected() bool {
	return b.nc != nil && b.nc.IsConnected()
}

// GetMetrics returns a snapshot of bus counters.
func (b *CatalogBus) GetMetrics() map[string]int64 {
	b.metrics.mu.Lock()
	defer b.metrics.mu.Unlock()
	return map[string]int64{
		"records_published": b.metrics.RecordsPublished,
		"updates_published": b.metrics.UpdatesPublished,
		"publish_failures":  b.metrics.PublishFailures,
		"messages_acked":    b.metrics.MessagesAcked,
		"messages_naked":    b.metrics.MessagesNaked,
	}
}

// subjectToken makes a value safe to embed as one NATS subject token.
// Service and broker names come from repository paths, so dots, spaces,
// and wildcard characters must not leak into the subject hierarchy.
func subjectToken(s string) string {
	if s == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, s)
}
