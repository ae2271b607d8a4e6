// Package archive hands finished-game summaries off to the historic
// archive over NATS JetStream. The handoff is fire-and-forget: a publish
// failure is logged and swallowed and must never block room teardown.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// GameSummary is what the core hands off at room teardown.
type GameSummary struct {
	Name        string    `json:"name"`
	BestScore   float64   `json:"best_score"`
	PlayerCount int       `json:"player_count"`
	EndedAt     time.Time `json:"ended_at"`
}

// Publisher is the teardown handoff seam.
type Publisher interface {
	PublishGameSummary(ctx context.Context, summary GameSummary) error
}

// JetStreamConfig holds configuration for the archive stream.
type JetStreamConfig struct {
	URL           string
	StreamName    string
	Subject       string
	MaxReconnects int
	ReconnectWait time.Duration
	MaxAge        time.Duration
}

// DefaultJetStreamConfig returns default archive stream configuration.
func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		URL:           nats.DefaultURL,
		StreamName:    "GAME_ARCHIVE",
		Subject:       "games.archive",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
		MaxAge:        30 * 24 * time.Hour,
	}
}

// JetStreamPublisher publishes game summaries to NATS JetStream.
type JetStreamPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config JetStreamConfig
}

// NewJetStreamPublisher connects to NATS and ensures the archive stream
// exists.
func NewJetStreamPublisher(cfg JetStreamConfig) (*JetStreamPublisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	p := &JetStreamPublisher{nc: nc, js: js, config: cfg}

	if err := p.ensureStream(context.Background()); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}

	return p, nil
}

func (p *JetStreamPublisher) ensureStream(ctx context.Context) error {
	sc := jetstream.StreamConfig{
		Name:        p.config.StreamName,
		Description: "Finished game summaries",
		Subjects:    []string{p.config.Subject},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      p.config.MaxAge,
		Storage:     jetstream.FileStorage,
	}

	if _, err := p.js.Stream(ctx, p.config.StreamName); err != nil {
		if _, err = p.js.CreateStream(ctx, sc); err != nil {
			return fmt.Errorf("create stream: %w", err)
		}
		log.Info().Str("stream", p.config.StreamName).Msg("created JetStream stream")
	}
	return nil
}

// PublishGameSummary publishes one summary with a fresh event id.
func (p *JetStreamPublisher) PublishGameSummary(ctx context.Context, summary GameSummary) error {
	eventID := uuid.New().String()

	env := map[string]any{
		"eventId":   eventID,
		"timestamp": time.Now().UTC(),
		"payload":   summary,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	ack, err := p.js.PublishMsg(ctx, &nats.Msg{
		Subject: p.config.Subject,
		Data:    data,
		Header: nats.Header{
			"Event-ID": []string{eventID},
		},
	},
		jetstream.WithMsgID(eventID),
		jetstream.WithExpectStream(p.config.StreamName),
	)
	if err != nil {
		return fmt.Errorf("publish to JetStream: %w", err)
	}

	log.Info().
		Str("subject", p.config.Subject).
		Str("game", summary.Name).
		Uint64("sequence", ack.Sequence).
		Msg("game summary archived")
	return nil
}

// Close releases the NATS connection.
func (p *JetStreamPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}

// NoopPublisher drops summaries. Used in development and tests when no
// archive is running.
type NoopPublisher struct{}

func (NoopPublisher) PublishGameSummary(ctx context.Context, summary GameSummary) error {
	log.Debug().Str("game", summary.Name).Msg("archive disabled, dropping game summary")
	return nil
}
