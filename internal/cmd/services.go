package main

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/o-benz/SmartyShowdown-sub000/internal/archive"
	"github.com/o-benz/SmartyShowdown-sub000/internal/game"
	"github.com/o-benz/SmartyShowdown-sub000/internal/gateway"
	"github.com/o-benz/SmartyShowdown-sub000/internal/quiz"
	"github.com/o-benz/SmartyShowdown-sub000/internal/registry"
	"github.com/o-benz/SmartyShowdown-sub000/internal/timer"
)

type Services struct {
	Connections *gateway.ConnectionManager
	Gateway     *gateway.Service
	WSHandler   *gateway.WebSocketHandler
	Archive     archive.Publisher
}

func setupServices(pool *pgxpool.Pool, config *Config) (*Services, error) {
	clock := clockwork.NewRealClock()

	// Wire up dependency chain:
	// connection pool -> broadcaster -> timer manager -> session gateway
	wsConfig := gateway.DefaultConnectionConfig()
	wsConfig.WriteTimeout, wsConfig.ReadTimeout, wsConfig.PingInterval = config.websocketTimeouts()
	connections := gateway.NewConnectionManager(wsConfig)

	publisher, err := setupArchive(config)
	if err != nil {
		return nil, err
	}

	sessionGateway := gateway.NewService(gateway.Config{
		Rooms:       registry.New(),
		Game:        game.NewManager(),
		Timers:      timer.NewManager(clock, connections),
		Quizzes:     quiz.NewRepository(pool),
		Archive:     publisher,
		Broadcaster: connections,
		Clock:       clock,
	})
	connections.Attach(sessionGateway)

	return &Services{
		Connections: connections,
		Gateway:     sessionGateway,
		WSHandler:   gateway.NewWebSocketHandler(connections),
		Archive:     publisher,
	}, nil
}

func setupArchive(config *Config) (archive.Publisher, error) {
	if !config.Archive.Enabled {
		log.Info().Msg("game archive disabled")
		return archive.NoopPublisher{}, nil
	}

	cfg := archive.DefaultJetStreamConfig()
	cfg.URL = getEnv("NATS_URL", config.Archive.URL)
	if config.Archive.Stream != "" {
		cfg.StreamName = config.Archive.Stream
	}
	if config.Archive.Subject != "" {
		cfg.Subject = config.Archive.Subject
	}

	return archive.NewJetStreamPublisher(cfg)
}
