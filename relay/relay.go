// Package relay implements the chat relay between the portfolio web client
// and the Stella agent backend. It validates intake, forwards non-streaming
// chats as a single round trip, re-frames the backend's SSE stream into its
// own event envelope, and guarantees a terminal done event on every
// streaming session, failures included.
package relay

import (
	"errors"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/d-wern/stella-relay/pkg/backend"
	"github.com/d-wern/stella-relay/pkg/eventstream"
	"github.com/d-wern/stella-relay/pkg/transcript"
	"github.com/d-wern/stella-relay/relay/worker"
)

// Relay is the chat relay server.
type Relay struct {
	config  Config
	backend *backend.Client
	store   transcript.Store
	pool    *worker.Pool
	logger  *zap.Logger
	app     *fiber.App
}

// New creates a new Relay. The store and publisher are injected so the
// transcript backend and event stream can be swapped (in-memory, SQLite,
// nop, Kafka) without touching the relay.
func New(config Config, store transcript.Store, publisher eventstream.Publisher, logger *zap.Logger) (*Relay, error) {
	if config.BackendURL == "" {
		return nil, errors.New("backend URL is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	config = config.withDefaults()

	pool, err := worker.NewPool(&worker.Config{
		Store:     store,
		Publisher: publisher,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Permissive CORS, matching the backend: the portfolio client is a
	// browser app served from another origin. Also answers OPTIONS /chat.
	app.Use(cors.New())

	r := &Relay{
		config:  config,
		backend: backend.NewClient(config.BackendURL, config.ChatTimeout, logger),
		store:   store,
		pool:    pool,
		logger:  logger,
		app:     app,
	}

	app.Post("/chat", r.handleChat)
	app.Get("/health", r.handleHealth)
	app.Get("/transcripts", r.handleTranscripts)
	app.Get("/trace/:sessionID", r.handleTrace)

	return r, nil
}

// Run starts the relay server on the configured address.
func (r *Relay) Run() error {
	r.logger.Info("starting relay server",
		zap.String("listen", r.config.ListenAddr),
		zap.String("backend", r.config.BackendURL),
	)

	return r.app.Listen(r.config.ListenAddr)
}

// RunWithListener starts the relay server using the provided listener.
func (r *Relay) RunWithListener(listener net.Listener) error {
	r.logger.Info("starting relay server",
		zap.String("listen", listener.Addr().String()),
		zap.String("backend", r.config.BackendURL),
	)

	return r.app.Listener(listener)
}

// Close gracefully shuts down the relay and drains the worker pool.
func (r *Relay) Close() error {
	err := r.app.Shutdown()
	r.pool.Close()
	return err
}
