// Package servecmder provides the serve command running the relay server.
package servecmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/d-wern/stella-relay/pkg/config"
	"github.com/d-wern/stella-relay/pkg/eventstream"
	"github.com/d-wern/stella-relay/pkg/eventstream/kafka"
	"github.com/d-wern/stella-relay/pkg/eventstream/nop"
	"github.com/d-wern/stella-relay/pkg/logger"
	"github.com/d-wern/stella-relay/pkg/transcript"
	"github.com/d-wern/stella-relay/pkg/transcript/inmemory"
	"github.com/d-wern/stella-relay/pkg/transcript/sqlite"
	"github.com/d-wern/stella-relay/relay"
)

type serveCommander struct {
	listen      string
	backendURL  string
	sqlitePath  string
	brokers     []string
	topic       string
	typingDelay time.Duration
	debug       bool

	cfg    *config.Config
	logger *zap.Logger
}

const serveLongDesc string = `Run the relay server.

The relay accepts POST /chat from the portfolio client and forwards it to
the Stella backend, either as a single JSON round trip or as a re-framed
SSE stream. Completed turns are recorded asynchronously and can optionally
be published to Kafka.`

const serveShortDesc string = "Run the relay server"

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.cfg = config.FromViper(v)

			// Flags win over config file and environment.
			if !cmd.Flags().Changed("listen") {
				cmder.listen = cmder.cfg.Relay.Listen
			}
			if !cmd.Flags().Changed("backend") {
				cmder.backendURL = cmder.cfg.Backend.URL
			}
			if !cmd.Flags().Changed("sqlite") {
				cmder.sqlitePath = cmder.cfg.Transcript.SQLitePath
			}
			if !cmd.Flags().Changed("brokers") {
				cmder.brokers = cmder.cfg.EventStream.Brokers
			}
			if !cmd.Flags().Changed("topic") {
				cmder.topic = cmder.cfg.EventStream.Topic
			}
			if !cmd.Flags().Changed("typing-delay") {
				cmder.typingDelay = cmder.cfg.Relay.TypingDelay
			}

			cmder.debug, _ = cmd.Flags().GetBool("debug")

			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", ":3100", "Address for the relay to listen on")
	cmd.Flags().StringVarP(&cmder.backendURL, "backend", "b", "http://localhost:8000", "Stella backend base URL")
	cmd.Flags().StringVarP(&cmder.sqlitePath, "sqlite", "s", "", "Path to the transcript SQLite database (default: in-memory)")
	cmd.Flags().StringSliceVar(&cmder.brokers, "brokers", nil, "Kafka brokers for turn events (default: disabled)")
	cmd.Flags().StringVar(&cmder.topic, "topic", "stella.turns", "Kafka topic for turn events")
	cmd.Flags().DurationVar(&cmder.typingDelay, "typing-delay", 50*time.Millisecond, "Delay between words of the streamed error reveal")

	return cmd
}

func (c *serveCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	store, err := c.createStore()
	if err != nil {
		return err
	}
	defer store.Close()

	publisher := c.createPublisher()
	defer publisher.Close()

	r, err := relay.New(relay.Config{
		ListenAddr:    c.listen,
		BackendURL:    c.backendURL,
		ChatTimeout:   c.cfg.Backend.ChatTimeout,
		StreamTimeout: c.cfg.Backend.StreamTimeout,
		TraceTimeout:  c.cfg.Backend.TraceTimeout,
		TypingDelay:   c.typingDelay,
	}, store, publisher, c.logger)
	if err != nil {
		return fmt.Errorf("creating relay: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Run()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		c.logger.Info("shutting down", zap.String("signal", sig.String()))
		return r.Close()
	}
}

func (c *serveCommander) createStore() (transcript.Store, error) {
	if c.sqlitePath == "" {
		c.logger.Info("using in-memory transcript store")
		return inmemory.NewStore(), nil
	}

	c.logger.Info("using SQLite transcript store", zap.String("path", c.sqlitePath))

	store, err := sqlite.NewStore(c.sqlitePath)
	if err != nil {
		return nil, fmt.Errorf("opening transcript store: %w", err)
	}
	return store, nil
}

func (c *serveCommander) createPublisher() eventstream.Publisher {
	if len(c.brokers) == 0 {
		return nop.NewPublisher()
	}

	c.logger.Info("publishing turn events to kafka",
		zap.Strings("brokers", c.brokers),
		zap.String("topic", c.topic),
	)

	return kafka.NewPublisher(c.brokers, c.topic, c.logger)
}
