package appServer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ds124wfegd/lensmaster/config"
	"github.com/ds124wfegd/lensmaster/internal/assistant"
	"github.com/ds124wfegd/lensmaster/internal/billing"
	"github.com/ds124wfegd/lensmaster/internal/notify"
	"github.com/ds124wfegd/lensmaster/internal/service"
	"github.com/ds124wfegd/lensmaster/internal/transport"
	"github.com/ds124wfegd/lensmaster/internal/worker"
	"github.com/ds124wfegd/lensmaster/pkg/hub"
	"github.com/ds124wfegd/lensmaster/pkg/kafka"
	"github.com/ds124wfegd/lensmaster/pkg/queue"
	"github.com/ds124wfegd/lensmaster/pkg/rabbitmq"
	"github.com/ds124wfegd/lensmaster/pkg/redis"
	"github.com/ds124wfegd/lensmaster/pkg/telegram"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout(cfg),
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// writeTimeout must cover the slowest assistant call, video generation included.
func writeTimeout(cfg *config.Config) time.Duration {
	d := cfg.Server.Timeout
	if t := cfg.Assistant.Timeout + 10*time.Second; t > d {
		d = t
	}
	return d
}

// App holds the assembled services and the backends they were connected to.
type App struct {
	Handler http.Handler
	Sinks   *notify.MultiSink

	background []func(ctx context.Context)
	closers    []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

// Start launches the background loops. They stop when ctx is done.
func (a *App) Start(ctx context.Context) {
	for _, run := range a.background {
		go run(ctx)
	}
}

// Close releases the backends in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	return errors.Join(errs...)
}

func (a *App) onClose(name string, fn func() error) {
	a.closers = append(a.closers, namedCloser{name: name, close: fn})
}

// Build connects the backends required by notify.sinks and wires the HTTP API.
// On error everything already opened is closed.
func Build(ctx context.Context, cfg *config.Config) (app *App, err error) {
	app = &App{}
	defer func() {
		if err != nil {
			_ = app.Close()
			app = nil
		}
	}()

	feed := notify.NewFeed(cfg.Notify.FeedSize)
	deps := notify.Deps{Feed: feed}

	var bot *telegram.Bot
	if cfg.Telegram.BotToken != "" {
		bot = telegram.NewBotWithURL(cfg.Telegram.BotToken, cfg.Telegram.BaseURL, nil)
		deps.Telegram = bot
		logrus.Info("Telegram bot initialized")
	} else if sinkEnabled(cfg, notify.SinkTelegram, notify.SinkQueue) {
		logrus.Warn("Telegram bot token not provided, owner notifications disabled")
	}

	if sinkEnabled(cfg, notify.SinkQueue) {
		redisClient, err := redis.Connect(ctx, &cfg.Redis)
		if err != nil {
			return nil, err
		}
		app.onClose("redis", redisClient.Close)

		redisQueue := queue.NewRedisQueue(redisClient, &cfg.Queue)
		app.onClose("queue", redisQueue.Close)
		deps.Queue = redisQueue
		logrus.Info("Redis queue initialized")

		if bot != nil && cfg.Telegram.ChatID != "" {
			taskHandler := notify.NewTaskHandler(bot, cfg.Telegram.ChatID, cfg.Billing.Currency)
			app.background = append(app.background, func(ctx context.Context) {
				if err := redisQueue.Subscribe(ctx, taskHandler.HandleTask); err != nil {
					logrus.Errorf("Queue subscriber error: %v", err)
				}
			})
		} else {
			logrus.Warn("Queue enabled without telegram chat, tasks will wait in redis")
		}

		monitor := worker.NewQueueMonitorWorker(redisQueue, cfg.Worker.QueueMonitorInterval)
		app.background = append(app.background, monitor.Start)
	}

	if sinkEnabled(cfg, notify.SinkRabbit) {
		rabbit, err := rabbitmq.NewRabbitMQ(cfg.GetRabbitURL(), cfg.Rabbit.QueueName)
		if err != nil {
			return nil, err
		}
		app.onClose("rabbitmq", rabbit.Close)
		deps.Rabbit = rabbit
		logrus.WithField("queue", cfg.Rabbit.QueueName).Info("RabbitMQ publisher initialized")
	}

	if sinkEnabled(cfg, notify.SinkKafka) {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		app.onClose("kafka", producer.Close)
		deps.Kafka = producer
	}

	var stream *hub.Hub
	if sinkEnabled(cfg, notify.SinkStream) {
		stream = hub.NewHub()
		deps.Hub = stream
		app.background = append(app.background, stream.Run)
	}

	sinks, err := notify.BuildSinks(cfg, deps)
	if err != nil {
		return nil, err
	}
	app.Sinks = sinks
	logrus.WithField("sinks", sinks.Names()).Info("Order sinks configured")

	var whatsapp *notify.WhatsAppSink
	if cfg.WhatsApp.Phone != "" {
		whatsapp = notify.NewWhatsAppSink(cfg.WhatsApp.Phone, cfg.Billing.Currency)
	}

	// Initialize services
	calc := billing.NewCalculator(cfg.Catalog, cfg.Billing.DailyRate)
	bookingService := service.NewBookingService(calc, sinks, feed, whatsapp, cfg.Billing.Currency)

	if cfg.Assistant.APIKey == "" {
		logrus.Warn("Assistant API key not provided, AI requests will be rejected")
	}
	suite := assistant.NewGeminiSuite(cfg.Assistant, nil)
	chats := assistant.NewChatStore(0, cfg.Assistant.ChatHistory)
	assistantService := service.NewAssistantService(suite, chats)

	// Initialize handlers
	bookingHandler := transport.NewBookingHandler(bookingService, stream)
	assistantHandler := transport.NewAssistantHandler(assistantService)

	app.Handler = transport.InitRoutes(cfg, bookingHandler, assistantHandler)
	return app, nil
}

func sinkEnabled(cfg *config.Config, names ...string) bool {
	for _, s := range cfg.Notify.Sinks {
		s = strings.ToLower(strings.TrimSpace(s))
		for _, n := range names {
			if s == n {
				return true
			}
		}
	}
	return false
}

func setupLogger(cfg *config.Config) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// NewServer runs the service until SIGINT or SIGTERM.
func NewServer(cfg *config.Config) {
	setupLogger(cfg)

	if cfg.Server.Mode == "release" || cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := Build(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize application: %v", err)
	}
	app.Start(ctx)

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, app.Handler); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.WithField("addr", cfg.GetServerAddress()).Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
	cancel()

	if err := app.Close(); err != nil {
		logrus.Errorf("error occured on closing backends: %s", err.Error())
	}
}
