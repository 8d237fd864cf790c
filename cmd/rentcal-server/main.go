package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentcal/internal/app/commands"
	"rentcal/internal/app/dto"
	availabilityapp "rentcal/internal/app/handlers/availability"
	pickerapp "rentcal/internal/app/handlers/pickers"
	"rentcal/internal/app/middleware"
	"rentcal/internal/app/picker"
	"rentcal/internal/app/queries"
	"rentcal/internal/app/sources"
	domainavailability "rentcal/internal/domain/availability"
	"rentcal/internal/domain/shared/events"
	"rentcal/internal/infra/availability/ics"
	"rentcal/internal/infra/availability/rest"
	"rentcal/internal/infra/broker/kafka"
	"rentcal/internal/infra/config"
	mongodb "rentcal/internal/infra/db/mongo"
	ginserver "rentcal/internal/infra/http/gin"
	"rentcal/internal/infra/obs"
	"rentcal/internal/infra/realtime/ws"
	"rentcal/internal/infra/schedule"
	"rentcal/internal/infra/storage/memory"
	redisstore "rentcal/internal/infra/storage/redis"
	"rentcal/internal/pkg/validator"
)

var errUnknownMessage = errors.New("unknown message type")

const (
	eventSource    = "rentcal"
	inboxRetention = 7 * 24 * time.Hour
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger("prod").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	if app.consumer != nil {
		topics := []string{kafka.TopicFor(cfg.KafkaTopicPrefix, "calendar")}
		go func() {
			if err := app.consumer.Run(ctx, topics); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("calendar consumer stopped", "error", err)
			}
		}()
	}
	if err := app.refresher.Start(cfg.RefreshCron); err != nil {
		logger.Error("refresh schedule not started", "error", err)
		os.Exit(1)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, app.health, app.handlers)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
		app.refresher.Stop(shutdownCtx)
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "session_store", cfg.SessionStore, "kafka", len(cfg.KafkaBrokers) > 0)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers  ginserver.Handlers
	health    obs.HealthHandlers
	refresher *schedule.Refresher
	consumer  *kafka.Consumer
	closers   []func(context.Context) error
}

func (a *application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("shutdown step failed", "error", err)
		}
	}
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{health: obs.HealthHandlers{Checks: map[string]obs.Check{}, Timeout: 2 * time.Second}}

	var (
		calendars domainavailability.Repository = memory.NewAvailabilityRepository(cfg.CleaningBufferDays)
		inbox     kafka.Inbox
	)
	if cfg.MongoURI != "" {
		client, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, client.Close)
		app.health.Checks["mongo"] = client.Ping
		calendars = mongodb.NewAvailabilityRepository(client.DB, cfg.CleaningBufferDays)
		store, err := mongodb.NewInboxStore(ctx, client.DB, cfg.KafkaGroupID, inboxRetention)
		if err != nil {
			return nil, err
		}
		inbox = store
	}

	var sessions picker.SessionRepository = memory.NewSessionRepository()
	if cfg.SessionStore == config.SessionStoreRedis {
		client, err := redisstore.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func(context.Context) error { return client.Close() })
		app.health.Checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		sessions = redisstore.NewSessionRepository(client, cfg.SessionTTL)
	}

	var producer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		p, err := kafka.NewProducer(cfg.KafkaBrokers, kafka.ProducerConfig(eventSource))
		if err != nil {
			return nil, err
		}
		producer = p
		app.closers = append(app.closers, func(context.Context) error { return p.Close() })
	}

	source, err := buildSource(cfg, calendars, logger)
	if err != nil {
		return nil, err
	}

	commandBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()

	validate := middleware.ValidatorFunc(func(_ context.Context, msg any) error { return validator.Validate(msg) })
	cmds := middleware.ChainCommands(commandBus, middleware.Validation(validate), middleware.Logging(logger))
	qs := middleware.ChainQueries(queryBus, middleware.QueryValidation(validate), middleware.QueryLogging(logger))

	hub := ws.NewHub(logger, inboundHandler(cmds), cfg.AllowedOrigins)
	notifiers := picker.Fanout{hub}
	publishers := events.Publishers{refreshOpenPickers(cmds, logger)}
	if producer != nil {
		notifiers = append(notifiers, &kafka.DatesSelectedPublisher{Producer: producer, TopicPrefix: cfg.KafkaTopicPrefix, Source: eventSource})
		publishers = append(publishers, &kafka.EventPublisher{Producer: producer, TopicPrefix: cfg.KafkaTopicPrefix, Source: eventSource})
	}

	availabilityapp.Register(commandBus, queryBus, calendars, publishers, logger, nil)
	pickerapp.Register(commandBus, queryBus, &pickerapp.Deps{
		Sessions:    sessions,
		Source:      source,
		Notifier:    notifiers,
		Logger:      logger,
		Zone:        cfg.CalendarTZ,
		HorizonDays: cfg.HorizonDays,
	})

	if len(cfg.KafkaBrokers) > 0 {
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, kafka.ConsumerConfig(eventSource), &kafka.CalendarEventsHandler{
			Commands: cmds,
			Inbox:    inbox,
			Source:   eventSource,
			Logger:   logger,
		}, logger)
		if err != nil {
			return nil, err
		}
		app.consumer = consumer
		app.closers = append(app.closers, func(context.Context) error { return consumer.Close() })
	}

	app.refresher = &schedule.Refresher{Sessions: sessions, Commands: cmds, Logger: logger}
	app.handlers = ginserver.Handlers{
		Picker:       ginserver.PickerHandler{Commands: cmds, Queries: qs, Realtime: hub},
		Availability: ginserver.AvailabilityHandler{Commands: cmds, Queries: qs},
	}
	return app, nil
}

// buildSource unions the local calendar with the upstream API and iCal
// feeds, whichever are configured.
func buildSource(cfg config.Config, calendars domainavailability.Repository, logger *slog.Logger) (sources.Source, error) {
	composite := &sources.Composite{Logger: logger}
	composite.Sources = append(composite.Sources, sources.Named{Name: "calendar", Source: &sources.CalendarSource{Calendars: calendars}})
	if cfg.AvailabilityAPIURL != "" {
		composite.Sources = append(composite.Sources, sources.Named{Name: "api", Source: rest.NewClient(cfg.AvailabilityAPIURL, cfg.AvailabilityTimeout, logger)})
	}
	feeds, err := config.LoadFeeds(cfg.FeedsFile)
	if err != nil {
		return nil, err
	}
	if byListing := feeds.ByListing(); len(byListing) > 0 {
		composite.Sources = append(composite.Sources, sources.Named{Name: "ics", Source: &ics.Source{
			Feeds:   byListing,
			Fetcher: ics.NewFetcher(cfg.AvailabilityTimeout, logger),
			Zone:    cfg.CalendarTZ,
			Logger:  logger,
		}})
	}
	return composite, nil
}

// refreshOpenPickers re-reads blocked dates of every open picker of a
// listing whose calendar just changed.
func refreshOpenPickers(cmds commands.Bus, logger *slog.Logger) events.Publisher {
	return events.PublisherFunc(func(ctx context.Context, evs []events.DomainEvent) error {
		seen := make(map[string]struct{})
		for _, ev := range evs {
			id := ev.AggregateID()
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			n, err := commands.Dispatch[pickerapp.RefreshListingCommand, int](ctx, cmds, pickerapp.RefreshListingCommand{ListingID: id})
			if err != nil {
				return err
			}
			if n > 0 {
				logger.DebugContext(ctx, "open pickers refreshed", "listing_id", id, "sessions", n)
			}
		}
		return nil
	})
}

// inboundHandler lets websocket clients drive their picker without the
// REST endpoints.
func inboundHandler(cmds commands.Bus) ws.InboundHandler {
	return func(ctx context.Context, sessionID string, msg ws.Inbound) error {
		var err error
		switch msg.Type {
		case "click":
			_, err = commands.Dispatch[pickerapp.ClickDayCommand, dto.ClickResult](ctx, cmds, pickerapp.ClickDayCommand{SessionID: sessionID, Date: msg.Date})
		case "clear":
			_, err = commands.Dispatch[pickerapp.ClearDatesCommand, dto.ClickResult](ctx, cmds, pickerapp.ClearDatesCommand{SessionID: sessionID})
		case "month":
			_, err = commands.Dispatch[pickerapp.ShiftMonthCommand, dto.PickerView](ctx, cmds, pickerapp.ShiftMonthCommand{SessionID: sessionID, Delta: msg.Delta})
		case "refresh":
			_, err = commands.Dispatch[pickerapp.RefreshBlockedCommand, dto.PickerView](ctx, cmds, pickerapp.RefreshBlockedCommand{SessionID: sessionID})
		default:
			err = fmt.Errorf("%w: %q", errUnknownMessage, msg.Type)
		}
		return err
	}
}

