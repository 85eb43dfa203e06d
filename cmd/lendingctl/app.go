package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/AntonStoeckl/library-lending-go/config"
	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/oteladapters"
	"github.com/AntonStoeckl/library-lending-go/lending/sqlengine"
	"github.com/AntonStoeckl/library-lending-go/library"
	"github.com/AntonStoeckl/library-lending-go/notify"
)

const (
	instrumentationName = "github.com/AntonStoeckl/library-lending-go/cmd/lendingctl"

	sinkJSON = "json"
	sinkLog  = "log"
)

// globalFlags are shared by all commands.
type globalFlags struct {
	observability bool
	notifySink    string
}

// app holds everything a command needs. It is built per command run and released by close.
type app struct {
	cfg        config.Config
	logger     *slog.Logger
	store      *sqlengine.Store
	service    *library.LibraryService
	dispatcher *notify.Dispatcher
	closeDB    func()
}

func newApp(ctx context.Context, flags globalFlags, stdout io.Writer, stderr io.Writer) (*app, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		logger: slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})),
	}

	storeOptions := []sqlengine.Option{sqlengine.WithLogger(a.logger)}
	serviceOptions := []library.Option{
		library.WithPolicy(cfg.Policy()),
		library.WithLogger(a.logger),
	}
	dispatcherOptions := []notify.DispatcherOption{
		notify.WithWorkers(cfg.NotifyWorkers),
		notify.WithQueueSize(cfg.NotifyQueueSize),
		notify.WithLogger(a.logger),
	}

	if flags.observability {
		// Providers are whatever the process has registered globally, no-ops by default.
		contextualLogger := oteladapters.NewSlogBridgeLogger(instrumentationName)
		metrics := oteladapters.NewMetricsCollector(otel.GetMeterProvider().Meter(instrumentationName))
		tracing := oteladapters.NewTracingCollector(otel.GetTracerProvider().Tracer(instrumentationName))

		storeOptions = append(storeOptions,
			sqlengine.WithContextualLogger(contextualLogger),
			sqlengine.WithMetrics(metrics))
		serviceOptions = append(serviceOptions,
			library.WithContextualLogger(contextualLogger),
			library.WithMetrics(metrics),
			library.WithTracing(tracing))
		dispatcherOptions = append(dispatcherOptions, notify.WithMetrics(metrics))
	}

	a.store, a.closeDB, err = cfg.OpenStore(ctx, storeOptions...)
	if err != nil {
		return nil, err
	}

	sender, err := newSender(flags.notifySink, stdout, a.logger)
	if err != nil {
		a.closeDB()
		return nil, err
	}

	a.dispatcher, err = notify.NewDispatcher(sender, dispatcherOptions...)
	if err != nil {
		a.closeDB()
		return nil, err
	}

	serviceOptions = append(serviceOptions,
		library.WithTransactor(a.store),
		library.WithNotifier(notify.NewNotifier(a.dispatcher)))

	a.service, err = library.NewLibraryService(a.store.Books(), a.store.Members(), a.store.Loans(), serviceOptions...)
	if err != nil {
		a.close()
		return nil, err
	}

	return a, nil
}

// close drains pending notifications, then releases the database.
func (a *app) close() {
	a.dispatcher.Close()
	a.closeDB()
}

func newSender(sink string, stdout io.Writer, logger *slog.Logger) (notify.Sender, error) {
	switch sink {
	case sinkJSON:
		return notify.NewJSONLinesSender(stdout), nil
	case sinkLog:
		return notify.NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown notification sink %q, use %q or %q", sink, sinkJSON, sinkLog)
	}
}

// parseDate parses an optional YYYY-MM-DD flag. An empty value means today.
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	date, err := lending.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected %s", value, lending.DateLayout)
	}

	return date, nil
}
