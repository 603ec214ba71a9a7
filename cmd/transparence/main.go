package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"

	"github.com/totegamma/transparence"
	"github.com/totegamma/transparence/client"
	"github.com/totegamma/transparence/internal/config"
	"github.com/totegamma/transparence/internal/infra/database"
	"github.com/totegamma/transparence/internal/infra/gateway"
	"github.com/totegamma/transparence/internal/infra/repository"
	"github.com/totegamma/transparence/internal/infra/wallet"
	"github.com/totegamma/transparence/internal/present/rest"
	"github.com/totegamma/transparence/internal/recordstore"
	"github.com/totegamma/transparence/internal/service"
	"github.com/totegamma/transparence/internal/usecase"
)

const serviceName = "transparence"

func setupTraceProvider(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	exporter, err := otlptracehttp.New(
		ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(
		ctx,
		resource.WithAttributes(attribute.String("service.name", serviceName)),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

func main() {
	configPath := flag.String("config", "/etc/transparence/config.yaml", "path to config file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if conf.Server.EnableTrace {
		shutdown, err := setupTraceProvider(ctx, conf.Server.TraceEndpoint)
		if err != nil {
			slog.Error("failed to setup trace provider", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer shutdown(context.Background())
	}

	dsn := conf.Server.PostgresDsn
	if conf.Server.DBDriver == "sqlite" {
		dsn = conf.Server.SqlitePath
	}
	db, err := database.Open(conf.Server.DBDriver, dsn)
	if err != nil {
		slog.Error("failed to connect database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var rdb *redis.Client
	if conf.Server.RedisAddr != "" {
		rdb, err = database.NewRedis(ctx, conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB)
		if err != nil {
			slog.Warn("redis unavailable; realtime disabled", slog.String("error", err.Error()))
			rdb = nil
		}
	}

	var mc *memcache.Client
	if conf.Server.MemcachedAddr != "" {
		mc, err = database.NewMemcached(conf.Server.MemcachedAddr)
		if err != nil {
			slog.Warn("memcached unavailable; journal cache disabled", slog.String("error", err.Error()))
			mc = nil
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := service.NewMetrics(registry)

	node := client.New(conf.Ledger.Endpoint)
	slog.Info(
		"ledger client ready",
		slog.String("module", "ledger"),
		slog.String("endpoint", node.Endpoint()),
		slog.String("journal", conf.Ledger.JournalAddress),
	)
	signalService := service.NewSignalService(rdb)

	ledgerGateway := gateway.NewLedgerGateway(node, mc, conf.Ledger.JournalAddress, conf.Ledger.MaxPages, conf.Ledger.CacheSeconds)
	countryGateway := gateway.NewCountryGateway(conf.Geo.CountriesURL)
	ipfsGateway := gateway.NewIPFSGateway(conf.IPFS.PinataEndpoint, conf.IPFS.PinataJWT, conf.IPFS.GatewayBase)

	wallets := wallet.NewManager(conf.Ledger.JournalAddress, node)
	wallets.Register(wallet.NewRippledAdapter(node, conf.Wallet.Account, conf.Wallet.Seed))
	wallets.OnStatusChange(func(event transparence.StatusEvent) {
		slog.Info(
			"wallet status changed",
			slog.String("module", "wallet"),
			slog.String("status", event.Status),
			slog.String("wallet", event.Wallet),
			slog.String("error", event.Error),
		)
	})
	if conf.Wallet.Seed != "" {
		if _, err := wallets.Connect(ctx, "rippled"); err != nil {
			slog.Warn("wallet not connected; submissions disabled", slog.String("error", err.Error()))
		}
	}

	evidenceRepo := repository.NewEvidenceRepository(db)
	store := recordstore.NewStore()

	feedUsecase := usecase.NewFeedUsecase(ledgerGateway, countryGateway, evidenceRepo, signalService, metrics, store)
	evidenceUsecase := usecase.NewEvidenceUsecase(ipfsGateway, wallets, evidenceRepo, signalService, metrics, feedUsecase)

	handler := rest.NewHandler(conf.Info(), feedUsecase, evidenceUsecase, signalService)

	e := echo.New()
	e.HideBanner = true
	e.Use(otelecho.Middleware(serviceName))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("64M"))

	handler.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Local records first so they survive a failing journal fetch.
	if err := feedUsecase.Restore(ctx); err != nil {
		slog.Warn("failed to restore local evidence", slog.String("error", err.Error()))
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if _, err := feedUsecase.Load(gctx); err != nil {
			slog.Warn("initial journal load failed", slog.String("error", err.Error()))
		}
		feedUsecase.Countries(gctx)
		return nil
	})
	group.Go(func() error {
		err := e.Start(conf.Server.Listen)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		slog.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
