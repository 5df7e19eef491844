// Command ordersystem runs the milk-tea shop order service: JSON API,
// SSE event stream and optional Postgres persistence.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/remyvnkhiemtruong/12a6/internal/account"
	httpapi "github.com/remyvnkhiemtruong/12a6/internal/api/http"
	"github.com/remyvnkhiemtruong/12a6/internal/catalog"
	"github.com/remyvnkhiemtruong/12a6/internal/config"
	"github.com/remyvnkhiemtruong/12a6/internal/migrate"
	dbstore "github.com/remyvnkhiemtruong/12a6/internal/order/adapter/db"
	memstore "github.com/remyvnkhiemtruong/12a6/internal/order/adapter/memory"
	"github.com/remyvnkhiemtruong/12a6/internal/order/service"
	"github.com/remyvnkhiemtruong/12a6/internal/realtime/broker"
	"github.com/remyvnkhiemtruong/12a6/internal/realtime/fanout"
	"github.com/remyvnkhiemtruong/12a6/internal/realtime/presence"
	"github.com/remyvnkhiemtruong/12a6/internal/realtime/stream"
	"github.com/remyvnkhiemtruong/12a6/internal/voucher"
	"github.com/remyvnkhiemtruong/12a6/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	log := logger.New("order-system")
	log.Action("service_started").Info("order system starting")

	if err := run(*configPath, log); err != nil {
		log.Action("service_failed").Error("order system exited", err)
		os.Exit(1)
	}
	log.Action("service_stopped").Info("order system exiting")
}

func run(configPath string, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	var store service.Store
	if cfg.Database.URL != "" {
		if err := migrate.Up(cfg.Database.URL); err != nil {
			return err
		}
		pool, err := dbstore.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = dbstore.NewStore(pool)
		log.Action("db_connected").Info("using Postgres order store")
	} else {
		store = memstore.NewStore()
		log.Action("memory_store").Warn("no database configured, orders are not persisted")
	}

	registry := presence.NewRegistry()
	defer registry.Clear()
	hub := stream.NewHub()

	var routerOpts []fanout.RouterOption
	if cfg.RabbitMQ.Enabled {
		b, err := broker.Connect(cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.Host, cfg.RabbitMQ.Port, log)
		if err != nil {
			return err
		}
		defer b.Close()
		routerOpts = append(routerOpts, fanout.WithMirror(b))
	}
	router := fanout.NewRouter(registry, hub, log, routerOpts...)

	settings := config.NewRuntimeSettings(cfg.Orders)
	orders := service.New(
		store,
		catalog.NewMemoryStore(demoProducts()...),
		voucher.NewMemoryStore(demoVouchers()...),
		account.NewMemoryStore(demoAccounts()...),
		settings,
		router,
		log,
		service.WithDeliveryBuffer(cfg.Orders.DeliveryBuffer),
	)

	streamHandler := stream.NewHandler(hub, registry, router, log)
	handler := httpapi.NewHandler(orders, settings, registry, router, streamHandler, log)

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: handler.Routes(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Action("http_listening").With("addr", cfg.HTTP.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Action("graceful_shutdown").Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
