package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/lostbyte/mainhero/internal/codec"
	"github.com/lostbyte/mainhero/internal/config"
	"github.com/lostbyte/mainhero/internal/dal"
	grpcserver "github.com/lostbyte/mainhero/internal/grpc"
	"github.com/lostbyte/mainhero/internal/handlers"
	"github.com/lostbyte/mainhero/internal/host"
	"github.com/lostbyte/mainhero/internal/logger"
	"github.com/lostbyte/mainhero/internal/mocks"
	"github.com/lostbyte/mainhero/internal/pubsub"
	"github.com/lostbyte/mainhero/internal/store"
	"github.com/lostbyte/mainhero/internal/theme"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.LogLevel)
	logger.Info("Starting mainhero character companion", "environment", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize durable storage
	var storage dal.StorageDAL
	switch cfg.StorageDriver {
	case "memory":
		storage = dal.NewMemoryDAL()
		logger.Info("Using in-memory storage (collection is lost on restart)")
	case "sqlite":
		storage, err = dal.NewSQLiteDAL(cfg.SQLiteFile)
		if err != nil {
			logger.Error("Failed to initialize SQLite", "error", err)
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		logger.Info("Connected to SQLite database", "file", cfg.SQLiteFile)
	}
	defer storage.Close()

	// Use embedded NATS in development mode, real NATS in production
	var embedded *server.Server
	natsURL := cfg.NATSURL
	if cfg.IsDevelopment() {
		logger.Info("Starting embedded NATS server for local development")
		embedded, err = pubsub.StartEmbeddedNATS(pubsub.DefaultEmbeddedNATSOptions())
		if err != nil {
			logger.Error("Failed to initialize embedded NATS", "error", err)
			log.Fatalf("Failed to initialize embedded NATS: %v", err)
		}
		natsURL = embedded.ClientURL()
	}

	nc, err := pubsub.Connect(natsURL, "mainhero")
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err, "url", natsURL)
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	logger.Info("Connected to NATS", "url", natsURL)

	upstream, err := pubsub.NewNATSUpstream(nc, cfg.NATSSubjectPrefix+".events")
	if err != nil {
		logger.Error("Failed to initialize event bus", "error", err)
		log.Fatalf("Failed to initialize event bus: %v", err)
	}
	ps := pubsub.NewWithUpstream(upstream)

	session, stopHost := connectHost(cfg, nc)

	// Load the collection and start write-through persistence
	characters := store.New(codec.New(storage, cfg.StorageKey), session)
	stopEvents := characters.PublishTo(ps)

	themes := theme.NewWatcher(session, ps)
	if err := themes.Start(ctx); err != nil {
		// The panel still works with its default look
		logger.Warn("Failed to follow host theme", "error", err)
		themes = nil
	}

	// Start gRPC health server
	health := grpcserver.NewServer(storage)
	go health.Watch(ctx, 15*time.Second)
	go func() {
		lis, err := net.Listen("tcp", "0.0.0.0:"+cfg.GRPCPort)
		if err != nil {
			logger.Error("Failed to listen for gRPC", "error", err, "port", cfg.GRPCPort)
			log.Fatalf("Failed to listen for gRPC: %v", err)
		}
		if err := health.Serve(lis); err != nil {
			logger.Error("Failed to serve gRPC", "error", err)
		}
	}()

	// Set up HTTP routes
	mux := http.NewServeMux()
	handlers.NewAPIHandlers(characters, themes, ps).Register(mux)
	handlers.NewHealthHandlers(storage, nc).Register(mux)

	addr := "0.0.0.0:" + cfg.Port
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Info("Server starting", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	health.Stop()

	if themes != nil {
		themes.Stop()
	}
	stopEvents()
	if err := characters.Flush(shutdownCtx); err != nil {
		logger.Warn("Pending writes not flushed", "error", err)
	}
	characters.Close()

	stopHost()
	upstream.Close()
	nc.Close()
	if embedded != nil {
		embedded.Shutdown()
	}
	logger.Info("Stopped")
}

// connectHost picks the host session. In development the NATS bridge is
// answered by an in-process mock so the whole request path can be exercised
// without a tabletop attached.
func connectHost(cfg *config.Config, nc *nats.Conn) (host.Session, func()) {
	if cfg.HostBridge == "mock" {
		return mocks.NewHostSession(), func() {}
	}

	stopServe := func() {}
	if cfg.IsDevelopment() {
		var err error
		stopServe, err = host.Serve(nc, cfg.NATSSubjectPrefix, mocks.NewHostSession())
		if err != nil {
			logger.Error("Failed to serve simulated host", "error", err)
			log.Fatalf("Failed to serve simulated host: %v", err)
		}
		logger.Info("Simulated host answering on NATS", "prefix", cfg.NATSSubjectPrefix)
	}

	logger.Info("Using NATS host bridge", "prefix", cfg.NATSSubjectPrefix, "timeout", cfg.HostTimeout)
	return host.NewNATSSession(nc, cfg.NATSSubjectPrefix, cfg.HostTimeout), stopServe
}
