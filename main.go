// rocketviewer monitors orientation telemetry streamed by a flight
// controller over a serial port. It keeps the latest validated orientation as
// a snapshot, records accepted samples to sqlite, and serves the snapshot,
// session control, and a live frame tail over HTTP.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/wycontir/rocketviewer/internal/api"
	"github.com/wycontir/rocketviewer/internal/config"
	"github.com/wycontir/rocketviewer/internal/db"
	"github.com/wycontir/rocketviewer/internal/monitor"
	"github.com/wycontir/rocketviewer/internal/serialport"
	"github.com/wycontir/rocketviewer/internal/timeutil"
)

var (
	devMode    = flag.Bool("dev", false, "Replay fixture telemetry instead of opening a real port")
	fixtures   = flag.String("fixtures", "fixtures.txt", "Fixture file replayed in dev mode")
	listen     = flag.String("listen", "", "Listen address (overrides config)")
	configPath = flag.String("config", "", "Path to JSON config file")
	portPath   = flag.String("port", "", "Serial port to start monitoring immediately")
	baudRate   = flag.Int("baud", 0, "Baud rate for -port")
	dbPath     = flag.String("db", "", "Sqlite database path (overrides config)")
)

func main() {
	flag.Parse()

	cfg := config.Empty()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}

	listenAddr := cfg.GetListen()
	if *listen != "" {
		listenAddr = *listen
	}
	databasePath := cfg.GetDatabasePath()
	if *dbPath != "" {
		databasePath = *dbPath
	}

	store, err := db.New(databasePath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer store.Close()

	var factory serialport.Factory
	if *devMode {
		data, err := os.ReadFile(*fixtures)
		if err != nil {
			log.Fatalf("failed to open fixtures file: %v", err)
		}
		factory = &serialport.MockFactory{
			OpenFunc: func(string, serialport.PortOptions) (serialport.ByteSource, error) {
				return serialport.NewReplaySource(data, cfg.GetChunkSize()), nil
			},
		}
		log.Printf("dev mode: replaying %s", *fixtures)
	} else {
		factory = &serialport.SerialFactory{}
	}

	session := monitor.NewSession(factory, store, timeutil.RealClock{}, monitor.Config{
		PollInterval:  cfg.GetPollInterval(),
		ChunkSize:     cfg.GetChunkSize(),
		MaxFrameBytes: cfg.GetMaxFrameBytes(),
	})

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start monitoring immediately when a port was selected up front;
	// otherwise the session stays idle until a start request arrives
	startPort := cfg.GetPortPath()
	if *portPath != "" {
		startPort = *portPath
	}
	if *devMode && startPort == "" {
		startPort = "fixture"
	}
	if startPort != "" {
		opts := cfg.PortOptions()
		if *baudRate != 0 {
			opts.BaudRate = *baudRate
		}
		if err := session.Start(ctx, startPort, opts); err != nil {
			log.Fatalf("failed to start monitoring: %v", err)
		}
	}
	defer session.Stop()

	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()
		apiServer := api.NewServer(session, store, nil)
		mux.Handle("/", api.LoggingMiddleware(apiServer.ServeMux()))

		server := &http.Server{
			Addr:    listenAddr,
			Handler: mux,
		}

		go func() {
			log.Printf("listening on %s", listenAddr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
	}()

	wg.Wait()
	log.Printf("graceful shutdown complete")
}
