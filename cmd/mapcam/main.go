// Command mapcam runs the camera controller for the interactive map.
//
// It ticks the controller at the configured frame rate, streams poses to
// renderers over gRPC and serves the tuning and input API over HTTP.
//
// Usage:
//
//	go run ./cmd/mapcam [flags]
//
// Flags:
//
//	-listen        HTTP listen address (default: :8080)
//	-grpc-listen   gRPC pose stream address (default: localhost:50061)
//	-db-path       Feature database path (default: mapcam.db)
//	-config        Smoothness tuning JSON (default: built-in defaults)
//	-input-port    Serial port for a kiosk input controller (optional)
//	-debug         Enable debug logging
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/mapcam/internal/api"
	"github.com/banshee-data/mapcam/internal/camera"
	"github.com/banshee-data/mapcam/internal/config"
	"github.com/banshee-data/mapcam/internal/inputbridge"
	"github.com/banshee-data/mapcam/internal/loop"
	"github.com/banshee-data/mapcam/internal/monitoring"
	"github.com/banshee-data/mapcam/internal/poi"
	"github.com/banshee-data/mapcam/internal/stream"
	"github.com/banshee-data/mapcam/internal/trace"
	"github.com/banshee-data/mapcam/internal/version"
)

var (
	listen       = flag.String("listen", ":8080", "HTTP listen address")
	grpcListen   = flag.String("grpc-listen", "localhost:50061", "gRPC pose stream listen address")
	dbPath       = flag.String("db-path", "mapcam.db", "path to the feature database")
	configFile   = flag.String("config", "", "path to a smoothness tuning JSON file (omit for built-in defaults)")
	inputPort    = flag.String("input-port", "", "serial port of a kiosk input controller (optional)")
	inputBaud    = flag.Int("input-baud", 115200, "baud rate of the kiosk input controller")
	traceSamples = flag.Int("trace-samples", trace.DefaultCapacity, "number of frames kept by the motion trace recorder")
	debug        = flag.Bool("debug", false, "enable debug logging")
	showVersion  = flag.Bool("version", false, "print version information and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("mapcam"))
		return
	}

	monitoring.SetDebug(*debug)
	log.Printf("Starting %s", version.String("mapcam"))

	cfg := config.DefaultSmoothnessConfig()
	if *configFile != "" {
		loaded, err := config.LoadSmoothnessConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
		log.Printf("Loaded smoothness config from %s", *configFile)
	}
	params, err := config.NewStore(cfg)
	if err != nil {
		log.Fatalf("Failed to install config: %v", err)
	}

	store, err := poi.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open feature database: %v", err)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var wg sync.WaitGroup

	// Hooks fire on the loop goroutine; the selection log is written from
	// its own goroutine so database latency never stalls a frame.
	selections := make(chan poi.SelectionEvent, 32)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range selections {
			if err := store.RecordSelection(context.Background(), ev.FeatureID, ev.PinLocked); err != nil {
				log.Printf("failed to record selection %q: %v", ev.FeatureID, err)
			}
		}
	}()
	var selected string
	logSelection := func(ev poi.SelectionEvent) {
		select {
		case selections <- ev:
		default:
			monitoring.Debugf("selection log full, dropping %q", ev.FeatureID)
		}
	}
	ctrl := camera.NewController(params, camera.Hooks{
		SelectionChanged: func(id string) {
			selected = id
			logSelection(poi.SelectionEvent{FeatureID: id})
		},
		PinLockChanged: func(locked bool) {
			logSelection(poi.SelectionEvent{FeatureID: selected, PinLocked: locked})
		},
		ModeChanged: func(old, new camera.Mode) {
			monitoring.Debugf("camera mode %s -> %s", old, new)
		},
	})

	runner := loop.New(ctrl, nil, loop.Config{
		FrameInterval: cfg.GetFrameInterval(),
		Settings:      params,
	})

	recorder := trace.NewRecorder(*traceSamples)
	runner.AddObserver(recorder.Observe)

	streamCfg := stream.DefaultConfig()
	streamCfg.ListenAddr = *grpcListen
	publisher := stream.NewPublisher(streamCfg)
	runner.AddObserver(publisher.Observe)
	reporter := stream.CameraReporter{Runner: runner, Features: store}
	if err := publisher.Start(stream.NewServer(publisher, reporter)); err != nil {
		log.Fatalf("Failed to start pose stream: %v", err)
	}
	defer publisher.Stop()

	if err := runner.Post(func(c *camera.Controller) { c.BeginInitialFraming() }); err != nil {
		log.Fatalf("Failed to queue initial framing: %v", err)
	}

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := runner.Run(ctx); err != nil {
			log.Printf("frame loop error: %v", err)
		}
	}()

	if *inputPort != "" {
		port, err := inputbridge.OpenSerial(*inputPort, inputbridge.PortOptions{BaudRate: *inputBaud})
		if err != nil {
			log.Fatalf("Failed to open input port: %v", err)
		}
		bridge := inputbridge.New(runner, *inputPort)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer port.Close()
			if err := bridge.Run(ctx, port); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("input bridge error: %v", err)
			}
			st := bridge.Stats()
			log.Printf("input bridge stopped: %d applied, %d rejected, %d dropped", st.Applied, st.Rejected, st.Dropped)
		}()
	}

	srv := api.NewServer(runner, params, store, recorder, publisher)
	mux := srv.ServeMux()
	if err := store.AttachAdminRoutes(mux); err != nil {
		log.Fatalf("Failed to attach admin routes: %v", err)
	}

	httpServer := &http.Server{
		Addr:    *listen,
		Handler: api.LoggingMiddleware(mux),
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("HTTP API listening on %s", *listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("HTTP server error: %v", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	publisher.Stop()
	<-loopDone
	close(selections)
	wg.Wait()
	log.Printf("Shutdown complete after %d frames", runner.Frames())
}
