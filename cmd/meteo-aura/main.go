package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	gocache "github.com/patrickmn/go-cache"

	httpapi "meteoaura/internal/api/http"
	"meteoaura/internal/config"
	"meteoaura/internal/offline"
	"meteoaura/internal/prefs"
	"meteoaura/internal/scheduler"
	"meteoaura/internal/weather"
	"meteoaura/internal/weather/openmeteo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound Open-Meteo calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	gateway := openmeteo.NewClient(httpClient, cfg.GeocodingURL, cfg.ForecastURL)
	reverse := weather.NewReverseGeocoder(cfg.GeocoderAPIKey)
	if !reverse.Enabled() {
		log.Println("INFO: no geocoder API key; reverse geocoding disabled")
	}

	// Preference store: files under DataDir, memory when that fails.
	var backend prefs.Backend
	fileBackend, err := prefs.NewFileBackend(cfg.DataDir)
	if err != nil {
		log.Printf("preference storage unavailable (%v); falling back to memory", err)
		backend = prefs.NewMemoryBackend()
	} else {
		backend = fileBackend
	}
	store := prefs.NewStore(backend)

	weatherCache := gocache.New(cfg.WeatherCacheTTL, cfg.WeatherCacheTTL)

	// Offline worker: pre-caches the shell from the embedded documents and
	// answers for the network once the app is wired up.
	worker := offline.NewWorker(
		httpapi.ShellNetwork{},
		offline.NewCache(),
		cfg.CacheGeneration,
		offline.WithNetworkErrorClassifier(openmeteo.IsUnreachable),
	)
	installCtx, cancelInstall := context.WithTimeout(context.Background(), 30*time.Second)
	if err := worker.Install(installCtx); err != nil {
		log.Printf("offline worker install failed: %v", err)
	} else {
		worker.Activate()
	}
	cancelInstall()

	app := fiber.New(fiber.Config{
		AppName:               "meteo-aura",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(offline.Middleware(worker))

	httpapi.RegisterPages(app)
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Gateway:      gateway,
		Reverse:      reverse,
		Store:        store,
		WeatherCache: weatherCache,
		Worker:       worker,
		Unreachable:  openmeteo.IsUnreachable,
	})

	// Keep favorite forecasts warm.
	sched := scheduler.New(gateway, store, weatherCache, cfg.RefreshInterval)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
