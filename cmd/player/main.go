// Package main provides the player entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/slidebox/internal/api/connect"
	"github.com/osa030/slidebox/internal/app/loader"
	"github.com/osa030/slidebox/internal/app/playback"
	"github.com/osa030/slidebox/internal/app/player"
	"github.com/osa030/slidebox/internal/app/render"
	"github.com/osa030/slidebox/internal/infra/backend"
	"github.com/osa030/slidebox/internal/infra/config"
	"github.com/osa030/slidebox/internal/infra/logger"
)

var (
	app        = kingpin.New("slidebox-player", "slidebox digital signage player")
	configPath = app.Flag("config", "Path to config file").Default("config/player.yaml").String()
	screen     = app.Flag("screen", "Screen key (overrides config)").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// list-renderers command
	listRenderersCmd = app.Command("list-renderers", "List available renderers and exit")
)

func init() {
	app.Command("start", "Start the player (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listRenderersCmd.FullCommand() {
		printRenderers()
		return
	}

	loggerConfig := logger.Config{Level: "info", File: *logfile}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	if *screen != "" {
		// Applied before validation, so a config without a key still loads.
		os.Setenv("SCREEN_KEY", *screen)
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Player error: %v", err)
		os.Exit(1)
	}
}

// run executes the main player logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	renderers, err := render.Build(cfg.EnabledRenderers())
	if err != nil {
		return errors.Wrap(err, "invalid renderer config")
	}

	client, err := backend.New(ctx, backend.Config{
		BaseURL:  cfg.Backend.BaseURL,
		Timeout:  cfg.BackendTimeout(),
		APIToken: cfg.Backend.APIToken,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create backend client")
	}
	zlog.Info().Msgf("Using backend %s", client)

	l := loader.New(client, client.CreativeURL())
	defer l.Close()

	controller := playback.NewController(playback.Config{TickInterval: cfg.TickInterval()})
	defer controller.Close()

	p := player.New(player.Config{ScreenKey: cfg.Screen.Key, Autoplay: cfg.Autoplay()}, l, controller)

	snapshotSub, snapshots := controller.Snapshots().Subscribe()
	defer controller.Snapshots().Unsubscribe(snapshotSub)
	loadSub, loads := l.States().Subscribe()
	defer l.States().Unsubscribe(loadSub)

	var renderWG sync.WaitGroup
	renderWG.Add(3)
	go func() {
		defer renderWG.Done()
		render.Run(ctx, controller.Events(), renderers)
	}()
	go func() {
		defer renderWG.Done()
		render.WatchSnapshots(ctx, snapshots, renderers)
	}()
	go func() {
		defer renderWG.Done()
		render.WatchLoads(ctx, loads, renderers)
	}()

	go func() {
		if s := p.Reload(ctx, ""); s.Phase == loader.PhaseFailed {
			zlog.Warn().Msgf("Initial load failed, waiting for reload: %s", s.Error)
		}
	}()

	var server *http.Server
	serverErrCh := make(chan error, 1)
	if cfg.ServerEnabled() {
		server = newServer(cfg, p)
		go func() {
			zlog.Info().Msgf("Starting control server: addr=%s", server.Addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				serverErrCh <- err
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return errors.Wrap(err, "server error")
	}

	// Graceful shutdown
	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zlog.Error().Msgf("Failed to shutdown server: %v", err)
		}
	}

	controller.Stop()
	cancel()
	renderWG.Wait()

	zlog.Info().Msg("Player stopped")
	return nil
}

// newServer creates the h2c control server.
func newServer(cfg *config.Config, p *player.Player) *http.Server {
	mux := http.NewServeMux()
	path, handler := apiconnect.NewPlayerServiceHandler(
		apiconnect.NewPlayerService(p),
		connect.WithInterceptors(apiconnect.NewAdminAuthInterceptor(cfg.Admin.Token)),
	)
	mux.Handle(path, handler)

	return &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h2c.NewHandler(mux, &http2.Server{}),
	}
}

// printRenderers prints available renderers.
func printRenderers() {
	fmt.Println("Available Renderers:")
	registry := render.GetRegistered()
	for _, name := range render.Names() {
		r := registry[name]()
		fmt.Printf("  %-10s - %s\n", r.Name(), r.Description())
	}
}
