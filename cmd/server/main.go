package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/visionask/visionask-go/internal/adapters/gallery"
	"github.com/visionask/visionask-go/internal/adapters/vqa"
	"github.com/visionask/visionask-go/internal/config"
	"github.com/visionask/visionask-go/internal/domain/ports"
	"github.com/visionask/visionask-go/internal/domain/usecases"
	httpserver "github.com/visionask/visionask-go/internal/infrastructure/http"
)

func main() {
	cfg := config.NewConfig()

	logger, err := newLogger(cfg.DebugMode)
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	defer func() {
		_ = logger.Sync()
	}()

	sugar.Infow("starting visionask",
		"addr", cfg.Addr,
		"inference_url", cfg.InferenceURL,
		"samples_dir", cfg.SamplesDir,
		"debug", cfg.DebugMode,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Sample gallery is optional; without a samples directory the form
	// simply offers no picker.
	var galleryStore ports.GalleryStore
	if store, err := gallery.NewStore(cfg.SamplesDir, nil); err != nil {
		sugar.Warnw("sample gallery disabled", "dir", cfg.SamplesDir, "error", err)
	} else {
		defer store.Stop()
		if err := store.Watch(ctx); err != nil {
			sugar.Warnw("gallery watch disabled", "error", err)
		}
		galleryStore = store
	}

	answerer := vqa.NewHuggingFaceAdapter(cfg.InferenceURL)
	controller := usecases.NewSessionController(answerer, cfg.MaxImageBytes)
	server := httpserver.NewServer(controller, galleryStore, sugar, cfg.Addr, cfg.TokenHelpURL)

	if err := server.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugar.Fatalw("server stopped", "error", err)
	}
	sugar.Infow("shutdown complete")
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
