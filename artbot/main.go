package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"artbot/artbot/config"
	"artbot/artbot/controllers"
	"artbot/artbot/routes"
	"artbot/artbot/services/llm"
	"artbot/artbot/store"
	"artbot/artbot/utils/logging"
	"artbot/artbot/web"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func main() {
	logging.InitLogger()
	cfg := config.LoadConfig()

	persona, err := config.LoadPersona(cfg.PersonaPath)
	if err != nil {
		logging.ErrorLogger.Error("persona load error", zap.Error(err))
		os.Exit(1)
	}

	if cfg.OpenRouterAPIKey == "" {
		// Startup-detectable: every send will fail until a key is set.
		logging.AppLogger.Warn("OPENROUTER_API_KEY is not set; sends will be rejected")
	}

	client := llm.NewClient(llm.ClientConfig{
		APIKey:       cfg.OpenRouterAPIKey,
		Model:        cfg.OpenRouterModel,
		BaseURL:      cfg.OpenRouterBaseURL,
		SystemPrompt: persona.SystemPrompt,
		Referer:      cfg.Referer,
		AppTitle:     cfg.AppTitle,
	})
	st := store.New(persona.WelcomeMessage)
	chatCtrl := controllers.NewChatController(st, client)
	healthCtrl := controllers.NewHealthController(client)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Mount("/health", routes.HealthRoutes(healthCtrl))
	r.Mount("/chat", routes.ChatRoutes(chatCtrl, persona))
	r.Handle("/*", web.Handler())

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}
	go func() {
		logging.AppLogger.Info("artbot listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	logging.AppLogger.Info("server shutdown complete")
}
