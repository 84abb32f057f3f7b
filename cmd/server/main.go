package main

import (
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/3xyy/Sortify/internal/api"
	"github.com/3xyy/Sortify/internal/classify"
	"github.com/3xyy/Sortify/internal/classify/gemini"
	"github.com/3xyy/Sortify/internal/classify/openai"
	"github.com/3xyy/Sortify/internal/config"
	"github.com/3xyy/Sortify/internal/ratelimit"
)

func main() {
	cfg := config.Load()

	// Platform-assigned port wins.
	if p := strings.TrimSpace(os.Getenv("PORT")); p != "" {
		cfg.Port = p
	}

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	engines := classify.NewEngines(
		openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel),
		gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel),
	)

	limiter := ratelimit.New(cfg.RateLimitMax, cfg.RateLimitWindow)
	go sweepLoop(limiter, log)

	h := api.NewHandler(cfg, engines, limiter, log)
	router := api.NewRouter(h, log)

	addr := ":" + cfg.Port
	log.Info("sortify gateway listening",
		zap.String("addr", addr),
		zap.String("engine", cfg.Engine),
		zap.String("minAppVersion", cfg.MinAppVersion))
	if err := router.Run(addr); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

// sweepLoop keeps the rate-limit ledger from accumulating one entry per
// identity ever seen.
func sweepLoop(l *ratelimit.FixedWindow, log *zap.Logger) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		if n := l.Sweep(); n > 0 {
			log.Debug("rate limit ledger swept", zap.Int("removed", n), zap.Int("tracked", l.Len()))
		}
	}
}
