package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"go.uber.org/zap"

	"github.com/3xyy/Sortify/internal/classify"
	"github.com/3xyy/Sortify/internal/classify/gemini"
	"github.com/3xyy/Sortify/internal/classify/openai"
	"github.com/3xyy/Sortify/internal/config"
	"github.com/3xyy/Sortify/internal/store"
	"github.com/3xyy/Sortify/internal/telegram"
)

func main() {
	cfg := config.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if cfg.TelegramBotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is required")
	}

	// History store is optional; the bot works without it.
	var scans *store.ScanRepo
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			log.Fatal("sql.Open", zap.Error(err))
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(1 * time.Hour)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := db.PingContext(ctx); err != nil {
			cancel()
			log.Fatal("db ping", zap.Error(err))
		}
		cancel()

		scans = store.NewScanRepo(db)
		ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
		if err := scans.EnsureSchema(ctx); err != nil {
			cancel()
			log.Fatal("ensure schema", zap.Error(err))
		}
		cancel()
		log.Info("scan history enabled")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal("telegram auth", zap.Error(err))
	}
	bot.Debug = false

	engines := classify.NewEngines(
		openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel),
		gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel),
	)

	router := &telegram.Router{
		Bot:           bot,
		Engines:       engines,
		Engine:        cfg.Engine,
		Scans:         scans,
		Log:           log,
		MaxCityLength: cfg.MaxCityLength,
	}

	// Liveness endpoint for the hosting platform.
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		if err := http.ListenAndServe(":"+cfg.Port, mux); err != nil {
			log.Error("health server exited", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := bot.GetUpdatesChan(u)

	log.Info("sortify bot polling", zap.String("username", bot.Self.UserName))
	for upd := range updates {
		router.HandleUpdate(upd)
	}
}
