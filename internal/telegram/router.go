// Package telegram is a chat front-end to the classification engines:
// send a photo of a waste item, get disposal guidance back.
package telegram

import (
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/3xyy/Sortify/internal/classify"
	"github.com/3xyy/Sortify/internal/store"
	"github.com/3xyy/Sortify/internal/validate"
)

type Router struct {
	Bot     *tgbotapi.BotAPI
	Engines *classify.Engines
	// Engine names which registered engine classifies photos.
	Engine string
	// Scans is optional; nil disables history.
	Scans *store.ScanRepo
	Log   *zap.Logger

	MaxCityLength int

	cities sync.Map // chatID -> sanitized city
}

// HandleUpdate dispatches a single update. Called from the polling loop.
func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	if upd.Message.IsCommand() {
		r.handleCommand(*upd.Message)
		return
	}
	if len(upd.Message.Photo) > 0 {
		r.acceptPhoto(*upd.Message)
		return
	}
	r.send(upd.Message.Chat.ID, "Send me a photo of a waste item and I'll tell you how to dispose of it.\nCommands: /city, /recent, /health")
}

// city returns the chat's configured city, defaulting to the sentinel.
func (r *Router) city(chatID int64) string {
	if v, ok := r.cities.Load(chatID); ok {
		return v.(string)
	}
	return validate.SentinelCity
}

func (r *Router) setCity(chatID int64, city string) {
	r.cities.Store(chatID, city)
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := r.Bot.Send(msg); err != nil {
		r.Log.Warn("telegram send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
