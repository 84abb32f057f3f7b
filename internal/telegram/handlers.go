package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/3xyy/Sortify/internal/validate"
)

func (r *Router) handleCommand(msg tgbotapi.Message) {
	cid := msg.Chat.ID
	switch msg.Command() {
	case "start":
		r.send(cid, "Hi! Send me a photo of a waste item and I'll tell you whether it's recycling, compost, trash or hazardous waste, and how to dispose of it.\n\nSet your city with /city so the advice matches local rules.")
	case "health":
		if _, err := r.Engines.Get(r.Engine); err != nil {
			r.send(cid, "⚠️ classification engine not configured")
			return
		}
		r.send(cid, "✅ OK")
	case "city":
		arg := strings.TrimSpace(msg.CommandArguments())
		if arg == "" {
			r.send(cid, "Current city: "+r.city(cid)+"\nUsage: /city San Francisco")
			return
		}
		city, err := validate.City(arg, r.MaxCityLength)
		if err != nil {
			r.send(cid, "That doesn't look like a city name: "+err.Error())
			return
		}
		r.setCity(cid, city)
		r.send(cid, "Got it, disposal advice will be for "+city+".")
	case "recent":
		r.handleRecent(cid)
	default:
		r.send(cid, "Unknown command. Try /start, /city, /recent or /health.")
	}
}

func (r *Router) handleRecent(chatID int64) {
	if r.Scans == nil {
		r.send(chatID, "Scan history is not enabled on this bot.")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := r.Scans.Recent(ctx, chatID, 5)
	if err != nil {
		r.Log.Error("recent scans query failed", zap.Int64("chat_id", chatID), zap.Error(err))
		r.send(chatID, "Couldn't load your history right now, try again later.")
		return
	}
	if len(rows) == 0 {
		r.send(chatID, "No scans yet. Send me a photo to get started!")
		return
	}

	var b strings.Builder
	b.WriteString("Your recent scans:\n")
	for _, row := range rows {
		fmt.Fprintf(&b, "\n%s %s — %s (%d%%), %s",
			categoryEmoji(row.Result.Category),
			row.Result.ItemName,
			row.Result.Category,
			row.Result.Confidence,
			row.CreatedAt.Format("Jan 2 15:04"))
	}
	r.send(chatID, b.String())
}
