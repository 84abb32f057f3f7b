package telegram

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/3xyy/Sortify/internal/classify"
	"github.com/3xyy/Sortify/internal/util"
)

var httpc = &http.Client{Timeout: 30 * time.Second}

// acceptPhoto downloads the largest rendition of the photo, runs it
// through the classifier and replies with disposal guidance.
func (r *Router) acceptPhoto(msg tgbotapi.Message) {
	cid := msg.Chat.ID
	ph := msg.Photo[len(msg.Photo)-1]

	engine, err := r.Engines.Get(r.Engine)
	if err != nil {
		r.send(cid, "The classifier isn't configured right now, try again later.")
		return
	}

	r.send(cid, "Got the photo, analyzing…")

	file, err := r.Bot.GetFile(tgbotapi.FileConfig{FileID: ph.FileID})
	if err != nil {
		r.Log.Error("telegram GetFile failed", zap.Error(err))
		r.send(cid, "Couldn't fetch that photo, please resend it.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	url := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", r.Bot.Token, file.FilePath)
	imgBytes, err := util.Download(ctx, httpc, url)
	if err != nil {
		r.Log.Error("photo download failed", zap.Error(err))
		r.send(cid, "Couldn't download that photo, please resend it.")
		return
	}

	city := r.city(cid)
	mime := util.PickMIME("", imgBytes)
	imageURL := util.MakeDataURL(mime, base64.StdEncoding.EncodeToString(imgBytes))

	result, err := engine.Classify(ctx, classify.Input{ImageURL: imageURL, City: city})
	if err != nil {
		r.Log.Error("classification failed", zap.Int64("chat_id", cid), zap.Error(err))
		r.send(cid, "Couldn't analyze that image, please try again.")
		return
	}

	r.send(cid, formatResult(result, city))

	if r.Scans != nil {
		if err := r.Scans.Insert(ctx, cid, engine.Name(), city, result); err != nil {
			r.Log.Warn("scan insert failed", zap.Int64("chat_id", cid), zap.Error(err))
		}
	}
}
