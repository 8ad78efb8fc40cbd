package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"image-translator/api/internal/apperr"
	"image-translator/api/internal/extraction"
	"image-translator/api/internal/logging"
	"image-translator/api/internal/ocr"
	"image-translator/api/internal/translation"
)

// Sender is the part of *tgbotapi.BotAPI the router talks to.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Extractor interface {
	Extract(ctx context.Context, imageID string, image []byte) (ocr.Extraction, error)
}

type Router struct {
	Bot Sender
	// Fetch downloads a Telegram file by id.
	Fetch        func(fileID string) ([]byte, error)
	Extractor    Extractor
	Extractions  *extraction.Service
	Translations *translation.Service
	Log          *logging.Logger
	Timeout      time.Duration
}

const usage = `Send a photo and I will read the text on it.
/blocks - list the text blocks of the last photo
/edit <n> <text> - replace the text of block n
/translate <lang> - translate every block, e.g. /translate es`

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	if upd.Message.IsCommand() {
		r.HandleCommand(*upd.Message)
		return
	}
	if len(upd.Message.Photo) > 0 {
		r.acceptPhoto(*upd.Message)
	}
}

func (r *Router) HandleCommand(msg tgbotapi.Message) {
	cid := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())
	ctx, cancel := r.ctx()
	defer cancel()

	switch msg.Command() {
	case "start", "help":
		r.send(cid, usage)
	case "health":
		r.send(cid, "✅ OK")
	case "blocks":
		r.listBlocks(ctx, cid)
	case "edit":
		r.editBlock(ctx, cid, args)
	case "translate":
		r.translateAll(ctx, cid, args)
	default:
		r.send(cid, "Unknown command.\n\n"+usage)
	}
}

func (r *Router) listBlocks(ctx context.Context, chatID int64) {
	imageID, ok := r.currentImage(chatID)
	if !ok {
		return
	}
	results, err := r.Extractions.ListForImage(ctx, imageID)
	if err != nil {
		r.SendError(chatID, err)
		return
	}
	r.send(chatID, formatBlocks(results))
}

func (r *Router) editBlock(ctx context.Context, chatID int64, args string) {
	imageID, ok := r.currentImage(chatID)
	if !ok {
		return
	}
	num, text, _ := strings.Cut(args, " ")
	n, err := strconv.Atoi(num)
	text = strings.TrimSpace(text)
	if err != nil || n < 1 || text == "" {
		r.send(chatID, "Usage: /edit <n> <text>")
		return
	}
	res, err := r.Extractions.GetByTextID(ctx, imageID, extraction.TextID(imageID, n-1))
	if err != nil {
		r.SendError(chatID, err)
		return
	}
	if err := r.Extractions.EditText(ctx, res.ID, text); err != nil {
		r.SendError(chatID, err)
		return
	}
	r.send(chatID, fmt.Sprintf("✅ Block %d updated.", n))
}

// translateAll translates every block of the current image, reusing translations that
// already exist for the language.
func (r *Router) translateAll(ctx context.Context, chatID int64, lang string) {
	imageID, ok := r.currentImage(chatID)
	if !ok {
		return
	}
	tag, err := translation.NormalizeLanguage(lang)
	if err != nil {
		r.send(chatID, "Usage: /translate <lang>, e.g. /translate es")
		return
	}
	results, err := r.Extractions.ListForImage(ctx, imageID)
	if err != nil {
		r.SendError(chatID, err)
		return
	}
	existing, err := r.Translations.ForImage(ctx, imageID)
	if err != nil {
		r.SendError(chatID, err)
		return
	}
	have := map[string]string{}
	for _, t := range existing {
		if t.TargetLanguage == tag {
			have[t.OriginalTextID] = t.TranslatedText
		}
	}

	lines := make([]string, 0, len(results))
	for _, res := range results {
		if strings.TrimSpace(res.Text) == "" {
			continue
		}
		text, ok := have[res.TextID]
		if !ok {
			t, err := r.Translations.Create(ctx, translation.CreateInput{
				ImageID: imageID, OriginalTextID: res.TextID, OriginalText: res.Text, TargetLanguage: tag,
			})
			if err != nil {
				r.log().Warn("translation failed", "text_id", res.TextID, "err", err)
				text = "⚠️ " + res.Text
			} else {
				text = t.TranslatedText
			}
		}
		lines = append(lines, fmt.Sprintf("%d: %s", res.Ordinal+1, text))
	}
	if len(lines) == 0 {
		r.send(chatID, "Nothing to translate.")
		return
	}
	r.send(chatID, "🌐 "+tag+":\n\n"+strings.Join(lines, "\n"))
}

func (r *Router) currentImage(chatID int64) (string, bool) {
	imageID, ok := lastImage(chatID)
	if !ok {
		r.send(chatID, "Send a photo first.")
	}
	return imageID, ok
}

func (r *Router) ctx() (context.Context, context.CancelFunc) {
	d := r.Timeout
	if d <= 0 {
		d = 180 * time.Second
	}
	return context.WithTimeout(context.Background(), d)
}

func (r *Router) log() *logging.Logger {
	if r.Log == nil {
		return logging.Nop()
	}
	return r.Log
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, truncate(text, maxMessageBytes))
	if _, err := r.Bot.Send(msg); err != nil {
		r.log().Warn("telegram send failed", "chat", chatID, "err", err)
	}
}

const maxMessageBytes = 3900

// truncate cuts s to at most n bytes on a rune boundary and marks the cut.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}

func (r *Router) SendError(chatID int64, err error) {
	switch {
	case apperr.Is(err, apperr.CodeNotFound):
		r.send(chatID, "Not found. Use /blocks to see the block numbers.")
	case apperr.Is(err, apperr.CodeUpstreamFailure):
		r.send(chatID, "The recognition service is unavailable, please try again later.")
	case errors.Is(err, context.DeadlineExceeded):
		r.send(chatID, "That took too long, please try again.")
	default:
		r.send(chatID, fmt.Sprintf("Error: %v", err))
	}
}
