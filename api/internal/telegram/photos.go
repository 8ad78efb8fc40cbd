package telegram

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"image-translator/api/internal/extraction"
)

func (r *Router) acceptPhoto(msg tgbotapi.Message) {
	cid := msg.Chat.ID
	ph := msg.Photo[len(msg.Photo)-1] // largest size
	imgBytes, err := r.Fetch(ph.FileID)
	if err != nil {
		r.SendError(cid, err)
		return
	}

	key := "chat:" + fmt.Sprint(cid)
	if msg.MediaGroupID != "" {
		key = "grp:" + msg.MediaGroupID
	}

	bi, _ := batches.LoadOrStore(key, &photoBatch{
		ChatID: cid, Key: key, ImageID: fmt.Sprintf("tg%d-%d", cid, msg.MessageID), images: make([][]byte, 0, 4),
	})
	b := bi.(*photoBatch)

	b.mu.Lock()
	b.images = append(b.images, imgBytes)
	first := len(b.images) == 1
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(debounce, func() { r.processBatch(key) })
	b.mu.Unlock()

	if first {
		r.send(cid, "Photo received. If the text spans several photos, send them right away and I will join them.")
	}
}

func (r *Router) processBatch(key string) {
	bi, ok := batches.LoadAndDelete(key)
	if !ok {
		return
	}
	b := bi.(*photoBatch)

	b.mu.Lock()
	images := append([][]byte(nil), b.images...)
	b.mu.Unlock()
	if len(images) == 0 {
		return
	}

	merged := images[0]
	if len(images) > 1 {
		var err error
		if merged, err = combineAsOne(images); err != nil {
			r.SendError(b.ChatID, fmt.Errorf("joining photos: %w", err))
			return
		}
	}
	r.extractAndReply(b.ChatID, b.ImageID, merged)
}

func (r *Router) extractAndReply(chatID int64, imageID string, img []byte) {
	ctx, cancel := r.ctx()
	defer cancel()

	out, err := r.Extractor.Extract(ctx, imageID, img)
	if err != nil {
		r.SendError(chatID, err)
		return
	}
	setLastImage(chatID, imageID)
	r.send(chatID, formatBlocks(out.Results))
}

// combineAsOne stacks the images vertically, centred on a white canvas.
func combineAsOne(images [][]byte) ([]byte, error) {
	decoded := make([]image.Image, 0, len(images))
	maxW, sumH := 0, 0
	for _, b := range images {
		img, err := imaging.Decode(bytes.NewReader(b), imaging.AutoOrientation(true))
		if err != nil {
			return nil, err
		}
		decoded = append(decoded, img)
		maxW = max(maxW, img.Bounds().Dx())
		sumH += img.Bounds().Dy()
	}
	if maxW == 0 || sumH == 0 {
		return nil, fmt.Errorf("empty images")
	}

	dst := imaging.New(maxW, sumH, color.White)
	y := 0
	for _, img := range decoded {
		x := (maxW - img.Bounds().Dx()) / 2
		dst = imaging.Paste(dst, img, image.Pt(x, y))
		y += img.Bounds().Dy()
	}

	var out bytes.Buffer
	if err := imaging.Encode(&out, dst, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func formatBlocks(results []extraction.Result) string {
	if len(results) == 0 {
		return "No text found."
	}
	var b strings.Builder
	b.WriteString("📝 Recognized text:\n\n")
	for _, res := range results {
		text := res.Text
		if strings.TrimSpace(text) == "" {
			text = "(empty)"
		}
		fmt.Fprintf(&b, "%d: %s\n", res.Ordinal+1, text)
	}
	return strings.TrimRight(b.String(), "\n")
}

// BotFetcher downloads files through the Bot API file endpoint.
func BotFetcher(bot *tgbotapi.BotAPI) func(fileID string) ([]byte, error) {
	return func(fileID string) ([]byte, error) {
		url, err := bot.GetFileDirectURL(fileID)
		if err != nil {
			return nil, err
		}
		return download(url)
	}
}

func download(url string) ([]byte, error) {
	resp, err := httpClient().Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(resp.Body)
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}
