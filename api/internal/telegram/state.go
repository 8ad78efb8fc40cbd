package telegram

import (
	"sync"
	"time"
)

const debounce = 1200 * time.Millisecond

var lastImages sync.Map // chatID -> image id of the latest processed photo

func setLastImage(chatID int64, imageID string) { lastImages.Store(chatID, imageID) }

func lastImage(chatID int64) (string, bool) {
	if v, ok := lastImages.Load(chatID); ok {
		if s, _ := v.(string); s != "" {
			return s, true
		}
	}
	return "", false
}

// photoBatch collects the photos of one album (or quick successive photos) into one image.
type photoBatch struct {
	ChatID  int64
	Key     string
	ImageID string

	mu     sync.Mutex
	images [][]byte
	timer  *time.Timer
}

var batches sync.Map // key -> *photoBatch
