package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"image-translator/api/internal/logging"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestRetryDelayFromError(t *testing.T) {
	tests := []struct {
		err  error
		want time.Duration
	}{
		{nil, 0},
		{errors.New("Too Many Requests: retry after 7"), 7 * time.Second},
		{errors.New("too many requests"), 3 * time.Second},
		{timeoutErr{}, 2 * time.Second},
		{errors.New("boom"), time.Second},
	}
	for _, tt := range tests {
		if got := retryDelayFromError(tt.err); got != tt.want {
			t.Errorf("retryDelayFromError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

type fakeSource struct {
	calls   int
	offsets []int
	cancel  context.CancelFunc
}

func (f *fakeSource) GetUpdates(cfg tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	f.calls++
	f.offsets = append(f.offsets, cfg.Offset)
	switch f.calls {
	case 1:
		return []tgbotapi.Update{{UpdateID: 10}, {UpdateID: 11}}, nil
	default:
		f.cancel()
		return nil, nil
	}
}

func TestRunPollingAdvancesOffset(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &fakeSource{cancel: cancel}
	var seen []int

	runPolling(ctx, src, func(u tgbotapi.Update) { seen = append(seen, u.UpdateID) }, logging.Nop())

	if len(seen) != 2 || seen[0] != 10 || seen[1] != 11 {
		t.Fatalf("seen = %v", seen)
	}
	if len(src.offsets) != 2 || src.offsets[1] != 12 {
		t.Fatalf("offsets = %v", src.offsets)
	}
}

func TestWebhookPath(t *testing.T) {
	p := webhookPath("123:abc")
	if !strings.HasPrefix(p, "/webhook/") || len(p) != len("/webhook/")+16 {
		t.Fatalf("unexpected path %q", p)
	}
	if p != webhookPath("123:abc") || p == webhookPath("other") {
		t.Fatal("path must be stable per token")
	}
}
