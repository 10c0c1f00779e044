// Package analytics records asked questions and their answers.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"hoa-assistant-backend/config"
	"hoa-assistant-backend/storage"
)

// UnknownIP is recorded when the client address is not supplied
const UnknownIP = "N/A"

// Sink names accepted in analytics.sink
const (
	SinkNone    = "none"
	SinkWebhook = "webhook"
	SinkStorage = "storage"
)

// Entry is one logged question/answer pair
type Entry struct {
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	IP         string    `json:"ip"`
	RecordedAt time.Time `json:"recorded_at,omitempty"`
}

// Receipt describes where an entry went
type Receipt struct {
	Code     int    // HTTP-style status of the sink
	Location string // object key for archived entries
}

// Recorder persists entries
type Recorder interface {
	Record(ctx context.Context, e Entry) (Receipt, error)
}

// NewRecorder builds the recorder selected by cfg.Sink. store is only
// consulted for the storage sink.
func NewRecorder(cfg config.AnalyticsConfig, store storage.Storage) (Recorder, error) {
	switch strings.ToLower(cfg.Sink) {
	case "", SinkNone:
		return NopRecorder{}, nil
	case SinkWebhook:
		if cfg.WebhookURL == "" {
			return nil, eris.New("analytics: analytics.webhook_url is required for the webhook sink")
		}
		return NewWebhookRecorder(cfg.WebhookURL, nil), nil
	case SinkStorage:
		if store == nil {
			return nil, eris.New("analytics: storage is required for the storage sink")
		}
		return NewArchiveRecorder(store, cfg.Prefix), nil
	default:
		return nil, eris.Errorf("analytics: unknown sink %q", cfg.Sink)
	}
}

func (e Entry) withDefaults(now time.Time) Entry {
	if strings.TrimSpace(e.IP) == "" {
		e.IP = UnknownIP
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = now.UTC()
	}
	return e
}

// NopRecorder discards entries
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Entry) (Receipt, error) {
	return Receipt{Code: http.StatusNoContent}, nil
}

// WebhookRecorder posts each entry as JSON to a URL, such as a
// spreadsheet script endpoint
type WebhookRecorder struct {
	url    string
	client *http.Client
}

// NewWebhookRecorder creates a webhook recorder. A nil client gets a 30 second timeout.
func NewWebhookRecorder(url string, client *http.Client) *WebhookRecorder {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &WebhookRecorder{url: url, client: client}
}

// Record posts {question, answer, ip} and returns the webhook's status code.
// Non-2xx responses are not errors; the caller reports the code.
func (w *WebhookRecorder) Record(ctx context.Context, e Entry) (Receipt, error) {
	e = e.withDefaults(time.Now())

	payload, err := json.Marshal(map[string]string{
		"question": e.Question,
		"answer":   e.Answer,
		"ip":       e.IP,
	})
	if err != nil {
		return Receipt{}, eris.Wrap(err, "analytics: marshal entry")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return Receipt{}, eris.Wrap(err, "analytics: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return Receipt{}, eris.Wrap(err, "analytics: post entry")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return Receipt{Code: resp.StatusCode}, nil
}

// ArchiveRecorder writes each entry as a JSON object under
// <prefix>/<yyyy>/<mm>/<dd>/<uuid>.json
type ArchiveRecorder struct {
	store  storage.Storage
	prefix string
	now    func() time.Time
}

// NewArchiveRecorder creates an archive recorder
func NewArchiveRecorder(store storage.Storage, prefix string) *ArchiveRecorder {
	return &ArchiveRecorder{
		store:  store,
		prefix: strings.Trim(prefix, "/"),
		now:    time.Now,
	}
}

// Record stores the entry and returns its key
func (a *ArchiveRecorder) Record(ctx context.Context, e Entry) (Receipt, error) {
	e = e.withDefaults(a.now())

	body, err := json.Marshal(e)
	if err != nil {
		return Receipt{}, eris.Wrap(err, "analytics: marshal entry")
	}

	key := a.key(e.RecordedAt, uuid.New())
	loc, err := a.store.Put(ctx, key, "application/json", bytes.NewReader(body))
	if err != nil {
		return Receipt{}, eris.Wrap(err, "analytics: archive entry")
	}
	return Receipt{Code: http.StatusCreated, Location: loc}, nil
}

func (a *ArchiveRecorder) key(t time.Time, id uuid.UUID) string {
	key := fmt.Sprintf("%04d/%02d/%02d/%s.json", t.Year(), int(t.Month()), t.Day(), id)
	if a.prefix == "" {
		return key
	}
	return a.prefix + "/" + key
}
