package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hoa-assistant-backend/analytics"
	"hoa-assistant-backend/models"
	"hoa-assistant-backend/service"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
	gin.SetMode(gin.TestMode)
}

type mockAnswerer struct {
	AnswerFunc func(ctx context.Context, req service.AnswerRequest) (*service.Response, error)

	mu   sync.Mutex
	reqs []service.AnswerRequest
}

func (m *mockAnswerer) Answer(ctx context.Context, req service.AnswerRequest) (*service.Response, error) {
	m.mu.Lock()
	m.reqs = append(m.reqs, req)
	m.mu.Unlock()
	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, req)
	}
	if req.OutputFormat == service.OutputJSON {
		return &service.Response{
			Format:  service.OutputJSON,
			Outcome: service.OutcomeAnswered,
			Record: &service.AnswerRecord{
				Question: req.Question,
				Answer:   "Six feet.",
				Clauses:  []models.Clause{{ClauseID: "A", PrecedenceLevel: "1"}},
				Mode:     "default",
				Format:   "json",
			},
		}, nil
	}
	return &service.Response{
		Format:   service.OutputMarkdown,
		Outcome:  service.OutcomeAnswered,
		Markdown: "Six feet.<br><br><b>1. ...</b>",
	}, nil
}

type mockRecorder struct {
	RecordFunc func(ctx context.Context, e analytics.Entry) (analytics.Receipt, error)

	mu      sync.Mutex
	entries []analytics.Entry
}

func (m *mockRecorder) Record(ctx context.Context, e analytics.Entry) (analytics.Receipt, error) {
	m.mu.Lock()
	m.entries = append(m.entries, e)
	m.mu.Unlock()
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, e)
	}
	return analytics.Receipt{Code: http.StatusOK}, nil
}

func (m *mockRecorder) recorded() []analytics.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]analytics.Entry(nil), m.entries...)
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAsk_Markdown(t *testing.T) {
	answers := &mockAnswerer{}
	r := NewRouter(RouterConfig{Ask: NewAskHandler(answers)})

	w := doJSON(r, http.MethodPost, "/ask", `{
		"question": "How tall can my fence be?",
		"tags": ["fence", 7],
		"structure_type": "fence",
		"concern_level": "high"
	}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "Six feet.<br><br><b>1. ...</b>", w.Body.String())

	require.Len(t, answers.reqs, 1)
	got := answers.reqs[0]
	assert.Equal(t, service.OutputMarkdown, got.OutputFormat)
	assert.Equal(t, []string{"fence"}, got.Filters.Tags)
	assert.Equal(t, "fence", got.Filters.StructureType)
	assert.Equal(t, "high", got.Filters.ConcernLevel)
}

func TestAsk_JSON(t *testing.T) {
	r := NewRouter(RouterConfig{Ask: NewAskHandler(&mockAnswerer{})})

	w := doJSON(r, http.MethodPost, "/ask", `{"question": "How tall can my fence be?", "output_format": "json"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "How tall can my fence be?", body["question"])
	assert.Equal(t, "Six feet.", body["answer"])
	assert.Equal(t, "json", body["format"])
	assert.Equal(t, "default", body["mode"])
	assert.Len(t, body["clauses"], 1)
}

func TestAsk_Errors(t *testing.T) {
	t.Run("bad body", func(t *testing.T) {
		r := NewRouter(RouterConfig{Ask: NewAskHandler(&mockAnswerer{})})
		w := doJSON(r, http.MethodPost, "/ask", `{not json`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty question", func(t *testing.T) {
		answers := &mockAnswerer{AnswerFunc: func(context.Context, service.AnswerRequest) (*service.Response, error) {
			return nil, service.ErrEmptyQuestion
		}}
		r := NewRouter(RouterConfig{Ask: NewAskHandler(answers)})
		w := doJSON(r, http.MethodPost, "/ask", `{"question": ""}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("internal failure is generic", func(t *testing.T) {
		answers := &mockAnswerer{AnswerFunc: func(context.Context, service.AnswerRequest) (*service.Response, error) {
			return nil, errors.New("pq: password authentication failed for user hoa")
		}}
		r := NewRouter(RouterConfig{Ask: NewAskHandler(answers)})
		w := doJSON(r, http.MethodPost, "/ask", `{"question": "fence?"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "password")
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, genericAskError, body["error"])
	})
}

func TestAsk_RecordsAnsweredQuestions(t *testing.T) {
	recorder := &mockRecorder{}
	h := NewAskHandler(&mockAnswerer{}, AskWithRecorder(recorder))
	r := NewRouter(RouterConfig{Ask: h})

	w := doJSON(r, http.MethodPost, "/ask", `{"question": "How tall can my fence be?", "output_format": "json"}`)
	require.Equal(t, http.StatusOK, w.Code)
	h.Wait()

	entries := recorder.recorded()
	require.Len(t, entries, 1)
	assert.Equal(t, "How tall can my fence be?", entries[0].Question)
	assert.Equal(t, "Six feet.", entries[0].Answer)
}

func TestAsk_SkipsRecordingWhimsy(t *testing.T) {
	recorder := &mockRecorder{}
	answers := &mockAnswerer{AnswerFunc: func(context.Context, service.AnswerRequest) (*service.Response, error) {
		return &service.Response{Format: service.OutputMarkdown, Outcome: service.OutcomeWhimsy, Markdown: "Built by your community."}, nil
	}}
	h := NewAskHandler(answers, AskWithRecorder(recorder))
	r := NewRouter(RouterConfig{Ask: h})

	w := doJSON(r, http.MethodPost, "/ask", `{"question": "who made you"}`)
	require.Equal(t, http.StatusOK, w.Code)
	h.Wait()

	assert.Empty(t, recorder.recorded())
}

func TestAsk_RateLimited(t *testing.T) {
	r := NewRouter(RouterConfig{
		Ask:            NewAskHandler(&mockAnswerer{}),
		RateLimitRPS:   0.001,
		RateLimitBurst: 2,
	})

	for i := 0; i < 2; i++ {
		w := doJSON(r, http.MethodPost, "/ask", `{"question": "fence?"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	}
	w := doJSON(r, http.MethodPost, "/ask", `{"question": "fence?"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRequestTimeout_SetsDeadline(t *testing.T) {
	var hasDeadline bool
	answers := &mockAnswerer{AnswerFunc: func(ctx context.Context, req service.AnswerRequest) (*service.Response, error) {
		_, hasDeadline = ctx.Deadline()
		return &service.Response{Format: service.OutputMarkdown, Outcome: service.OutcomeAnswered}, nil
	}}
	r := NewRouter(RouterConfig{Ask: NewAskHandler(answers), RequestTimeout: 5e9})

	w := doJSON(r, http.MethodPost, "/ask", `{"question": "fence?"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, hasDeadline)
}

func TestLog(t *testing.T) {
	recorder := &mockRecorder{RecordFunc: func(context.Context, analytics.Entry) (analytics.Receipt, error) {
		return analytics.Receipt{Code: 302}, nil
	}}
	r := NewRouter(RouterConfig{Log: NewLogHandler(recorder)})

	w := doJSON(r, http.MethodPost, "/log", `{"question": "Pool hours?", "answer": "8 to 8"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"logged","code":302}`, w.Body.String())

	entries := recorder.recorded()
	require.Len(t, entries, 1)
	assert.Equal(t, "Pool hours?", entries[0].Question)
}

func TestLog_Failure(t *testing.T) {
	recorder := &mockRecorder{RecordFunc: func(context.Context, analytics.Entry) (analytics.Receipt, error) {
		return analytics.Receipt{}, errors.New("webhook unreachable")
	}}
	r := NewRouter(RouterConfig{Log: NewLogHandler(recorder)})

	w := doJSON(r, http.MethodPost, "/log", `{"question": "q"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"webhook unreachable"}`, w.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("hoa_assistant_questions_total 0\n"))
	})
	r := NewRouter(RouterConfig{Metrics: metrics})

	w := doJSON(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = doJSON(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hoa_assistant_questions_total")
}
