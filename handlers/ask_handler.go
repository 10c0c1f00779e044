package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hoa-assistant-backend/analytics"
	"hoa-assistant-backend/models"
	"hoa-assistant-backend/service"
)

const (
	genericAskError = "Something went wrong while answering your question. Please try again."
	recordTimeout   = 15 * time.Second
)

// Answerer answers resident questions
type Answerer interface {
	Answer(ctx context.Context, req service.AnswerRequest) (*service.Response, error)
}

// AskHandler handles POST /ask
type AskHandler struct {
	answers       Answerer
	recorder      analytics.Recorder
	recordAnswers bool
	pending       sync.WaitGroup
}

// AskHandlerOption is a functional option for AskHandler
type AskHandlerOption func(*AskHandler)

// AskWithRecorder records every answered question to r in the background
func AskWithRecorder(r analytics.Recorder) AskHandlerOption {
	return func(h *AskHandler) {
		if r != nil {
			h.recorder = r
			h.recordAnswers = true
		}
	}
}

// NewAskHandler creates a new ask handler
func NewAskHandler(answers Answerer, opts ...AskHandlerOption) *AskHandler {
	h := &AskHandler{answers: answers}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// AskRequest represents the request body for POST /ask
type AskRequest struct {
	Question      string      `json:"question"`
	Mode          string      `json:"mode"`
	Tags          models.Tags `json:"tags"`
	StructureType string      `json:"structure_type"`
	ConcernLevel  string      `json:"concern_level"`
	OutputFormat  string      `json:"output_format"`
}

// Ask handles POST /ask
func (h *AskHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	resp, err := h.answers.Answer(c.Request.Context(), service.AnswerRequest{
		Question: req.Question,
		Mode:     req.Mode,
		Filters: models.Filters{
			Tags:          req.Tags,
			StructureType: req.StructureType,
			ConcernLevel:  req.ConcernLevel,
		},
		OutputFormat: service.ParseOutputFormat(req.OutputFormat),
	})
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuestion) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
			return
		}
		zap.L().Error("ask failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericAskError})
		return
	}

	if resp.Format == service.OutputJSON {
		c.JSON(http.StatusOK, resp.Record)
	} else {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(resp.Markdown))
	}

	if h.recordAnswers && resp.Outcome == service.OutcomeAnswered {
		h.record(c, req.Question, resp)
	}
}

func (h *AskHandler) record(c *gin.Context, question string, resp *service.Response) {
	entry := analytics.Entry{
		Question: question,
		Answer:   resp.Markdown,
		IP:       c.ClientIP(),
	}
	if resp.Record != nil {
		entry.Answer = resp.Record.Answer
	}

	// The request context ends with the response
	ctx := context.WithoutCancel(c.Request.Context())

	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		ctx, cancel := context.WithTimeout(ctx, recordTimeout)
		defer cancel()

		if _, err := h.recorder.Record(ctx, entry); err != nil {
			zap.L().Warn("failed to record answered question", zap.Error(err))
		}
	}()
}

// Wait blocks until background recordings finish
func (h *AskHandler) Wait() {
	h.pending.Wait()
}
