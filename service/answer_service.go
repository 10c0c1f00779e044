package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"hoa-assistant-backend/models"
	"hoa-assistant-backend/retrieval"
)

var (
	// ErrEmptyQuestion is returned when the question is blank
	ErrEmptyQuestion = errors.New("service: question is required")

	// ErrGeneration is returned when the answer could not be generated
	ErrGeneration = errors.New("service: answer generation failed")

	ErrRetrieverRequired = errors.New("service: retriever required")
	ErrGeneratorRequired = errors.New("service: generator required")
)

// OutputFormat selects the response shape
type OutputFormat string

const (
	OutputMarkdown OutputFormat = "markdown"
	OutputJSON     OutputFormat = "json"
)

// ParseOutputFormat maps a request value to an OutputFormat, defaulting to markdown
func ParseOutputFormat(s string) OutputFormat {
	if strings.EqualFold(strings.TrimSpace(s), string(OutputJSON)) {
		return OutputJSON
	}
	return OutputMarkdown
}

const (
	DefaultMode = "default"
	WhimsyMode  = "whimsy"
)

// Outcome classifies a finished question for metrics
type Outcome string

const (
	OutcomeAnswered Outcome = "answered"
	OutcomeWhimsy   Outcome = "whimsy"
	OutcomeError    Outcome = "error"
)

// Retriever selects grounding clauses for a question
type Retriever interface {
	Retrieve(ctx context.Context, question string, filters models.Filters) (*retrieval.Result, error)
}

// Generator produces an answer for an assembled prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Observer is notified once per question
type Observer interface {
	QuestionCompleted(outcome Outcome)
}

type noopObserver struct{}

func (noopObserver) QuestionCompleted(Outcome) {}

// AnswerRequest is one resident question
type AnswerRequest struct {
	Question     string
	Mode         string
	Filters      models.Filters
	OutputFormat OutputFormat
}

// AnswerRecord is the structured response shape
type AnswerRecord struct {
	Question string          `json:"question"`
	Answer   string          `json:"answer"`
	Clauses  []models.Clause `json:"clauses"`
	Mode     string          `json:"mode"`
	Format   string          `json:"format"`
}

// Response is the result of answering a question. Markdown is set for
// OutputMarkdown and Record for OutputJSON.
type Response struct {
	Format    OutputFormat
	Markdown  string
	Record    *AnswerRecord
	Outcome   Outcome
	NoMatches bool
}

// AnswerService runs the question answering flow
type AnswerService struct {
	retriever Retriever
	generator Generator
	picker    Picker
	format    FormatOptions
	observer  Observer
}

// AnswerServiceOption is a functional option for AnswerService
type AnswerServiceOption func(*AnswerService)

// AnswerWithRetriever sets the clause retriever
func AnswerWithRetriever(r Retriever) AnswerServiceOption {
	return func(s *AnswerService) {
		s.retriever = r
	}
}

// AnswerWithGenerator sets the answer generator
func AnswerWithGenerator(g Generator) AnswerServiceOption {
	return func(s *AnswerService) {
		s.generator = g
	}
}

// AnswerWithPicker sets the randomness source for canned replies
func AnswerWithPicker(p Picker) AnswerServiceOption {
	return func(s *AnswerService) {
		if p != nil {
			s.picker = p
		}
	}
}

// AnswerWithFormatOptions sets the clause block presentation
func AnswerWithFormatOptions(opts FormatOptions) AnswerServiceOption {
	return func(s *AnswerService) {
		s.format = opts
	}
}

// AnswerWithObserver sets the per-question observer
func AnswerWithObserver(o Observer) AnswerServiceOption {
	return func(s *AnswerService) {
		if o != nil {
			s.observer = o
		}
	}
}

// NewAnswerService creates a new answer service
func NewAnswerService(opts ...AnswerServiceOption) (*AnswerService, error) {
	s := &AnswerService{
		picker:   randomPicker,
		format:   DefaultFormatOptions(),
		observer: noopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if s.generator == nil {
		return nil, ErrGeneratorRequired
	}
	return s, nil
}

// Answer answers one question. Canned replies bypass retrieval entirely;
// everything else is retrieved, formatted and sent to the generator once.
func (s *AnswerService) Answer(ctx context.Context, req AnswerRequest) (*Response, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	format := req.OutputFormat
	if format != OutputJSON {
		format = OutputMarkdown
	}
	mode := req.Mode
	if mode == "" {
		mode = DefaultMode
	}

	if kind, replies := MatchWhimsy(question); kind != WhimsyNone {
		zap.L().Info("service: canned reply", zap.String("kind", string(kind)))
		s.observer.QuestionCompleted(OutcomeWhimsy)
		reply := pick(s.picker, replies)
		return s.respond(format, OutcomeWhimsy, &AnswerRecord{
			Question: question,
			Answer:   reply,
			Clauses:  []models.Clause{},
			Mode:     WhimsyMode,
		}, reply, false), nil
	}

	start := time.Now()
	result, err := s.retriever.Retrieve(ctx, question, req.Filters)
	if err != nil {
		s.observer.QuestionCompleted(OutcomeError)
		zap.L().Error("service: retrieval failed", zap.Error(err))
		return nil, err
	}

	clauseBlock := FormatClauses(result.Clauses, s.format)
	prompt := BuildPrompt(question, clauseBlock, result.NoMatches)

	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.observer.QuestionCompleted(OutcomeError)
		zap.L().Error("service: generation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	answer = FlattenLinks(answer)

	zap.L().Info("service: question answered",
		zap.Int("clauses", len(result.Clauses)),
		zap.Int("candidates", result.Candidates),
		zap.Bool("no_matches", result.NoMatches),
		zap.Duration("elapsed", time.Since(start)),
	)
	s.observer.QuestionCompleted(OutcomeAnswered)

	return s.respond(format, OutcomeAnswered, &AnswerRecord{
		Question: question,
		Answer:   answer,
		Clauses:  result.Clauses,
		Mode:     mode,
	}, answer+"<br><br>"+clauseBlock, result.NoMatches), nil
}

func (s *AnswerService) respond(format OutputFormat, outcome Outcome, record *AnswerRecord, markdown string, noMatches bool) *Response {
	resp := &Response{Format: format, Outcome: outcome, NoMatches: noMatches}
	if format == OutputJSON {
		record.Format = string(OutputJSON)
		resp.Record = record
		return resp
	}
	resp.Markdown = markdown
	return resp
}
