package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hoa-assistant-backend/models"
	"hoa-assistant-backend/retrieval"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type mockRetriever struct {
	RetrieveFunc func(ctx context.Context, question string, filters models.Filters) (*retrieval.Result, error)

	mu        sync.Mutex
	calls     int
	questions []string
	filters   []models.Filters
}

func (m *mockRetriever) Retrieve(ctx context.Context, question string, filters models.Filters) (*retrieval.Result, error) {
	m.mu.Lock()
	m.calls++
	m.questions = append(m.questions, question)
	m.filters = append(m.filters, filters)
	m.mu.Unlock()
	if m.RetrieveFunc != nil {
		return m.RetrieveFunc(ctx, question, filters)
	}
	return &retrieval.Result{}, nil
}

type mockGenerator struct {
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	calls   int
	prompts []string
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, prompt)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return "Generated answer.", nil
}

type outcomeCounter map[Outcome]int

func (o outcomeCounter) QuestionCompleted(outcome Outcome) { o[outcome]++ }

func fenceResult() *retrieval.Result {
	return &retrieval.Result{
		Clauses: []models.Clause{
			{ClauseID: "B", Citation: "Rule 4", PlainSummary: "Fences need ARC approval", PrecedenceLevel: "3", MatchSource: models.SourceKeyword},
			{ClauseID: "A", Citation: "Art. VI", Link: "https://hoa.example/ccr", PlainSummary: "Fences may not exceed six feet", PrecedenceLevel: "1", MatchSource: models.SourceSemantic},
		},
		Candidates: 4,
	}
}

func newTestService(t *testing.T, r Retriever, g Generator, opts ...AnswerServiceOption) *AnswerService {
	t.Helper()
	s, err := NewAnswerService(append([]AnswerServiceOption{
		AnswerWithRetriever(r),
		AnswerWithGenerator(g),
	}, opts...)...)
	require.NoError(t, err)
	return s
}

func TestNewAnswerService_RequiresCollaborators(t *testing.T) {
	_, err := NewAnswerService(AnswerWithGenerator(&mockGenerator{}))
	assert.ErrorIs(t, err, ErrRetrieverRequired)

	_, err = NewAnswerService(AnswerWithRetriever(&mockRetriever{}))
	assert.ErrorIs(t, err, ErrGeneratorRequired)
}

func TestAnswer_CreatorQuestionShortCircuits(t *testing.T) {
	retriever := &mockRetriever{}
	generator := &mockGenerator{}
	outcomes := outcomeCounter{}
	s := newTestService(t, retriever, generator,
		AnswerWithPicker(PickerFunc(func(int) int { return 1 })),
		AnswerWithObserver(outcomes),
	)

	resp, err := s.Answer(context.Background(), AnswerRequest{Question: "  Who made you?  "})
	require.NoError(t, err)

	assert.Zero(t, retriever.calls)
	assert.Zero(t, generator.calls)
	assert.Equal(t, OutcomeWhimsy, resp.Outcome)
	assert.Equal(t, creatorReplies[1], resp.Markdown)
	assert.Equal(t, 1, outcomes[OutcomeWhimsy])
}

func TestAnswer_FantasyQuestionJSON(t *testing.T) {
	retriever := &mockRetriever{}
	s := newTestService(t, retriever, &mockGenerator{})

	resp, err := s.Answer(context.Background(), AnswerRequest{
		Question:     "Can I build a moat around my house?",
		OutputFormat: OutputJSON,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Record)

	assert.Zero(t, retriever.calls)
	assert.Contains(t, fantasyReplies, resp.Record.Answer)
	assert.Equal(t, WhimsyMode, resp.Record.Mode)
	assert.Equal(t, "json", resp.Record.Format)
	assert.Empty(t, resp.Record.Clauses)
}

func TestAnswer_Markdown(t *testing.T) {
	retriever := &mockRetriever{RetrieveFunc: func(context.Context, string, models.Filters) (*retrieval.Result, error) {
		return fenceResult(), nil
	}}
	generator := &mockGenerator{GenerateFunc: func(context.Context, string) (string, error) {
		return "See [Art. VI] (https://hoa.example/ccr) for details.", nil
	}}
	outcomes := outcomeCounter{}
	s := newTestService(t, retriever, generator, AnswerWithObserver(outcomes))

	filters := models.Filters{Tags: []string{"fence"}, StructureType: "fence"}
	resp, err := s.Answer(context.Background(), AnswerRequest{
		Question: "How tall can my fence be?",
		Filters:  filters,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, retriever.calls)
	assert.Equal(t, filters, retriever.filters[0])
	assert.Equal(t, 1, generator.calls)
	assert.Contains(t, generator.prompts[0], "How tall can my fence be?")
	assert.NotContains(t, generator.prompts[0], noMatchDisclaimer)

	assert.Equal(t, OutputMarkdown, resp.Format)
	assert.Nil(t, resp.Record)
	assert.True(t, strings.HasPrefix(resp.Markdown, "See Art. VI https://hoa.example/ccr for details.<br><br>"))
	// block lists the precedence 1 clause first
	assert.Less(t, strings.Index(resp.Markdown, "Art. VI</a>"), strings.Index(resp.Markdown, "Rule 4"))
	assert.Equal(t, 1, outcomes[OutcomeAnswered])
}

func TestAnswer_JSONRecord(t *testing.T) {
	retriever := &mockRetriever{RetrieveFunc: func(context.Context, string, models.Filters) (*retrieval.Result, error) {
		return fenceResult(), nil
	}}
	s := newTestService(t, retriever, &mockGenerator{})

	resp, err := s.Answer(context.Background(), AnswerRequest{
		Question:     "How tall can my fence be?",
		Mode:         "resident",
		OutputFormat: OutputJSON,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Record)

	assert.Equal(t, "How tall can my fence be?", resp.Record.Question)
	assert.Equal(t, "Generated answer.", resp.Record.Answer)
	assert.Equal(t, "resident", resp.Record.Mode)
	assert.Equal(t, "json", resp.Record.Format)
	require.Len(t, resp.Record.Clauses, 2)
	assert.Equal(t, "B", resp.Record.Clauses[0].ClauseID, "record keeps selection order")
}

func TestAnswer_NoMatchesAddsDisclaimer(t *testing.T) {
	retriever := &mockRetriever{RetrieveFunc: func(context.Context, string, models.Filters) (*retrieval.Result, error) {
		return &retrieval.Result{
			Clauses:   []models.Clause{retrieval.InjectedFallbackClause()},
			NoMatches: true,
		}, nil
	}}
	generator := &mockGenerator{}
	s := newTestService(t, retriever, generator)

	resp, err := s.Answer(context.Background(), AnswerRequest{Question: "Can I paint my mailbox purple?"})
	require.NoError(t, err)

	assert.True(t, resp.NoMatches)
	assert.Contains(t, generator.prompts[0], noMatchDisclaimer)
	assert.Contains(t, resp.Markdown, retrieval.InjectedFallbackID)
}

func TestAnswer_Errors(t *testing.T) {
	t.Run("empty question", func(t *testing.T) {
		retriever := &mockRetriever{}
		s := newTestService(t, retriever, &mockGenerator{})
		_, err := s.Answer(context.Background(), AnswerRequest{Question: "   "})
		assert.ErrorIs(t, err, ErrEmptyQuestion)
		assert.Zero(t, retriever.calls)
	})

	t.Run("retrieval failure propagates", func(t *testing.T) {
		retriever := &mockRetriever{RetrieveFunc: func(context.Context, string, models.Filters) (*retrieval.Result, error) {
			return nil, retrieval.ErrEmbedding
		}}
		generator := &mockGenerator{}
		outcomes := outcomeCounter{}
		s := newTestService(t, retriever, generator, AnswerWithObserver(outcomes))

		_, err := s.Answer(context.Background(), AnswerRequest{Question: "fence height"})
		assert.ErrorIs(t, err, retrieval.ErrEmbedding)
		assert.Zero(t, generator.calls)
		assert.Equal(t, 1, outcomes[OutcomeError])
	})

	t.Run("generation failure is not retried", func(t *testing.T) {
		retriever := &mockRetriever{RetrieveFunc: func(context.Context, string, models.Filters) (*retrieval.Result, error) {
			return fenceResult(), nil
		}}
		cause := errors.New("upstream 503")
		generator := &mockGenerator{GenerateFunc: func(context.Context, string) (string, error) {
			return "", cause
		}}
		s := newTestService(t, retriever, generator)

		_, err := s.Answer(context.Background(), AnswerRequest{Question: "fence height"})
		assert.ErrorIs(t, err, ErrGeneration)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, 1, generator.calls)
	})
}

func TestParseOutputFormat(t *testing.T) {
	assert.Equal(t, OutputJSON, ParseOutputFormat("JSON"))
	assert.Equal(t, OutputMarkdown, ParseOutputFormat("markdown"))
	assert.Equal(t, OutputMarkdown, ParseOutputFormat(""))
	assert.Equal(t, OutputMarkdown, ParseOutputFormat("xml"))
}
