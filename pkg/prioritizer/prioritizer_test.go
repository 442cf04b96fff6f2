package prioritizer

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bert143-oss/email-scribe-connect/pkg/types"
)

func createTestLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

type fakeCompletion struct {
	calls  int
	params openai.ChatCompletionNewParams
	reply  string
	err    error
}

func (f *fakeCompletion) ParamsCompletions(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletionMessage, error) {
	f.calls++
	f.params = params
	if f.err != nil {
		return openai.ChatCompletionMessage{}, f.err
	}
	return openai.ChatCompletionMessage{Role: "assistant", Content: f.reply}, nil
}

func TestPrioritize(t *testing.T) {
	fake := &fakeCompletion{
		reply: "Here you go:\n" +
			`[{"id":"e3","priority":"high","reasoning":"deadline today"},` +
			`{"id":"e1","priority":"low","reasoning":"newsletter"}]` +
			"\nLet me know if you need anything else.",
	}
	s := NewService(createTestLogger(), fake, Config{Model: "test-model", APIKey: "key"})

	emails := []types.Email{
		{ID: "e1", Subject: "Weekly digest"},
		{ID: "e2", Subject: "Lunch?"},
		{ID: "e3", Subject: "Contract deadline"},
	}

	prioritized, err := s.Prioritize(context.Background(), emails)
	require.NoError(t, err)
	require.Len(t, prioritized, 3)

	assert.Equal(t, "e3", prioritized[0].ID)
	assert.Equal(t, types.PriorityHigh, prioritized[0].Priority)
	assert.Equal(t, "deadline today", prioritized[0].Reasoning)
	assert.Equal(t, "https://mail.google.com/mail/u/0/#inbox/e3", prioritized[0].OriginURL)

	assert.Equal(t, "e2", prioritized[1].ID)
	assert.Equal(t, types.PriorityMedium, prioritized[1].Priority)
	assert.Equal(t, "No analysis available", prioritized[1].Reasoning)

	assert.Equal(t, "e1", prioritized[2].ID)
	assert.Equal(t, types.PriorityLow, prioritized[2].Priority)

	require.Equal(t, 1, fake.calls)
	assert.Equal(t, "test-model", fake.params.Model)
	assert.Equal(t, 0.2, fake.params.Temperature.Value)
	assert.Equal(t, int64(4096), fake.params.MaxTokens.Value)
	assert.Len(t, fake.params.Messages, 2)
}

func TestPrioritizeMergesBeyondBatchLimit(t *testing.T) {
	// the classifier only ever sees the capped batch, but every input
	// email must still come back in the merged result
	fake := &fakeCompletion{
		reply: `[{"id":"e1","priority":"low","reasoning":"newsletter"},` +
			`{"id":"e5","priority":"high","reasoning":"outage report"}]`,
	}
	s := NewService(createTestLogger(), fake, Config{Model: "test-model", APIKey: "key", BatchLimit: 3})

	emails := []types.Email{
		{ID: "e1"}, {ID: "e2"}, {ID: "e3"}, {ID: "e4"}, {ID: "e5"},
	}

	prioritized, err := s.Prioritize(context.Background(), emails)
	require.NoError(t, err)
	require.Len(t, prioritized, 5, "pre-truncation batch drives output cardinality")

	user := fake.params.Messages[1].OfUser.Content.OfString.Value
	for _, id := range []string{"e1", "e2", "e3"} {
		assert.Contains(t, user, `"`+id+`"`)
	}
	for _, id := range []string{"e4", "e5"} {
		assert.NotContains(t, user, `"`+id+`"`, "entry beyond the cap leaked into the prompt")
	}

	assert.Equal(t, "e5", prioritized[0].ID)
	assert.Equal(t, types.PriorityHigh, prioritized[0].Priority)
	for _, p := range prioritized[1:4] {
		assert.Equal(t, types.PriorityMedium, p.Priority)
		assert.Equal(t, "No analysis available", p.Reasoning)
	}
	assert.Equal(t, "e1", prioritized[4].ID)
	assert.Equal(t, types.PriorityLow, prioritized[4].Priority)
}

func TestPrioritizeNotConfigured(t *testing.T) {
	fake := &fakeCompletion{reply: "[]"}
	s := NewService(createTestLogger(), fake, Config{Model: "test-model"})

	_, err := s.Prioritize(context.Background(), []types.Email{{ID: "e1"}})
	require.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, 0, fake.calls, "no completion call without a credential")
}

func TestPrioritizeMalformedReply(t *testing.T) {
	fake := &fakeCompletion{reply: "I am unable to classify these emails."}
	s := NewService(createTestLogger(), fake, Config{Model: "test-model", APIKey: "key"})

	_, err := s.Prioritize(context.Background(), []types.Email{{ID: "e1"}})
	require.Error(t, err)

	var malformed *MalformedReplyError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, fake.reply, malformed.Raw)
}

func TestPrioritizeCompletionError(t *testing.T) {
	wantErr := errors.New("completion exploded")
	fake := &fakeCompletion{err: wantErr}
	s := NewService(createTestLogger(), fake, Config{Model: "test-model", APIKey: "key"})

	_, err := s.Prioritize(context.Background(), []types.Email{{ID: "e1"}})
	require.ErrorIs(t, err, wantErr)
}

func TestMergeAndRankFallbacks(t *testing.T) {
	emails := []types.Email{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	out := mergeAndRank(emails, nil)
	require.Len(t, out, 3)
	for i, p := range out {
		assert.Equal(t, emails[i].ID, p.ID)
		assert.Equal(t, types.PriorityMedium, p.Priority)
		assert.Equal(t, "No analysis available", p.Reasoning)
		assert.Equal(t, "https://mail.google.com/mail/u/0/#inbox/"+p.ID, p.OriginURL)
	}
}

func TestMergeAndRankStableOrder(t *testing.T) {
	emails := []types.Email{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	results := []ClassificationResult{
		{ID: "b", Priority: "high", Reasoning: "x"},
		{ID: "d", Priority: "high", Reasoning: "y"},
		{ID: "c", Priority: "low", Reasoning: "z"},
	}

	out := mergeAndRank(emails, results)
	require.Len(t, out, 4)

	var ids []string
	for _, p := range out {
		ids = append(ids, p.ID)
	}
	// highs keep input order, then the medium fallback, then low
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids)
}

func TestMergeAndRankUnrecognizedPriority(t *testing.T) {
	emails := []types.Email{{ID: "a"}}
	results := []ClassificationResult{
		{ID: "a", Priority: "urgent", Reasoning: "screaming subject line"},
	}

	out := mergeAndRank(emails, results)
	require.Len(t, out, 1)
	assert.Equal(t, types.PriorityMedium, out[0].Priority)
	assert.Equal(t, "screaming subject line", out[0].Reasoning)
}

func TestMergeAndRankDuplicateAndUnknownIds(t *testing.T) {
	emails := []types.Email{{ID: "a"}, {ID: "b"}}
	results := []ClassificationResult{
		{ID: "a", Priority: "low", Reasoning: "first"},
		{ID: "a", Priority: "high", Reasoning: "second"},
		{ID: "ghost", Priority: "high", Reasoning: "not in the batch"},
	}

	out := mergeAndRank(emails, results)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, types.PriorityHigh, out[0].Priority)
	assert.Equal(t, "second", out[0].Reasoning)
	assert.Equal(t, "b", out[1].ID)
	assert.Equal(t, types.PriorityMedium, out[1].Priority)
}
