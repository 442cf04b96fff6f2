package prioritizer

import (
	"context"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/bert143-oss/email-scribe-connect/pkg/ai"
	"github.com/bert143-oss/email-scribe-connect/pkg/types"
)

const (
	defaultBatchLimit = 100
	defaultBodyLimit  = 200

	fallbackReasoning = "No analysis available"
	originURLBase     = "https://mail.google.com/mail/u/0/#inbox/"
)

var ErrNotConfigured = errors.New("classification credential is not configured")

type Config struct {
	Model      string
	APIKey     string
	BatchLimit int
	BodyLimit  int
}

type Service struct {
	logger     *log.Logger
	completion ai.Completion
	cfg        Config
}

func NewService(logger *log.Logger, completion ai.Completion, cfg Config) *Service {
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = defaultBatchLimit
	}
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = defaultBodyLimit
	}
	return &Service{
		logger:     logger,
		completion: completion,
		cfg:        cfg,
	}
}

// Prioritize classifies the batch in one completion call and returns every
// input email annotated and sorted by priority tier. Emails beyond the
// batch limit still come back, they are just not sent for classification.
func (s *Service) Prioritize(ctx context.Context, emails []types.Email) ([]types.PrioritizedEmail, error) {
	if s.cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	system, user, err := s.buildPrompt(emails)
	if err != nil {
		return nil, errors.Wrap(err, "build classification prompt")
	}

	message, err := s.completion.ParamsCompletions(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model:       s.cfg.Model,
		Temperature: param.NewOpt(0.2),
		MaxTokens:   param.NewOpt(int64(4096)),
	})
	if err != nil {
		return nil, err
	}

	results, err := parseReply(message.Content)
	if err != nil {
		s.logger.Error("classification reply unparseable", "reply_chars", len(message.Content))
		return nil, err
	}

	return mergeAndRank(emails, results), nil
}

// mergeAndRank joins classification results onto the authoritative email
// set. Every input email yields exactly one output entry; unmatched emails
// get the medium fallback, an unrecognized priority value falls back the
// same way. Ties keep their input order.
func mergeAndRank(emails []types.Email, results []ClassificationResult) []types.PrioritizedEmail {
	byID := lo.KeyBy(results, func(r ClassificationResult) string { return r.ID })

	out := make([]types.PrioritizedEmail, 0, len(emails))
	for _, e := range emails {
		p := types.PrioritizedEmail{
			Email:     e,
			Priority:  types.PriorityMedium,
			Reasoning: fallbackReasoning,
			OriginURL: originURLBase + e.ID,
		}
		if r, ok := byID[e.ID]; ok {
			if pr := types.Priority(r.Priority); pr.Valid() {
				p.Priority = pr
			}
			p.Reasoning = r.Reasoning
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.Weight() > out[j].Priority.Weight()
	})
	return out
}
