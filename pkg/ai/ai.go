package ai

import (
	"context"

	"github.com/openai/openai-go"
)

type Completion interface {
	ParamsCompletions(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletionMessage, error)
}
