// Package prompts renders the reasoning-stage instruction through the Eino
// prompt component so prompt callbacks fire on every render.
package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/reason_prompt.txt
var reasonPromptTemplate string

// RenderReasonInstruction produces the step-by-step thinking instruction for
// the given user query.
func RenderReasonInstruction(ctx context.Context, query string) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.UserMessage(reasonPromptTemplate),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"query": query,
	})
	if err != nil {
		return "", fmt.Errorf("reason prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("reason prompt render: empty result")
	}
	return msgs[0].Content, nil
}
