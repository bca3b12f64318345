// Package persona assembles the static system prompt from three plain-text
// collaborators: the business summary, the role instructions, and a
// swappable personality style. Missing files fall back to built-in defaults
// so the agent can always start.
package persona

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	logx "github.com/eduzen-bot/server/pkg/logger"
)

//go:embed template/persona_prompt.txt
var personaPromptTemplate string

// Fallbacks used when the corresponding text file is absent.
const (
	defaultBusinessSummary = "EduZen is an educational services agency focused on connecting students with teachers and educational opportunities. Students pay nothing; teachers only pay when they get their first paycheck."
	defaultInstructions    = "Provide information about EduZen's services, help students register for teacher matching, assist educational program providers with advertising inquiries, answer questions about pricing and processes, collect leads for appropriate services, and record feedback for questions you cannot answer."
	defaultStyle           = "Be friendly, professional, and helpful. Use clear, simple language. Always mention the unique value proposition (pay only when successful) and emphasize the community-driven aspect."
)

type Config struct {
	Dir         string `envconfig:"PERSONA_DIR" default:"persona"`
	Personality string `envconfig:"PERSONA_STYLE" default:"formal"`
}

// Persona holds the loaded prompt inputs. Loaded once at construction,
// static thereafter.
type Persona struct {
	BusinessSummary string
	Instructions    string
	Style           string
	Personality     string
}

// Load reads the persona text files from cfg.Dir. Every missing or unreadable
// file is replaced by its default.
func Load(cfg Config) *Persona {
	return &Persona{
		BusinessSummary: readOrDefault(filepath.Join(cfg.Dir, "business_summary.txt"), defaultBusinessSummary),
		Instructions:    readOrDefault(filepath.Join(cfg.Dir, "instructions.txt"), defaultInstructions),
		Style:           readOrDefault(filepath.Join(cfg.Dir, "personalities", cfg.Personality+".txt"), defaultStyle),
		Personality:     cfg.Personality,
	}
}

func readOrDefault(path, fallback string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		logx.Debug().Str("path", path).Msg("persona file not readable, using default")
		return fallback
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return fallback
	}
	return s
}

// System renders the system persona via the Eino prompt component so prompt
// callbacks fire.
func (p *Persona) System(ctx context.Context) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(personaPromptTemplate),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"BusinessSummary": p.BusinessSummary,
		"Instructions":    p.Instructions,
		"Style":           p.Style,
	})
	if err != nil {
		return "", fmt.Errorf("persona prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("persona prompt render: empty result")
	}
	return msgs[0].Content, nil
}
