package model

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
)

// ReasoningPrefix tags assistant messages that carry an intermediate
// reasoning trace rather than a user-facing answer.
const ReasoningPrefix = "THINKING: "

// ApologyFormat is the fixed user-facing reply when a model call or tool
// dispatch fails. The failed turn is still recorded in history.
const ApologyFormat = "I apologize, but I encountered an error: %v. Please try again or contact our support team."

// FallbackReply is returned when a run completes without producing any
// non-reasoning assistant message.
const FallbackReply = "I apologize, but I encountered an issue processing your request. Please try again."

// Apology renders the fixed-format apologetic reply for err.
func Apology(err error) string {
	return fmt.Sprintf(ApologyFormat, err)
}

// TagReasoning marks content as a reasoning trace.
func TagReasoning(content string) string {
	return ReasoningPrefix + content
}

// IsReasoning reports whether msg is a reasoning-tagged assistant message.
func IsReasoning(msg *schema.Message) bool {
	return msg != nil && msg.Role == schema.Assistant && strings.HasPrefix(msg.Content, ReasoningPrefix)
}

// StripReasoning removes the reasoning tag from content.
func StripReasoning(content string) string {
	return strings.TrimPrefix(content, ReasoningPrefix)
}

// QueryInput represents the input for processing user queries.
type QueryInput struct {
	ConversationID string `json:"conversation_id"`
	Query          string `json:"query"`
}

// ChatResult is one completed turn of the staged agent: the user-facing
// reply plus the ordered reasoning traces encountered along the way. The
// engine never folds reasoning into the reply; presentation layers may.
type ChatResult struct {
	Reply          string   `json:"reply"`
	ReasoningSteps []string `json:"reasoning_steps,omitempty"`
}

// ChatState stores per-invocation state for the staged agent graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Eino serializes access to state within these handlers, so no additional
//     mutex/atomic is required as long as you never touch it outside handlers.
type ChatState struct {
	ConversationID       string
	History              []*schema.Message // mutated only inside Eino state handlers
	ToolCallCount        int               // maintained in handlers (reset/increment)
	ToolCallLimitReached bool              // set when tool call limit is exceeded
	ToolCallIDSeq        int               // local sequence to synthesize tool_call_id when provider omits

	// Accumulated total LLM cost (USD) across model invocations for this query
	TotalCostUSD float64
}
