// Package tokens provides the Token Accountant (A4): a best-effort
// token-length estimate for a composed message list, used to tighten
// history truncation beyond the orchestrator's hard message-count cap
// before the request goes out over the wire. It never overrides the
// usage numbers the LLM provider itself reports.
package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/dataloomhq/dataloom/internal/chatmodel"
)

const encodingName = "cl100k_base"

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

func encoder() (*tiktoken.Tiktoken, error) {
	encOnce.Do(func() {
		enc, encErr = tiktoken.GetEncoding(encodingName)
	})
	return enc, encErr
}

// Count estimates the token length of a single string. On encoder
// initialization failure it falls back to a conservative
// characters/4 approximation rather than failing the request - token
// accounting is advisory, never load-bearing for correctness.
func Count(s string) int {
	e, err := encoder()
	if err != nil {
		return len(s)/4 + 1
	}
	return len(e.Encode(s, nil, nil))
}

// CountMessages estimates the total token length of a message list,
// including a small per-message overhead for the role/structure
// framing real chat-completion wire formats add.
func CountMessages(messages []chatmodel.Message) int {
	const perMessageOverhead = 4

	total := 0
	for _, m := range messages {
		total += perMessageOverhead + Count(string(m.Role)) + Count(m.Content)
		for _, tc := range m.ToolCalls {
			total += Count(tc.Name) + Count(tc.Arguments)
		}
	}
	return total
}

// TrimToBudget drops the oldest non-system, non-current-turn messages
// from messages until the estimated token count is at or under budget,
// or until only the leading system message (if any) and the final
// (current user turn) message remain. It never removes more messages
// than history truncation already allows upstream - this only tightens
// further in token terms.
func TrimToBudget(messages []chatmodel.Message, budget int) []chatmodel.Message {
	if budget <= 0 || CountMessages(messages) <= budget {
		return messages
	}

	// Always keep index 0 (system prompt, if present) and the last
	// message (current user turn). Drop from the front of the
	// remaining middle section, oldest first.
	if len(messages) <= 2 {
		return messages
	}

	head := messages[:1]
	tail := messages[len(messages)-1:]
	middle := append([]chatmodel.Message{}, messages[1:len(messages)-1]...)

	for len(middle) > 0 {
		combined := append(append(append([]chatmodel.Message{}, head...), middle...), tail...)
		if CountMessages(combined) <= budget {
			return combined
		}
		middle = middle[1:]
	}

	return append(append([]chatmodel.Message{}, head...), tail...)
}
