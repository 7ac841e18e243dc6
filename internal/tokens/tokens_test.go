package tokens

import (
	"strings"
	"testing"

	"github.com/dataloomhq/dataloom/internal/chatmodel"
)

func TestCount_NonEmpty(t *testing.T) {
	if n := Count("hello world"); n <= 0 {
		t.Errorf("Count(%q) = %d, want > 0", "hello world", n)
	}
}

func TestCountMessages_GrowsWithContent(t *testing.T) {
	short := []chatmodel.Message{{Role: chatmodel.RoleUser, Content: "hi"}}
	long := []chatmodel.Message{{Role: chatmodel.RoleUser, Content: strings.Repeat("word ", 200)}}

	if CountMessages(long) <= CountMessages(short) {
		t.Error("CountMessages did not grow with longer content")
	}
}

func TestTrimToBudget_NoOpUnderBudget(t *testing.T) {
	messages := []chatmodel.Message{
		{Role: chatmodel.RoleSystem, Content: "system"},
		{Role: chatmodel.RoleUser, Content: "hi"},
	}

	got := TrimToBudget(messages, 100000)
	if len(got) != len(messages) {
		t.Fatalf("TrimToBudget trimmed under budget: got %d messages, want %d", len(got), len(messages))
	}
}

func TestTrimToBudget_PreservesSystemAndCurrentTurn(t *testing.T) {
	messages := []chatmodel.Message{
		{Role: chatmodel.RoleSystem, Content: "system prompt"},
	}
	for i := 0; i < 50; i++ {
		messages = append(messages, chatmodel.Message{
			Role:    chatmodel.RoleUser,
			Content: strings.Repeat("filler ", 100),
		})
	}
	messages = append(messages, chatmodel.Message{Role: chatmodel.RoleUser, Content: "current turn question"})

	got := TrimToBudget(messages, 50)

	if len(got) < 2 {
		t.Fatalf("TrimToBudget dropped below head+tail: got %d messages", len(got))
	}
	if got[0].Content != "system prompt" {
		t.Errorf("TrimToBudget dropped the system message: got[0] = %q", got[0].Content)
	}
	if got[len(got)-1].Content != "current turn question" {
		t.Errorf("TrimToBudget dropped the current turn: got[last] = %q", got[len(got)-1].Content)
	}
}

func TestTrimToBudget_NeverExceedsOriginalLength(t *testing.T) {
	messages := []chatmodel.Message{
		{Role: chatmodel.RoleSystem, Content: "system"},
		{Role: chatmodel.RoleUser, Content: "turn one"},
		{Role: chatmodel.RoleAssistant, Content: "reply one"},
		{Role: chatmodel.RoleUser, Content: "current turn"},
	}

	got := TrimToBudget(messages, 1)
	if len(got) > len(messages) {
		t.Fatalf("TrimToBudget grew the message list: got %d, want <= %d", len(got), len(messages))
	}
}
