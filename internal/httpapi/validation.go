package httpapi

import (
	"fmt"
	"strings"

	"github.com/dataloomhq/dataloom/internal/chatmodel"
)

// validateChatRequest enforces the message/history bounds the HTTP
// Surface owns before anything reaches the orchestrator.
func (s *Server) validateChatRequest(req chatRequest) error {
	if strings.TrimSpace(req.Message) == "" {
		return fmt.Errorf("message must be a non-empty string")
	}
	if len(req.Message) > s.MaxMessageLen {
		return fmt.Errorf("message exceeds maximum length of %d characters", s.MaxMessageLen)
	}
	if len(req.ChatHistory) > s.MaxHistoryLen {
		return fmt.Errorf("chatHistory exceeds maximum length of %d entries", s.MaxHistoryLen)
	}
	for i, entry := range req.ChatHistory {
		if entry.Role != chatmodel.RoleUser && entry.Role != chatmodel.RoleAssistant {
			return fmt.Errorf("chatHistory[%d]: role must be %q or %q", i, chatmodel.RoleUser, chatmodel.RoleAssistant)
		}
		if strings.TrimSpace(entry.Content) == "" {
			return fmt.Errorf("chatHistory[%d]: content must be a non-empty string", i)
		}
	}
	return nil
}

// validateFilename rejects anything that isn't a bare filename, since
// uploaded databases live directly under UploadsDir and are referenced
// only by name - a path separator or ".." would let a caller escape it.
func validateFilename(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename must be a non-empty string")
	}
	if strings.ContainsAny(filename, "/\\") {
		return fmt.Errorf("filename must not contain path separators")
	}
	if strings.Contains(filename, "..") {
		return fmt.Errorf("filename must not contain '..'")
	}
	return nil
}
