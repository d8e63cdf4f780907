package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MaxContentLength bounds a single chat message, in characters
	MaxContentLength = 10000
	// MaxTitleLength bounds a conversation title, in characters
	MaxTitleLength = 200
)

// ChatRequestValidator validates chat-related requests
type ChatRequestValidator struct{}

// NewChatRequestValidator creates a new ChatRequestValidator
func NewChatRequestValidator() *ChatRequestValidator {
	return &ChatRequestValidator{}
}

// ValidateContent validates message content after trimming whitespace
func (v *ChatRequestValidator) ValidateContent(content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return errors.New("content cannot be empty")
	}
	if n := utf8.RuneCountInString(content); n > MaxContentLength {
		return fmt.Errorf("content must be at most %d characters long, got %d", MaxContentLength, n)
	}
	return nil
}

// ValidateTitle validates a conversation title. Empty titles are allowed on creation.
func (v *ChatRequestValidator) ValidateTitle(title string) error {
	if n := utf8.RuneCountInString(strings.TrimSpace(title)); n > MaxTitleLength {
		return fmt.Errorf("title must be at most %d characters long, got %d", MaxTitleLength, n)
	}
	return nil
}

// ValidateRename validates a rename request, which needs a non-empty title
func (v *ChatRequestValidator) ValidateRename(title string) error {
	if strings.TrimSpace(title) == "" {
		return errors.New("title cannot be empty")
	}
	return v.ValidateTitle(title)
}
