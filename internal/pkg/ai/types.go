// Package ai builds completion requests from staged diffs, sends them to an
// OpenAI-compatible chat endpoint and turns the replies into candidate
// commit messages.
package ai

import (
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	// Temperature is the sampling temperature sent with every request.
	Temperature float32 = 0.7

	// MaxTokens caps the length of the completion.
	MaxTokens = 2000

	// CandidateCount is how many commit messages the model is asked for.
	CandidateCount = 10

	// DefaultTimeout is the hard ceiling for one completion exchange.
	DefaultTimeout = 30 * time.Second
)

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = openai.ChatMessageRoleSystem
	RoleUser      Role = openai.ChatMessageRoleUser
	RoleAssistant Role = openai.ChatMessageRoleAssistant
)

// Message is one chat turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body POSTed to the provider endpoint.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
}

// Choice wraps one completion alternative.
type Choice struct {
	Message Message `json:"message"`
}

// ChatResponse is a successful completion payload.
type ChatResponse struct {
	Choices []Choice `json:"choices"`
}

// APIErrorBody is the error payload most OpenAI-compatible providers return.
type APIErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
