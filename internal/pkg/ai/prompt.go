package ai

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/aicommit/aicommit/internal/pkg/config"
	"github.com/aicommit/aicommit/internal/pkg/git"
	"github.com/aicommit/aicommit/internal/pkg/message"
)

// SystemPrompt is sent as the first message of every request.
const SystemPrompt = "You are an expert Git commit message writer specializing in analyzing code changes and creating precise, meaningful commit messages."

// trailer closes the user message after the diff.
const trailer = "\n\nProvide only the commit messages without any additional text."

//go:embed prompts/rules.md
var rulesTemplate string

// rulesBlock is rendered once at init; BuildChatRequest only concatenates.
var rulesBlock = mustRenderRules(rulesTemplate)

type rulesData struct {
	Types            []message.CommitType
	MaxSubjectLength int
}

func mustRenderRules(src string) string {
	tmpl := template.Must(template.New("rules").Parse(src))
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, rulesData{
		Types:            message.CommitTypes,
		MaxSubjectLength: message.MaxSubjectLength,
	}); err != nil {
		panic(fmt.Sprintf("ai: render rules template: %v", err))
	}
	return strings.TrimRight(buf.String(), "\n")
}

// instruction is the opening line of the user message.
func instruction(count int) string {
	plural := ""
	if count > 1 {
		plural = "s"
	}
	return fmt.Sprintf("Your task is to generate exactly %d Conventional Commits style commit message%s based on the provided git diff.", count, plural)
}

// BuildUserPrompt returns the user message for diffText. The diff is
// embedded verbatim.
func BuildUserPrompt(diffText string) string {
	var sb strings.Builder
	sb.Grow(len(diffText) + len(rulesBlock) + 256)
	sb.WriteString(instruction(CandidateCount))
	sb.WriteString("\n")
	sb.WriteString(rulesBlock)
	sb.WriteString("\n")
	sb.WriteString(diffText)
	sb.WriteString(trailer)
	return sb.String()
}

// BuildChatRequest assembles the request for diff addressed to provider's
// model. It is deterministic in its inputs.
func BuildChatRequest(diff git.Diff, provider config.ProviderConfig) ChatRequest {
	return ChatRequest{
		Model: provider.Model,
		Messages: []Message{
			{Role: RoleSystem, Content: SystemPrompt},
			{Role: RoleUser, Content: BuildUserPrompt(diff.Text)},
		},
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
		Stream:      false,
	}
}
