package ai

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicommit/aicommit/internal/pkg/config"
	"github.com/aicommit/aicommit/internal/pkg/git"
	"github.com/aicommit/aicommit/internal/pkg/message"
)

var testProvider = config.ProviderConfig{
	Name:     "deepseek",
	APIKey:   "sk-test",
	Endpoint: "https://api.deepseek.com/chat/completions",
	Model:    "deepseek-chat",
}

func TestBuildChatRequest_Shape(t *testing.T) {
	diff := git.Diff{Text: "diff --git a/x b/x\n+hello\n", Files: []string{"x"}}
	req := BuildChatRequest(diff, testProvider)

	assert.Equal(t, "deepseek-chat", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, RoleSystem, req.Messages[0].Role)
	assert.Equal(t, SystemPrompt, req.Messages[0].Content)
	assert.Equal(t, RoleUser, req.Messages[1].Role)
	assert.Equal(t, float32(0.7), req.Temperature)
	assert.Equal(t, 2000, req.MaxTokens)
	assert.False(t, req.Stream)
}

func TestBuildUserPrompt_Layout(t *testing.T) {
	diff := "diff --git a/x b/x\n+hello"
	prompt := BuildUserPrompt(diff)

	assert.True(t, strings.HasPrefix(prompt,
		"Your task is to generate exactly 10 Conventional Commits style commit messages based on the provided git diff.\n## Requirements:\n"))
	assert.Contains(t, prompt, "Here is the git diff to analyze:\n"+diff+"\n\nProvide only the commit messages without any additional text.")
	assert.True(t, strings.HasSuffix(prompt, "Provide only the commit messages without any additional text."))
	assert.Contains(t, prompt, "- Subject line: Max 72 characters, imperative mood, no period")
	assert.NotContains(t, prompt, "{{")

	for _, ct := range message.CommitTypes {
		assert.Contains(t, prompt, "  - "+ct.Name+": '"+ct.Description+"'")
	}
}

func TestBuildChatRequest_SerializedPolicy(t *testing.T) {
	req := BuildChatRequest(git.Diff{Text: "x"}, testProvider)
	data, err := json.Marshal(req)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"stream":false`)
	assert.Contains(t, s, `"temperature":0.7`)
	assert.Contains(t, s, `"max_tokens":2000`)
	assert.Contains(t, s, `"role":"system"`)
	assert.Contains(t, s, `"role":"user"`)
}

func TestBuildUserPrompt_LargeDiff(t *testing.T) {
	diff := strings.Repeat("+line with <html> & \"quotes\"\n", 5000)
	require.Greater(t, len(diff), 100000)

	prompt := BuildUserPrompt(diff)
	assert.Contains(t, prompt, diff)
}

// TestProperty_PromptPurity verifies that building a request twice from the
// same inputs yields byte-identical JSON.
func TestProperty_PromptPurity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(42)

	properties := gopter.NewProperties(parameters)

	properties.Property("same diff and provider serialize identically", prop.ForAll(
		func(diffText, model string) bool {
			p := testProvider
			p.Model = model
			d := git.Diff{Text: diffText}

			a, errA := json.Marshal(BuildChatRequest(d, p))
			b, errB := json.Marshal(BuildChatRequest(d, p))
			return errA == nil && errB == nil && string(a) == string(b)
		},
		gen.AnyString(),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}

// TestProperty_DiffContainment verifies the diff appears verbatim as a
// contiguous substring of the user message.
func TestProperty_DiffContainment(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(42)

	properties := gopter.NewProperties(parameters)

	properties.Property("user message contains the diff unmodified", prop.ForAll(
		func(diffText string) bool {
			req := BuildChatRequest(git.Diff{Text: diffText}, testProvider)
			return strings.Contains(req.Messages[1].Content, "Here is the git diff to analyze:\n"+diffText+"\n\nProvide only")
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
