package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/aicommit/aicommit/internal/pkg/errors"
)

// ErrEmptyCompletion is returned when a successful reply carries no choices.
var ErrEmptyCompletion = errors.New("no content in response")

// ProviderError is a structured error returned by the provider.
type ProviderError struct {
	StatusCode int
	ErrorType  string
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("API Error (%s): %s", e.ErrorType, e.Message)
}

// HTTPError is a failed reply whose body is not a structured error.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP Error %d: %s", e.StatusCode, e.Body)
}

// MalformedResponseError is a successful status whose body could not be decoded.
type MalformedResponseError struct {
	Cause error
	Body  string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("could not decode completion response: %v\nraw body: %s", e.Cause, e.Body)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Cause
}

// Wire shapes with pointer fields so that absent keys are told apart from
// empty values.
type (
	wireResponse struct {
		Choices *[]wireChoice `json:"choices"`
	}
	wireChoice struct {
		Message *wireMessage `json:"message"`
	}
	wireMessage struct {
		Role    Role    `json:"role"`
		Content *string `json:"content"`
	}
	wireError struct {
		Error *struct {
			Message *string `json:"message"`
			Type    *string `json:"type"`
		} `json:"error"`
	}
)

// decodeResponse parses a success body. Missing choices, messages or
// content are decode errors.
func decodeResponse(body string) (*ChatResponse, error) {
	var w wireResponse
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		return nil, err
	}
	if w.Choices == nil {
		return nil, errors.New("missing field `choices`")
	}
	resp := &ChatResponse{Choices: make([]Choice, 0, len(*w.Choices))}
	for i, c := range *w.Choices {
		if c.Message == nil {
			return nil, fmt.Errorf("choices[%d]: missing field `message`", i)
		}
		if c.Message.Content == nil {
			return nil, fmt.Errorf("choices[%d].message: missing field `content`", i)
		}
		resp.Choices = append(resp.Choices, Choice{Message: Message{Role: c.Message.Role, Content: *c.Message.Content}})
	}
	return resp, nil
}

// decodeError parses a structured provider error; ok is false when body
// has another shape.
func decodeError(body string) (errType, msg string, ok bool) {
	var w wireError
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		return "", "", false
	}
	if w.Error == nil || w.Error.Message == nil || w.Error.Type == nil {
		return "", "", false
	}
	return *w.Error.Type, *w.Error.Message, true
}

// Reconcile turns a raw status and body into candidate messages or a typed
// error. It never touches the network or filesystem.
//
// The returned error is an *apperrors.AppError whose Cause is one of
// *MalformedResponseError, ErrEmptyCompletion, *ProviderError or *HTTPError.
func Reconcile(status int, body string) ([]string, error) {
	if status >= 200 && status < 300 {
		resp, err := decodeResponse(body)
		if err != nil {
			return nil, apperrors.Wrap(&MalformedResponseError{Cause: err, Body: body},
				apperrors.ErrMalformedSuccess, "provider returned an unreadable response")
		}
		if len(resp.Choices) == 0 {
			return nil, apperrors.Wrap(ErrEmptyCompletion, apperrors.ErrEmptyCompletion,
				"provider returned no completion").
				WithSuggestion("Try again, or switch model with --model")
		}
		return ExtractCandidates(resp.Choices[0].Message.Content), nil
	}

	if errType, msg, ok := decodeError(body); ok {
		return nil, apperrors.Wrap(&ProviderError{StatusCode: status, ErrorType: errType, Message: msg},
			apperrors.ErrProviderRejected, "provider rejected the request").
			WithContext("status", status)
	}

	return nil, apperrors.Wrap(&HTTPError{StatusCode: status, Body: body},
		apperrors.ErrHTTPStatus, "provider request failed").
		WithContext("status", status)
}

// ExtractCandidates splits content into lines, trims each line and drops
// the ones left empty. Order is preserved.
func ExtractCandidates(content string) []string {
	lines := strings.Split(content, "\n")
	candidates := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			candidates = append(candidates, trimmed)
		}
	}
	return candidates
}
