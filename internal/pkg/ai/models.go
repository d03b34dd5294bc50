package ai

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/aicommit/aicommit/internal/pkg/config"
	apperrors "github.com/aicommit/aicommit/internal/pkg/errors"
)

// BaseURL strips the chat completions path from endpoint so that other
// OpenAI-compatible routes can be addressed.
func BaseURL(endpoint string) string {
	base := strings.TrimRight(endpoint, "/")
	base = strings.TrimSuffix(base, "/chat/completions")
	return strings.TrimRight(base, "/")
}

// ListModels returns the model ids the provider advertises at <base>/models,
// sorted by id.
func ListModels(ctx context.Context, provider config.ProviderConfig, hc *http.Client) ([]string, error) {
	cfg := openai.DefaultConfig(provider.APIKey)
	cfg.BaseURL = BaseURL(provider.Endpoint)
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	cfg.HTTPClient = hc

	list, err := openai.NewClientWithConfig(cfg).ListModels(ctx)
	if err != nil {
		return nil, wrapModelsError(err)
	}

	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	sort.Strings(ids)
	return ids, nil
}

func wrapModelsError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		errType := apiErr.Type
		if errType == "" {
			errType = "unknown"
		}
		return apperrors.Wrap(&ProviderError{StatusCode: apiErr.HTTPStatusCode, ErrorType: errType, Message: apiErr.Message},
			apperrors.ErrProviderRejected, "provider rejected the model listing")
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return apperrors.Wrap(&HTTPError{StatusCode: reqErr.HTTPStatusCode, Body: string(reqErr.Body)},
			apperrors.ErrHTTPStatus, "model listing failed")
	}
	if isTimeout(err) {
		return apperrors.NewTimeoutError(err)
	}
	return apperrors.NewTransportError("list models", err)
}
