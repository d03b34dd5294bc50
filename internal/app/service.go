// Package app contains the application layer with business orchestration logic.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aicommit/aicommit/internal/pkg/ai"
	"github.com/aicommit/aicommit/internal/pkg/clipboard"
	"github.com/aicommit/aicommit/internal/pkg/config"
	apperrors "github.com/aicommit/aicommit/internal/pkg/errors"
	"github.com/aicommit/aicommit/internal/pkg/git"
	"github.com/aicommit/aicommit/internal/pkg/ui"
)

// MsgNoCandidates is shown when the provider answered without usable lines.
const MsgNoCandidates = "No commit messages generated."

// Completer sends one completion request and returns the raw reply.
type Completer interface {
	Send(ctx context.Context, req ai.ChatRequest, provider config.ProviderConfig) (*ai.RawResult, error)
}

// SuggestOptions contains options for one run.
type SuggestOptions struct {
	// Retries is how many times a transport failure is retried. Zero
	// disables retrying.
	Retries int
	// NoCopy leaves the clipboard untouched.
	NoCopy bool
}

// Result describes what a run produced.
type Result struct {
	RunID      string
	Files      []string
	Candidates []string
	Selected   string
	Copied     bool
}

// SuggestService runs the suggest pipeline: check credentials, read the
// staged diff, ask the provider, let the user pick and copy the pick.
type SuggestService struct {
	gitClient git.Client
	completer Completer
	uiManager ui.Manager
	clipboard clipboard.Writer
	provider  config.ProviderConfig
	hook      ai.ProviderHook
	retry     apperrors.RetryConfig
	logger    *apperrors.Logger
	runID     string
}

// NewRunLogger returns a logger tagged with a fresh run id.
func NewRunLogger() (*apperrors.Logger, string) {
	id := uuid.NewString()
	return apperrors.Default().With("run_id", id), id
}

// NewSuggestService creates a new SuggestService for provider. The
// provider's hook, if any, is attached automatically.
func NewSuggestService(
	gitClient git.Client,
	completer Completer,
	uiManager ui.Manager,
	clip clipboard.Writer,
	provider config.ProviderConfig,
	logger *apperrors.Logger,
	runID string,
) *SuggestService {
	if logger == nil {
		logger = apperrors.Default()
	}
	return &SuggestService{
		gitClient: gitClient,
		completer: completer,
		uiManager: uiManager,
		clipboard: clip,
		provider:  provider,
		hook:      ai.HookFor(provider, logger),
		retry:     apperrors.DefaultRetryConfig(),
		logger:    logger,
		runID:     runID,
	}
}

// WithHook replaces the provider hook. A nil hook disables it.
func (s *SuggestService) WithHook(hook ai.ProviderHook) *SuggestService {
	s.hook = hook
	return s
}

// WithRetryConfig replaces the retry policy base. Options.Retries still
// decides the number of attempts.
func (s *SuggestService) WithRetryConfig(cfg apperrors.RetryConfig) *SuggestService {
	s.retry = cfg
	return s
}

// Run executes the pipeline once. Skipping the selection is not an error,
// nor is a failed clipboard write.
func (s *SuggestService) Run(ctx context.Context, opts SuggestOptions) (*Result, error) {
	result := &Result{RunID: s.runID}

	// Step 1: credential, before anything touches the network
	if !s.provider.HasUsableCredential() {
		return result, apperrors.NewCredentialMissingError(s.provider.Name)
	}

	// Step 2: repository and staged changes
	inside, err := s.gitClient.IsInsideWorkTree(ctx)
	if err != nil {
		return result, err
	}
	if !inside {
		return result, apperrors.NewNotARepositoryError()
	}

	diff, err := s.gitClient.StagedDiff(ctx)
	if err != nil {
		return result, err
	}
	if diff.Empty() {
		return result, apperrors.NewNoStagedChangesError()
	}
	result.Files = diff.Files
	s.uiManager.ShowFiles(diff.Summary())
	additions, deletions := diff.LineCounts()
	s.logger.Debug("staged diff: files=%d bytes=%d +%d/-%d", len(diff.Files), len(diff.Text), additions, deletions)

	// Step 3: request
	req := ai.BuildChatRequest(diff, s.provider)

	if s.hook != nil {
		if err := s.hook(ctx, s.provider); err != nil {
			return result, err
		}
	}

	raw, err := s.send(ctx, req, opts)
	if err != nil {
		return result, err
	}

	// Step 4: reconcile
	candidates, err := ai.Reconcile(raw.StatusCode, raw.Body)
	if err != nil {
		return result, err
	}
	result.Candidates = candidates
	s.logger.Debug("received %d candidates", len(candidates))

	if len(candidates) == 0 {
		s.uiManager.ShowWarning(MsgNoCandidates)
		return result, nil
	}

	// Step 5: select and copy
	choice, ok, err := s.uiManager.Select(candidates)
	if err != nil {
		return result, err
	}
	if !ok {
		return result, nil
	}
	result.Selected = choice

	if opts.NoCopy {
		s.uiManager.ShowSuccess(fmt.Sprintf("Commit with: git commit -m %q", choice))
		return result, nil
	}
	if err := s.clipboard.Write(choice); err != nil {
		s.logger.Debug("clipboard write failed: %v", err)
		s.uiManager.ShowWarning(apperrors.FormatError(err))
		return result, nil
	}
	result.Copied = true
	s.uiManager.ShowSuccess(fmt.Sprintf("Copied to clipboard. Commit with: git commit -m %q", choice))

	return result, nil
}

// send performs the completion exchange behind a spinner, retrying
// transport failures when asked to.
func (s *SuggestService) send(ctx context.Context, req ai.ChatRequest, opts SuggestOptions) (*ai.RawResult, error) {
	cfg := s.retry.WithRetries(opts.Retries)

	spinner := s.uiManager.ShowSpinner(fmt.Sprintf("Generating commit messages with %s (%s)...", s.provider.Name, req.Model))
	spinner.Start()

	var raw *ai.RawResult
	err := apperrors.RetryWithNotify(ctx, cfg, func(ctx context.Context) error {
		res, err := s.completer.Send(ctx, req, s.provider)
		if err != nil {
			return err
		}
		raw = res
		return nil
	}, func(attempt int, err error, delay time.Duration) {
		s.logger.LogRetry(attempt, cfg.MaxAttempts, err, delay)
		spinner.UpdateText(fmt.Sprintf("Retrying (%d/%d)...", attempt+1, cfg.MaxAttempts))
	})

	spinner.Stop()
	if err != nil {
		return nil, err
	}
	return raw, nil
}
