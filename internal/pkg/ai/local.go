package ai

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"time"

	"mvdan.cc/sh/v3/shell"

	"github.com/aicommit/aicommit/internal/pkg/config"
	apperrors "github.com/aicommit/aicommit/internal/pkg/errors"
)

const (
	// DefaultStartCommand launches the local model server.
	DefaultStartCommand = "ollama serve"

	localStartTimeout = 15 * time.Second
	localPollInterval = 250 * time.Millisecond
	localDialTimeout  = time.Second
)

// Seams for tests.
var (
	dialAddress = func(ctx context.Context, addr string) error {
		d := net.Dialer{Timeout: localDialTimeout}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		return conn.Close()
	}
	startProcess = func(argv []string) error {
		cmd := exec.Command(argv[0], argv[1:]...)
		if err := cmd.Start(); err != nil {
			return err
		}
		return cmd.Process.Release()
	}
)

// ProviderHook runs before the completion request is sent.
type ProviderHook func(ctx context.Context, provider config.ProviderConfig) error

// HookFor returns the hook for provider, or nil when it has none. Only the
// provider named "local" has one. The hook logs through logger.
func HookFor(provider config.ProviderConfig, logger *apperrors.Logger) ProviderHook {
	if !provider.IsLocal() {
		return nil
	}
	return func(ctx context.Context, provider config.ProviderConfig) error {
		return EnsureLocalServer(ctx, provider, logger)
	}
}

// EnsureLocalServer makes sure something listens on the provider's endpoint,
// starting StartCommand detached when nothing does.
func EnsureLocalServer(ctx context.Context, provider config.ProviderConfig, logger *apperrors.Logger) error {
	if logger == nil {
		logger = apperrors.Default()
	}
	addr, err := hostPort(provider.Endpoint)
	if err != nil {
		return apperrors.NewTransportError("resolve local endpoint", err)
	}
	if dialAddress(ctx, addr) == nil {
		return nil
	}

	command := provider.StartCommand
	if command == "" {
		command = DefaultStartCommand
	}
	argv, err := shell.Fields(command, os.Getenv)
	if err != nil || len(argv) == 0 {
		return apperrors.New(apperrors.ErrInvalidArguments, fmt.Sprintf("cannot parse start_command %q", command)).
			WithSuggestion("Fix start_command for the local provider in the config file")
	}

	logger.Info("starting local server: %s", command)
	if err := startProcess(argv); err != nil {
		return apperrors.NewTransportError("start local server", err).
			WithSuggestion(fmt.Sprintf("Start it manually with '%s'", command))
	}

	parent := ctx
	ctx, cancel := context.WithTimeout(parent, localStartTimeout)
	defer cancel()
	ticker := time.NewTicker(localPollInterval)
	defer ticker.Stop()
	for {
		if dialAddress(ctx, addr) == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			if parent.Err() != nil {
				return apperrors.NewTransportError("wait for local server", context.Cause(parent))
			}
			return apperrors.NewTransportError("reach local server", fmt.Errorf("nothing listening on %s after %v", addr, localStartTimeout))
		case <-ticker.C:
		}
	}
}

func hostPort(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("endpoint %q has no host", endpoint)
	}
	if u.Port() != "" {
		return u.Host, nil
	}
	port := "80"
	if u.Scheme == "https" {
		port = "443"
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}
