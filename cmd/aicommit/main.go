// Package main is the entry point for the aicommit CLI.
// aicommit suggests Conventional Commits messages for staged changes using
// an OpenAI-compatible chat completion endpoint.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/aicommit/aicommit/internal/cmd"
	apperrors "github.com/aicommit/aicommit/internal/pkg/errors"
)

// Version information - set via ldflags during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := cmd.NewRootCmd(version, commit, date)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if apperrors.IsVerbose() {
			fmt.Fprint(os.Stderr, apperrors.FormatErrorVerbose(err))
		} else {
			fmt.Fprintln(os.Stderr, apperrors.FormatError(err))
		}
		stop()
		os.Exit(apperrors.GetExitCode(err))
	}
}
