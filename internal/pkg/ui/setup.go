package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/huh"

	"github.com/aicommit/aicommit/internal/pkg/config"
	"github.com/aicommit/aicommit/internal/pkg/security"
)

// SetupAnswers holds what the setup wizard collected.
type SetupAnswers struct {
	Provider    string
	APIKey      string
	MakeDefault bool
}

// runForm is replaced in tests.
var runForm = func(f *huh.Form) error { return f.Run() }

// RunInteractiveSetup asks for a provider and its API key with huh forms
// and stores the answers in the config file. A missing config file is
// created from the bundled template first.
func RunInteractiveSetup(cfgMgr *config.ViperManager, out io.Writer) error {
	if !cfgMgr.ConfigExists() {
		if err := cfgMgr.Init(); err != nil {
			return err
		}
		fmt.Fprintf(out, "Created %s from the default template.\n\n", cfgMgr.GetConfigPath())
	}

	cfg, err := cfgMgr.LoadFile()
	if err != nil {
		return err
	}

	answers := SetupAnswers{Provider: cfg.DefaultProvider, MakeDefault: true}

	options := make([]huh.Option[string], 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		label := fmt.Sprintf("%s (%s)", p.Name, p.Model)
		options = append(options, huh.NewOption(label, p.Name))
	}

	// Stage 1: provider
	err = runForm(huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Select AI Provider").
			Options(options...).
			Value(&answers.Provider),
	)))
	if err != nil {
		return err
	}

	i := cfg.FindProvider(answers.Provider)
	if i < 0 {
		return fmt.Errorf("unknown provider %q", answers.Provider)
	}
	selected := cfg.Providers[i]
	answers.APIKey = selected.APIKey

	// Stage 2: key and default
	fields := []huh.Field{}
	if !selected.IsLocal() {
		fields = append(fields,
			huh.NewInput().
				Title("API Key").
				Description(fmt.Sprintf("Key for %s", selected.Endpoint)).
				Value(&answers.APIKey).
				EchoMode(huh.EchoModePassword).
				Validate(security.ValidateAPIKey),
		)
	}
	fields = append(fields,
		huh.NewConfirm().
			Title(fmt.Sprintf("Use %s by default?", selected.Name)).
			Value(&answers.MakeDefault),
	)

	if err := runForm(huh.NewForm(huh.NewGroup(fields...))); err != nil {
		return err
	}

	if err := ApplySetup(cfgMgr, answers); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nConfiguration saved to %s\n", cfgMgr.GetConfigPath())
	if answers.APIKey != "" {
		fmt.Fprintf(out, "API key for %s: %s\n", selected.Name, security.MaskAPIKey(answers.APIKey))
	}
	fmt.Fprintln(out, "Setup complete! Stage some changes and run aicommit.")
	return nil
}

// ApplySetup writes answers to the config file.
func ApplySetup(cfgMgr *config.ViperManager, answers SetupAnswers) error {
	if answers.APIKey != "" {
		if err := security.ValidateAPIKey(answers.APIKey); err != nil {
			return fmt.Errorf("invalid API key: %w", err)
		}
	}
	return cfgMgr.SetProviderKey(answers.Provider, answers.APIKey, answers.MakeDefault)
}
