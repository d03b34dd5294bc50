// Package message inspects candidate commit subjects against the
// Conventional Commits format.
package message

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// CommitType is an allowed Conventional Commits type with its meaning.
type CommitType struct {
	Name        string
	Description string
}

// CommitTypes lists the allowed types in the order they are presented to
// the model.
var CommitTypes = []CommitType{
	{"docs", "Documentation only changes"},
	{"style", "Changes that do not affect the meaning of the code (white-space, formatting, missing semi-colons, etc)"},
	{"refactor", "A code change that neither fixes a bug nor adds a feature"},
	{"perf", "A code change that improves performance"},
	{"test", "Adding missing tests or correcting existing tests"},
	{"build", "Changes that affect the build system or external dependencies"},
	{"ci", "Changes to CI configuration files, scripts"},
	{"chore", "Other changes that don't modify src or test files"},
	{"revert", "Reverts a previous commit"},
	{"feat", "A new feature"},
	{"fix", "A bug fix"},
}

// ValidCommitTypes contains all valid Conventional Commits types.
var ValidCommitTypes = func() []string {
	names := make([]string, len(CommitTypes))
	for i, t := range CommitTypes {
		names[i] = t.Name
	}
	return names
}()

// MaxSubjectLength is the recommended maximum length for commit subject lines.
const MaxSubjectLength = 72

// conventionalCommitRegex matches the Conventional Commits format.
// Format: <type>(<scope>)!: <subject> or <type>: <subject>
var conventionalCommitRegex = regexp.MustCompile(`^([a-z]+)(\([^)]+\))?(!)?:\s*(.+)$`)

// Subject is a parsed single-line commit message.
type Subject struct {
	Type        string
	Scope       string
	Breaking    bool
	Description string
	Raw         string
}

// Parse splits line into its Conventional Commits parts. Lines that do not
// match keep only Raw and Description.
func Parse(line string) Subject {
	line = strings.TrimSpace(line)
	s := Subject{Raw: line, Description: line}

	matches := conventionalCommitRegex.FindStringSubmatch(line)
	if matches == nil || !IsValidCommitType(matches[1]) {
		return s
	}
	s.Type = matches[1]
	s.Scope = strings.Trim(matches[2], "()")
	s.Breaking = matches[3] == "!"
	s.Description = strings.TrimSpace(matches[4])
	return s
}

// IsConventional reports whether the subject has a known type and a description.
func (s Subject) IsConventional() bool {
	return s.Type != "" && s.Description != ""
}

// ExceedsLength reports whether the raw subject is longer than MaxSubjectLength.
func (s Subject) ExceedsLength() bool {
	return len([]rune(s.Raw)) > MaxSubjectLength
}

// Warnings lists format problems worth showing next to a candidate.
func (s Subject) Warnings() []string {
	var warnings []string
	if !s.IsConventional() {
		warnings = append(warnings, "not in Conventional Commits format")
	}
	if s.ExceedsLength() {
		warnings = append(warnings, fmt.Sprintf("subject line exceeds %d characters", MaxSubjectLength))
	}
	return warnings
}

// IsValidCommitType checks if the given type is a valid Conventional Commits type.
func IsValidCommitType(commitType string) bool {
	return slices.Contains(ValidCommitTypes, commitType)
}
