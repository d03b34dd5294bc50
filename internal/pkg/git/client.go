// Package git reads the staged changes of the current repository.
package git

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/aicommit/aicommit/internal/pkg/errors"
)

const (
	// GitCommandTimeout is the default timeout for git commands.
	GitCommandTimeout = 10 * time.Second
)

// FileStat is git's line count for one staged file.
type FileStat struct {
	Path      string
	Additions int
	Deletions int
	Binary    bool
}

func (s FileStat) String() string {
	if s.Binary {
		return s.Path + " (binary)"
	}
	return fmt.Sprintf("%s (+%d/-%d)", s.Path, s.Additions, s.Deletions)
}

// Diff is the staged change set. Text is passed to the model untouched;
// Files keeps git's output order and Stats follows it.
type Diff struct {
	Text  string
	Files []string
	Stats []FileStat
}

// Empty reports whether nothing is staged.
func (d Diff) Empty() bool {
	return len(d.Files) == 0
}

// Summary labels each staged file with its line counts. A file git gave no
// count for is listed by path alone.
func (d Diff) Summary() []string {
	byPath := make(map[string]FileStat, len(d.Stats))
	for _, st := range d.Stats {
		byPath[st.Path] = st
	}
	labels := make([]string, len(d.Files))
	for i, f := range d.Files {
		if st, ok := byPath[f]; ok {
			labels[i] = st.String()
		} else {
			labels[i] = f
		}
	}
	return labels
}

// LineCounts totals added and deleted lines over text files.
func (d Diff) LineCounts() (additions, deletions int) {
	for _, st := range d.Stats {
		additions += st.Additions
		deletions += st.Deletions
	}
	return additions, deletions
}

// Client defines the interface for Git operations.
type Client interface {
	IsInsideWorkTree(ctx context.Context) (bool, error)
	StagedDiff(ctx context.Context) (Diff, error)
}

// DefaultClient implements the Client interface using exec.CommandContext.
type DefaultClient struct {
	// workDir is the working directory for git commands.
	// If empty, uses the current directory.
	workDir string
}

// NewClient creates a new DefaultClient.
func NewClient() *DefaultClient {
	return &DefaultClient{}
}

// NewClientWithWorkDir creates a new DefaultClient with a specific working directory.
func NewClientWithWorkDir(workDir string) *DefaultClient {
	return &DefaultClient{workDir: workDir}
}

// run executes git with args and returns stdout.
func (c *DefaultClient) run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, GitCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	if c.workDir != "" {
		cmd.Dir = c.workDir
	}

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, apperrors.NewTimeoutError(ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, apperrors.NewGitError(err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, apperrors.NewGitError(err, "")
	}
	return output, nil
}

// IsInsideWorkTree reports whether the working directory belongs to a git
// work tree. A directory outside any repository is not an error.
func (c *DefaultClient) IsInsideWorkTree(ctx context.Context) (bool, error) {
	output, err := c.run(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return false, nil
		}
		return false, err
	}
	return strings.TrimSpace(string(output)) == "true", nil
}

// StagedDiff returns the staged changes computed with the minimal diff
// algorithm. An empty Diff means nothing is staged.
func (c *DefaultClient) StagedDiff(ctx context.Context) (Diff, error) {
	names, err := c.run(ctx, "diff", "--cached", "--diff-algorithm=minimal", "--name-only")
	if err != nil {
		return Diff{}, err
	}
	files := parseNameOnly(names)
	if len(files) == 0 {
		return Diff{}, nil
	}

	text, err := c.run(ctx, "diff", "--cached", "--diff-algorithm=minimal")
	if err != nil {
		return Diff{}, err
	}

	numstat, err := c.run(ctx, "diff", "--cached", "--diff-algorithm=minimal", "--numstat")
	if err != nil {
		return Diff{}, err
	}

	return Diff{
		Text:  string(text),
		Files: files,
		Stats: statsFor(files, parseNumstat(numstat)),
	}, nil
}

func parseNameOnly(output []byte) []string {
	var files []string
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			files = append(files, line)
		}
	}
	return files
}

// parseNumstat parses the output of git diff --numstat.
// Format: additions<TAB>deletions<TAB>filepath
// Binary files show as: -<TAB>-<TAB>filepath
func parseNumstat(output []byte) map[string]FileStat {
	stats := make(map[string]FileStat)
	scanner := bufio.NewScanner(bytes.NewReader(output))

	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), "\t")
		if len(parts) < 3 {
			continue
		}

		addStr, delStr, filePath := parts[0], parts[1], parts[2]
		if strings.Contains(filePath, " => ") {
			filePath = extractNewPath(filePath)
		}

		stat := FileStat{Path: filePath}
		if addStr == "-" && delStr == "-" {
			stat.Binary = true
		} else {
			stat.Additions, _ = strconv.Atoi(addStr)
			stat.Deletions, _ = strconv.Atoi(delStr)
		}
		stats[filePath] = stat
	}

	return stats
}

var renameBraces = regexp.MustCompile(`\{([^}]*) => ([^}]*)\}`)

// extractNewPath extracts the new file path from git rename notation.
// Examples:
//   - "old.txt => new.txt" -> "new.txt"
//   - "{old => new}/file.txt" -> "new/file.txt"
//   - "dir/{old.txt => new.txt}" -> "dir/new.txt"
func extractNewPath(renamePath string) string {
	if !strings.Contains(renamePath, "{") {
		if parts := strings.Split(renamePath, " => "); len(parts) == 2 {
			return strings.TrimSpace(parts[1])
		}
	}
	return renameBraces.ReplaceAllString(renamePath, "$2")
}

// statsFor orders stats like files, skipping files numstat did not list.
func statsFor(files []string, stats map[string]FileStat) []FileStat {
	out := make([]FileStat, 0, len(files))
	for _, f := range files {
		if st, ok := stats[f]; ok {
			out = append(out, st)
		}
	}
	return out
}
