// Package renamer shells out to an external media renaming tool (mnamer by
// default) and extracts the canonical filename from its output.
package renamer

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/moviecp/internal/common"
	"github.com/dmitrijs2005/moviecp/internal/config"
	"github.com/dmitrijs2005/moviecp/internal/logging"
)

// Runner executes an external command and returns its combined output.
// Abstracted so tests can substitute a fake without spawning processes.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return string(out), err
}

// Renamer invokes the configured tool in batch mode and parses the renamed
// filename out of its stdout.
type Renamer struct {
	path      string
	batchMode bool
	mediaType string
	format    string
	extraArgs []string
	timeout   time.Duration
	runner    Runner
	logger    logging.Logger
}

func NewRenamer(cfg *config.Config, logger logging.Logger) *Renamer {
	return &Renamer{
		path:      cfg.RenamerPath,
		batchMode: cfg.RenamerBatchMode,
		mediaType: cfg.RenamerMediaType,
		format:    cfg.RenamerFormat,
		extraArgs: cfg.RenamerExtraArgs,
		timeout:   cfg.RenamerTimeout,
		runner:    execRunner{},
		logger:    logger.With("module", "renamer"),
	}
}

// rename markers the supported tools print, checked in order
var renamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`->\s*(.+)`),
	regexp.MustCompile(`→\s*(.+)`),
	regexp.MustCompile(`renamed to\s*(.+)`),
}

// Rename runs the external tool against sourcePath and returns the new
// basename plus the tool's raw output. The source file itself is renamed in
// place by the tool, so the returned name refers to a sibling of sourcePath.
//
// Returns common.ErrRenamerFailed when the tool exits non-zero, exceeds the
// timeout, or produces output with no recognizable rename marker.
func (r *Renamer) Rename(ctx context.Context, sourcePath string) (string, string, error) {

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := r.buildArgs(sourcePath)
	r.logger.Info(ctx, "running renamer", "tool", r.path, "file", filepath.Base(sourcePath))

	out, err := r.runner.Run(ctx, r.path, args...)
	if err != nil {
		r.logger.Warn(ctx, "renamer execution failed", "error", err, "output", truncate(out))
		return "", out, fmt.Errorf("%w: %v", common.ErrRenamerFailed, err)
	}

	newName, ok := parseOutput(out)
	if !ok {
		r.logger.Warn(ctx, "renamer produced no rename marker", "output", truncate(out))
		return "", out, fmt.Errorf("%w: no renamed filename in output", common.ErrRenamerFailed)
	}

	r.logger.Info(ctx, "file renamed", "from", filepath.Base(sourcePath), "to", newName)
	return newName, out, nil
}

func (r *Renamer) buildArgs(sourcePath string) []string {
	var args []string
	if r.batchMode {
		args = append(args, "--batch")
	}
	if r.mediaType != "" {
		args = append(args, "--media", r.mediaType)
	}
	if r.format != "" {
		args = append(args, "--movie-format", r.format)
	}
	args = append(args, r.extraArgs...)
	args = append(args, sourcePath)
	return args
}

// parseOutput scans the tool output line by line for a rename marker and
// returns the basename of the new path, stripped of surrounding quotes.
func parseOutput(out string) (string, bool) {
	for _, line := range strings.Split(out, "\n") {
		for _, pat := range renamePatterns {
			m := pat.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			name := strings.TrimSpace(m[1])
			name = strings.Trim(name, `"'`)
			if name == "" {
				continue
			}
			return filepath.Base(name), true
		}
	}
	return "", false
}

func truncate(s string) string {
	const limit = 500
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
