// Package validator decides whether a discovered path is a finished media
// file worth tracking. Validation has no side effects beyond reading file
// metadata; every negative outcome is a plain "not valid", never an error,
// because filesystem races with a downloader are expected.
package validator

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/moviecp/internal/config"
	"github.com/dmitrijs2005/moviecp/internal/filex"
	"github.com/dmitrijs2005/moviecp/internal/logging"
)

// FileFacts is the metadata extracted from a path that passed validation.
type FileFacts struct {
	Path      string
	Filename  string
	Size      int64
	Extension string
	ModTime   time.Time
}

type Validator struct {
	minSize         int64
	stableInterval  time.Duration
	extensions      []string
	excludePatterns []string
	logger          logging.Logger

	// wait is swapped in tests to skip the stability interval.
	wait func(ctx context.Context, d time.Duration) error
}

func NewValidator(cfg *config.Config, logger logging.Logger) *Validator {
	return &Validator{
		minSize:         cfg.MinFileSize,
		stableInterval:  cfg.StableInterval,
		extensions:      cfg.SupportedExtensions,
		excludePatterns: cfg.ExcludePatterns,
		logger:          logger.With("module", "validator"),
		wait:            sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Validate runs the ordered checks against path and returns the extracted
// facts when all pass. The stability check blocks the caller for the
// configured interval, so Validate is meant to run on a worker, not on the
// event loop.
func (v *Validator) Validate(ctx context.Context, path string) (*FileFacts, bool) {

	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		v.logger.Debug(ctx, "not a regular file", "path", path)
		return nil, false
	}

	name := filepath.Base(path)

	if v.isExcluded(name) {
		v.logger.Debug(ctx, "excluded by pattern", "file", name)
		return nil, false
	}

	ext := filex.Ext(path)
	if !slices.Contains(v.extensions, ext) {
		v.logger.Debug(ctx, "unsupported extension", "file", name, "ext", ext)
		return nil, false
	}

	if fi.Size() < v.minSize {
		v.logger.Debug(ctx, "file too small",
			"file", name, "size", filex.FormatSize(fi.Size()))
		return nil, false
	}

	if !v.isStable(ctx, path, fi.Size()) {
		return nil, false
	}

	// re-stat: the stability wait is long enough for mtime to settle
	fi, err = os.Stat(path)
	if err != nil {
		return nil, false
	}

	return &FileFacts{
		Path:      path,
		Filename:  name,
		Size:      fi.Size(),
		Extension: ext,
		ModTime:   fi.ModTime(),
	}, true
}

// isStable re-samples the size after the configured interval and passes only
// when the two samples agree.
func (v *Validator) isStable(ctx context.Context, path string, firstSize int64) bool {

	if err := v.wait(ctx, v.stableInterval); err != nil {
		return false
	}

	fi, err := os.Stat(path)
	if err != nil {
		v.logger.Debug(ctx, "file disappeared during stability check", "path", path)
		return false
	}

	if fi.Size() != firstSize {
		v.logger.Debug(ctx, "file still growing",
			"path", path, "before", firstSize, "after", fi.Size())
		return false
	}

	return true
}

// isExcluded matches name against the configured globs. Only leading-`*`,
// trailing-`*` and exact patterns are supported.
func (v *Validator) isExcluded(name string) bool {
	for _, pat := range v.excludePatterns {
		if matchGlob(pat, name) {
			return true
		}
	}
	return false
}

func matchGlob(pattern, name string) bool {
	switch {
	case strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*") && len(pattern) > 1:
		return strings.Contains(name, pattern[1:len(pattern)-1])
	case strings.HasPrefix(pattern, "*"):
		return strings.HasSuffix(name, pattern[1:])
	case strings.HasSuffix(pattern, "*"):
		return strings.HasPrefix(name, pattern[:len(pattern)-1])
	default:
		return pattern == name
	}
}
