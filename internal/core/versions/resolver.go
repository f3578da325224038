// Package versions resolves destination filename collisions by detecting
// existing copies of a title and assigning the next version suffix.
package versions

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/moviecp/internal/config"
	"github.com/dmitrijs2005/moviecp/internal/logging"
)

type Resolver struct {
	enabled      bool
	checkSimilar bool
	threshold    float64
	suffixRe     *regexp.Regexp
	suffixEndRe  *regexp.Regexp
	format       string
	logger       logging.Logger
}

func NewResolver(cfg *config.Config, logger logging.Logger) *Resolver {
	// ".v{number}" becomes the pattern `\.v(\d+)`.
	pattern := strings.Replace(regexp.QuoteMeta(cfg.VersionFormat), `\{number\}`, `(\d+)`, 1)

	return &Resolver{
		enabled:      cfg.VersioningEnabled,
		checkSimilar: cfg.CheckSimilar,
		threshold:    cfg.SimilarityThreshold,
		suffixRe:     regexp.MustCompile(pattern),
		suffixEndRe:  regexp.MustCompile(pattern + `$`),
		format:       cfg.VersionFormat,
		logger:       logger.With("module", "versions"),
	}
}

// Resolve inspects targetDir for existing versions of candidate and returns a
// collision-free filename plus its version number. With no matches (or with
// versioning disabled) the candidate comes back unchanged as version 1.
//
// An unreadable or absent target directory is treated as an empty listing:
// the workflow keeps moving rather than blocking on a transient mount error.
func (r *Resolver) Resolve(ctx context.Context, candidate string, targetDir string) (string, int) {
	if !r.enabled {
		return candidate, 1
	}

	existing := r.listDirectory(ctx, targetDir)
	matches := r.findMatches(ctx, candidate, existing)

	if len(matches) == 0 {
		r.logger.Debug(ctx, "no existing versions found", "filename", candidate)
		return candidate, 1
	}

	highest := 0
	for _, m := range matches {
		if v := r.extractVersion(m); v > highest {
			highest = v
		}
	}

	next := highest + 1
	versioned := r.addSuffix(candidate, next)
	r.logger.Info(ctx, "existing versions found",
		"filename", candidate, "versioned", versioned, "version", next)

	return versioned, next
}

func (r *Resolver) listDirectory(ctx context.Context, dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		r.logger.Warn(ctx, "could not list target directory, assuming empty", "dir", dir, "error", err)
		return nil
	}

	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, e.Name())
		}
	}
	return files
}

func (r *Resolver) findMatches(ctx context.Context, filename string, existing []string) []string {
	var matches []string
	base := r.baseName(filename)

	for _, ex := range existing {
		exBase := r.baseName(ex)

		if strings.EqualFold(base, exBase) {
			matches = append(matches, ex)
			continue
		}

		if r.checkSimilar {
			ratio := similarity(strings.ToLower(base), strings.ToLower(exBase))
			if ratio >= r.threshold {
				matches = append(matches, ex)
				r.logger.Debug(ctx, "found similar file", "existing", ex, "similarity", ratio)
			}
		}
	}

	return matches
}

// baseName strips the extension and any trailing version suffix so that
// "Movie (2020).v2.mkv" and "Movie (2020).mkv" compare equal.
func (r *Resolver) baseName(filename string) string {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	stem = r.suffixEndRe.ReplaceAllString(stem, "")
	return strings.TrimSpace(stem)
}

// extractVersion returns the version encoded in filename, or 1 when no
// version suffix is present.
func (r *Resolver) extractVersion(filename string) int {
	m := r.suffixRe.FindStringSubmatch(filename)
	if m == nil {
		return 1
	}

	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 1
	}
	return v
}

// addSuffix inserts the rendered version suffix before the extension.
func (r *Resolver) addSuffix(filename string, version int) string {
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	suffix := strings.Replace(r.format, "{number}", strconv.Itoa(version), 1)
	return stem + suffix + ext
}

// similarity is the Ratcliffe–Obershelp ratio 2*M/T, where T is the combined
// length of both strings and M the total length of matching blocks found by
// recursively taking the longest common substring. It tolerates small lexical
// drift between otherwise identical titles.
func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingBlocks(ra, rb)) / float64(total)
}

func matchingBlocks(a, b []rune) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingBlocks(a[:ai], b[:bi]) +
		matchingBlocks(a[ai+size:], b[bi+size:])
}

func longestCommonSubstring(a, b []rune) (ai, bi, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}

	// lengths[j] holds the length of the common substring ending at a[i], b[j].
	lengths := make([]int, len(b)+1)
	for i := range a {
		// walk j backwards so the row can be updated in place
		for j := len(b) - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lengths[j+1] = lengths[j] + 1
				if lengths[j+1] > size {
					size = lengths[j+1]
					ai = i - size + 1
					bi = j - size + 1
				}
			} else {
				lengths[j+1] = 0
			}
		}
	}
	return ai, bi, size
}
