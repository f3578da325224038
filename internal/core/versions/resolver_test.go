package versions

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/moviecp/internal/config"
	"github.com/dmitrijs2005/moviecp/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T, mutate func(*config.Config)) *Resolver {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	if mutate != nil {
		mutate(cfg)
	}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	return NewResolver(cfg, logger)
}

func dirWithFiles(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o660))
	}
	return dir
}

func TestResolve_EmptyDirectoryReturnsVersionOne(t *testing.T) {
	r := newTestResolver(t, nil)

	name, version := r.Resolve(context.Background(), "Movie (2020).mkv", t.TempDir())

	assert.Equal(t, "Movie (2020).mkv", name)
	assert.Equal(t, 1, version)
}

func TestResolve_ExactMatchBecomesVersionTwo(t *testing.T) {
	r := newTestResolver(t, nil)
	dir := dirWithFiles(t, "Movie (2020).mkv")

	name, version := r.Resolve(context.Background(), "Movie (2020).mkv", dir)

	assert.Equal(t, "Movie (2020).v2.mkv", name)
	assert.Equal(t, 2, version)
}

func TestResolve_TakesMaxExistingVersionPlusOne(t *testing.T) {
	r := newTestResolver(t, nil)
	dir := dirWithFiles(t, "Movie (2020).mkv", "Movie (2020).v2.mkv", "Movie (2020).v5.mkv")

	name, version := r.Resolve(context.Background(), "Movie (2020).mkv", dir)

	assert.Equal(t, "Movie (2020).v6.mkv", name)
	assert.Equal(t, 6, version)
}

func TestResolve_MatchIsCaseInsensitive(t *testing.T) {
	r := newTestResolver(t, nil)
	dir := dirWithFiles(t, "movie (2020).MKV")

	_, version := r.Resolve(context.Background(), "Movie (2020).mkv", dir)

	assert.Equal(t, 2, version)
}

func TestResolve_SimilarTitleCounts(t *testing.T) {
	r := newTestResolver(t, nil)
	// minor tagging drift, high similarity
	dir := dirWithFiles(t, "Movie (2020) [1080p].mkv")

	_, version := r.Resolve(context.Background(), "Movie (2020) (1080p).mkv", dir)

	assert.Equal(t, 2, version)
}

func TestResolve_UnrelatedTitleDoesNotCount(t *testing.T) {
	r := newTestResolver(t, nil)
	dir := dirWithFiles(t, "Completely Different Film (1974).mkv")

	name, version := r.Resolve(context.Background(), "Movie (2020).mkv", dir)

	assert.Equal(t, "Movie (2020).mkv", name)
	assert.Equal(t, 1, version)
}

func TestResolve_SimilarityDisabledRequiresExactBase(t *testing.T) {
	r := newTestResolver(t, func(c *config.Config) { c.CheckSimilar = false })
	dir := dirWithFiles(t, "Movie (2020) [1080p].mkv")

	_, version := r.Resolve(context.Background(), "Movie (2020) (1080p).mkv", dir)

	assert.Equal(t, 1, version)
}

func TestResolve_DisabledResolverPassesThrough(t *testing.T) {
	r := newTestResolver(t, func(c *config.Config) { c.VersioningEnabled = false })
	dir := dirWithFiles(t, "Movie (2020).mkv")

	name, version := r.Resolve(context.Background(), "Movie (2020).mkv", dir)

	assert.Equal(t, "Movie (2020).mkv", name)
	assert.Equal(t, 1, version)
}

func TestResolve_UnreadableDirectoryTreatedAsEmpty(t *testing.T) {
	// Deliberate policy: a listing failure biases toward "no collision"
	// instead of blocking the workflow.
	r := newTestResolver(t, nil)
	missing := filepath.Join(t.TempDir(), "not-mounted")

	name, version := r.Resolve(context.Background(), "Movie (2020).mkv", missing)

	assert.Equal(t, "Movie (2020).mkv", name)
	assert.Equal(t, 1, version)
}

func TestResolve_SubdirectoriesIgnored(t *testing.T) {
	r := newTestResolver(t, nil)
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Movie (2020).mkv"), 0o770))

	_, version := r.Resolve(context.Background(), "Movie (2020).mkv", dir)

	assert.Equal(t, 1, version)
}

func TestVersionSuffixRoundTrip(t *testing.T) {
	r := newTestResolver(t, nil)

	for _, base := range []string{"Movie (2020)", "Another Film", "Weird.Name.2019"} {
		for v := 1; v <= 12; v++ {
			name := r.addSuffix(base+".mkv", v)
			assert.Equal(t, v, r.extractVersion(name), "name=%s", name)
			assert.Equal(t, base, r.baseName(name))
		}
	}
}

func TestExtractVersion_DefaultsToOne(t *testing.T) {
	r := newTestResolver(t, nil)
	assert.Equal(t, 1, r.extractVersion("Movie (2020).mkv"))
}

func TestAddSuffix_CustomFormat(t *testing.T) {
	r := newTestResolver(t, func(c *config.Config) { c.VersionFormat = " - copy {number}" })

	assert.Equal(t, "Movie (2020) - copy 3.mkv", r.addSuffix("Movie (2020).mkv", 3))
	assert.Equal(t, 3, r.extractVersion("Movie (2020) - copy 3.mkv"))
	assert.Equal(t, "Movie (2020)", r.baseName("Movie (2020) - copy 3.mkv"))
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1},
		{"abc", "abc", 1},
		{"abc", "xyz", 0},
		{"abcd", "bcde", 0.75},
	}
	for _, tc := range tests {
		assert.InDelta(t, tc.want, similarity(tc.a, tc.b), 1e-9,
			fmt.Sprintf("similarity(%q, %q)", tc.a, tc.b))
	}

	// symmetric-ish sanity on realistic titles
	a, b := "movie (2020) [1080p]", "movie (2020) (1080p)"
	assert.GreaterOrEqual(t, similarity(a, b), 0.9)
}
