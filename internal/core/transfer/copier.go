// Package transfer copies verified source files into the destination share.
// A copy is atomic from the destination's point of view: bytes stream into a
// temporary file which is renamed into place only after verification, so the
// final name is either fully written or absent.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/moviecp/internal/common"
	"github.com/dmitrijs2005/moviecp/internal/config"
	"github.com/dmitrijs2005/moviecp/internal/filex"
	"github.com/dmitrijs2005/moviecp/internal/logging"
)

const (
	chunkSize = 1024 * 1024 // 1 MiB
	tmpSuffix = ".tmp"

	// attempts = 1 initial + maxRetries
	maxRetries = 2

	// progress log cadence, in chunks (100 MiB)
	progressEvery = 100
)

var transfersTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "moviecp_transfers_total",
		Help: "Finished file transfer operations by result",
	},
	[]string{"result"},
)

type Copier struct {
	mountPath    string
	targetFolder string
	verifyMount  bool
	backoffBase  time.Duration
	logger       logging.Logger

	// verify compares source and destination after streaming; replaced in
	// tests to force verification failures.
	verify func(sourcePath, destPath string) error
}

func NewCopier(cfg *config.Config, logger logging.Logger) *Copier {
	c := &Copier{
		mountPath:    cfg.MountPath,
		targetFolder: cfg.TargetFolder,
		verifyMount:  cfg.VerifyMount,
		backoffBase:  time.Second,
		logger:       logger.With("module", "transfer"),
	}
	c.verify = c.verifySize
	return c
}

// Copy streams the source file into the destination directory under filename
// and returns the final destination path. On failure no temporary or partial
// artifact remains on disk.
//
// Error classes: common.ErrShareUnavailable when the destination mount cannot
// be listed (not retried), common.ErrTransferFailed when all copy attempts
// are exhausted.
func (c *Copier) Copy(ctx context.Context, sourcePath string, filename string) (string, error) {

	if c.verifyMount && !filex.IsDirListable(c.mountPath) {
		transfersTotal.WithLabelValues("share_unavailable").Inc()
		return "", fmt.Errorf("%w: %s", common.ErrShareUnavailable, c.mountPath)
	}

	destDir := filepath.Join(c.mountPath, c.targetFolder)
	if err := filex.EnsureDir(destDir); err != nil {
		transfersTotal.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("%w: %v", common.ErrTransferFailed, err)
	}

	destPath := filepath.Join(destDir, filename)
	tmpPath := destPath + tmpSuffix

	// Collision avoidance is the version resolver's job; an existing final
	// name here is suspicious but not fatal.
	if _, err := os.Stat(destPath); err == nil {
		c.logger.Warn(ctx, "destination file already exists", "dest", destPath)
	}

	sourceSize := int64(-1)
	if fi, err := os.Stat(sourcePath); err == nil {
		sourceSize = fi.Size()
	}
	c.logger.Info(ctx, "copying file",
		"source", sourcePath, "dest", destPath, "size", filex.FormatSize(max(sourceSize, 0)))

	attempt := 0
	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(c.backoffBase))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++

		if err := c.attempt(ctx, sourcePath, tmpPath, destPath); err != nil {
			c.logger.Warn(ctx, "copy attempt failed", "attempt", attempt, "error", err)
			c.removeTemp(ctx, tmpPath)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		// belt and braces: no partial artifact may survive the engine
		c.removeTemp(ctx, tmpPath)
		transfersTotal.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("%w: %v", common.ErrTransferFailed, err)
	}

	c.logger.Info(ctx, "file copied successfully", "dest", destPath)
	transfersTotal.WithLabelValues("success").Inc()
	return destPath, nil
}

// attempt performs one full copy-verify-publish cycle.
func (c *Copier) attempt(ctx context.Context, sourcePath, tmpPath, destPath string) error {

	if err := c.streamCopy(ctx, sourcePath, tmpPath); err != nil {
		return err
	}

	if err := c.verify(sourcePath, tmpPath); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("publish rename: %w", err)
	}

	return nil
}

// streamCopy writes the source into tmpPath in fixed-size chunks, syncing
// before close so the verification step sees durable bytes.
func (c *Copier) streamCopy(ctx context.Context, sourcePath, tmpPath string) error {

	src, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	sourceSize := int64(0)
	if fi, err := src.Stat(); err == nil {
		sourceSize = fi.Size()
	}

	dst, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	buf := make([]byte, chunkSize)
	var copied int64
	var chunks int

	for {
		if err := ctx.Err(); err != nil {
			dst.Close()
			return err
		}

		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				dst.Close()
				return fmt.Errorf("write chunk: %w", werr)
			}
			copied += int64(n)
			chunks++

			if chunks%progressEvery == 0 && sourceSize > 0 {
				c.logger.Debug(ctx, "copy progress",
					"percent", fmt.Sprintf("%.1f", float64(copied)/float64(sourceSize)*100),
					"copied", filex.FormatSize(copied),
					"total", filex.FormatSize(sourceSize))
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			dst.Close()
			return fmt.Errorf("read chunk: %w", rerr)
		}
	}

	if err := dst.Sync(); err != nil {
		dst.Close()
		return fmt.Errorf("fsync: %w", err)
	}

	if err := dst.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	c.logger.Debug(ctx, "stream copy completed", "copied", filex.FormatSize(copied))
	return nil
}

// verifySize is the default verification: source and destination byte counts
// must match. Content hashing is a known, documented gap.
func (c *Copier) verifySize(sourcePath, destPath string) error {

	srcInfo, err := os.Stat(sourcePath)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	dstInfo, err := os.Stat(destPath)
	if err != nil {
		return fmt.Errorf("stat copy: %w", err)
	}

	if srcInfo.Size() != dstInfo.Size() {
		return fmt.Errorf("size mismatch: source=%d dest=%d", srcInfo.Size(), dstInfo.Size())
	}

	return nil
}

func (c *Copier) removeTemp(ctx context.Context, tmpPath string) {
	if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
		c.logger.Error(ctx, "could not remove temp file", "path", tmpPath, "error", err)
	}
}

// DeleteSource removes the source file after a successful publish. Failures
// are reported to the caller but are not fatal to the overall operation.
func (c *Copier) DeleteSource(ctx context.Context, sourcePath string) error {

	err := os.Remove(sourcePath)
	if os.IsNotExist(err) {
		c.logger.Warn(ctx, "source file not found", "source", sourcePath)
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete source %s: %w", sourcePath, err)
	}

	c.logger.Info(ctx, "deleted source file", "source", sourcePath)
	return nil
}
