// Package watcher observes the inbound folder, validates candidate files and
// persists them as pending records.
package watcher

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/moviecp/internal/common"
	"github.com/dmitrijs2005/moviecp/internal/config"
	"github.com/dmitrijs2005/moviecp/internal/logging"
	"github.com/dmitrijs2005/moviecp/internal/models"
	"github.com/dmitrijs2005/moviecp/internal/repositories/repomanager"
	"github.com/dmitrijs2005/moviecp/internal/watcher/validator"
)

var filesDetected = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "moviecp_files_detected_total",
		Help: "Candidate files seen by the dispatcher, by validation outcome",
	},
	[]string{"outcome"},
)

// Validator is the stability gate applied to every candidate path.
type Validator interface {
	Validate(ctx context.Context, path string) (*validator.FileFacts, bool)
}

// Dispatcher feeds filesystem events through the validator on a bounded
// worker pool. At most one validation is in flight per path; a slow
// stability wait on one file never delays detection of others.
type Dispatcher struct {
	db        *sql.DB
	rm        repomanager.RepositoryManager
	validator Validator
	config    *config.Config
	logger    logging.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewDispatcher(db *sql.DB, rm repomanager.RepositoryManager, v Validator,
	cfg *config.Config, logger logging.Logger) *Dispatcher {
	return &Dispatcher{
		db:        db,
		rm:        rm,
		validator: v,
		config:    cfg,
		logger:    logger.With("module", "watcher"),
		inFlight:  map[string]struct{}{},
	}
}

// Run watches the configured directory until ctx is cancelled. Directory
// walking and watch registration happen up front; with recursion enabled,
// directories created later are added as they appear.
func (d *Dispatcher) Run(ctx context.Context) error {

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := d.addWatches(ctx, w); err != nil {
		return err
	}

	paths := make(chan string)

	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < d.config.WorkerCount; i++ {
		g.Go(func() error {
			for path := range paths {
				d.process(ctx, path)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(paths)
		return d.eventLoop(ctx, w, paths)
	})

	d.logger.Info(ctx, "watching for new files",
		"dir", d.config.WatchDir, "recursive", d.config.WatchRecursive,
		"workers", d.config.WorkerCount)

	return g.Wait()
}

func (d *Dispatcher) addWatches(ctx context.Context, w *fsnotify.Watcher) error {

	if !d.config.WatchRecursive {
		return w.Add(d.config.WatchDir)
	}

	return filepath.WalkDir(d.config.WatchDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if err := w.Add(path); err != nil {
				return err
			}
			d.logger.Debug(ctx, "watching directory", "dir", path)
		}
		return nil
	})
}

func (d *Dispatcher) eventLoop(ctx context.Context, w *fsnotify.Watcher, paths chan<- string) error {

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			if d.config.WatchRecursive && event.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := w.Add(event.Name); err != nil {
						d.logger.Warn(ctx, "could not watch new directory",
							"dir", event.Name, "error", err)
					}
					continue
				}
			}

			if !d.claim(event.Name) {
				continue
			}

			select {
			case paths <- event.Name:
			case <-ctx.Done():
				d.release(event.Name)
				return ctx.Err()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			d.logger.Error(ctx, "watch error", "error", err)
		}
	}
}

// claim marks a path as being validated. Event delivery is at-least-once, so
// duplicates for an in-flight path are dropped here.
func (d *Dispatcher) claim(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, busy := d.inFlight[path]; busy {
		return false
	}
	d.inFlight[path] = struct{}{}
	return true
}

func (d *Dispatcher) release(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.inFlight, path)
}

func (d *Dispatcher) process(ctx context.Context, path string) {
	defer d.release(path)

	facts, ok := d.validator.Validate(ctx, path)
	if !ok {
		filesDetected.WithLabelValues("invalid").Inc()
		return
	}

	if err := d.persist(ctx, facts); err != nil {
		if errors.Is(err, common.ErrAlreadyTracked) {
			d.logger.Debug(ctx, "file already tracked", "path", facts.Path)
			filesDetected.WithLabelValues("duplicate").Inc()
			return
		}
		d.logger.Error(ctx, "could not persist pending file",
			"path", facts.Path, "error", err)
		filesDetected.WithLabelValues("error").Inc()
		return
	}

	d.logger.Info(ctx, "new file tracked", "file", facts.Filename, "size", facts.Size)
	filesDetected.WithLabelValues("tracked").Inc()
}

func (d *Dispatcher) persist(ctx context.Context, facts *validator.FileFacts) error {

	metadata, err := json.Marshal(map[string]any{
		"extension": facts.Extension,
		"mtime":     facts.ModTime.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	file := &models.PendingFile{
		ID:         uuid.NewString(),
		SourcePath: facts.Path,
		Filename:   facts.Filename,
		SizeBytes:  facts.Size,
		DetectedAt: time.Now(),
		Status:     models.StatusPending,
		Metadata:   string(metadata),
	}

	return d.rm.Pending(d.db).Create(ctx, file)
}
