package pipeline

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/conneroisu/wmnctl/internal/watcher"
)

// Watch runs Check once, then again after every debounced change to the
// dataset or schema, until ctx is cancelled. Check failures are logged and
// watching continues; only setup failures are returned.
//
// Watch observes the OS filesystem, so the Runner's fs should be backed by it.
func (r *Runner) Watch(ctx context.Context) error {
	fw, err := watcher.NewFileWatcher(r.config.Watch.Debounce, r.logger)
	if err != nil {
		return err
	}
	defer fw.Stop()

	if err := fw.WatchFiles(r.config.Files.Data, r.config.Files.Schema); err != nil {
		return err
	}
	fw.AddFilter(watcher.NoTempFilter)
	fw.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		files := make([]string, 0, len(events))
		for _, e := range events {
			files = append(files, filepath.Base(e.Path))
		}
		run := r.forRun()
		run.logger.Info(ctx, "Change detected, re-running checks", "files", files)
		return run.Check(ctx)
	})

	initial := r.forRun()
	if err := initial.Check(ctx); err != nil {
		initial.logger.Error(ctx, err, "Check failed")
	}

	if err := fw.Start(ctx); err != nil {
		return err
	}
	r.logger.Info(ctx, "Watching for changes", "data", r.config.Files.Data, "schema", r.config.Files.Schema,
		"debounce", r.config.Watch.Debounce.String())

	<-ctx.Done()
	r.logger.Info(ctx, "Stopped watching")
	return nil
}

// forRun tags one pipeline run so its log lines can be grouped.
func (r *Runner) forRun() *Runner {
	return r.WithLogger(r.logger.With("check_id", uuid.NewString()))
}
