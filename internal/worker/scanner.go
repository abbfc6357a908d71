package worker

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"medley/internal/logging"
	"medley/internal/services"
)

// Scanner walks the library roots and feeds eligible files to the pool.
// Files are re-enqueued only when their modification time changes, so
// repeated sweeps of an unchanged library stay cheap.
type Scanner struct {
	dirs     []string
	eligible func(name string) bool
	enqueue  func(path string) error
	logger   *slog.Logger

	seen map[string]time.Time
}

// NewScanner builds a scanner over the given roots. eligible filters by
// file name; enqueue receives each new or modified file.
func NewScanner(dirs []string, eligible func(name string) bool, enqueue func(path string) error, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scanner{
		dirs:     dirs,
		eligible: eligible,
		enqueue:  enqueue,
		logger:   logger,
		seen:     make(map[string]time.Time),
	}
}

// Scan walks every root once and returns the number of files enqueued.
// Missing roots are skipped; walking stops early when the context is
// cancelled.
func (s *Scanner) Scan(ctx context.Context) (int, error) {
	enqueued := 0
	for _, dir := range s.dirs {
		err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				if path == dir {
					s.logger.Warn("library root unavailable",
						logging.String("dir", dir),
						logging.Error(walkErr))
					return filepath.SkipDir
				}
				s.logger.Warn("scan entry failed",
					logging.String("path", path),
					logging.Error(walkErr))
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if entry.IsDir() || !s.eligible(entry.Name()) {
				return nil
			}

			info, err := entry.Info()
			if err != nil {
				return nil
			}
			if previous, ok := s.seen[path]; ok && previous.Equal(info.ModTime()) {
				return nil
			}
			if err := s.enqueue(path); err != nil {
				return services.Wrap(services.ErrTransient, "scanner", "enqueue",
					path, err)
			}
			s.seen[path] = info.ModTime()
			enqueued++
			return nil
		})
		if err != nil {
			return enqueued, err
		}
	}
	return enqueued, nil
}

// Run sweeps immediately and then on every interval tick until the context
// is cancelled.
func (s *Scanner) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		count, err := s.Scan(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("library scan failed", logging.Error(err))
		} else if count > 0 {
			s.logger.Info("library scan enqueued files", logging.Int("count", count))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
