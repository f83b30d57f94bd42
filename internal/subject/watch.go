package subject

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Watch polls subject config files and drops the cache entries of any
// file whose mtime changed, so hand edits show up without a restart.
// One ticker for the whole directory, never a check per request.
// Blocks until ctx is done.
func (s *Service) Watch(ctx context.Context, interval time.Duration) {
	if s.cache == nil {
		return
	}
	seen := map[string]time.Time{}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkMtimes(seen)
		}
	}
}

func (s *Service) checkMtimes(seen map[string]time.Time) {
	subjects, err := s.Available()
	if err != nil {
		slog.Warn("subject watch: list failed", "error", err)
		return
	}
	for _, subject := range subjects {
		for file, key := range map[string]string{
			knowledgeBaseFile: "kb:" + subject,
			testModelFile:     "tm:" + subject,
		} {
			path := filepath.Join(s.dir, subject, file)
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			prev, ok := seen[path]
			seen[path] = info.ModTime()
			if ok && !info.ModTime().Equal(prev) {
				s.cache.Delete(key)
				slog.Info("subject config changed, cache invalidated", "subject", subject, "file", file)
			}
		}
	}
}
