package syncer

import (
	"context"

	"github.com/jadenj13/notesync/internals/notes"
)

// SyncDir processes every note in dir matching notes.NoteGlob: files in name
// order, repositories in discovery order, tickets in file order. Only a scan
// failure or cancellation is returned as an error; everything else is in the
// report.
func (s *Syncer) SyncDir(ctx context.Context, dir string) (Report, error) {
	report := Report{Dir: dir}

	paths, err := notes.Scan(dir)
	if err != nil {
		return report, err
	}
	if len(paths) == 0 {
		s.log.Warn("no git-prefixed markdown files found", "dir", dir)
		return report, nil
	}
	s.log.Info("found note files", "dir", dir, "count", len(paths))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		s.log.Info("processing file", "path", path)
		file := FileResult{Path: path}

		groups := notes.ParseFile(path, s.log)
		if len(groups) == 0 {
			s.log.Warn("no repositories or tickets found", "path", path)
		}
		for _, group := range groups {
			result := s.ProcessGroup(ctx, group)
			if result.OK() {
				s.log.Info("processed repository", "repo", group.Repo,
					"created", result.Count(StatusCreated),
					"skipped", result.Count(StatusSkipped))
			} else {
				s.log.Warn("repository processed with errors", "repo", group.Repo,
					"failed", result.Count(StatusFailed), "err", result.Err)
			}
			file.Repos = append(file.Repos, result)
		}
		report.Files = append(report.Files, file)
	}
	return report, nil
}
