package notes

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// NoteGlob selects the note files a directory scan picks up.
const NoteGlob = "git *.md"

// Scan lists the notes in dir matching NoteGlob, sorted by name.
func Scan(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan %s: not a directory", dir)
	}

	matches, err := filepath.Glob(filepath.Join(dir, NoteGlob))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(matches)
	return matches, nil
}
