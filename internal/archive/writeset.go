package archive

import (
	"os"
	"path/filepath"
)

// writeSet is a staged batch of filesystem writes keyed by destination path.
// Entries accumulate in memory while an archive is inspected; flush commits
// them all at once. If inspection rejects the archive, the set is simply
// dropped and the filesystem is untouched.
type writeSet struct {
	order   []string
	entries map[string][]byte // nil content marks a directory
}

func newWriteSet() *writeSet {
	return &writeSet{entries: make(map[string][]byte)}
}

func (ws *writeSet) addDir(path string) {
	ws.add(path, nil)
}

func (ws *writeSet) addFile(path string, content []byte) {
	if content == nil {
		content = []byte{}
	}
	ws.add(path, content)
}

func (ws *writeSet) add(path string, content []byte) {
	if _, seen := ws.entries[path]; !seen {
		ws.order = append(ws.order, path)
	}
	ws.entries[path] = content
}

// flush writes every staged entry in insertion order, creating parent
// directories as needed.
func (ws *writeSet) flush() error {
	for _, path := range ws.order {
		content := ws.entries[path]
		if content == nil {
			if err := os.MkdirAll(path, 0755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(path, content, 0644); err != nil {
			return err
		}
	}
	return nil
}
