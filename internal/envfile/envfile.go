// Package envfile rewrites single entries in a dotenv-style KEY=value
// file without disturbing the rest of it. It exists because a rotated
// refresh token must be written back to the same file the user keeps
// their other secrets in, and losing or mangling those would be worse
// than losing the rotation.
package envfile

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const defaultMode fs.FileMode = 0o600

// Store persists individual keys to one env file.
type Store struct {
	path string
}

// New creates a store for the given file path. The file does not need
// to exist yet.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the underlying file path.
func (s *Store) Path() string {
	return s.path
}

// Set rewrites the entry for key in place, appends it if the key is not
// present, or creates the file if it does not exist. Every other line,
// including comments and unknown keys, is preserved byte for byte. The
// new content is written to a temporary file in the same directory and
// renamed over the original, so a crash mid-write leaves the old file
// intact.
func (s *Store) Set(key, value string) error {
	content, mode, err := s.read()
	if err != nil {
		return err
	}

	entry := key + "=" + value

	lines := strings.Split(content, "\n")
	replaced := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), key+"=") {
			lines[i] = entry
			replaced = true
			break
		}
	}
	content = strings.Join(lines, "\n")

	if !replaced {
		if content != "" && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		content += entry + "\n"
	} else if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}

	return s.replace(content, mode)
}

func (s *Store) read() (content string, mode fs.FileMode, err error) {
	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", defaultMode, nil
		}
		return "", 0, fmt.Errorf("failed to stat %s: %w", s.path, err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return string(data), info.Mode().Perm(), nil
}

func (s *Store) replace(content string, mode fs.FileMode) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to set temp file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
