// Package logs parses the application log file into classified entries and
// serves filtering, pagination, statistics and export over them.
package logs

import (
	"errors"
	"io"
	"os"
)

// ErrNotFound is returned when the log source does not exist.
var ErrNotFound = errors.New("archivo de log no encontrado")

// Source abstracts the log file so the pipeline can run against an in-memory
// fake in tests.
type Source interface {
	ReadAll() (string, error)
	Exists() bool
	WriteAll(content string) error
	CopyTo(path string) error
}

// FileSource reads and writes a log file on disk.
type FileSource struct {
	Path string
}

func (s FileSource) Exists() bool {
	_, err := os.Stat(s.Path)
	return err == nil
}

func (s FileSource) ReadAll() (string, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s FileSource) WriteAll(content string) error {
	return os.WriteFile(s.Path, []byte(content), 0o644)
}

func (s FileSource) CopyTo(path string) error {
	in, err := os.Open(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// MemorySource is an in-memory Source for tests.
type MemorySource struct {
	Content string
	Present bool
	Backups map[string]string
}

func NewMemorySource(content string) *MemorySource {
	return &MemorySource{Content: content, Present: true, Backups: map[string]string{}}
}

func (s *MemorySource) Exists() bool { return s.Present }

func (s *MemorySource) ReadAll() (string, error) {
	if !s.Present {
		return "", ErrNotFound
	}
	return s.Content, nil
}

func (s *MemorySource) WriteAll(content string) error {
	s.Content = content
	s.Present = true
	return nil
}

func (s *MemorySource) CopyTo(path string) error {
	if !s.Present {
		return ErrNotFound
	}
	if s.Backups == nil {
		s.Backups = map[string]string{}
	}
	s.Backups[path] = s.Content
	return nil
}
