package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FileHandler writes records in the same line format the log endpoints parse:
//
//	[2006-01-02 15:04:05] Produccion.INFO: message {"attr":"value"}
//
// It also mirrors every record to a stdout JSON handler.
type FileHandler struct {
	mu          *sync.Mutex
	file        *os.File
	environment string
	jsonHandler slog.Handler
	attrs       []slog.Attr
}

func NewFileHandler(path, environment string) (*FileHandler, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileHandler{
		mu:          &sync.Mutex{},
		file:        f,
		environment: environment,
		jsonHandler: slog.NewJSONHandler(os.Stdout, nil),
		attrs:       []slog.Attr{},
	}, nil
}

func (h *FileHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARNING"
	case l >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

func (h *FileHandler) Handle(ctx context.Context, r slog.Record) error {
	_ = h.jsonHandler.Handle(ctx, r)

	attrs := make(map[string]any)
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	line := fmt.Sprintf("[%s] %s.%s: %s",
		r.Time.Format("2006-01-02 15:04:05"), h.environment, levelName(r.Level), r.Message)
	if len(attrs) > 0 {
		if b, err := json.Marshal(attrs); err == nil {
			line += " " + string(b)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.file.WriteString(line + "\n")
	return err
}

func (h *FileHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)
	return &FileHandler{
		mu:          h.mu,
		file:        h.file,
		environment: h.environment,
		jsonHandler: h.jsonHandler,
		attrs:       newAttrs,
	}
}

func (h *FileHandler) WithGroup(name string) slog.Handler {
	return h
}
