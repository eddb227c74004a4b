package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const currentLogName = "audit.log"

// FileLogger writes events to <BasePath>/audit.log and rotates it once it
// grows past MaxSize, keeping at most MaxFiles rotated files.
type FileLogger struct {
	mu       sync.Mutex
	basePath string
	maxSize  int64
	maxFiles int
	file     *os.File
	stream   *StreamLogger
	size     int64
}

// FileLoggerConfig configures the file logger
type FileLoggerConfig struct {
	BasePath string
	MaxSize  int64 // bytes; default 100MB
	MaxFiles int   // default 10
}

// NewFileLogger creates the directory if needed and opens audit.log for append
func NewFileLogger(config FileLoggerConfig) (*FileLogger, error) {
	if config.BasePath == "" {
		return nil, fmt.Errorf("audit log directory is required")
	}
	if err := os.MkdirAll(config.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	l := &FileLogger{
		basePath: config.BasePath,
		maxSize:  config.MaxSize,
		maxFiles: config.MaxFiles,
	}
	if l.maxSize <= 0 {
		l.maxSize = 100 * 1024 * 1024
	}
	if l.maxFiles <= 0 {
		l.maxFiles = 10
	}

	if err := l.open(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *FileLogger) open() error {
	name := filepath.Join(l.basePath, currentLogName)
	file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to stat audit log file: %w", err)
	}

	l.file = file
	l.size = info.Size()
	l.stream = NewStreamLogger(countingWriter{l})
	return nil
}

// countingWriter tracks bytes written so rotation needs no stat per event
type countingWriter struct{ l *FileLogger }

func (w countingWriter) Write(p []byte) (int, error) {
	n, err := w.l.file.Write(p)
	w.l.size += int64(n)
	return n, err
}

// Log writes one event, rotating first if the file is full
func (l *FileLogger) Log(ctx context.Context, event *Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return fmt.Errorf("audit log is closed")
	}
	if l.size >= l.maxSize {
		if err := l.rotate(); err != nil {
			return err
		}
	}
	return l.stream.Log(ctx, event)
}

func (l *FileLogger) rotate() error {
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("failed to close audit log for rotation: %w", err)
	}
	l.file = nil

	current := filepath.Join(l.basePath, currentLogName)
	rotated := filepath.Join(l.basePath, fmt.Sprintf("audit-%s.log", time.Now().UTC().Format("20060102-150405.000000000")))
	if err := os.Rename(current, rotated); err != nil {
		return fmt.Errorf("failed to rotate audit log: %w", err)
	}

	if err := l.cleanup(); err != nil {
		return err
	}
	return l.open()
}

// cleanup removes the oldest rotated files beyond maxFiles
func (l *FileLogger) cleanup() error {
	matches, err := filepath.Glob(filepath.Join(l.basePath, "audit-*.log"))
	if err != nil {
		return fmt.Errorf("failed to list rotated audit logs: %w", err)
	}
	if len(matches) <= l.maxFiles {
		return nil
	}

	// Timestamped names sort chronologically
	sort.Strings(matches)
	for _, old := range matches[:len(matches)-l.maxFiles] {
		if err := os.Remove(old); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", filepath.Base(old), err)
		}
	}
	return nil
}

// Close closes the current file
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
