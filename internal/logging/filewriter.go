package logging

import (
	"bufio"
	"fmt"
	"os"
	"sync"
	"time"
)

const (
	bufferSize    = 64 * 1024
	flushInterval = 5 * time.Second
)

// FileWriter is a thread-safe buffered log file writer with size-based
// rotation and periodic flushing
type FileWriter struct {
	path       string
	file       *os.File
	buffer     *bufio.Writer
	rotator    *Rotator
	mu         sync.Mutex
	flushTimer *time.Timer
	closed     bool
}

// NewFileWriter opens (or creates) the log file in append mode. Callers
// that cannot open the file should fall back to console-only logging.
func NewFileWriter(path string, maxSizeMB, maxBackups int) (*FileWriter, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	fw := &FileWriter{
		path:    path,
		file:    file,
		buffer:  bufio.NewWriterSize(file, bufferSize),
		rotator: NewRotator(path, maxSizeMB, maxBackups),
	}

	fw.flushTimer = time.AfterFunc(flushInterval, func() {
		fw.mu.Lock()
		defer fw.mu.Unlock()
		if !fw.closed {
			fw.flushLocked()
			fw.flushTimer.Reset(flushInterval)
		}
	})

	return fw, nil
}

// Write buffers data; implements io.Writer
func (fw *FileWriter) Write(p []byte) (int, error) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.closed {
		return 0, fmt.Errorf("file writer is closed")
	}
	n, err := fw.buffer.Write(p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] Failed to write to log buffer: %v\n", err)
	}
	return n, err
}

// Flush writes the buffer to disk and rotates the file if it exceeds
// the size threshold
func (fw *FileWriter) Flush() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.closed {
		return fmt.Errorf("file writer is closed")
	}
	return fw.flushLocked()
}

// flushLocked does the flush and rotation check; caller holds the mutex
func (fw *FileWriter) flushLocked() error {
	if err := fw.buffer.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] Failed to flush log buffer: %v\n", err)
		return err
	}

	info, err := fw.file.Stat()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] Failed to stat log file: %v\n", err)
		return err
	}

	if fw.rotator.ShouldRotate(info.Size()) {
		if err := fw.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "[ERROR] Failed to rotate log file: %v\n", err)
			return err
		}
	}
	return nil
}

// rotate closes the file, shifts backups, and reopens; caller holds the mutex
func (fw *FileWriter) rotate() error {
	if err := fw.file.Close(); err != nil {
		return fmt.Errorf("failed to close file before rotation: %w", err)
	}

	rotateErr := fw.rotator.Rotate()

	file, err := os.OpenFile(fw.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("could not reopen log file after rotation: %w", err)
	}
	fw.file = file
	fw.buffer = bufio.NewWriterSize(file, bufferSize)

	return rotateErr
}

// Close flushes the buffer and closes the file; call during shutdown
func (fw *FileWriter) Close() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.closed {
		return nil
	}
	fw.closed = true

	if fw.flushTimer != nil {
		fw.flushTimer.Stop()
	}
	if err := fw.buffer.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] Failed to flush buffer during close: %v\n", err)
	}
	if err := fw.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}
