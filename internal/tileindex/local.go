package tileindex

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// LocalIndex reads a tile from the local filesystem. The file stays open
// while the index is valid; Close releases it.
type LocalIndex struct {
	mu   sync.Mutex
	file *os.File
	info Info
	err  error
}

// NewLocalIndex returns an unloaded local index.
func NewLocalIndex() *LocalIndex {
	return &LocalIndex{}
}

// Load opens path and decodes its public header.
func (l *LocalIndex) Load(ctx context.Context, path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.err = l.load(ctx, path)
	return l.err
}

func (l *LocalIndex) load(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open tile: %w", err)
	}

	buf := make([]byte, HeaderProbeSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		f.Close()
		return fmt.Errorf("read header: %w", err)
	}

	info, err := decodeHeader(path, buf[:n])
	if err != nil {
		f.Close()
		return err
	}

	if l.file != nil {
		l.file.Close()
	}
	l.file = f
	l.info = info
	return nil
}

// IsValid reports whether the last Load succeeded.
func (l *LocalIndex) IsValid() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file != nil && l.err == nil
}

// Err returns the error of the last Load.
func (l *LocalIndex) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Info returns the decoded header.
func (l *LocalIndex) Info() Info {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.info
}

// Close releases the open file. The index is invalid afterwards.
func (l *LocalIndex) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.info = Info{}
	return err
}
