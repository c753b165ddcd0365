package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// File stores each slot as a file under a state directory, so state survives
// restarts of the process on the same machine.
type File struct {
	dir string
}

func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state dir: %w", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) path(slot string) string {
	return filepath.Join(f.dir, slot+".json")
}

func (f *File) Write(ctx context.Context, slot string, data []byte) error {
	// Write through a temp file so a crash mid-write never leaves a
	// half-serialized slot behind.
	tmp := f.path(slot) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write slot %s: %w", slot, err)
	}
	if err := os.Rename(tmp, f.path(slot)); err != nil {
		return fmt.Errorf("failed to commit slot %s: %w", slot, err)
	}
	return nil
}

func (f *File) Read(ctx context.Context, slot string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.path(slot))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read slot %s: %w", slot, err)
	}
	return data, true, nil
}

func (f *File) Clear(ctx context.Context, slot string) error {
	err := os.Remove(f.path(slot))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear slot %s: %w", slot, err)
	}
	return nil
}
