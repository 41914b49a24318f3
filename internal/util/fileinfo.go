package util

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// FileInfo contains the parts of a stat result used to notice that a sink file
// was truncated or replaced.
type FileInfo struct {
	Size  int64  // File size in bytes
	Inode uint64 // Inode number (unique file identifier on Unix-like systems)
}

// GetFileInfo stats path. Supported on Linux and macOS.
func GetFileInfo(path string) (*FileInfo, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	return &FileInfo{
		Size:  st.Size,
		Inode: uint64(st.Ino),
	}, nil
}

// Replaced reports whether next describes a different or truncated file
// compared to prev.
func (prev *FileInfo) Replaced(next *FileInfo) bool {
	if prev == nil || next == nil {
		return false
	}
	return prev.Inode != next.Inode || next.Size < prev.Size
}
