package util

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFileInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "changes.json")
	require.NoError(t, os.WriteFile(path, []byte("[]\n"), 0644))

	info, err := GetFileInfo(path)
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size)
	assert.NotZero(t, info.Inode)

	_, err = GetFileInfo(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestFileInfoReplaced(t *testing.T) {
	prev := &FileInfo{Size: 100, Inode: 7}

	tests := []struct {
		name string
		prev *FileInfo
		next *FileInfo
		want bool
	}{
		{"grown", prev, &FileInfo{Size: 200, Inode: 7}, false},
		{"unchanged", prev, &FileInfo{Size: 100, Inode: 7}, false},
		{"truncated", prev, &FileInfo{Size: 10, Inode: 7}, true},
		{"new_inode", prev, &FileInfo{Size: 300, Inode: 8}, true},
		{"no_previous", nil, &FileInfo{Size: 1, Inode: 1}, false},
		{"no_next", prev, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.prev.Replaced(tt.next))
		})
	}
}

func TestReplacedDetectsRecreatedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "changes.txt")
	require.NoError(t, os.WriteFile(path, []byte("one\n"), 0644))
	first, err := GetFileInfo(path)
	require.NoError(t, err)

	// Keep the old file alive under another name so its inode is not reused.
	require.NoError(t, os.Rename(path, filepath.Join(dir, "old.txt")))
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\n"), 0644))
	second, err := GetFileInfo(path)
	require.NoError(t, err)

	assert.True(t, first.Replaced(second))
}
