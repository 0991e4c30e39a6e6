package storage

import (
	"os"
	"path/filepath"
	"strings"
)

type FileEntry struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size,omitempty"`
}

var subtitleExtensions = map[string]bool{
	".srt": true, ".vtt": true, ".sub": true, ".txt": true,
}

func IsSubtitleFile(name string) bool {
	return subtitleExtensions[strings.ToLower(filepath.Ext(name))]
}

// ResolvePath joins relativePath onto basePath, rejecting traversal outside
// the library
func ResolvePath(basePath, relativePath string) (string, error) {
	fullPath := filepath.Join(basePath, relativePath)

	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return "", err
	}
	absFull, err := filepath.Abs(fullPath)
	if err != nil {
		return "", err
	}
	if absFull != absBase && !strings.HasPrefix(absFull, absBase+string(os.PathSeparator)) {
		return "", os.ErrPermission
	}
	return fullPath, nil
}

// ListDirectory lists one level of the subtitle library. Directories and
// subtitle files are returned; everything else is filtered out.
func ListDirectory(basePath, relativePath string) ([]*FileEntry, error) {
	fullPath, err := ResolvePath(basePath, relativePath)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, err
	}

	var result []*FileEntry
	for _, entry := range entries {
		// Skip hidden files
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if !entry.IsDir() && !IsSubtitleFile(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		fe := &FileEntry{
			Name:  entry.Name(),
			Path:  filepath.Join(relativePath, entry.Name()),
			IsDir: entry.IsDir(),
		}
		if !entry.IsDir() {
			fe.Size = info.Size()
		}
		result = append(result, fe)
	}
	return result, nil
}

// ReadSubtitle reads a subtitle file from the library by relative path
func ReadSubtitle(basePath, relativePath string) (string, error) {
	if !IsSubtitleFile(relativePath) {
		return "", os.ErrInvalid
	}
	fullPath, err := ResolvePath(basePath, relativePath)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
