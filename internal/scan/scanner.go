package scan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Zuo-Peng/chatdigest/internal/parse"
)

type FileInfo struct {
	Path  string
	Kind  string // parse.KindText, KindHTML, KindJSON or KindMail
	Mtime int64
	Size  int64
}

// ScanRoots walks each root for chat sources. Missing roots are skipped.
// Files come back sorted by path so a run is reproducible; that order is
// also the cross-file order the deduplicator sees.
func ScanRoots(roots ...string) ([]FileInfo, error) {
	var files []FileInfo
	for _, root := range roots {
		if root == "" {
			continue
		}
		found, err := scanRoot(root)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		files = append(files, found...)
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func scanRoot(root string) ([]FileInfo, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}

	var files []FileInfo
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable dirs
		}
		base := filepath.Base(path)
		if info.IsDir() {
			if path != root && strings.HasPrefix(base, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(base, ".") || !info.Mode().IsRegular() {
			return nil
		}
		kind := parse.KindFor(path)
		if kind == "" || (kind == parse.KindText && filepath.Ext(path) == "") {
			return nil
		}
		files = append(files, FileInfo{
			Path:  path,
			Kind:  kind,
			Mtime: info.ModTime().Unix(),
			Size:  info.Size(),
		})
		return nil
	})
	return files, err
}
