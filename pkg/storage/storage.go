// Package storage reads record payloads from disk and writes batch outputs.
package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// RecordExtensions are the file extensions treated as record payloads.
var RecordExtensions = []string{".xml", ".rdf"}

type Storage struct{}

// FileStats holds metadata about a file without reading its contents.
type FileStats struct {
	SizeBytes int64
	ModTime   time.Time
}

// RecordFile is one record payload on disk.
type RecordFile struct {
	Path        string
	EuropeanaID string
}

func (s *Storage) SaveFile(filePath string, content []byte) error {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating directory: %w", err)
		}
	}
	if err := os.WriteFile(filePath, content, 0644); err != nil {
		return fmt.Errorf("error saving file: %w", err)
	}
	return nil
}

func (s *Storage) ReadFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	return data, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !os.IsNotExist(err)
}

func (s *Storage) HasFile(fn string) bool {
	return fileExists(fn)
}

// GetFileStats returns metadata about a file using os.Stat (no I/O overhead).
func (s *Storage) GetFileStats(filePath string) (*FileStats, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("error getting file stats: %w", err)
	}

	return &FileStats{
		SizeBytes: info.Size(),
		ModTime:   info.ModTime(),
	}, nil
}

func isRecordFile(name string) bool {
	return slices.Contains(RecordExtensions, strings.ToLower(filepath.Ext(name)))
}

// RecordID derives a europeana id from a payload path relative to root:
// root/2021/ship.xml becomes /2021/ship.
func RecordID(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return "/" + filepath.ToSlash(rel)
}

// ListRecords returns the record files under path in lexical order. A
// regular file is returned as is whatever its extension; directories are
// walked recursively and hidden entries skipped.
func (s *Storage) ListRecords(path string) ([]RecordFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error reading record source: %w", err)
	}
	if !info.IsDir() {
		return []RecordFile{{Path: path, EuropeanaID: RecordID(filepath.Dir(path), path)}}, nil
	}

	var files []RecordFile
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != path && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isRecordFile(d.Name()) {
			return nil
		}
		files = append(files, RecordFile{Path: p, EuropeanaID: RecordID(path, p)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking record directory: %w", err)
	}
	return files, nil
}
