package wal

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const headerSize = 1 + 8 + 8 + 4

type segment struct {
	file   *os.File
	path   string
	offset int64
}

func segmentPath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("segment-%06d.wal", index))
}

func openSegment(dir string, index int) (*segment, error) {
	path := segmentPath(dir, index)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &segment{file: f, path: path, offset: info.Size()}, nil
}

func (s *segment) append(b []byte) error {
	n, err := s.file.Write(b)
	if err != nil {
		return err
	}
	s.offset += int64(n)
	return nil
}

func (s *segment) sync() error {
	return s.file.Sync()
}

func (s *segment) close() error {
	return s.file.Close()
}

// listSegments returns segment paths in index order.
func listSegments(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "segment-*.wal"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// highestSegmentIndex finds the newest segment on disk, 0 when none.
func highestSegmentIndex(dir string) (int, error) {
	files, err := listSegments(dir)
	if err != nil {
		return 0, err
	}
	max := 0
	for _, path := range files {
		name := filepath.Base(path)
		name = strings.TrimPrefix(name, "segment-")
		name = strings.TrimSuffix(name, ".wal")
		var idx int
		if _, err := fmt.Sscanf(name, "%d", &idx); err != nil {
			continue
		}
		if idx > max {
			max = idx
		}
	}
	return max, nil
}
