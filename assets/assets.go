// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package assets loads the files the renderer needs, either from a
// directory on disk or from a kar archive.
package assets

import (
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/devblok/phalanx/utility/kar"
	"github.com/gobuffalo/packr"
	"github.com/pkg/errors"
	"golang.org/x/exp/mmap"
)

// ArchiveExtension marks a path as a kar archive.
const ArchiveExtension = ".kar"

// Source provides named asset files.
type Source interface {
	Open(name string) ([]byte, error)
	List() []string
}

// Open opens path as an archive if it ends with ArchiveExtension,
// as a directory otherwise.
func Open(path string) (Source, error) {
	if strings.HasSuffix(path, ArchiveExtension) {
		return OpenArchive(path)
	}
	return NewDirSource(path)
}

// NewDirSource creates a Source reading from the directory dir.
func NewDirSource(dir string) (*DirSource, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(err, "assets.NewDirSource()")
	}
	return &DirSource{box: packr.NewBox(abs)}, nil
}

// DirSource is a Source backed by a packr box.
type DirSource struct {
	box packr.Box
}

// Open reads the file name from the box.
func (d *DirSource) Open(name string) ([]byte, error) {
	data, err := d.box.Find(name)
	if err != nil {
		return nil, errors.Wrapf(err, "asset %s", name)
	}
	return data, nil
}

// List returns the files in the box.
func (d *DirSource) List() []string {
	return d.box.List()
}

// NewArchiveSource creates a Source over a kar archive.
func NewArchiveSource(r io.ReaderAt) (*ArchiveSource, error) {
	archive, err := kar.Open(r)
	if err != nil {
		return nil, errors.Wrap(err, "kar.Open()")
	}
	return &ArchiveSource{archive: archive}, nil
}

// OpenArchive memory maps the archive at path. The Source must
// be closed when no longer used.
func OpenArchive(path string) (*ArchiveSource, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "mmap.Open()")
	}
	src, err := NewArchiveSource(r)
	if err != nil {
		r.Close()
		return nil, err
	}
	src.closer = r
	return src, nil
}

// ArchiveSource is a Source backed by a kar archive.
type ArchiveSource struct {
	archive *kar.Archive
	closer  io.Closer
}

// Open decompresses the file name from the archive.
func (a *ArchiveSource) Open(name string) ([]byte, error) {
	data, err := a.archive.ReadAll(name)
	if err != nil {
		return nil, errors.Wrapf(err, "asset %s", name)
	}
	return data, nil
}

// List returns the names in the archive index.
func (a *ArchiveSource) List() []string {
	return a.archive.Names()
}

// Close unmaps the archive if it was opened with OpenArchive.
func (a *ArchiveSource) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// Find returns the first file, in sorted order, whose name ends with suffix.
func Find(src Source, suffix string) (string, bool) {
	names := src.List()
	sort.Strings(names)
	for _, name := range names {
		if strings.HasSuffix(filepath.ToSlash(name), suffix) {
			return name, true
		}
	}
	return "", false
}
