// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/devblok/phalanx/utility/kar"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/mmap"
)

func init() {
	currentUserName = "unknown"
	if u, err := user.Current(); err == nil && u.Name != "" {
		currentUserName = u.Name
	}
}

var (
	currentUserName string
	author          = flag.String("author", "", "Set the author of the package when compressing (defaults to the current user)")
	version         = flag.Int64("version", 1, "Archive version number to create it with")
	extract         = flag.String("e", "", "Extract the archive given")
	list            = flag.Bool("l", false, "Only list the contents of the archive given with -e")
	compress        = flag.String("c", "", "Compress the given file/folder")
	dstFile         = flag.String("f", "out.kar", "Destination file when compressing, destination folder when extracting")
	silent          = flag.Bool("s", false, "Silent")
)

var log = logrus.New()

func main() {
	flag.Parse()
	if *silent {
		log.SetLevel(logrus.WarnLevel)
	}

	var err error
	switch {
	case *extract != "" && *compress != "":
		err = errors.New("only one operation at a time")
	case *extract != "":
		err = extractFiles(*extract, *dstFile, *list)
	case *compress != "":
		err = compressFiles(*compress, *dstFile)
	default:
		flag.PrintDefaults()
	}
	if err != nil {
		log.Errorf("fatal: %v", err)
		os.Exit(1)
	}
}

func compressFiles(root, dstPath string) error {
	if _, err := os.Stat(dstPath); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	var filesToCompress []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		filesToCompress = append(filesToCompress, path)
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "walk %s", root)
	}

	name := *author
	if name == "" {
		name = currentUserName
	}
	karBuilder, err := kar.NewBuilder(kar.Header{
		Author:      name,
		DateCreated: time.Now().Unix(),
		Version:     *version,
	})
	if err != nil {
		return err
	}
	defer karBuilder.Close()

	for _, ftc := range filesToCompress {
		if err := addFile(karBuilder, root, ftc); err != nil {
			return err
		}
	}

	dst, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	n, err := karBuilder.WriteTo(dst)
	if err != nil {
		dst.Close()
		return errors.Wrapf(err, "write %s", dstPath)
	}
	if err := dst.Close(); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"files": karBuilder.Len(),
		"bytes": n,
	}).Infof("wrote %s", dstPath)
	return nil
}

// addFile stores path under its slash separated name relative to root.
func addFile(b *kar.Builder, root, path string) error {
	name, err := filepath.Rel(root, path)
	if err != nil || name == "." {
		name = filepath.Base(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := b.Add(filepath.ToSlash(name), f); err != nil {
		return errors.Wrapf(err, "add %s", path)
	}
	log.Debugf("added %s", name)
	return nil
}

func extractFiles(archivePath, dstDir string, listOnly bool) error {
	r, err := mmap.Open(archivePath)
	if err != nil {
		return err
	}
	defer r.Close()

	archive, err := kar.Open(r)
	if err != nil {
		return errors.Wrapf(err, "open %s", archivePath)
	}

	if listOnly {
		header := archive.Header()
		fmt.Printf("author: %s, version: %d, created: %s\n",
			header.Author, header.Version, time.Unix(header.DateCreated, 0).Format(time.RFC3339))
		for _, entry := range header.Index {
			fmt.Printf("%10d %10d %s\n", entry.Size, entry.CompressedSize, entry.Name)
		}
		return nil
	}

	for _, name := range archive.Names() {
		if err := extractFile(archive, name, dstDir); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(archive *kar.Archive, name, dstDir string) error {
	path := filepath.Join(dstDir, filepath.FromSlash(name))
	if rel, err := filepath.Rel(dstDir, path); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return errors.Errorf("refusing to extract %s outside of %s", name, dstDir)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	src, err := archive.Open(name)
	if err != nil {
		return err
	}
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return errors.Wrapf(err, "extract %s", name)
	}
	log.Debugf("extracted %s", path)
	return dst.Close()
}
