// Package classpath locates the raw bytes of a named class across files,
// directories, and zip-based archives (JARs and JDK jmods), the way a
// JVM's bootstrap/application class loaders do. It never constructs a
// classfile.ClassFile itself — callers that want a parsed class call
// classfile.Parse on the returned stream.
package classpath

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ClassPath finds the bytecode stream for a fully-qualified class name
// (dots or slashes; implementations normalize). It returns (nil, nil)
// when the class simply isn't present, reserving a non-nil error for
// unexpected I/O failures.
type ClassPath interface {
	FindClass(name string) (io.ReadCloser, error)
}

func normalize(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}

// Composite searches each ClassPath in order, the way a JVM's
// parent-delegation model tries its parent before itself.
type Composite struct {
	Paths []ClassPath
}

func (c *Composite) FindClass(name string) (io.ReadCloser, error) {
	for _, p := range c.Paths {
		rc, err := p.FindClass(name)
		if err != nil {
			return nil, err
		}
		if rc != nil {
			return rc, nil
		}
	}
	return nil, nil
}

// File matches a single class name to a single file on disk.
type File struct {
	Name string
	Path string
}

func (f *File) FindClass(name string) (io.ReadCloser, error) {
	if normalize(f.Name) != normalize(name) {
		return nil, nil
	}
	file, err := os.Open(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "classpath: opening %s", f.Path)
	}
	return file, nil
}

// Directory resolves a class name to <dir>/<name with '/'>.class.
type Directory struct {
	Path string
}

func (d *Directory) FindClass(name string) (io.ReadCloser, error) {
	path := filepath.Join(d.Path, filepath.FromSlash(normalize(name))+".class")
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "classpath: opening %s", path)
	}
	return file, nil
}

// Archive resolves classes out of a zip-format file: a JAR (entries
// named "pkg/Name.class" at the archive root) or a JDK jmod (entries
// named "classes/pkg/Name.class", with a 4-byte "JM\x01\x00" header
// before the zip payload). EntryPrefix picks which layout to use.
type Archive struct {
	Path        string
	EntryPrefix string // "" for JARs, "classes/" for jmods

	reader *zip.Reader
	data   []byte
}

// NewJarArchive returns an Archive over path in the plain JAR layout. The
// file is not read until the first FindClass call.
func NewJarArchive(path string) *Archive {
	return &Archive{Path: path}
}

// NewJmodArchive returns an Archive over path as a JDK jmod: a zip archive
// prefixed with a 4-byte "JM\x01\x00" magic and a "classes/" entry prefix.
// The file is not read until the first FindClass call.
func NewJmodArchive(path string) *Archive {
	return &Archive{Path: path, EntryPrefix: "classes/"}
}

func (a *Archive) ensureOpen() error {
	if a.reader != nil {
		return nil
	}
	raw, err := os.ReadFile(a.Path)
	if err != nil {
		return errors.Wrapf(err, "classpath: reading %s", a.Path)
	}
	data := raw
	if a.EntryPrefix != "" {
		if len(data) < 4 {
			return fmt.Errorf("classpath: %s is too short to be a jmod", a.Path)
		}
		data = data[4:] // skip "JM\x01\x00"
	}
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return errors.Wrapf(err, "classpath: opening zip in %s", a.Path)
	}
	a.data = data
	a.reader = reader
	return nil
}

func (a *Archive) FindClass(name string) (io.ReadCloser, error) {
	if err := a.ensureOpen(); err != nil {
		return nil, err
	}
	target := a.EntryPrefix + normalize(name) + ".class"
	for _, f := range a.reader.File {
		if f.Name == target {
			rc, err := f.Open()
			if err != nil {
				return nil, errors.Wrapf(err, "classpath: opening %s in %s", target, a.Path)
			}
			return rc, nil
		}
	}
	return nil, nil
}
