package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/evanreyes/classdump/pkg/classfile"
	"github.com/evanreyes/classdump/pkg/classpath"
)

// resolveClassFile loads a class given either a direct path to a .class
// file, or a fully-qualified class name to be found on --classpath (plus
// the JDK's java.base.jmod, if one can be located).
func resolveClassFile(target string) (*classfile.ClassFile, error) {
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		return classfile.ParseFile(target)
	}

	cp := &classpath.Composite{}
	for _, entry := range classPaths {
		cp.Paths = append(cp.Paths, entryClassPath(entry))
	}
	if jmod := classpath.DefaultJavaBaseJmod(); jmod != "" {
		cp.Paths = append(cp.Paths, classpath.NewJmodArchive(jmod))
	}

	return classpath.ParseClass(cp, target)
}

func entryClassPath(entry string) classpath.ClassPath {
	info, err := os.Stat(entry)
	if err == nil && info.IsDir() {
		return &classpath.Directory{Path: entry}
	}
	if strings.HasSuffix(entry, ".jmod") {
		return classpath.NewJmodArchive(entry)
	}
	if strings.HasSuffix(entry, ".jar") {
		return classpath.NewJarArchive(entry)
	}
	if err != nil {
		return &classpath.Directory{Path: entry}
	}
	return &classpath.File{Name: strings.TrimSuffix(filepath.Base(entry), ".class"), Path: entry}
}
