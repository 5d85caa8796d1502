package classpath

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestFileClassPathMatchesByName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Widget.class")
	writeFile(t, path, []byte("classbytes"))

	cp := &File{Name: "com.example.Widget", Path: path}

	rc, err := cp.FindClass("com/example/Widget")
	require.NoError(t, err)
	require.NotNil(t, rc)
	defer rc.Close()

	rc2, err := cp.FindClass("com.example.Other")
	require.NoError(t, err)
	assert.Nil(t, rc2)
}

func TestDirectoryClassPathResolvesNestedPackage(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "com", "example", "Widget.class"), []byte("classbytes"))

	cp := &Directory{Path: dir}
	rc, err := cp.FindClass("com.example.Widget")
	require.NoError(t, err)
	require.NotNil(t, rc)
	rc.Close()

	rc2, err := cp.FindClass("com.example.Missing")
	require.NoError(t, err)
	assert.Nil(t, rc2)
}

func buildZip(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, data := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestArchiveClassPathJarLayout(t *testing.T) {
	dir := t.TempDir()
	jarPath := filepath.Join(dir, "lib.jar")
	writeFile(t, jarPath, buildZip(t, map[string][]byte{
		"com/example/Widget.class": []byte("classbytes"),
	}))

	cp := NewJarArchive(jarPath)
	rc, err := cp.FindClass("com.example.Widget")
	require.NoError(t, err)
	require.NotNil(t, rc)
	rc.Close()
}

func TestArchiveClassPathJmodLayoutSkipsMagicHeader(t *testing.T) {
	dir := t.TempDir()
	jmodPath := filepath.Join(dir, "java.base.jmod")

	zipData := buildZip(t, map[string][]byte{
		"classes/java/lang/Object.class": []byte("classbytes"),
	})
	var jmod bytes.Buffer
	jmod.WriteString("JM\x01\x00")
	jmod.Write(zipData)
	writeFile(t, jmodPath, jmod.Bytes())

	cp := NewJmodArchive(jmodPath)
	rc, err := cp.FindClass("java.lang.Object")
	require.NoError(t, err)
	require.NotNil(t, rc)
	rc.Close()
}

func TestCompositeSearchesInOrderFirstHitWins(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()
	writeFile(t, filepath.Join(dir1, "com", "example", "Widget.class"), []byte("from-dir1"))
	writeFile(t, filepath.Join(dir2, "com", "example", "Widget.class"), []byte("from-dir2"))
	writeFile(t, filepath.Join(dir2, "com", "example", "Gadget.class"), []byte("from-dir2"))

	cp := &Composite{Paths: []ClassPath{&Directory{Path: dir1}, &Directory{Path: dir2}}}
	rc, err := cp.FindClass("com.example.Widget")
	require.NoError(t, err)
	require.NotNil(t, rc)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "from-dir1", string(data))

	rc3, err := cp.FindClass("com.example.Gadget")
	require.NoError(t, err)
	require.NotNil(t, rc3)
	rc3.Close()

	rc2, err := cp.FindClass("com.example.Missing")
	require.NoError(t, err)
	assert.Nil(t, rc2)
}
