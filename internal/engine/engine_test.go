package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArchive(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
	return path
}

func TestListSortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, dir, "WS12WineCX64Bit23.tar.gz", 10)
	writeArchive(t, dir, "WS11WineCX64Bit22.tar.gz", 20)
	writeArchive(t, dir, "README.txt", 5)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))

	m := NewManager(dir)
	engines, err := m.List()
	require.NoError(t, err)
	require.Len(t, engines, 2)
	assert.Equal(t, "WS11WineCX64Bit22", engines[0].Name)
	assert.Equal(t, "WS12WineCX64Bit23", engines[1].Name)
	assert.Equal(t, int64(20), engines[0].Size)
}

func TestListMissingDir(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "absent"))

	engines, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, engines)
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, dir, "Eng.tar.gz", 1)
	m := NewManager(dir)

	e, err := m.Resolve("Eng")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Eng.tar.gz"), e.Path)

	_, err = m.Resolve("Missing")
	require.Error(t, err)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Missing", notFound.Name)
}

func TestInstall(t *testing.T) {
	src := writeArchive(t, t.TempDir(), "NewEngine.tar.gz", 64)
	dir := filepath.Join(t.TempDir(), "engines")
	m := NewManager(dir)

	e, err := m.Install(src)
	require.NoError(t, err)
	assert.Equal(t, "NewEngine", e.Name)
	assert.Equal(t, int64(64), e.Size)

	engines, err := m.List()
	require.NoError(t, err)
	require.Len(t, engines, 1)
}

func TestInstallRejectsBadSuffix(t *testing.T) {
	src := writeArchive(t, t.TempDir(), "engine.zip", 8)
	m := NewManager(t.TempDir())

	_, err := m.Install(src)
	assert.Error(t, err)
}

func TestDefaultConfigured(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, dir, "A.tar.gz", 1)
	writeArchive(t, dir, "B.tar.gz", 1)
	m := NewManager(dir)

	e, err := m.Default("A")
	require.NoError(t, err)
	assert.Equal(t, "A", e.Name)

	_, err = m.Default("Z")
	assert.Error(t, err)
}

func TestDefaultNewest(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, dir, "WS11WineCX64Bit22.tar.gz", 1)
	writeArchive(t, dir, "WS12WineCX64Bit23.tar.gz", 1)
	m := NewManager(dir)

	e, err := m.Default("")
	require.NoError(t, err)
	assert.Equal(t, "WS12WineCX64Bit23", e.Name)
}

func TestDefaultEmpty(t *testing.T) {
	m := NewManager(t.TempDir())

	_, err := m.Default("")
	assert.Error(t, err)
}
