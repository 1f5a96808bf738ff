package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindHomeDirectory(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	res, err := FindHomeDirectory()
	require.NoError(t, err)
	assert.Equal(t, home, res)

	t.Setenv("HOME", filepath.Join(home, "no-such-dir"))
	_, err = FindHomeDirectory()
	assert.ErrorIs(t, err, ErrHomeDirectory)

	t.Setenv("HOME", "")
	_, err = FindHomeDirectory()
	assert.ErrorIs(t, err, ErrHomeDirectory)
}

func TestDefaultPaths(t *testing.T) {
	p := DefaultPaths("/home/user")
	assert.Equal(t, "/home/user/.config/rbackup/jobs.json", p.ConfigPath)
	assert.Equal(t, "/home/user/.local/share/rbackup", p.BackupPath)
	assert.Equal(t, "/home/user/.config/systemd/user", p.UnitDir)
}

func TestLoadDocument(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		doc, err := LoadDocument(filepath.Join(dir, "no-such-file.json"))
		require.NoError(t, err)
		assert.NotNil(t, doc)
		assert.Empty(t, doc)
	})

	t.Run("valid", func(t *testing.T) {
		fname := filepath.Join(dir, "valid.json")
		require.NoError(t, os.WriteFile(fname, []byte(`{"a":{"name":"a"},"b":{"name":"b"}}`), 0o600))
		doc, err := LoadDocument(fname)
		require.NoError(t, err)
		assert.Len(t, doc, 2)
		assert.JSONEq(t, `{"name":"a"}`, string(doc["a"]))
	})

	t.Run("null", func(t *testing.T) {
		fname := filepath.Join(dir, "null.json")
		require.NoError(t, os.WriteFile(fname, []byte(`null`), 0o600))
		doc, err := LoadDocument(fname)
		require.NoError(t, err)
		assert.NotNil(t, doc)
		assert.Empty(t, doc)
	})

	t.Run("corrupted", func(t *testing.T) {
		for _, body := range []string{`{"a":{"name":`, ``, `[1,2,3]`, `not json`} {
			fname := filepath.Join(dir, "bad.json")
			require.NoError(t, os.WriteFile(fname, []byte(body), 0o600))
			_, err := LoadDocument(fname)
			assert.ErrorIs(t, err, ErrMalformed, body)
		}
	})

	t.Run("unreadable", func(t *testing.T) {
		_, err := LoadDocument(dir) // directory can't be read as a file
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrMalformed)
	})
}

func TestJSONFile_SaveLoad(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "sub", "dir", "jobs.json")
	f := NewJSONFile(fname)
	assert.Equal(t, fname, f.String())

	doc, err := f.Load()
	require.NoError(t, err)
	assert.Empty(t, doc)

	doc = Document{
		"nightly": json.RawMessage(`{"name":"nightly","source":"/src"}`),
		"weekly":  json.RawMessage(`{"name":"weekly"}`),
	}
	require.NoError(t, f.Save(doc))

	st, err := os.Stat(fname)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	res, err := f.Load()
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.JSONEq(t, `{"name":"nightly","source":"/src"}`, string(res["nightly"]))

	// overwrite with smaller document
	require.NoError(t, f.Save(Document{"weekly": json.RawMessage(`{"name":"weekly"}`)}))
	res, err = f.Load()
	require.NoError(t, err)
	assert.Len(t, res, 1)

	// no temporary files left behind
	entries, err := os.ReadDir(filepath.Dir(fname))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestJSONFile_LoadMakesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "home", ".config", "rbackup")
	f := NewJSONFile(filepath.Join(dir, "jobs.json"))
	doc, err := f.Load()
	require.NoError(t, err)
	assert.Empty(t, doc)

	st, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, st.IsDir())
	assert.Equal(t, os.FileMode(0o700), st.Mode().Perm())

	t.Run("parent is a file", func(t *testing.T) {
		parent := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(parent, []byte("x"), 0o600))
		_, err := NewJSONFile(filepath.Join(parent, "rbackup", "jobs.json")).Load()
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrMalformed)
	})
}

func TestJSONFile_SaveFailed(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "jobs.json")
	f := NewJSONFile(fname)
	require.NoError(t, f.Save(Document{"a": json.RawMessage(`{"name":"a"}`)}))

	t.Run("invalid record keeps old content", func(t *testing.T) {
		err := f.Save(Document{"a": json.RawMessage(`{"name":`)})
		require.Error(t, err)
		res, err := f.Load()
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"a"}`, string(res["a"]))
	})

	t.Run("target is a directory", func(t *testing.T) {
		target := filepath.Join(dir, "as-dir")
		require.NoError(t, os.MkdirAll(filepath.Join(target, "child"), 0o700))
		err := NewJSONFile(target).Save(Document{})
		require.Error(t, err)
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 2, "temporary file removed")
	})

	t.Run("parent is a file", func(t *testing.T) {
		err := NewJSONFile(filepath.Join(fname, "jobs.json")).Save(Document{})
		require.Error(t, err)
	})
}
