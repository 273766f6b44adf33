package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScene(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: demo
components: [Transform, Light]
timelines:
  - name: intro
    file: timelines/intro.tsq
scripts:
  - name: cues
    file: /abs/cues.lua
tables:
  - table: items
    file: items.tmd
`), 0o644))

	s, err := LoadScene(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", s.Name)
	assert.Equal(t, []string{"Transform", "Light"}, s.Components)
	require.Len(t, s.Timelines, 1)
	assert.Equal(t, filepath.Join(dir, "timelines/intro.tsq"), s.Resolve(s.Timelines[0].File))
	assert.Equal(t, "/abs/cues.lua", s.Resolve(s.Scripts[0].File))
	assert.Equal(t, "items", s.Tables[0].Table)
}

func TestLoadSceneRejectsIncompleteEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timelines:\n  - name: nofile\n"), 0o644))
	_, err := LoadScene(path)
	assert.Error(t, err)
}

func TestDecodeCharsets(t *testing.T) {
	text, err := Decode([]byte("plain"), "")
	require.NoError(t, err)
	assert.Equal(t, "plain", text)

	// 0xA4 0xA4 is 中 in Big5.
	text, err = Decode([]byte{0xA4, 0xA4}, "big5")
	require.NoError(t, err)
	assert.Equal(t, "中", text)

	// 0xE9 is é in windows-1252.
	text, err = Decode([]byte{0xE9}, "windows-1252")
	require.NoError(t, err)
	assert.Equal(t, "é", text)

	_, err = Decode([]byte("x"), "no-such-charset")
	assert.Error(t, err)
}

func TestReadText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.tmd")
	require.NoError(t, os.WriteFile(path, []byte("k: v"), 0o644))
	text, err := ReadText(path, "utf-8")
	require.NoError(t, err)
	assert.Equal(t, "k: v", text)

	_, err = ReadText(filepath.Join(t.TempDir(), "missing"), "utf-8")
	assert.Error(t, err)
}
