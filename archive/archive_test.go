package archive

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/angi-lang/angi/errz"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, entries map[string]string, order ...string) []byte {
	t.Helper()
	a := New()
	for _, name := range order {
		require.NoError(t, a.Add(name, []byte(entries[name])))
	}
	data, err := a.Bytes()
	require.NoError(t, err)
	return data
}

func TestRoundTrip(t *testing.T) {
	entries := map[string]string{
		BytecodeEntry:              "\x41\x4e\x47\x49code",
		"templates/index.html":     "<h1>{{.}}</h1>",
		"templates/partials/x.txt": "",
	}
	data := build(t, entries, BytecodeEntry, "templates/index.html", "templates/partials/x.txt")
	require.True(t, IsArchive(data))
	require.Equal(t, uint32(len(data)), binary.BigEndian.Uint32(data[len(data)-4:]))

	ex, err := NewExtractor(data)
	require.NoError(t, err)
	require.Equal(t, []string{BytecodeEntry, "templates/index.html", "templates/partials/x.txt"}, ex.Names())
	for name, want := range entries {
		got, err := ex.Entry(name)
		require.NoError(t, err)
		require.Equal(t, want, string(got))
	}

	page, err := ex.Asset("index.html")
	require.NoError(t, err)
	require.Equal(t, "<h1>{{.}}</h1>", string(page))
}

func TestEmptyArchive(t *testing.T) {
	data, err := New().Bytes()
	require.NoError(t, err)
	require.Len(t, data, 16)
	ex, err := NewExtractor(data)
	require.NoError(t, err)
	require.Empty(t, ex.Names())
}

func TestDuplicateEntry(t *testing.T) {
	a := New()
	require.NoError(t, a.Add("x", []byte("1")))
	err := a.Add("x", []byte("2"))
	require.True(t, errors.Is(err, errz.ErrFormat))
	require.Equal(t, 1, a.Len())
}

func TestMissingEntry(t *testing.T) {
	ex, err := NewExtractor(build(t, map[string]string{"a": "1"}, "a"))
	require.NoError(t, err)
	_, err = ex.Entry("b")
	require.Error(t, err)
	require.Contains(t, err.Error(), `archive entry "b" not found`)
}

func TestCorruptArchive(t *testing.T) {
	valid := build(t, map[string]string{"a": "hello"}, "a")

	badMagic := append([]byte(nil), valid...)
	copy(badMagic, "ANGI")

	badTotal := append([]byte(nil), valid...)
	binary.BigEndian.PutUint32(badTotal[len(badTotal)-4:], 3)

	badCount := append([]byte(nil), valid...)
	binary.BigEndian.PutUint32(badCount[len(badCount)-12:], 2)

	badOffset := append([]byte(nil), valid...)
	// The entry offset follows the name length and the one-byte name.
	manifestStart := len(valid) - 12 - 13
	binary.BigEndian.PutUint32(badOffset[manifestStart+5:], 1000)

	inputs := map[string][]byte{
		"empty":     nil,
		"short":     []byte("ANGA"),
		"magic":     badMagic,
		"total":     badTotal,
		"count":     badCount,
		"offset":    badOffset,
		"truncated": valid[:len(valid)-1],
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			require.NotPanics(t, func() {
				_, err := NewExtractor(input)
				require.Error(t, err)
			})
		})
	}
}

func TestOpenTrailing(t *testing.T) {
	data := build(t, map[string]string{BytecodeEntry: "payload"}, BytecodeEntry)
	path := filepath.Join(t.TempDir(), "server")
	content := append([]byte("#!fake executable\x00\x01\x02"), data...)
	require.NoError(t, os.WriteFile(path, content, 0o755))

	ex, err := Open(path)
	require.NoError(t, err)
	got, err := ex.Entry(BytecodeEntry)
	require.NoError(t, err)
	require.Equal(t, "payload", string(got))
}

func TestAddDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "blog"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("index"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blog", "post.html"), []byte("post"), 0o644))

	a := New()
	require.NoError(t, a.AddDir(TemplatePrefix, dir))
	data, err := a.Bytes()
	require.NoError(t, err)

	ex, err := NewExtractor(data)
	require.NoError(t, err)
	require.Equal(t, []string{"templates/blog/post.html", "templates/index.html"}, ex.Names())
	post, err := ex.Asset("blog/post.html")
	require.NoError(t, err)
	require.Equal(t, "post", string(post))
}

func TestProgram(t *testing.T) {
	program := []byte{0x41, 0x4E, 0x47, 0x49, 0, 0, 0, 1}
	bundle := build(t, map[string]string{BytecodeEntry: string(program)}, BytecodeEntry)

	got, err := Program(program)
	require.NoError(t, err)
	require.Equal(t, program, got)

	got, err = Program(bundle)
	require.NoError(t, err)
	require.Equal(t, program, got)

	got, err = Program(append([]byte("runtime"), bundle...))
	require.NoError(t, err)
	require.Equal(t, program, got)

	_, err = Program([]byte("neither"))
	require.Error(t, err)
}
