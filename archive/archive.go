// Package archive bundles named byte blobs into a single payload that can be
// appended to an executable and located again from the end of the file.
//
// Layout, all integers big-endian u32:
//
//	[magic "ANGA"][blob]
//	[name length][name][offset][size]   one per entry
//	[entry count][manifest size][total size]
//
// Entry offsets are relative to the start of the archive. The total size
// includes the magic and the trailing fields, so the archive can be read
// backwards from the end of a file.
package archive

import (
	"bytes"
	"encoding/binary"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/angi-lang/angi/bytecode"
	"github.com/angi-lang/angi/errz"
)

// Magic identifies an archive ("ANGA").
var Magic = [4]byte{'A', 'N', 'G', 'A'}

const (
	// BytecodeEntry is the entry holding the compiled program.
	BytecodeEntry = "bytecode"
	// TemplatePrefix prefixes the entries holding HTML templates.
	TemplatePrefix = "templates/"

	trailerSize = 12
)

// IsArchive reports whether data starts with the archive magic and is long
// enough to hold the trailer.
func IsArchive(data []byte) bool {
	return len(data) >= len(Magic)+trailerSize && bytes.Equal(data[:len(Magic)], Magic[:])
}

type entry struct {
	name   string
	offset uint32
	size   uint32
}

// Archiver collects entries and serializes them.
type Archiver struct {
	blob    []byte
	entries []entry
	names   map[string]bool
}

// New returns an empty Archiver.
func New() *Archiver {
	return &Archiver{names: map[string]bool{}}
}

// Add appends an entry. Entry names must be unique.
func (a *Archiver) Add(name string, data []byte) error {
	if name == "" {
		return errz.New(errz.FormatError, "archive entry name is empty")
	}
	if a.names[name] {
		return errz.New(errz.FormatError, "duplicate archive entry %q", name)
	}
	a.names[name] = true
	a.entries = append(a.entries, entry{
		name:   name,
		offset: uint32(len(Magic) + len(a.blob)),
		size:   uint32(len(data)),
	})
	a.blob = append(a.blob, data...)
	return nil
}

// AddFile adds the contents of a file as an entry.
func (a *Archiver) AddFile(name, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	return a.Add(name, data)
}

// AddDir adds every regular file below dir. Entry names are the slash
// separated paths relative to dir, with prefix prepended.
func (a *Archiver) AddDir(prefix, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		return a.AddFile(prefix+filepath.ToSlash(rel), p)
	})
}

// Len returns the number of entries.
func (a *Archiver) Len() int {
	return len(a.entries)
}

// Bytes serializes the archive.
func (a *Archiver) Bytes() ([]byte, error) {
	var manifest []byte
	for _, e := range a.entries {
		manifest = binary.BigEndian.AppendUint32(manifest, uint32(len(e.name)))
		manifest = append(manifest, e.name...)
		manifest = binary.BigEndian.AppendUint32(manifest, e.offset)
		manifest = binary.BigEndian.AppendUint32(manifest, e.size)
	}
	total := uint64(len(Magic)) + uint64(len(a.blob)) + uint64(len(manifest)) + trailerSize
	if total > 1<<32-1 {
		return nil, errz.New(errz.FormatError, "archive too large (%d bytes)", total)
	}
	out := make([]byte, 0, total)
	out = append(out, Magic[:]...)
	out = append(out, a.blob...)
	out = append(out, manifest...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(a.entries)))
	out = binary.BigEndian.AppendUint32(out, uint32(len(manifest)))
	out = binary.BigEndian.AppendUint32(out, uint32(total))
	return out, nil
}

// Extractor reads entries from a serialized archive.
type Extractor struct {
	data    []byte
	entries map[string]entry
}

// NewExtractor validates data and reads its manifest.
func NewExtractor(data []byte) (*Extractor, error) {
	if len(data) < len(Magic) || !bytes.Equal(data[:len(Magic)], Magic[:]) {
		return nil, errz.New(errz.FormatError, "not an archive (bad magic number)")
	}
	if len(data) < len(Magic)+trailerSize {
		return nil, errz.New(errz.FormatError, "archive too short (%d bytes)", len(data))
	}
	end := len(data)
	total := binary.BigEndian.Uint32(data[end-4:])
	manifestSize := binary.BigEndian.Uint32(data[end-8:])
	count := binary.BigEndian.Uint32(data[end-12:])
	if int64(total) != int64(len(data)) {
		return nil, errz.New(errz.FormatError, "archive size %d does not match data length %d", total, len(data))
	}
	manifestEnd := end - trailerSize
	manifestStart := manifestEnd - int(manifestSize)
	if int64(manifestSize) > int64(manifestEnd-len(Magic)) {
		return nil, errz.New(errz.FormatError, "manifest size %d out of bounds", manifestSize)
	}
	ex := &Extractor{data: data, entries: make(map[string]entry, count)}
	manifest := data[manifestStart:manifestEnd]
	for i := uint32(0); i < count; i++ {
		if len(manifest) < 4 {
			return nil, errz.New(errz.FormatError, "manifest truncated at entry %d", i)
		}
		n := binary.BigEndian.Uint32(manifest)
		if uint64(len(manifest)) < 4+uint64(n)+8 {
			return nil, errz.New(errz.FormatError, "manifest truncated at entry %d", i)
		}
		e := entry{
			name:   string(manifest[4 : 4+n]),
			offset: binary.BigEndian.Uint32(manifest[4+n:]),
			size:   binary.BigEndian.Uint32(manifest[8+n:]),
		}
		if uint64(e.offset) < uint64(len(Magic)) || uint64(e.offset)+uint64(e.size) > uint64(manifestStart) {
			return nil, errz.New(errz.FormatError, "entry %q out of bounds", e.name)
		}
		ex.entries[e.name] = e
		manifest = manifest[12+n:]
	}
	if len(manifest) != 0 {
		return nil, errz.New(errz.FormatError, "%d trailing manifest bytes", len(manifest))
	}
	return ex, nil
}

// Open reads the archive appended to the end of a file.
func Open(file string) (*Extractor, error) {
	data, err := bytecode.ReadTrailingFile(file)
	if err != nil {
		return nil, err
	}
	return NewExtractor(data)
}

// OpenExecutable reads the archive appended to the running executable.
func OpenExecutable() (*Extractor, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}
	return Open(exe)
}

// Program returns the compiled program held by data. data may be a bare
// program, an archive with a bytecode entry, or either of those appended to
// another file such as a server executable.
func Program(data []byte) ([]byte, error) {
	if !IsArchive(data) && !isProgram(data) {
		var err error
		if data, err = bytecode.ReadTrailing(bytes.NewReader(data), int64(len(data))); err != nil {
			return nil, err
		}
	}
	if !IsArchive(data) {
		return data, nil
	}
	ex, err := NewExtractor(data)
	if err != nil {
		return nil, err
	}
	return ex.Entry(BytecodeEntry)
}

func isProgram(data []byte) bool {
	return len(data) >= 4 && binary.BigEndian.Uint32(data) == bytecode.Magic
}

// Entry returns the contents of the named entry.
func (ex *Extractor) Entry(name string) ([]byte, error) {
	e, ok := ex.entries[name]
	if !ok {
		return nil, errz.New(errz.UnexpectedError, "archive entry %q not found", name)
	}
	return ex.data[e.offset : e.offset+e.size], nil
}

// Names returns the sorted entry names.
func (ex *Extractor) Names() []string {
	names := make([]string, 0, len(ex.entries))
	for name := range ex.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Asset returns a bundled template by its path relative to the template
// directory.
func (ex *Extractor) Asset(name string) ([]byte, error) {
	return ex.Entry(TemplatePrefix + path.Clean(name))
}
