package bytecode

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/angi-lang/angi/errz"
)

// ReadTrailing reads a payload that ends a file and whose last four bytes
// hold the payload's total length, the length field included.
func ReadTrailing(r io.ReaderAt, size int64) ([]byte, error) {
	if size < FooterSize {
		return nil, errz.New(errz.FormatError, "file too short for a trailing payload (%d bytes)", size)
	}
	var footer [FooterSize]byte
	if _, err := r.ReadAt(footer[:], size-FooterSize); err != nil {
		return nil, errz.New(errz.UnexpectedError, "reading payload length").WithCause(err)
	}
	n := int64(binary.BigEndian.Uint32(footer[:]))
	if n < FooterSize || n > size {
		return nil, errz.New(errz.FormatError, "invalid trailing payload length %d (file is %d bytes)", n, size)
	}
	data := make([]byte, n)
	if _, err := r.ReadAt(data, size-n); err != nil {
		return nil, errz.New(errz.UnexpectedError, "reading trailing payload").WithCause(err)
	}
	return data, nil
}

// ReadTrailingFile opens a file and reads its trailing payload.
func ReadTrailingFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return ReadTrailing(f, info.Size())
}
