// Package spkg decodes the Spinpkg ("SPK") on-disk package format from
// §6: a fixed 512-byte header, a table of dependency records, a table
// of file entries, and the raw file contents back-to-back. This is a
// read-only decoder — building/signing packages is out of scope for the
// kernel's userspace-facing systems layer.
//
// Grounded on spec.md §6's byte layout and
// original_source/packages/tools/spin-build.c's spk_header_t/spk_dep_t/
// spk_file_t structs, which this package's field names and sizes mirror
// exactly so a package built by spin-build round-trips through Decode.
package spkg

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/yula1234/yulaos"
)

const (
	magic = "SPIN"

	headerSize = 512
	depSize    = 96
	fileSize   = 256

	nameLen = 64
	verLen  = 16
	descLen = 128
	pathLen = 200
)

// Header is the package's fixed preamble, per spec.md §6's byte 0–511
// layout.
type Header struct {
	Version    uint32
	Name       string
	Ver        string
	Desc       string
	FileCount  uint32
	DepsCount  uint32
}

// Dependency is one 96-byte dependency record.
type Dependency struct {
	Name   string
	MinVer string
}

// File is one 256-byte file-table entry, plus the bytes it names once
// Decode has sliced them out of the package body.
type File struct {
	Path   string
	Size   uint32
	Mode   uint32
	Offset uint32
	Data   []byte
}

// Package is a fully decoded .spk file.
type Package struct {
	Header       Header
	Dependencies []Dependency
	Files        []File
}

func cstr(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// Decode parses a complete .spk image from r.
func Decode(r io.Reader) (*Package, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, yulaos.WrapError("spkg", "spkg.Decode", err)
	}
	return DecodeBytes(raw)
}

// DecodeBytes parses a complete .spk image already held in memory.
func DecodeBytes(raw []byte) (*Package, error) {
	if len(raw) < headerSize {
		return nil, yulaos.NewError("spkg", "spkg.DecodeBytes", yulaos.ErrCodeInvalid, "truncated header")
	}

	hdr, err := decodeHeader(raw[:headerSize])
	if err != nil {
		return nil, err
	}

	pkg := &Package{Header: hdr}

	off := headerSize
	depsBytes := depSize * int(hdr.DepsCount)
	if off+depsBytes > len(raw) {
		return nil, yulaos.NewError("spkg", "spkg.DecodeBytes", yulaos.ErrCodeInvalid, "truncated dependency table")
	}
	for i := uint32(0); i < hdr.DepsCount; i++ {
		start := off + int(i)*depSize
		rec := raw[start : start+depSize]
		pkg.Dependencies = append(pkg.Dependencies, Dependency{
			Name:   cstr(rec[0:64]),
			MinVer: cstr(rec[64:80]),
		})
	}
	off += depsBytes

	filesBytes := fileSize * int(hdr.FileCount)
	if off+filesBytes > len(raw) {
		return nil, yulaos.NewError("spkg", "spkg.DecodeBytes", yulaos.ErrCodeInvalid, "truncated file table")
	}
	dataStart := off + filesBytes

	for i := uint32(0); i < hdr.FileCount; i++ {
		start := off + int(i)*fileSize
		rec := raw[start : start+fileSize]
		f := File{
			Path:   cstr(rec[0:200]),
			Size:   binary.LittleEndian.Uint32(rec[200:204]),
			Mode:   binary.LittleEndian.Uint32(rec[204:208]),
			Offset: binary.LittleEndian.Uint32(rec[208:212]),
		}

		contentStart := dataStart + int(f.Offset)
		contentEnd := contentStart + int(f.Size)
		if f.Size > 0 {
			if contentStart < 0 || contentEnd > len(raw) || contentStart > contentEnd {
				return nil, yulaos.NewError("spkg", "spkg.DecodeBytes", yulaos.ErrCodeInvalid,
					fmt.Sprintf("file %q's content range is out of bounds", f.Path))
			}
			f.Data = raw[contentStart:contentEnd]
		}
		pkg.Files = append(pkg.Files, f)
	}

	return pkg, nil
}

func decodeHeader(b []byte) (Header, error) {
	if string(b[0:4]) != magic {
		return Header{}, yulaos.NewError("spkg", "spkg.decodeHeader", yulaos.ErrCodeInvalid, "bad magic")
	}
	return Header{
		Version:   binary.LittleEndian.Uint32(b[4:8]),
		Name:      cstr(b[8 : 8+nameLen]),
		Ver:       cstr(b[72 : 72+verLen]),
		Desc:      cstr(b[88 : 88+descLen]),
		FileCount: binary.LittleEndian.Uint32(b[216:220]),
		DepsCount: binary.LittleEndian.Uint32(b[220:224]),
	}, nil
}

// File looks up a decoded file entry by its destination path.
func (p *Package) File(path string) (File, bool) {
	for _, f := range p.Files {
		if f.Path == path {
			return f, true
		}
	}
	return File{}, false
}
