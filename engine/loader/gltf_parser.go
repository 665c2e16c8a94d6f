package loader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/qmuntal/gltf"
)

const glbMagic uint32 = 0x46546C67 // "glTF"

var (
	errInvalidGLTFVersion = errors.New("invalid glTF version: must be 2.x")
	errBinaryMismatch     = errors.New("binary flag does not match the container")
	errEmptyInput         = errors.New("empty input")
)

// gltfParserImpl is the implementation of the gltfParser interface.
type gltfParserImpl struct {
	fsys fs.FS
}

// gltfParser turns raw bytes into a glTF document. This is internal to the loader package.
type gltfParser interface {
	// Parse decodes JSON or GLB bytes.
	//
	// Parameters:
	//   - data: the document bytes
	//   - isBinary: true if data is a GLB container
	//
	// Returns:
	//   - *gltf.Document: the decoded document
	//   - error: a *DocumentParseError if decoding fails
	Parse(data []byte, isBinary bool) (*gltf.Document, error)
}

var _ gltfParser = &gltfParserImpl{}

// newGLTFParser creates a parser. External buffer and image URIs are read from fsys when it is
// not nil; otherwise only embedded and GLB-resident data is loaded and the rest is left to the
// streaming loader.
func newGLTFParser(fsys fs.FS) gltfParser {
	return &gltfParserImpl{fsys: fsys}
}

func (p *gltfParserImpl) Parse(data []byte, isBinary bool) (*gltf.Document, error) {
	wrap := func(err error) error {
		return &DocumentParseError{Binary: isBinary, Err: err}
	}

	if len(data) == 0 {
		return nil, wrap(errEmptyInput)
	}
	if hasGLBMagic(data) != isBinary {
		return nil, wrap(errBinaryMismatch)
	}

	var dec *gltf.Decoder
	if p.fsys != nil {
		dec = gltf.NewDecoderFS(bytes.NewReader(data), p.fsys)
	} else {
		dec = gltf.NewDecoder(bytes.NewReader(data))
	}

	doc := new(gltf.Document)
	if err := dec.Decode(doc); err != nil {
		return nil, wrap(err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return nil, wrap(fmt.Errorf("%w: got %q", errInvalidGLTFVersion, doc.Asset.Version))
	}
	return doc, nil
}

func hasGLBMagic(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == glbMagic
}
