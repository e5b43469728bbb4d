// Package ziparchive implements the ZIP unpacker (§4.6) used for
// archive-packed raster deliveries (PRISM): primary-file selection by
// extension preference or caller regex, plus sidecar extraction.
package ziparchive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/hydrofetch/hydrofetch"
)

// extensionPreference ranks candidate primary-file extensions, highest
// priority first: `.tif > .bil`.
var extensionPreference = []string{".tif", ".tiff", ".bil"}

// sidecarExtensions are the well-known metadata members extracted
// alongside the primary raster.
var sidecarExtensions = []string{".prj", ".hdr", ".stx"}

// Result is an unpacked archive: the selected primary member's
// decompressed bytes plus any sidecar members found alongside it.
type Result struct {
	PrimaryName string
	Primary     []byte
	Sidecars    map[string][]byte // extension -> decompressed bytes
}

// Unpack opens data as a ZIP archive and selects a primary member.
// If primaryPattern is non-nil, the first member whose name matches it
// wins; otherwise the first member matching extensionPreference, in
// preference order, wins.
func Unpack(data []byte, primaryPattern *regexp.Regexp) (*Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &hydrofetch.Error{Op: "ziparchive.Unpack", Kind: hydrofetch.ErrFormatParseError, Inner: err}
	}

	primaryIdx := -1
	if primaryPattern != nil {
		for i, f := range zr.File {
			if primaryPattern.MatchString(f.Name) {
				primaryIdx = i
				break
			}
		}
	} else {
		for _, ext := range extensionPreference {
			for i, f := range zr.File {
				if strings.EqualFold(path.Ext(f.Name), ext) {
					primaryIdx = i
					break
				}
			}
			if primaryIdx >= 0 {
				break
			}
		}
	}
	if primaryIdx < 0 {
		return nil, &hydrofetch.Error{Op: "ziparchive.Unpack", Kind: hydrofetch.ErrFormatParseError, Message: "no primary raster member found in archive"}
	}

	primary, err := readMember(zr.File[primaryIdx])
	if err != nil {
		return nil, err
	}

	res := &Result{PrimaryName: zr.File[primaryIdx].Name, Primary: primary, Sidecars: map[string][]byte{}}
	for _, f := range zr.File {
		ext := strings.ToLower(path.Ext(f.Name))
		for _, want := range sidecarExtensions {
			if ext == want {
				b, err := readMember(f)
				if err != nil {
					return nil, err
				}
				res.Sidecars[ext] = b
			}
		}
	}
	return res, nil
}

func readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, &hydrofetch.Error{Op: "ziparchive.readMember", Kind: hydrofetch.ErrFormatParseError, Message: fmt.Sprintf("opening member %q", f.Name), Inner: err}
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, &hydrofetch.Error{Op: "ziparchive.readMember", Kind: hydrofetch.ErrDataIntegrityError, Message: fmt.Sprintf("reading member %q", f.Name), Inner: err}
	}
	return b, nil
}
