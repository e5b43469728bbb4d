package ziparchive

import (
	"archive/zip"
	"bytes"
	"regexp"
	"testing"
)

func buildArchive(t *testing.T, members map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range members {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Create(%q): %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("Write(%q): %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes()
}

func TestUnpackExtensionPreference(t *testing.T) {
	data := buildArchive(t, map[string]string{
		"PRISM_ppt_stable_4kmM3_202001_bil.bil": "bildata",
		"PRISM_ppt_stable_4kmM3_202001_bil.tif": "tifdata",
		"PRISM_ppt_stable_4kmM3_202001_bil.prj": "projdata",
		"PRISM_ppt_stable_4kmM3_202001_bil.hdr": "hdrdata",
	})
	res, err := Unpack(data, nil)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if string(res.Primary) != "tifdata" {
		t.Fatalf("primary = %q, want tifdata (extension preference should pick .tif over .bil)", res.Primary)
	}
	if string(res.Sidecars[".prj"]) != "projdata" || string(res.Sidecars[".hdr"]) != "hdrdata" {
		t.Fatalf("sidecars = %+v", res.Sidecars)
	}
}

func TestUnpackFallsBackToBIL(t *testing.T) {
	data := buildArchive(t, map[string]string{
		"data.bil": "bildata",
		"data.hdr": "hdrdata",
	})
	res, err := Unpack(data, nil)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if string(res.Primary) != "bildata" {
		t.Fatalf("primary = %q, want bildata", res.Primary)
	}
}

func TestUnpackWithPattern(t *testing.T) {
	data := buildArchive(t, map[string]string{
		"data.tif":  "tifdata",
		"data_aux.tif": "auxdata",
	})
	re := regexp.MustCompile(`_aux\.tif$`)
	res, err := Unpack(data, re)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if res.PrimaryName != "data_aux.tif" {
		t.Fatalf("PrimaryName = %q, want data_aux.tif", res.PrimaryName)
	}
}

func TestUnpackNoPrimaryFound(t *testing.T) {
	data := buildArchive(t, map[string]string{"readme.txt": "hello"})
	if _, err := Unpack(data, nil); err == nil {
		t.Fatal("expected error when no primary raster member is present")
	}
}
