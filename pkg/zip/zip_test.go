package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"
)

func TestArchiveKeepsEntryOrderAndContent(t *testing.T) {
	modified := time.Date(2024, 8, 17, 10, 0, 0, 0, time.UTC)
	data, err := Archive([]Entry{
		{Name: "donations.json", Modified: modified, Data: []byte(`[{"id":1}]`)},
		{Name: "fund-usage.json", Modified: modified, Data: []byte(`[]`)},
	})
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("entries = %d, want 2", len(zr.File))
	}
	want := map[int][2]string{0: {"donations.json", `[{"id":1}]`}, 1: {"fund-usage.json", `[]`}}
	for i, f := range zr.File {
		if f.Name != want[i][0] {
			t.Fatalf("entry %d name = %q, want %q", i, f.Name, want[i][0])
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		body, _ := io.ReadAll(rc)
		_ = rc.Close()
		if string(body) != want[i][1] {
			t.Fatalf("entry %s = %q, want %q", f.Name, body, want[i][1])
		}
	}
}

func TestArchiveEmpty(t *testing.T) {
	data, err := Archive(nil)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 0 {
		t.Fatalf("entries = %d, want 0", len(zr.File))
	}
}
