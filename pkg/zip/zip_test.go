package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"
)

func TestArchiveAssets(t *testing.T) {
	modified := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	data, err := ArchiveAssets([]Asset{
		{Filename: "bill.json", Data: []byte(`{"id":"b1"}`), Modified: modified},
		{Filename: "image.png", Data: []byte("png"), Modified: modified},
	})
	if err != nil {
		t.Fatalf("ArchiveAssets: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("files = %d, want 2", len(zr.File))
	}
	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatalf("open entry: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if zr.File[0].Name != "bill.json" || string(body) != `{"id":"b1"}` {
		t.Fatalf("entry = %s %q", zr.File[0].Name, body)
	}
}
