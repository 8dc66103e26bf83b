package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"
)

// Entry is one file inside the archive.
type Entry struct {
	Filename string
	Data     []byte
}

// Archive builds an in-memory zip of entries. Every entry carries modified
// as its timestamp.
func Archive(entries []Entry, modified time.Time) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, entry := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     entry.Filename,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("zip: create %s: %w", entry.Filename, err)
		}
		if _, err := w.Write(entry.Data); err != nil {
			return nil, fmt.Errorf("zip: write %s: %w", entry.Filename, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: close: %w", err)
	}
	return buf.Bytes(), nil
}
