package content

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode/utf8"
)

const (
	zipPlaceholder = "Không thể đọc nội dung file Zip này."
	truncateMarker = "...(đã cắt)"
)

var zipTextExtensions = map[string]struct{}{
	"txt": {}, "md": {}, "json": {}, "js": {}, "ts": {}, "html": {}, "css": {},
	"py": {}, "java": {}, "xml": {}, "c": {}, "cpp": {}, "h": {},
}

// extractZip lists every entry and inlines up to maxEntries text-like files in archive order.
func extractZip(name string, data []byte, maxEntries, maxChars int) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open zip: %w", err)
	}

	listing := make([]string, 0, len(archive.File))
	var contents strings.Builder
	read := 0
	for _, f := range archive.File {
		listing = append(listing, f.Name)
		if f.FileInfo().IsDir() || read >= maxEntries {
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(f.Name), "."))
		if _, ok := zipTextExtensions[ext]; !ok {
			continue
		}
		body, err := readZipEntry(f, maxChars)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&contents, "--- FILE: %s ---\n%s\n\n", f.Name, body)
		read++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CẤU TRÚC THƯ MỤC/PROJECT (TỪ FILE ZIP): %s\n\nDANH SÁCH FILE:\n", name)
	b.WriteString(strings.Join(listing, "\n"))
	b.WriteString("\n\nNỘI DUNG CÁC FILE QUAN TRỌNG:\n")
	b.WriteString(contents.String())
	return b.String(), nil
}

// readZipEntry decompresses at most enough bytes for maxChars runes, so a small
// archive that inflates to gigabytes costs no more than one capped entry.
func readZipEntry(f *zip.File, maxChars int) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	budget := int64(maxChars) * utf8.UTFMax
	raw, err := io.ReadAll(io.LimitReader(rc, budget+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", f.Name, err)
	}
	return truncateRunes(strings.ToValidUTF8(string(raw), "�"), maxChars, int64(len(raw)) > budget), nil
}

// truncateRunes keeps the first limit runes. cut marks input that was already
// shortened while reading.
func truncateRunes(s string, limit int, cut bool) string {
	if !cut && utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:min(limit, len(runes))]) + truncateMarker
}
