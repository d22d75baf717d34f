package content

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const pptxPlaceholder = "Không thể đọc nội dung file PowerPoint này. Vui lòng đảm bảo file không bị hỏng."

var slidePartPattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

type slidePart struct {
	number int
	file   *zip.File
}

func extractPptx(name string, data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pptx: %w", err)
	}

	slides := make([]slidePart, 0)
	for _, f := range archive.File {
		m := slidePartPattern.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slidePart{number: n, file: f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })

	var b strings.Builder
	fmt.Fprintf(&b, "TÀI LIỆU TRÌNH CHIẾU POWERPOINT: %s\n\n", name)
	for _, slide := range slides {
		text, err := slideText(slide.file)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		fmt.Fprintf(&b, "--- SLIDE %d ---\n%s\n\n", slide.number, text)
	}
	return b.String(), nil
}

// slideText joins the text runs of one slide with single spaces.
func slideText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	runs := make([]string, 0)
	var current strings.Builder
	inRun := false
	decoder := xml.NewDecoder(rc)
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", f.Name, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inRun = true
				current.Reset()
			}
		case xml.EndElement:
			if t.Name.Local == "t" && inRun {
				runs = append(runs, current.String())
				inRun = false
			}
		case xml.CharData:
			if inRun {
				current.Write(t)
			}
		}
	}
	return strings.Join(runs, " "), nil
}
