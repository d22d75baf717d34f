package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf/v2"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
)

const (
	DefaultFontFamily = "Roboto"
	coreFontFamily    = "Helvetica"
)

type Options struct {
	// FontDir holds <family>-Regular.ttf (or <family>.ttf) with optional Bold/Medium and Italic files.
	// Empty means core Helvetica with diacritics folded.
	FontDir    string
	FontFamily string
}

type fontSet struct {
	family  string
	regular []byte
	bold    []byte
	italic  []byte
}

// Composer renders audit reports. It holds no per-report state and is safe for concurrent use.
type Composer struct {
	fonts    *fontSet
	compress bool
}

func New(opts Options) (*Composer, error) {
	c := &Composer{compress: true}
	if opts.FontDir == "" {
		return c, nil
	}
	family := opts.FontFamily
	if family == "" {
		family = DefaultFontFamily
	}
	fonts, err := loadFontSet(opts.FontDir, family)
	if err != nil {
		return nil, err
	}
	c.fonts = fonts
	return c, nil
}

func (c *Composer) UsesUnicodeFont() bool {
	return c.fonts != nil
}

// Compose renders the report. The output depends only on its arguments.
func (c *Composer) Compose(fileName string, result domain.AuditResult, profile domain.ReviewerProfile, now time.Time) (domain.Report, error) {
	in := reportInput{fileName: fileName, result: result, profile: profile.WithDefaults(), now: now}

	r := c.newRenderer(in)
	blocks, places := plan(r, in)
	total := pageCount(places)

	current := 0
	for _, p := range places {
		for current < p.page {
			if current > 0 {
				drawFooter(r, current, total)
			}
			r.doc.AddPage()
			current++
		}
		blocks[p.index].draw(r, p.y)
	}
	drawFooter(r, current, total)

	var buf bytes.Buffer
	if err := r.doc.Output(&buf); err != nil {
		return domain.Report{}, fmt.Errorf("render report: %w", err)
	}
	return domain.Report{FileName: domain.ReportFileName(fileName), Data: buf.Bytes()}, nil
}

// plan measures every block and assigns it a page and a top offset. A block taller
// than a page is replaced by its pieces first.
func plan(r *renderer, in reportInput) ([]block, []placement) {
	var blocks []block
	var spans []span
	for _, b := range buildBlocks(in) {
		h := b.measure(r)
		if h > pageBody && b.split != nil {
			if pieces := b.split(pageBody); len(pieces) > 0 {
				pieces[len(pieces)-1].gap = b.gap
				for _, piece := range pieces {
					blocks = append(blocks, piece)
					spans = append(spans, span{height: piece.measure(r), gap: piece.gap})
				}
				continue
			}
		}
		blocks = append(blocks, b)
		spans = append(spans, span{height: h, gap: b.gap})
	}
	return blocks, paginate(spans, marginMM, contentLimit)
}

func (c *Composer) newRenderer(in reportInput) *renderer {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(marginMM, marginMM, marginMM)
	doc.SetAutoPageBreak(false, marginMM)
	doc.SetCompression(c.compress)
	doc.SetCatalogSort(true)
	doc.SetCreationDate(in.now)
	doc.SetModificationDate(in.now)
	doc.SetTitle("Báo cáo kiểm duyệt: "+in.fileName, true)
	doc.SetAuthor(in.profile.Name, true)
	doc.SetCreator("DocuMind AI", true)

	r := &renderer{doc: doc, family: coreFontFamily}
	if c.fonts != nil {
		doc.AddUTF8FontFromBytes(c.fonts.family, "", c.fonts.regular)
		doc.AddUTF8FontFromBytes(c.fonts.family, "B", c.fonts.bold)
		doc.AddUTF8FontFromBytes(c.fonts.family, "I", c.fonts.italic)
		r.family = c.fonts.family
		r.utf8 = true
	}
	return r
}

func loadFontSet(dir, family string) (*fontSet, error) {
	regular, err := readFirst(dir, family+"-Regular.ttf", family+".ttf")
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "load report font", err)
	}
	bold, err := readFirst(dir, family+"-Bold.ttf", family+"-Medium.ttf")
	if err != nil {
		bold = regular
	}
	italic, err := readFirst(dir, family+"-Italic.ttf")
	if err != nil {
		italic = regular
	}
	return &fontSet{family: family, regular: regular, bold: bold, italic: italic}, nil
}

func readFirst(dir string, names ...string) ([]byte, error) {
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return raw, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read font %s: %w", name, err)
		}
	}
	return nil, fmt.Errorf("none of %v found in %s", names, dir)
}
