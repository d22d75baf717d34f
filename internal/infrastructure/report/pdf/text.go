package pdf

import (
	"strings"
	"unicode"

	"github.com/jung-kurt/gofpdf/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type rgb struct {
	r, g, b int
}

var (
	colorBlack    = rgb{0, 0, 0}
	colorText     = rgb{33, 37, 41}
	colorAccent   = rgb{160, 0, 0}
	colorStamp    = rgb{204, 0, 0}
	colorInk      = rgb{0, 51, 153}
	colorHeadFill = rgb{241, 243, 245}
	colorPros     = rgb{25, 135, 84}
	colorCons     = rgb{220, 53, 69}
	colorFooter   = rgb{100, 100, 100}
	colorRule     = rgb{200, 200, 200}
	colorWhite    = rgb{255, 255, 255}
)

// renderer hides the difference between a UTF-8 font and the folded core font.
type renderer struct {
	doc    *gofpdf.Fpdf
	family string
	utf8   bool
}

func (r *renderer) font(style string, size float64) {
	r.doc.SetFont(r.family, style, size)
}

func (r *renderer) textColor(c rgb) {
	r.doc.SetTextColor(c.r, c.g, c.b)
}

func (r *renderer) drawColor(c rgb) {
	r.doc.SetDrawColor(c.r, c.g, c.b)
}

func (r *renderer) fillColor(c rgb) {
	r.doc.SetFillColor(c.r, c.g, c.b)
}

func (r *renderer) encode(s string) string {
	if r.utf8 {
		return s
	}
	return foldToASCII(s)
}

// wrap splits text into encoded lines no wider than width with the current font.
func (r *renderer) wrap(text string, width float64) []string {
	lines := make([]string, 0)
	for _, para := range strings.Split(r.encode(text), "\n") {
		if strings.TrimSpace(para) == "" {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, r.doc.SplitText(para, width)...)
	}
	return lines
}

func (r *renderer) write(x, baseline float64, text string) {
	r.doc.Text(x, baseline, r.encode(text))
}

func (r *renderer) writeCentered(cx, baseline float64, text string) {
	encoded := r.encode(text)
	r.doc.Text(cx-r.doc.GetStringWidth(encoded)/2, baseline, encoded)
}

// writeRight returns the rendered width so callers can underline it.
func (r *renderer) writeRight(right, baseline float64, text string) float64 {
	encoded := r.encode(text)
	w := r.doc.GetStringWidth(encoded)
	r.doc.Text(right-w, baseline, encoded)
	return w
}

// lines draws already-wrapped lines starting at the first baseline.
func (r *renderer) lines(x, baseline float64, lines []string, step float64, centerWidth float64) {
	for i, line := range lines {
		y := baseline + float64(i)*step
		if centerWidth > 0 {
			r.doc.Text(x+(centerWidth-r.doc.GetStringWidth(line))/2, y, line)
			continue
		}
		r.doc.Text(x, y, line)
	}
}

func (r *renderer) box(x, y, w, h float64, fill *rgb) {
	r.drawColor(colorBlack)
	r.doc.SetLineWidth(0.1)
	if fill != nil {
		r.fillColor(*fill)
		r.doc.Rect(x, y, w, h, "FD")
		return
	}
	r.doc.Rect(x, y, w, h, "D")
}

var asciiFallback = strings.NewReplacer("đ", "d", "Đ", "D", "…", "...", "–", "-", "—", "-", "“", `"`, "”", `"`, "‘", "'", "’", "'", "•", "*")

// foldToASCII strips Vietnamese diacritics so the text renders in a core font.
func foldToASCII(s string) string {
	s = asciiFallback.Replace(s)
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(folder, s); err == nil {
		s = folded
	}
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || (r >= 0x20 && r < 0x7f) {
			return r
		}
		return '?'
	}, s)
}
