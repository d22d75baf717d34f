package pdf

const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	marginMM     = 15.0
	contentWidth = pageWidth - 2*marginMM

	// Content stops here; the footer lives in the bottom margin.
	contentLimit = pageHeight - marginMM
	pageBody     = contentLimit - marginMM

	lineHeight = 5.0
)

// span is a measured block: height must fit on one page, gap follows it.
type span struct {
	height float64
	gap    float64
}

type placement struct {
	index int
	page  int
	y     float64
}

// paginate places blocks top to bottom and opens a new page whenever a block
// would cross limit. An unsplittable block taller than a page still starts at the top.
func paginate(spans []span, top, limit float64) []placement {
	out := make([]placement, 0, len(spans))
	page, y := 1, top
	for i, s := range spans {
		if y+s.height > limit && y > top {
			page++
			y = top
		}
		out = append(out, placement{index: i, page: page, y: y})
		y += s.height + s.gap
	}
	return out
}

func pageCount(places []placement) int {
	if len(places) == 0 {
		return 1
	}
	return places[len(places)-1].page
}
