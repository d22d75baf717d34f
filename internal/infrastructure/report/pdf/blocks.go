package pdf

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
)

const (
	reportTitle = "BÁO CÁO KIỂM DUYỆT TÀI LIỆU"
	nationName  = "CỘNG HÒA XÃ HỘI CHỦ NGHĨA VIỆT NAM"
	nationMotto = "Độc lập - Tự do - Hạnh phúc"
	footerText  = "Hệ thống DocuMind AI - Trang %d/%d"

	infoLeftShare   = 0.65
	feedbackLabelMM = 35.0
	stampWidth      = 50.0
	stampHeight     = 32.0
	stampInset      = 3.0
	stampOrgWidth   = 40.0
	stampOrgLines   = 3

	summaryHeadingMM  = 6.0
	summaryPadMM      = 3.0
	analysisHeadingMM = 8.0
	analysisHeadMM    = 9.0
	analysisPadMM     = 4.0
	feedbackHeadMM    = 9.0
	feedbackPadMM     = 5.0
)

type reportInput struct {
	fileName string
	result   domain.AuditResult
	profile  domain.ReviewerProfile
	now      time.Time
}

// block is one piece of the report. measure always runs before draw and split.
type block struct {
	name    string
	gap     float64
	measure func(r *renderer) float64
	draw    func(r *renderer, top float64)
	// split cuts a measured block taller than a page into pieces that each fit.
	// Nil for blocks that must stay whole. The last piece inherits gap.
	split func(maxHeight float64) []block
}

func buildBlocks(in reportInput) []block {
	blocks := []block{
		headerBlock(in),
		titleBlock(in),
		infoBlock(in),
		summaryBlock(in),
	}
	blocks = append(blocks, analysisBlocks(in.result)...)
	blocks = append(blocks, feedbackBlocks(in.result)...)
	blocks = append(blocks, signatureBlock(in.profile))
	return blocks
}

func referenceNumber(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return ms
}

func headerBlock(in reportInput) block {
	var orgLines []string
	return block{
		name: "header",
		gap:  10,
		measure: func(r *renderer) float64 {
			r.font("B", 10)
			orgLines = r.wrap(strings.ToUpper(in.profile.Organization), contentWidth/2-5)
			return float64(len(orgLines))*4.5 + 10
		},
		draw: func(r *renderer, top float64) {
			r.textColor(colorText)
			r.font("B", 10)
			r.lines(marginMM, top+4, orgLines, 4.5, 0)
			r.font("", 9)
			r.write(marginMM, top+4+float64(len(orgLines))*4.5+0.5, "Số: "+referenceNumber(in.now)+"/BC-KDTL")

			right := pageWidth - marginMM
			r.font("B", 10)
			r.writeRight(right, top+4, nationName)
			w := r.writeRight(right, top+9, nationMotto)
			r.drawColor(colorBlack)
			r.doc.SetLineWidth(0.5)
			r.doc.Line(right-w, top+11, right, top+11)
		},
	}
}

func titleBlock(in reportInput) block {
	return block{
		name:    "title",
		gap:     8,
		measure: fixedHeight(18),
		draw: func(r *renderer, top float64) {
			cx := pageWidth / 2
			r.font("B", 16)
			r.textColor(colorAccent)
			r.writeCentered(cx, top+6, reportTitle)
			r.drawColor(colorAccent)
			r.doc.SetLineWidth(1)
			r.doc.Line(cx-40, top+9, cx+40, top+9)

			r.font("", 10)
			r.textColor(colorText)
			r.writeCentered(cx, top+16, "Ngày báo cáo: "+in.now.Format("02/01/2006"))
		},
	}
}

func infoBlock(in reportInput) block {
	const (
		headHeight = 10.0
		padding    = 5.0
		scoreStep  = 8.0
	)
	leftW := contentWidth * infoLeftShare
	rightW := contentWidth - leftW
	info := fmt.Sprintf("Tên tài liệu: %s\nMôn/Lĩnh vực: %s\nNgười kiểm duyệt: %s\nChức danh: %s",
		in.fileName, in.result.Subject, in.profile.Name, in.profile.Title)
	scoreLines := []string{
		fmt.Sprintf("%d/%d", in.result.Score, domain.MaxScore),
		strings.ToUpper(string(in.result.OverallVerdict)),
	}

	var left []string
	var bodyHeight float64
	return block{
		name: "info",
		gap:  12,
		measure: func(r *renderer) float64 {
			r.font("", 10)
			left = r.wrap(info, leftW-2*padding)
			bodyHeight = max(float64(len(left))*lineHeight, float64(len(scoreLines))*scoreStep) + 2*padding
			return headHeight + bodyHeight
		},
		draw: func(r *renderer, top float64) {
			x := marginMM
			fill := colorHeadFill
			r.box(x, top, leftW, headHeight, &fill)
			r.box(x+leftW, top, rightW, headHeight, &fill)
			r.font("B", 10)
			r.textColor(colorBlack)
			r.writeCentered(x+leftW/2, top+6.5, "THÔNG TIN TÀI LIỆU")
			r.writeCentered(x+leftW+rightW/2, top+6.5, "KẾT QUẢ TỔNG QUAN")

			bodyTop := top + headHeight
			r.box(x, bodyTop, leftW, bodyHeight, nil)
			r.box(x+leftW, bodyTop, rightW, bodyHeight, nil)

			r.font("", 10)
			r.textColor(colorText)
			leftTop := bodyTop + (bodyHeight-float64(len(left))*lineHeight)/2
			r.lines(x+padding, leftTop+3.5, left, lineHeight, 0)

			r.font("B", 16)
			r.textColor(colorAccent)
			encoded := make([]string, 0, len(scoreLines))
			for _, line := range scoreLines {
				encoded = append(encoded, r.encode(line))
			}
			scoreTop := bodyTop + (bodyHeight-float64(len(encoded))*scoreStep)/2
			r.lines(x+leftW, scoreTop+6, encoded, scoreStep, rightW)
		},
	}
}

func summaryBlock(in reportInput) block {
	var lines []string
	return block{
		name: "summary",
		gap:  10,
		measure: func(r *renderer) float64 {
			r.font("", 10)
			lines = r.wrap(in.result.Summary, contentWidth-2*summaryPadMM)
			return summaryHeight(true, lines)
		},
		draw: func(r *renderer, top float64) {
			drawSummary(r, top, true, lines)
		},
		split: func(maxHeight float64) []block {
			return splitRows(len(lines), maxHeight, summaryHeadingMM, summaryPadMM, func(k, from, to int) block {
				part := lines[from:to]
				return block{
					name:    fmt.Sprintf("summary_part_%d", k),
					measure: fixedHeight(summaryHeight(k == 0, part)),
					draw: func(r *renderer, top float64) {
						drawSummary(r, top, k == 0, part)
					},
				}
			})
		},
	}
}

func summaryHeight(withHeading bool, lines []string) float64 {
	h := float64(len(lines))*lineHeight + 2*summaryPadMM
	if withHeading {
		h += summaryHeadingMM
	}
	return h
}

func drawSummary(r *renderer, top float64, withHeading bool, lines []string) {
	boxTop := top
	if withHeading {
		r.font("B", 11)
		r.textColor(colorBlack)
		r.write(marginMM, top+4, "I. TÓM TẮT NỘI DUNG")
		boxTop += summaryHeadingMM
	}
	r.box(marginMM, boxTop, contentWidth, float64(len(lines))*lineHeight+2*summaryPadMM, nil)
	r.font("", 10)
	r.textColor(colorText)
	r.lines(marginMM+summaryPadMM, boxTop+5, lines, lineHeight, 0)
}

// analysisBlocks renders pros and cons side by side. The heading travels with the first row.
func analysisBlocks(result domain.AuditResult) []block {
	colW := contentWidth / 2
	rows := max(len(result.Pros), len(result.Cons))
	if rows == 0 {
		return []block{{
			name:    "analysis_heading",
			gap:     10,
			measure: fixedHeight(analysisHeadingMM + analysisHeadMM),
			draw:    drawAnalysisHeading,
		}}
	}

	blocks := make([]block, 0, rows)
	for i := 0; i < rows; i++ {
		pro, con := "", ""
		if i < len(result.Pros) {
			pro = "+ " + result.Pros[i]
		}
		if i < len(result.Cons) {
			con = "- " + result.Cons[i]
		}
		withHead := i == 0
		name := fmt.Sprintf("analysis_row_%d", i)
		var proLines, conLines []string
		blocks = append(blocks, block{
			name: name,
			measure: func(r *renderer) float64 {
				r.font("", 10)
				proLines = wrapNonEmpty(r, pro, colW-2*analysisPadMM)
				conLines = wrapNonEmpty(r, con, colW-2*analysisPadMM)
				return analysisRowHeight(withHead, proLines, conLines)
			},
			draw: func(r *renderer, top float64) {
				drawAnalysisRow(r, top, withHead, proLines, conLines)
			},
			split: func(maxHeight float64) []block {
				n := max(len(proLines), len(conLines))
				offset := 0.0
				if withHead {
					offset = analysisHeadingMM + analysisHeadMM
				}
				return splitRows(n, maxHeight, offset, analysisPadMM, func(k, from, to int) block {
					head := withHead && k == 0
					pros, cons := window(proLines, from, to), window(conLines, from, to)
					return block{
						name:    fmt.Sprintf("%s_part_%d", name, k),
						measure: fixedHeight(analysisRowHeight(head, pros, cons)),
						draw: func(r *renderer, top float64) {
							drawAnalysisRow(r, top, head, pros, cons)
						},
					}
				})
			},
		})
	}
	blocks[len(blocks)-1].gap = 10
	return blocks
}

func analysisRowHeight(withHead bool, pros, cons []string) float64 {
	h := float64(max(len(pros), len(cons)))*lineHeight + 2*analysisPadMM
	if withHead {
		h += analysisHeadingMM + analysisHeadMM
	}
	return h
}

func drawAnalysisHeading(r *renderer, top float64) {
	colW := contentWidth / 2
	r.font("B", 11)
	r.textColor(colorBlack)
	r.write(marginMM, top+4, "II. PHÂN TÍCH CHI TIẾT")
	headTop := top + analysisHeadingMM
	white := colorWhite
	r.box(marginMM, headTop, colW, analysisHeadMM, &white)
	r.box(marginMM+colW, headTop, colW, analysisHeadMM, &white)
	r.font("B", 10)
	r.textColor(colorPros)
	r.writeCentered(marginMM+colW/2, headTop+6, "ƯU ĐIỂM")
	r.textColor(colorCons)
	r.writeCentered(marginMM+colW+colW/2, headTop+6, "HẠN CHẾ & NHƯỢC ĐIỂM")
}

func drawAnalysisRow(r *renderer, top float64, withHead bool, pros, cons []string) {
	colW := contentWidth / 2
	rowTop := top
	if withHead {
		drawAnalysisHeading(r, top)
		rowTop += analysisHeadingMM + analysisHeadMM
	}
	rowHeight := float64(max(len(pros), len(cons)))*lineHeight + 2*analysisPadMM
	r.box(marginMM, rowTop, colW, rowHeight, nil)
	r.box(marginMM+colW, rowTop, colW, rowHeight, nil)
	r.font("", 10)
	r.textColor(colorText)
	r.lines(marginMM+analysisPadMM, rowTop+analysisPadMM+3.5, pros, lineHeight, 0)
	r.lines(marginMM+colW+analysisPadMM, rowTop+analysisPadMM+3.5, cons, lineHeight, 0)
}

func feedbackBlocks(result domain.AuditResult) []block {
	valueW := contentWidth - feedbackLabelMM
	rows := []struct {
		label string
		value string
	}{
		{"NỘI DUNG\nCHUYÊN MÔN", result.ContentFeedback},
		{"THIẾT KẾ &\nTRÌNH BÀY", result.DesignFeedback},
	}

	blocks := make([]block, 0, len(rows))
	for i, row := range rows {
		withHead := i == 0
		name := fmt.Sprintf("feedback_row_%d", i)
		var labelLines, valueLines []string
		blocks = append(blocks, block{
			name: name,
			measure: func(r *renderer) float64 {
				r.font("B", 10)
				labelLines = r.wrap(row.label, feedbackLabelMM-2*feedbackPadMM)
				r.font("", 10)
				valueLines = wrapNonEmpty(r, row.value, valueW-2*feedbackPadMM)
				return feedbackRowHeight(withHead, labelLines, valueLines)
			},
			draw: func(r *renderer, top float64) {
				drawFeedbackRow(r, top, withHead, labelLines, valueLines)
			},
			split: func(maxHeight float64) []block {
				n := max(len(labelLines), len(valueLines))
				offset := 0.0
				if withHead {
					offset = feedbackHeadMM
				}
				return splitRows(n, maxHeight, offset, feedbackPadMM, func(k, from, to int) block {
					head := withHead && k == 0
					var labels []string
					if k == 0 {
						labels = labelLines
					}
					values := window(valueLines, from, to)
					return block{
						name:    fmt.Sprintf("%s_part_%d", name, k),
						measure: fixedHeight(feedbackRowHeight(head, labels, values)),
						draw: func(r *renderer, top float64) {
							drawFeedbackRow(r, top, head, labels, values)
						},
					}
				})
			},
		})
	}
	blocks[len(blocks)-1].gap = 15
	return blocks
}

func feedbackRowHeight(withHead bool, labels, values []string) float64 {
	h := float64(max(len(labels), len(values)))*lineHeight + 2*feedbackPadMM
	if withHead {
		h += feedbackHeadMM
	}
	return h
}

func drawFeedbackRow(r *renderer, top float64, withHead bool, labels, values []string) {
	valueW := contentWidth - feedbackLabelMM
	rowTop := top
	if withHead {
		fill := colorHeadFill
		r.box(marginMM, top, feedbackLabelMM, feedbackHeadMM, &fill)
		r.box(marginMM+feedbackLabelMM, top, valueW, feedbackHeadMM, &fill)
		r.font("B", 10)
		r.textColor(colorBlack)
		r.write(marginMM+feedbackPadMM, top+6, "TIÊU CHÍ")
		r.write(marginMM+feedbackLabelMM+feedbackPadMM, top+6, "NHẬN XÉT & KHUYẾN NGHỊ")
		rowTop += feedbackHeadMM
	}
	rowHeight := float64(max(len(labels), len(values)))*lineHeight + 2*feedbackPadMM
	r.box(marginMM, rowTop, feedbackLabelMM, rowHeight, nil)
	r.box(marginMM+feedbackLabelMM, rowTop, valueW, rowHeight, nil)

	r.textColor(colorText)
	r.font("B", 10)
	labelTop := rowTop + (rowHeight-float64(len(labels))*lineHeight)/2
	r.lines(marginMM+feedbackPadMM, labelTop+3.5, labels, lineHeight, 0)
	r.font("", 10)
	r.lines(marginMM+feedbackLabelMM+feedbackPadMM, rowTop+feedbackPadMM+3.5, values, lineHeight, 0)
}

func signatureBlock(profile domain.ReviewerProfile) block {
	var orgLines []string
	return block{
		name:    "signature",
		measure: fixedHeight(63),
		draw: func(r *renderer, top float64) {
			signX := pageWidth - 85
			cx := signX + stampWidth/2

			r.font("B", 11)
			r.textColor(colorBlack)
			r.writeCentered(cx, top+4, "NGƯỜI KIỂM DUYỆT")
			r.font("I", 9)
			r.writeCentered(cx, top+8, "(Ký, đóng dấu và ghi rõ họ tên)")

			stampY := top + 14
			r.drawColor(colorStamp)
			r.doc.SetLineWidth(1.5)
			r.doc.Rect(signX, stampY, stampWidth, stampHeight, "D")
			r.doc.SetLineWidth(0.5)
			r.doc.Rect(signX+stampInset, stampY+stampInset, stampWidth-2*stampInset, stampHeight-2*stampInset, "D")

			r.textColor(colorStamp)
			r.font("B", 11)
			r.writeCentered(cx, stampY+13, "ĐÃ KIỂM DUYỆT")
			r.font("B", 8)
			orgLines = r.wrap(strings.ToUpper(profile.Organization), stampOrgWidth)
			if len(orgLines) > stampOrgLines {
				orgLines = orgLines[:stampOrgLines]
			}
			r.lines(signX, stampY+20, orgLines, 3.5, stampWidth)

			r.textColor(colorInk)
			r.font("B", 12)
			r.writeCentered(cx, stampY+45, profile.Name)
		},
	}
}

func drawFooter(r *renderer, page, total int) {
	r.font("", 8)
	r.textColor(colorFooter)
	r.drawColor(colorRule)
	r.doc.SetLineWidth(0.1)
	r.doc.Line(marginMM, pageHeight-12, pageWidth-marginMM, pageHeight-12)
	r.writeCentered(pageWidth/2, pageHeight-7, fmt.Sprintf(footerText, page, total))
}

func wrapNonEmpty(r *renderer, text string, width float64) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return r.wrap(text, width)
}

// splitRows cuts n wrapped lines into pieces no taller than maxHeight. The first
// piece carries firstOffset mm of heading; every piece repeats the row padding.
func splitRows(n int, maxHeight, firstOffset, padding float64, piece func(k, from, to int) block) []block {
	var pieces []block
	for k, from := 0, 0; from < n; k++ {
		offset := 0.0
		if k == 0 {
			offset = firstOffset
		}
		fit := max(int((maxHeight-offset-2*padding)/lineHeight), 1)
		to := min(from+fit, n)
		pieces = append(pieces, piece(k, from, to))
		from = to
	}
	return pieces
}

// window returns lines[from:to] clamped to the slice.
func window(lines []string, from, to int) []string {
	from, to = min(from, len(lines)), min(to, len(lines))
	return lines[from:to]
}

func fixedHeight(h float64) func(*renderer) float64 {
	return func(*renderer) float64 { return h }
}
