package gemini

import (
	"fmt"
	"strings"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
)

func buildSystemInstruction(r domain.Rubric) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Bạn là một %s.\n", r.Role)
	if r.Mission != "" {
		fmt.Fprintf(&b, "Nhiệm vụ: %s\n", r.Mission)
	}

	step := 1
	fmt.Fprintf(&b, "\nQUY TRÌNH PHÂN TÍCH %d BƯỚC:\n", len(r.Dimensions)+boolToInt(len(r.SubjectChecks) > 0))
	if len(r.SubjectChecks) > 0 {
		fmt.Fprintf(&b, "\n%d. NHẬN DIỆN MÔN HỌC (Subject Identification):\n", step)
		writeChecks(&b, r.SubjectChecks)
		step++
	}
	for _, d := range r.Dimensions {
		fmt.Fprintf(&b, "\n%d. %s [trọng số %d%%]:\n", step, d.Title, d.Weight)
		writeChecks(&b, d.Checks)
		step++
	}

	if len(r.Bands) > 0 {
		b.WriteString("\nHỆ THỐNG CHẤM ĐIỂM (Scoring Rubric):\n")
		for _, band := range r.Bands {
			fmt.Fprintf(&b, "- %d-%d (%s): %s\n", band.Min, band.Max, band.Label, band.Description)
		}
	}

	labels := make([]string, 0, len(domain.Verdicts()))
	for _, v := range domain.Verdicts() {
		labels = append(labels, fmt.Sprintf("%q", string(v)))
	}
	fmt.Fprintf(&b, `
OUTPUT JSON FORMAT:
{
  "score": integer (%d-%d),
  "subject": string (Ví dụ: "Toán học - Lớp 12", "Ngữ Văn - THPT"),
  "overallVerdict": %s,
  "summary": string (Tóm tắt 60-80 từ về nội dung và chất lượng),
  "pros": string[] (3-5 điểm mạnh),
  "cons": string[] (3-5 điểm yếu cụ thể),
  "contentFeedback": string (Nhận xét chi tiết về kiến thức chuyên môn),
  "designFeedback": string (Nhận xét chi tiết về trình bày)
}
`, domain.MinScore, domain.MaxScore, strings.Join(labels, " | "))
	return b.String()
}

func writeChecks(b *strings.Builder, checks []string) {
	for _, check := range checks {
		fmt.Fprintf(b, "   - %s\n", check)
	}
}

func buildTaskText(task string, content domain.ExtractedContent) string {
	task = strings.TrimSpace(task)
	if content.Pages > 0 {
		task += fmt.Sprintf(" Tài liệu PDF gồm %d trang.", content.Pages)
	}
	return task
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
