package usecase

import (
	"time"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
)

const (
	progressTick = 150 * time.Millisecond
	progressCap  = 95.0
)

type progressStage struct {
	below   float64
	caption string
	detail  string
}

var progressStages = []progressStage{
	{25, "Đang đọc & trích xuất dữ liệu...", "Hệ thống đang quét nội dung file của bạn"},
	{50, "Phân tích ngữ nghĩa & Logic...", "Kiểm tra độ chính xác và tính sư phạm"},
	{75, "Đánh giá thiết kế & Bố cục...", "So sánh với các tiêu chuẩn thẩm mỹ hiện đại"},
	{progressCap + 1, "Tổng hợp kết quả & Chấm điểm...", "Đang tạo báo cáo chi tiết cho bạn"},
}

// estimatePercent is a pure function of elapsed time. It advances fast at
// first and slows down, and never reaches 100 while the model call is outstanding.
func estimatePercent(elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	ticks := int(elapsed / progressTick)
	percent := 0.0
	for i := 0; i < ticks && percent < progressCap; i++ {
		switch {
		case percent < 30:
			percent += 2.5
		case percent < 70:
			percent += 1.8
		default:
			percent += 1.3
		}
	}
	if percent > progressCap {
		percent = progressCap
	}
	return percent
}

func progressAt(fileName string, elapsed time.Duration) domain.AuditProgress {
	percent := estimatePercent(elapsed)
	stage := progressStages[len(progressStages)-1]
	for _, s := range progressStages {
		if percent < s.below {
			stage = s
			break
		}
	}
	return domain.AuditProgress{
		Active:   true,
		FileName: fileName,
		Percent:  percent,
		Stage:    stage.caption,
		Detail:   stage.detail,
	}
}
