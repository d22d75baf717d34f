package domain

import "strings"

type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

type ReviewerProfile struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Title         string `json:"title"`
	Organization  string `json:"organization"`
	SignatureText string `json:"signatureText"`
	IsPremium     bool   `json:"isPremium"`
}

func (p ReviewerProfile) Tier() Tier {
	if p.IsPremium {
		return TierPremium
	}
	return TierFree
}

const (
	DefaultReviewerName  = "Nguyễn Văn A"
	DefaultReviewerTitle = "Chuyên viên Kiểm định"
	DefaultOrganization  = "Ban Kiểm Duyệt Tài Liệu Quốc Gia"
	DefaultSignatureText = "Đã ký duyệt"
)

// WithDefaults fills blank fields. The id is left to the caller.
func (p ReviewerProfile) WithDefaults() ReviewerProfile {
	out := p
	if strings.TrimSpace(out.Name) == "" {
		out.Name = DefaultReviewerName
	}
	if strings.TrimSpace(out.Title) == "" {
		out.Title = DefaultReviewerTitle
	}
	if strings.TrimSpace(out.Organization) == "" {
		out.Organization = DefaultOrganization
	}
	if strings.TrimSpace(out.SignatureText) == "" {
		out.SignatureText = DefaultSignatureText
	}
	return out
}

// ProfileUpdate carries the user-editable fields; nil means unchanged.
type ProfileUpdate struct {
	Name          *string `json:"name,omitempty"`
	Title         *string `json:"title,omitempty"`
	Organization  *string `json:"organization,omitempty"`
	SignatureText *string `json:"signatureText,omitempty"`
}
