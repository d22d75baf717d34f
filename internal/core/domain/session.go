package domain

type ViewState string

const (
	ViewUpload    ViewState = "upload"
	ViewAnalyzing ViewState = "analyzing"
	ViewResult    ViewState = "result"
	ViewHistory   ViewState = "history"
	ViewSettings  ViewState = "settings"
	ViewCriteria  ViewState = "criteria"
	ViewProfile   ViewState = "profile"
)

func (v ViewState) Valid() bool {
	switch v {
	case ViewUpload, ViewAnalyzing, ViewResult, ViewHistory, ViewSettings, ViewCriteria, ViewProfile:
		return true
	default:
		return false
	}
}

// AuditProgress is an estimate shown while the model call is outstanding.
// No real progress signal exists, so Percent never reaches 100 before completion.
type AuditProgress struct {
	Active   bool    `json:"active"`
	FileName string  `json:"file_name,omitempty"`
	Percent  float64 `json:"percent"`
	Stage    string  `json:"stage,omitempty"`
	Detail   string  `json:"detail,omitempty"`
}

type SessionSnapshot struct {
	View             ViewState       `json:"view"`
	SyncMode         SyncMode        `json:"sync_mode"`
	RemoteConfigured bool            `json:"remote_configured"`
	HistoryCount     int             `json:"history_count"`
	HasResult        bool            `json:"has_result"`
	CurrentFileName  string          `json:"current_file_name,omitempty"`
	Profile          ReviewerProfile `json:"profile"`
	Progress         AuditProgress   `json:"progress"`
}
