package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/kirillkom/documind-auditor/internal/config"
	"github.com/kirillkom/documind-auditor/internal/core/domain"
	"github.com/kirillkom/documind-auditor/internal/core/ports"
)

const (
	pdfContentType  = "application/pdf"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	historyExportFileName = "Lich_su_kiem_duyet.xlsx"
	multipartMemory       = 32 << 20
)

// HTTPMetrics is satisfied by metrics.HTTPServerMetrics.
type HTTPMetrics interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

type Router struct {
	session ports.Session
	metrics HTTPMetrics

	maxUploadBytes int64
	rateLimitRPS   float64
	rateLimitBurst int
	maxInFlight    int
	backpressure   time.Duration
}

// NewRouter accepts nil metrics; /metrics is then not served.
func NewRouter(cfg config.Config, session ports.Session, metrics HTTPMetrics) *Router {
	_, premium := cfg.UploadLimits()
	if premium <= 0 {
		premium = 500 << 20
	}
	overhead := cfg.APIUploadOverhead
	if overhead <= 0 {
		overhead = 1 << 20
	}
	return &Router{
		session:        session,
		metrics:        metrics,
		maxUploadBytes: premium + overhead,
		rateLimitRPS:   cfg.APIRateLimitRPS,
		rateLimitBurst: cfg.APIRateLimitBurst,
		maxInFlight:    cfg.APIMaxInFlight,
		backpressure:   cfg.APIBackpressureWait,
	}
}

func (rt *Router) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /v1/session", rt.getSession)
	api.HandleFunc("POST /v1/session/view", rt.navigate)
	api.HandleFunc("POST /v1/session/reset", rt.resetSession)
	api.HandleFunc("POST /v1/session/logout", rt.logout)

	api.HandleFunc("POST /v1/audits", rt.submitAudit)
	api.HandleFunc("GET /v1/audits/current", rt.currentAudit)
	api.HandleFunc("GET /v1/audits/progress", rt.auditProgress)
	api.HandleFunc("GET /v1/audits/current/report", rt.currentReport)

	api.HandleFunc("GET /v1/history", rt.listHistory)
	api.HandleFunc("DELETE /v1/history", rt.clearHistory)
	api.HandleFunc("GET /v1/history/export", rt.exportHistory)
	api.HandleFunc("GET /v1/history/{id}", rt.getHistoryEntry)
	api.HandleFunc("POST /v1/history/{id}/select", rt.selectHistoryEntry)
	api.HandleFunc("GET /v1/history/{id}/report", rt.historyReport)

	api.HandleFunc("GET /v1/profile", rt.getProfile)
	api.HandleFunc("PUT /v1/profile", rt.updateProfile)
	api.HandleFunc("POST /v1/profile/upgrade", rt.upgradeProfile)

	api.HandleFunc("GET /v1/criteria", rt.criteria)

	var limited http.Handler = api
	limited = backpressureMiddleware(limited, rt.maxInFlight, rt.backpressure)
	limited = rateLimitMiddleware(limited, rt.rateLimitRPS, rt.rateLimitBurst)

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		root.Handle("GET /metrics", rt.metrics.Handler())
	}
	root.Handle("/v1/", limited)

	var handler http.Handler = root
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) getSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rt.session.Snapshot())
}

func (rt *Router) navigate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		View domain.ViewState `json:"view"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := rt.session.Navigate(req.View); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rt.session.Snapshot())
}

func (rt *Router) resetSession(w http.ResponseWriter, _ *http.Request) {
	rt.session.Reset()
	writeJSON(w, http.StatusOK, rt.session.Snapshot())
}

func (rt *Router) logout(w http.ResponseWriter, r *http.Request) {
	if err := rt.session.Logout(r.Context(), confirmed(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rt.session.Snapshot())
}

// oversizedUpload reports a body cut off by MaxBytesReader against the caller's tier.
func (rt *Router) oversizedUpload(r *http.Request, tooLarge *http.MaxBytesError) error {
	size := max(r.ContentLength, tooLarge.Limit+1)
	if err := rt.session.CheckUploadSize("", size); err != nil {
		return err
	}
	return domain.WrapError(domain.ErrFileTooLarge, "parse upload", tooLarge)
}

func (rt *Router) submitAudit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, rt.oversizedUpload(r, tooLarge))
			return
		}
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "parse upload", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "parse upload", errors.New("multipart field 'file' is required")))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "read upload", err))
		return
	}

	entry, err := rt.session.Submit(r.Context(), domain.UploadedFile{
		Name:     header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Size:     header.Size,
		Data:     data,
	})
	if err != nil {
		writeAuditError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (rt *Router) currentAudit(w http.ResponseWriter, r *http.Request) {
	entry, ok := rt.session.Current()
	if !ok {
		writeError(w, r, domain.WrapError(domain.ErrNotFound, "current audit", errors.New("no result yet")))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (rt *Router) auditProgress(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rt.session.Progress())
}

func (rt *Router) currentReport(w http.ResponseWriter, r *http.Request) {
	report, err := rt.session.CurrentReport(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeFile(w, r, pdfContentType, report.FileName, report.Data)
}

type historyResponse struct {
	Entries          []domain.HistoryEntry `json:"entries"`
	SyncMode         domain.SyncMode       `json:"sync_mode"`
	RemoteConfigured bool                  `json:"remote_configured"`
}

func (rt *Router) listHistory(w http.ResponseWriter, _ *http.Request) {
	snapshot := rt.session.Snapshot()
	writeJSON(w, http.StatusOK, historyResponse{
		Entries:          rt.session.History(),
		SyncMode:         snapshot.SyncMode,
		RemoteConfigured: snapshot.RemoteConfigured,
	})
}

func (rt *Router) clearHistory(w http.ResponseWriter, r *http.Request) {
	outcome, err := rt.session.ClearHistory(r.Context(), confirmed(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (rt *Router) exportHistory(w http.ResponseWriter, r *http.Request) {
	data, err := rt.session.ExportHistory(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeFile(w, r, xlsxContentType, historyExportFileName, data)
}

func (rt *Router) getHistoryEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	for _, entry := range rt.session.History() {
		if entry.ID == id {
			writeJSON(w, http.StatusOK, entry)
			return
		}
	}
	writeError(w, r, domain.WrapError(domain.ErrNotFound, "get history entry", errors.New("id "+id)))
}

func (rt *Router) selectHistoryEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := rt.session.SelectHistory(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (rt *Router) historyReport(w http.ResponseWriter, r *http.Request) {
	report, err := rt.session.HistoryReport(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeFile(w, r, pdfContentType, report.FileName, report.Data)
}

func (rt *Router) getProfile(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rt.session.Profile())
}

func (rt *Router) updateProfile(w http.ResponseWriter, r *http.Request) {
	var update domain.ProfileUpdate
	if err := decodeJSON(r, &update); err != nil {
		writeError(w, r, err)
		return
	}
	profile, err := rt.session.UpdateProfile(r.Context(), update)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (rt *Router) upgradeProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := rt.session.UpgradeToPremium(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (rt *Router) criteria(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rt.session.Criteria())
}

func confirmed(r *http.Request) bool {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	return ok
}

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "decode request", errors.New("invalid json"))
	}
	return nil
}

// writeFile serves a download, or an inline preview when ?preview=1.
func writeFile(w http.ResponseWriter, r *http.Request, contentType, fileName string, data []byte) {
	disposition := "attachment"
	if preview, _ := strconv.ParseBool(r.URL.Query().Get("preview")); preview {
		disposition = "inline"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": fileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
