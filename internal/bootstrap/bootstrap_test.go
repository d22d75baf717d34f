package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kirillkom/documind-auditor/internal/config"
	"github.com/kirillkom/documind-auditor/internal/core/domain"
)

func TestNewWiresLocalOnlySession(t *testing.T) {
	cfg := config.Config{
		StatePath:          t.TempDir(),
		GeminiModel:        "gemini-test",
		UploadFreeMaxMB:    20,
		UploadPremiumMaxMB: 500,
		ModelTimeout:       time.Second,
	}

	app, err := New(context.Background(), cfg, Options{Service: "test"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Close()

	snapshot := app.Session.Snapshot()
	if snapshot.RemoteConfigured || snapshot.SyncMode != domain.SyncLocal {
		t.Fatalf("expected local-only session, got %+v", snapshot)
	}
	if snapshot.Profile.ID == "" || snapshot.Profile.Name != domain.DefaultReviewerName {
		t.Fatalf("expected default profile, got %+v", snapshot.Profile)
	}
	if len(app.Rubric.Dimensions) == 0 {
		t.Fatalf("expected built-in rubric")
	}

	_, err = app.Session.Submit(context.Background(), domain.UploadedFile{Name: "a.pdf", MimeType: "application/pdf", Size: 4, Data: []byte("%PDF")})
	if !domain.IsKind(err, domain.ErrMissingCredentials) {
		t.Fatalf("expected missing credentials without a key, got %v", err)
	}
}

func TestModelResilienceConfig(t *testing.T) {
	rc := modelResilienceConfig(config.Config{
		ModelTimeout:             90 * time.Second,
		ModelRetryMaxAttempts:    4,
		ModelRetryInitialBackoff: time.Second,
		ModelRetryMaxBackoff:     5 * time.Second,
		ModelBreakerEnabled:      false,
	})
	if rc.AttemptTimeout != 90*time.Second || rc.RetryMaxAttempts != 4 || rc.BreakerEnabled {
		t.Fatalf("unexpected resilience config %+v", rc)
	}
}

type schemaFake struct {
	err   error
	calls int
}

func (s *schemaFake) EnsureSchema(context.Context) error {
	s.calls++
	return s.err
}

func TestEnsureRemoteSchemaKeepsMirrorWithoutCreateRights(t *testing.T) {
	denied := &schemaFake{err: domain.WrapError(domain.ErrSyncPermissionDenied, "execute schema ddl", errors.New("42501"))}
	if err := ensureRemoteSchema(context.Background(), denied); err != nil {
		t.Fatalf("permission denied on DDL must keep the mirror, got %v", err)
	}
	if denied.calls != 1 {
		t.Fatalf("expected one schema attempt, got %d", denied.calls)
	}

	network := &schemaFake{err: domain.WrapError(domain.ErrSyncTransient, "begin schema tx", errors.New("connection refused"))}
	err := ensureRemoteSchema(context.Background(), network)
	if !domain.IsKind(err, domain.ErrSyncTransient) {
		t.Fatalf("expected unavailable error to propagate, got %v", err)
	}

	if err := ensureRemoteSchema(context.Background(), &schemaFake{}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}
