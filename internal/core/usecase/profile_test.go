package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
)

func TestProfileLoadFillsDefaultsAndPersists(t *testing.T) {
	store := &profileStoreFake{}
	svc := NewProfileService(store)

	profile, err := svc.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if profile.ID == "" || profile.Name != domain.DefaultReviewerName || profile.IsPremium {
		t.Fatalf("unexpected profile %+v", profile)
	}
	if store.saves != 1 || store.profile.ID != profile.ID {
		t.Fatalf("expected new profile saved")
	}
}

func TestProfileLoadKeepsStoredProfile(t *testing.T) {
	stored := domain.ReviewerProfile{ID: "p1", Name: "Trần B", Title: "T", Organization: "O", SignatureText: "S", IsPremium: true}
	store := &profileStoreFake{profile: stored, found: true}
	svc := NewProfileService(store)

	profile, err := svc.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if profile != stored {
		t.Fatalf("expected stored profile, got %+v", profile)
	}
	if store.saves != 0 {
		t.Fatalf("unchanged profile must not be rewritten")
	}
	if profile.Tier() != domain.TierPremium {
		t.Fatalf("expected premium tier")
	}
}

func TestProfileUpdateAppliesFieldsAndDefaults(t *testing.T) {
	store := &profileStoreFake{}
	svc := NewProfileService(store)
	if _, err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	name := "  Lê Thị C  "
	blank := ""
	profile, err := svc.Update(context.Background(), domain.ProfileUpdate{Name: &name, Organization: &blank})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if profile.Name != "Lê Thị C" {
		t.Fatalf("expected trimmed name, got %q", profile.Name)
	}
	if profile.Organization != domain.DefaultOrganization {
		t.Fatalf("blank organization should fall back to default, got %q", profile.Organization)
	}
	if store.profile.Name != "Lê Thị C" {
		t.Fatalf("update not persisted")
	}
}

func TestProfileUpdateRejectsLongField(t *testing.T) {
	svc := NewProfileService(&profileStoreFake{})
	long := strings.Repeat("ă", maxProfileFieldRunes+1)
	_, err := svc.Update(context.Background(), domain.ProfileUpdate{Title: &long})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestProfileUpgradeAndReset(t *testing.T) {
	store := &profileStoreFake{}
	svc := NewProfileService(store)
	first, _ := svc.Load(context.Background())

	upgraded, err := svc.UpgradeToPremium(context.Background())
	if err != nil || !upgraded.IsPremium {
		t.Fatalf("UpgradeToPremium() = %+v, %v", upgraded, err)
	}

	reset, err := svc.Reset(context.Background())
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if reset.ID == first.ID || reset.IsPremium || reset.Name != domain.DefaultReviewerName {
		t.Fatalf("expected fresh default profile, got %+v", reset)
	}
	if store.deletes != 1 || store.profile.ID != reset.ID {
		t.Fatalf("expected delete then save of the fresh profile")
	}
}
