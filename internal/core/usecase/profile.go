package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
	"github.com/kirillkom/documind-auditor/internal/core/ports"
)

const maxProfileFieldRunes = 200

// ProfileService owns the reviewer profile. The profile always has an id and no blank fields.
type ProfileService struct {
	store ports.ProfileStore
	newID func() string

	mu      sync.RWMutex
	profile domain.ReviewerProfile
}

func NewProfileService(store ports.ProfileStore) *ProfileService {
	s := &ProfileService{store: store, newID: uuid.NewString}
	s.profile = s.fresh()
	return s
}

func (s *ProfileService) fresh() domain.ReviewerProfile {
	return domain.ReviewerProfile{ID: s.newID()}.WithDefaults()
}

// Load reads the stored profile, fills defaults, and writes back anything it had to fill.
func (s *ProfileService) Load(ctx context.Context) (domain.ReviewerProfile, error) {
	stored, found, err := s.store.LoadProfile(ctx)
	if err != nil {
		slog.Warn("profile_load_failed", "error", err)
		found = false
	}

	profile := stored.WithDefaults()
	if strings.TrimSpace(profile.ID) == "" {
		profile.ID = s.newID()
	}

	s.mu.Lock()
	s.profile = profile
	s.mu.Unlock()

	if !found || profile != stored {
		if err := s.store.SaveProfile(ctx, profile); err != nil {
			return profile, fmt.Errorf("save profile: %w", err)
		}
	}
	return profile, nil
}

func (s *ProfileService) Current() domain.ReviewerProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

func (s *ProfileService) Update(ctx context.Context, update domain.ProfileUpdate) (domain.ReviewerProfile, error) {
	if err := validateProfileUpdate(update); err != nil {
		return domain.ReviewerProfile{}, err
	}

	s.mu.Lock()
	next := s.profile
	if update.Name != nil {
		next.Name = strings.TrimSpace(*update.Name)
	}
	if update.Title != nil {
		next.Title = strings.TrimSpace(*update.Title)
	}
	if update.Organization != nil {
		next.Organization = strings.TrimSpace(*update.Organization)
	}
	if update.SignatureText != nil {
		next.SignatureText = strings.TrimSpace(*update.SignatureText)
	}
	next = next.WithDefaults()
	s.profile = next
	s.mu.Unlock()

	if err := s.store.SaveProfile(ctx, next); err != nil {
		return next, fmt.Errorf("save profile: %w", err)
	}
	return next, nil
}

func (s *ProfileService) UpgradeToPremium(ctx context.Context) (domain.ReviewerProfile, error) {
	s.mu.Lock()
	s.profile.IsPremium = true
	next := s.profile
	s.mu.Unlock()

	if err := s.store.SaveProfile(ctx, next); err != nil {
		return next, fmt.Errorf("save profile: %w", err)
	}
	slog.Info("profile_upgraded", "profile_id", next.ID)
	return next, nil
}

// Reset deletes the stored profile and starts over with a new id and defaults.
func (s *ProfileService) Reset(ctx context.Context) (domain.ReviewerProfile, error) {
	if err := s.store.DeleteProfile(ctx); err != nil {
		return s.Current(), fmt.Errorf("delete profile: %w", err)
	}
	next := s.fresh()
	s.mu.Lock()
	s.profile = next
	s.mu.Unlock()

	if err := s.store.SaveProfile(ctx, next); err != nil {
		return next, fmt.Errorf("save profile: %w", err)
	}
	return next, nil
}

func validateProfileUpdate(update domain.ProfileUpdate) error {
	fields := []struct {
		name  string
		value *string
	}{
		{"name", update.Name},
		{"title", update.Title},
		{"organization", update.Organization},
		{"signatureText", update.SignatureText},
	}
	for _, f := range fields {
		if f.value != nil && utf8.RuneCountInString(*f.value) > maxProfileFieldRunes {
			return domain.WrapError(domain.ErrInvalidInput, "update profile", fmt.Errorf("%s exceeds %d characters", f.name, maxProfileFieldRunes))
		}
	}
	return nil
}
