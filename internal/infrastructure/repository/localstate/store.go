package localstate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
	"github.com/kirillkom/documind-auditor/internal/core/ports"
)

const (
	HistoryKey = "history.json"
	ProfileKey = "profile.json"
)

// Store keeps the history list and the reviewer profile as two whole-value JSON blobs.
type Store struct {
	storage ports.ObjectStorage
}

func New(storage ports.ObjectStorage) *Store {
	return &Store{storage: storage}
}

func (s *Store) LoadHistory(ctx context.Context) ([]domain.HistoryEntry, error) {
	entries := make([]domain.HistoryEntry, 0)
	found, err := s.load(ctx, HistoryKey, &entries)
	if err != nil {
		return nil, err
	}
	if !found || entries == nil {
		return []domain.HistoryEntry{}, nil
	}
	return entries, nil
}

func (s *Store) SaveHistory(ctx context.Context, entries []domain.HistoryEntry) error {
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	return s.save(ctx, HistoryKey, entries)
}

func (s *Store) DeleteHistory(ctx context.Context) error {
	if err := s.storage.Delete(ctx, HistoryKey); err != nil {
		return fmt.Errorf("delete local history: %w", err)
	}
	return nil
}

func (s *Store) LoadProfile(ctx context.Context) (domain.ReviewerProfile, bool, error) {
	var profile domain.ReviewerProfile
	found, err := s.load(ctx, ProfileKey, &profile)
	if err != nil {
		return domain.ReviewerProfile{}, false, err
	}
	return profile, found, nil
}

func (s *Store) SaveProfile(ctx context.Context, profile domain.ReviewerProfile) error {
	return s.save(ctx, ProfileKey, profile)
}

func (s *Store) DeleteProfile(ctx context.Context) error {
	if err := s.storage.Delete(ctx, ProfileKey); err != nil {
		return fmt.Errorf("delete local profile: %w", err)
	}
	return nil
}

func (s *Store) load(ctx context.Context, key string, out any) (bool, error) {
	rc, err := s.storage.Open(ctx, key)
	if domain.IsKind(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("open %s: %w", key, err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, domain.WrapError(domain.ErrInvalidInput, "decode "+key, err)
	}
	return true, nil
}

func (s *Store) save(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.storage.Save(ctx, key, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
