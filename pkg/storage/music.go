package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// GeneratedMusic is the persisted artifact of one generation. It is created
// once by the orchestrator and never mutated afterwards, except to re-point
// AudioURL when a missing file is regenerated.
type GeneratedMusic struct {
	ID        string `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	UserID  string `gorm:"index:idx_music_user;not null;default:''"`
	EntryID string `gorm:"index;not null;default:''"`

	GeneratedAt time.Time
	Provider    string  `gorm:"not null;default:''"`
	AudioURL    string  `gorm:"not null;default:''"`
	Duration    float32 `gorm:"not null;default:0"`

	// Public projection of the generation parameters.
	Tempo       float32 `gorm:"not null;default:0"`
	Key         string  `gorm:"not null;default:''"`
	Instruments string  `gorm:"not null;default:''"`
	Mood        string  `gorm:"not null;default:''"`
}

// StorageKey is the logical key this record is known by to the journal's
// export and sync flows.
func (m *GeneratedMusic) StorageKey() string {
	return fmt.Sprintf("generated_music_%s_%s", m.UserID, m.ID)
}

// GetMusic looks up one record by owner and id. The lookup is indexed, not a
// per-user scan.
func (s *Store) GetMusic(ctx context.Context, userID, id string) (*GeneratedMusic, error) {
	var v GeneratedMusic
	if err := s.db.First(&v, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: failed to get GeneratedMusic %s: %w", id, err)
	}
	return &v, nil
}

func (s *Store) SetMusic(ctx context.Context, v *GeneratedMusic) error {
	if err := s.db.Save(v).Error; err != nil {
		return fmt.Errorf("storage: failed to set GeneratedMusic %s: %w", v.ID, err)
	}
	return nil
}

func (s *Store) DeleteMusic(ctx context.Context, userID, id string) error {
	if err := s.db.Delete(&GeneratedMusic{}, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("storage: failed to delete GeneratedMusic %s: %w", id, err)
	}
	return nil
}

// ListMusic returns a page of a user's artifacts, newest first.
func (s *Store) ListMusic(ctx context.Context, userID string, page, size int, filter ...Filter) ([]*GeneratedMusic, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * size
	vs := []*GeneratedMusic{}
	q := s.db.Where("user_id = ?", userID)
	for _, f := range filter {
		q = q.Where(f.Query, f.Args...)
	}
	if err := q.Order("generated_at desc").Offset(offset).Limit(size).Find(&vs).Error; err != nil {
		return nil, fmt.Errorf("storage: failed to list GeneratedMusic: %w", err)
	}
	return vs, nil
}
