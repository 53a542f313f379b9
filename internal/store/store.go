package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"afc-report-backend/internal/logger"
	"afc-report-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	Append(ctx context.Context, r model.Report) (model.Report, error)
	AppendAll(ctx context.Context, rs []model.Report) ([]model.Report, error)
	ListAll(ctx context.Context) ([]model.Report, error)
	ListPending(ctx context.Context) ([]model.Report, error)
	MarkSynced(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	ClearSynced(ctx context.Context) (int64, error)

	Preference(ctx context.Context, key string) (string, error)
	SetPreference(ctx context.Context, key, value string) error

	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db, now: time.Now}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// Append stores r as a new unsynced report. The id, sequence number and, when
// missing, the reported date are assigned here.
func (s *gormStore) Append(ctx context.Context, r model.Report) (model.Report, error) {
	saved, err := s.AppendAll(ctx, []model.Report{r})
	if err != nil {
		return model.Report{}, err
	}
	return saved[0], nil
}

// AppendAll stores every report in one transaction: either all of them are
// queued or none is. Sequence numbers follow the order of rs.
func (s *gormStore) AppendAll(ctx context.Context, rs []model.Report) ([]model.Report, error) {
	if len(rs) == 0 {
		return nil, nil
	}
	saved := make([]model.Report, len(rs))
	now := s.now().Format(time.RFC3339)
	for i, r := range rs {
		r.ID = uuid.New().String()
		r.Synced = false
		if r.ReportedDate == "" {
			r.ReportedDate = now
		}
		saved[i] = r
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxSeq int64
		if err := tx.Model(&model.Report{}).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&maxSeq).Error; err != nil {
			return fmt.Errorf("failed to read report sequence: %w", err)
		}
		for i := range saved {
			saved[i].Seq = maxSeq + int64(i) + 1
			if err := tx.Create(&saved[i]).Error; err != nil {
				return fmt.Errorf("failed to insert report for tag %q: %w", saved[i].Tag, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, r := range saved {
		logger.For("store").WithFields(map[string]any{"id": r.ID, "tag": r.Tag}).Debug("report queued")
	}
	return saved, nil
}

// ListAll returns every stored report, newest first.
func (s *gormStore) ListAll(ctx context.Context) ([]model.Report, error) {
	reports := make([]model.Report, 0)
	if err := s.db.WithContext(ctx).Order("seq DESC").Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

// ListPending returns the reports not yet accepted by the remote, newest first.
func (s *gormStore) ListPending(ctx context.Context) ([]model.Report, error) {
	reports := make([]model.Report, 0)
	if err := s.db.WithContext(ctx).
		Where("synced = ?", false).
		Order("seq DESC").
		Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending reports: %w", err)
	}
	return reports, nil
}

// MarkSynced flags a report as delivered. An unknown id is not an error.
func (s *gormStore) MarkSynced(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).
		Model(&model.Report{}).
		Where("id = ?", id).
		Update("synced", true).Error; err != nil {
		return fmt.Errorf("failed to mark report %s synced: %w", id, err)
	}
	return nil
}

// Delete removes a report permanently, synced or not.
func (s *gormStore) Delete(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Report{}).Error; err != nil {
		return fmt.Errorf("failed to delete report %s: %w", id, err)
	}
	return nil
}

// ClearSynced drops every report that already reached the remote.
func (s *gormStore) ClearSynced(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("synced = ?", true).Delete(&model.Report{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clear synced reports: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Preference returns the stored value of key, or "" when it was never set.
func (s *gormStore) Preference(ctx context.Context, key string) (string, error) {
	var pref model.Preference
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read preference %s: %w", key, err)
	}
	return pref.Value, nil
}

func (s *gormStore) SetPreference(ctx context.Context, key, value string) error {
	pref := model.Preference{Key: key, Value: value}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&pref).Error; err != nil {
		return fmt.Errorf("failed to save preference %s: %w", key, err)
	}
	return nil
}
