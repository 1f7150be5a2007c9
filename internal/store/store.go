package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"parking-iot-backend/internal/batch"
	"parking-iot-backend/internal/logger"
	"parking-iot-backend/internal/model"
)

// insertChunk bounds rows per INSERT statement so large batches stay under bind-parameter limits.
const insertChunk = 500

// Store defines the interface for all database operations.
// It is the ingestion sink for generated batches.
type Store interface {
	batch.Sink
	UpsertFacilities(ctx context.Context, facilities []model.Facility) error
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the connection for handlers that query directly.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// Flush writes a batch in one transaction. Events already present are skipped, so a
// re-delivered batch is harmless; sessions are inserted or completed by session_id.
func (s *gormStore) Flush(ctx context.Context, b batch.Batch) (int, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(b.Events) > 0 {
			if err := insertEvents(tx, b.Events); err != nil {
				return err
			}
		}
		if len(b.Sessions) > 0 {
			if err := upsertSessions(tx, b.Sessions); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return b.Len(), nil
}

func insertEvents(tx *gorm.DB, events []model.ParkingEvent) error {
	err := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&events, insertChunk).Error
	if err != nil {
		return fmt.Errorf("insert %d events: %w", len(events), err)
	}
	return nil
}

// upsertSessions never moves a completed session back to active.
func upsertSessions(tx *gorm.DB, sessions []model.ParkingSession) error {
	sessions = latestSessions(sessions)
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"out_time", "actual_duration_hours", "cost", "status"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Eq{Column: clause.Column{Table: model.ParkingSession{}.TableName(), Name: "status"}, Value: string(model.SessionActive)},
		}},
	}).CreateInBatches(&sessions, insertChunk).Error
	if err != nil {
		return fmt.Errorf("upsert %d sessions: %w", len(sessions), err)
	}
	return nil
}

// UpsertFacilities writes the facility reference table.
func (s *gormStore) UpsertFacilities(ctx context.Context, facilities []model.Facility) error {
	if len(facilities) == 0 {
		return nil
	}
	logger.Logger(ctx).Info("upserting facilities", zap.Int("count", len(facilities)))
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "facility_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "district", "total_spots", "rate_per_hour", "base_rate", "peak_hours"}),
	}).Create(&facilities).Error
}

// latestSessions keeps one row per session_id, preferring the completed row.
// A single upsert statement may not touch the same key twice.
func latestSessions(sessions []model.ParkingSession) []model.ParkingSession {
	idx := make(map[string]int, len(sessions))
	out := make([]model.ParkingSession, 0, len(sessions))
	for _, s := range sessions {
		if i, ok := idx[s.SessionID]; ok {
			if out[i].Status != model.SessionCompleted {
				out[i] = s
			}
			continue
		}
		idx[s.SessionID] = len(out)
		out = append(out, s)
	}
	return out
}
