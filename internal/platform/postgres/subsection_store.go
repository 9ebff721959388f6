package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/brainace/internal/domain"
	"github.com/phrazzld/brainace/internal/platform/logger"
	"github.com/phrazzld/brainace/internal/store"
)

// PostgresSubSectionStore implements the store.SubSectionStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSubSectionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSubSectionStore creates a new PostgreSQL implementation of the SubSectionStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresSubSectionStore(db store.DBTX, logger *slog.Logger) *PostgresSubSectionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSubSectionStore{
		db:     db,
		logger: logger.With(slog.String("component", "sub_section_store")),
	}
}

// Ensure PostgresSubSectionStore implements store.SubSectionStore interface
var _ store.SubSectionStore = (*PostgresSubSectionStore)(nil)

// Create implements store.SubSectionStore.Create
func (s *PostgresSubSectionStore) Create(ctx context.Context, subSection *domain.SubSection) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := subSection.Validate(); err != nil {
		log.Warn("sub-section validation failed during create",
			slog.String("error", err.Error()),
			slog.String("sub_section_id", subSection.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO sub_sections (id, section_id, name, position, created_at)
		VALUES ($1, $2, $3,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM sub_sections WHERE section_id = $2),
			$4)
	`
	_, err := s.db.ExecContext(ctx, query,
		subSection.ID,
		subSection.SectionID,
		subSection.Name,
		subSection.CreatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("sub-section references unknown section",
				slog.String("sub_section_id", subSection.ID.String()),
				slog.String("section_id", subSection.SectionID.String()))
			return store.ErrSectionNotFound
		}
		log.Error("failed to create sub-section",
			slog.String("error", err.Error()),
			slog.String("sub_section_id", subSection.ID.String()))
		return MapError(err)
	}

	log.Debug("sub-section created successfully",
		slog.String("sub_section_id", subSection.ID.String()))
	return nil
}

// Rename implements store.SubSectionStore.Rename
func (s *PostgresSubSectionStore) Rename(ctx context.Context, id uuid.UUID, name string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `UPDATE sub_sections SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		log.Error("failed to rename sub-section",
			slog.String("error", err.Error()),
			slog.String("sub_section_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrSubSectionNotFound)
}

// Delete implements store.SubSectionStore.Delete
func (s *PostgresSubSectionStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM sub_sections WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete sub-section",
			slog.String("error", err.Error()),
			slog.String("sub_section_id", id.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrSubSectionNotFound); err != nil {
		return err
	}

	log.Debug("sub-section deleted", slog.String("sub_section_id", id.String()))
	return nil
}
