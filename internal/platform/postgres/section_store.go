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

// PostgresSectionStore implements the store.SectionStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSectionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSectionStore creates a new PostgreSQL implementation of the SectionStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresSectionStore(db store.DBTX, logger *slog.Logger) *PostgresSectionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSectionStore{
		db:     db,
		logger: logger.With(slog.String("component", "section_store")),
	}
}

// Ensure PostgresSectionStore implements store.SectionStore interface
var _ store.SectionStore = (*PostgresSectionStore)(nil)

// Create implements store.SectionStore.Create
// The new section is placed after its existing siblings.
func (s *PostgresSectionStore) Create(ctx context.Context, section *domain.Section) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := section.Validate(); err != nil {
		log.Warn("section validation failed during create",
			slog.String("error", err.Error()),
			slog.String("section_id", section.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO sections (id, collection_id, name, position, created_at)
		VALUES ($1, $2, $3,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM sections WHERE collection_id = $2),
			$4)
	`
	_, err := s.db.ExecContext(ctx, query,
		section.ID,
		section.CollectionID,
		section.Name,
		section.CreatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("section references unknown collection",
				slog.String("section_id", section.ID.String()),
				slog.String("collection_id", section.CollectionID.String()))
			return store.ErrCollectionNotFound
		}
		log.Error("failed to create section",
			slog.String("error", err.Error()),
			slog.String("section_id", section.ID.String()))
		return MapError(err)
	}

	log.Debug("section created successfully",
		slog.String("section_id", section.ID.String()))
	return nil
}

// Rename implements store.SectionStore.Rename
func (s *PostgresSectionStore) Rename(ctx context.Context, id uuid.UUID, name string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `UPDATE sections SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		log.Error("failed to rename section",
			slog.String("error", err.Error()),
			slog.String("section_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrSectionNotFound)
}

// Delete implements store.SectionStore.Delete
// Sub-sections and items go with it through ON DELETE CASCADE.
func (s *PostgresSectionStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM sections WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete section",
			slog.String("error", err.Error()),
			slog.String("section_id", id.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrSectionNotFound); err != nil {
		return err
	}

	log.Debug("section deleted", slog.String("section_id", id.String()))
	return nil
}
