package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/brainace/internal/domain"
	"github.com/phrazzld/brainace/internal/platform/logger"
	"github.com/phrazzld/brainace/internal/store"
)

// PostgresItemStore implements the store.ItemStore interface
// using a PostgreSQL database as the storage backend.
// Cards are stored as JSONB next to a version column that guards
// concurrent ratings.
type PostgresItemStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresItemStore creates a new PostgreSQL implementation of the ItemStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresItemStore(db store.DBTX, logger *slog.Logger) *PostgresItemStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresItemStore{
		db:     db,
		logger: logger.With(slog.String("component", "item_store")),
	}
}

// Ensure PostgresItemStore implements store.ItemStore interface
var _ store.ItemStore = (*PostgresItemStore)(nil)

// Create implements store.ItemStore.Create
func (s *PostgresItemStore) Create(ctx context.Context, item *domain.Item) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := item.Validate(); err != nil {
		log.Warn("item validation failed during create",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	card, err := domain.MarshalCard(item.Card)
	if err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	version := item.Version
	if version < 1 {
		version = 1
	}

	query := `
		INSERT INTO items (id, sub_section_id, front, back, card, version, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM items WHERE sub_section_id = $2),
			$7)
	`
	_, err = s.db.ExecContext(ctx, query,
		item.ID,
		item.SubSectionID,
		item.Front,
		item.Back,
		card,
		version,
		item.CreatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("item references unknown sub-section",
				slog.String("item_id", item.ID.String()),
				slog.String("sub_section_id", item.SubSectionID.String()))
			return store.ErrSubSectionNotFound
		}
		log.Error("failed to create item",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return MapError(err)
	}

	item.Version = version
	log.Debug("item created successfully", slog.String("item_id", item.ID.String()))
	return nil
}

// GetByID implements store.ItemStore.GetByID
func (s *PostgresItemStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, sub_section_id, front, back, card, version, created_at
		FROM items
		WHERE id = $1
	`
	item, err := scanItem(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("item not found", slog.String("item_id", id.String()))
			return nil, store.ErrItemNotFound
		}
		if errors.Is(err, store.ErrCorruptData) {
			log.Error("stored card is corrupt",
				slog.String("error", err.Error()),
				slog.String("item_id", id.String()))
			return nil, err
		}
		log.Error("failed to get item",
			slog.String("error", err.Error()),
			slog.String("item_id", id.String()))
		return nil, MapError(err)
	}
	return item, nil
}

// ListBySubSection implements store.ItemStore.ListBySubSection
func (s *PostgresItemStore) ListBySubSection(
	ctx context.Context,
	subSectionID uuid.UUID,
) ([]domain.Item, error) {
	items, err := queryItems(ctx, s.db, `
		SELECT id, sub_section_id, front, back, card, version, created_at
		FROM items
		WHERE sub_section_id = $1
		ORDER BY position, created_at, id
	`, subSectionID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list items",
			slog.String("error", err.Error()),
			slog.String("sub_section_id", subSectionID.String()))
		return nil, err
	}
	return items, nil
}

// UpdateContent implements store.ItemStore.UpdateContent
func (s *PostgresItemStore) UpdateContent(ctx context.Context, id uuid.UUID, front, back string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`UPDATE items SET front = $1, back = $2 WHERE id = $3`, front, back, id)
	if err != nil {
		log.Error("failed to update item content",
			slog.String("error", err.Error()),
			slog.String("item_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrItemNotFound)
}

// UpdateCard implements store.ItemStore.UpdateCard
// The write only lands when the stored version equals expectedVersion; a
// second query tells a stale version apart from a missing item.
func (s *PostgresItemStore) UpdateCard(
	ctx context.Context,
	id uuid.UUID,
	card domain.Card,
	expectedVersion int64,
) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	data, err := domain.MarshalCard(card)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE items
		SET card = $1, version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING version
	`
	var version int64
	err = s.db.QueryRowContext(ctx, query, data, id, expectedVersion).Scan(&version)
	if err == nil {
		log.Debug("item card updated",
			slog.String("item_id", id.String()),
			slog.Int64("version", version))
		return version, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		log.Error("failed to update item card",
			slog.String("error", err.Error()),
			slog.String("item_id", id.String()))
		return 0, MapError(err)
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM items WHERE id = $1)`, id).Scan(&exists); err != nil {
		log.Error("failed to check item existence",
			slog.String("error", err.Error()),
			slog.String("item_id", id.String()))
		return 0, MapError(err)
	}
	if !exists {
		return 0, store.ErrItemNotFound
	}

	log.Warn("stale item version",
		slog.String("item_id", id.String()),
		slog.Int64("expected_version", expectedVersion))
	return 0, store.ErrConflict
}

// Delete implements store.ItemStore.Delete
func (s *PostgresItemStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete item",
			slog.String("error", err.Error()),
			slog.String("item_id", id.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrItemNotFound); err != nil {
		return err
	}

	log.Debug("item deleted", slog.String("item_id", id.String()))
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.Item, error) {
	var (
		it   domain.Item
		card []byte
	)
	if err := row.Scan(&it.ID, &it.SubSectionID, &it.Front, &it.Back, &card, &it.Version, &it.CreatedAt); err != nil {
		return nil, err
	}
	c, err := domain.UnmarshalCard(card)
	if err != nil {
		return nil, fmt.Errorf("%w: item %s: %w", store.ErrCorruptData, it.ID, err)
	}
	it.Card = c
	it.CreatedAt = it.CreatedAt.UTC()
	return &it, nil
}

func queryItems(ctx context.Context, db store.DBTX, query string, args ...any) ([]domain.Item, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	items := []domain.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			if errors.Is(err, store.ErrCorruptData) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return items, nil
}
