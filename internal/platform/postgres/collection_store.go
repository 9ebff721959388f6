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

// PostgresCollectionStore implements the store.CollectionStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCollectionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCollectionStore creates a new PostgreSQL implementation of the CollectionStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCollectionStore(db store.DBTX, logger *slog.Logger) *PostgresCollectionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCollectionStore{
		db:     db,
		logger: logger.With(slog.String("component", "collection_store")),
	}
}

// Ensure PostgresCollectionStore implements store.CollectionStore interface
var _ store.CollectionStore = (*PostgresCollectionStore)(nil)

// Create implements store.CollectionStore.Create
func (s *PostgresCollectionStore) Create(ctx context.Context, collection *domain.Collection) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := collection.Validate(); err != nil {
		log.Warn("collection validation failed during create",
			slog.String("error", err.Error()),
			slog.String("collection_id", collection.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO collections (id, owner_id, name, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query,
		collection.ID,
		nullableUUID(collection.OwnerID),
		collection.Name,
		collection.CreatedAt,
	)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrCollectionExists) {
			log.Warn("owner already has a collection",
				slog.String("collection_id", collection.ID.String()))
			return store.ErrCollectionExists
		}
		log.Error("failed to create collection",
			slog.String("error", err.Error()),
			slog.String("collection_id", collection.ID.String()))
		return mapped
	}

	log.Debug("collection created successfully",
		slog.String("collection_id", collection.ID.String()))
	return nil
}

// GetByOwner implements store.CollectionStore.GetByOwner
func (s *PostgresCollectionStore) GetByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
) (*domain.Collection, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, owner_id, name, created_at
		FROM collections
		WHERE owner_id = $1
	`
	collection, err := scanCollection(s.db.QueryRowContext(ctx, query, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no collection for owner", slog.String("owner_id", ownerID.String()))
			return nil, store.ErrCollectionNotFound
		}
		log.Error("failed to get collection by owner",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, MapError(err)
	}

	return collection, nil
}

// Rename implements store.CollectionStore.Rename
func (s *PostgresCollectionStore) Rename(ctx context.Context, id uuid.UUID, name string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `UPDATE collections SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		log.Error("failed to rename collection",
			slog.String("error", err.Error()),
			slog.String("collection_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrCollectionNotFound)
}

// LoadSnapshot implements store.CollectionStore.LoadSnapshot
// When the store is backed by a connection pool the four reads run inside a
// single read-only repeatable-read transaction. When it is already bound to a
// transaction that transaction is reused.
func (s *PostgresCollectionStore) LoadSnapshot(
	ctx context.Context,
	collectionID uuid.UUID,
) (*store.Snapshot, error) {
	db, ok := s.db.(*sql.DB)
	if !ok {
		return s.loadSnapshot(ctx, s.db, collectionID)
	}

	var snap *store.Snapshot
	err := store.RunInTransactionWithOptions(ctx, db, store.SnapshotTxOptions, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		snap, err = s.loadSnapshot(ctx, tx, collectionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *PostgresCollectionStore) loadSnapshot(
	ctx context.Context,
	db store.DBTX,
	collectionID uuid.UUID,
) (*store.Snapshot, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("collection_id", collectionID.String()))

	collection, err := scanCollection(db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, created_at
		FROM collections
		WHERE id = $1
	`, collectionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCollectionNotFound
		}
		log.Error("failed to load collection", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	snap := &store.Snapshot{Collection: *collection}

	snap.Sections, err = querySections(ctx, db, collectionID)
	if err != nil {
		log.Error("failed to load sections", slog.String("error", err.Error()))
		return nil, err
	}

	snap.SubSections, err = querySubSections(ctx, db, collectionID)
	if err != nil {
		log.Error("failed to load sub-sections", slog.String("error", err.Error()))
		return nil, err
	}

	snap.Items, err = queryItems(ctx, db, `
		SELECT i.id, i.sub_section_id, i.front, i.back, i.card, i.version, i.created_at
		FROM items i
		JOIN sub_sections ss ON ss.id = i.sub_section_id
		JOIN sections s ON s.id = ss.section_id
		WHERE s.collection_id = $1
		ORDER BY s.position, s.created_at, s.id,
			ss.position, ss.created_at, ss.id,
			i.position, i.created_at, i.id
	`, collectionID)
	if err != nil {
		log.Error("failed to load items", slog.String("error", err.Error()))
		return nil, err
	}

	log.Debug("collection snapshot loaded",
		slog.Int("sections", len(snap.Sections)),
		slog.Int("sub_sections", len(snap.SubSections)),
		slog.Int("items", len(snap.Items)))
	return snap, nil
}

func querySections(ctx context.Context, db store.DBTX, collectionID uuid.UUID) ([]domain.Section, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, collection_id, name, created_at
		FROM sections
		WHERE collection_id = $1
		ORDER BY position, created_at, id
	`, collectionID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	sections := []domain.Section{}
	for rows.Next() {
		var sec domain.Section
		if err := rows.Scan(&sec.ID, &sec.CollectionID, &sec.Name, &sec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		sec.CreatedAt = sec.CreatedAt.UTC()
		sections = append(sections, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return sections, nil
}

func querySubSections(ctx context.Context, db store.DBTX, collectionID uuid.UUID) ([]domain.SubSection, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT ss.id, ss.section_id, ss.name, ss.created_at
		FROM sub_sections ss
		JOIN sections s ON s.id = ss.section_id
		WHERE s.collection_id = $1
		ORDER BY s.position, s.created_at, s.id, ss.position, ss.created_at, ss.id
	`, collectionID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	subSections := []domain.SubSection{}
	for rows.Next() {
		var sub domain.SubSection
		if err := rows.Scan(&sub.ID, &sub.SectionID, &sub.Name, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sub-section: %w", err)
		}
		sub.CreatedAt = sub.CreatedAt.UTC()
		subSections = append(subSections, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return subSections, nil
}

func scanCollection(row rowScanner) (*domain.Collection, error) {
	var (
		c     domain.Collection
		owner uuid.NullUUID
	)
	if err := row.Scan(&c.ID, &owner, &c.Name, &c.CreatedAt); err != nil {
		return nil, err
	}
	if owner.Valid {
		id := owner.UUID
		c.OwnerID = &id
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

func nullableUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
