package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/brainace/internal/store"
)

// PostgreSQL error codes
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

// constraintErrors names what each constraint of the hierarchy schema
// guards. The keys are the names PostgreSQL generates for the constraints
// declared in migrations/00001_create_hierarchy.sql.
var constraintErrors = map[string]error{
	"collections_owner_id_key":     store.ErrCollectionExists,
	"sections_collection_id_fkey":  store.ErrCollectionNotFound,
	"sub_sections_section_id_fkey": store.ErrSectionNotFound,
	"items_sub_section_id_fkey":    store.ErrSubSectionNotFound,
	"collections_name_check":       fmt.Errorf("%w: collection name is blank", store.ErrInvalidEntity),
	"sections_name_check":          fmt.Errorf("%w: section name is blank", store.ErrInvalidEntity),
	"sub_sections_name_check":      fmt.Errorf("%w: sub-section name is blank", store.ErrInvalidEntity),
	"items_version_check":          fmt.Errorf("%w: item version below 1", store.ErrInvalidEntity),
}

// entityNames maps table names to the entity they hold, for messages about
// violations no constraint name identifies.
var entityNames = map[string]string{
	"collections":  "collection",
	"sections":     "section",
	"sub_sections": "sub-section",
	"items":        "item",
}

// MapError translates a database error into the store error it means for
// the hierarchy. The original error stays wrapped for logging; callers must
// not pass the result to clients verbatim.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	if known, ok := constraintErrors[pgErr.ConstraintName]; ok {
		return fmt.Errorf("%w: %v", known, err)
	}

	entity := entityNames[pgErr.TableName]
	if entity == "" {
		entity = "entity"
	}
	switch pgErr.Code {
	case uniqueViolationCode:
		return fmt.Errorf("%w: %s %s: %v", store.ErrDuplicate, entity, pgErr.ConstraintName, err)
	case foreignKeyViolationCode:
		return fmt.Errorf("%w: %s parent missing (%s): %v",
			store.ErrInvalidEntity, entity, pgErr.ConstraintName, err)
	case checkViolationCode:
		return fmt.Errorf("%w: %s violates %s: %v",
			store.ErrInvalidEntity, entity, pgErr.ConstraintName, err)
	case notNullViolationCode:
		return fmt.Errorf("%w: %s %s is required: %v",
			store.ErrInvalidEntity, entity, pgErr.ColumnName, err)
	}
	return err
}

// IsForeignKeyViolation checks if the given error is a PostgreSQL foreign key constraint violation.
// For inserts into the hierarchy this means the parent row does not exist.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode
}

// CheckRowsAffected examines the number of rows affected by an UPDATE or
// DELETE and returns notFound when nothing matched.
func CheckRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return fmt.Errorf("nil result provided to CheckRowsAffected")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		if notFound == nil {
			return store.ErrNotFound
		}
		return notFound
	}

	return nil
}
