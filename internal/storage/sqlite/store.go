// Package sqlite is the relational shell backend.
//
// Scalar shell fields map to columns; specific asset ids and submodel
// references are stored as JSON arrays. Listings push the whole filter into
// SQL and page with the probe strategy: `id > cursor ORDER BY id LIMIT n+1`.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/nerrad567/twin-registry/internal/filter"
	"github.com/nerrad567/twin-registry/internal/infrastructure/database"
	"github.com/nerrad567/twin-registry/internal/paging"
	"github.com/nerrad567/twin-registry/internal/shell"
	"github.com/nerrad567/twin-registry/internal/storage"
)

const shellColumns = `id, id_short, description, asset_kind, asset_type, global_asset_id,
	specific_asset_ids, submodels, created_at, updated_at`

// Store implements storage.Storage on SQLite.
type Store struct {
	db *database.DB
}

// New returns a Store over an open, migrated database.
func New(db *database.DB) *Store {
	return &Store{db: db}
}

// Name returns the backend name.
func (s *Store) Name() string {
	return "sqlite"
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

// Get retrieves a shell by ID.
func (s *Store) Get(ctx context.Context, id string) (*shell.Shell, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+shellColumns+` FROM shells WHERE id = ?`, id)
	sh, err := scanShell(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", shell.ErrNotFound, id)
		}
		return nil, fmt.Errorf("querying shell by id: %w", err)
	}
	return sh, nil
}

// Insert stores a new shell.
func (s *Store) Insert(ctx context.Context, sh *shell.Shell) error {
	r, err := toRow(sh)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO shells (`+shellColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.id, r.idShort, r.description, r.assetKind, r.assetType, r.globalAssetID,
		r.specificAssetIDs, r.submodels, r.createdAt, r.updatedAt,
	)
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("%w: %s", shell.ErrExists, sh.ID)
		}
		return fmt.Errorf("inserting shell: %w", err)
	}
	return nil
}

// Update replaces the shell stored under id.
func (s *Store) Update(ctx context.Context, id string, sh *shell.Shell) error {
	if sh.ID != id {
		return fmt.Errorf("%w: %q != %q", shell.ErrIDMismatch, sh.ID, id)
	}
	r, err := toRow(sh)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE shells SET
			id_short = ?, description = ?, asset_kind = ?, asset_type = ?,
			global_asset_id = ?, specific_asset_ids = ?, submodels = ?,
			created_at = ?, updated_at = ?
		WHERE id = ?`,
		r.idShort, r.description, r.assetKind, r.assetType,
		r.globalAssetID, r.specificAssetIDs, r.submodels,
		r.createdAt, r.updatedAt, id,
	)
	if err != nil {
		return fmt.Errorf("updating shell: %w", err)
	}
	return expectOneRow(result, id)
}

// Delete removes a shell by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM shells WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting shell: %w", err)
	}
	return expectOneRow(result, id)
}

// List returns one page of shells matching spec.
func (s *Store) List(ctx context.Context, spec filter.Spec, info paging.Info) (paging.Result[*shell.Shell], error) {
	if err := info.Validate(); err != nil {
		return paging.Result[*shell.Shell]{}, err
	}

	w := resolveFilter(spec)
	if info.Cursor != "" {
		w.add("id > ?", info.Cursor)
	}
	query := `SELECT ` + shellColumns + ` FROM shells ` + w.String() + ` ORDER BY id`
	args := w.args
	if n := paging.FetchSize(info); n > 0 {
		query += " LIMIT ?"
		args = append(args, n)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return paging.Result[*shell.Shell]{}, fmt.Errorf("querying shells: %w", err)
	}
	defer rows.Close()

	var shells []*shell.Shell
	for rows.Next() {
		sh, err := scanShell(rows)
		if err != nil {
			return paging.Result[*shell.Shell]{}, fmt.Errorf("scanning shell: %w", err)
		}
		shells = append(shells, sh)
	}
	if err := rows.Err(); err != nil {
		return paging.Result[*shell.Shell]{}, fmt.Errorf("iterating shells: %w", err)
	}

	return paging.Probe(shells, info, storage.Key), nil
}

// Clear deletes every shell in one transaction.
func (s *Store) Clear(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, "SELECT id FROM shells ORDER BY id")
		if err != nil {
			return fmt.Errorf("querying shell ids: %w", err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close() //nolint:errcheck // Returning the scan error
				return fmt.Errorf("scanning shell id: %w", err)
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close() //nolint:errcheck // Returning the iteration error
			return fmt.Errorf("iterating shell ids: %w", err)
		}
		rows.Close() //nolint:errcheck // Fully consumed

		if _, err := tx.ExecContext(ctx, "DELETE FROM shells"); err != nil {
			return fmt.Errorf("deleting shells: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// row is a shell flattened into column values.
type row struct {
	id, idShort, description            string
	assetKind, assetType, globalAssetID sql.NullString
	specificAssetIDs, submodels         string
	createdAt, updatedAt                string
}

func toRow(sh *shell.Shell) (row, error) {
	r := row{
		id:          sh.ID,
		idShort:     sh.IDShort,
		description: sh.Description,
		createdAt:   sh.CreatedAt.UTC().Format(time.RFC3339Nano),
		updatedAt:   sh.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}

	var sids []shell.SpecificAssetID
	if info := sh.AssetInformation; info != nil {
		r.assetKind = nullableString(string(info.AssetKind))
		r.assetType = nullableString(info.AssetType)
		r.globalAssetID = nullableString(info.GlobalAssetID)
		sids = info.SpecificAssetIDs
	}

	var err error
	if r.specificAssetIDs, err = marshalArray(sids); err != nil {
		return row{}, fmt.Errorf("marshalling specific asset ids: %w", err)
	}
	if r.submodels, err = marshalArray(sh.Submodels); err != nil {
		return row{}, fmt.Errorf("marshalling submodels: %w", err)
	}
	return r, nil
}

// rowScanner is implemented by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanShell(scanner rowScanner) (*shell.Shell, error) {
	var r row
	if err := scanner.Scan(
		&r.id, &r.idShort, &r.description, &r.assetKind, &r.assetType, &r.globalAssetID,
		&r.specificAssetIDs, &r.submodels, &r.createdAt, &r.updatedAt,
	); err != nil {
		return nil, err
	}

	sh := &shell.Shell{ID: r.id, IDShort: r.idShort, Description: r.description}

	var sids []shell.SpecificAssetID
	if err := json.Unmarshal([]byte(r.specificAssetIDs), &sids); err != nil {
		return nil, fmt.Errorf("unmarshalling specific asset ids: %w", err)
	}
	if err := json.Unmarshal([]byte(r.submodels), &sh.Submodels); err != nil {
		return nil, fmt.Errorf("unmarshalling submodels: %w", err)
	}
	if len(sh.Submodels) == 0 {
		sh.Submodels = nil
	}

	if r.assetKind.Valid || r.assetType.Valid || r.globalAssetID.Valid || len(sids) > 0 {
		sh.AssetInformation = &shell.AssetInformation{
			AssetKind:     shell.AssetKind(r.assetKind.String),
			AssetType:     r.assetType.String,
			GlobalAssetID: r.globalAssetID.String,
		}
		if len(sids) > 0 {
			sh.AssetInformation.SpecificAssetIDs = sids
		}
	}

	// Parse timestamps - format is controlled by toRow
	sh.CreatedAt, _ = time.Parse(time.RFC3339Nano, r.createdAt) //nolint:errcheck // Format is controlled
	sh.UpdatedAt, _ = time.Parse(time.RFC3339Nano, r.updatedAt) //nolint:errcheck // Format is controlled

	return sh, nil
}

func marshalArray[T any](items []T) (string, error) {
	if len(items) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// nullableString stores empty strings as NULL so "absent" survives a round trip.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func expectOneRow(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", shell.ErrNotFound, id)
	}
	return nil
}

// isConstraintError reports whether err is a SQLite constraint violation.
func isConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}
