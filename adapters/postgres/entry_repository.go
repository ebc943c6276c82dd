package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gotier/domain/core"
	"gotier/domain/evidence"
	"gotier/ports"
)

// EntryRepositoryImpl implements EntryRepository for PostgreSQL
type EntryRepositoryImpl struct {
	db *sqlx.DB
}

// NewEntryRepository creates a new PostgreSQL entry repository
func NewEntryRepository(db *sqlx.DB) ports.EntryRepository {
	return &EntryRepositoryImpl{db: db}
}

// SaveEntry persists an entry and its evidence rows as one JSONB document
func (r *EntryRepositoryImpl) SaveEntry(ctx context.Context, entry *ports.Entry) error {
	rowsJSON, err := json.Marshal(entry.Evidence.Rows)
	if err != nil {
		return fmt.Errorf("marshal evidence rows: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO entries (id, slug, category, outcome, evidence_rows, evidence_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			slug = EXCLUDED.slug,
			category = EXCLUDED.category,
			outcome = EXCLUDED.outcome,
			evidence_rows = EXCLUDED.evidence_rows,
			evidence_hash = EXCLUDED.evidence_hash,
			updated_at = NOW()`,
		entry.ID.String(), entry.Slug, entry.Category, entry.Outcome,
		rowsJSON, entry.Evidence.ContentHash().String())
	if err != nil {
		return fmt.Errorf("save entry %s: %w", entry.ID, err)
	}
	return nil
}

// GetEntry retrieves an entry by its ID
func (r *EntryRepositoryImpl) GetEntry(ctx context.Context, entryID core.EntryID) (*ports.Entry, error) {
	var row struct {
		ID           string       `db:"id"`
		Slug         string       `db:"slug"`
		Category     string       `db:"category"`
		Outcome      string       `db:"outcome"`
		EvidenceRows []byte       `db:"evidence_rows"`
		CreatedAt    sql.NullTime `db:"created_at"`
		UpdatedAt    sql.NullTime `db:"updated_at"`
	}
	err := r.db.GetContext(ctx, &row, `
		SELECT id, slug, category, outcome, evidence_rows, created_at, updated_at
		FROM entries WHERE id = $1`, entryID.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %s: %w", entryID, err)
	}
	return r.hydrate(row.ID, row.Slug, row.Category, row.Outcome, row.EvidenceRows, row.CreatedAt, row.UpdatedAt)
}

// ListEntries returns entries filtered by category, optionally limited
func (r *EntryRepositoryImpl) ListEntries(ctx context.Context, filters ports.EntryFilters) ([]*ports.Entry, error) {
	query := `SELECT id, slug, category, outcome, evidence_rows, created_at, updated_at FROM entries`
	args := []interface{}{}
	if filters.Category != nil {
		query += ` WHERE category = $1`
		args = append(args, *filters.Category)
	}
	query += ` ORDER BY slug`
	if filters.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d OFFSET %d`, filters.Limit, filters.Offset)
	}

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []*ports.Entry
	for rows.Next() {
		var id, slug, category, outcome string
		var evidenceRows []byte
		var createdAt, updatedAt sql.NullTime
		if err := rows.Scan(&id, &slug, &category, &outcome, &evidenceRows, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entry, err := r.hydrate(id, slug, category, outcome, evidenceRows, createdAt, updatedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// GetEvidence retrieves the evidence set for an entry
func (r *EntryRepositoryImpl) GetEvidence(ctx context.Context, entryID core.EntryID) (*evidence.Set, error) {
	entry, err := r.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	return &entry.Evidence, nil
}

func (r *EntryRepositoryImpl) hydrate(id, slug, category, outcome string, evidenceRows []byte, createdAt, updatedAt sql.NullTime) (*ports.Entry, error) {
	entry := &ports.Entry{
		ID:       core.EntryID(id),
		Slug:     slug,
		Category: category,
		Outcome:  outcome,
		Evidence: evidence.Set{EntryID: core.EntryID(id)},
	}
	if len(evidenceRows) > 0 {
		if err := json.Unmarshal(evidenceRows, &entry.Evidence.Rows); err != nil {
			return nil, fmt.Errorf("unmarshal evidence rows for %s: %w", id, err)
		}
	}
	if createdAt.Valid {
		entry.CreatedAt = core.NewTimestamp(createdAt.Time)
	}
	if updatedAt.Valid {
		entry.UpdatedAt = core.NewTimestamp(updatedAt.Time)
	}
	return entry, nil
}
