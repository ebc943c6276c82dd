package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gotier/domain/core"
	"gotier/domain/verdict"
	"gotier/ports"
)

// ReaderImpl implements the read-only catalog port for PostgreSQL.
// It issues SELECTs only; the catalog surface never writes.
type ReaderImpl struct {
	db              *sqlx.DB
	classifications ports.ClassificationRepository
	entries         ports.EntryRepository
}

// NewReader creates a new read-only catalog reader
func NewReader(db *sqlx.DB) ports.ReaderPort {
	return &ReaderImpl{
		db:              db,
		classifications: NewClassificationRepository(db),
		entries:         NewEntryRepository(db),
	}
}

// ListCatalog returns the list-view projection of classified entries
func (r *ReaderImpl) ListCatalog(ctx context.Context, filters ports.ClassificationFilters) ([]ports.CatalogRow, error) {
	query := `
		SELECT c.entry_id, e.slug, c.category, e.outcome, c.tier, c.label, c.tail_prob, c.built_at
		FROM classifications c
		JOIN entries e ON e.id = c.entry_id
		WHERE 1=1`
	args := []interface{}{}
	argNum := 1
	if filters.Category != nil {
		query += fmt.Sprintf(` AND c.category = $%d`, argNum)
		args = append(args, *filters.Category)
		argNum++
	}
	if filters.Tier != nil {
		query += fmt.Sprintf(` AND c.tier = $%d`, argNum)
		args = append(args, string(*filters.Tier))
		argNum++
	}
	if filters.Label != nil {
		query += fmt.Sprintf(` AND c.label = $%d`, argNum)
		args = append(args, string(*filters.Label))
		argNum++
	}
	query += ` ORDER BY e.slug`
	if filters.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d OFFSET %d`, filters.Limit, filters.Offset)
	}

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	defer rows.Close()

	var out []ports.CatalogRow
	for rows.Next() {
		var (
			entryID, slug, category, outcome, tier, label string
			tailProb                                      float64
			builtAt                                       sql.NullTime
		)
		if err := rows.Scan(&entryID, &slug, &category, &outcome, &tier, &label, &tailProb, &builtAt); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		row := ports.CatalogRow{
			EntryID:  core.EntryID(entryID),
			Slug:     slug,
			Category: category,
			Outcome:  outcome,
			Tier:     verdict.Tier(tier),
			Label:    verdict.Label(label),
			TailProb: tailProb,
		}
		if builtAt.Valid {
			row.BuiltAt = core.NewTimestamp(builtAt.Time)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// GetCatalogEntry returns the full detail-view projection for one entry
func (r *ReaderImpl) GetCatalogEntry(ctx context.Context, entryID core.EntryID) (*ports.CatalogDetail, error) {
	entry, err := r.entries.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	classification, err := r.classifications.GetClassification(ctx, entryID)
	if err != nil {
		return nil, err
	}
	sim, err := r.classifications.GetSimulation(ctx, entryID)
	if err != nil {
		return nil, err
	}
	return &ports.CatalogDetail{
		Entry:          *entry,
		Classification: *classification,
		Simulation:     *sim,
		NStudies:       sim.NStudies,
		TotalN:         sim.TotalN,
	}, nil
}

// GetCatalogStats summarizes the catalog for the overview page
func (r *ReaderImpl) GetCatalogStats(ctx context.Context) (*ports.CatalogStats, error) {
	stats := &ports.CatalogStats{
		ByTier:     make(map[verdict.Tier]int),
		ByCategory: make(map[string]int),
	}

	byTier, err := r.classifications.TierCounts(ctx)
	if err != nil {
		return nil, err
	}
	for tier, n := range byTier {
		stats.ByTier[tier] = n
		stats.TotalEntries += n
	}

	rows, err := r.db.QueryxContext(ctx, `SELECT category, COUNT(*) FROM classifications GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("catalog stats by category: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		stats.ByCategory[category] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var last sql.NullTime
	err = r.db.GetContext(ctx, &last, `SELECT MAX(built_at) FROM classifications`)
	if err != nil {
		return nil, fmt.Errorf("catalog stats last built: %w", err)
	}
	if last.Valid {
		ts := core.NewTimestamp(last.Time)
		stats.LastBuiltAt = &ts
	}
	return stats, nil
}
