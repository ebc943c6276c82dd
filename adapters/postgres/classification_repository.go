package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gotier/domain/core"
	"gotier/domain/simulation"
	"gotier/domain/verdict"
	"gotier/ports"
)

// ClassificationRepositoryImpl implements ClassificationRepository for PostgreSQL
type ClassificationRepositoryImpl struct {
	db *sqlx.DB
}

// NewClassificationRepository creates a new PostgreSQL classification repository
func NewClassificationRepository(db *sqlx.DB) ports.ClassificationRepository {
	return &ClassificationRepositoryImpl{db: db}
}

// SaveClassification persists a classification and its simulation result in
// one transaction so readers never observe one without the other
func (r *ClassificationRepositoryImpl) SaveClassification(ctx context.Context, c *verdict.Classification, sim *simulation.Result) error {
	gatesJSON, err := json.Marshal(c.Gates)
	if err != nil {
		return fmt.Errorf("marshal gate results: %w", err)
	}
	refsJSON, err := json.Marshal(c.PolicyRefs)
	if err != nil {
		return fmt.Errorf("marshal policy refs: %w", err)
	}
	simJSON, err := json.Marshal(sim)
	if err != nil {
		return fmt.Errorf("marshal simulation: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO classifications (entry_id, category, tier, label, tail_prob, gates, policy_refs, policy_fingerprint, audit_hash, hint, built_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (entry_id) DO UPDATE SET
			category = EXCLUDED.category,
			tier = EXCLUDED.tier,
			label = EXCLUDED.label,
			tail_prob = EXCLUDED.tail_prob,
			gates = EXCLUDED.gates,
			policy_refs = EXCLUDED.policy_refs,
			policy_fingerprint = EXCLUDED.policy_fingerprint,
			audit_hash = EXCLUDED.audit_hash,
			hint = EXCLUDED.hint,
			built_at = EXCLUDED.built_at`,
		c.EntryID.String(), c.Category, string(c.Tier), string(c.Label), c.TailProb,
		gatesJSON, refsJSON, string(c.PolicyFingerprint), string(c.AuditHash), c.Hint, c.BuiltAt.Time())
	if err != nil {
		return fmt.Errorf("save classification %s: %w", c.EntryID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO simulations (entry_id, result, seed, draws, built_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (entry_id) DO UPDATE SET
			result = EXCLUDED.result,
			seed = EXCLUDED.seed,
			draws = EXCLUDED.draws,
			built_at = EXCLUDED.built_at`,
		c.EntryID.String(), simJSON, sim.Seed, sim.Draws, c.BuiltAt.Time())
	if err != nil {
		return fmt.Errorf("save simulation %s: %w", c.EntryID, err)
	}

	return tx.Commit()
}

// GetClassification retrieves the latest classification for an entry
func (r *ClassificationRepositoryImpl) GetClassification(ctx context.Context, entryID core.EntryID) (*verdict.Classification, error) {
	row := r.db.QueryRowxContext(ctx, `
		SELECT entry_id, category, tier, label, tail_prob, gates, policy_refs, policy_fingerprint, audit_hash, hint, built_at
		FROM classifications WHERE entry_id = $1`, entryID.String())
	c, err := scanClassification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrClassificationNotFound
	}
	return c, err
}

// GetSimulation retrieves the simulation result behind a classification
func (r *ClassificationRepositoryImpl) GetSimulation(ctx context.Context, entryID core.EntryID) (*simulation.Result, error) {
	var payload []byte
	err := r.db.GetContext(ctx, &payload, `SELECT result FROM simulations WHERE entry_id = $1`, entryID.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrClassificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get simulation %s: %w", entryID, err)
	}
	var sim simulation.Result
	if err := json.Unmarshal(payload, &sim); err != nil {
		return nil, fmt.Errorf("unmarshal simulation %s: %w", entryID, err)
	}
	return &sim, nil
}

// ListClassifications returns classifications matching the filters
func (r *ClassificationRepositoryImpl) ListClassifications(ctx context.Context, filters ports.ClassificationFilters) ([]*verdict.Classification, error) {
	query := `
		SELECT entry_id, category, tier, label, tail_prob, gates, policy_refs, policy_fingerprint, audit_hash, hint, built_at
		FROM classifications WHERE 1=1`
	args := []interface{}{}
	argNum := 1
	if filters.Category != nil {
		query += fmt.Sprintf(` AND category = $%d`, argNum)
		args = append(args, *filters.Category)
		argNum++
	}
	if filters.Tier != nil {
		query += fmt.Sprintf(` AND tier = $%d`, argNum)
		args = append(args, string(*filters.Tier))
		argNum++
	}
	if filters.Label != nil {
		query += fmt.Sprintf(` AND label = $%d`, argNum)
		args = append(args, string(*filters.Label))
		argNum++
	}
	query += ` ORDER BY built_at DESC`
	if filters.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d OFFSET %d`, filters.Limit, filters.Offset)
	}

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list classifications: %w", err)
	}
	defer rows.Close()

	var out []*verdict.Classification
	for rows.Next() {
		c, err := scanClassification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// TierCounts returns the number of classifications per tier
func (r *ClassificationRepositoryImpl) TierCounts(ctx context.Context) (map[verdict.Tier]int, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT tier, COUNT(*) FROM classifications GROUP BY tier`)
	if err != nil {
		return nil, fmt.Errorf("tier counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[verdict.Tier]int)
	for rows.Next() {
		var tier string
		var n int
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, fmt.Errorf("scan tier count: %w", err)
		}
		counts[verdict.Tier(tier)] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClassification(row rowScanner) (*verdict.Classification, error) {
	var (
		entryID, category, tier, label, fingerprint, auditHash, hint string
		tailProb                                                     float64
		gatesJSON, refsJSON                                          []byte
		builtAt                                                      sql.NullTime
	)
	err := row.Scan(&entryID, &category, &tier, &label, &tailProb, &gatesJSON, &refsJSON, &fingerprint, &auditHash, &hint, &builtAt)
	if err != nil {
		return nil, err
	}

	c := &verdict.Classification{
		EntryID:           core.EntryID(entryID),
		Category:          category,
		Tier:              verdict.Tier(tier),
		Label:             verdict.Label(label),
		TailProb:          tailProb,
		PolicyFingerprint: core.PolicyFingerprint(fingerprint),
		AuditHash:         core.AuditHash(auditHash),
		Hint:              hint,
	}
	if err := json.Unmarshal(gatesJSON, &c.Gates); err != nil {
		return nil, fmt.Errorf("unmarshal gate results for %s: %w", entryID, err)
	}
	if err := json.Unmarshal(refsJSON, &c.PolicyRefs); err != nil {
		return nil, fmt.Errorf("unmarshal policy refs for %s: %w", entryID, err)
	}
	if builtAt.Valid {
		c.BuiltAt = core.NewTimestamp(builtAt.Time)
	}
	return c, nil
}
