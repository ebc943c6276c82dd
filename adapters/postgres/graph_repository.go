package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"gotier/domain/core"
	"gotier/ports"
)

// GraphRepositoryImpl implements GraphRepository for PostgreSQL
type GraphRepositoryImpl struct {
	db *sqlx.DB
}

// NewGraphRepository creates a new PostgreSQL graph repository
func NewGraphRepository(db *sqlx.DB) ports.GraphRepository {
	return &GraphRepositoryImpl{db: db}
}

// SaveNode upserts a node after a successful build
func (r *GraphRepositoryImpl) SaveNode(ctx context.Context, node *ports.GraphNode) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO graph_nodes (entry_id, evidence_hash, category_policy_hash, snapshot_version, stale, built_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (entry_id) DO UPDATE SET
			evidence_hash = EXCLUDED.evidence_hash,
			category_policy_hash = EXCLUDED.category_policy_hash,
			snapshot_version = EXCLUDED.snapshot_version,
			stale = EXCLUDED.stale,
			built_at = EXCLUDED.built_at`,
		node.EntryID.String(), node.EvidenceHash.String(), string(node.CategoryPolicyHash),
		node.SnapshotVersion, node.Stale, node.BuiltAt.Time())
	if err != nil {
		return fmt.Errorf("save graph node %s: %w", node.EntryID, err)
	}
	return nil
}

// GetNode retrieves a node by entry ID
func (r *GraphRepositoryImpl) GetNode(ctx context.Context, entryID core.EntryID) (*ports.GraphNode, error) {
	row := r.db.QueryRowxContext(ctx, `
		SELECT entry_id, evidence_hash, category_policy_hash, snapshot_version, stale, built_at
		FROM graph_nodes WHERE entry_id = $1`, entryID.String())
	node, err := scanGraphNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrEntryNotFound
	}
	return node, err
}

// ListNodes returns all tracked nodes
func (r *GraphRepositoryImpl) ListNodes(ctx context.Context) ([]*ports.GraphNode, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT entry_id, evidence_hash, category_policy_hash, snapshot_version, stale, built_at
		FROM graph_nodes ORDER BY entry_id`)
	if err != nil {
		return nil, fmt.Errorf("list graph nodes: %w", err)
	}
	defer rows.Close()

	var nodes []*ports.GraphNode
	for rows.Next() {
		node, err := scanGraphNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, rows.Err()
}

// MarkStale flags the given entries for rebuild
func (r *GraphRepositoryImpl) MarkStale(ctx context.Context, entryIDs []core.EntryID) error {
	if len(entryIDs) == 0 {
		return nil
	}
	ids := make([]string, len(entryIDs))
	for i, id := range entryIDs {
		ids[i] = id.String()
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE graph_nodes SET stale = TRUE WHERE entry_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("mark stale: %w", err)
	}
	return nil
}

// ListStale returns entries currently flagged for rebuild
func (r *GraphRepositoryImpl) ListStale(ctx context.Context) ([]core.EntryID, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT entry_id FROM graph_nodes WHERE stale = TRUE ORDER BY entry_id`)
	if err != nil {
		return nil, fmt.Errorf("list stale nodes: %w", err)
	}
	defer rows.Close()

	var ids []core.EntryID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan stale node: %w", err)
		}
		ids = append(ids, core.EntryID(id))
	}
	return ids, rows.Err()
}

func scanGraphNode(row rowScanner) (*ports.GraphNode, error) {
	var (
		entryID, evidenceHash, policyHash, snapshotVersion string
		stale                                              bool
		builtAt                                            sql.NullTime
	)
	err := row.Scan(&entryID, &evidenceHash, &policyHash, &snapshotVersion, &stale, &builtAt)
	if err != nil {
		return nil, err
	}
	node := &ports.GraphNode{
		EntryID:            core.EntryID(entryID),
		EvidenceHash:       core.EvidenceHash(evidenceHash),
		CategoryPolicyHash: core.Hash(policyHash),
		SnapshotVersion:    snapshotVersion,
		Stale:              stale,
	}
	if builtAt.Valid {
		node.BuiltAt = core.NewTimestamp(builtAt.Time)
	}
	return node, nil
}
