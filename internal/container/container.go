package container

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"gotier/adapters/postgres"
	"gotier/adapters/trust"
	"gotier/app"
	"gotier/domain/core"
	trustdomain "gotier/domain/trust"
	"gotier/internal/auditlog"
	"gotier/internal/config"
	"gotier/internal/policy"
	"gotier/internal/rebuild"
	"gotier/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer)
	EntryRepo          ports.EntryRepository
	ClassificationRepo ports.ClassificationRepository
	GraphRepo          ports.GraphRepository
	Reader             ports.ReaderPort

	// Policy inputs, fixed for the lifetime of the container
	Policy   *policy.LoadedPolicy
	Snapshot trustdomain.Snapshot
	Oracle   ports.TrustOracle

	// Build pipeline
	BuildService   *app.BuildService
	Graph          *rebuild.Graph
	RebuildManager *rebuild.Manager
	AuditLog       *auditlog.Writer
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return &Container{Config: cfg}, nil
}

// InitPolicy loads the policy and trust snapshot from the configured paths
// and builds the trust oracle. Must run before InitBuildPipeline.
func (c *Container) InitPolicy() error {
	loaded, err := policy.LoadWithHashes(c.Config.Paths.PolicyFile)
	if err != nil {
		return fmt.Errorf("failed to load policy: %w", err)
	}
	c.Policy = loaded

	snapshot, err := policy.LoadSnapshot(c.Config.Paths.SnapshotFile)
	if err != nil {
		return fmt.Errorf("failed to load trust snapshot: %w", err)
	}
	c.Snapshot = snapshot
	c.Oracle = trust.NewSnapshotOracle(snapshot, loaded.Policy.Gates.Trust)
	return nil
}

// InitWithDatabase initializes components that require database access
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	c.DB = db

	if err := db.Ping(); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	c.EntryRepo = postgres.NewEntryRepository(db)
	c.ClassificationRepo = postgres.NewClassificationRepository(db)
	c.GraphRepo = postgres.NewGraphRepository(db)
	c.Reader = postgres.NewReader(db)

	log.Printf("Container initialized with database connection")
	return nil
}

// InitBuildPipeline wires the build service, dependency graph, and rebuild
// manager. Requires InitPolicy; the repositories are optional so the CLI can
// classify straight from files.
func (c *Container) InitBuildPipeline() error {
	if c.Policy == nil {
		return fmt.Errorf("policy must be loaded before the build pipeline")
	}

	svc, err := app.NewBuildService(c.Policy.Policy, c.Snapshot, c.Oracle, c.ClassificationRepo)
	if err != nil {
		return fmt.Errorf("failed to initialize build service: %w", err)
	}
	c.BuildService = svc

	c.Graph = rebuild.NewGraph()
	c.RebuildManager = rebuild.NewManager(c.Graph, c.buildEntry, int64(c.Config.Build.Workers))

	if c.Config.Paths.AuditLog != "" {
		writer, err := auditlog.Open(c.Config.Paths.AuditLog)
		if err != nil {
			return fmt.Errorf("failed to open audit log: %w", err)
		}
		c.AuditLog = writer
	}
	return nil
}

// buildEntry is the rebuild manager's build function: load, classify,
// persist the graph node, append to the audit log.
func (c *Container) buildEntry(ctx context.Context, entryID core.EntryID) (rebuild.Inputs, error) {
	if c.EntryRepo == nil {
		return rebuild.Inputs{}, fmt.Errorf("entry repository not initialized")
	}

	entry, err := c.EntryRepo.GetEntry(ctx, entryID)
	if err != nil {
		return rebuild.Inputs{}, err
	}

	result, err := c.BuildService.BuildEntry(ctx, entry)
	if err != nil {
		return rebuild.Inputs{}, err
	}

	evidenceHash, venues, snapshotVersion := c.BuildService.GraphInputs(entry)
	inputs := rebuild.Inputs{
		EvidenceHash:       evidenceHash,
		Category:           entry.Category,
		CategoryPolicyHash: c.Policy.CategoryHashes[entry.Category],
		SnapshotVersion:    snapshotVersion,
		Venues:             venues,
	}

	if c.GraphRepo != nil {
		node := &ports.GraphNode{
			EntryID:            entryID,
			EvidenceHash:       evidenceHash,
			CategoryPolicyHash: inputs.CategoryPolicyHash,
			SnapshotVersion:    snapshotVersion,
			Stale:              false,
			BuiltAt:            result.Classification.BuiltAt,
		}
		if err := c.GraphRepo.SaveNode(ctx, node); err != nil {
			return rebuild.Inputs{}, err
		}
	}

	if c.AuditLog != nil {
		if err := c.AuditLog.Append(result.Classification); err != nil {
			log.Printf("audit log append failed for %s: %v", entryID, err)
		}
	}
	return inputs, nil
}

// Close releases container resources
func (c *Container) Close() error {
	if c.AuditLog != nil {
		if err := c.AuditLog.Close(); err != nil {
			return err
		}
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
