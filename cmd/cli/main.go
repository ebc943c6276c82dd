package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"gotier/adapters/excel"
	"gotier/domain/core"
	"gotier/internal/config"
	"gotier/internal/container"
	"gotier/internal/policy"
	"gotier/ports"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gotier",
		Short: "Deterministic evidence classification for health claims",
	}

	rootCmd.AddCommand(
		newBuildCmd(),
		newBatchCmd(),
		newValidateCmd(),
		newFingerprintCmd(),
		newNewCmd(),
		newExportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadContainer assembles the file-backed pipeline shared by the commands.
// Database access is attached only when asked for.
func loadContainer() (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	c, err := container.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := c.InitPolicy(); err != nil {
		return nil, err
	}
	if err := c.InitBuildPipeline(); err != nil {
		return nil, err
	}
	return c, nil
}

func newBuildCmd() *cobra.Command {
	var category string
	var claim string

	cmd := &cobra.Command{
		Use:   "build [evidence-file]",
		Short: "Classify one entry from an evidence table",
		Long: `Classify one entry from an evidence table (xlsx or csv).

Example: gotier build evidence/creatine-memory.csv --category cognition --claim "improves memory in healthy adults"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			entry, err := entryFromFile(args[0], category, claim)
			if err != nil {
				return err
			}

			result, err := c.BuildService.BuildEntry(context.Background(), entry)
			if err != nil {
				return err
			}
			if c.AuditLog != nil {
				if err := c.AuditLog.Append(result.Classification); err != nil {
					return err
				}
			}

			for _, id := range result.Screened {
				fmt.Fprintf(os.Stderr, "screened from pooling: %s\n", id)
			}
			return printJSON(result.Classification)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "outcome category from the policy")
	cmd.Flags().StringVar(&claim, "claim", "", "claim text the entry asserts")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("claim")
	return cmd
}

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [manifest-file]",
		Short: "Classify every entry named in a manifest",
		Long: `Classify every entry in a JSON manifest. Each manifest row names the
evidence file, its category, and the claim under evaluation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			manifest, err := readManifest(args[0])
			if err != nil {
				return err
			}

			dir := filepath.Dir(args[0])
			failures := 0
			for _, item := range manifest {
				entry, err := entryFromFile(filepath.Join(dir, item.File), item.Category, item.Claim)
				if err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", item.File, err)
					failures++
					continue
				}
				result, err := c.BuildService.BuildEntry(context.Background(), entry)
				if err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", item.File, err)
					failures++
					continue
				}
				if c.AuditLog != nil {
					if err := c.AuditLog.Append(result.Classification); err != nil {
						return err
					}
				}
				fmt.Printf("%-40s %s/%s p=%.3f %s\n",
					entry.Slug, result.Classification.Tier, result.Classification.Label,
					result.Classification.TailProb, result.Classification.AuditHash.Compact())
			}
			if failures > 0 {
				return fmt.Errorf("%d of %d entries failed", failures, len(manifest))
			}
			return nil
		},
	}
	return cmd
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [policy-file]",
		Short: "Validate a policy file without running a build",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := policy.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("policy %s valid: %d categories, %d tier bands, gates %s\n",
				p.Version, len(p.Categories), len(p.Tiers.Bands), p.Gates.Version)
			return nil
		},
	}
	return cmd
}

func newFingerprintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the policy fingerprint for the configured policy and snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			fp := c.BuildService.Fingerprint()
			fmt.Printf("%s\n%s\n", fp.Compact(), fp.String())
			return nil
		},
	}
	return cmd
}

// newNewCmd scaffolds an evidence CSV with the expected header so curators
// start from the right shape
func newNewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new [slug]",
		Short: "Scaffold an empty evidence table for a new entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slug := args[0]
			path := slug + ".csv"
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			header := "study_id,year,design,effect_type,effect_point,ci_low,ci_high,n_treat,n_ctrl,risk_of_bias,venue_id,outcome,population,duration_weeks,adverse_events\n"
			if err := os.WriteFile(path, []byte(header), 0o644); err != nil {
				return err
			}
			fmt.Printf("created %s\n", path)
			return nil
		},
	}
	return cmd
}

func newExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the classified catalog to a workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer()
			if err != nil {
				return err
			}
			defer c.Close()

			if err := connectDatabase(c); err != nil {
				return err
			}

			classifications, err := c.ClassificationRepo.ListClassifications(context.Background(), ports.ClassificationFilters{})
			if err != nil {
				return err
			}

			rows := make([]excel.ExportRow, 0, len(classifications))
			for _, cl := range classifications {
				sim, err := c.ClassificationRepo.GetSimulation(context.Background(), cl.EntryID)
				if err != nil {
					return err
				}
				rows = append(rows, excel.ExportRow{Classification: cl, Simulation: sim})
			}

			writer := excel.NewCatalogWriter()
			if err := writer.Write(out, rows); err != nil {
				return err
			}
			fmt.Printf("exported %d entries to %s\n", len(rows), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "catalog.xlsx", "output workbook path")
	return cmd
}

// ManifestItem is one batch entry: evidence file plus its classification inputs
type ManifestItem struct {
	File     string `json:"file"`
	Category string `json:"category"`
	Claim    string `json:"claim"`
}

func readManifest(path string) ([]ManifestItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []ManifestItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return items, nil
}

func entryFromFile(path, category, claim string) (*ports.Entry, error) {
	slug := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	entryID := core.EntryID(slug)

	reader := excel.NewDataReader()
	set, err := reader.Load(context.Background(), entryID, path)
	if err != nil {
		return nil, err
	}

	return &ports.Entry{
		ID:       entryID,
		Slug:     slug,
		Category: category,
		Outcome:  claim,
		Evidence: *set,
	}, nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func connectDatabase(c *container.Container) error {
	if c.Config.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required for this command")
	}
	db, err := sqlx.Connect("postgres", c.Config.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	return c.InitWithDatabase(db)
}
