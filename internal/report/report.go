package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"gotier/domain/simulation"
	"gotier/ports"
)

// Renderer produces the per-entry evidence report. The report is composed
// as markdown and rendered to HTML for the catalog detail page.
type Renderer struct{}

// NewRenderer creates a report renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Markdown composes the evidence report for one classified entry
func (r *Renderer) Markdown(detail *ports.CatalogDetail, sim *simulation.Result) string {
	var b strings.Builder
	c := detail.Classification

	fmt.Fprintf(&b, "# %s\n\n", detail.Entry.Slug)
	fmt.Fprintf(&b, "**Tier: %s (%s)** in category `%s`\n\n", c.Tier, c.Label, c.Category)
	if c.Hint != "" {
		fmt.Fprintf(&b, "> %s\n\n", c.Hint)
	}

	fmt.Fprintf(&b, "## Evidence\n\n")
	fmt.Fprintf(&b, "- Studies pooled: %d (%d subjects)\n", detail.NStudies, detail.TotalN)
	fmt.Fprintf(&b, "- Probability the true effect clears the threshold: **%.1f%%** (threshold %.2f)\n",
		c.TailProb*100, sim.Delta)
	if sim.Draws > 0 {
		fmt.Fprintf(&b, "- Pooled effect: %.3f (95%% CI %.3f to %.3f)\n",
			sim.MuHat, sim.MuCI95.Low, sim.MuCI95.High)
		fmt.Fprintf(&b, "- Prediction interval: %.3f to %.3f\n",
			sim.PredictionInterval95.Low, sim.PredictionInterval95.High)
		fmt.Fprintf(&b, "- Between-study variance: %.4f (%s, I2 %.0f%%)\n",
			sim.Tau2.Value, tauMethodLabel(sim.Tau2), sim.I2)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Gates\n\n")
	fmt.Fprintf(&b, "| Gate | Outcome | Detail |\n|---|---|---|\n")
	for _, g := range c.Gates.All() {
		parts := []string{}
		if g.Score != nil {
			parts = append(parts, fmt.Sprintf("score %.2f", *g.Score))
		}
		if g.Reason != "" {
			parts = append(parts, g.Reason)
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", g.Gate, g.Outcome, strings.Join(parts, "; "))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Provenance\n\n")
	fmt.Fprintf(&b, "- Policy %s, tier table %s, snapshot %s\n",
		c.PolicyRefs.PolicyVersion, c.PolicyRefs.TierTableVersion, c.PolicyRefs.SnapshotDate)
	fmt.Fprintf(&b, "- Fingerprint `%s`\n", c.PolicyFingerprint.Compact())
	fmt.Fprintf(&b, "- Audit hash `%s`\n", c.AuditHash.Compact())
	fmt.Fprintf(&b, "- Seed %d, %d draws\n", sim.Seed, sim.Draws)
	fmt.Fprintf(&b, "- Built %s\n", c.BuiltAt.String())

	return b.String()
}

// HTML renders the entry report to HTML
func (r *Renderer) HTML(detail *ports.CatalogDetail, sim *simulation.Result) []byte {
	md := r.Markdown(detail, sim)
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	doc := p.Parse([]byte(md))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.Render(doc, renderer)
}

func tauMethodLabel(t simulation.TauEstimate) string {
	if t.Method == simulation.TauMomentFallback {
		return "moment fallback"
	}
	return "REML"
}
