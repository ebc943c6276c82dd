package report

import (
	"github.com/montanaflynn/stats"

	"gotier/ports"
)

// Distribution summarizes the spread of tail probabilities across the
// classified catalog for the overview page.
type Distribution struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`
}

// TailProbDistribution computes the catalog-wide tail probability spread.
// Returns a zero distribution for an empty catalog.
func TailProbDistribution(rows []ports.CatalogRow) Distribution {
	if len(rows) == 0 {
		return Distribution{}
	}
	data := make(stats.Float64Data, len(rows))
	for i, row := range rows {
		data[i] = row.TailProb
	}

	d := Distribution{Count: len(rows)}
	d.Mean, _ = stats.Mean(data)
	d.Median, _ = stats.Median(data)
	d.StdDev, _ = stats.StandardDeviation(data)
	d.Min, _ = stats.Min(data)
	d.Max, _ = stats.Max(data)
	d.Q25, _ = stats.Percentile(data, 25)
	d.Q75, _ = stats.Percentile(data, 75)
	return d
}
