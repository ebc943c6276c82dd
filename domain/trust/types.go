package trust

import (
	"encoding/json"
	"sort"

	"gotier/domain/core"
)

// VenueSignals holds the per-venue trust inputs for one snapshot.
type VenueSignals struct {
	ImpactPercentile    float64 `json:"impact_percentile" yaml:"impact_percentile"`
	SecondaryPercentile float64 `json:"secondary_percentile" yaml:"secondary_percentile"`
	Listed              bool    `json:"listed" yaml:"listed"`
	Certified           bool    `json:"certified" yaml:"certified"`
	Retracted           bool    `json:"retracted" yaml:"retracted"`
	Predatory           bool    `json:"predatory" yaml:"predatory"`
	Hijacked            bool    `json:"hijacked" yaml:"hijacked"`
}

// Blacklisted reports whether any hard disqualifier is set. A blacklisted
// venue scores exactly zero before any fusion or squashing runs.
func (s VenueSignals) Blacklisted() bool {
	return s.Retracted || s.Predatory || s.Hijacked
}

// Snapshot is an immutable point-in-time view of venue trust signals.
// Classifications record the snapshot date they were built against so a
// rebuild with a newer snapshot is distinguishable in the audit trail.
type Snapshot struct {
	Date    string                        `json:"date" yaml:"date"`
	Version string                        `json:"version" yaml:"version"`
	Venues  map[core.VenueID]VenueSignals `json:"venues" yaml:"venues"`
}

// Lookup returns the signals for a venue and whether the venue is known.
func (s Snapshot) Lookup(id core.VenueID) (VenueSignals, bool) {
	sig, ok := s.Venues[id]
	return sig, ok
}

// Hash computes the canonical content hash of the snapshot. Venues are
// serialized in sorted key order so the hash is stable across map iteration.
func (s Snapshot) Hash() (core.SnapshotHash, error) {
	keys := make([]string, 0, len(s.Venues))
	for id := range s.Venues {
		keys = append(keys, id.String())
	}
	sort.Strings(keys)

	type venueEntry struct {
		Venue   string       `json:"venue"`
		Signals VenueSignals `json:"signals"`
	}
	canonical := struct {
		Date    string       `json:"date" yaml:"date"`
		Version string       `json:"version" yaml:"version"`
		Venues  []venueEntry `json:"venues" yaml:"venues"`
	}{Date: s.Date, Version: s.Version}
	for _, k := range keys {
		canonical.Venues = append(canonical.Venues, venueEntry{Venue: k, Signals: s.Venues[core.VenueID(k)]})
	}

	data, err := json.Marshal(canonical)
	if err != nil {
		return "", err
	}
	return core.NewSnapshotHash(data), nil
}
