package policy

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"gotier/domain/core"
	"gotier/domain/policy"
	"gotier/domain/trust"
)

// Load reads and validates a policy file. Policy errors are fatal before any
// entry is processed; a build never starts under a half-valid policy.
func Load(path string) (*policy.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates policy YAML
func Parse(data []byte) (*policy.Policy, error) {
	var p policy.Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode policy: %w", err)
	}
	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadedPolicy pairs a parsed policy with per-category hashes so staleness
// checks do not re-marshal the policy on every change event.
type LoadedPolicy struct {
	Policy         *policy.Policy
	CategoryHashes map[string]core.Hash
}

// LoadWithHashes reads a policy file and precomputes its category hashes
func LoadWithHashes(path string) (*LoadedPolicy, error) {
	p, err := Load(path)
	if err != nil {
		return nil, err
	}
	hashes := make(map[string]core.Hash, len(p.Categories))
	for name, cat := range p.Categories {
		h, err := CategoryHash(name, cat)
		if err != nil {
			return nil, fmt.Errorf("hash category %s: %w", name, err)
		}
		hashes[name] = h
	}
	return &LoadedPolicy{Policy: p, CategoryHashes: hashes}, nil
}

// LoadSnapshot reads a source-trust snapshot file
func LoadSnapshot(path string) (trust.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return trust.Snapshot{}, fmt.Errorf("read snapshot file: %w", err)
	}
	var s trust.Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return trust.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Version == "" {
		return trust.Snapshot{}, fmt.Errorf("snapshot missing version tag")
	}
	return s, nil
}
