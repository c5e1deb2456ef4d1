package expectation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// snapshot is the on-disk form of a registry.
type snapshot struct {
	SessionID    string         `yaml:"sessionId,omitempty"`
	Expectations []*Expectation `yaml:"expectations"`
}

// Save writes the registry to path as YAML, tagged with sessionID.
func (r *Registry) Save(path, sessionID string) error {
	data, err := yaml.Marshal(snapshot{SessionID: sessionID, Expectations: r.All()})
	if err != nil {
		return fmt.Errorf("failed to encode expectations: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write expectations to %s: %w", path, err)
	}
	return nil
}

// Load reads expectations saved by Save and appends them in file order.
// It returns the session ID stored in the file.
func (r *Registry) Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read expectations from %s: %w", path, err)
	}

	var snap snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return "", fmt.Errorf("failed to parse expectations in %s: %w", path, err)
	}

	for i, e := range snap.Expectations {
		if e == nil || e.RegisteredAt.IsZero() {
			return "", fmt.Errorf("expectation %d in %s has no registration time", i, path)
		}
		r.Add(e)
	}
	return snap.SessionID, nil
}
