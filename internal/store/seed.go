package store

import (
	"embed"
	"encoding/json"
	"fmt"

	"viewsim/internal/shared/types"
)

//go:embed fixtures/*.json
var fixtures embed.FS

// Seed loads the bundled fixture sessions and tabs. Ids continue after the
// highest fixture id.
func Seed(sessions *MemorySessionStore, tabs *MemoryTabStore) error {
	var seededSessions []*types.Session
	if err := readFixture("fixtures/sessions.json", &seededSessions); err != nil {
		return err
	}
	var seededTabs []*types.Tab
	if err := readFixture("fixtures/tabs.json", &seededTabs); err != nil {
		return err
	}

	known := make(map[int]struct{}, len(seededSessions))
	for _, s := range seededSessions {
		known[s.ID] = struct{}{}
	}
	for _, t := range seededTabs {
		if _, ok := known[t.SessionID]; !ok {
			return fmt.Errorf("fixture tab %d references unknown session %d", t.ID, t.SessionID)
		}
	}

	sessions.load(seededSessions)
	tabs.load(seededTabs)
	return nil
}

func readFixture(name string, v interface{}) error {
	data, err := fixtures.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read fixture %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse fixture %s: %w", name, err)
	}
	return nil
}
