package content

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// stagesFile is the graph manifest expected at the content root.
const stagesFile = "stages.json"

type stagesDoc struct {
	Stages []Stage `json:"stages"`
}

// Load reads the stage graph and every saga file beneath dir.
//
// Layout:
//
//	<dir>/stages.json
//	<dir>/sagas/<saga>.json
//
// Saga files must carry their own "id"; a stage referencing a saga that is
// missing from the directory is tolerated (its mastery is simply undefined
// and it never auto-completes).
func Load(dir string) (*Graph, error) {
	raw, err := os.ReadFile(filepath.Join(dir, stagesFile))
	if err != nil {
		return nil, fmt.Errorf("read stage graph: %w", err)
	}

	var doc stagesDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode stage graph: %w", err)
	}
	if len(doc.Stages) == 0 {
		return nil, fmt.Errorf("stage graph %s contains no stages", stagesFile)
	}

	sagas, err := loadSagas(filepath.Join(dir, "sagas"))
	if err != nil {
		return nil, err
	}

	return NewGraph(doc.Stages, sagas), nil
}

func loadSagas(dir string) (map[string]Saga, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Saga{}, nil
		}
		return nil, fmt.Errorf("read saga directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	sagas := make(map[string]Saga, len(names))
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read saga %s: %w", name, err)
		}
		var saga Saga
		if err := json.Unmarshal(raw, &saga); err != nil {
			return nil, fmt.Errorf("decode saga %s: %w", name, err)
		}
		if saga.ID == "" {
			return nil, fmt.Errorf("saga %s is missing an id", name)
		}
		sagas[saga.ID] = saga
	}
	return sagas, nil
}
