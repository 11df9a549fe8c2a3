// Package manifest persists migration units as YAML files in a migrations
// directory and loads them back into a dependency graph.
//
// One file per unit, named <id>.yaml. History is append-only: Write refuses
// to overwrite an existing file, matching migration-file semantics where
// generated units are never edited.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/pthm/duotone/pkg/graph"
	"github.com/pthm/duotone/pkg/schemaop"
)

type unitFile struct {
	ID         string               `json:"id"`
	Phase      graph.Phase          `json:"phase"`
	Order      int                  `json:"order"`
	DependsOn  []string             `json:"depends_on,omitempty"`
	Operations []schemaop.Operation `json:"operations"`
}

// Load reads every unit file in dir into a graph. A missing directory is an
// empty graph (no migrations generated yet).
func Load(dir string) (*graph.Graph, error) {
	g := graph.New()

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return g, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading migrations dir: %w", err)
	}

	var files []unitFile
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".yaml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, ent.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", ent.Name(), err)
		}
		var uf unitFile
		if err := yaml.Unmarshal(data, &uf); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", ent.Name(), err)
		}
		if uf.ID == "" {
			return nil, fmt.Errorf("%w: %s has no id", graph.ErrCorruptGraph, ent.Name())
		}
		files = append(files, uf)
	}

	// Creation order is the persisted order field; directory listing order
	// is not meaningful.
	sort.Slice(files, func(i, j int) bool {
		if files[i].Order != files[j].Order {
			return files[i].Order < files[j].Order
		}
		return files[i].ID < files[j].ID
	})

	for _, uf := range files {
		u := &graph.Unit{
			ID:         uf.ID,
			Phase:      uf.Phase,
			Operations: uf.Operations,
			DependsOn:  uf.DependsOn,
		}
		if err := g.Add(u); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Write persists units into dir, creating it if needed. Returns the written
// paths. Fails without writing anything if any target file already exists.
func Write(dir string, units []*graph.Unit) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating migrations dir: %w", err)
	}

	paths := make([]string, len(units))
	for i, u := range units {
		paths[i] = filepath.Join(dir, u.ID+".yaml")
		if _, err := os.Stat(paths[i]); err == nil {
			return nil, fmt.Errorf("%w: %s already exists", graph.ErrDuplicateUnit, paths[i])
		}
	}

	for i, u := range units {
		data, err := Encode(u)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", u.ID, err)
		}
		if err := os.WriteFile(paths[i], data, 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", paths[i], err)
		}
	}
	return paths, nil
}

// Encode renders a unit in the on-disk YAML form.
func Encode(u *graph.Unit) ([]byte, error) {
	return yaml.Marshal(unitFile{
		ID:         u.ID,
		Phase:      u.Phase,
		Order:      u.Order,
		DependsOn:  u.DependsOn,
		Operations: u.Operations,
	})
}

// NextName returns the next sequential changeset base name for dir, e.g.
// "0003_add_email" after two existing changesets. label must already be a
// valid identifier.
func NextName(g *graph.Graph, label string) string {
	max := 0
	for _, u := range g.Units() {
		var n int
		if _, err := fmt.Sscanf(u.ID, "%d_", &n); err == nil && n > max {
			max = n
		}
	}
	return fmt.Sprintf("%04d_%s", max+1, label)
}
