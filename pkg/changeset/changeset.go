// Package changeset parses changeset files into schema operations.
//
// A changeset is one logical schema change as the operator wrote it, before
// phase splitting: a name plus an ordered operation list, in YAML. Input is
// validated twice: structurally against an embedded JSON Schema, then
// per-operation for kind-specific required fields. Both checks run before
// any unit is generated, so a bad changeset can never produce a partially
// correct graph.
package changeset

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"sigs.k8s.io/yaml"

	"github.com/pthm/duotone/pkg/schemaop"
)

// Changeset is one logical schema change unit.
type Changeset struct {
	Name       string               `json:"name"`
	Operations []schemaop.Operation `json:"operations"`
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("changeset.json", strings.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("loading changeset schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("changeset.json")
	})
	return schema, schemaErr
}

// Load reads and parses the changeset file at path.
func Load(path string) (*Changeset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading changeset: %w", err)
	}
	cs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("changeset %s: %w", path, err)
	}
	return cs, nil
}

// Parse decodes and validates a YAML (or JSON) changeset document.
func Parse(data []byte) (*Changeset, error) {
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}

	sch, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid changeset: %w", err)
	}

	var cs Changeset
	if err := json.Unmarshal(jsonData, &cs); err != nil {
		return nil, fmt.Errorf("decoding changeset: %w", err)
	}
	for i, op := range cs.Operations {
		if err := op.Validate(); err != nil {
			return nil, fmt.Errorf("operation %d: %w", i+1, err)
		}
	}
	return &cs, nil
}
