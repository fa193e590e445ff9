package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/docforge/docforge/derrors"
)

// AttrSpec describes one attribute of a node or mark type: its default
// value, whether it is required, and an optional JSON Schema validator
// compiled once at Schema construction time.
//
// Grounded on core/types/schema.go's ParamSchema, generalized from CLI
// parameter validation to document-node attribute validation.
type AttrSpec struct {
	Name      string
	Default   any
	Required  bool
	Validator *jsonschema.Schema
}

// CompileAttrSpec builds an AttrSpec, compiling rawValidator (a JSON Schema
// document) if it is non-empty. An attribute with no validator accepts any
// JSON value.
func CompileAttrSpec(name string, def any, required bool, rawValidator json.RawMessage) (AttrSpec, error) {
	spec := AttrSpec{Name: name, Default: def, Required: required}
	if len(rawValidator) == 0 {
		return spec, nil
	}

	compiler := jsonschema.NewCompiler()
	resource := fmt.Sprintf("attr://%s.json", name)
	if err := compiler.AddResource(resource, bytes.NewReader(rawValidator)); err != nil {
		return AttrSpec{}, fmt.Errorf("attr %q: add validator resource: %w", name, err)
	}
	compiled, err := compiler.Compile(resource)
	if err != nil {
		return AttrSpec{}, fmt.Errorf("attr %q: compile validator: %w", name, err)
	}
	spec.Validator = compiled
	return spec, nil
}

// coerceAttrs applies defaults, drops unknown keys, and validates the
// result against each spec's compiled validator. It returns the
// normalized attribute map and the list of unknown keys that were
// dropped, matching §4.1's "coerce_attrs" operation.
func coerceAttrs(typeName string, specs map[string]AttrSpec, raw map[string]any) (map[string]any, []string, error) {
	out := make(map[string]any, len(specs))
	var dropped []string

	for key := range raw {
		if _, known := specs[key]; !known {
			dropped = append(dropped, key)
		}
	}

	for name, spec := range specs {
		val, present := raw[name]
		if !present {
			if spec.Required {
				return nil, nil, derrors.E("schema.coerce_attrs", derrors.SchemaViolation,
					fmt.Errorf("node type %q: missing required attribute %q", typeName, name))
			}
			val = spec.Default
		}
		if spec.Validator != nil {
			if err := spec.Validator.Validate(val); err != nil {
				return nil, nil, derrors.E("schema.coerce_attrs", derrors.SchemaViolation,
					fmt.Errorf("node type %q: attribute %q failed validation: %w", typeName, name, err))
			}
		}
		out[name] = val
	}
	return out, dropped, nil
}
