package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrMalformedSchema covers everything that makes a fetched schema
// unusable: not a JSON object, or a field of the wrong type. A malformed
// schema aborts only its own parse; the descriptor keeps whatever a
// previous successful parse produced.
var ErrMalformedSchema = errors.New("malformed schema")

//go:embed schema/gear-schema-v1.json
var gearSchemaJSON string

// Validator checks fetched schema documents against the embedded
// meta-schema before parsing. The meta-schema is deliberately permissive
// about control types and unknown properties; those are handled per-control
// during the parse.
type Validator struct {
	schema *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()

	if err := compiler.AddResource("gear-schema-v1.json",
		strings.NewReader(gearSchemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	schema, err := compiler.Compile("gear-schema-v1.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// Validate reports ErrMalformedSchema when data is not a JSON object of the
// shape the parser understands.
func (v *Validator) Validate(data []byte) error {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", ErrMalformedSchema, err)
	}

	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSchema, err)
	}

	return nil
}
