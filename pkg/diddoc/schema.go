package diddoc

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// paramsSchemaDoc constrains the shape of the two parameters sub-objects
// the replay validator's semantic checks assume are already well-formed
// before they run: witness and nextKeyHashes. It catches malformed shapes
// as a precise InputShape failure before any hash-chain or authorization
// logic ever sees the entry.
const paramsSchemaDoc = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "nextKeyHashes": {
      "type": "array",
      "items": { "type": "string", "minLength": 1 }
    },
    "witness": {
      "type": ["object", "null"],
      "properties": {
        "threshold": { "type": "integer", "minimum": 0 },
        "witnesses": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "id": { "type": "string", "minLength": 1 },
              "weight": { "type": "integer", "minimum": 1 }
            },
            "required": ["id"]
          }
        }
      },
      "required": ["threshold", "witnesses"]
    }
  }
}`

const paramsSchemaURL = "https://didwebvh.schemas.local/parameters.schema.json"

var (
	paramsSchemaOnce    sync.Once
	paramsSchemaCompile *jsonschema.Schema
	paramsSchemaErr     error
)

func compiledParamsSchema() (*jsonschema.Schema, error) {
	paramsSchemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(paramsSchemaURL, strings.NewReader(paramsSchemaDoc)); err != nil {
			paramsSchemaErr = fmt.Errorf("diddoc: load parameters schema: %w", err)
			return
		}
		compiled, err := c.Compile(paramsSchemaURL)
		if err != nil {
			paramsSchemaErr = fmt.Errorf("diddoc: compile parameters schema: %w", err)
			return
		}
		paramsSchemaCompile = compiled
	})
	return paramsSchemaCompile, paramsSchemaErr
}

// ValidateShape checks p's witness and nextKeyHashes sub-objects against
// the embedded JSON Schema, independent of and prior to the semantic
// invariant checks the replay validator performs. It validates p as
// re-marshaled through MarshalJSON (object-form witness, omitempty fields
// dropped), not the raw bytes p was parsed from, and not semantic
// constraints like threshold-vs-sum (those remain pkg/webvh/witness.go's
// job).
func (p Parameters) ValidateShape() error {
	schema, err := compiledParamsSchema()
	if err != nil {
		return err
	}

	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("diddoc: marshal parameters for validation: %w", err)
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return fmt.Errorf("diddoc: unmarshal parameters for validation: %w", err)
	}

	if err := schema.Validate(generic); err != nil {
		return fmt.Errorf("diddoc: parameters failed shape validation: %w", err)
	}
	return nil
}
