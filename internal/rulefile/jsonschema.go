package rulefile

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaID is the $id of the generated rule file schema.
const SchemaID = "https://member-mapper.dev/schemas/rules-v1.json"

// JSONSchema returns the JSON schema of the rule file format, for editor
// completion and validation of YAML files.
func JSONSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		FieldNameTag:   "yaml",
		DoNotReference: true,
		ExpandedStruct: true,
	}

	s := r.Reflect(new(File))
	s.ID = SchemaID
	s.Title = "member-mapper rule file"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal rule file schema: %w", err)
	}

	return data, nil
}
