package helpers

import (
	"encoding/json"
	"reflect"

	"github.com/invopop/jsonschema"
)

var jsonSchemaReflector = jsonschema.Reflector{
	Anonymous:                 true,
	AllowAdditionalProperties: true,
	DoNotReference:            true,
	ExpandedStruct:            true,
}

// SchemaJSON renders the JSON schema of v as indented JSON. Used to spell
// out the expected reply shape inside prompts.
func SchemaJSON(v any) (string, error) {
	schema := jsonSchemaReflector.ReflectFromType(reflect.TypeOf(v))

	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Truncate cuts s to at most limit runes, appending marker when anything
// was cut.
func Truncate(s string, limit int, marker string) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + marker
}
