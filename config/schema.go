package config

import (
	"github.com/invopop/jsonschema"
)

// Schema returns the JSON schema of a mission config file.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{ExpandedStruct: true}
	schema := r.Reflect(&Config{})
	schema.Title = "carplan mission"
	return schema
}
