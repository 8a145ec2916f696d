package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const scanRequestSchema = `{
	"type": "object",
	"properties": {
		"session_id": {"type": "string", "pattern": "^SID-[0-9A-F]{8}$"}
	},
	"required": ["session_id"],
	"additionalProperties": false
}`

const hashRequestSchema = `{
	"type": "object",
	"properties": {
		"stored_path": {"type": "string", "minLength": 1}
	},
	"required": ["stored_path"],
	"additionalProperties": false
}`

func compileSchema(name, schemaJSON string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(schemaJSON)); err != nil {
		panic(fmt.Sprintf("invalid embedded schema %s: %v", name, err))
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compile embedded schema %s: %v", name, err))
	}
	return schema
}

var (
	scanSchema = compileSchema("scan.json", scanRequestSchema)
	hashSchema = compileSchema("hash.json", hashRequestSchema)
)

func validateBody(schema *jsonschema.Schema, body []byte) (map[string]any, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid json body: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}
