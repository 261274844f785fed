package validate

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"sigs.k8s.io/yaml"
)

//go:embed schema/formula.schema.json
var formulaSchema []byte

// FormulaSchemaName is the resource name the embedded formula schema is compiled under.
const FormulaSchemaName = "formula.schema.json"

// ValidateAgainstSchema compiles schema under name and validates the JSON
// document data against it. ref optionally selects a sub-schema, e.g.
// "#/$defs/signature".
func ValidateAgainstSchema(name string, schema []byte, data []byte, ref string) error {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	if err := compiler.AddResource(name, bytes.NewReader(schema)); err != nil {
		return fmt.Errorf("loading schema %s: %w", name, err)
	}

	target := name + ref
	sch, err := compiler.Compile(target)
	if err != nil {
		return fmt.Errorf("compiling schema %s: %w", target, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("invalid JSON document: %w", err)
	}

	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("schema validation against %s failed: %w", target, err)
	}
	return nil
}

// ValidateFormulaJSON validates a JSON-encoded formula against the embedded schema.
func ValidateFormulaJSON(data []byte) error {
	return ValidateAgainstSchema(FormulaSchemaName, formulaSchema, data, "")
}

// ValidateFormulaYAML converts a YAML formula to JSON and validates it
// against the embedded schema.
func ValidateFormulaYAML(data []byte) error {
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("converting formula YAML to JSON: %w", err)
	}
	return ValidateFormulaJSON(jsonData)
}
