// Package schemas validates content API form submissions against the JSON schemas in forms/.
package schemas

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed forms/*.json
var formSchemas embed.FS

const schemaBaseURL = "https://techstack.ph/schemas/forms/"

// Validator holds the compiled schema of every form
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// NewValidator compiles the embedded form schemas. The form name is the schema file name without the extension.
func NewValidator() (*Validator, error) {
	entries, err := formSchemas.ReadDir("forms")
	if err != nil {
		return nil, fmt.Errorf("could not read form schemas: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		data, err := formSchemas.ReadFile(path.Join("forms", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("could not read schema %s: %w", entry.Name(), err)
		}

		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("schema %s is not valid JSON: %w", entry.Name(), err)
		}

		if err := compiler.AddResource(schemaBaseURL+entry.Name(), doc); err != nil {
			return nil, fmt.Errorf("could not add schema %s: %w", entry.Name(), err)
		}
		names = append(names, entry.Name())
	}

	v := &Validator{schemas: make(map[string]*jsonschema.Schema, len(names))}
	for _, name := range names {
		schema, err := compiler.Compile(schemaBaseURL + name)
		if err != nil {
			return nil, fmt.Errorf("could not compile schema %s: %w", name, err)
		}
		v.schemas[strings.TrimSuffix(name, ".json")] = schema
	}
	return v, nil
}

// Has reports whether there is a schema for the form
func (v *Validator) Has(form string) bool {
	_, ok := v.schemas[form]
	return ok
}

// Validate checks a decoded submission (the result of jsonschema.UnmarshalJSON) against the form schema
func (v *Validator) Validate(form string, submission any) error {
	schema, ok := v.schemas[form]
	if !ok {
		return fmt.Errorf("no schema for form %q", form)
	}
	if err := schema.Validate(submission); err != nil {
		return fmt.Errorf("%s submission is invalid: %w", form, err)
	}
	return nil
}
