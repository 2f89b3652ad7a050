// Package schemas embeds the JSON schemas of the files publish-extension reads and validates documents against
// them.
package schemas

import (
	"bytes"
	"embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const (
	Secrets  = "secrets.schema.json"
	Manifest = "manifest.schema.json"
)

//go:embed secrets.schema.json manifest.schema.json
var files embed.FS

var (
	compileOnce sync.Once
	compiled    map[string]*jsonschema.Schema
	compileErr  error
)

func compileAll() {
	compiled = map[string]*jsonschema.Schema{}
	compiler := jsonschema.NewCompiler()

	names := []string{Secrets, Manifest}
	for _, name := range names {
		data, err := files.ReadFile(name)
		if err != nil {
			compileErr = err
			return
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			compileErr = fmt.Errorf("schema %s: %w", name, err)
			return
		}
		if err := compiler.AddResource(name, doc); err != nil {
			compileErr = fmt.Errorf("schema %s: %w", name, err)
			return
		}
	}

	for _, name := range names {
		schema, err := compiler.Compile(name)
		if err != nil {
			compileErr = fmt.Errorf("schema %s: %w", name, err)
			return
		}
		compiled[name] = schema
	}
}

// Validate checks the JSON document in data against the named schema
func Validate(name string, data []byte) error {
	compileOnce.Do(compileAll)
	if compileErr != nil {
		return compileErr
	}

	schema, ok := compiled[name]
	if !ok {
		return fmt.Errorf("unknown schema %s", name)
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return schema.Validate(instance)
}
