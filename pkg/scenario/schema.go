package scenario

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://github.com/aretw0/easel/scenario.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// Schema returns the JSON Schema scenario documents are validated against.
func Schema() []byte {
	return schemaJSON
}

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		var doc any
		if err := json.Unmarshal(schemaJSON, &doc); err != nil {
			schemaErr = fmt.Errorf("failed to parse scenario schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("failed to add scenario schema: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

func validateDocument(raw any) error {
	sch, err := loadSchema()
	if err != nil {
		return err
	}
	inst, err := toJSONValue(raw)
	if err != nil {
		return &ValidationError{Reason: "document is not representable as JSON", Cause: err}
	}
	if err := sch.Validate(inst); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return &ValidationError{Paths: leafPaths(verr), Reason: "schema violation", Cause: err}
		}
		return &ValidationError{Reason: "schema violation", Cause: err}
	}
	return nil
}

// leafPaths collects the instance locations of the innermost failures.
func leafPaths(verr *jsonschema.ValidationError) []string {
	seen := map[string]bool{}
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			seen["/"+strings.Join(e.InstanceLocation, "/")] = true
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(verr)

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
