package harness

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var scenarioSchema string

var (
	schemaOnce sync.Once
	schemaCtx  *cue.Context
	schemaDef  cue.Value
	schemaErr  error

	// cue.Context values are not safe for concurrent use.
	schemaMu sync.Mutex
)

// loadSchema compiles the embedded scenario schema once.
func loadSchema() (*cue.Context, cue.Value, error) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		v := schemaCtx.CompileString(scenarioSchema, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("compile scenario schema: %w", err)
			return
		}
		schemaDef = v.LookupPath(cue.ParsePath("#Scenario"))
		if err := schemaDef.Err(); err != nil {
			schemaErr = fmt.Errorf("lookup #Scenario: %w", err)
		}
	})
	return schemaCtx, schemaDef, schemaErr
}

// validateSchema checks scenario YAML against the embedded CUE schema.
func validateSchema(filename string, data []byte) error {
	ctx, def, err := loadSchema()
	if err != nil {
		return err
	}

	schemaMu.Lock()
	defer schemaMu.Unlock()

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	v := ctx.BuildFile(file)
	if err := v.Err(); err != nil {
		return fmt.Errorf("schema: %w", err)
	}

	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema: %s", cueerrors.Details(err, nil))
	}
	return nil
}
