package blocks

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed program.cue
var schemaSource string

// ErrInvalidDocument indicates a program document failed schema validation
// or could not be decoded.
var ErrInvalidDocument = errors.New("invalid program document")

// DocumentError describes why a program document was rejected.
type DocumentError struct {
	Name string
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// Is matches ErrInvalidDocument.
func (e *DocumentError) Is(target error) bool {
	return target == ErrInvalidDocument
}

// schema holds the compiled #Program definition. cue values are not safe
// for concurrent use, so every use goes through mu.
var schema struct {
	once sync.Once
	mu   sync.Mutex
	ctx  *cue.Context
	def  cue.Value
	err  error
}

func programSchema() (*cue.Context, cue.Value, error) {
	schema.once.Do(func() {
		schema.ctx = cuecontext.New()
		v := schema.ctx.CompileString(schemaSource, cue.Filename("program.cue"))
		if err := v.Err(); err != nil {
			schema.err = fmt.Errorf("compiling program schema: %w", err)
			return
		}
		schema.def = v.LookupPath(cue.ParsePath("#Program"))
		if err := schema.def.Err(); err != nil {
			schema.err = fmt.Errorf("looking up #Program: %w", err)
		}
	})
	return schema.ctx, schema.def, schema.err
}

// ValidateDocument checks a JSON program document against the program
// schema without decoding it.
func ValidateDocument(name string, data []byte) error {
	ctx, def, err := programSchema()
	if err != nil {
		return err
	}

	schema.mu.Lock()
	defer schema.mu.Unlock()

	v := ctx.CompileBytes(data, cue.Filename(name))
	if err := v.Err(); err != nil {
		return &DocumentError{Name: name, Err: err}
	}
	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return &DocumentError{Name: name, Err: err}
	}
	return nil
}

// ParseDocument validates and decodes a JSON program document.
func ParseDocument(name string, data []byte) (*Program, error) {
	if err := ValidateDocument(name, data); err != nil {
		return nil, err
	}
	var p Program
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, &DocumentError{Name: name, Err: err}
	}
	return &p, nil
}

// LoadDocument reads and parses a program document from disk.
func LoadDocument(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return ParseDocument(path, data)
}

// MarshalDocument renders a program as an indented JSON document.
func MarshalDocument(p *Program) ([]byte, error) {
	if p == nil {
		p = &Program{}
	}
	if p.Blocks == nil {
		p = &Program{Blocks: []*Block{}}
	}
	return json.MarshalIndent(p, "", "  ")
}
