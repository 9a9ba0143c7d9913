package codegen

import (
	"errors"
	"fmt"
)

// ErrCompile is matched by every *CompileError.
var ErrCompile = errors.New("compile error")

// CompileError reports a block that could not be translated to source.
type CompileError struct {
	BlockID   string
	BlockType string
	Message   string
}

func (e *CompileError) Error() string {
	if e.BlockID == "" {
		return e.Message
	}
	return fmt.Sprintf("block %s (%s): %s", e.BlockID, e.BlockType, e.Message)
}

// Is matches ErrCompile.
func (e *CompileError) Is(target error) bool {
	return target == ErrCompile
}
