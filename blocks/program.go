// Package blocks holds the visual program representation edited by the block
// editor: an ordered forest of typed blocks with named fields and inputs.
//
// The core only reads programs. Mutation happens through a Workspace, which
// notifies listeners with an Event after every edit.
package blocks

import "sort"

// Block is one node of a visual program.
//
// Inputs holds both value inputs (a single expression block) and statement
// inputs (the first block of a nested statement chain). Next links the
// following statement in the same chain.
type Block struct {
	ID     string            `json:"id"`
	Type   string            `json:"type"`
	Fields map[string]string `json:"fields,omitempty"`
	Inputs map[string]*Block `json:"inputs,omitempty"`
	Next   *Block            `json:"next,omitempty"`

	// X and Y position top-level blocks on the canvas. They only affect
	// the order in which top-level blocks are compiled.
	X int `json:"x,omitempty"`
	Y int `json:"y,omitempty"`
}

// Field returns the named field value and whether it was present.
func (b *Block) Field(name string) (string, bool) {
	if b == nil || b.Fields == nil {
		return "", false
	}
	v, ok := b.Fields[name]
	return v, ok
}

// Input returns the block connected to the named input, or nil.
func (b *Block) Input(name string) *Block {
	if b == nil || b.Inputs == nil {
		return nil
	}
	return b.Inputs[name]
}

// Clone returns a deep copy of the block, its inputs and its successors.
func (b *Block) Clone() *Block {
	if b == nil {
		return nil
	}
	c := &Block{
		ID:   b.ID,
		Type: b.Type,
		X:    b.X,
		Y:    b.Y,
	}
	if b.Fields != nil {
		c.Fields = make(map[string]string, len(b.Fields))
		for k, v := range b.Fields {
			c.Fields[k] = v
		}
	}
	if b.Inputs != nil {
		c.Inputs = make(map[string]*Block, len(b.Inputs))
		for k, v := range b.Inputs {
			c.Inputs[k] = v.Clone()
		}
	}
	c.Next = b.Next.Clone()
	return c
}

// Program is an ordered forest of top-level block chains.
type Program struct {
	Blocks []*Block `json:"blocks"`
}

// Clone returns a deep copy of the program.
func (p *Program) Clone() *Program {
	if p == nil {
		return &Program{}
	}
	c := &Program{Blocks: make([]*Block, 0, len(p.Blocks))}
	for _, b := range p.Blocks {
		c.Blocks = append(c.Blocks, b.Clone())
	}
	return c
}

// Walk visits every block in the program depth-first: a block, then its
// inputs in name order, then its successor. Walking stops when fn returns
// false.
func (p *Program) Walk(fn func(*Block) bool) {
	if p == nil {
		return
	}
	for _, b := range p.Blocks {
		if !walk(b, fn) {
			return
		}
	}
}

func walk(b *Block, fn func(*Block) bool) bool {
	for ; b != nil; b = b.Next {
		if !fn(b) {
			return false
		}
		for _, name := range InputNames(b) {
			if !walk(b.Inputs[name], fn) {
				return false
			}
		}
	}
	return true
}

// Find returns the block with the given ID, or nil.
func (p *Program) Find(id string) *Block {
	var found *Block
	p.Walk(func(b *Block) bool {
		if b.ID == id {
			found = b
			return false
		}
		return true
	})
	return found
}

// TopBlocks returns the top-level blocks ordered by position: Y, then X,
// then ID. The order is stable for a given program structure.
func (p *Program) TopBlocks() []*Block {
	if p == nil {
		return nil
	}
	out := append([]*Block(nil), p.Blocks...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.ID < b.ID
	})
	return out
}

// InputNames returns the names of a block's connected inputs in sorted order.
func InputNames(b *Block) []string {
	if b == nil || len(b.Inputs) == 0 {
		return nil
	}
	names := make([]string, 0, len(b.Inputs))
	for name := range b.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
