package blocks

// NewBlock creates a block with no fields or inputs.
func NewBlock(id, typ string) *Block {
	return &Block{ID: id, Type: typ}
}

// WithField sets a field and returns the block for chaining.
func (b *Block) WithField(name, value string) *Block {
	if b.Fields == nil {
		b.Fields = make(map[string]string)
	}
	b.Fields[name] = value
	return b
}

// WithInput connects child to the named input and returns the block.
func (b *Block) WithInput(name string, child *Block) *Block {
	if b.Inputs == nil {
		b.Inputs = make(map[string]*Block)
	}
	b.Inputs[name] = child
	return b
}

// Then appends next to the end of the chain starting at b and returns b.
func (b *Block) Then(next *Block) *Block {
	last := b
	for last.Next != nil {
		last = last.Next
	}
	last.Next = next
	return b
}

// At positions a top-level block and returns it.
func (b *Block) At(x, y int) *Block {
	b.X, b.Y = x, y
	return b
}
