package blocks

import (
	"errors"
	"fmt"
	"sync"
)

// ErrBlockNotFound indicates an edit referenced a block that is not in the
// workspace.
var ErrBlockNotFound = errors.New("block not found")

// Workspace is the editable program plus its change listeners. Listeners are
// called synchronously, after the edit has been applied, on the goroutine
// that made the edit.
type Workspace struct {
	mu        sync.Mutex
	program   *Program
	listeners []Listener
}

// NewWorkspace creates an empty workspace.
func NewWorkspace() *Workspace {
	return &Workspace{program: &Program{}}
}

// AddChangeListener registers fn for every subsequent change notification.
func (w *Workspace) AddChangeListener(fn Listener) {
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	w.mu.Unlock()
}

// Snapshot returns a deep copy of the current program.
func (w *Workspace) Snapshot() *Program {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.program.Clone()
}

// Load replaces the whole program.
func (w *Workspace) Load(p *Program) {
	w.mu.Lock()
	w.program = p.Clone()
	w.mu.Unlock()
	w.emit(Event{Kind: EventLoad})
}

// AddBlock adds a new top-level block chain.
func (w *Workspace) AddBlock(b *Block) {
	w.mu.Lock()
	w.program.Blocks = append(w.program.Blocks, b.Clone())
	w.mu.Unlock()
	w.emit(Event{Kind: EventCreate, BlockID: b.ID})
}

// SetField sets a field on an existing block.
func (w *Workspace) SetField(id, name, value string) error {
	err := w.edit(id, func(b *Block) {
		if b.Fields == nil {
			b.Fields = make(map[string]string)
		}
		b.Fields[name] = value
	})
	if err != nil {
		return err
	}
	w.emit(Event{Kind: EventChange, BlockID: id})
	return nil
}

// SetInput connects child to the named input of the block with the given
// ID, replacing whatever was connected. A nil child disconnects the input.
func (w *Workspace) SetInput(id, name string, child *Block) error {
	err := w.edit(id, func(b *Block) {
		if child == nil {
			delete(b.Inputs, name)
			return
		}
		if b.Inputs == nil {
			b.Inputs = make(map[string]*Block)
		}
		b.Inputs[name] = child.Clone()
	})
	if err != nil {
		return err
	}
	w.emit(Event{Kind: EventMove, BlockID: id})
	return nil
}

// SetNext links next after the block with the given ID.
func (w *Workspace) SetNext(id string, next *Block) error {
	err := w.edit(id, func(b *Block) {
		b.Next = next.Clone()
	})
	if err != nil {
		return err
	}
	w.emit(Event{Kind: EventMove, BlockID: id})
	return nil
}

// MoveTo repositions a top-level block.
func (w *Workspace) MoveTo(id string, x, y int) error {
	err := w.edit(id, func(b *Block) {
		b.X, b.Y = x, y
	})
	if err != nil {
		return err
	}
	w.emit(Event{Kind: EventMove, BlockID: id})
	return nil
}

// Delete removes the block with the given ID together with its inputs.
// A deleted block's successor takes its place in the chain.
func (w *Workspace) Delete(id string) error {
	w.mu.Lock()
	ok := deleteBlock(w.program, id)
	w.mu.Unlock()
	if !ok {
		return fmt.Errorf("delete %s: %w", id, ErrBlockNotFound)
	}
	w.emit(Event{Kind: EventDelete, BlockID: id})
	return nil
}

// Select marks a block as selected. This is a UI-only notification.
func (w *Workspace) Select(id string) {
	w.emit(Event{Kind: EventSelected, BlockID: id})
}

// Scroll moves the viewport. This is a UI-only notification.
func (w *Workspace) Scroll(dx, dy int) {
	w.emit(Event{Kind: EventViewport})
}

func (w *Workspace) edit(id string, fn func(*Block)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	b := w.program.Find(id)
	if b == nil {
		return fmt.Errorf("edit %s: %w", id, ErrBlockNotFound)
	}
	fn(b)
	return nil
}

func (w *Workspace) emit(ev Event) {
	w.mu.Lock()
	listeners := append([]Listener(nil), w.listeners...)
	w.mu.Unlock()
	for _, fn := range listeners {
		fn(ev)
	}
}

func deleteBlock(p *Program, id string) bool {
	for i, b := range p.Blocks {
		if b.ID == id {
			if b.Next != nil {
				p.Blocks[i] = b.Next
			} else {
				p.Blocks = append(p.Blocks[:i], p.Blocks[i+1:]...)
			}
			return true
		}
	}
	found := false
	p.Walk(func(b *Block) bool {
		if b.Next != nil && b.Next.ID == id {
			b.Next = b.Next.Next
			found = true
			return false
		}
		for name, in := range b.Inputs {
			if in.ID == id {
				if in.Next != nil {
					b.Inputs[name] = in.Next
				} else {
					delete(b.Inputs, name)
				}
				found = true
				return false
			}
		}
		return true
	})
	return found
}
