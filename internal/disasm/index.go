package disasm

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Duplicate records a label that was defined more than once in a dump.
type Duplicate struct {
	Label string
	First int // header line of the overwritten block
	Last  int // header line of the block that was kept
}

// Index maps labels to blocks in dump order. A redefined label keeps the
// position of its first definition but takes the body of the last one.
type Index struct {
	blocks *orderedmap.OrderedMap[string, *Block]
	dups   []Duplicate
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{blocks: orderedmap.New[string, *Block]()}
}

func (x *Index) add(b *Block) {
	if old, present := x.blocks.Set(b.Label, b); present {
		x.dups = append(x.dups, Duplicate{Label: b.Label, First: old.Line, Last: b.Line})
	}
}

// Get returns the block for label.
func (x *Index) Get(label string) (*Block, bool) {
	if x == nil {
		return nil, false
	}
	return x.blocks.Get(label)
}

// Has reports whether label is defined.
func (x *Index) Has(label string) bool {
	_, ok := x.Get(label)
	return ok
}

// Len returns the number of distinct labels.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return x.blocks.Len()
}

// Blocks returns all blocks in index order.
func (x *Index) Blocks() []*Block {
	if x == nil {
		return nil
	}
	out := make([]*Block, 0, x.blocks.Len())
	for pair := x.blocks.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Labels returns all labels in index order.
func (x *Index) Labels() []string {
	if x == nil {
		return nil
	}
	out := make([]string, 0, x.blocks.Len())
	for pair := x.blocks.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Duplicates returns every label redefinition seen while parsing.
func (x *Index) Duplicates() []Duplicate {
	if x == nil {
		return nil
	}
	return x.dups
}
