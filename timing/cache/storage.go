package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Line is the observable state of one cache line.
type Line struct {
	// Valid indicates the line holds data written since the last reset.
	Valid bool
	// Tag holds the address bits above the index. Always 0 when the tag
	// width is zero.
	Tag uint64
	// Data is the stored word. Unspecified while Valid is false.
	Data uint64
}

// Storage is the line array of a direct-mapped cache.
//
// Valid and tag bits live in an Akita directory configured with one way per
// set and a block size of one address, so each set is exactly one line and
// the set ID is the line index. Data words are kept in a parallel slice
// indexed by set ID.
//
// Storage never changes on its own: reads are combinational and writes are
// applied by the owning Controller at the clock edge.
type Storage struct {
	config Config

	directory *akitacache.DirectoryImpl
	data      []uint64
}

// NewStorage creates a storage array with every line invalid.
func NewStorage(config Config) *Storage {
	numLines := config.NumLines()

	return &Storage{
		config: config,
		directory: akitacache.NewDirectory(
			numLines,
			1,
			1,
			akitacache.NewLRUVictimFinder(),
		),
		data: make([]uint64, numLines),
	}
}

// NumLines returns the number of lines in the array.
func (s *Storage) NumLines() int {
	return len(s.data)
}

// Peek returns the current state of the line that addr maps to.
func (s *Storage) Peek(addr uint64) Line {
	return s.Line(s.config.Index(addr))
}

// Line returns the current state of the line at index.
func (s *Storage) Line(index int) Line {
	block := s.block(index)

	return Line{
		Valid: block.IsValid,
		Tag:   s.config.Tag(block.Tag),
		Data:  s.data[index],
	}
}

// Lines returns a copy of every line, in index order.
func (s *Storage) Lines() []Line {
	lines := make([]Line, s.NumLines())
	for i := range lines {
		lines[i] = s.Line(i)
	}
	return lines
}

func (s *Storage) block(index int) *akitacache.Block {
	return s.directory.GetSets()[index].Blocks[0]
}

// write stores data into the line addr maps to and marks it valid. In a
// tagged configuration the previous occupant is replaced.
func (s *Storage) write(addr uint64, data uint64) {
	addr &= s.config.AddressMask()

	victim := s.directory.FindVictim(addr)
	victim.Tag = addr
	victim.IsValid = true
	victim.IsDirty = false
	s.directory.Visit(victim)

	s.data[victim.SetID] = data & s.config.DataMask()
}

// invalidateAll clears every valid bit. Data words are left as they are.
func (s *Storage) invalidateAll() {
	s.directory.Reset()
}
