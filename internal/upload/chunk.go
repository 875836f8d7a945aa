package upload

import (
	"errors"
	"fmt"
	"iter"
)

// Chunk describes one half-open byte range [Start, End) of the source.
type Chunk struct {
	Start int64
	End   int64
	// Final is true when End equals the source size.
	Final bool
}

// Len returns the number of bytes covered by the chunk.
func (c Chunk) Len() int64 {
	return c.End - c.Start
}

func (c Chunk) String() string {
	if c.Final {
		return fmt.Sprintf("[%d,%d) final", c.Start, c.End)
	}
	return fmt.Sprintf("[%d,%d)", c.Start, c.End)
}

// Planner partitions a source of known size into contiguous chunks.
type Planner struct {
	size      int64
	chunkSize int64
}

// NewPlanner validates the sizes and returns a planner.
func NewPlanner(size, chunkSize int64) (Planner, error) {
	if size < 0 {
		return Planner{}, fmt.Errorf("plan chunks: negative source size %d", size)
	}
	if chunkSize <= 0 {
		return Planner{}, fmt.Errorf("plan chunks: chunk size must be positive, got %d", chunkSize)
	}
	return Planner{size: size, chunkSize: chunkSize}, nil
}

// At returns the chunk that starts at offset. An offset equal to the source
// size yields the zero-length final chunk used to finalize a session whose
// bytes are all on the server.
func (p Planner) At(offset int64) (Chunk, error) {
	if offset < 0 || offset > p.size {
		return Chunk{}, fmt.Errorf("plan chunk: offset %d outside [0,%d]", offset, p.size)
	}
	if p.chunkSize <= 0 {
		return Chunk{}, errors.New("plan chunk: planner not initialized")
	}
	end := offset + p.chunkSize
	if end > p.size || end < offset {
		end = p.size
	}
	return Chunk{Start: offset, End: end, Final: end == p.size}, nil
}

// From yields the chunk sequence starting at offset. A sequence started at
// the end of a non-empty source is empty; an empty source always yields a
// single zero-length final chunk.
func (p Planner) From(offset int64) iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		if offset >= p.size && p.size > 0 {
			return
		}
		for {
			chunk, err := p.At(offset)
			if err != nil {
				return
			}
			if !yield(chunk) || chunk.Final {
				return
			}
			offset = chunk.End
		}
	}
}

// Count returns how many chunks a full run from offset 0 produces.
func (p Planner) Count() int64 {
	if p.size == 0 {
		return 1
	}
	return (p.size + p.chunkSize - 1) / p.chunkSize
}
