package ast

// arenaChunkSize is the number of Node values pre-allocated per arena chunk.
// Most expressions fit in a single chunk.
const arenaChunkSize = 64

// Arena is a bump-pointer allocator for Node values.
//
// Instead of allocating each node individually on the heap, the arena
// pre-allocates fixed-size chunks and returns pointers into them. The arena
// stays alive as long as any node it handed out is reachable; the GC
// collects it with the tree.
//
// Arena is NOT thread-safe. Each parse or clone owns its own arena.
type Arena struct {
	chunks [][]Node
	pos    int
}

// NewArena allocates an arena pre-warmed with one chunk.
func NewArena() *Arena {
	return &Arena{
		chunks: [][]Node{make([]Node, arenaChunkSize)},
	}
}

// Alloc returns a pointer to a zero-valued Node with Kind and Position set.
func (a *Arena) Alloc(kind NodeKind, position int) *Node {
	if a.pos >= arenaChunkSize {
		a.chunks = append(a.chunks, make([]Node, arenaChunkSize))
		a.pos = 0
	}
	n := &a.chunks[len(a.chunks)-1][a.pos]
	a.pos++
	n.Kind = kind
	n.Position = position
	return n
}

// Len returns the number of nodes allocated so far.
func (a *Arena) Len() int {
	return (len(a.chunks)-1)*arenaChunkSize + a.pos
}
