// Package oit implements order-independent transparency with per-pixel
// linked lists. Translucent fragments claim a slot in a fixed-capacity node
// arena with an atomic counter and splice themselves onto their pixel's list
// with an atomic exchange of the head index. A resolve pass later walks each
// list, sorts the collected fragments back-to-front and composites them over
// the opaque image.
package oit

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-passes/common"
)

// Sentinel marks an empty head entry and terminates every list. It is the
// all-ones 32-bit pattern so a byte-wise fill of 0xFF produces it.
const Sentinel uint32 = 0xFFFFFFFF

// DefaultOverdraw is the average number of translucent fragments per pixel the
// node arena is sized for when no explicit capacity is given.
const DefaultOverdraw = 8

// accumulatorImpl is the implementation of the Accumulator interface.
type accumulatorImpl struct {
	width    int
	height   int
	overdraw int
	capacity uint32

	heads   []uint32 // accessed atomically during a pass
	nodes   []GPUNode
	staging []uint32 // precomputed all-Sentinel image of heads

	counter atomic.Uint32
	dropped atomic.Uint32
}

// Accumulator owns the per-pixel head table and the node arena for one
// surface size. Insert may be called from many goroutines at once; every
// other method expects the accumulation pass to have finished.
//
// The arena never grows. Fragments that arrive after it is full are dropped
// and counted, never reallocated mid-frame.
type Accumulator interface {
	// Width returns the surface width in pixels.
	Width() int

	// Height returns the surface height in pixels.
	Height() int

	// Capacity returns the number of node slots in the arena.
	//
	// Returns:
	//   - uint32: arena capacity in nodes
	Capacity() uint32

	// Count returns the number of nodes written since the last Reset,
	// never more than Capacity.
	//
	// Returns:
	//   - uint32: the number of live nodes
	Count() uint32

	// Dropped returns the number of fragments rejected because the arena
	// was full since the last Reset.
	//
	// Returns:
	//   - uint32: the overflow count
	Dropped() uint32

	// Reset restores every head entry to Sentinel by copying the precomputed
	// staging image and rewinds the node counter. Must run before every
	// accumulation pass.
	Reset()

	// Insert claims a fresh node for the fragment and splices it at the
	// head of the pixel's list. Safe for concurrent use.
	//
	// Parameters:
	//   - x, y: pixel coordinate
	//   - color: fragment color (packed to 32-bit RGBA on store)
	//   - depth: window-space depth in [0, 1]
	//
	// Returns:
	//   - bool: false if the coordinate is outside the surface or the arena is full
	Insert(x, y int, color common.Color, depth float32) bool

	// Head returns the arena index at the head of the pixel's list, or
	// Sentinel if the list is empty or the coordinate is out of range.
	//
	// Parameters:
	//   - x, y: pixel coordinate
	//
	// Returns:
	//   - uint32: head node index or Sentinel
	Head(x, y int) uint32

	// Node returns the arena record at index i.
	//
	// Parameters:
	//   - i: node index (must be < Capacity)
	//
	// Returns:
	//   - GPUNode: the stored record
	Node(i uint32) GPUNode

	// Walk visits the pixel's list from the head, stopping at Sentinel, when
	// fn returns false, or after Capacity steps.
	//
	// Parameters:
	//   - x, y: pixel coordinate
	//   - fn: visitor receiving each node index and record
	//
	// Returns:
	//   - int: the number of nodes visited
	Walk(x, y int, fn func(i uint32, n GPUNode) bool) int

	// Heads returns the raw head table in row-major order (y * width + x).
	//
	// Returns:
	//   - []uint32: the head table (shared, do not modify)
	Heads() []uint32
}

var _ Accumulator = &accumulatorImpl{}

// NewAccumulator creates the head table and node arena for a surface of the
// given size. The arena holds overdraw × width × height nodes unless
// WithCapacity overrides it. The head table starts out reset.
//
// Parameters:
//   - width, height: surface size in pixels
//   - opts: variadic list of AccumulatorBuilderOption functions
//
// Returns:
//   - Accumulator: a new, reset Accumulator
func NewAccumulator(width, height int, opts ...AccumulatorBuilderOption) Accumulator {
	a := &accumulatorImpl{
		width:    max(width, 0),
		height:   max(height, 0),
		overdraw: DefaultOverdraw,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.capacity == 0 {
		a.capacity = uint32(max(a.overdraw, 1) * a.width * a.height)
	}

	pixels := a.width * a.height
	a.heads = make([]uint32, pixels)
	a.nodes = make([]GPUNode, a.capacity)
	a.staging = NewSentinelStaging(pixels)
	a.Reset()
	return a
}

func (a *accumulatorImpl) Width() int {
	return a.width
}

func (a *accumulatorImpl) Height() int {
	return a.height
}

func (a *accumulatorImpl) Capacity() uint32 {
	return a.capacity
}

func (a *accumulatorImpl) Count() uint32 {
	return min(a.counter.Load(), a.capacity)
}

func (a *accumulatorImpl) Dropped() uint32 {
	return a.dropped.Load()
}

func (a *accumulatorImpl) Reset() {
	copy(a.heads, a.staging)
	a.counter.Store(0)
	a.dropped.Store(0)
}

func (a *accumulatorImpl) Insert(x, y int, color common.Color, depth float32) bool {
	if x < 0 || y < 0 || x >= a.width || y >= a.height {
		return false
	}

	slot := a.counter.Add(1) - 1
	if slot >= a.capacity {
		a.dropped.Add(1)
		return false
	}

	n := &a.nodes[slot]
	n.Color = common.PackRGBA(color)
	n.Depth = depth
	n.Next = atomic.SwapUint32(&a.heads[y*a.width+x], slot)
	return true
}

func (a *accumulatorImpl) Head(x, y int) uint32 {
	if x < 0 || y < 0 || x >= a.width || y >= a.height {
		return Sentinel
	}
	return atomic.LoadUint32(&a.heads[y*a.width+x])
}

func (a *accumulatorImpl) Node(i uint32) GPUNode {
	return a.nodes[i]
}

func (a *accumulatorImpl) Walk(x, y int, fn func(i uint32, n GPUNode) bool) int {
	visited := 0
	for i := a.Head(x, y); i != Sentinel && i < a.capacity; {
		if uint32(visited) >= a.capacity {
			break
		}
		n := a.nodes[i]
		visited++
		if !fn(i, n) {
			break
		}
		i = n.Next
	}
	return visited
}

func (a *accumulatorImpl) Heads() []uint32 {
	return a.heads
}
