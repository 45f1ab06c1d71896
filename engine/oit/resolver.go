package oit

import (
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-passes/common"
)

// DefaultMaxResolveFragments is the default number of fragments per pixel
// the resolver collects before truncating the list.
const DefaultMaxResolveFragments = 16

// MaxResolveFragments is the size of the fixed per-pixel sort buffer. No
// resolver can be configured to collect more than this.
const MaxResolveFragments = 32

// resolveRowsPerTask is the height of the row band resolved by one worker task.
const resolveRowsPerTask = 16

// ColorTarget is the color attachment the resolve pass composites onto. The
// pass loads the existing opaque color and stores the blended result; it never
// clears.
type ColorTarget interface {
	Width() int
	Height() int
	Load(x, y int) common.Color
	Store(x, y int, c common.Color)
}

// resolverImpl is the implementation of the Resolver interface.
type resolverImpl struct {
	maxFragments int
	pool         worker.DynamicWorkerPool
}

type sortEntry struct {
	color common.Color
	depth float32
}

// Resolver walks each pixel's fragment list, sorts it back-to-front and
// composites it onto the opaque image.
//
// At most MaxFragments nodes are collected per pixel, in list order starting
// at the head. Because fragments are spliced in at the head, the most
// recently inserted fragments survive truncation, not the nearest ones.
type Resolver interface {
	// MaxFragments returns the per-pixel collection cap.
	//
	// Returns:
	//   - int: the cap
	MaxFragments() int

	// ResolvePixel composites a single pixel's list over dst.
	//
	// Parameters:
	//   - acc: the accumulator holding the lists
	//   - x, y: pixel coordinate
	//   - dst: the opaque color loaded from the target
	//   - premultiplied: true if fragment colors are premultiplied by alpha
	//
	// Returns:
	//   - common.Color: the composited color (dst unchanged for an empty list)
	//   - int: the number of fragments composited
	ResolvePixel(acc Accumulator, x, y int, dst common.Color, premultiplied bool) (common.Color, int)

	// Resolve runs the full-screen resolve pass. Pixels with an empty list are
	// not written.
	//
	// Parameters:
	//   - acc: the accumulator holding the lists
	//   - target: the color target to load from and store to
	//   - premultiplied: true if fragment colors are premultiplied by alpha
	//
	// Returns:
	//   - int: the total number of fragments composited
	Resolve(acc Accumulator, target ColorTarget, premultiplied bool) int
}

var _ Resolver = &resolverImpl{}

// NewResolver creates a Resolver with DefaultMaxResolveFragments and any
// provided options applied.
//
// Parameters:
//   - opts: variadic list of ResolverBuilderOption functions
//
// Returns:
//   - Resolver: a new Resolver
func NewResolver(opts ...ResolverBuilderOption) Resolver {
	r := &resolverImpl{
		maxFragments: DefaultMaxResolveFragments,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *resolverImpl) MaxFragments() int {
	return r.maxFragments
}

func (r *resolverImpl) ResolvePixel(acc Accumulator, x, y int, dst common.Color, premultiplied bool) (common.Color, int) {
	var local [MaxResolveFragments]sortEntry
	n := 0
	acc.Walk(x, y, func(_ uint32, node GPUNode) bool {
		local[n] = sortEntry{color: common.UnpackRGBA(node.Color), depth: node.Depth}
		n++
		return n < r.maxFragments
	})
	if n == 0 {
		return dst, 0
	}

	// Insertion sort, farthest first. Stable, so equal depths keep list order.
	frags := local[:n]
	for i := 1; i < n; i++ {
		e := frags[i]
		j := i - 1
		for j >= 0 && frags[j].depth < e.depth {
			frags[j+1] = frags[j]
			j--
		}
		frags[j+1] = e
	}

	out := dst
	for _, f := range frags {
		if premultiplied {
			out = BlendPremultiplied(f.color, out)
		} else {
			out = BlendOver(f.color, out)
		}
	}
	return out, n
}

func (r *resolverImpl) Resolve(acc Accumulator, target ColorTarget, premultiplied bool) int {
	width := min(acc.Width(), target.Width())
	height := min(acc.Height(), target.Height())

	resolveRows := func(y0, y1 int) int {
		total := 0
		for y := y0; y < y1; y++ {
			for x := 0; x < width; x++ {
				if acc.Head(x, y) == Sentinel {
					continue
				}
				c, n := r.ResolvePixel(acc, x, y, target.Load(x, y), premultiplied)
				target.Store(x, y, c)
				total += n
			}
		}
		return total
	}

	if r.pool == nil {
		return resolveRows(0, height)
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	taskID := 0
	for y0 := 0; y0 < height; y0 += resolveRowsPerTask {
		lo, hi := y0, min(y0+resolveRowsPerTask, height)
		wg.Add(1)
		id := taskID
		taskID++
		r.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				n := resolveRows(lo, hi)
				mu.Lock()
				total += n
				mu.Unlock()
				return nil, nil
			},
		})
	}
	wg.Wait()
	return total
}
