package planar

import (
	"math"

	"github.com/google/uuid"
)

// SpatialIndex is a 2D spatial hash over shapes. A space keeps two of them:
// one for shapes of active bodies and one for static and sleeping shapes.
// Occupied cells are recorded per shape id so removal works even after the
// shape's cached AABB has gone stale.
type SpatialIndex struct {
	cellSize float32
	cells    map[uint64][]*Shape
	occupied map[uuid.UUID][]uint64
}

func NewSpatialIndex(cellSize float32) *SpatialIndex {
	assert(cellSize > 0, "spatial index cell size must be positive")
	return &SpatialIndex{
		cellSize: cellSize,
		cells:    make(map[uint64][]*Shape),
		occupied: make(map[uuid.UUID][]uint64),
	}
}

// Count returns the number of indexed shapes.
func (index *SpatialIndex) Count() int {
	return len(index.occupied)
}

// Contains reports whether the shape id is indexed.
func (index *SpatialIndex) Contains(id uuid.UUID) bool {
	_, ok := index.occupied[id]
	return ok
}

// Insert indexes the shape under id using its cached AABB.
func (index *SpatialIndex) Insert(shape *Shape, id uuid.UUID) {
	assert(!index.Contains(id), "shape is already in this spatial index")

	bb := shape.bb
	minX, maxX := index.cellIndex(bb.Min.X()), index.cellIndex(bb.Max.X())
	minY, maxY := index.cellIndex(bb.Min.Y()), index.cellIndex(bb.Max.Y())

	var keys []uint64
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			key := hashCell(x, y)
			index.cells[key] = append(index.cells[key], shape)
			keys = append(keys, key)
		}
	}
	index.occupied[id] = keys
}

// Remove drops the shape from every cell it was inserted into.
func (index *SpatialIndex) Remove(shape *Shape, id uuid.UUID) {
	keys, ok := index.occupied[id]
	assert(ok, "removing a shape that is not in this spatial index")

	for _, key := range keys {
		bucket := index.cells[key]
		for i, s := range bucket {
			if s == shape {
				bucket = append(bucket[:i], bucket[i+1:]...)
				break
			}
		}
		if len(bucket) == 0 {
			delete(index.cells, key)
		} else {
			index.cells[key] = bucket
		}
	}
	delete(index.occupied, id)
}

// Query calls fn for every indexed shape whose AABB intersects bb. Each
// shape is reported once.
func (index *SpatialIndex) Query(bb AABB, fn func(*Shape)) {
	minX, maxX := index.cellIndex(bb.Min.X()), index.cellIndex(bb.Max.X())
	minY, maxY := index.cellIndex(bb.Min.Y()), index.cellIndex(bb.Max.Y())

	seen := make(map[uuid.UUID]struct{})
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for _, shape := range index.cells[hashCell(x, y)] {
				if _, ok := seen[shape.id]; ok {
					continue
				}
				seen[shape.id] = struct{}{}
				if shape.bb.Intersects(bb) {
					fn(shape)
				}
			}
		}
	}
}

// ShapeQuery queries with the shape's cached AABB, skipping the shape
// itself.
func (index *SpatialIndex) ShapeQuery(shape *Shape, fn func(*Shape)) {
	index.Query(shape.bb, func(hit *Shape) {
		if hit != shape {
			fn(hit)
		}
	})
}

// Each visits every indexed shape once, in no particular order.
func (index *SpatialIndex) Each(fn func(*Shape)) {
	seen := make(map[uuid.UUID]struct{})
	for _, bucket := range index.cells {
		for _, shape := range bucket {
			if _, ok := seen[shape.id]; ok {
				continue
			}
			seen[shape.id] = struct{}{}
			fn(shape)
		}
	}
}

func (index *SpatialIndex) cellIndex(pos float32) int {
	return int(math.Floor(float64(pos / index.cellSize)))
}

// Large primes for mixing, same construction as a 3D voxel hash minus one
// axis.
func hashCell(x, y int) uint64 {
	const p1 = 73856093
	const p2 = 19349663
	return uint64(x*p1 ^ y*p2)
}
