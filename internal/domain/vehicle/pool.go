// Package vehicle implements the vehicle pool and spatial hash (C8): a
// block-allocated arena of vehicle records indexed both by id and by a
// coarse position bucket, backed by hashicorp/go-memdb's in-memory
// indexed store rather than a hand-rolled bucket map, per SPEC_FULL.md's
// DOMAIN STACK entry for that library. Grounded on the teacher's
// `internal/adapters/persistence` repository pattern: a narrow Repository
// interface in front of a storage engine, here go-memdb instead of gorm
// because the pool is a pure in-tick working set, never durable state.
package vehicle

import (
	"fmt"

	memdb "github.com/hashicorp/go-memdb"

	"github.com/tiletransit/simcore/internal/domain/grid"
)

// Kind tags which controller owns a vehicle.
type Kind uint8

const (
	KindNone Kind = iota
	KindTrain
	KindRoadVeh
	KindShip
	KindEffect // smoke, sparks, explosions, disasters
)

// BlockSize matches spec.md §4.8's block-allocated pool parameter.
const BlockSize = 512

// ReservedBlocks is the number of leading blocks kept exclusively for
// KindEffect vehicles, so smoke/sparks/explosions can never be starved by
// economic vehicle growth.
const ReservedBlocks = 2

// MaxVehicles is the pool's hard ceiling (spec.md §4.8, "max ≈ 64k").
const MaxVehicles = 64 * 1024

// Vehicle is one pool slot. Position fields are in fine (sub-tile) pixel
// coordinates, matching the source engine's screen-space spatial hash.
type Vehicle struct {
	ID       uint32
	Kind     Kind
	Owner    grid.Owner
	Tile     grid.TileIndex
	X, Y     int32 // pixel-space position
	Z        int32
	BucketKey uint32
	Free     bool
}

// bucketKeyOf computes the coarse 64x64 spatial bucket for (x, y), per
// spec.md §4.8: `(x & 0x1F80) >> 7 | (y & 0xFC0)`.
func bucketKeyOf(x, y int32) uint32 {
	ux, uy := uint32(x), uint32(y)
	return ((ux & 0x1F80) >> 7) | (uy & 0xFC0)
}

func vehicleSchema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			"vehicle": {
				Name: "vehicle",
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.UintFieldIndex{Field: "ID"},
					},
					"bucket": {
						Name:    "bucket",
						Unique:  false,
						Indexer: &memdb.UintFieldIndex{Field: "BucketKey"},
					},
				},
			},
		},
	}
}

// Pool is the block-allocated vehicle arena plus its go-memdb-backed
// spatial index.
type Pool struct {
	db       *memdb.MemDB
	nextFree uint32
	count    int
}

// NewPool allocates an empty pool. The first ReservedBlocks*BlockSize ids
// are pre-marked as reserved-for-effects by starting nextFree at
// ReservedBlocks*BlockSize for economic vehicle allocation; AllocateEffect
// draws from the reserved range instead.
func NewPool() (*Pool, error) {
	db, err := memdb.NewMemDB(vehicleSchema())
	if err != nil {
		return nil, fmt.Errorf("vehicle: new pool: %w", err)
	}
	return &Pool{db: db, nextFree: ReservedBlocks * BlockSize}, nil
}

// Allocate reserves a new non-effect vehicle slot with the next free id.
// Returns false if the pool is full (spec.md §4.8 invariant: economic
// vehicles never encroach on the first two reserved blocks).
func (p *Pool) Allocate(kind Kind, owner grid.Owner, tile grid.TileIndex) (*Vehicle, bool) {
	if kind == KindEffect {
		return p.allocateFrom(0, ReservedBlocks*BlockSize, kind, owner, tile)
	}
	if p.count >= MaxVehicles-ReservedBlocks*BlockSize {
		return nil, false
	}
	v := &Vehicle{ID: p.nextFree, Kind: kind, Owner: owner, Tile: tile}
	p.nextFree++
	p.count++
	if err := p.insert(v); err != nil {
		return nil, false
	}
	return v, true
}

// AllocateEffect draws from the reserved effect-vehicle id range.
func (p *Pool) AllocateEffect(owner grid.Owner, tile grid.TileIndex) (*Vehicle, bool) {
	return p.allocateFrom(0, ReservedBlocks*BlockSize, KindEffect, owner, tile)
}

func (p *Pool) allocateFrom(lo, hi uint32, kind Kind, owner grid.Owner, tile grid.TileIndex) (*Vehicle, bool) {
	txn := p.db.Txn(false)
	defer txn.Abort()
	for id := lo; id < hi; id++ {
		raw, err := txn.First("vehicle", "id", uint64(id))
		if err != nil {
			return nil, false
		}
		if raw != nil {
			continue
		}
		v := &Vehicle{ID: id, Kind: kind, Owner: owner, Tile: tile}
		if err := p.insert(v); err != nil {
			return nil, false
		}
		return v, true
	}
	return nil, false
}

// AllocateVehicles tests feasibility of allocating n economic vehicles
// without committing any of them, per spec.md §4.8's `allocate_vehicles`.
func (p *Pool) AllocateVehicles(n int) bool {
	return p.count+n <= MaxVehicles-ReservedBlocks*BlockSize
}

func (p *Pool) insert(v *Vehicle) error {
	txn := p.db.Txn(true)
	v.BucketKey = bucketKeyOf(v.X, v.Y)
	if err := txn.Insert("vehicle", v); err != nil {
		txn.Abort()
		return err
	}
	txn.Commit()
	return nil
}

// Get returns the vehicle with the given id, or nil if free/absent.
func (p *Pool) Get(id uint32) *Vehicle {
	txn := p.db.Txn(false)
	defer txn.Abort()
	raw, err := txn.First("vehicle", "id", uint64(id))
	if err != nil || raw == nil {
		return nil
	}
	return raw.(*Vehicle)
}

// Free releases a vehicle's slot back to the pool.
func (p *Pool) Free(id uint32) {
	txn := p.db.Txn(true)
	defer txn.Commit()
	raw, err := txn.First("vehicle", "id", uint64(id))
	if err != nil || raw == nil {
		return
	}
	txn.Delete("vehicle", raw)
	if raw.(*Vehicle).Kind != KindEffect {
		p.count--
	}
}

// PositionChanged re-indexes v after its X/Y/Tile have moved, i.e. the
// go-memdb analogue of spec.md §4.8's `vehicle_position_changed`
// unlink/relink: go-memdb's insert overwrites the unique id entry, which
// is enough since the bucket index is derived at insert time.
func (p *Pool) PositionChanged(v *Vehicle) error {
	return p.insert(v)
}

// VehicleFromPos scans the 3x2 block of buckets that could overlap tile
// (x, y) and returns the first vehicle for which pred returns true, per
// spec.md §4.8's `vehicle_from_pos`.
func (p *Pool) VehicleFromPos(x, y int32, pred func(*Vehicle) bool) *Vehicle {
	txn := p.db.Txn(false)
	defer txn.Abort()

	centre := bucketKeyOf(x, y)
	seen := make(map[uint32]bool, 6)
	for dy := int32(-1); dy <= 0; dy++ {
		for dx := int32(-1); dx <= 1; dx++ {
			key := bucketKeyOf(x+dx*128, y+dy*64)
			if seen[key] {
				continue
			}
			seen[key] = true
			it, err := txn.Get("vehicle", "bucket", uint64(key))
			if err != nil {
				continue
			}
			for raw := it.Next(); raw != nil; raw = it.Next() {
				v := raw.(*Vehicle)
				if pred(v) {
					return v
				}
			}
		}
	}
	_ = centre
	return nil
}

// Count returns the number of currently allocated non-effect vehicles.
func (p *Pool) Count() int { return p.count }
