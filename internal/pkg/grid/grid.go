// Package grid holds the set of generator instances that make up one microgrid design.
package grid

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/ohowland/cgc_resilience/internal/pkg/asset"
)

// ErrEmptyGrid is returned when a grid is built without any generators.
var ErrEmptyGrid = errors.New("cannot build a microgrid with no components")

// Generators is implemented by anything that can enumerate generator instances.
type Generators interface {
	Generators() []asset.Asset
}

// Grid is an ordered set of generator assets. Ratings may be changed in place
// through UpdateCapacities; reads take a snapshot under the lock.
type Grid struct {
	mux    *sync.RWMutex
	assets []asset.Asset
}

// New returns a Grid holding the given assets in order.
func New(assets ...asset.Asset) (*Grid, error) {
	if len(assets) == 0 {
		return nil, ErrEmptyGrid
	}
	members := make([]asset.Asset, len(assets))
	copy(members, assets)
	return &Grid{mux: &sync.RWMutex{}, assets: members}, nil
}

// Generators returns a snapshot of the generator instances in grid order.
func (g *Grid) Generators() []asset.Asset {
	g.mux.RLock()
	defer g.mux.RUnlock()
	members := make([]asset.Asset, len(g.assets))
	copy(members, g.assets)
	return members
}

// Asset looks up a generator by PID.
func (g *Grid) Asset(pid uuid.UUID) (asset.Asset, bool) {
	g.mux.RLock()
	defer g.mux.RUnlock()
	for _, a := range g.assets {
		if a.PID() == pid {
			return a, true
		}
	}
	return asset.Asset{}, false
}

// Capacity returns the summed rating of every generator of the given type.
func (g *Grid) Capacity(kind asset.Type) float64 {
	g.mux.RLock()
	defer g.mux.RUnlock()
	var total float64
	for _, a := range g.assets {
		if a.Type() == kind {
			total += a.Rating()
		}
	}
	return total
}

// UpdateCapacities sets the total capacity of each listed component type,
// shared evenly across the generators of that type. Types absent from the
// grid are ignored.
func (g *Grid) UpdateCapacities(capacities map[asset.Type]float64) {
	g.mux.Lock()
	defer g.mux.Unlock()
	counts := make(map[asset.Type]int)
	for _, a := range g.assets {
		counts[a.Type()]++
	}
	for i, a := range g.assets {
		capacity, ok := capacities[a.Type()]
		if !ok {
			continue
		}
		g.assets[i] = a.WithRating(capacity / float64(counts[a.Type()]))
	}
}
