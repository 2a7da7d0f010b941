package radar

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nearlink/nearlink-api/internal/pkg/geo"
)

// VisibilityProvider reports whether a user is discoverable on the radar
type VisibilityProvider interface {
	IsExplorable(ctx context.Context, userID uuid.UUID) (bool, error)
}

type position struct {
	lat        float64
	lng        float64
	recordedAt time.Time
}

// Index holds last-known locations in memory. Locations are ephemeral
// like presence: a restart clears them and clients re-report on their
// next update.
type Index struct {
	mu        sync.RWMutex
	positions map[uuid.UUID]position

	visibility  VisibilityProvider
	freshness   time.Duration
	maxRadiusKm float64
}

// NewIndex creates a radar index. Entries older than the freshness
// window are treated as offline and excluded from queries; queries
// beyond maxRadiusKm are rejected.
func NewIndex(visibility VisibilityProvider, freshness time.Duration, maxRadiusKm float64) *Index {
	return &Index{
		positions:   make(map[uuid.UUID]position),
		visibility:  visibility,
		freshness:   freshness,
		maxRadiusKm: maxRadiusKm,
	}
}

// Update records a user's location. Updates older than the stored one
// are ignored, so retried or reordered reports cannot move a user
// backwards in time.
func (i *Index) Update(userID uuid.UUID, lat, lng float64, recordedAt time.Time) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if current, ok := i.positions[userID]; ok && !recordedAt.After(current.recordedAt) {
		return false
	}
	i.positions[userID] = position{lat: lat, lng: lng, recordedAt: recordedAt}
	return true
}

// Remove drops a user's location from the index
func (i *Index) Remove(userID uuid.UUID) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.positions, userID)
}

// Neighbor is one radar query result
type Neighbor struct {
	UserID     uuid.UUID `json:"user_id"`
	DistanceKm float64   `json:"distance_km"`
}

// Nearby returns explorable users within radiusKm of the querying
// user's own last-known location, ascending by distance, ties broken by
// user ID for a deterministic order. Users whose last update is older
// than the freshness window are excluded even if their stored location
// is in range.
func (i *Index) Nearby(ctx context.Context, userID uuid.UUID, radiusKm float64, now time.Time) ([]Neighbor, error) {
	if radiusKm > i.maxRadiusKm {
		return nil, ErrRadiusTooLarge
	}

	i.mu.RLock()
	origin, ok := i.positions[userID]
	if !ok {
		i.mu.RUnlock()
		return nil, ErrNoLocation
	}

	type candidate struct {
		userID   uuid.UUID
		distance float64
	}
	var candidates []candidate
	cutoff := now.Add(-i.freshness)
	for id, pos := range i.positions {
		if id == userID || pos.recordedAt.Before(cutoff) {
			continue
		}
		d := geo.DistanceKm(origin.lat, origin.lng, pos.lat, pos.lng)
		if d <= radiusKm {
			candidates = append(candidates, candidate{userID: id, distance: d})
		}
	}
	i.mu.RUnlock()

	neighbors := make([]Neighbor, 0, len(candidates))
	for _, c := range candidates {
		explorable, err := i.visibility.IsExplorable(ctx, c.userID)
		if err != nil {
			return nil, err
		}
		if explorable {
			neighbors = append(neighbors, Neighbor{UserID: c.userID, DistanceKm: c.distance})
		}
	}

	sort.Slice(neighbors, func(a, b int) bool {
		if neighbors[a].DistanceKm != neighbors[b].DistanceKm {
			return neighbors[a].DistanceKm < neighbors[b].DistanceKm
		}
		return neighbors[a].UserID.String() < neighbors[b].UserID.String()
	})

	return neighbors, nil
}
