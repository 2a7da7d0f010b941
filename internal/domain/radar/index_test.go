package radar

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeVisibility struct {
	hidden map[uuid.UUID]bool
}

func (v *fakeVisibility) IsExplorable(_ context.Context, userID uuid.UUID) (bool, error) {
	return !v.hidden[userID], nil
}

func newTestIndex(freshness time.Duration) (*Index, *fakeVisibility) {
	vis := &fakeVisibility{hidden: make(map[uuid.UUID]bool)}
	return NewIndex(vis, freshness, 50), vis
}

// Coordinates around central Almaty, a few hundred meters to a few km apart.
var (
	originLat = 43.238949
	originLng = 76.889709
)

func TestUpdateIgnoresStaleTimestamp(t *testing.T) {
	idx, _ := newTestIndex(10 * time.Minute)
	userID := uuid.New()
	now := time.Now()

	if !idx.Update(userID, originLat, originLng, now) {
		t.Fatal("first update must apply")
	}
	if idx.Update(userID, 0, 0, now.Add(-time.Minute)) {
		t.Fatal("older update must be ignored")
	}
	if idx.Update(userID, 0, 0, now) {
		t.Fatal("equal timestamp must be ignored")
	}
	if !idx.Update(userID, originLat, originLng, now.Add(time.Second)) {
		t.Fatal("newer update must apply")
	}
}

func TestNearbyOrdersByDistance(t *testing.T) {
	idx, _ := newTestIndex(10 * time.Minute)
	now := time.Now()
	me := uuid.New()
	near := uuid.New()
	far := uuid.New()

	idx.Update(me, originLat, originLng, now)
	idx.Update(near, originLat+0.003, originLng, now) // ~330 m north
	idx.Update(far, originLat+0.02, originLng, now)   // ~2.2 km north

	neighbors, err := idx.Nearby(context.Background(), me, 5, now)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(neighbors) != 2 {
		t.Fatalf("expected 2 neighbors, got %d", len(neighbors))
	}
	if neighbors[0].UserID != near || neighbors[1].UserID != far {
		t.Fatalf("expected ascending distance order, got %+v", neighbors)
	}
	if neighbors[0].DistanceKm >= neighbors[1].DistanceKm {
		t.Fatal("distances not ascending")
	}
}

func TestNearbyExcludesBeyondRadius(t *testing.T) {
	idx, _ := newTestIndex(10 * time.Minute)
	now := time.Now()
	me := uuid.New()
	far := uuid.New()

	idx.Update(me, originLat, originLng, now)
	idx.Update(far, originLat+0.1, originLng, now) // ~11 km north

	neighbors, err := idx.Nearby(context.Background(), me, 5, now)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(neighbors) != 0 {
		t.Fatalf("expected no neighbors within 5 km, got %+v", neighbors)
	}
}

func TestNearbyExcludesStaleLocations(t *testing.T) {
	idx, _ := newTestIndex(10 * time.Minute)
	now := time.Now()
	me := uuid.New()
	stale := uuid.New()

	idx.Update(me, originLat, originLng, now)
	// In range, but last reported before the freshness window.
	idx.Update(stale, originLat+0.003, originLng, now.Add(-11*time.Minute))

	neighbors, err := idx.Nearby(context.Background(), me, 5, now)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(neighbors) != 0 {
		t.Fatalf("expected stale neighbor excluded, got %+v", neighbors)
	}
}

func TestNearbyExcludesVanishedUsers(t *testing.T) {
	idx, vis := newTestIndex(10 * time.Minute)
	now := time.Now()
	me := uuid.New()
	vanished := uuid.New()
	visible := uuid.New()

	idx.Update(me, originLat, originLng, now)
	idx.Update(vanished, originLat+0.002, originLng, now)
	idx.Update(visible, originLat+0.003, originLng, now)
	vis.hidden[vanished] = true

	neighbors, err := idx.Nearby(context.Background(), me, 5, now)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(neighbors) != 1 || neighbors[0].UserID != visible {
		t.Fatalf("expected only the explorable user, got %+v", neighbors)
	}
}

func TestNearbyRequiresOwnLocation(t *testing.T) {
	idx, _ := newTestIndex(10 * time.Minute)

	if _, err := idx.Nearby(context.Background(), uuid.New(), 5, time.Now()); err != ErrNoLocation {
		t.Fatalf("expected ErrNoLocation, got %v", err)
	}
}

func TestNearbyRejectsRadiusAboveMaximum(t *testing.T) {
	idx, _ := newTestIndex(10 * time.Minute)
	me := uuid.New()
	idx.Update(me, originLat, originLng, time.Now())

	if _, err := idx.Nearby(context.Background(), me, 51, time.Now()); err != ErrRadiusTooLarge {
		t.Fatalf("expected ErrRadiusTooLarge, got %v", err)
	}
}

func TestRemoveClearsPosition(t *testing.T) {
	idx, _ := newTestIndex(10 * time.Minute)
	now := time.Now()
	me := uuid.New()
	other := uuid.New()

	idx.Update(me, originLat, originLng, now)
	idx.Update(other, originLat+0.003, originLng, now)

	idx.Remove(other)
	neighbors, err := idx.Nearby(context.Background(), me, 5, now)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(neighbors) != 0 {
		t.Fatalf("expected removed user gone from radar, got %+v", neighbors)
	}

	// Removing the querying user drops their own location too.
	idx.Remove(me)
	if _, err := idx.Nearby(context.Background(), me, 5, now); err != ErrNoLocation {
		t.Fatalf("expected ErrNoLocation after removal, got %v", err)
	}
}

func TestNearbyBreaksDistanceTiesByID(t *testing.T) {
	idx, _ := newTestIndex(10 * time.Minute)
	now := time.Now()
	me := uuid.New()
	x := uuid.New()
	y := uuid.New()

	idx.Update(me, originLat, originLng, now)
	// Identical positions, identical distances.
	idx.Update(x, originLat+0.003, originLng, now)
	idx.Update(y, originLat+0.003, originLng, now)

	neighbors, err := idx.Nearby(context.Background(), me, 5, now)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(neighbors) != 2 {
		t.Fatalf("expected 2 neighbors, got %d", len(neighbors))
	}
	if neighbors[0].UserID.String() > neighbors[1].UserID.String() {
		t.Fatal("expected ties broken by ascending user ID")
	}
}
