package relationship

import (
	"testing"

	"github.com/google/uuid"
)

func testPair(t *testing.T) (uuid.UUID, uuid.UUID, *Relationship) {
	t.Helper()
	a := uuid.New()
	b := uuid.New()
	userA, userB, err := Pair(a, b)
	if err != nil {
		t.Fatalf("pair: %v", err)
	}
	return userA, userB, New(userA, userB)
}

func mustTransition(t *testing.T, rel *Relationship, actor uuid.UUID, action Action) []Event {
	t.Helper()
	events, _, err := Transition(rel, actor, action)
	if err != nil {
		t.Fatalf("transition %s by %s in state %s: %v", action, actor, rel.Status, err)
	}
	return events
}

func TestPairCanonicalOrdering(t *testing.T) {
	x := uuid.New()
	y := uuid.New()

	a1, b1, err := Pair(x, y)
	if err != nil {
		t.Fatalf("pair: %v", err)
	}
	a2, b2, err := Pair(y, x)
	if err != nil {
		t.Fatalf("pair reversed: %v", err)
	}
	if a1 != a2 || b1 != b2 {
		t.Fatal("pair ordering is not canonical")
	}
	if a1.String() >= b1.String() {
		t.Fatal("expected user_a < user_b")
	}
}

func TestPairRejectsSelf(t *testing.T) {
	id := uuid.New()
	if _, _, err := Pair(id, id); err != ErrSelfRelationship {
		t.Fatalf("expected ErrSelfRelationship, got %v", err)
	}
}

func TestLikeThenLikeBackProducesMatch(t *testing.T) {
	userA, userB, rel := testPair(t)

	events := mustTransition(t, rel, userA, ActionLike)
	if rel.Status != StatusALiked {
		t.Fatalf("expected a_liked, got %s", rel.Status)
	}
	if len(events) != 1 || events[0].Type != EventLikeSent || events[0].Recipient != userB {
		t.Fatalf("expected like_sent to counterpart, got %+v", events)
	}

	events = mustTransition(t, rel, userB, ActionLike)
	if rel.Status != StatusMatched {
		t.Fatalf("expected matched, got %s", rel.Status)
	}
	if len(events) != 2 {
		t.Fatalf("expected match_created to both, got %d events", len(events))
	}
	recipients := map[uuid.UUID]bool{}
	for _, e := range events {
		if e.Type != EventMatchCreated {
			t.Fatalf("expected match_created, got %s", e.Type)
		}
		recipients[e.Recipient] = true
	}
	if !recipients[userA] || !recipients[userB] {
		t.Fatalf("expected both parties notified, got %v", recipients)
	}
}

func TestLikeOrderIsCommutative(t *testing.T) {
	userA, userB, relForward := testPair(t)
	relReverse := New(userA, userB)

	mustTransition(t, relForward, userA, ActionLike)
	mustTransition(t, relForward, userB, ActionLike)

	mustTransition(t, relReverse, userB, ActionLike)
	mustTransition(t, relReverse, userA, ActionLike)

	if relForward.Status != StatusMatched || relReverse.Status != StatusMatched {
		t.Fatalf("expected matched both ways, got %s and %s", relForward.Status, relReverse.Status)
	}
}

func TestRepeatedLikeIsIdempotent(t *testing.T) {
	userA, _, rel := testPair(t)

	mustTransition(t, rel, userA, ActionLike)
	before := rel.Status

	events, changed, err := Transition(rel, userA, ActionLike)
	if err != nil {
		t.Fatalf("repeat like: %v", err)
	}
	if changed {
		t.Fatal("repeat like must not mutate state")
	}
	if len(events) != 0 {
		t.Fatalf("repeat like must emit no events, got %d", len(events))
	}
	if rel.Status != before {
		t.Fatalf("state changed from %s to %s", before, rel.Status)
	}
}

func TestBreakFromMatchedStartsFreshCycle(t *testing.T) {
	userA, userB, rel := testPair(t)
	mustTransition(t, rel, userA, ActionLike)
	mustTransition(t, rel, userB, ActionLike)

	events := mustTransition(t, rel, userA, ActionUnlikeOrBreak)
	if rel.Status != StatusBroken {
		t.Fatalf("expected broken, got %s", rel.Status)
	}
	if !rel.BrokenBy.Valid || rel.BrokenBy.UUID != userA {
		t.Fatal("expected broken_by to record the actor")
	}
	if len(events) != 1 || events[0].Type != EventConnectionBroken || events[0].Recipient != userB {
		t.Fatalf("expected connection_broken to counterpart, got %+v", events)
	}

	// A like from either side begins a fresh cycle, not a match.
	mustTransition(t, rel, userB, ActionLike)
	if rel.Status != StatusBLiked {
		t.Fatalf("expected b_liked after re-initiation, got %s", rel.Status)
	}
	if rel.BrokenBy.Valid {
		t.Fatal("expected broken_by cleared on re-initiation")
	}

	mustTransition(t, rel, userA, ActionLike)
	if rel.Status != StatusMatched {
		t.Fatalf("expected matched after both re-like, got %s", rel.Status)
	}
}

func TestUnlikeBeforeMatchResetsSilently(t *testing.T) {
	userA, _, rel := testPair(t)
	mustTransition(t, rel, userA, ActionLike)

	events := mustTransition(t, rel, userA, ActionUnlikeOrBreak)
	if rel.Status != StatusNone {
		t.Fatalf("expected none, got %s", rel.Status)
	}
	if len(events) != 0 {
		t.Fatalf("unlike before match must emit no events, got %d", len(events))
	}
}

func TestUnlikeWithoutInterestIsInvalid(t *testing.T) {
	userA, userB, rel := testPair(t)
	mustTransition(t, rel, userA, ActionLike)

	// userB never liked; withdrawing is not defined for them.
	if _, _, err := Transition(rel, userB, ActionUnlikeOrBreak); err != ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestBlockedIsAbsorbing(t *testing.T) {
	userA, userB, rel := testPair(t)
	mustTransition(t, rel, userA, ActionLike)

	events := mustTransition(t, rel, userB, ActionBlock)
	if rel.Status != StatusBlocked {
		t.Fatalf("expected blocked, got %s", rel.Status)
	}
	if len(events) != 1 || events[0].Type != EventBlocked || events[0].Recipient != userA {
		t.Fatalf("expected blocked event to counterpart, got %+v", events)
	}
	if len(events[0].Payload) != 0 {
		t.Fatalf("blocked event must carry minimal info, got %v", events[0].Payload)
	}

	for _, actor := range []uuid.UUID{userA, userB} {
		for _, action := range []Action{ActionLike, ActionUnlikeOrBreak, ActionBlock} {
			if _, _, err := Transition(rel, actor, action); err != ErrInvalidTransition {
				t.Fatalf("expected blocked to absorb %s by %s, got %v", action, actor, err)
			}
		}
	}
	if rel.Status != StatusBlocked {
		t.Fatalf("blocked state mutated to %s", rel.Status)
	}
}

func TestBlockReachableFromAnyState(t *testing.T) {
	userA, userB, _ := testPair(t)

	setups := map[string]func(rel *Relationship){
		"none":    func(rel *Relationship) {},
		"a_liked": func(rel *Relationship) { mustTransition(t, rel, userA, ActionLike) },
		"matched": func(rel *Relationship) {
			mustTransition(t, rel, userA, ActionLike)
			mustTransition(t, rel, userB, ActionLike)
		},
		"broken": func(rel *Relationship) {
			mustTransition(t, rel, userA, ActionLike)
			mustTransition(t, rel, userB, ActionLike)
			mustTransition(t, rel, userA, ActionUnlikeOrBreak)
		},
	}

	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			rel := New(userA, userB)
			setup(rel)
			mustTransition(t, rel, userA, ActionBlock)
			if rel.Status != StatusBlocked {
				t.Fatalf("expected blocked from %s, got %s", name, rel.Status)
			}
		})
	}
}

func TestTransitionRejectsNonParticipant(t *testing.T) {
	_, _, rel := testPair(t)
	if _, _, err := Transition(rel, uuid.New(), ActionLike); err != ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition for outsider, got %v", err)
	}
}
