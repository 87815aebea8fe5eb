package router

import (
	"reflect"
	"testing"
)

func TestApplyPendingEventResolve(t *testing.T) {
	result := ApplyPendingEvent(PendingStateActive, EventCacheInsert)
	if !result.Changed {
		t.Fatal("Changed = false, want true")
	}
	if result.NewState != PendingStateResolved {
		t.Fatalf("NewState = %v, want %v", result.NewState, PendingStateResolved)
	}
	want := []PendingAction{ActionDispatchBuffered, ActionDestroy}
	if !reflect.DeepEqual(result.Actions, want) {
		t.Fatalf("Actions = %v, want %v", result.Actions, want)
	}
}

func TestApplyPendingEventRetransmitStaysActive(t *testing.T) {
	result := ApplyPendingEvent(PendingStateActive, EventSweepRetransmit)
	if result.NewState != PendingStateActive {
		t.Fatalf("NewState = %v, want %v", result.NewState, PendingStateActive)
	}
	if len(result.Actions) != 1 || result.Actions[0] != ActionRetransmitARP {
		t.Fatalf("Actions = %v, want [ActionRetransmitARP]", result.Actions)
	}
}

func TestApplyPendingEventExpire(t *testing.T) {
	result := ApplyPendingEvent(PendingStateActive, EventSweepExpire)
	if result.NewState != PendingStateExpired {
		t.Fatalf("NewState = %v, want %v", result.NewState, PendingStateExpired)
	}
	want := []PendingAction{ActionEmitHostUnreachable, ActionDestroy}
	if !reflect.DeepEqual(result.Actions, want) {
		t.Fatalf("Actions = %v, want %v", result.Actions, want)
	}
}

func TestApplyPendingEventUnknownTransitionIsNoOp(t *testing.T) {
	result := ApplyPendingEvent(PendingStateResolved, EventSweepRetransmit)
	if result.Changed {
		t.Fatal("Changed = true for an event with no table entry, want false")
	}
	if result.NewState != PendingStateResolved {
		t.Fatalf("NewState = %v, want unchanged %v", result.NewState, PendingStateResolved)
	}
}
