package router

// PendingState is a state of the ARP pending-request state machine
// described by the component design: a request starts Pending, and
// leaves that state exactly once, either because the target resolved
// or because the sweeper gave up on it.
type PendingState int

const (
	// PendingStateActive means the request is still waiting on an ARP
	// reply; attempts counts how many requests have been sent so far.
	PendingStateActive PendingState = iota
	// PendingStateResolved means a matching ARP reply arrived.
	PendingStateResolved
	// PendingStateExpired means attempts exceeded the ARP table's
	// maximum attempts with no reply.
	PendingStateExpired
)

func (s PendingState) String() string {
	switch s {
	case PendingStateActive:
		return "Active"
	case PendingStateResolved:
		return "Resolved"
	case PendingStateExpired:
		return "Expired"
	default:
		return "Unknown"
	}
}

// PendingEvent is an input to the pending-request state machine.
type PendingEvent int

const (
	// EventCacheInsert fires when cache.insert locates a pending request
	// for the IP being inserted (an ARP reply resolved it).
	EventCacheInsert PendingEvent = iota
	// EventSweepRetransmit fires when the sweeper visits a request whose
	// retransmit interval has elapsed and attempts <= the maximum attempts.
	EventSweepRetransmit
	// EventSweepExpire fires when the sweeper visits a request whose
	// attempts has exceeded the maximum attempts.
	EventSweepExpire
)

// PendingAction is an output of the pending-request state machine,
// describing a side effect the caller must perform. Actions are never
// performed by the state machine itself — ApplyPendingEvent is pure.
type PendingAction int

const (
	// ActionDispatchBuffered means every buffered frame should be
	// rewritten with the resolved MAC and transmitted, FIFO.
	ActionDispatchBuffered PendingAction = iota
	// ActionEmitHostUnreachable means every buffered frame should
	// produce an ICMP type-3/code-1 addressed to its original source.
	ActionEmitHostUnreachable
	// ActionRetransmitARP means a fresh broadcast ARP request should be
	// sent for the pending target.
	ActionRetransmitARP
	// ActionDestroy means the pending request record itself should be
	// removed from the queue; it is always the terminal action in a
	// transition away from PendingStateActive.
	ActionDestroy
)

type pendingStateEvent struct {
	state PendingState
	event PendingEvent
}

type pendingTransition struct {
	newState PendingState
	actions  []PendingAction
}

// pendingFSMTable enumerates every (state, event) pair this router's
// pending-request lifecycle can encounter. There is deliberately no
// entry for events delivered to a state that has already left
// PendingStateActive: by the time ApplyPendingEvent would be called
// again, the record has already been removed from the queue (see
// ActionDestroy), so those combinations cannot occur in practice.
var pendingFSMTable = map[pendingStateEvent]pendingTransition{
	{PendingStateActive, EventCacheInsert}: {
		newState: PendingStateResolved,
		actions:  []PendingAction{ActionDispatchBuffered, ActionDestroy},
	},
	{PendingStateActive, EventSweepRetransmit}: {
		newState: PendingStateActive,
		actions:  []PendingAction{ActionRetransmitARP},
	},
	{PendingStateActive, EventSweepExpire}: {
		newState: PendingStateExpired,
		actions:  []PendingAction{ActionEmitHostUnreachable, ActionDestroy},
	},
}

// PendingFSMResult is the outcome of applying an event to a state.
type PendingFSMResult struct {
	OldState PendingState
	NewState PendingState
	Actions  []PendingAction
	Changed  bool
}

// ApplyPendingEvent is the pure entry point to the pending-request
// state machine: given the current state and an event, it returns the
// new state and the actions the caller must perform. It never mutates
// shared state and never performs I/O.
func ApplyPendingEvent(state PendingState, event PendingEvent) PendingFSMResult {
	t, ok := pendingFSMTable[pendingStateEvent{state, event}]
	if !ok {
		return PendingFSMResult{OldState: state, NewState: state, Changed: false}
	}

	return PendingFSMResult{
		OldState: state,
		NewState: t.newState,
		Actions:  t.actions,
		Changed:  true,
	}
}
