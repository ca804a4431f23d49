package state

// WorkerState is a phase of the worker loop lifecycle.
type WorkerState string

const (
	StateConnecting WorkerState = "connecting"
	StateConnected  WorkerState = "connected"
	StateIdle       WorkerState = "idle"
	StateProcessing WorkerState = "processing"
	StateDraining   WorkerState = "draining"
	StateStopped    WorkerState = "stopped"
)

func (s WorkerState) String() string {
	return string(s)
}

var AllStates = []WorkerState{
	StateConnecting,
	StateConnected,
	StateIdle,
	StateProcessing,
	StateDraining,
	StateStopped,
}

type Transition struct {
	From WorkerState
	To   WorkerState
}

var ValidTransitions = []Transition{
	{From: StateConnecting, To: StateConnected},
	{From: StateConnecting, To: StateConnecting},
	{From: StateConnecting, To: StateDraining},

	{From: StateConnected, To: StateIdle},
	{From: StateConnected, To: StateProcessing},
	{From: StateConnected, To: StateConnecting},
	{From: StateConnected, To: StateDraining},

	{From: StateIdle, To: StateProcessing},
	{From: StateIdle, To: StateIdle},
	{From: StateIdle, To: StateConnecting},
	{From: StateIdle, To: StateDraining},

	{From: StateProcessing, To: StateIdle},
	{From: StateProcessing, To: StateProcessing},
	{From: StateProcessing, To: StateConnecting},
	{From: StateProcessing, To: StateDraining},

	{From: StateDraining, To: StateStopped},
}

func IsValidTransition(from, to WorkerState) bool {
	for _, t := range ValidTransitions {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}
