package download

type State int

const (
	AwaitingLink State = iota
	AwaitingSelection
	Fetching
	PostProcessing
	Delivering
	Done
	Errored
)

var stateNames = [...]string{
	AwaitingLink:      "awaiting_link",
	AwaitingSelection: "awaiting_selection",
	Fetching:          "fetching",
	PostProcessing:    "post_processing",
	Delivering:        "delivering",
	Done:              "done",
	Errored:           "errored",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

func (s State) Terminal() bool {
	return s == Done || s == Errored
}

// next lists the legal forward moves. Errored is reachable only from the
// three working states and from AwaitingSelection when nothing is pending.
var next = map[State][]State{
	AwaitingLink:      {AwaitingSelection},
	AwaitingSelection: {Fetching, Errored},
	Fetching:          {PostProcessing, Errored},
	PostProcessing:    {Delivering, Errored},
	Delivering:        {Done, Errored},
}

func canMove(from, to State) bool {
	for _, s := range next[from] {
		if s == to {
			return true
		}
	}
	return false
}
