package audiograph

// state identifies one of the possible states engine can be in.
type state int

// states
const (
	idle    state = iota // idle means that engine can be started.
	running              // running means that device renders blocks.
	closed               // closed means that engine is torn down.
)

func (s state) String() string {
	switch s {
	case idle:
		return "idle"
	case running:
		return "running"
	case closed:
		return "closed"
	}
	return "unknown"
}
