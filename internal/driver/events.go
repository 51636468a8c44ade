package driver

// Stage is the step a unit is in.
type Stage uint8

const (
	StageLoad Stage = iota + 1
	StageCache
	StageVerify
)

func (s Stage) String() string {
	switch s {
	case StageLoad:
		return "loading"
	case StageCache:
		return "cache"
	case StageVerify:
		return "verifying"
	default:
		return ""
	}
}

// Status reports where a unit is within its stage.
type Status uint8

const (
	StatusQueued Status = iota + 1
	StatusWorking
	// StatusDone means the unit passed the gate.
	StatusDone
	// StatusBlocked means the unit has errors.
	StatusBlocked
	// StatusError means the unit could not be loaded.
	StatusError
)

// Final reports whether no further events follow for the unit.
func (s Status) Final() bool {
	return s == StatusDone || s == StatusBlocked || s == StatusError
}

// Event describes a progress step of one unit.
type Event struct {
	Unit   string
	Stage  Stage
	Status Status
}

// ProgressFunc receives events from VerifyAll. It is called from worker
// goroutines and must be safe for concurrent use.
type ProgressFunc func(Event)

func (f ProgressFunc) emit(ev Event) {
	if f != nil {
		f(ev)
	}
}

// ChannelProgress forwards events to ch. The caller closes ch after VerifyAll returns.
func ChannelProgress(ch chan<- Event) ProgressFunc {
	return func(ev Event) { ch <- ev }
}
