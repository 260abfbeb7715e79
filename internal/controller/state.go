package controller

// State is the station's coarse lifecycle state. It is derived, not
// stored: Controller computes it on demand from the scheduler and mixer
// rather than tracking transitions explicitly, since every input it would
// need (mixer alive, track playing, shutdown requested) is already
// tracked by a sub-component.
type State string

const (
	// StateDegraded means the main mixer failed or died; /stream must be
	// unavailable but /queue and /np still work.
	StateDegraded State = "degraded"
	// StateIdle means the mixer is up but nothing is currently playing.
	StateIdle State = "idle"
	// StatePlaying means a track is currently being scheduled onto the
	// mixer.
	StatePlaying State = "playing"
	// StateStopped is terminal: shutdown has been called.
	StateStopped State = "stopped"
)
