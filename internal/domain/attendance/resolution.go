package attendance

import "time"

// Transition describes how one persisted punch must change to match a
// resolved day. A dropped punch is deleted; otherwise its direction is
// rewritten from From to To.
type Transition struct {
	Time    time.Time
	From    Direction
	To      Direction
	Dropped bool
}

// Resolution is the normalized pairing of a day's punches.
type Resolution struct {
	Entries     []Punch
	Exits       []Punch
	Changed     bool
	Transitions []Transition
}
