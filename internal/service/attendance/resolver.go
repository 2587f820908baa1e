package attendance

import (
	"slices"
	"time"

	"github.com/cmlabs-hris/attendance-control/internal/domain/attendance"
)

// Resolver normalizes a day's punches into a canonical entry/exit pairing.
// It never touches the store; callers persist the returned transitions.
type Resolver struct {
	tolerance time.Duration
}

func NewResolver(rules Rules) *Resolver {
	return &Resolver{tolerance: rules.Tolerance}
}

// Resolve runs the normalization steps in order:
//
//  1. a punch recorded as both entry and exit keeps only its entry copy
//  2. near-duplicates collapse per direction (entries anchored on the
//     earliest, exits on the latest)
//  3. exactly two punches of one direction and none of the other become one
//     entry and one exit
//  4. exactly four punches are re-tagged entry, exit, entry, exit in time
//     order
//
// Other shapes are returned as they are and left for the operator. Changed
// reports only actual flips, so four punches that already alternate yield
// Changed == false.
func (r *Resolver) Resolve(entries, exits []attendance.Punch) attendance.Resolution {
	var res tracker

	entries = sortedCopy(entries)
	exits = sortedCopy(exits)

	entryAt := make(map[time.Time]bool, len(entries))
	for _, p := range entries {
		entryAt[p.Time] = true
	}
	exits = slices.DeleteFunc(exits, func(p attendance.Punch) bool {
		if entryAt[p.Time] {
			res.drop(p)
			return true
		}
		return false
	})

	entries = r.collapseForward(entries, &res)
	exits = r.collapseBackward(exits, &res)

	switch {
	case len(entries) == 2 && len(exits) == 0:
		moved := entries[1]
		res.reassign(&moved, attendance.DirectionExit)
		entries, exits = entries[:1], []attendance.Punch{moved}
	case len(exits) == 2 && len(entries) == 0:
		moved := exits[0]
		res.reassign(&moved, attendance.DirectionEntry)
		entries, exits = []attendance.Punch{moved}, exits[1:]
	}

	if len(entries)+len(exits) == 4 {
		merged := append(slices.Clone(entries), exits...)
		attendance.SortPunches(merged)

		entries, exits = entries[:0:0], exits[:0:0]
		for i := range merged {
			p := merged[i]
			if i%2 == 0 {
				res.reassign(&p, attendance.DirectionEntry)
				entries = append(entries, p)
			} else {
				res.reassign(&p, attendance.DirectionExit)
				exits = append(exits, p)
			}
		}
	}

	return attendance.Resolution{
		Entries:     entries,
		Exits:       exits,
		Changed:     res.changed,
		Transitions: res.transitions,
	}
}

// collapseForward keeps the earliest entry and every later one that lies at
// least one tolerance after the last kept entry.
func (r *Resolver) collapseForward(punches []attendance.Punch, res *tracker) []attendance.Punch {
	if len(punches) < 2 {
		return punches
	}
	kept := []attendance.Punch{punches[0]}
	for _, p := range punches[1:] {
		if p.Time.Sub(kept[len(kept)-1].Time) >= r.tolerance {
			kept = append(kept, p)
			continue
		}
		res.drop(p)
	}
	return kept
}

// collapseBackward mirrors collapseForward from the latest exit.
func (r *Resolver) collapseBackward(punches []attendance.Punch, res *tracker) []attendance.Punch {
	if len(punches) < 2 {
		return punches
	}
	last := len(punches) - 1
	kept := []attendance.Punch{punches[last]}
	for i := last - 1; i >= 0; i-- {
		p := punches[i]
		if kept[len(kept)-1].Time.Sub(p.Time) >= r.tolerance {
			kept = append(kept, p)
			continue
		}
		res.drop(p)
	}
	slices.Reverse(kept)
	return kept
}

func sortedCopy(punches []attendance.Punch) []attendance.Punch {
	out := slices.Clone(punches)
	attendance.SortPunches(out)
	return out
}

// tracker records the persisted-state changes of one Resolve call.
type tracker struct {
	changed     bool
	transitions []attendance.Transition
}

func (t *tracker) drop(p attendance.Punch) {
	t.changed = true
	t.transitions = append(t.transitions, attendance.Transition{
		Time:    p.Time,
		From:    p.Direction,
		Dropped: true,
	})
}

// reassign sets the direction of p, recording a transition only when it
// differs.
func (t *tracker) reassign(p *attendance.Punch, to attendance.Direction) {
	if p.Direction == to {
		return
	}
	t.changed = true
	t.transitions = append(t.transitions, attendance.Transition{
		Time: p.Time,
		From: p.Direction,
		To:   to,
	})
	p.Direction = to
}
