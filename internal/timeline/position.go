package timeline

type positionKind int

const (
	// the zero Position appends at the current end
	posAfter positionKind = iota
	posAt
	posLabel
)

// Position places a track start on the timeline.
type Position struct {
	kind    positionKind
	seconds float64
	label   string
}

// At is an absolute start time in seconds.
func At(seconds float64) Position {
	return Position{kind: posAt, seconds: seconds}
}

// After starts seconds past the end of everything added so far. Negative
// values overlap the previous tracks.
func After(seconds float64) Position {
	return Position{kind: posAfter, seconds: seconds}
}

// Label starts at a label added with AddLabel.
func Label(name string) Position {
	return Position{kind: posLabel, label: name}
}

// Offset shifts a position by seconds.
func (p Position) Offset(seconds float64) Position {
	p.seconds += seconds
	return p
}

func (p Position) String() string {
	switch p.kind {
	case posAt:
		return fmtSeconds(p.seconds)
	case posLabel:
		if p.seconds != 0 {
			return p.label + "+" + fmtSeconds(p.seconds)
		}
		return p.label
	}
	return "+=" + fmtSeconds(p.seconds)
}
