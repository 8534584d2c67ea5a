// Sensor stations turning periodic readings into avisos when a value moves past its edge
package peripherique

// Remembers the last reported value of one measurement and its observed range
type EdgeTracker struct {
	Edge    float64
	current float64 // last reported value, starts at 0
	lowest  float64
	highest float64
	seen    bool
}

func NewEdgeTracker(edge float64) (tracker EdgeTracker) {
	tracker = EdgeTracker{Edge: edge}
	return
}

// Records a reading. A value at least Edge away from the last reported one becomes reported.
func (tracker *EdgeTracker) Observe(value float64) (changed bool) {
	if !tracker.seen || value < tracker.lowest {
		tracker.lowest = value
	}
	if !tracker.seen || value > tracker.highest {
		tracker.highest = value
	}
	tracker.seen = true

	if value == tracker.current {
		return
	}
	delta := value - tracker.current
	if delta >= tracker.Edge || delta <= -tracker.Edge {
		tracker.current = value
		changed = true
	}
	return
}

func (tracker *EdgeTracker) Current() (value float64) {
	value = tracker.current
	return
}

func (tracker *EdgeTracker) Lowest() (value float64) {
	value = tracker.lowest
	return
}

func (tracker *EdgeTracker) Highest() (value float64) {
	value = tracker.highest
	return
}
