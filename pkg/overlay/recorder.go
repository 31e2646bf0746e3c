package overlay

// Segment is the incremental piece of a live stroke, from the previous
// point to the newly appended one.
type Segment struct {
	From Point `json:"from"`
	To   Point `json:"to"`
}

// StrokeRecorder captures one pointer drag at a time as an ordered list of
// points. The zero value is ready to use.
type StrokeRecorder struct {
	points []Point
	active bool
}

// Begin starts a new stroke. A stroke that is still in progress is dropped.
func (r *StrokeRecorder) Begin(p Point) {
	r.points = []Point{p}
	r.active = true
}

// Extend appends p and returns the segment to draw as live feedback.
// It reports false when no stroke is active.
func (r *StrokeRecorder) Extend(p Point) (Segment, bool) {
	if !r.active {
		return Segment{}, false
	}
	last := r.points[len(r.points)-1]
	r.points = append(r.points, p)
	return Segment{From: last, To: p}, true
}

// Finish returns the complete stroke and clears the in-progress state.
func (r *StrokeRecorder) Finish() []Point {
	points := r.points
	r.points = nil
	r.active = false
	return points
}

func (r *StrokeRecorder) Active() bool {
	return r.active
}

// Points returns a copy of the in-progress stroke.
func (r *StrokeRecorder) Points() []Point {
	return clonePoints(r.points)
}
