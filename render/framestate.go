package render

// EndOfFrameListener runs once after the frame it registered in completes.
type EndOfFrameListener interface {
	AllEventsComplete()
}

// FrameState collects end-of-frame callbacks. Registering is non-blocking and
// safe from any goroutine; a listener registered twice in one frame runs once.
type FrameState struct {
	pending PendingSet[EndOfFrameListener]
}

// NewFrameState returns an empty frame state.
func NewFrameState() *FrameState {
	return &FrameState{}
}

// RegisterEndOfFrame arranges for l to run at the end of the current frame.
// A registration made from inside a running callback belongs to the next
// frame.
func (f *FrameState) RegisterEndOfFrame(l EndOfFrameListener) {
	f.pending.Add(l)
}

// Pending returns the number of listeners registered for the current frame.
func (f *FrameState) Pending() int {
	return f.pending.Len()
}

// EndFrame runs the listeners registered for the frame that just completed,
// in registration order, and returns how many ran.
func (f *FrameState) EndFrame() int {
	n := 0
	f.pending.Drain(func(l EndOfFrameListener) {
		l.AllEventsComplete()
		n++
	})
	return n
}
