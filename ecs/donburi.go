package ecs

import (
	"sync"

	"github.com/phanxgames/willow3d"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// ReportEventType is the Donburi event type for willow3d node reports.
var ReportEventType = events.NewEventType[willow3d.Report]()

// DonburiReporter is a willow3d.ErrorReporter that publishes reports into a
// Donburi world. Reports can arrive from any goroutine, such as a texture
// loader's, so they are queued and only published by Flush.
type DonburiReporter struct {
	world donburi.World
	next  willow3d.ErrorReporter

	mu    sync.Mutex
	queue []willow3d.Report
}

// NewDonburiReporter creates a reporter publishing to world. If next is not
// nil every report is also passed on to it.
func NewDonburiReporter(world donburi.World, next willow3d.ErrorReporter) *DonburiReporter {
	return &DonburiReporter{world: world, next: next}
}

// Report queues r for the next Flush.
func (r *DonburiReporter) Report(rep willow3d.Report) {
	r.mu.Lock()
	r.queue = append(r.queue, rep)
	r.mu.Unlock()
	if r.next != nil {
		r.next.Report(rep)
	}
}

// Pending returns the number of queued reports.
func (r *DonburiReporter) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// Flush publishes the queued reports in arrival order and returns how many
// were published. It must run on the goroutine that processes the world's
// events.
func (r *DonburiReporter) Flush() int {
	r.mu.Lock()
	q := r.queue
	r.queue = nil
	r.mu.Unlock()
	for _, rep := range q {
		ReportEventType.Publish(r.world, rep)
	}
	return len(q)
}
