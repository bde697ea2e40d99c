package ecs

import (
	"errors"
	"sync"
	"testing"

	"github.com/phanxgames/willow3d"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

func TestNewDonburiReporter(t *testing.T) {
	world := donburi.NewWorld()
	r := NewDonburiReporter(world, nil)
	if r == nil {
		t.Fatal("NewDonburiReporter returned nil")
	}
}

func TestDonburiReporter_Flush(t *testing.T) {
	world := donburi.NewWorld()
	r := NewDonburiReporter(world, nil)

	var received []willow3d.Report
	ReportEventType.Subscribe(world, func(w donburi.World, e willow3d.Report) {
		received = append(received, e)
	})

	errBoom := errors.New("boom")
	r.Report(willow3d.Report{Severity: willow3d.SeverityWarning, Node: "ImageTexture", Err: errBoom})
	r.Report(willow3d.Report{Severity: willow3d.SeverityError, Node: "Appearance"})

	if r.Pending() != 2 {
		t.Fatalf("Pending = %d, want 2", r.Pending())
	}
	ReportEventType.ProcessEvents(world)
	if len(received) != 0 {
		t.Fatal("reports published before Flush")
	}

	if n := r.Flush(); n != 2 {
		t.Errorf("Flush = %d, want 2", n)
	}
	// Events are queued, so process them.
	ReportEventType.ProcessEvents(world)

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	if received[0].Node != "ImageTexture" || !errors.Is(received[0].Err, errBoom) {
		t.Errorf("event 0: %+v", received[0])
	}
	if received[1].Severity != willow3d.SeverityError {
		t.Errorf("event 1: %+v", received[1])
	}
	if r.Pending() != 0 {
		t.Errorf("Pending = %d after Flush", r.Pending())
	}
}

func TestDonburiReporter_ImplementsErrorReporter(t *testing.T) {
	world := donburi.NewWorld()
	var r willow3d.ErrorReporter = NewDonburiReporter(world, nil)
	_ = r // compile-time interface check
}

type countReporter struct{ n int }

func (c *countReporter) Report(willow3d.Report) { c.n++ }

func TestDonburiReporter_ForwardsToNext(t *testing.T) {
	next := &countReporter{}
	r := NewDonburiReporter(donburi.NewWorld(), next)
	r.Report(willow3d.Report{Node: "Material"})
	if next.n != 1 {
		t.Errorf("next reporter called %d times, want 1", next.n)
	}
}

func TestDonburiReporter_ConcurrentReports(t *testing.T) {
	world := donburi.NewWorld()
	r := NewDonburiReporter(world, nil)

	var count int
	ReportEventType.Subscribe(world, func(w donburi.World, e willow3d.Report) {
		count++
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Report(willow3d.Report{Node: "ImageTexture"})
		}()
	}
	wg.Wait()
	r.Flush()
	events.ProcessAllEvents(world)

	if count != 8 {
		t.Errorf("expected 8 events, got %d", count)
	}
}

func TestDonburiReporter_FromAppearance(t *testing.T) {
	world := donburi.NewWorld()
	r := NewDonburiReporter(world, nil)
	env := &willow3d.Env{Reporter: r, Caps: willow3d.Capabilities{PointSprites: true}}

	var got []willow3d.Report
	ReportEventType.Subscribe(world, func(w donburi.World, e willow3d.Report) {
		got = append(got, e)
	})

	a := willow3d.NewAppearance(env)
	a.SetTexture(willow3d.NewComposedCubeMapTexture())
	a.SetupFinished()
	r.Flush()
	events.ProcessAllEvents(world)

	if len(got) == 0 {
		t.Fatal("cube map warning not published")
	}
	if got[0].Severity != willow3d.SeverityWarning {
		t.Errorf("Severity = %v, want warning", got[0].Severity)
	}
}
