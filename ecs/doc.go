// Package ecs provides ECS adapters for willow3d's node reports.
//
// The primary adapter is [NewDonburiReporter], which bridges the warnings and
// errors raised while realizing nodes into a [Donburi] world as typed events.
// Subscribe to [ReportEventType] in your ECS systems to receive them.
//
// Usage:
//
//	reporter := ecs.NewDonburiReporter(world, nil)
//	scene.Env().Reporter = reporter
//
//	// once per frame, on the game loop
//	reporter.Flush()
//	ecs.ReportEventType.ProcessEvents(world)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
