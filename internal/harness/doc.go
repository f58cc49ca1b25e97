// Package harness runs keying scenarios against real scenes.
//
// A scenario loads a scene file, runs a list of steps through a keying
// dispatcher and then checks assertions on the resulting curves. Every
// batch is also written to an in-memory store, so scenarios exercise the
// keying log as well.
//
// # Scenario Format
//
//	name: needed_policy
//	description: "Needed skips keys that would not change the curve"
//	scene: ../scenes/cube.yaml
//	steps:
//	  - insert:
//	      object: Cube
//	      targets: [location]
//	      time: 10
//	      flags: [NEEDED]
//	    expect:
//	      success: 3
//	  - set:
//	      object: Cube
//	      path: location
//	      values: [1, 2, 3]
//	  - create_curve:
//	      object: Cube
//	      path: scale
//	      index: 0
//	assertions:
//	  - type: curve_points
//	    object: Cube
//	    path: location
//	    index: 0
//	    times: [10]
//	    values: [0]
//
// Expected counts are keyed by outcome name. Numbers may be written as
// strings; they are coerced with spf13/cast.
//
// # Assertion Types
//
//   - curve_points: the curve has exactly the given key times and values
//   - curve_absent: no curve exists for the channel
//   - curve_count: the object has exactly count curves
//   - value_at: the curve evaluates to value at time
//
// # Determinism
//
// Batch IDs come from testutil.SequenceGenerator and seq from a fresh
// clock, so the same scenario always produces the same trace and can be
// compared against a golden file.
package harness
