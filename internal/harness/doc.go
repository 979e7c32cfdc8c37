// Package harness runs film club scenarios against a real store.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: film_night
//	description: "One nominate, vote, watch and attendance cycle"
//	guild: guild-1
//	start: 2024-03-01T19:00:00Z
//	steps:
//	  - op: nominate
//	    user: abc
//	    film: My Film Name
//	  - op: nominate
//	    user: def
//	    film: My Other Film
//	    imdb: "012345"
//	  - op: vote
//	    user: def
//	    film_id: film-1
//	    expect: { status: UNCOMPLETE }
//	  - op: advance
//	    after: 1h
//	  - op: watch
//	    film_id: film-1
//	    present: [abc, def]
//	expect_nominations: [film-2]
//
// Ops are nominate, vote, watch, here and advance. Nominations take IDs
// film-1, film-2, ... in order unless the step sets film_id. Every step
// expects success unless its expect clause names an error code.
//
// Files are decoded strictly (unknown fields are errors) and checked against
// the CUE schema in schema.cue before they run.
//
// # Deterministic Testing
//
// Each run uses a fresh in-memory SQLite database, a testutil.ManualClock
// starting at start, and a testutil.SequenceGenerator for film IDs, so traces
// are identical across runs and suitable for golden comparison.
package harness
