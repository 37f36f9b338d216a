// Package harness runs wallet transfer scenarios as executable contract tests.
//
// A scenario seeds a fresh store, runs a flow of imports and exports through
// the background task worker, and checks the recorded trace and the final
// store contents.
//
// # Scenario Format
//
//	name: merge_updates_existing
//	description: "Importing a known card id overwrites it"
//	setup:
//	  groups: [food]
//	  cards:
//	    - {id: 1, store: Corner Shop, cardId: "111", groups: [food]}
//	flow:
//	  - import:
//	      format: csv
//	      input: |
//	        id,store,cardId
//	        1,Renamed,111
//	    expect:
//	      outcome: ok
//	      summary: {updated: 1}
//	  - export: {format: json}
//	assertions:
//	  - type: final_card
//	    card: 1
//	    expect: {store: Renamed, groups: [food]}
//	  - type: card_count
//	    count: 1
//
// An import step can set from_last_export to feed the output of the most
// recent export back in.
//
// # Assertion Types
//
//   - trace_count: number of steps of a kind with an outcome
//   - final_card: subset match on one card and its groups
//   - card_absent: no card with the id exists
//   - card_count, group_count: row counts
//   - export_contains: the last export output contains every listed string
//   - unchanged: the store equals its state right after setup
//
// # Deterministic Testing
//
// Task ids come from a fixed sequence ("step-1", "step-2", ...) and each
// scenario uses its own in-memory database, so traces are stable for golden
// file comparison.
package harness
