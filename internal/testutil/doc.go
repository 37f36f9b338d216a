// Package testutil provides shared fixtures for wallet tests: temporary
// stores, seeded cards and groups, deterministic task IDs and clocks.
package testutil
