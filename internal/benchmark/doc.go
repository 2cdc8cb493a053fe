// SPDX-License-Identifier: MPL-2.0

// Package benchmark provides benchmarks over the nextmap hot paths for PGO
// profile generation:
//   - CUE configuration loading and schema validation
//   - Page discovery over large build trees
//   - Manifest rendering
//   - End-to-end packaging (copy, discover, render)
//
// To generate a profile, run:
//
//	go test -run=^$ -bench=. -cpuprofile=default.pgo ./internal/benchmark
package benchmark
