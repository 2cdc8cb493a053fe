// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and the markdown catalog of known
// problems the CLI can explain to the user, such as a missing build directory.
package issue
