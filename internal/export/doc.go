// Package export writes trajectories, measure series, Wigner surfaces and
// sweep grids to files: PNG, SVG or PDF figures through gonum/plot, and
// JSON documents.
package export
