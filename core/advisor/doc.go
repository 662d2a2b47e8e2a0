// Package advisor defines the optional external recommendation source used
// by the assignment engine. Recommendations are advisory and untrusted: the
// engine validates every entry and falls back to its own heuristic whenever
// no usable recommendation is available.
package advisor
