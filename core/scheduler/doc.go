// Package scheduler drives the monitoring loop. Each cycle resets engineer
// workloads, scans the population for faults, optionally asks the advisor
// for a plan, assigns engineers and records the snapshot. Cycles never
// overlap and a failing cycle never stops the loop.
package scheduler
