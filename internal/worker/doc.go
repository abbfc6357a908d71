// Package worker runs the per-file pipeline on a fixed-size pool. Each
// worker takes one file at a time and runs it start to finish; one file's
// failure is logged and never stops the pool.
package worker
