// Package parallel runs work off the frame goroutine.
//
// Pool is a fixed set of worker goroutines with per-worker queues and work
// stealing. The canvas scheduler submits task runs to it, and the default
// atlas fans out text and image rasterization with Pool.ExecuteAll.
package parallel
