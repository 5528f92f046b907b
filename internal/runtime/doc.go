// Package runtime interprets a validated story graph.
//
// Step is the pure core: given a story, a node id and raw input it returns the
// next StepResult. Engine wraps Step with session bookkeeping, structured logging
// and lifecycle hooks. Replay re-executes a recorded input sequence.
package runtime
