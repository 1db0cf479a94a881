// Package trace records structured events for flowscope runs.
//
// Events describe the driver command, each analysis pass and each analyzed
// file. They are written immediately (StreamTracer), kept in memory for a
// post-mortem dump (RingTracer), or both (MultiTracer).
//
// Enable tracing from the command line:
//
//	flowscope analyze --trace=- --trace-level=detail src/
//
// Levels map to scopes:
//
//   - LevelPhase: driver and pass spans
//   - LevelDetail: adds per-file spans
//   - LevelDebug: adds per-scope spans inside passes
//
// Tracers travel through context.Context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "resolve", 0)
//	defer span.End("")
package trace
