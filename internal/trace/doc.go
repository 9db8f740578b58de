// Package trace records what the expander is doing: run and unit
// boundaries, stage and pass timings, and one point event per generated
// wrapper.
//
// Enable tracing via command-line flags:
//
//	drai-expand --trace=- --trace-level=detail -B kernels.o main.cu
//
// Tracers are propagated through the pipeline via context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopeStage, "expand-macro")
//	defer span.End("")
//
// StreamTracer writes every event as it happens; RingTracer keeps the last
// events in memory and is dumped when a run fails.
package trace
