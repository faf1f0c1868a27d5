// Package trace records what the dispatch-vector pipeline is doing.
//
// Spans nest as driver > pass > unit > class. A driver span covers one CLI
// command, passes are load/resolve/emit/check, a unit span covers one
// compilation unit and class spans cover the vector of a single class.
//
//	dvgen build --trace=trace.ndjson --trace-level=detail classes.toml
//
// Tracers travel through context:
//
//	ctx = trace.WithTracer(ctx, tr)
//	sp := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "emit", 0)
//	defer sp.End("")
//
// The ring tracer keeps the tail of the event stream in memory so that an
// internal compiler error can be reported together with what preceded it.
package trace
