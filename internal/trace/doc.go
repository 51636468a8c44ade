// Package trace records the phases of a dotgate run.
//
// Tracing is enabled from the command line:
//
//	dotgate check --trace=- --trace-level=unit units/
//
// Every event names the unit document it belongs to, so the output of units
// verified in parallel can be told apart and a blocked gate can dump only
// the history of the blocked units.
//
// Levels select scopes: LevelPhase emits driver and pass boundaries,
// LevelUnit adds one span per unit and LevelDebug adds a mark per rule that
// reported something. Spans travel in the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx = trace.ForUnit(ctx, "units/birds.yaml")
//	ctx, span := trace.Start(ctx, trace.ScopeUnit, "verify")
//	defer span.End("proceed")
package trace
