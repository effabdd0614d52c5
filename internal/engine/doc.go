// Package engine implements the staged pipeline runtime that executes
// audit rules.
//
// A Rule is an ordered chain of Stages plus an Evaluator. Executing it
// runs one goroutine per stage and one for the evaluator, connected by
// unbounded FIFO queues of Tokens:
//
//	q0 ──▶ stage 0 ──▶ q1 ──▶ stage 1 ──▶ … ──▶ qN ──▶ evaluator ──▶ Suite
//
// Queue 0 holds the empty trigger binding followed by the end marker. Each
// stage may emit any number of bindings per input and must forward exactly
// one end marker, after anything it flushes. The worker checks this and
// fails the rule with END_MARKER_VIOLATION otherwise.
//
// STAGES:
//
// Stage is sealed. QueryStage substitutes each binding into a query
// template and emits one binding per result row. TransformStage runs a
// Transformer created fresh for every execution, so accumulation state
// never outlives a run. Built-in transforms are registered by name (see
// Transforms); rule definitions refer to them by that name.
//
// ERRORS:
//
// Any error in setup, a stage, or the evaluator is fatal. The first one
// cancels the remaining workers through an errgroup context and comes
// back as a *RuntimeError naming the rule, run id, stage and input. No
// partial Suite is returned and nothing is retried.
//
// ORDERING:
//
// Tokens keep FIFO order within a queue. Results of a deterministic query
// service therefore produce the same case sequence on every run, but
// callers must not assume any ordering across queues beyond that.
package engine
