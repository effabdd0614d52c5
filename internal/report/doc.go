// Package report holds the result tree of an audit (Report → Suite → Case
// → Failure) and its serializations: JUnit XML, JSON, a text summary, and
// CSV tables packed into a zip archive for report mode.
//
// Case order within a suite is the order the evaluator produced it and is
// preserved by every writer.
package report
