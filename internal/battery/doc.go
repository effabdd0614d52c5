// Package battery groups rules into an ordered, name-unique collection and
// runs them.
//
// Rules are added directly, from specifications, or from rule files:
//
//	b := battery.New(
//	    battery.WithBuilder(compiler.NewBuilder(services, prefixes)),
//	    battery.WithGlobals(globals),
//	)
//	if err := b.AddTree("rules/"); err != nil {
//	    // *ConfigError: duplicate or invalid rule
//	}
//	rep, err := b.Run(ctx)
//
// Rules run sequentially in insertion order. A fatal error in any rule
// aborts the run; the suites that completed before it are still returned.
// RunTables is the report mode: it collects each rule's terminal bindings
// as a table instead of judging them.
package battery
