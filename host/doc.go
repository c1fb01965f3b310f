// Package host runs operator sessions.
//
// A Runner picks the guest runtime for an operator descriptor, starts the
// session on its own goroutine locked to an OS thread, and hands back a
// Handle carrying the outgoing events. A Loader reads and validates
// descriptor files.
//
//	d, err := host.NewLoader().LoadFile("operator.yaml")
//	runner, err := host.NewRunner(host.WithLogger(logger))
//	h, err := runner.Start(ctx, d, inputs)
//	<-h.Ready()
//	for ev := range h.Events() {
//		handle(ev)
//		if ev.IsTerminal() {
//			break
//		}
//	}
package host
