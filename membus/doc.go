// Package membus provides an in-process transport with BSP delivery
// semantics. A Bus connects a fixed set of peers that live in one OS
// process, each driven by its own goroutine. Messages staged during a
// superstep become retrievable at their destination only after the
// destination's own barrier call for that superstep returns, which lets a
// whole multi-peer run execute inside a single test binary.
package membus
