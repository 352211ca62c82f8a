// Package bsp implements a Bulk Synchronous Parallel messaging layer. A
// fixed set of peers runs in lockstep supersteps. Objects sent during a
// superstep become visible to their receivers only after every peer has
// completed the barrier for that superstep.
package bsp
