// bsprun executes built-in BSP demo programs with all peers running as
// goroutines over an in-process bus.
package main

func main() {
	Execute()
}
