// Command bdtools runs small, self-contained demonstrations of each
// coordination primitive in this module, each spinning up an in-process
// runtime.MockRuntime instead of a real MPI job. They mirror the upstream
// examples (ghost exchange, data mapper, layout remap, permutation
// round-trip) one-for-one.
package main

import "github.com/bempp/distributed-tools/cmd/bdtools/cmd"

func main() {
	cmd.Execute()
}
