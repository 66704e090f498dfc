// Command simctl is the single entrypoint for running the simulation
// headless, dispatching ad-hoc commands, checking determinism, and
// serving the gRPC control plane. Grounded on the teacher's split
// between cmd/spacetraders-daemon and its adapters/cli command tree,
// merged here into one cobra-driven binary since this core has a
// single daemon surface rather than a daemon plus a separate routing
// microservice.
package main

import (
	"github.com/tiletransit/simcore/internal/adapters/cli"
)

func main() {
	cli.Execute()
}
