package main

import (
	"fmt"

	"github.com/iudanet/guardian/internal/client/cli"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	cli.Execute(fmt.Sprintf("%s (built %s, commit %s)", Version, BuildDate, GitCommit))
}
