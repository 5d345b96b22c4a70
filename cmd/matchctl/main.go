// cmd/matchctl/main.go
package main

import (
	"os"

	"mentor-match-workers/internal/cli"
)

// Version is set at build time.
var Version = "dev"

func main() {
	cli.SetVersion(Version)
	if err := cli.Execute(os.Stdout); err != nil {
		os.Exit(1)
	}
}
