// Command attend is the badge-scan attendance station for a robotics team.
package main

import (
	"fmt"
	"os"

	"github.com/frcattend/attend/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
