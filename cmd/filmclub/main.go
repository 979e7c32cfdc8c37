// Command filmclub runs the film club webhook and its admin tools.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/filmclub/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "filmclub:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
