// routerctl is a CLI client for routerd's read-only management API.
package main

import "github.com/dantte-lp/routerd/cmd/routerctl/commands"

func main() {
	commands.Execute()
}
