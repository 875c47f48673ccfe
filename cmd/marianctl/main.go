// Command marianctl is the marian operator CLI.
package main

import "github.com/marian-search/marian/cmd/marianctl/cli"

func main() {
	cli.Execute()
}
