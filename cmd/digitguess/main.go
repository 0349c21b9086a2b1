package main

import "github.com/mcoot/digitguess/internal/cli"

func main() {
	cli.Execute()
}
