package main

import "github.com/dullmace/faux-must-see/internal/cli"

func main() {
	cli.Execute()
}
