package main

import "github.com/papapumpkin/orbitflow/cmd"

func main() {
	cmd.Execute()
}
