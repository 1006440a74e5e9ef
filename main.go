// Package main is the entry point for the langs CLI.
package main

import "github.com/courselab/langs/cmd"

func main() {
	cmd.Execute()
}
