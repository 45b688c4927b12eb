// Command teckyl is the driver for the teckyl Tensor Comprehensions
// front end: it reads kernel files, runs them through the lexer, parser,
// semantic analyzer and IR generator, and prints one of three dumps.
package main

import "os"

func main() {
	os.Exit(run())
}

func run() int {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}
