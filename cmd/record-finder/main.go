package main

import cmd "github.com/rohmanhakim/record-finder/internal/cli"

func main() {
	cmd.Execute()
}
