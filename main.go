package main

import "github.com/edpulse/edpulse-cli/cmd"

func main() {
	cmd.Execute()
}
