package main

import "P3DrumMachine/cmd"

func main() {
	cmd.Execute()
}
