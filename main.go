package main

import "morphkit/arbor/cmd"

func main() {
	cmd.Execute()
}
