package main

import "github.com/C-Loftus/atspi-tree-visualizer/cmd"

func main() {
	cmd.Execute()
}
