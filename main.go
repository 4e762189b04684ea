package main

import "github.com/Nadim147c/clipd/cmd"

// Version is set by the linker at build time.
var Version = "devel"

func main() {
	cmd.Execute(Version)
}
