package main

import "github.com/coreman2200/radioshack-strip/cmd"

func main() {
	cmd.Execute()
}
