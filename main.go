package main

import "github.com/guimove/queuefit/cmd"

func main() {
	cmd.Execute()
}
