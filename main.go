package main

import (
	"kairos/cmd"
)

func main() {
	cmd.Execute()
}
