package main

import (
	"github.com/mendio-dev/mendio/cmd"
)

func main() {
	cmd.Execute()
}
