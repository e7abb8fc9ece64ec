package main

import (
	"github.com/meysamhadeli/buildscope/cmd"
)

func main() {
	cmd.Execute()
}
