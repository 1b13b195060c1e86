package main

import (
	"github.com/YuminosukeSato/scoreforest/pkg/cmd"
)

func main() {
	cmd.Execute()
}
