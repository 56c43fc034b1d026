package main

import (
	"github.com/robotalks/linkstack/pkg/cli/sh"
	"github.com/robotalks/linkstack/pkg/config"

	_ "github.com/robotalks/linkstack/pkg/cli/cmds/msgs"
)

//go-build: CGO_ENABLED=0

func init() {
	config.SetupFlags()
}

func main() {
	sh.Main()
}
