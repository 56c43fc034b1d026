package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"

	"github.com/robotalks/linkstack/pkg/config"
	"github.com/robotalks/linkstack/pkg/device"
	fx "github.com/robotalks/linkstack/pkg/framework"
)

func init() {
	config.SetupFlags()
	device.SetupFlags()
}

func main() {
	flag.Parse()

	conf := config.NewConfig()
	conf.Device = true
	ep := conf.MustOpen(context.Background())
	defer ep.Close()
	dev := device.NewConfig().MustNewDevice(conf.MustNewManager(ep))

	loop := fx.NewLoop()
	loop.Interval = conf.Interval
	loop.Add(ep, dev).RunOrFail()
}
