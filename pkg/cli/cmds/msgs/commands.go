// Package msgs exposes shell commands for the sample messages.
package msgs

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/linkstack/pkg/cli/sh"
	"github.com/robotalks/linkstack/pkg/msgs"
)

var (
	// PingCmd sends a Ping.
	PingCmd = ishell.Cmd{
		Name:    "ping",
		Aliases: []string{"p"},
		Help:    "[NONCE]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			var msg msgs.Ping
			msg.Nonce = rand.Uint32()
			if len(c.Args) > 0 {
				val, err := strconv.ParseUint(c.Args[0], 0, 32)
				if err != nil {
					c.Err(fmt.Errorf("Invalid NONCE: %v", err))
					return
				}
				msg.Nonce = uint32(val)
			}
			sh.DoCommand(c, &msg)
		}),
	}

	// RateCmd sends a Rate.
	RateCmd = ishell.Cmd{
		Name:    "rate",
		Aliases: []string{"r"},
		Help:    "HZ",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("HZ required"))
				return
			}
			val, err := strconv.ParseUint(c.Args[0], 10, 16)
			if err != nil {
				c.Err(fmt.Errorf("Invalid HZ: %v", err))
				return
			}
			sh.DoCommand(c, &msgs.Rate{Hz: uint16(val)})
		}),
	}
)

func init() {
	sh.AddCmds(
		&PingCmd,
		&RateCmd,
	)
}
