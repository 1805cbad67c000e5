package cmd

import (
	"github.com/urfave/cli"

	"github.com/altair-render/altair/log"
)

var logger = log.New("altair")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
