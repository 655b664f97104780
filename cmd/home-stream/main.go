package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/mxmehl/home-stream/cmd/home-stream/hashpw"
	"github.com/mxmehl/home-stream/cmd/home-stream/serve"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "home-stream",
		Usage: "Stream your own media collection to your own devices",
		Commands: []*cli.Command{
			serve.Cmd(),
			hashpw.Cmd(),
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		log.Error().Err(err).Msg("Application failed")
		os.Exit(1)
	}
}
