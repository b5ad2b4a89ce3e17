package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "signal-backend",
		Usage: "BTC moving-average signal pipeline with per-transition trade execution",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file loaded before reading the environment"},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "run one pipeline invocation and print its report",
				Action: runOnce,
			},
			{
				Name:   "serve",
				Usage:  "run the pipeline on RUN_INTERVAL and serve the read-only API",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create or update the database schema",
				Action: migrate,
			},
			{
				Name:  "credentials",
				Usage: "manage exchange credentials",
				Subcommands: []*cli.Command{
					{
						Name:  "set",
						Usage: "store an encrypted API key pair for a trading mode",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "mode", Value: "testnet", Usage: "testnet or production"},
							&cli.StringFlag{Name: "api-key", Required: true, EnvVars: []string{"BINANCE_API_KEY"}},
							&cli.StringFlag{Name: "api-secret", Required: true, EnvVars: []string{"BINANCE_API_SECRET"}},
						},
						Action: setCredentials,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("signal-backend exited")
	}
}
