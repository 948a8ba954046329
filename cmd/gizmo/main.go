// Copyright 2016-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Command gizmo inspects surveys through the SurveyGizmo REST API and
// exports their responses to PostgreSQL.
//
//     gizmo --env .env surveys
//     gizmo questions --survey 1234
//     gizmo responses --survey 1234 --since 2016-05-01
//     gizmo export --survey 1234 --postgres postgres://localhost/gizmo
//     gizmo watch --survey 1234 --survey 5678 --interval 10m
//
// Credentials come from a YAML configuration file, a .env file or
// GIZMO_* environment variables, in increasing order of precedence.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/diffeo/go-surveygizmo/api"
	"github.com/diffeo/go-surveygizmo/backend"
	"github.com/diffeo/go-surveygizmo/gizmo"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

// session holds what every command needs, set up in app.Before.
type session struct {
	Client *api.Client
	Stop   func()
	Format string
	Logger *logrus.Logger
	ctx    context.Context
}

var sess session

func main() {
	target := backend.Backend{Implementation: backend.Remote}
	app := cli.NewApp()
	app.Name = "gizmo"
	app.Usage = "work with SurveyGizmo surveys and responses"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Usage: "YAML configuration file",
		},
		cli.StringFlag{
			Name:  "env",
			Value: ".env",
			Usage: "dotenv file with GIZMO_* variables",
		},
		cli.GenericFlag{
			Name:  "backend",
			Value: &target,
			Usage: "surveygizmo[:region-or-url] or memory[:seed.yaml]",
		},
		cli.StringFlag{
			Name:  "format",
			Value: "json",
			Usage: "output format, json or yaml",
		},
		cli.BoolFlag{
			Name:   "debug",
			Usage:  "log every request and response",
			EnvVar: "GIZMO_DEBUG",
		},
	}
	app.Commands = []cli.Command{
		surveysCommand,
		questionsCommand,
		responsesCommand,
		exportCommand,
		watchCommand,
		dropCommand,
	}
	app.Before = func(c *cli.Context) error {
		config := gizmo.DefaultConfig()
		if filename := c.String("config"); filename != "" {
			if err := config.LoadConfigYaml(filename); err != nil {
				return cli.NewExitError(err.Error(), 1)
			}
		}
		if err := config.ConfigFromEnv(c.String("env")); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		if c.Bool("debug") {
			config.Debug = true
		}
		sess.Logger = logrus.New()
		sess.Logger.Out = os.Stderr
		if config.Debug {
			sess.Logger.Level = logrus.DebugLevel
		}
		config.Logger = sess.Logger

		switch c.String("format") {
		case "json", "yaml":
			sess.Format = c.String("format")
		default:
			return cli.NewExitError("unknown format "+c.String("format"), 1)
		}

		client, stop, err := target.Client(config)
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		sess.Client = client
		sess.Stop = stop

		ctx, cancel := context.WithCancel(context.Background())
		interrupts := make(chan os.Signal, 1)
		signal.Notify(interrupts, os.Interrupt)
		go func() {
			<-interrupts
			cancel()
		}()
		sess.ctx = ctx
		return nil
	}
	app.After = func(c *cli.Context) error {
		if sess.Stop != nil {
			sess.Stop()
		}
		return nil
	}
	app.RunAndExitOnError()
}
