package main

import (
	"github.com/urfave/cli/v2"

	"o365cli/internal/auth"
	"o365cli/internal/azmgmt"
)

func azmgmtCommand() *cli.Command {
	subcommands := connectionCommands(auth.ServiceAzMgmt, "the Azure Management Service")
	subcommands = append(subcommands, &cli.Command{
		Name:  "flow",
		Usage: "Manage Microsoft Flow",
		Subcommands: []*cli.Command{
			{
				Name:  "environment",
				Usage: "Manage Microsoft Flow environments",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "Lists Microsoft Flow environments in the current tenant",
						Flags:  commonFlags(),
						Action: flowEnvironmentListAction,
					},
				},
			},
		},
	})

	return &cli.Command{
		Name:        "azmgmt",
		Usage:       "Work with the Azure Management Service",
		Subcommands: subcommands,
	}
}

func flowEnvironmentListAction(c *cli.Context) error {
	env, err := newCommandEnv(c)
	if err != nil {
		return err
	}
	defer env.close()

	_, cred, err := env.credential(auth.ServiceAzMgmt)
	if err != nil {
		return err
	}
	client := azmgmt.NewClient(cred, env.rt.AzMgmtEndpoint, env.pipelineOptions())

	env.printer.Verbosef("Retrieving list of Microsoft Flow environments...")
	environments, err := client.FlowEnvironments(c.Context)
	if err != nil {
		return err
	}
	if len(environments) == 0 {
		env.printer.Verbosef("No environments found")
		return nil
	}
	return env.printer.List(environments, "name", "displayName")
}
