package main

import (
	"github.com/urfave/cli/v2"

	"o365cli/internal/auth"
	"o365cli/internal/common/validation"
)

func graphCommand() *cli.Command {
	subcommands := connectionCommands(auth.ServiceGraph, "the Microsoft Graph")
	subcommands = append(subcommands, &cli.Command{
		Name:  "site",
		Usage: "Work with SharePoint sites through the Microsoft Graph",
		Subcommands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Gets information about a SharePoint site",
				Flags: commonFlags(
					&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Usage: "Absolute URL of the site", Required: true},
				),
				Action: siteGetAction,
			},
		},
	})

	return &cli.Command{
		Name:        "graph",
		Usage:       "Work with the Microsoft Graph",
		Subcommands: subcommands,
	}
}

func siteGetAction(c *cli.Context) error {
	env, err := newCommandEnv(c)
	if err != nil {
		return err
	}
	defer env.close()

	siteURL := c.String("url")
	if err := validation.ValidateSharePointURL(siteURL); err != nil {
		return err
	}

	_, cred, err := env.credential(auth.ServiceGraph)
	if err != nil {
		return err
	}
	sites, err := env.rt.NewSiteGetter(cred, env.retryPolicy())
	if err != nil {
		return err
	}

	env.printer.Verbosef("Retrieving site %s...", siteURL)
	site, err := sites.GetSite(c.Context, siteURL)
	if err != nil {
		return err
	}
	return env.printer.Object(site.Map(), "id", "displayName", "webUrl", "createdDateTime")
}
