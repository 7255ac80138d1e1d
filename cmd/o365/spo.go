package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"o365cli/internal/auth"
	"o365cli/internal/common/validation"
	"o365cli/internal/common/version"
	"o365cli/internal/sharepoint"
)

func spoCommand() *cli.Command {
	subcommands := connectionCommands(auth.ServiceSharePoint, "SharePoint Online")
	subcommands = append(subcommands,
		&cli.Command{
			Name:  "app",
			Usage: "Manage apps in the app catalog",
			Subcommands: []*cli.Command{
				{
					Name:  "list",
					Usage: "Lists apps from the tenant or site collection app catalog",
					Flags: commonFlags(
						&cli.StringFlag{Name: "scope", Aliases: []string{"c"}, Usage: "Target app catalog: tenant|sitecollection", Value: string(sharepoint.AppCatalogTenant)},
						&cli.StringFlag{Name: "siteUrl", Aliases: []string{"s"}, Usage: "Absolute URL of the site collection (required for sitecollection)"},
					),
					Action: appListAction,
				},
			},
		},
		&cli.Command{
			Name:  "contenttype",
			Usage: "Manage content types",
			Subcommands: []*cli.Command{
				{
					Name:  "add",
					Usage: "Adds a content type to a site or list",
					Flags: commonFlags(
						&cli.StringFlag{Name: "webUrl", Aliases: []string{"u"}, Usage: "Absolute URL of the site where the content type should be created", Required: true},
						&cli.StringFlag{Name: "listTitle", Aliases: []string{"l"}, Usage: "Title of the list where the content type should be created"},
						&cli.StringFlag{Name: "id", Aliases: []string{"i"}, Usage: "The ID of the content type", Required: true},
						&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Content type name", Required: true},
						&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Content type description"},
						&cli.StringFlag{Name: "group", Aliases: []string{"g"}, Usage: "Content type group"},
					),
					Action: contentTypeAddAction,
				},
			},
		},
		&cli.Command{
			Name:  "customaction",
			Usage: "Manage user custom actions",
			Subcommands: []*cli.Command{
				{
					Name:   "get",
					Usage:  "Gets details for the specified user custom action",
					Flags:  commonFlags(customActionFlags(true)...),
					Action: customActionGetAction,
				},
				{
					Name:   "list",
					Usage:  "Lists user custom actions of a site or site collection",
					Flags:  commonFlags(customActionFlags(false)...),
					Action: customActionListAction,
				},
				{
					Name:  "remove",
					Usage: "Removes the specified user custom action",
					Flags: commonFlags(append(customActionFlags(true),
						&cli.BoolFlag{Name: "confirm", Usage: "Don't prompt for confirming removing the user custom action"},
					)...),
					Action: customActionRemoveAction,
				},
			},
		},
	)

	return &cli.Command{
		Name:        "spo",
		Usage:       "Manage SharePoint Online",
		Subcommands: subcommands,
	}
}

func customActionFlags(withID bool) []cli.Flag {
	var flags []cli.Flag
	if withID {
		flags = append(flags, &cli.StringFlag{Name: "id", Aliases: []string{"i"}, Usage: "ID of the user custom action", Required: true})
	}
	return append(flags,
		&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Usage: "URL of the site or site collection", Required: true},
		&cli.StringFlag{Name: "scope", Aliases: []string{"s"}, Usage: "Scope of the user custom action: Site|Web|All", Value: string(sharepoint.ScopeAll)},
	)
}

// sharePointClient restores the SharePoint connection and returns a REST client.
func (e *commandEnv) sharePointClient() (*auth.Connection, *sharepoint.Client, error) {
	conn, cred, err := e.credential(auth.ServiceSharePoint)
	if err != nil {
		return nil, nil, err
	}
	return conn, sharepoint.NewClient(cred, conn.Resource, e.pipelineOptions()), nil
}

// customActionOptions validates --id, --url and --scope.
func customActionOptions(c *cli.Context, withID bool) (id, siteURL string, scope sharepoint.Scope, err error) {
	if withID {
		id = c.String("id")
		if err = validation.ValidateGUID(id, "id"); err != nil {
			return
		}
	}
	siteURL = c.String("url")
	if err = validation.ValidateSharePointURL(siteURL); err != nil {
		return
	}
	scope, err = sharepoint.ParseScope(c.String("scope"))
	return
}

func customActionRemoveAction(c *cli.Context) error {
	env, err := newCommandEnv(c)
	if err != nil {
		return err
	}
	defer env.close()

	id, siteURL, scope, err := customActionOptions(c, true)
	if err != nil {
		return err
	}

	_, client, err := env.sharePointClient()
	if err != nil {
		return err
	}

	if !c.Bool("confirm") {
		ok, err := env.confirmer().Confirm(fmt.Sprintf("Are you sure you want to remove the %s user custom action?", id))
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	env.printer.Verbosef("Removing custom action %s from %s...", id, siteURL)
	result, err := client.RemoveCustomAction(c.Context, siteURL, id, scope)
	env.writeAudit("spo customaction remove", siteURL, string(scope), id, err)
	if err != nil {
		return err
	}

	if !result.Removed {
		env.printer.Verbosef("Custom action with id %s not found", id)
		return nil
	}
	env.printer.Done()
	return nil
}

func customActionGetAction(c *cli.Context) error {
	env, err := newCommandEnv(c)
	if err != nil {
		return err
	}
	defer env.close()

	id, siteURL, scope, err := customActionOptions(c, true)
	if err != nil {
		return err
	}

	_, client, err := env.sharePointClient()
	if err != nil {
		return err
	}

	action, found, err := client.GetCustomAction(c.Context, siteURL, id, scope)
	if err != nil {
		return err
	}
	if action == nil {
		env.printer.Verbosef("Custom action with id %s not found", id)
		return nil
	}
	env.printer.Verbosef("Custom action found in scope %s", found)
	return env.printer.Object(action)
}

func customActionListAction(c *cli.Context) error {
	env, err := newCommandEnv(c)
	if err != nil {
		return err
	}
	defer env.close()

	_, siteURL, scope, err := customActionOptions(c, false)
	if err != nil {
		return err
	}

	_, client, err := env.sharePointClient()
	if err != nil {
		return err
	}

	actions, err := client.ListCustomActions(c.Context, siteURL, scope)
	if err != nil {
		return err
	}
	if len(actions) == 0 {
		env.printer.Verbosef("No custom actions found")
	}
	return env.printer.List(actions, "Name", "Location", "Scope", "Id")
}

func appListAction(c *cli.Context) error {
	env, err := newCommandEnv(c)
	if err != nil {
		return err
	}
	defer env.close()

	scope, err := sharepoint.ParseAppCatalogScope(c.String("scope"))
	if err != nil {
		return err
	}
	siteURL := c.String("siteUrl")
	if scope == sharepoint.AppCatalogSiteCollection && siteURL == "" {
		return fmt.Errorf("siteUrl must be specified if scope is set to sitecollection")
	}
	if siteURL != "" {
		if err := validation.ValidateSharePointURL(siteURL); err != nil {
			return err
		}
	}

	conn, client, err := env.sharePointClient()
	if err != nil {
		return err
	}

	baseURL := conn.URL
	if scope == sharepoint.AppCatalogSiteCollection {
		baseURL = siteURL
	}

	env.printer.Verbosef("Retrieving apps...")
	apps, err := client.ListApps(c.Context, baseURL, scope)
	if err != nil {
		return err
	}
	if len(apps) == 0 {
		env.printer.Verbosef("No apps found")
		return nil
	}
	return env.printer.List(apps, "Title", "ID", "Deployed", "AppCatalogVersion")
}

func contentTypeAddAction(c *cli.Context) error {
	env, err := newCommandEnv(c)
	if err != nil {
		return err
	}
	defer env.close()

	webURL := c.String("webUrl")
	if err := validation.ValidateSharePointURL(webURL); err != nil {
		return err
	}
	ct := sharepoint.ContentType{
		ID:          c.String("id"),
		Name:        c.String("name"),
		Description: c.String("description"),
		Group:       c.String("group"),
	}
	if ct.ID == "" {
		return fmt.Errorf("required option id not specified")
	}
	if ct.Name == "" {
		return fmt.Errorf("required option name not specified")
	}
	listTitle := c.String("listTitle")

	_, client, err := env.sharePointClient()
	if err != nil {
		return err
	}

	if listTitle != "" {
		env.printer.Verbosef("Adding content type %s to list %s...", ct.Name, listTitle)
	} else {
		env.printer.Verbosef("Adding content type %s to %s...", ct.Name, webURL)
	}
	err = client.AddContentType(c.Context, webURL, listTitle, version.UserAgent(), ct)
	env.writeAudit("spo contenttype add", webURL, listTitle, ct.ID, err)
	if err != nil {
		return err
	}
	env.printer.Done()
	return nil
}
