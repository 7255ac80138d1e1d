package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"o365cli/internal/auth"
	"o365cli/internal/common/logger"
	"o365cli/internal/common/output"
	"o365cli/internal/common/security"
	"o365cli/internal/common/validation"
)

// connectionCommands returns connect, disconnect and status for service.
func connectionCommands(service auth.Service, title string) []*cli.Command {
	connect := &cli.Command{
		Name:   "connect",
		Usage:  "Connects to " + title,
		Flags:  commonFlags(connectFlags()...),
		Action: connectAction(service),
	}
	if service == auth.ServiceSharePoint {
		connect.ArgsUsage = "<url>"
		connect.Usage = "Connects to a SharePoint Online site"
	}

	return []*cli.Command{
		connect,
		{
			Name:   "disconnect",
			Usage:  "Disconnects from " + title,
			Flags:  commonFlags(),
			Action: disconnectAction(service),
		},
		{
			Name:   "status",
			Usage:  "Shows " + title + " connection status",
			Flags:  commonFlags(),
			Action: statusAction(service),
		},
	}
}

func connectFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "authType",
			Usage: "Authentication method: deviceCode|secret|certificate",
			Value: string(auth.AuthDeviceCode),
		},
		&cli.StringFlag{
			Name:  "appId",
			Usage: "Azure AD application id (default: the o365 multi-tenant app)",
		},
		&cli.StringFlag{
			Name:  "tenant",
			Usage: "Azure AD tenant id or domain (default: common)",
		},
		&cli.StringFlag{
			Name:  "secret",
			Usage: "Client secret for authType secret (prefer O365_SECRET)",
		},
		&cli.StringFlag{
			Name:  "certificateFile",
			Usage: "Path to a PFX certificate for authType certificate",
		},
		&cli.StringFlag{
			Name:  "certificatePassword",
			Usage: "Password of the PFX certificate (prefer O365_CERTIFICATE_PASSWORD)",
		},
	}
}

// connectOptions validates the connect flags and merges them with the configuration.
func (e *commandEnv) connectOptions(c *cli.Context) (auth.CredentialOptions, error) {
	authType, err := auth.ParseAuthType(c.String("authType"))
	if err != nil {
		return auth.CredentialOptions{}, err
	}

	opts := e.secrets()
	opts.AuthType = authType
	opts.AppID = firstNonEmpty(c.String("appId"), e.config.AppID)
	opts.Tenant = firstNonEmpty(c.String("tenant"), e.config.Tenant)
	opts.Secret = firstNonEmpty(c.String("secret"), opts.Secret)
	opts.CertificateFile = c.String("certificateFile")
	opts.CertificatePassword = firstNonEmpty(c.String("certificatePassword"), opts.CertificatePassword)

	if opts.AppID != "" {
		if err := validation.ValidateGUID(opts.AppID, "appId"); err != nil {
			return opts, err
		}
	}
	switch authType {
	case auth.AuthSecret:
		if opts.Secret == "" {
			return opts, fmt.Errorf("secret is required when authType is secret")
		}
	case auth.AuthCertificate:
		if opts.CertificateFile == "" {
			return opts, fmt.Errorf("certificateFile is required when authType is certificate")
		}
		if err := validation.ValidateFilePath(opts.CertificateFile, "certificateFile"); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func connectAction(service auth.Service) cli.ActionFunc {
	return func(c *cli.Context) error {
		env, err := newCommandEnv(c)
		if err != nil {
			return err
		}
		defer env.close()

		siteURL := ""
		if service == auth.ServiceSharePoint {
			siteURL = c.Args().First()
			if siteURL == "" {
				return fmt.Errorf("required argument url missing")
			}
			if err := validation.ValidateSharePointURL(siteURL); err != nil {
				return err
			}
		}

		opts, err := env.connectOptions(c)
		if err != nil {
			return err
		}

		env.printer.Verbosef("Authenticating to %s...", serviceTitle(service))
		conn, err := env.manager.Connect(c.Context, service, siteURL, opts)
		if err != nil {
			return err
		}
		logger.LogDebug(env.logger, "Connected",
			"service", string(service),
			"resource", conn.Resource,
			"user", security.MaskUPN(conn.UserName),
			"tenantId", security.MaskGUID(conn.TenantID),
			"token", security.MaskAccessToken(conn.AccessToken))

		env.printer.Done()
		return nil
	}
}

func disconnectAction(service auth.Service) cli.ActionFunc {
	return func(c *cli.Context) error {
		env, err := newCommandEnv(c)
		if err != nil {
			return err
		}
		defer env.close()

		env.printer.Verbosef("Disconnecting from %s...", serviceTitle(service))
		if err := env.manager.Disconnect(service); err != nil {
			return err
		}
		env.printer.Done()
		return nil
	}
}

func statusAction(service auth.Service) cli.ActionFunc {
	return func(c *cli.Context) error {
		env, err := newCommandEnv(c)
		if err != nil {
			return err
		}
		defer env.close()

		conn, err := env.manager.Status(service)
		if err != nil {
			return err
		}
		if !conn.Connected {
			if env.printer.Format == output.FormatJSON {
				return env.printer.JSON(map[string]any{"connected": false})
			}
			fmt.Fprintln(env.printer.Out, "Not connected")
			return nil
		}
		return env.printer.Object(statusProperties(conn, env.printer.Format, env.rt.Now()), statusKeys(conn)...)
	}
}

// statusKeys orders the text output of status.
func statusKeys(conn *auth.Connection) []string {
	keys := []string{"connectedAs"}
	if conn.URL != "" {
		keys = append(keys, "url")
	}
	return append(keys, "resource", "tenantId", "authType", "appId", "accessToken", "expiresOn")
}

// statusProperties describes an active connection. Tokens are always masked.
// Text output shows the token expiry relative to now.
func statusProperties(conn *auth.Connection, format output.Format, now time.Time) map[string]any {
	expires := conn.ExpiresOn.UTC().Format(time.RFC3339)
	if format == output.FormatText {
		expires = humanize.RelTime(conn.ExpiresOn, now, "ago", "from now")
	}

	props := map[string]any{
		"connected":   true,
		"connectedAs": conn.UserName,
		"resource":    conn.Resource,
		"tenantId":    conn.TenantID,
		"authType":    string(conn.AuthType),
		"appId":       conn.AppID,
		"accessToken": security.MaskAccessToken(conn.AccessToken),
		"expiresOn":   expires,
	}
	if conn.URL != "" {
		props["url"] = conn.URL
	}
	return props
}

// deviceCodePrompt shows the device code sign-in instructions.
func (e *commandEnv) deviceCodePrompt(_ context.Context, msg azidentity.DeviceCodeMessage) error {
	fmt.Fprintln(e.rt.Stderr, msg.Message)
	return nil
}

func serviceTitle(service auth.Service) string {
	switch service {
	case auth.ServiceSharePoint:
		return "SharePoint Online"
	case auth.ServiceAzMgmt:
		return "the Azure Management Service"
	case auth.ServiceGraph:
		return "the Microsoft Graph"
	}
	return string(service)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
