package sharepoint

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"o365cli/internal/common/logger"
)

// ContentType describes a content type to create.
type ContentType struct {
	ID          string
	Name        string
	Description string
	Group       string
}

const (
	contentTypeCreationInfoTypeID = "{168f3091-4554-4f14-8866-b20d48e45b54}"
	contextStaticTypeID           = "{3747adcd-a3c3-41b9-bfab-4a64dd2f1e0a}"
	listIdentityPrefix            = "1a48869e-c092-0000-1f61-81ec89809537|740c6a0b-85e2-48a0-a494-e0f1759d4aa7"
)

// ListIdentity returns the CSOM object identity of a list.
func ListIdentity(siteID, webID, listID string) string {
	return fmt.Sprintf("%s:site:%s:web:%s:list:%s", listIdentityPrefix, siteID, webID, listID)
}

// AddContentTypeQuery builds the ProcessQuery body adding ct to the current
// web, or to the list with the given identity when listIdentity is not empty.
func AddContentTypeQuery(appName string, ct ContentType, listIdentity string) string {
	actions := `<ObjectPath Id="8" ObjectPathId="7" /><ObjectPath Id="10" ObjectPathId="9" /><ObjectIdentityQuery Id="11" ObjectPathId="9" />`

	var parent string
	if listIdentity == "" {
		parent = `<Property Id="5" ParentId="3" Name="Web" /><StaticProperty Id="3" TypeId="` + contextStaticTypeID + `" Name="Current" />`
	} else {
		parent = `<Identity Id="5" Name="` + EscapeXML(listIdentity) + `" />`
	}

	paths := `<Property Id="7" ParentId="5" Name="ContentTypes" />` +
		`<Method Id="9" ParentId="7" Name="Add"><Parameters><Parameter TypeId="` + contentTypeCreationInfoTypeID + `">` +
		csomProperty("Description", ct.Description) +
		csomProperty("Group", ct.Group) +
		csomProperty("Id", ct.ID) +
		csomProperty("Name", ct.Name) +
		`<Property Name="ParentContentType" Type="Null" />` +
		`</Parameter></Parameters></Method>` +
		parent

	return csomRequest(appName, actions, paths)
}

// AddContentType creates ct in webURL, or in its list listTitle when set.
func (c *Client) AddContentType(ctx context.Context, webURL, listTitle, appName string, ct ContentType) error {
	var identity string
	if listTitle != "" {
		ident, err := c.listIdentity(ctx, webURL, listTitle)
		if err != nil {
			return err
		}
		identity = ident
	}

	digest, err := c.RequestDigest(ctx, webURL)
	if err != nil {
		return err
	}

	logger.LogDebug(c.logger, "Adding content type", "webUrl", webURL, "list", listTitle, "id", ct.ID)
	_, err = c.ProcessQuery(ctx, webURL, digest, AddContentTypeQuery(appName, ct, identity))
	return err
}

func (c *Client) listIdentity(ctx context.Context, webURL, listTitle string) (string, error) {
	siteID, err := c.objectID(ctx, apiURL(webURL, "/_api/site?$select=Id"))
	if err != nil {
		return "", err
	}
	webID, err := c.objectID(ctx, apiURL(webURL, "/_api/web?$select=Id"))
	if err != nil {
		return "", err
	}
	listID, err := c.objectID(ctx, apiURL(webURL, fmt.Sprintf("/_api/web/lists/getByTitle('%s')?$select=Id", escapeODataString(listTitle))))
	if err != nil {
		return "", err
	}
	return ListIdentity(siteID, webID, listID), nil
}

// escapeODataString quotes s for use inside an OData string literal in a URL path.
// Quotes stay literal; a % in s is already escaped to %25 at that point.
func escapeODataString(s string) string {
	return strings.ReplaceAll(url.PathEscape(strings.ReplaceAll(s, "'", "''")), "%27", "'")
}
