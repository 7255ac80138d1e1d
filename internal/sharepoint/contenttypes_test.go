//go:build !integration

package sharepoint

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAppName  = "o365cli/1.3.0"
	tileID       = "0x0100FF0B2E33A3718B46A3909298D240FD93"
	processQuery = "/_vti_bin/client.svc/ProcessQuery"
	csomOK       = `[{"SchemaVersion":"15.0.0.0","LibraryVersion":"16.0.8008.1219","ErrorInfo":null,"TraceCorrelationId":"2846869e-a0d0-0000-2105-47de3b2952e7"},11,{"IsNull":false}]`

	webAddBody = `<Request AddExpandoFieldTypeSuffix="true" SchemaVersion="15.0.0.0" LibraryVersion="16.0.0.0" ApplicationName="o365cli/1.3.0" xmlns="http://schemas.microsoft.com/sharepoint/clientquery/2009"><Actions><ObjectPath Id="8" ObjectPathId="7" /><ObjectPath Id="10" ObjectPathId="9" /><ObjectIdentityQuery Id="11" ObjectPathId="9" /></Actions><ObjectPaths><Property Id="7" ParentId="5" Name="ContentTypes" /><Method Id="9" ParentId="7" Name="Add"><Parameters><Parameter TypeId="{168f3091-4554-4f14-8866-b20d48e45b54}"><Property Name="Description" Type="Null" /><Property Name="Group" Type="Null" /><Property Name="Id" Type="String">0x0100FF0B2E33A3718B46A3909298D240FD93</Property><Property Name="Name" Type="String">PnP Tile</Property><Property Name="ParentContentType" Type="Null" /></Parameter></Parameters></Method><Property Id="5" ParentId="3" Name="Web" /><StaticProperty Id="3" TypeId="{3747adcd-a3c3-41b9-bfab-4a64dd2f1e0a}" Name="Current" /></ObjectPaths></Request>`

	webAddDescGroupBody = `<Request AddExpandoFieldTypeSuffix="true" SchemaVersion="15.0.0.0" LibraryVersion="16.0.0.0" ApplicationName="o365cli/1.3.0" xmlns="http://schemas.microsoft.com/sharepoint/clientquery/2009"><Actions><ObjectPath Id="8" ObjectPathId="7" /><ObjectPath Id="10" ObjectPathId="9" /><ObjectIdentityQuery Id="11" ObjectPathId="9" /></Actions><ObjectPaths><Property Id="7" ParentId="5" Name="ContentTypes" /><Method Id="9" ParentId="7" Name="Add"><Parameters><Parameter TypeId="{168f3091-4554-4f14-8866-b20d48e45b54}"><Property Name="Description" Type="String">A tile</Property><Property Name="Group" Type="String">PnP Content Types</Property><Property Name="Id" Type="String">0x0100FF0B2E33A3718B46A3909298D240FD93</Property><Property Name="Name" Type="String">PnP Tile</Property><Property Name="ParentContentType" Type="Null" /></Parameter></Parameters></Method><Property Id="5" ParentId="3" Name="Web" /><StaticProperty Id="3" TypeId="{3747adcd-a3c3-41b9-bfab-4a64dd2f1e0a}" Name="Current" /></ObjectPaths></Request>`

	listAddBody = `<Request AddExpandoFieldTypeSuffix="true" SchemaVersion="15.0.0.0" LibraryVersion="16.0.0.0" ApplicationName="o365cli/1.3.0" xmlns="http://schemas.microsoft.com/sharepoint/clientquery/2009"><Actions><ObjectPath Id="8" ObjectPathId="7" /><ObjectPath Id="10" ObjectPathId="9" /><ObjectIdentityQuery Id="11" ObjectPathId="9" /></Actions><ObjectPaths><Property Id="7" ParentId="5" Name="ContentTypes" /><Method Id="9" ParentId="7" Name="Add"><Parameters><Parameter TypeId="{168f3091-4554-4f14-8866-b20d48e45b54}"><Property Name="Description" Type="String">A tile</Property><Property Name="Group" Type="Null" /><Property Name="Id" Type="String">0x0100FF0B2E33A3718B46A3909298D240FD93</Property><Property Name="Name" Type="String">PnP Tile</Property><Property Name="ParentContentType" Type="Null" /></Parameter></Parameters></Method><Identity Id="5" Name="1a48869e-c092-0000-1f61-81ec89809537|740c6a0b-85e2-48a0-a494-e0f1759d4aa7:site:276f6d32-f43b-4b26-ada6-7aa9d5bcab6a:web:942595c1-6100-4ad0-9dd4-19743732ffdc:list:81f0ecee-75a8-46f0-b384-c8f4f9f31d99" /></ObjectPaths></Request>`

	escapedBody = `<Request AddExpandoFieldTypeSuffix="true" SchemaVersion="15.0.0.0" LibraryVersion="16.0.0.0" ApplicationName="o365cli/1.3.0" xmlns="http://schemas.microsoft.com/sharepoint/clientquery/2009"><Actions><ObjectPath Id="8" ObjectPathId="7" /><ObjectPath Id="10" ObjectPathId="9" /><ObjectIdentityQuery Id="11" ObjectPathId="9" /></Actions><ObjectPaths><Property Id="7" ParentId="5" Name="ContentTypes" /><Method Id="9" ParentId="7" Name="Add"><Parameters><Parameter TypeId="{168f3091-4554-4f14-8866-b20d48e45b54}"><Property Name="Description" Type="String">&lt;A tile</Property><Property Name="Group" Type="String">&lt;PnP Content Types</Property><Property Name="Id" Type="String">&lt;0x0100FF0B2E33A3718B46A3909298D240FD93</Property><Property Name="Name" Type="String">&lt;PnP Tile</Property><Property Name="ParentContentType" Type="Null" /></Parameter></Parameters></Method><Property Id="5" ParentId="3" Name="Web" /><StaticProperty Id="3" TypeId="{3747adcd-a3c3-41b9-bfab-4a64dd2f1e0a}" Name="Current" /></ObjectPaths></Request>`
)

func TestEscapeXML(t *testing.T) {
	assert.Equal(t, "&amp;&lt;&gt;&quot;&apos;", EscapeXML(`&<>"'`))
	assert.Equal(t, "R&amp;D &lt;team&gt;", EscapeXML("R&D <team>"))
	assert.Equal(t, "plain", EscapeXML("plain"))
}

func TestAddContentTypeQuery(t *testing.T) {
	tests := []struct {
		name     string
		ct       ContentType
		identity string
		want     string
	}{
		{"web", ContentType{ID: tileID, Name: "PnP Tile"}, "", webAddBody},
		{"web with description and group", ContentType{ID: tileID, Name: "PnP Tile", Description: "A tile", Group: "PnP Content Types"}, "", webAddDescGroupBody},
		{"list", ContentType{ID: tileID, Name: "PnP Tile", Description: "A tile"},
			ListIdentity("276f6d32-f43b-4b26-ada6-7aa9d5bcab6a", "942595c1-6100-4ad0-9dd4-19743732ffdc", "81f0ecee-75a8-46f0-b384-c8f4f9f31d99"), listAddBody},
		{"escaped input", ContentType{ID: "<" + tileID, Name: "<PnP Tile", Description: "<A tile", Group: "<PnP Content Types"}, "", escapedBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddContentTypeQuery(testAppName, tt.ct, tt.identity))
		})
	}
}

func TestAddContentType_Web(t *testing.T) {
	sp := newFakeSharePoint(t)
	sp.onContextInfo()
	sp.on(http.MethodPost, processQuery, http.StatusOK, csomOK)

	err := sp.client().AddContentType(context.Background(), sp.url(), "", testAppName,
		ContentType{ID: tileID, Name: "PnP Tile"})
	require.NoError(t, err)

	calls := sp.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, processQuery, calls[1].URI)
	assert.Equal(t, webAddBody, calls[1].Body)
	assert.Equal(t, "ABC", calls[1].Digest)
	assert.Equal(t, "text/xml", calls[1].Content)
}

func TestAddContentType_List(t *testing.T) {
	sp := newFakeSharePoint(t)
	sp.onContextInfo()
	sp.on(http.MethodGet, "/_api/site?$select=Id", http.StatusOK, `{"Id":"276f6d32-f43b-4b26-ada6-7aa9d5bcab6a"}`)
	sp.on(http.MethodGet, "/_api/web?$select=Id", http.StatusOK, `{"Id":"942595c1-6100-4ad0-9dd4-19743732ffdc"}`)
	sp.on(http.MethodGet, "/_api/web/lists/getByTitle('My%20list')?$select=Id", http.StatusOK, `{"Id":"81f0ecee-75a8-46f0-b384-c8f4f9f31d99"}`)
	sp.on(http.MethodPost, processQuery, http.StatusOK, csomOK)

	err := sp.client().AddContentType(context.Background(), sp.url(), "My list", testAppName,
		ContentType{ID: tileID, Name: "PnP Tile", Description: "A tile"})
	require.NoError(t, err)

	calls := sp.calls()
	last := calls[len(calls)-1]
	assert.Equal(t, processQuery, last.URI)
	assert.Equal(t, listAddBody, last.Body)
}

func TestAddContentType_ListNotFound(t *testing.T) {
	sp := newFakeSharePoint(t)
	sp.on(http.MethodGet, "/_api/site?$select=Id", http.StatusOK, `{"Id":"276f6d32-f43b-4b26-ada6-7aa9d5bcab6a"}`)
	sp.on(http.MethodGet, "/_api/web?$select=Id", http.StatusOK, `{"Id":"942595c1-6100-4ad0-9dd4-19743732ffdc"}`)
	sp.on(http.MethodGet, "/_api/web/lists/getByTitle('My%20list')?$select=Id", http.StatusNotFound,
		`{"odata.error":{"code":"-1, System.ArgumentException","message":{"lang":"en-US","value":"List 'My list' does not exist at site with URL 'https://contoso.sharepoint.com/sites/sales'."}}}`)

	err := sp.client().AddContentType(context.Background(), sp.url(), "My list", testAppName,
		ContentType{ID: tileID, Name: "PnP Tile"})
	assert.EqualError(t, err, "List 'My list' does not exist at site with URL 'https://contoso.sharepoint.com/sites/sales'.")

	for _, c := range sp.calls() {
		assert.NotEqual(t, processQuery, c.URI)
	}
}

func TestAddContentType_CSOMError(t *testing.T) {
	sp := newFakeSharePoint(t)
	sp.onContextInfo()
	sp.on(http.MethodPost, processQuery, http.StatusOK,
		`[{"SchemaVersion":"15.0.0.0","LibraryVersion":"16.0.8008.1219","ErrorInfo":{"ErrorMessage":"A duplicate content type \"PnP Tile\" was found.","ErrorValue":null,"TraceCorrelationId":"0e46869e-2024-0000-1f04-7f2be163c9c0","ErrorCode":183,"ErrorTypeName":"Microsoft.SharePoint.SPException"},"TraceCorrelationId":"0e46869e-2024-0000-1f04-7f2be163c9c0"}]`)

	err := sp.client().AddContentType(context.Background(), sp.url(), "", testAppName,
		ContentType{ID: tileID, Name: "PnP Tile"})
	require.Error(t, err)
	assert.Equal(t, `A duplicate content type "PnP Tile" was found.`, err.Error())

	var ce *CSOMError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 183, ce.Code)
	assert.Equal(t, "Microsoft.SharePoint.SPException", ce.TypeName)
}

func TestEscapeODataString(t *testing.T) {
	assert.Equal(t, "My%20list", escapeODataString("My list"))
	assert.Equal(t, "Bob''s", escapeODataString("Bob's"))
	assert.Equal(t, "Bob''s%20list", escapeODataString("Bob's list"))
	assert.Equal(t, "100%2527", escapeODataString("100%27"))
}
