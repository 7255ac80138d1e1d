//go:build !integration

package graph

import (
	"errors"
	"testing"
	"time"

	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/microsoftgraph/msgraph-sdk-go/models/odataerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiteID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://contoso.sharepoint.com", "contoso.sharepoint.com"},
		{"https://contoso.sharepoint.com/", "contoso.sharepoint.com"},
		{"https://contoso.sharepoint.com/sites/team", "contoso.sharepoint.com:/sites/team"},
		{"https://contoso.sharepoint.com/sites/team/", "contoso.sharepoint.com:/sites/team"},
	}
	for _, tt := range tests {
		got, err := SiteID(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := SiteID("team")
	assert.EqualError(t, err, "team is not a valid SharePoint Online site URL")
}

func TestFromModel(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	id := "contoso.sharepoint.com,2C712604-1370-44E7-A1F5-426573FDA80A,2D2244C3-251A-49EA-93A8-39E1C3A060FE"
	name, display, web := "team", "Team Site", "https://contoso.sharepoint.com/sites/team"

	m := models.NewSite()
	m.SetId(&id)
	m.SetName(&name)
	m.SetDisplayName(&display)
	m.SetWebUrl(&web)
	m.SetCreatedDateTime(&created)

	site := fromModel(m)
	assert.Equal(t, id, site.ID)
	assert.Equal(t, "Team Site", site.DisplayName)
	assert.Equal(t, "", site.Description)

	props := site.Map()
	assert.Equal(t, "2026-01-02T03:04:05Z", props["createdDateTime"])
	assert.Equal(t, web, props["webUrl"])
}

func TestUnwrap(t *testing.T) {
	plain := errors.New("dial tcp: timeout")
	assert.Same(t, plain, Unwrap(plain))

	msg, code := "Requested site could not be found", "itemNotFound"
	main := odataerrors.NewMainError()
	main.SetMessage(&msg)
	main.SetCode(&code)
	oe := odataerrors.NewODataError()
	oe.SetErrorEscaped(main)

	assert.EqualError(t, Unwrap(oe), "Requested site could not be found")

	empty := odataerrors.NewODataError()
	assert.Same(t, error(empty), Unwrap(empty))
}
