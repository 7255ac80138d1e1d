//go:build !integration

package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/stretchr/testify/require"

	"o365cli/internal/auth"
	"o365cli/internal/common/retry"
	"o365cli/internal/graph"
)

const (
	siteURL  = "https://contoso.sharepoint.com"
	actionID = "058140e3-0e37-44fc-a1d3-79c487d371a3"
)

// rewriteTransport sends every request to the test server, whatever its host.
type rewriteTransport struct {
	target *url.URL
	client *http.Client
}

func (t *rewriteTransport) Do(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.URL.Scheme = t.target.Scheme
	r.URL.Host = t.target.Host
	r.Host = ""
	return t.client.Do(r)
}

// fakeServer stands in for SharePoint and Azure management. Routes are keyed
// by method and escaped request URI.
type fakeServer struct {
	srv    *httptest.Server
	mu     sync.Mutex
	calls  []string
	bodies []string
	routes map[string]fakeResponse
}

type fakeResponse struct {
	status int
	body   string
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	f := &fakeServer{routes: map[string]fakeResponse{}}
	f.srv = httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		key := r.Method + " " + r.URL.RequestURI()

		f.mu.Lock()
		f.calls = append(f.calls, key)
		f.bodies = append(f.bodies, string(body))
		resp, ok := f.routes[key]
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"odata.error":{"code":"-1","message":{"lang":"en-US","value":"Invalid request: `+key+`"}}}`)
			return
		}
		w.WriteHeader(resp.status)
		_, _ = io.WriteString(w, resp.body)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeServer) on(method, uri string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+uri] = fakeResponse{status: status, body: body}
}

func (f *fakeServer) onContextInfo() {
	f.on(http.MethodPost, "/_api/contextinfo", http.StatusOK, `{"FormDigestValue":"ABC","FormDigestTimeoutSeconds":1800}`)
}

func (f *fakeServer) requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeServer) transport() policy.Transporter {
	target, _ := url.Parse(f.srv.URL)
	return &rewriteTransport{target: target, client: f.srv.Client()}
}

// fakeCredential hands out a fixed token and counts calls.
type fakeCredential struct {
	token string
	calls int
}

func (f *fakeCredential) GetToken(context.Context, policy.TokenRequestOptions) (azcore.AccessToken, error) {
	f.calls++
	return azcore.AccessToken{Token: f.token, ExpiresOn: time.Now().Add(time.Hour)}, nil
}

type fakeConfirmer struct {
	answer   bool
	messages []string
}

func (f *fakeConfirmer) Confirm(message string) (bool, error) {
	f.messages = append(f.messages, message)
	return f.answer, nil
}

type fakeSites struct {
	site *graph.Site
	err  error
	urls []string
}

func (f *fakeSites) GetSite(_ context.Context, u string) (*graph.Site, error) {
	f.urls = append(f.urls, u)
	return f.site, f.err
}

// testCLI runs o365 against fakes with an isolated connection store.
type testCLI struct {
	t         *testing.T
	rt        *Runtime
	stdout    *bytes.Buffer
	stderr    *bytes.Buffer
	server    *fakeServer
	cred      *fakeCredential
	confirmer *fakeConfirmer
	sites     *fakeSites
	store     *auth.Store
}

func newTestCLI(t *testing.T) *testCLI {
	t.Helper()
	text.DisableColors()

	dir := t.TempDir()
	storePath := filepath.Join(dir, "connections.json")
	t.Setenv("O365_CONNECTION_FILE", storePath)
	t.Setenv("O365_AUDIT", "false")
	t.Setenv("O365_MAX_RETRIES", "0")

	tc := &testCLI{
		t:         t,
		stdout:    &bytes.Buffer{},
		stderr:    &bytes.Buffer{},
		server:    newFakeServer(t),
		cred:      &fakeCredential{token: testToken(t)},
		confirmer: &fakeConfirmer{},
		sites:     &fakeSites{},
		store:     auth.NewStore(storePath),
	}
	tc.rt = &Runtime{
		Stdout:        tc.stdout,
		Stderr:        tc.stderr,
		Stdin:         strings.NewReader(""),
		NewCredential: func(auth.CredentialOptions) (azcore.TokenCredential, error) { return tc.cred, nil },
		Transport:     tc.server.transport(),
		Confirmer:     tc.confirmer,
		Now:           time.Now,
		NewSiteGetter: func(azcore.TokenCredential, retry.Policy) (siteGetter, error) { return tc.sites, nil },
		ConfigFile:    filepath.Join(dir, "config.yaml"),
	}
	return tc
}

func (tc *testCLI) run(args ...string) error {
	tc.stdout.Reset()
	tc.stderr.Reset()
	return newApp(tc.rt).RunContext(context.Background(), append([]string{"o365"}, args...))
}

// connect stores an active connection whose cached token is still valid.
func (tc *testCLI) connect(service auth.Service) {
	tc.t.Helper()
	resource, err := auth.ResourceFor(service, siteURL)
	require.NoError(tc.t, err)
	conn := &auth.Connection{
		Service:     service,
		Connected:   true,
		Resource:    resource,
		TenantID:    "0d6f2d07-7d3c-4a0b-8b5b-2b0f1a6c9a11",
		UserName:    "admin@contoso.onmicrosoft.com",
		AuthType:    auth.AuthDeviceCode,
		AppID:       auth.DefaultAppID,
		Tenant:      auth.DefaultTenant,
		AccessToken: "cached-access-token-0123456789",
		ExpiresOn:   time.Now().Add(time.Hour),
	}
	if service == auth.ServiceSharePoint {
		conn.URL = siteURL
	}
	require.NoError(tc.t, tc.store.Save(conn))
}

func testToken(t *testing.T) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"tid": "0d6f2d07-7d3c-4a0b-8b5b-2b0f1a6c9a11",
		"upn": "admin@contoso.onmicrosoft.com",
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return s
}
