package zabbix

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adam-huganir/zbx-template-import/pkg/rules"
	"github.com/adam-huganir/zbx-template-import/pkg/testserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, cfg testserver.AuthConfig) *testserver.Server {
	t.Helper()
	srv, err := testserver.New(cfg)
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	return srv
}

func TestImportWithToken(t *testing.T) {
	srv := newServer(t, testserver.AuthConfig{BearerToken: "secret-token"})
	ctx := context.Background()

	c := New(srv.Endpoint())
	c.LoginWithToken("secret-token")

	rs := rules.Build(rules.DefaultFlags())
	result, err := c.Import(ctx, "zabbix_export:\n  version: '7.0'\n", rs)
	require.NoError(t, err)
	assert.Equal(t, "true", string(result))

	calls := srv.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "configuration.import", calls[0].Method)
	assert.Equal(t, "Bearer secret-token", calls[0].Authorization)
	assert.Equal(t, "yaml", calls[0].Params["format"])
	assert.Equal(t, "zabbix_export:\n  version: '7.0'\n", calls[0].Params["source"])

	sentRules, ok := calls[0].Params["rules"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, sentRules, len(rs))
	assert.Equal(t, map[string]any{"createMissing": true, "updateExisting": true}, sentRules["template_groups"])

	// api tokens are not sessions, nothing to log out of
	require.NoError(t, c.Logout(ctx))
	assert.Len(t, srv.Calls(), 1)
}

func TestLoginLogout(t *testing.T) {
	srv := newServer(t, testserver.AuthConfig{Username: "Admin", Password: "zabbix"})
	ctx := context.Background()

	c := New(srv.Endpoint())
	require.NoError(t, c.Login(ctx, "Admin", "zabbix"))

	_, err := c.Import(ctx, "zabbix_export: {}", rules.Build(rules.DefaultFlags()))
	require.NoError(t, err)
	require.NoError(t, c.Logout(ctx))

	calls := srv.Calls()
	assert.Equal(t, []string{"user.login", "configuration.import", "user.logout"}, srv.Methods())
	assert.Empty(t, calls[0].Authorization, "user.login must not carry auth")
	assert.Equal(t, "Bearer "+srv.SessionID, calls[1].Authorization)
	assert.Equal(t, "Bearer "+srv.SessionID, calls[2].Authorization)

	_, err = c.Import(ctx, "zabbix_export: {}", nil)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestLoginFailure(t *testing.T) {
	srv := newServer(t, testserver.AuthConfig{Username: "Admin", Password: "zabbix"})

	c := New(srv.Endpoint())
	err := c.Login(context.Background(), "Admin", "wrong")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, -32602, apiErr.Code)
	assert.Contains(t, err.Error(), "login as Admin failed")
}

func TestImportAPIError(t *testing.T) {
	srv := newServer(t, testserver.AuthConfig{BearerToken: "t"})
	srv.Failures["broken"] = testserver.RPCError{
		Code:    -32500,
		Message: "Application error.",
		Data:    "Invalid tag \"/zabbix_export/templates/template(1)\": unexpected tag \"broken\".",
	}

	c := New(srv.Endpoint())
	c.LoginWithToken("t")
	_, err := c.Import(context.Background(), "zabbix_export:\n  broken: true\n", rules.RuleSet{})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t,
		"Error -32500: Application error., Invalid tag \"/zabbix_export/templates/template(1)\": unexpected tag \"broken\".",
		err.Error(),
	)
}

func TestHTTPStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer ts.Close()

	c := New(ts.URL + "/api_jsonrpc.php")
	c.LoginWithToken("t")
	_, err := c.Import(context.Background(), "x", nil)

	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, "Bad Gateway", statusErr.StatusText())
	assert.Contains(t, err.Error(), "upstream down")
}

func TestTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	c := New(ts.URL+"/api_jsonrpc.php", WithTimeout(50*time.Millisecond))
	c.LoginWithToken("t")
	_, err := c.Import(context.Background(), "x", nil)
	assert.Error(t, err)
}

func TestInsecureSkipVerify(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","result":true,"id":1}`))
	}))
	defer srv.Close()

	strict := New(srv.URL)
	strict.LoginWithToken("t")
	_, err := strict.Import(context.Background(), "x", nil)
	assert.Error(t, err, "self-signed certificate must be rejected by default")

	lax := New(srv.URL, WithInsecureSkipVerify(true))
	lax.LoginWithToken("t")
	result, err := lax.Import(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "true", string(result))
}
