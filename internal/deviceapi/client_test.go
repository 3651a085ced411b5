package deviceapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/edirooss/mtsync/internal/action"
	"github.com/edirooss/mtsync/internal/config"
	"github.com/edirooss/mtsync/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	c := New(config.Settings{Hostname: u.Host, Username: "admin", Password: "secret"}, "test-run-id", zaptest.NewLogger(t))
	c.base.Scheme = "http"
	return c, srv
}

func TestGetCollectionSendsProplistAndAuth(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "false", r.URL.Query().Get("dynamic"))
		assert.Equal(t, ".id,k", r.URL.Query().Get(".proplist"))
		assert.Equal(t, "test-run-id", r.Header.Get("X-Request-ID"))

		w.Write([]byte(`[{".id":"*1","k":"v"}]`))
	})

	items, err := c.GetCollection(context.Background(), "/ip/firewall/filter", []string{".id", "k"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "v", items[0]["k"])
}

func TestGetCollectionEmptyBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	items, err := c.GetCollection(context.Background(), "/interface", []string{".id"})
	require.NoError(t, err)
	assert.Nil(t, items)
}

func TestGetLeaf(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"rp-filter":"no"}`))
	})

	item, err := c.GetLeaf(context.Background(), "/ip/settings")
	require.NoError(t, err)
	assert.Equal(t, "no", item["rp-filter"])
}

func TestExecutePatchStripsID(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/rest/ip/firewall/filter/*1", r.URL.Path)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotContains(t, body, model.IDKey)
		assert.Equal(t, "drop", body["action"])
		w.Write([]byte(`{}`))
	})

	resp, err := c.Execute(context.Background(), action.Action{
		Kind:    action.PATCH,
		Path:    "/ip/firewall/filter/*1",
		SetDict: model.Item{model.IDKey: "*1", "action": "drop"},
	})
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestExecuteDeleteHasNoBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
	})

	resp, err := c.Execute(context.Background(), action.Action{Kind: action.DELETE, Path: "/ip/firewall/filter/*1"})
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestExecuteSurfacesDeviceError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":400,"message":"bad request","detail":"no such command"}`))
	})

	resp, err := c.Execute(context.Background(), action.Action{
		Kind: action.POST,
		Path: "/ip/firewall/nat/move",
		SetDict: model.Item{"numbers": "*2", "destination": "*1"},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "bad request", resp.Error)
	assert.Equal(t, "no such command", resp.Detail)
}

func TestExecuteServerErrorStatus(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	})

	_, err := c.Execute(context.Background(), action.Action{Kind: action.PUT, Path: "/ip/firewall/filter"})
	assert.Error(t, err)
}
