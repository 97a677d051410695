package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team-ns/launcher/internal/auth"
	"github.com/team-ns/launcher/internal/secure"
	"github.com/team-ns/launcher/pkg/config"
)

// apiFixture holds a REST server with one authenticated player.
type apiFixture struct {
	url      string
	provider auth.Provider
	id       uuid.UUID
	token    string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	ctx := context.Background()

	provider := auth.NewAcceptAny()
	id, err := provider.Auth(ctx, "alice", "pw", "127.0.0.1")
	require.NoError(t, err)
	token := secure.NewAccessToken()
	require.NoError(t, provider.SetAccessToken(ctx, id, token))

	staticDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "hello.txt"), []byte("static body"), 0644))

	a := New(Config{
		Provider:  provider,
		StaticDir: staticDir,
		Textures: config.TexturesConfig{
			SkinURL: "http://tex.test/skins/{username}.png",
			CapeURL: "http://tex.test/capes/{uuid}.png",
		},
	})
	ts := httptest.NewServer(a.Routes())
	t.Cleanup(ts.Close)

	return &apiFixture{url: ts.URL, provider: provider, id: id, token: token}
}

func (f *apiFixture) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(f.url+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (f *apiFixture) join(t *testing.T, token, serverID string) *http.Response {
	t.Helper()
	return f.postJSON(t, "/join", joinRequest{
		AccessToken:     token,
		ServerID:        serverID,
		SelectedProfile: f.id.String(),
	})
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestJoinHandshake(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	resp := f.join(t, f.token, "server-hash-1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	entry, err := f.provider.EntryByUUID(context.Background(), f.id)
	require.NoError(t, err)
	assert.Equal(t, "server-hash-1", entry.ServerID)

	resp, err = http.Get(f.url + "/hasJoined?username=alice&serverId=server-hash-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	prof := decodeJSON[playerProfile](t, resp)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), prof.ID)
	assert.Equal(t, simpleUUID(f.id), prof.ID)
	assert.Equal(t, "alice", prof.Name)
	require.Len(t, prof.Properties, 1)
	require.Equal(t, "textures", prof.Properties[0].Name)

	raw, err := base64.StdEncoding.DecodeString(prof.Properties[0].Value)
	require.NoError(t, err)
	var payload texturePayload
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, prof.ID, payload.ProfileID)
	assert.Equal(t, "alice", payload.ProfileName)
	assert.NotZero(t, payload.Timestamp)
	assert.Equal(t, "http://tex.test/skins/alice.png", payload.Textures["SKIN"].URL)
	assert.Equal(t, "http://tex.test/capes/"+prof.ID+".png", payload.Textures["CAPE"].URL)
}

func TestJoinRejectsBadToken(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	resp := f.join(t, "stale-token", "server-hash-1")
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	body := decodeJSON[apiError](t, resp)
	assert.Equal(t, "ForbiddenOperationException", body.Error)
	assert.Equal(t, "Invalid token.", body.ErrorMessage)
}

func TestJoinRejectsUnknownProfile(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	resp := f.postJSON(t, "/join", joinRequest{
		AccessToken:     f.token,
		ServerID:        "server-hash-1",
		SelectedProfile: uuid.New().String(),
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.postJSON(t, "/join", joinRequest{
		AccessToken:     f.token,
		ServerID:        "server-hash-1",
		SelectedProfile: "not-a-uuid",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHasJoinedMismatches(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	resp := f.join(t, f.token, "server-hash-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cases := []struct {
		name  string
		query string
		want  int
	}{
		{"missing params", "", http.StatusBadRequest},
		{"unknown user", "?username=ghost&serverId=server-hash-1", http.StatusBadRequest},
		{"wrong server id", "?username=alice&serverId=other-hash", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Get(f.url + "/hasJoined" + tc.query)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

// The delegated HTTP broker reports unknown users as refusal messages; the
// handshake must translate those to 400, not to a backend failure.
func TestHasJoinedUnknownUserViaDelegatedBroker(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"message": "user not found"})
	}))
	t.Cleanup(backend.Close)

	broker, err := auth.NewHTTP(auth.HTTPConfig{
		AuthURL:        backend.URL,
		EntryURL:       backend.URL,
		AccessTokenURL: backend.URL,
		ServerIDURL:    backend.URL,
	})
	require.NoError(t, err)
	t.Cleanup(func() { broker.Close() })

	a := New(Config{Provider: broker, StaticDir: t.TempDir()})
	ts := httptest.NewServer(a.Routes())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/hasJoined?username=ghost&serverId=server-hash-1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProfileByUUID(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	resp := f.postJSON(t, "/api/profiles/"+f.id.String(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	prof := decodeJSON[playerProfile](t, resp)
	assert.Equal(t, "alice", prof.Name)

	resp = f.postJSON(t, "/api/profiles/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.postJSON(t, "/api/profiles/garbage", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProfilesByNamesOmitsUnknown(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	resp := f.postJSON(t, "/api/profiles/minecraft", []string{"alice", "ghost"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	refs := decodeJSON[[]nameRef](t, resp)
	require.Len(t, refs, 1)
	assert.Equal(t, "alice", refs[0].Name)
	assert.Equal(t, simpleUUID(f.id), refs[0].ID)
}

func TestFileServer(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	resp, err := http.Get(f.url + "/files/hello.txt")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "static body", string(body))
}
