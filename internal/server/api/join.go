package api

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/team-ns/launcher/internal/auth"
	"github.com/team-ns/launcher/internal/logger"
)

// joinRequest is posted by the game client through its session server.
type joinRequest struct {
	AccessToken     string `json:"accessToken"`
	ServerID        string `json:"serverId"`
	SelectedProfile string `json:"selectedProfile"`
}

// handleJoin validates the access token for the selected profile and records
// the server id as the pending join proof.
func (a *API) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "IllegalArgumentException", "malformed join request")
		return
	}

	id, err := uuid.Parse(req.SelectedProfile)
	if err != nil {
		writeError(w, http.StatusBadRequest, "IllegalArgumentException", "malformed profile id")
		return
	}

	entry, err := a.provider.EntryByUUID(r.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrEntryNotFound) {
			writeError(w, http.StatusForbidden, "ForbiddenOperationException", "Invalid token.")
			return
		}
		logger.Error("entry lookup failed", logger.KeyUUID, id, logger.Err(err))
		writeError(w, http.StatusInternalServerError, "InternalServerError", "backend unavailable")
		return
	}
	if entry.AccessToken == "" || entry.AccessToken != req.AccessToken {
		writeError(w, http.StatusForbidden, "ForbiddenOperationException", "Invalid token.")
		return
	}

	if err := a.provider.SetServerID(r.Context(), id, req.ServerID); err != nil {
		logger.Error("store server id failed", logger.KeyUUID, id, logger.Err(err))
		writeError(w, http.StatusInternalServerError, "InternalServerError", "backend unavailable")
		return
	}

	logger.Debug("join proof stored",
		logger.Username(entry.Username), logger.KeyServerID, req.ServerID)
	w.WriteHeader(http.StatusOK)
}

// handleHasJoined answers the game server's side of the join handshake: the
// proof matches when the stored server id equals the queried one.
func (a *API) handleHasJoined(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	serverID := r.URL.Query().Get("serverId")
	if username == "" || serverID == "" {
		writeError(w, http.StatusBadRequest, "IllegalArgumentException", "username and serverId are required")
		return
	}

	entry, err := a.provider.EntryByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, auth.ErrEntryNotFound) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		logger.Error("entry lookup failed", logger.Username(username), logger.Err(err))
		writeError(w, http.StatusInternalServerError, "InternalServerError", "backend unavailable")
		return
	}
	if entry.ServerID == "" || entry.ServerID != serverID {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, a.playerProfile(entry))
}

// playerProfile is the hasJoined response body.
type playerProfile struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Properties []profileProperty `json:"properties"`
}

type profileProperty struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// texturePayload is the decoded form of the textures property value.
type texturePayload struct {
	Timestamp   int64                  `json:"timestamp"`
	ProfileID   string                 `json:"profileId"`
	ProfileName string                 `json:"profileName"`
	Textures    map[string]textureSpec `json:"textures"`
}

type textureSpec struct {
	URL string `json:"url"`
}

func (a *API) playerProfile(entry auth.Entry) playerProfile {
	id := simpleUUID(entry.UUID)

	textures := make(map[string]textureSpec)
	if url := a.textureURL(a.textures.SkinURL, entry); url != "" {
		textures["SKIN"] = textureSpec{URL: url}
	}
	if url := a.textureURL(a.textures.CapeURL, entry); url != "" {
		textures["CAPE"] = textureSpec{URL: url}
	}

	payload, err := json.Marshal(texturePayload{
		Timestamp:   time.Now().UnixMilli(),
		ProfileID:   id,
		ProfileName: entry.Username,
		Textures:    textures,
	})
	if err != nil {
		// The payload is built from plain strings; this cannot fail.
		panic(err)
	}

	return playerProfile{
		ID:   id,
		Name: entry.Username,
		Properties: []profileProperty{{
			Name:  "textures",
			Value: base64.StdEncoding.EncodeToString(payload),
		}},
	}
}

// textureURL expands the {username} and {uuid} placeholders of a template.
func (a *API) textureURL(template string, entry auth.Entry) string {
	if template == "" {
		return ""
	}
	url := strings.ReplaceAll(template, "{username}", entry.Username)
	return strings.ReplaceAll(url, "{uuid}", simpleUUID(entry.UUID))
}

// simpleUUID renders a uuid as 32 lowercase hex digits without dashes.
func simpleUUID(id uuid.UUID) string {
	return hex.EncodeToString(id[:])
}
