package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/team-ns/launcher/internal/auth"
	"github.com/team-ns/launcher/internal/logger"
	"github.com/team-ns/launcher/internal/protocol"
	"github.com/team-ns/launcher/internal/secure"
	"github.com/team-ns/launcher/pkg/metrics"
)

// Error messages on the session channel. The launcher matches these strings,
// so they are part of the wire contract.
const (
	msgAuthFailed       = "Incorrect login or password"
	msgAccessTokenError = "Access token error"
	msgNotConnected     = "Client info was not negotiated"
)

func (sess *session) handleAuth(ctx context.Context, req *protocol.Request) (protocol.Response, error) {
	body, err := protocol.DecodeBody[protocol.Auth](req.Body)
	if err != nil {
		return protocol.Response{}, err
	}

	password, err := secure.DecryptPassword(sess.srv.keys, body.Password)
	if err != nil {
		return protocol.Response{}, err
	}

	id, err := sess.srv.provider.Auth(ctx, body.Login, password, sess.client.IP)
	if err != nil {
		if errors.Is(err, auth.ErrAuthFailed) {
			metrics.ObserveAuthFailure()
			logger.Info("login rejected",
				logger.Username(body.Login), logger.ClientIP(sess.client.IP))
			return protocol.Response{}, errors.New(msgAuthFailed)
		}
		logger.Error("auth backend failed", logger.Err(err))
		return protocol.Response{}, errors.New("authentication backend unavailable")
	}

	token := secure.NewAccessToken()
	if err := sess.srv.provider.SetAccessToken(ctx, id, token); err != nil {
		logger.Error("store access token failed", logger.KeyUUID, id, logger.Err(err))
		return protocol.Response{}, errors.New("authentication backend unavailable")
	}
	// A join proved under a previous token must not outlive it.
	if err := sess.srv.provider.SetServerID(ctx, id, ""); err != nil {
		logger.Error("clear server id failed", logger.KeyUUID, id, logger.Err(err))
		return protocol.Response{}, errors.New("authentication backend unavailable")
	}

	sess.client.Username = body.Login
	sess.client.UUID = id
	sess.client.AccessToken = token

	logger.Info("login accepted",
		logger.Username(body.Login), logger.KeyUUID, id, logger.ClientIP(sess.client.IP))
	return protocol.NewResponse(req.ID, protocol.MsgAuth,
		protocol.AuthResult{UUID: id, AccessToken: token})
}

func (sess *session) handleConnected(req *protocol.Request) (protocol.Response, error) {
	body, err := protocol.DecodeBody[protocol.Connected](req.Body)
	if err != nil {
		return protocol.Response{}, err
	}
	if !body.Info.OsType.Valid() {
		return protocol.Response{}, fmt.Errorf("unknown os type %q", body.Info.OsType)
	}
	if sess.client.Info != nil && *sess.client.Info != body.Info {
		return protocol.Response{}, errors.New("client info is already negotiated")
	}
	sess.client.Info = &body.Info
	logger.Debug("client info negotiated",
		logger.KeyOs, string(body.Info.OsType), logger.ClientIP(sess.client.IP))
	return protocol.NewResponse(req.ID, protocol.MsgEmpty, struct{}{})
}

func (sess *session) handleProfilesInfo(req *protocol.Request) (protocol.Response, error) {
	if sess.client.Info == nil {
		return protocol.Response{}, errors.New(msgNotConnected)
	}
	infos := sess.srv.catalog.ListInfo(sess.client.Info.OsType)
	return protocol.NewResponse(req.ID, protocol.MsgProfilesInfo,
		protocol.ProfilesInfo{Profiles: infos})
}

// handleProfile returns the profile descriptor with the JVM arguments of
// every relevant optional appended in declaration order.
func (sess *session) handleProfile(req *protocol.Request) (protocol.Response, error) {
	body, err := protocol.DecodeBody[protocol.ProfileRequest](req.Body)
	if err != nil {
		return protocol.Response{}, err
	}
	if sess.client.Info == nil {
		return protocol.Response{}, errors.New(msgNotConnected)
	}

	data, err := sess.srv.catalog.Get(body.Profile)
	if err != nil {
		return protocol.Response{}, err
	}

	prof := data.Profile
	prof.JvmArgs = append([]string(nil), prof.JvmArgs...)
	for _, opt := range data.RelevantOptionals(sess.client.Info.OsType, body.Optionals) {
		prof.JvmArgs = append(prof.JvmArgs, opt.ExtraJvmArgs()...)
	}

	return protocol.NewResponse(req.ID, protocol.MsgProfile,
		protocol.ProfileResult{Profile: prof})
}

func (sess *session) handleProfileResources(req *protocol.Request) (protocol.Response, error) {
	body, err := protocol.DecodeBody[protocol.ProfileResourcesRequest](req.Body)
	if err != nil {
		return protocol.Response{}, err
	}
	if !body.OsType.Valid() {
		return protocol.Response{}, fmt.Errorf("unknown os type %q", body.OsType)
	}

	resources, err := sess.srv.profileResources(body.Profile, body.OsType, body.Optionals)
	if err != nil {
		return protocol.Response{}, err
	}
	return protocol.NewResponse(req.ID, protocol.MsgProfileResources, resources)
}

// handleJoinServer validates the join proof against the session-held token
// and records the server id on the entry.
func (sess *session) handleJoinServer(ctx context.Context, req *protocol.Request) (protocol.Response, error) {
	body, err := protocol.DecodeBody[protocol.JoinServer](req.Body)
	if err != nil {
		return protocol.Response{}, err
	}
	if !sess.client.Authed() {
		return protocol.Response{}, errors.New(msgAccessTokenError)
	}

	entry, err := sess.srv.provider.EntryByUUID(ctx, body.UUID)
	if err != nil {
		if errors.Is(err, auth.ErrEntryNotFound) {
			return protocol.Response{}, errors.New(msgAccessTokenError)
		}
		logger.Error("entry lookup failed", logger.KeyUUID, body.UUID, logger.Err(err))
		return protocol.Response{}, errors.New("authentication backend unavailable")
	}
	if entry.AccessToken == "" || entry.AccessToken != body.AccessToken {
		return protocol.Response{}, errors.New(msgAccessTokenError)
	}

	if err := sess.srv.provider.SetServerID(ctx, body.UUID, body.ServerID); err != nil {
		logger.Error("store server id failed", logger.KeyUUID, body.UUID, logger.Err(err))
		return protocol.Response{}, errors.New("authentication backend unavailable")
	}

	logger.Info("join recorded", logger.Username(entry.Username),
		logger.KeyServerID, body.ServerID)
	return protocol.NewResponse(req.ID, protocol.MsgEmpty, struct{}{})
}

// handleCustom offers the payload to the extension pipeline.
func (sess *session) handleCustom(req *protocol.Request) (protocol.Response, error) {
	body, err := protocol.DecodeBody[protocol.Custom](req.Body)
	if err != nil {
		return protocol.Response{}, err
	}
	for _, ext := range sess.srv.extensions {
		if reply, handled := ext.HandleCustom(sess.client, body.Payload); handled {
			return protocol.NewResponse(req.ID, protocol.MsgRuntime,
				protocol.Runtime{Payload: reply})
		}
	}
	return protocol.Response{}, errors.New("no extension handles the message")
}
