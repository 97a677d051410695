package client

import (
	"context"

	"github.com/team-ns/launcher/internal/protocol"
	"github.com/team-ns/launcher/pkg/manifest"
	"github.com/team-ns/launcher/pkg/profile"
)

// Auth exchanges a login and sealed password for the session identity.
func (s *Session) Auth(ctx context.Context, login, sealedPassword string) (protocol.AuthResult, error) {
	return call[protocol.AuthResult](ctx, s, protocol.MsgAuth,
		protocol.Auth{Login: login, Password: sealedPassword})
}

// Connected binds the client platform to the session.
func (s *Session) Connected(ctx context.Context, info protocol.ClientInfo) error {
	return callEmpty(ctx, s, protocol.MsgConnected, protocol.Connected{Info: info})
}

// ProfilesInfo lists the profiles visible to this platform.
func (s *Session) ProfilesInfo(ctx context.Context) ([]profile.Info, error) {
	resp, err := call[protocol.ProfilesInfo](ctx, s, protocol.MsgProfilesInfo, struct{}{})
	if err != nil {
		return nil, err
	}
	return resp.Profiles, nil
}

// Profile fetches a profile descriptor with the selection applied.
func (s *Session) Profile(ctx context.Context, name string, optionals []string) (profile.Profile, error) {
	resp, err := call[protocol.ProfileResult](ctx, s, protocol.MsgProfile,
		protocol.ProfileRequest{Profile: name, Optionals: optionals})
	if err != nil {
		return profile.Profile{}, err
	}
	return resp.Profile, nil
}

// ProfileResources fetches the filtered manifests for a profile.
func (s *Session) ProfileResources(ctx context.Context, name string, os manifest.OsType, optionals []string) (protocol.ProfileResources, error) {
	return call[protocol.ProfileResources](ctx, s, protocol.MsgProfileResources,
		protocol.ProfileResourcesRequest{Profile: name, OsType: os, Optionals: optionals})
}

// JoinServer submits an in-game join proof.
func (s *Session) JoinServer(ctx context.Context, proof protocol.JoinServer) error {
	return callEmpty(ctx, s, protocol.MsgJoinServer, proof)
}

// Custom sends a free-form payload to the server's extension pipeline.
func (s *Session) Custom(ctx context.Context, payload string) (string, error) {
	resp, err := call[protocol.Runtime](ctx, s, protocol.MsgCustom,
		protocol.Custom{Payload: payload})
	if err != nil {
		return "", err
	}
	return resp.Payload, nil
}
