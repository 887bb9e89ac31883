package connect

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/osa030/slidebox/internal/app/player"
)

// PlayerServiceClient is a client for the PlayerService.
type PlayerServiceClient struct {
	getStatus       *connect.Client[emptypb.Empty, structpb.Struct]
	togglePlayPause *connect.Client[emptypb.Empty, structpb.Struct]
	reload          *connect.Client[wrapperspb.StringValue, structpb.Struct]
}

// NewPlayerServiceClient creates a client for the service at baseURL,
// for example http://localhost:8080.
func NewPlayerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PlayerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	return &PlayerServiceClient{
		getStatus:       connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+GetStatusProcedure, opts...),
		togglePlayPause: connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+TogglePlayPauseProcedure, opts...),
		reload:          connect.NewClient[wrapperspb.StringValue, structpb.Struct](httpClient, baseURL+ReloadProcedure, opts...),
	}
}

// GetStatus returns the player status.
func (c *PlayerServiceClient) GetStatus(ctx context.Context) (player.Status, error) {
	return decodeResponse(c.getStatus.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{})))
}

// TogglePlayPause flips between playing and paused.
func (c *PlayerServiceClient) TogglePlayPause(ctx context.Context) (player.Status, error) {
	return decodeResponse(c.togglePlayPause.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{})))
}

// Reload refetches the playlists of screenKey; empty keeps the current screen.
func (c *PlayerServiceClient) Reload(ctx context.Context, screenKey string) (player.Status, error) {
	return decodeResponse(c.reload.CallUnary(ctx, connect.NewRequest(wrapperspb.String(screenKey))))
}

func decodeResponse(resp *connect.Response[structpb.Struct], err error) (player.Status, error) {
	if err != nil {
		return player.Status{}, err
	}
	return DecodeStatus(resp.Msg)
}
