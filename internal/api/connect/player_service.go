// Package connect provides the Connect RPC control service of the player.
package connect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/osa030/slidebox/internal/app/loader"
	"github.com/osa030/slidebox/internal/app/playback"
	"github.com/osa030/slidebox/internal/app/player"
)

const (
	// PlayerServiceName is the fully-qualified name of the service.
	PlayerServiceName = "slidebox.v1.PlayerService"

	// GetStatusProcedure returns the combined loader and playback status.
	GetStatusProcedure = "/" + PlayerServiceName + "/GetStatus"
	// TogglePlayPauseProcedure flips between playing and paused.
	TogglePlayPauseProcedure = "/" + PlayerServiceName + "/TogglePlayPause"
	// ReloadProcedure refetches the playlists, optionally for another screen.
	ReloadProcedure = "/" + PlayerServiceName + "/Reload"
)

// Player is what the service controls.
type Player interface {
	Status() player.Status
	TogglePlayPause() playback.State
	Reload(ctx context.Context, screenKey string) loader.State
}

// PlayerService implements the PlayerService RPC.
type PlayerService struct {
	player Player
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(p Player) *PlayerService {
	return &PlayerService{player: p}
}

// GetStatus returns the current status.
func (s *PlayerService) GetStatus(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	return statusResponse(s.player.Status())
}

// TogglePlayPause flips between playing and paused.
// It fails with FailedPrecondition when nothing is loaded.
func (s *PlayerService) TogglePlayPause(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	if state := s.player.TogglePlayPause(); state == playback.StateNoMedia {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errors.New("no media loaded"))
	}
	return statusResponse(s.player.Status())
}

// Reload refetches the playlists. An empty screen key keeps the current screen.
// A failed fetch is reported in the status, not as an RPC error.
func (s *PlayerService) Reload(
	ctx context.Context,
	req *connect.Request[wrapperspb.StringValue],
) (*connect.Response[structpb.Struct], error) {
	screenKey := req.Msg.GetValue()
	zlog.Info().Msgf("connect: reload requested: screen=%q", screenKey)
	s.player.Reload(ctx, screenKey)
	return statusResponse(s.player.Status())
}

// NewPlayerServiceHandler builds an HTTP handler serving every procedure of
// the service and returns the path to mount it on.
func NewPlayerServiceHandler(svc *PlayerService, opts ...connect.HandlerOption) (string, http.Handler) {
	getStatus := connect.NewUnaryHandler(GetStatusProcedure, svc.GetStatus, opts...)
	toggle := connect.NewUnaryHandler(TogglePlayPauseProcedure, svc.TogglePlayPause, opts...)
	reload := connect.NewUnaryHandler(ReloadProcedure, svc.Reload, opts...)

	return "/" + PlayerServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case GetStatusProcedure:
			getStatus.ServeHTTP(w, r)
		case TogglePlayPauseProcedure:
			toggle.ServeHTTP(w, r)
		case ReloadProcedure:
			reload.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// EncodeStatus converts a status to its wire form.
func EncodeStatus(status player.Status) (*structpb.Struct, error) {
	fields := map[string]any{}
	if err := mapstructure.Decode(status, &fields); err != nil {
		return nil, errors.Wrap(err, "failed to encode status")
	}
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode status")
	}
	return msg, nil
}

// DecodeStatus converts the wire form back to a status.
func DecodeStatus(msg *structpb.Struct) (player.Status, error) {
	var status player.Status
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &status,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return status, errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(msg.AsMap()); err != nil {
		return status, errors.Wrap(err, "failed to decode status")
	}
	return status, nil
}

func statusResponse(status player.Status) (*connect.Response[structpb.Struct], error) {
	msg, err := EncodeStatus(status)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}
