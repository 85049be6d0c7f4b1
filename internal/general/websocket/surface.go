package websocket

import (
	"context"
	"encoding/json"

	"driver-portal/internal/general/contracts"
	"driver-portal/internal/general/logger"
	"driver-portal/internal/ports"
)

// Render surface names carried in RenderFrame.Surface.
const (
	SurfaceAuth        = "auth"
	SurfaceProfile     = "profile"
	SurfaceLeaderboard = "leaderboard"
	SurfacePlate       = "plate"
)

// Surface pushes every render as a frame on the connection. A failed write is
// logged; the read loop notices the broken socket on its own.
type Surface struct {
	conn     *Conn
	deviceID string
	logger   *logger.Logger
	ctx      context.Context
}

func NewSurface(ctx context.Context, conn *Conn, deviceID string, logger *logger.Logger) *Surface {
	return &Surface{conn: conn, deviceID: deviceID, logger: logger, ctx: ctx}
}

var _ ports.RenderSurface = (*Surface)(nil)

func (s *Surface) RenderAuth(v ports.AuthView) { s.push(SurfaceAuth, v) }
func (s *Surface) RenderProfile(v ports.ProfileView) { s.push(SurfaceProfile, v) }
func (s *Surface) RenderLeaderboard(v ports.LeaderboardView) { s.push(SurfaceLeaderboard, v) }
func (s *Surface) RenderPlate(v ports.PlateView) { s.push(SurfacePlate, v) }

func (s *Surface) push(surface string, view any) {
	raw, err := json.Marshal(view)
	if err != nil {
		s.logger.Error(s.ctx, "render_marshal_failed", "Failed to marshal view", err, map[string]any{"surface": surface})
		return
	}
	frame := contracts.RenderFrame{
		Type:     contracts.FrameRender,
		Surface:  surface,
		DeviceID: s.deviceID,
		View:     raw,
	}
	if err := s.conn.WriteJSON(frame); err != nil {
		s.logger.Debug(s.ctx, "render_send_failed", "Failed to push render frame", map[string]any{"surface": surface, "error": err.Error()})
	}
}
