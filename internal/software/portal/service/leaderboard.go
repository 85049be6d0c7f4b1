package service

import (
	"context"

	"driver-portal/internal/domain/leaderboard"
	"driver-portal/internal/general/eventloop"
)

// boardState is the leaderboard panel. loaded is the load-once flag: it is set
// when a fetch succeeds and cleared only by retry or reset. loading keeps a
// second request from starting while one is in flight.
type boardState struct {
	open    bool
	loaded  bool
	loading bool
	board   leaderboard.Board
	hasData bool
	err     string
	cancel  context.CancelFunc
}

func (board *boardState) cancelFetch() {
	if board.cancel != nil {
		board.cancel()
		board.cancel = nil
	}
}

// OpenLeaderboard shows the panel and fetches the board until one fetch succeeds.
func (profile *Profile) OpenLeaderboard() {
	if profile.driver == nil {
		return
	}
	profile.board.open = true
	if !profile.board.loaded {
		profile.fetchLeaderboard()
	}
}

func (profile *Profile) CloseLeaderboard() {
	profile.board.open = false
}

// RetryLeaderboard clears the load-once flag and fetches again.
func (profile *Profile) RetryLeaderboard() {
	if profile.driver == nil || profile.board.loading {
		return
	}
	profile.board.loaded = false
	profile.board.err = ""
	profile.board.open = true
	profile.fetchLeaderboard()
}

func (profile *Profile) fetchLeaderboard() {
	if profile.board.loading {
		return
	}
	portal := profile.portal
	ctx, cancel := context.WithCancel(portal.ctx)
	profile.board.loading = true
	profile.board.err = ""
	profile.board.cancel = cancel
	gen := profile.gen

	eventloop.Go(portal.loop, func() (leaderboard.Board, error) {
		defer cancel()
		return portal.api.Leaderboard(ctx)
	}, func(b leaderboard.Board, err error) {
		if gen != profile.gen {
			return
		}
		profile.board.loading = false
		profile.board.cancel = nil
		if err != nil {
			if swallowed(err) {
				return
			}
			portal.logger.Error(portal.logCtx(), "leaderboard_failed", "Could not load leaderboard", err, nil)
			profile.board.err = errorText(err, MsgLeaderboardError, MsgUnreachableShort)
		} else {
			profile.board.board = b
			profile.board.hasData = true
			profile.board.loaded = true
		}
		portal.renderLeaderboard()
	})
}
