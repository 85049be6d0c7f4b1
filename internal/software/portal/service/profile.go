package service

import (
	"strconv"

	"driver-portal/internal/domain/driver"
	"driver-portal/internal/domain/leaderboard"
	"driver-portal/internal/domain/session"
	"driver-portal/internal/general/contracts"
	"driver-portal/internal/general/eventloop"
)

// Profile owns everything shown after sign-in. gen is bumped on every Load and
// Reset so completions started for a previous profile are dropped.
type Profile struct {
	portal *Portal
	gen    uint64

	driver *driver.Profile
	sess   session.Session

	period   driver.Period
	trips    map[driver.Period]int
	inflight map[driver.Period]bool
	campaign string

	board boardState
	plate plateState
	refs  refData
}

func newProfile(portal *Portal) *Profile {
	return &Profile{
		portal:   portal,
		period:   driver.PeriodAll,
		trips:    map[driver.Period]int{},
		inflight: map[driver.Period]bool{},
	}
}

// Reset drops the profile and every per-session cache, and cancels the leaderboard fetch.
func (profile *Profile) Reset() {
	profile.board.cancelFetch()
	*profile = Profile{
		portal:   profile.portal,
		gen:      profile.gen + 1,
		period:   driver.PeriodAll,
		trips:    map[driver.Period]int{},
		inflight: map[driver.Period]bool{},
	}
}

// Load installs a freshly authenticated driver.
func (profile *Profile) Load(d driver.Profile, sess session.Session) {
	profile.gen++
	if d.City == "" {
		d.City = sess.City
	}
	if d.Phone == "" {
		d.Phone = sess.Phone
	}
	profile.driver = &d
	profile.sess = sess
	profile.period = driver.PeriodAll
	profile.trips = map[driver.Period]int{driver.PeriodAll: d.TripCount}
	profile.inflight = map[driver.Period]bool{}
	profile.campaign = ""
	profile.plate = plateState{}

	profile.portal.auth.countdown.Cancel()
	profile.fetchCampaign()
	profile.portal.renderProfile()
}

// SelectPeriod swaps the trip counter to period, fetching it once when not cached.
func (profile *Profile) SelectPeriod(period driver.Period) {
	if profile.driver == nil || period == profile.period || !period.Valid() {
		return
	}
	profile.period = period
	if _, ok := profile.trips[period]; ok || profile.inflight[period] {
		return
	}

	portal := profile.portal
	profile.inflight[period] = true
	gen := profile.gen

	eventloop.Go(portal.loop, func() (int, error) {
		return portal.api.TripCount(portal.ctx, period)
	}, func(n int, err error) {
		if gen != profile.gen {
			return
		}
		delete(profile.inflight, period)
		if err != nil {
			if !swallowed(err) {
				portal.logger.Error(portal.logCtx(), "trip_count_failed", "Could not load trip count", err, map[string]any{"period": period})
			}
		} else {
			profile.trips[period] = n
		}
		if profile.period == period {
			portal.renderProfile()
		}
	})
}

// TripText is the counter display for the active period: the cached value,
// or "-" when the last fetch failed.
func (profile *Profile) TripText() (text string, loading bool) {
	if n, ok := profile.trips[profile.period]; ok {
		return strconv.Itoa(n), false
	}
	if profile.inflight[profile.period] {
		return "", true
	}
	return driver.NoBalance, false
}

func (profile *Profile) fetchCampaign() {
	portal := profile.portal
	gen := profile.gen

	eventloop.Go(portal.loop, func() (contracts.Campaign, error) {
		return portal.api.Campaign(portal.ctx)
	}, func(c contracts.Campaign, err error) {
		if gen != profile.gen {
			return
		}
		switch {
		case err != nil:
			if swallowed(err) {
				return
			}
			profile.campaign = MsgCampaignFallback
		case c.Active:
			profile.campaign = c.Text
		default:
			profile.campaign = ""
		}
		portal.renderProfile()
	})
}

// myID is the id used to mark the driver's own leaderboard rows.
func (profile *Profile) myID() string {
	if profile.driver == nil {
		return ""
	}
	return profile.driver.ID
}

func (profile *Profile) leaderboardView() leaderboard.View {
	return leaderboard.Render(profile.board.board, profile.myID(), profile.portal.loop.Now())
}
