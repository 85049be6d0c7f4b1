package service

import (
	"driver-portal/internal/domain/auth"
	"driver-portal/internal/domain/driver"
	"driver-portal/internal/ports"
)

// render projects whichever screen is active.
func (portal *Portal) render() {
	if portal.auth.step == auth.StepAuthenticated {
		portal.renderProfile()
		portal.renderLeaderboard()
		portal.renderPlate()
		return
	}
	portal.renderAuth()
}

func (portal *Portal) renderAuth() {
	if portal.surface != nil {
		portal.surface.RenderAuth(portal.AuthView())
	}
}

func (portal *Portal) renderProfile() {
	if portal.surface != nil && portal.profile.driver != nil {
		portal.surface.RenderProfile(portal.ProfileView())
	}
}

func (portal *Portal) renderLeaderboard() {
	if portal.surface != nil && portal.profile.driver != nil {
		portal.surface.RenderLeaderboard(portal.LeaderboardView())
	}
}

func (portal *Portal) renderPlate() {
	if portal.surface != nil && portal.profile.driver != nil {
		portal.surface.RenderPlate(portal.PlateView())
	}
}

// AuthView projects the auth flow. Loop goroutine only.
func (portal *Portal) AuthView() ports.AuthView {
	flow := portal.auth
	v := ports.AuthView{
		Step:        flow.step.String(),
		OtpContext:  flow.otpCtx.String(),
		City:        flow.city,
		Cities:      portal.cities,
		PhoneInput:  auth.FormatPhoneInput(flow.phoneDigits),
		OtpFocus:    flow.otp.Focus(),
		ResendIn:    flow.resendIn,
		CanLogin:    flow.CanLogin(),
		CanRegister: flow.CanRegister(),
		CanVerify:   flow.CanVerify(),
		CanResend:   flow.CanResend(),
		Busy:        flow.busy,
		Restoring:   flow.restoring,
		CanRetry:    flow.canRetry,
		Error:       flow.err,
	}

	if flow.step == auth.StepRegistrationForm || flow.otpCtx == auth.OtpRegister {
		v.Form = registrationForm(flow.form)
	}
	if flow.step == auth.StepOtpEntry {
		v.OtpCells = flow.otp.Cells()
		v.PhoneDisplay = auth.FormatPhoneDisplay(flow.otpPhone)
	}
	return v
}

func registrationForm(r auth.Registration) map[string]string {
	return map[string]string{
		auth.FieldPhone:             auth.FormatPhoneInput(r.Phone),
		auth.FieldNationalID:        r.NationalID,
		auth.FieldFirstName:         r.FirstName,
		auth.FieldLastName:          r.LastName,
		auth.FieldLicenseNumber:     r.LicenseNumber,
		auth.FieldLicenseIssueDate:  r.LicenseIssueDate,
		auth.FieldLicenseExpiryDate: r.LicenseExpiryDate,
		auth.FieldBirthDate:         r.BirthDate,
	}
}

// ProfileView projects the signed-in driver. Loop goroutine only.
func (portal *Portal) ProfileView() ports.ProfileView {
	profile := portal.profile
	if profile.driver == nil {
		return ports.ProfileView{}
	}
	d := profile.driver

	periods := make([]string, 0, 4)
	for _, p := range driver.Periods() {
		periods = append(periods, p.String())
	}
	trips, loading := profile.TripText()

	return ports.ProfileView{
		DriverID:     d.ID,
		Name:         d.DisplayName(),
		Initials:     d.Initials(),
		City:         profile.sess.City,
		Phone:        auth.FormatPhoneDisplay(profile.sess.Phone),
		Car:          d.CarText(),
		CanEditCar:   d.CarID != "",
		Balance:      d.BalanceText(),
		Period:       profile.period.String(),
		Periods:      periods,
		TripCount:    trips,
		TripsLoading: loading,
		Campaign:     profile.campaign,
	}
}

// LeaderboardView projects the leaderboard panel. Loop goroutine only.
func (portal *Portal) LeaderboardView() ports.LeaderboardView {
	b := portal.profile.board
	v := ports.LeaderboardView{
		Open:     b.open,
		Loading:  b.loading,
		Error:    b.err,
		CanRetry: b.err != "",
	}
	if b.loading || b.err != "" || !b.hasData {
		return v
	}

	lv := portal.profile.leaderboardView()
	v.Header = lv.Header
	v.Separator = lv.Separator
	v.Message = lv.Message
	for _, row := range lv.Rows {
		v.Rows = append(v.Rows, ports.LeaderboardRowView{
			Rank:      row.Rank,
			Initials:  row.Initials,
			TripCount: row.TripCount,
			Medal:     string(row.Medal),
			IsMe:      row.IsMe,
			Footer:    row.Footer,
		})
	}
	return v
}

// PlateView projects the car-change sub-flow. Loop goroutine only.
func (portal *Portal) PlateView() ports.PlateView {
	profile := portal.profile
	p := profile.plate
	v := ports.PlateView{
		Step:  string(p.current()),
		Plate: p.input,
		Busy:  p.busy,
		Error: p.err,
	}
	switch p.current() {
	case PlateMatchedCar:
		v.Plate = p.plate
		if p.matched != nil {
			v.Matched = &ports.CarView{
				Brand:  p.matched.Brand,
				Model:  p.matched.Model,
				Year:   p.matched.Year,
				Number: p.matched.Number,
				Text:   p.matched.Describe(),
			}
		}
	case PlateNewCarForm:
		v.Plate = p.plate
		v.Brands = profile.refs.brands
		v.Years = profile.years()
	}
	return v
}
