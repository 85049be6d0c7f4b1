package service

import (
	"driver-portal/internal/domain/auth"
	"driver-portal/internal/domain/driver"
)

// act runs fn on the loop and re-renders the active screen.
func (portal *Portal) act(fn func()) {
	portal.loop.Post(func() {
		fn()
		portal.render()
	})
}

// authAct is act for auth-flow input. Input is dropped while a stored session
// is being validated, since a step change would orphan the restore.
func (portal *Portal) authAct(fn func()) {
	portal.act(func() {
		if portal.auth.restoring {
			portal.logger.Debug(portal.ctx, "auth_input_ignored", "Session restore in progress", nil)
			return
		}
		fn()
	})
}

// ----- Auth flow -----

func (portal *Portal) SelectCity(city string) {
	portal.authAct(func() { portal.auth.selectCity(city) })
}

func (portal *Portal) ChangeCity() { portal.authAct(portal.auth.changeCity) }

func (portal *Portal) SetPhone(input string) {
	portal.authAct(func() { portal.auth.setPhone(input) })
}

func (portal *Portal) Login() { portal.authAct(portal.auth.login) }

func (portal *Portal) GoToRegister() { portal.authAct(portal.auth.goToRegister) }

func (portal *Portal) SetRegistrationField(field, value string) {
	portal.authAct(func() { portal.auth.setField(field, value) })
}

func (portal *Portal) Register() { portal.authAct(portal.auth.register) }

func (portal *Portal) Back() { portal.authAct(portal.auth.back) }

func (portal *Portal) OtpInput(index int, value string) {
	portal.authAct(func() { portal.auth.otpInput(index, value) })
}

func (portal *Portal) OtpBackspace(index int) {
	portal.authAct(func() { portal.auth.otpBackspace(index) })
}

func (portal *Portal) OtpPaste(text string) {
	portal.authAct(func() { portal.auth.otpPaste(text) })
}

func (portal *Portal) Verify() { portal.authAct(portal.auth.verify) }

func (portal *Portal) Resend() { portal.authAct(portal.auth.resend) }

// Submit is the enter key: it triggers the primary action of the active step.
func (portal *Portal) Submit() {
	portal.authAct(func() {
		if portal.auth.step != auth.StepAuthenticated {
			portal.auth.submit()
		}
	})
}

// ----- Profile -----

func (portal *Portal) SelectPeriod(period string) {
	portal.act(func() {
		p, err := driver.ParsePeriod(period)
		if err != nil {
			portal.logger.Debug(portal.logCtx(), "period_ignored", "Unknown trip period", map[string]any{"period": period})
			return
		}
		portal.profile.SelectPeriod(p)
	})
}

func (portal *Portal) OpenLeaderboard() { portal.act(portal.profile.OpenLeaderboard) }

func (portal *Portal) CloseLeaderboard() { portal.act(portal.profile.CloseLeaderboard) }

func (portal *Portal) RetryLeaderboard() { portal.act(portal.profile.RetryLeaderboard) }

func (portal *Portal) OpenPlateEditor() { portal.act(portal.profile.OpenPlateEditor) }

func (portal *Portal) CheckPlate(plate string) {
	portal.act(func() { portal.profile.CheckPlate(plate) })
}

func (portal *Portal) ConfirmExistingCar() { portal.act(portal.profile.ConfirmExistingCar) }

func (portal *Portal) SaveNewCar(brand, model, year string) {
	portal.act(func() { portal.profile.SaveNewCar(brand, model, year) })
}

func (portal *Portal) ClosePlateEditor() { portal.act(portal.profile.ClosePlateEditor) }
