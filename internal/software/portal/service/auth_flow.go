package service

import (
	"strings"

	"driver-portal/internal/domain/auth"
	"driver-portal/internal/domain/session"
	"driver-portal/internal/general/apiclient"
	"driver-portal/internal/general/contracts"
	"driver-portal/internal/general/eventloop"
)

// ResendSeconds is the cooldown between OTP sends.
const ResendSeconds = 60

// AuthFlow is the city -> phone/register -> OTP state machine. Every step change
// bumps epoch; a completion carrying an older epoch is dropped.
type AuthFlow struct {
	portal *Portal

	step   auth.Step
	otpCtx auth.OtpContext
	epoch  uint64
	busy   bool
	err    string

	city        string
	phoneDigits string
	form        auth.Registration

	otp       auth.OtpCells
	otpPhone  string // wire format
	countdown *eventloop.Countdown
	resendIn  int

	restoring bool
	canRetry  bool
}

func newAuthFlow(portal *Portal) *AuthFlow {
	return &AuthFlow{
		portal:    portal,
		step:      auth.StepCitySelection,
		countdown: eventloop.NewCountdown(portal.loop),
	}
}

// Reset returns the flow to city selection and drops all inputs.
func (flow *AuthFlow) Reset() {
	flow.countdown.Cancel()
	*flow = AuthFlow{
		portal:    flow.portal,
		step:      auth.StepCitySelection,
		epoch:     flow.epoch + 1,
		countdown: flow.countdown,
	}
}

// moveTo changes the active step and invalidates in-flight submissions.
func (flow *AuthFlow) moveTo(step auth.Step, otpCtx auth.OtpContext) {
	if flow.step == auth.StepOtpEntry && step != auth.StepOtpEntry {
		flow.countdown.Cancel()
		flow.resendIn = 0
		flow.otp.Clear()
	}
	flow.step = step
	flow.otpCtx = otpCtx
	flow.epoch++
	flow.busy = false
	flow.err = ""
	flow.canRetry = false
	flow.restoring = false
}

func (flow *AuthFlow) enterAuthenticated() {
	flow.moveTo(auth.StepAuthenticated, auth.OtpNone)
	flow.phoneDigits = ""
	flow.form = auth.Registration{}
}

// ----- Enable predicates -----

func (flow *AuthFlow) CanLogin() bool {
	return flow.step == auth.StepPhoneEntry && auth.PhoneComplete(flow.phoneDigits)
}

func (flow *AuthFlow) CanRegister() bool {
	return flow.step == auth.StepRegistrationForm && flow.form.Complete()
}

func (flow *AuthFlow) CanVerify() bool {
	return flow.step == auth.StepOtpEntry && flow.otp.Complete()
}

func (flow *AuthFlow) CanResend() bool {
	return flow.step == auth.StepOtpEntry && !flow.countdown.Active() && !flow.busy
}

// ----- Transitions -----

func (flow *AuthFlow) selectCity(city string) {
	city = strings.TrimSpace(city)
	if flow.step != auth.StepCitySelection || city == "" {
		return
	}
	flow.city = city
	flow.moveTo(auth.StepPhoneEntry, auth.OtpNone)
}

func (flow *AuthFlow) changeCity() {
	if flow.step != auth.StepPhoneEntry {
		return
	}
	flow.city = ""
	flow.phoneDigits = ""
	flow.moveTo(auth.StepCitySelection, auth.OtpNone)
}

func (flow *AuthFlow) setPhone(input string) {
	if flow.step != auth.StepPhoneEntry {
		return
	}
	flow.phoneDigits = capDigits(input, auth.NationalDigits)
}

func (flow *AuthFlow) goToRegister() {
	if flow.step != auth.StepPhoneEntry {
		return
	}
	if flow.form.Phone == "" {
		flow.form.Phone = flow.phoneDigits
	}
	flow.moveTo(auth.StepRegistrationForm, auth.OtpNone)
}

func (flow *AuthFlow) setField(field, value string) {
	if flow.step != auth.StepRegistrationForm {
		return
	}
	switch field {
	case auth.FieldPhone:
		value = capDigits(value, auth.NationalDigits)
	case auth.FieldNationalID:
		value = capDigits(value, auth.NationalIDDigits)
	}
	if err := flow.form.Set(field, value); err != nil {
		flow.portal.logger.Debug(flow.portal.ctx, "registration_field_ignored", "Unknown registration field", map[string]any{"field": field})
	}
}

func (flow *AuthFlow) back() {
	switch flow.step {
	case auth.StepPhoneEntry:
		flow.changeCity()
	case auth.StepRegistrationForm:
		flow.form = auth.Registration{}
		flow.moveTo(auth.StepPhoneEntry, auth.OtpNone)
	case auth.StepOtpEntry:
		if flow.otpCtx == auth.OtpRegister {
			flow.moveTo(auth.StepRegistrationForm, auth.OtpNone)
			return
		}
		flow.moveTo(auth.StepPhoneEntry, auth.OtpNone)
	}
}

func (flow *AuthFlow) submit() {
	switch flow.step {
	case auth.StepPhoneEntry:
		if flow.CanLogin() {
			flow.login()
		}
	case auth.StepRegistrationForm:
		flow.register()
	case auth.StepOtpEntry:
		if flow.CanVerify() {
			flow.verify()
		}
	}
}

// ----- Submissions -----

func (flow *AuthFlow) login() {
	if flow.step != auth.StepPhoneEntry || flow.busy {
		return
	}
	phone, err := auth.NormalizePhone(flow.phoneDigits)
	if err != nil {
		flow.err = errorText(validationFailure(err), MsgPhoneInvalid, MsgUnreachable)
		return
	}

	portal := flow.portal
	city := flow.city
	flow.busy = true
	flow.err = ""
	epoch := flow.epoch

	eventloop.Go(portal.loop, func() (struct{}, error) {
		return struct{}{}, portal.api.Login(portal.ctx, phone, city)
	}, func(_ struct{}, err error) {
		if epoch != flow.epoch {
			return
		}
		flow.busy = false
		if err != nil {
			flow.err = errorText(err, MsgOtpNotSent, MsgUnreachable)
			portal.renderAuth()
			return
		}
		portal.logger.Info(portal.ctx, "otp_requested", "Login OTP sent", map[string]any{"city": city})
		flow.enterOtp(auth.OtpLogin, phone)
		portal.renderAuth()
	})
}

func (flow *AuthFlow) register() {
	if flow.step != auth.StepRegistrationForm || flow.busy {
		return
	}
	if err := flow.form.Validate(); err != nil {
		flow.err = errorText(validationFailure(err), MsgRequiredFields, MsgUnreachable)
		return
	}
	phone, _ := auth.NormalizePhone(flow.form.Phone)

	portal := flow.portal
	body := contracts.NewRegisterRequest(phone, flow.city, flow.form)
	flow.busy = true
	flow.err = ""
	epoch := flow.epoch

	eventloop.Go(portal.loop, func() (struct{}, error) {
		return struct{}{}, portal.api.RequestRegistrationOtp(portal.ctx, body)
	}, func(_ struct{}, err error) {
		if epoch != flow.epoch {
			return
		}
		flow.busy = false
		if err != nil {
			flow.err = errorText(err, MsgOtpNotSent, MsgUnreachable)
			portal.renderAuth()
			return
		}
		portal.logger.Info(portal.ctx, "registration_otp_requested", "Registration OTP sent", map[string]any{"city": body.City})
		flow.enterOtp(auth.OtpRegister, phone)
		portal.renderAuth()
	})
}

func (flow *AuthFlow) enterOtp(otpCtx auth.OtpContext, phone string) {
	flow.moveTo(auth.StepOtpEntry, otpCtx)
	flow.otp.Clear()
	flow.otpPhone = phone
	flow.startCountdown()
}

func (flow *AuthFlow) startCountdown() {
	flow.countdown.Start(ResendSeconds, func(left int) {
		flow.resendIn = left
		flow.portal.renderAuth()
	})
}

func (flow *AuthFlow) otpInput(index int, value string) {
	if flow.step == auth.StepOtpEntry {
		flow.otp.Input(index, value)
	}
}

func (flow *AuthFlow) otpBackspace(index int) {
	if flow.step == auth.StepOtpEntry {
		flow.otp.Backspace(index)
	}
}

func (flow *AuthFlow) otpPaste(text string) {
	if flow.step == auth.StepOtpEntry {
		flow.otp.Paste(text)
	}
}

func (flow *AuthFlow) verify() {
	if !flow.CanVerify() || flow.busy {
		return
	}

	portal := flow.portal
	phone, code, otpCtx, city := flow.otpPhone, flow.otp.Code(), flow.otpCtx, flow.city
	flow.busy = true
	flow.err = ""
	epoch := flow.epoch

	eventloop.Go(portal.loop, func() (apiclient.Verified, error) {
		if otpCtx == auth.OtpRegister {
			return portal.api.VerifyRegistration(portal.ctx, phone, code)
		}
		return portal.api.VerifyOtp(portal.ctx, phone, code)
	}, func(v apiclient.Verified, err error) {
		if epoch != flow.epoch {
			return
		}
		flow.busy = false
		if err != nil {
			flow.err = errorText(err, MsgOtpInvalid, MsgUnreachable)
			if isApplication(err) {
				flow.otp.Clear()
			}
			portal.renderAuth()
			return
		}

		sess := session.Session{Token: v.Token, City: city, Phone: phone}
		ctx, cancel := portal.storeCtx()
		if err := portal.store.Save(ctx, sess); err != nil {
			portal.logger.Error(portal.ctx, "session_save_failed", "Could not persist session; it lasts until exit", err, nil)
		}
		cancel()

		event := contracts.EventLoggedIn
		if otpCtx == auth.OtpRegister {
			event = contracts.EventRegistered
		}
		portal.logger.Info(portal.logger.WithDriverID(portal.ctx, v.Profile.ID), "otp_verified", "Driver signed in", map[string]any{"flow": otpCtx.String()})
		portal.signIn(v.Profile, sess, event)
	})
}

func (flow *AuthFlow) resend() {
	if !flow.CanResend() {
		return
	}

	portal := flow.portal
	phone, city, otpCtx := flow.otpPhone, flow.city, flow.otpCtx
	body := contracts.NewRegisterRequest(phone, city, flow.form)
	flow.busy = true
	epoch := flow.epoch

	eventloop.Go(portal.loop, func() (struct{}, error) {
		if otpCtx == auth.OtpRegister {
			return struct{}{}, portal.api.RequestRegistrationOtp(portal.ctx, body)
		}
		return struct{}{}, portal.api.Login(portal.ctx, phone, city)
	}, func(_ struct{}, err error) {
		if epoch != flow.epoch {
			return
		}
		flow.busy = false
		if err != nil {
			flow.err = errorText(err, MsgOtpNotSent, MsgUnreachableShort)
			portal.renderAuth()
			return
		}
		flow.err = ""
		flow.startCountdown()
	})
}

// capDigits strips non-digits and truncates to n.
func capDigits(in string, n int) string {
	d := auth.Digits(in)
	if len(d) > n {
		d = d[:n]
	}
	return d
}
