package auth

// Step is the active step of the login flow. Exactly one step is active at a time.
type Step string

const (
	StepCitySelection    Step = "CITY_SELECTION"
	StepPhoneEntry       Step = "PHONE_ENTRY"
	StepRegistrationForm Step = "REGISTRATION_FORM"
	StepOtpEntry         Step = "OTP_ENTRY"
	StepAuthenticated    Step = "AUTHENTICATED"
)

// String returns the string representation of the Step.
func (step Step) String() string {
	return string(step)
}

// OtpContext tells which verification endpoint an OTP belongs to.
type OtpContext string

const (
	OtpNone     OtpContext = ""
	OtpLogin    OtpContext = "LOGIN"
	OtpRegister OtpContext = "REGISTER"
)

// String returns the string representation of the OtpContext.
func (ctx OtpContext) String() string {
	return string(ctx)
}
