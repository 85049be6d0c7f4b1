package ports

// ----- Views projected onto a RenderSurface -----

// AuthView is the render projection of the authentication flow.
type AuthView struct {
	Step         string            `json:"step"`
	OtpContext   string            `json:"otp_context,omitempty"`
	City         string            `json:"city,omitempty"`
	Cities       []string          `json:"cities,omitempty"`
	PhoneInput   string            `json:"phone_input"`
	PhoneDisplay string            `json:"phone_display,omitempty"`
	Form         map[string]string `json:"form,omitempty"`
	OtpCells     []string          `json:"otp_cells,omitempty"`
	OtpFocus     int               `json:"otp_focus"`
	ResendIn     int               `json:"resend_in"`
	CanLogin     bool              `json:"can_login"`
	CanRegister  bool              `json:"can_register"`
	CanVerify    bool              `json:"can_verify"`
	CanResend    bool              `json:"can_resend"`
	Busy         bool              `json:"busy"`
	Restoring    bool              `json:"restoring,omitempty"`
	CanRetry     bool              `json:"can_retry,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// ProfileView is the render projection of the signed-in driver.
type ProfileView struct {
	DriverID     string   `json:"driver_id"`
	Name         string   `json:"name"`
	Initials     string   `json:"initials"`
	City         string   `json:"city"`
	Phone        string   `json:"phone"`
	Car          string   `json:"car"`
	CanEditCar   bool     `json:"can_edit_car"`
	Balance      string   `json:"balance"`
	Period       string   `json:"period"`
	Periods      []string `json:"periods"`
	TripCount    string   `json:"trip_count"`
	TripsLoading bool     `json:"trips_loading"`
	Campaign     string   `json:"campaign,omitempty"`
}

// LeaderboardRowView is one line of the leaderboard.
type LeaderboardRowView struct {
	Rank      int    `json:"rank"`
	Initials  string `json:"initials"`
	TripCount int    `json:"trip_count"`
	Medal     string `json:"medal,omitempty"`
	IsMe      bool   `json:"is_me"`
	Footer    bool   `json:"footer,omitempty"`
}

// LeaderboardView is the render projection of the leaderboard panel.
type LeaderboardView struct {
	Open      bool                 `json:"open"`
	Loading   bool                 `json:"loading"`
	Header    string               `json:"header,omitempty"`
	Rows      []LeaderboardRowView `json:"rows,omitempty"`
	Separator bool                 `json:"separator,omitempty"`
	Message   string               `json:"message,omitempty"`
	Error     string               `json:"error,omitempty"`
	CanRetry  bool                 `json:"can_retry,omitempty"`
}

// CarView is a car record shown in the plate editor.
type CarView struct {
	Brand  string `json:"brand"`
	Model  string `json:"model"`
	Year   int    `json:"year"`
	Number string `json:"number"`
	Text   string `json:"text"`
}

// PlateView is the render projection of the car-change sub-flow.
type PlateView struct {
	Step    string   `json:"step"`
	Plate   string   `json:"plate,omitempty"`
	Matched *CarView `json:"matched,omitempty"`
	Brands  []string `json:"brands,omitempty"`
	Years   []int    `json:"years,omitempty"`
	Busy    bool     `json:"busy"`
	Error   string   `json:"error,omitempty"`
}

// ----- Render surface -----

// RenderSurface receives one-way projections of the portal state. Calls arrive
// on the portal event loop goroutine.
type RenderSurface interface {
	RenderAuth(v AuthView)
	RenderProfile(v ProfileView)
	RenderLeaderboard(v LeaderboardView)
	RenderPlate(v PlateView)
}

// ----- Portal Service Interface -----

// PortalService is the boundary the front-ends drive. Every method only posts
// work onto the portal event loop and returns immediately.
type PortalService interface {
	RestoreSession()
	SelectCity(city string)
	ChangeCity()
	SetPhone(input string)
	Login()
	GoToRegister()
	SetRegistrationField(field, value string)
	Register()
	Back()
	OtpInput(index int, value string)
	OtpBackspace(index int)
	OtpPaste(text string)
	Verify()
	Resend()
	Submit()
	SelectPeriod(period string)
	OpenLeaderboard()
	CloseLeaderboard()
	RetryLeaderboard()
	OpenPlateEditor()
	CheckPlate(plate string)
	ConfirmExistingCar()
	SaveNewCar(brand, model, year string)
	ClosePlateEditor()
	Logout()
}
