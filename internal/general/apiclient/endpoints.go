package apiclient

import (
	"context"
	"net/http"
	"strings"

	"driver-portal/internal/domain/driver"
	"driver-portal/internal/domain/failure"
	"driver-portal/internal/domain/leaderboard"
	"driver-portal/internal/general/contracts"
)

// Session validates the stored token. A nil driver means the backend accepted
// the call but returned no profile.
func (c *Client) Session(ctx context.Context) (*driver.Profile, error) {
	var resp contracts.SessionResponse
	if err := c.call(ctx, Request{Method: http.MethodGet, Path: contracts.PathSession, Authenticated: true}, &resp); err != nil {
		return nil, err
	}
	if resp.Driver == nil {
		return nil, nil
	}
	p := resp.Driver.Profile()
	return &p, nil
}

// EndSession is the best-effort server-side logout. token is sent explicitly
// because the local session is already gone when it runs.
func (c *Client) EndSession(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	_, err := c.Do(ctx, Request{Method: http.MethodDelete, Path: contracts.PathSession, Token: token})
	return err
}

// Login asks the backend to send an OTP to phone. It also serves resends.
func (c *Client) Login(ctx context.Context, phone, city string) error {
	return c.call(ctx, Request{
		Method: http.MethodPost,
		Path:   contracts.PathLogin,
		Body:   contracts.LoginRequest{Phone: phone, City: city},
	}, nil)
}

// Verified is the outcome of a successful OTP verification.
type Verified struct {
	Profile driver.Profile
	Token   string
}

// VerifyOtp verifies a login OTP.
func (c *Client) VerifyOtp(ctx context.Context, phone, otp string) (Verified, error) {
	return c.verify(ctx, contracts.PathVerifyOtp, phone, otp)
}

// RequestRegistrationOtp submits the registration form and triggers an OTP.
func (c *Client) RequestRegistrationOtp(ctx context.Context, body contracts.RegisterRequest) error {
	return c.call(ctx, Request{
		Method: http.MethodPost,
		Path:   contracts.PathRegisterRequest,
		Body:   body,
	}, nil)
}

// VerifyRegistration verifies a registration OTP.
func (c *Client) VerifyRegistration(ctx context.Context, phone, otp string) (Verified, error) {
	return c.verify(ctx, contracts.PathRegisterVerify, phone, otp)
}

func (c *Client) verify(ctx context.Context, path, phone, otp string) (Verified, error) {
	var resp contracts.VerifyResponse
	err := c.call(ctx, Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   contracts.VerifyOtpRequest{Phone: phone, Otp: otp},
	}, &resp)
	if err != nil {
		return Verified{}, err
	}
	// a session without a token could never be restored
	if resp.Driver == nil || strings.TrimSpace(resp.SessionToken) == "" {
		return Verified{}, failure.Application(http.StatusOK, GenericFailure)
	}
	return Verified{Profile: resp.Driver.Profile(), Token: resp.SessionToken}, nil
}

// TripCount returns the driver's completed trips within period.
func (c *Client) TripCount(ctx context.Context, period driver.Period) (int, error) {
	var resp contracts.TripCountResponse
	err := c.call(ctx, Request{
		Method:        http.MethodPost,
		Path:          contracts.PathTripCount,
		Body:          contracts.TripCountRequest{Period: period.String()},
		Authenticated: true,
	}, &resp)
	if err != nil {
		return 0, err
	}
	return int(resp.TripCount), nil
}

// CheckPlate looks up an existing car by plate. A nil car means not found.
func (c *Client) CheckPlate(ctx context.Context, plate string) (*driver.CarRecord, error) {
	var resp contracts.CheckPlateResponse
	err := c.call(ctx, Request{
		Method:        http.MethodPost,
		Path:          contracts.PathCheckPlate,
		Body:          contracts.CheckPlateRequest{Plate: plate},
		Authenticated: true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Found || resp.Car == nil {
		return nil, nil
	}
	car := resp.Car.Record()
	if car.Number == "" {
		car.Number = plate
	}
	return &car, nil
}

// ChangeCar assigns car to the driver. The backend's record wins when it sends one.
func (c *Client) ChangeCar(ctx context.Context, car driver.CarRecord) (driver.CarRecord, error) {
	var resp contracts.ChangeCarResponse
	err := c.call(ctx, Request{
		Method:        http.MethodPost,
		Path:          contracts.PathChangeCar,
		Body:          contracts.NewChangeCarRequest(car),
		Authenticated: true,
	}, &resp)
	if err != nil {
		return driver.CarRecord{}, err
	}
	if resp.Car == nil {
		return car, nil
	}
	got := resp.Car.Record()
	if got.Number == "" {
		got.Number = car.Number
	}
	if got.ID == "" {
		got.ID = car.ID
	}
	return got, nil
}

// CarBrands returns the brand list for the new-car form.
func (c *Client) CarBrands(ctx context.Context) ([]string, error) {
	var resp contracts.CarBrandsResponse
	if err := c.call(ctx, Request{Method: http.MethodGet, Path: contracts.PathCarBrands}, &resp); err != nil {
		return nil, err
	}
	return resp.Brands, nil
}

// Leaderboard fetches the monthly ranking with the long leaderboard deadline.
func (c *Client) Leaderboard(ctx context.Context) (leaderboard.Board, error) {
	var resp contracts.LeaderboardResponse
	err := c.call(ctx, Request{
		Method:        http.MethodGet,
		Path:          contracts.PathLeaderboard,
		Authenticated: true,
		Timeout:       c.leaderboardTimeout,
	}, &resp)
	if err != nil {
		return leaderboard.Board{}, err
	}
	return resp.Board(), nil
}

// Campaign returns the campaign card. An inactive campaign comes back as-is.
func (c *Client) Campaign(ctx context.Context) (contracts.Campaign, error) {
	var resp contracts.CampaignResponse
	if err := c.call(ctx, Request{Method: http.MethodGet, Path: contracts.PathCampaign}, &resp); err != nil {
		return contracts.Campaign{}, err
	}
	if resp.Campaign == nil {
		return contracts.Campaign{}, nil
	}
	return *resp.Campaign, nil
}
