package contracts

import (
	"strings"

	"driver-portal/internal/domain/auth"
	"driver-portal/internal/domain/driver"
)

// DriverPayload is the driver record embedded in session and verify responses.
type DriverPayload struct {
	ID        Text   `json:"id"`
	Name      string `json:"name,omitempty"`
	City      string `json:"city,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Car       string `json:"car,omitempty"`
	CarID     Text   `json:"carId,omitempty"`
	CarNumber string `json:"carNumber,omitempty"`
	TripCount Int    `json:"tripCount,omitempty"`
	Balance   Text   `json:"balance,omitempty"`
}

// Profile converts the payload into the domain profile.
func (d DriverPayload) Profile() driver.Profile {
	return driver.Profile{
		ID:             d.ID.String(),
		Name:           strings.TrimSpace(d.Name),
		City:           d.City,
		Phone:          d.Phone,
		CarDescription: d.Car,
		CarID:          d.CarID.String(),
		CarNumber:      d.CarNumber,
		TripCount:      int(d.TripCount),
		Balance:        d.Balance.String(),
	}
}

// SessionResponse is returned by GET /auth/session.
type SessionResponse struct {
	Result
	Driver *DriverPayload `json:"driver,omitempty"`
}

type LoginRequest struct {
	Phone string `json:"phone"`
	City  string `json:"city"`
}

type VerifyOtpRequest struct {
	Phone string `json:"phone"`
	Otp   string `json:"otp"`
}

// VerifyResponse is returned by both OTP verification endpoints.
type VerifyResponse struct {
	Result
	Driver       *DriverPayload `json:"driver,omitempty"`
	SessionToken string         `json:"sessionToken,omitempty"`
}

// RegisterRequest is the body of /drivers/register/request-otp.
type RegisterRequest struct {
	Phone             string `json:"phone"`
	City              string `json:"city"`
	NationalID        string `json:"tcNo"`
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	LicenseNumber     string `json:"licenseNumber"`
	LicenseIssueDate  string `json:"licenseIssueDate"`
	LicenseExpiryDate string `json:"licenseExpiryDate"`
	BirthDate         string `json:"birthDate"`
}

// NewRegisterRequest builds the wire body; phone must already be in wire format.
func NewRegisterRequest(phone, city string, r auth.Registration) RegisterRequest {
	return RegisterRequest{
		Phone:             phone,
		City:              city,
		NationalID:        strings.TrimSpace(r.NationalID),
		FirstName:         strings.TrimSpace(r.FirstName),
		LastName:          strings.TrimSpace(r.LastName),
		LicenseNumber:     strings.TrimSpace(r.LicenseNumber),
		LicenseIssueDate:  strings.TrimSpace(r.LicenseIssueDate),
		LicenseExpiryDate: strings.TrimSpace(r.LicenseExpiryDate),
		BirthDate:         strings.TrimSpace(r.BirthDate),
	}
}
