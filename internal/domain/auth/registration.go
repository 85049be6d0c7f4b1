package auth

import (
	"errors"
	"strings"
)

const NationalIDDigits = 11

var (
	ErrNationalID     = errors.New("national id must have exactly 11 digits")
	ErrRequiredFields = errors.New("all registration fields are required")
	ErrUnknownField   = errors.New("unknown registration field")
)

// Registration holds the registration form fields as typed by the user.
type Registration struct {
	Phone             string
	NationalID        string
	FirstName         string
	LastName          string
	LicenseNumber     string
	LicenseIssueDate  string
	LicenseExpiryDate string
	BirthDate         string
}

// Registration field names accepted by Set.
const (
	FieldPhone             = "phone"
	FieldNationalID        = "tcNo"
	FieldFirstName         = "firstName"
	FieldLastName          = "lastName"
	FieldLicenseNumber     = "licenseNumber"
	FieldLicenseIssueDate  = "licenseIssueDate"
	FieldLicenseExpiryDate = "licenseExpiryDate"
	FieldBirthDate         = "birthDate"
)

// Set assigns one form field by name.
func (reg *Registration) Set(field, value string) error {
	switch field {
	case FieldPhone:
		reg.Phone = value
	case FieldNationalID:
		reg.NationalID = value
	case FieldFirstName:
		reg.FirstName = value
	case FieldLastName:
		reg.LastName = value
	case FieldLicenseNumber:
		reg.LicenseNumber = value
	case FieldLicenseIssueDate:
		reg.LicenseIssueDate = value
	case FieldLicenseExpiryDate:
		reg.LicenseExpiryDate = value
	case FieldBirthDate:
		reg.BirthDate = value
	default:
		return ErrUnknownField
	}
	return nil
}

// Validate checks the form in the order the user sees problems: phone, id, then the rest.
func (reg Registration) Validate() error {
	if !PhoneComplete(reg.Phone) {
		return ErrPhoneDigits
	}
	if len(Digits(reg.NationalID)) != NationalIDDigits || strings.TrimSpace(reg.NationalID) != Digits(reg.NationalID) {
		return ErrNationalID
	}
	for _, v := range []string{
		reg.FirstName, reg.LastName, reg.LicenseNumber,
		reg.LicenseIssueDate, reg.LicenseExpiryDate, reg.BirthDate,
	} {
		if strings.TrimSpace(v) == "" {
			return ErrRequiredFields
		}
	}
	return nil
}

// Complete reports whether the register control should be enabled.
func (reg Registration) Complete() bool {
	return reg.Validate() == nil
}
