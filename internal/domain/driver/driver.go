package driver

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	DefaultName = "Sürücü"
	NoCarText   = "Araç atanmamış"
	NoBalance   = "-"
)

// Profile is the post-authentication driver record shown on the profile page.
type Profile struct {
	// Identity
	ID    string
	Name  string
	City  string
	Phone string

	// Vehicle
	CarDescription string
	CarID          string
	CarNumber      string

	// KPIs
	TripCount int    // default period ("all")
	Balance   string // display value as sent by the backend
}

// CarRecord is a vehicle known to the backend.
type CarRecord struct {
	ID     string
	Brand  string
	Model  string
	Year   int
	Number string
}

var ErrNoCar = errors.New("car record is empty")

var turkishUpper = cases.Upper(language.Turkish)

// DisplayName falls back to DefaultName for an empty name.
func (profile *Profile) DisplayName() string {
	if name := strings.TrimSpace(profile.Name); name != "" {
		return name
	}
	return DefaultName
}

// Initials returns the first letters of the first and last name tokens, or the
// first two characters of a single-token name, uppercased with Turkish casing.
func (profile *Profile) Initials() string {
	return Initials(profile.DisplayName())
}

// Initials computes initials for an arbitrary display name.
func Initials(name string) string {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return ""
	case 1:
		r := []rune(parts[0])
		if len(r) > 2 {
			r = r[:2]
		}
		return turkishUpper.String(string(r))
	default:
		first := []rune(parts[0])[:1]
		last := []rune(parts[len(parts)-1])[:1]
		return turkishUpper.String(string(first) + string(last))
	}
}

// CarText falls back to NoCarText when no car is assigned.
func (profile *Profile) CarText() string {
	if profile.CarDescription == "" {
		return NoCarText
	}
	return profile.CarDescription
}

// BalanceText falls back to NoBalance when the backend sent nothing.
func (profile *Profile) BalanceText() string {
	if strings.TrimSpace(profile.Balance) == "" {
		return NoBalance
	}
	return profile.Balance
}

// ApplyCar replaces the vehicle fields after a successful car change.
func (profile *Profile) ApplyCar(car CarRecord) error {
	if car.Number == "" && car.Brand == "" {
		return ErrNoCar
	}
	if car.ID != "" {
		profile.CarID = car.ID
	}
	profile.CarNumber = car.Number
	profile.CarDescription = car.Describe()
	return nil
}

// Describe renders "<brand> <model> (<year>) - Plaka: <number>".
func (car CarRecord) Describe() string {
	return fmt.Sprintf("%s %s (%d) - Plaka: %s", car.Brand, car.Model, car.Year, car.Number)
}
