package driver

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	MinPlateLength = 3
	FloorYear      = 1990
)

var (
	ErrPlateTooShort  = errors.New("plate must have at least 3 characters")
	ErrCarFields      = errors.New("brand, model and year are required")
	ErrYearOutOfRange = errors.New("year is outside the selectable range")
)

// NormalizePlate trims and uppercases a plate. Plates are ASCII, so no locale casing.
func NormalizePlate(in string) string {
	return strings.ToUpper(strings.TrimSpace(in))
}

// ValidatePlate normalizes and checks the minimum length.
func ValidatePlate(in string) (string, error) {
	plate := NormalizePlate(in)
	if len([]rune(plate)) < MinPlateLength {
		return "", ErrPlateTooShort
	}
	return plate, nil
}

// SelectableYears returns the years from now's year down to FloorYear.
func SelectableYears(now time.Time) []int {
	top := now.Year()
	if top < FloorYear {
		top = FloorYear
	}
	years := make([]int, 0, top-FloorYear+1)
	for y := top; y >= FloorYear; y-- {
		years = append(years, y)
	}
	return years
}

// NewCar validates the new-car form fields and builds a CarRecord.
func NewCar(plate, brand, model, year string, now time.Time) (CarRecord, error) {
	brand = strings.TrimSpace(brand)
	model = strings.TrimSpace(model)
	year = strings.TrimSpace(year)
	if brand == "" || model == "" || year == "" {
		return CarRecord{}, ErrCarFields
	}

	y, err := strconv.Atoi(year)
	if err != nil || y < FloorYear || y > now.Year() {
		return CarRecord{}, ErrYearOutOfRange
	}

	return CarRecord{Brand: brand, Model: model, Year: y, Number: NormalizePlate(plate)}, nil
}
