package driver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitials(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "two tokens", in: "Mehmet Demir", want: "MD"},
		{name: "middle name ignored", in: "Ali Rıza Kaya", want: "AK"},
		{name: "single token", in: "cem", want: "CE"},
		{name: "turkish dotted i", in: "ilker işık", want: "İİ"},
		{name: "single rune", in: "x", want: "X"},
		{name: "empty", in: "  ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Initials(tt.in))
		})
	}
}

func TestProfile_Fallbacks(t *testing.T) {
	p := &Profile{}
	assert.Equal(t, DefaultName, p.DisplayName())
	assert.Equal(t, "SÜ", p.Initials())
	assert.Equal(t, NoCarText, p.CarText())
	assert.Equal(t, NoBalance, p.BalanceText())
}

func TestProfile_ApplyCar(t *testing.T) {
	p := &Profile{CarID: "car-1", CarNumber: "06XYZ1", CarDescription: "Fiat Egea (2019) - Plaka: 06XYZ1"}

	err := p.ApplyCar(CarRecord{ID: "car-2", Brand: "Renault", Model: "Clio", Year: 2021, Number: "34ABC123"})
	require.NoError(t, err)
	assert.Equal(t, "car-2", p.CarID)
	assert.Equal(t, "34ABC123", p.CarNumber)
	assert.Equal(t, "Renault Clio (2021) - Plaka: 34ABC123", p.CarDescription)

	assert.ErrorIs(t, p.ApplyCar(CarRecord{}), ErrNoCar)
}

func TestParsePeriod(t *testing.T) {
	got, err := ParsePeriod(" Week ")
	require.NoError(t, err)
	assert.Equal(t, PeriodWeek, got)

	_, err = ParsePeriod("year")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestValidatePlate(t *testing.T) {
	plate, err := ValidatePlate("  34abc123 ")
	require.NoError(t, err)
	assert.Equal(t, "34ABC123", plate)

	_, err = ValidatePlate(" ab ")
	assert.ErrorIs(t, err, ErrPlateTooShort)
}

func TestSelectableYears(t *testing.T) {
	years := SelectableYears(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NotEmpty(t, years)
	assert.Equal(t, 2026, years[0])
	assert.Equal(t, FloorYear, years[len(years)-1])
	assert.Len(t, years, 2026-FloorYear+1)
}

func TestNewCar(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	car, err := NewCar(" 34abc123", "Toyota", "Corolla", "2020", now)
	require.NoError(t, err)
	assert.Equal(t, CarRecord{Brand: "Toyota", Model: "Corolla", Year: 2020, Number: "34ABC123"}, car)

	_, err = NewCar("34ABC123", "", "Corolla", "2020", now)
	assert.ErrorIs(t, err, ErrCarFields)

	_, err = NewCar("34ABC123", "Toyota", "Corolla", "1980", now)
	assert.ErrorIs(t, err, ErrYearOutOfRange)

	_, err = NewCar("34ABC123", "Toyota", "Corolla", "2027", now)
	assert.ErrorIs(t, err, ErrYearOutOfRange)
}
