package contracts

import (
	"driver-portal/internal/domain/driver"
	"driver-portal/internal/domain/leaderboard"
)

type TripCountRequest struct {
	Period string `json:"period"`
}

type TripCountResponse struct {
	Result
	TripCount Int `json:"tripCount"`
}

type CheckPlateRequest struct {
	Plate string `json:"plate"`
}

// CarPayload is a car record as the backend sends it.
type CarPayload struct {
	ID     Text   `json:"id,omitempty"`
	Brand  string `json:"brand"`
	Model  string `json:"model"`
	Year   Int    `json:"year"`
	Number string `json:"number,omitempty"`
	Plate  string `json:"plate,omitempty"`
}

func (c CarPayload) Record() driver.CarRecord {
	number := c.Number
	if number == "" {
		number = c.Plate
	}
	return driver.CarRecord{
		ID:     c.ID.String(),
		Brand:  c.Brand,
		Model:  c.Model,
		Year:   int(c.Year),
		Number: number,
	}
}

type CheckPlateResponse struct {
	Result
	Found bool        `json:"found"`
	Car   *CarPayload `json:"car,omitempty"`
}

// ChangeCarRequest either links an existing car (CarID set) or creates a new one.
type ChangeCarRequest struct {
	Plate string `json:"plate"`
	CarID string `json:"carId,omitempty"`
	Brand string `json:"brand"`
	Model string `json:"model"`
	Year  int    `json:"year"`
}

func NewChangeCarRequest(car driver.CarRecord) ChangeCarRequest {
	return ChangeCarRequest{
		Plate: car.Number,
		CarID: car.ID,
		Brand: car.Brand,
		Model: car.Model,
		Year:  car.Year,
	}
}

type ChangeCarResponse struct {
	Result
	Car *CarPayload `json:"car,omitempty"`
}

type CarBrandsResponse struct {
	Result
	Brands []string `json:"brands"`
}

type LeaderboardEntry struct {
	ID        Text   `json:"id"`
	Rank      Int    `json:"rank"`
	Initials  string `json:"initials"`
	TripCount Int    `json:"tripCount"`
}

func (e LeaderboardEntry) Entry() leaderboard.Entry {
	return leaderboard.Entry{
		ID:        e.ID.String(),
		Rank:      int(e.Rank),
		Initials:  e.Initials,
		TripCount: int(e.TripCount),
	}
}

type LeaderboardResponse struct {
	Result
	Leaderboard  []LeaderboardEntry `json:"leaderboard"`
	CurrentUser  *LeaderboardEntry  `json:"currentUser,omitempty"`
	TotalDrivers Int                `json:"totalDrivers"`
}

// Board converts the response into the domain board.
func (r LeaderboardResponse) Board() leaderboard.Board {
	board := leaderboard.Board{
		Entries:      make([]leaderboard.Entry, 0, len(r.Leaderboard)),
		TotalDrivers: int(r.TotalDrivers),
	}
	for _, e := range r.Leaderboard {
		board.Entries = append(board.Entries, e.Entry())
	}
	if r.CurrentUser != nil {
		me := r.CurrentUser.Entry()
		board.CurrentUser = &me
	}
	return board
}

type Campaign struct {
	Active bool   `json:"active"`
	Text   string `json:"text"`
}

type CampaignResponse struct {
	Result
	Campaign *Campaign `json:"campaign,omitempty"`
}
