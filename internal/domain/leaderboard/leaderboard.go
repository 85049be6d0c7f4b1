package leaderboard

import (
	"fmt"
	"time"
)

// Medal is the marker shown next to the top three ranks.
type Medal string

const (
	MedalNone   Medal = ""
	MedalGold   Medal = "gold"
	MedalSilver Medal = "silver"
	MedalBronze Medal = "bronze"
)

const (
	EmptyMessage = "Bu ay henüz tamamlanmış yolculuk yok."
	YouLabel     = "(Sen)"
	TripsLabel   = "yolculuk"
)

var monthNames = [12]string{
	"Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran",
	"Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık",
}

// Entry is one ranked driver as returned by the backend.
type Entry struct {
	ID        string
	Rank      int
	Initials  string
	TripCount int
}

// Board is a fetched leaderboard page.
type Board struct {
	Entries      []Entry
	CurrentUser  *Entry // the caller's own row when the backend returns it
	TotalDrivers int
}

// Row is one rendered line of the leaderboard.
type Row struct {
	Rank      int
	Initials  string
	TripCount int
	Medal     Medal
	IsMe      bool
	Footer    bool
}

// View is the render projection of a Board.
type View struct {
	Header    string
	Rows      []Row
	Separator bool   // a separator precedes the footer row
	Message   string // set instead of rows for an empty board
}

// MedalFor maps ranks 1-3 to their medal.
func MedalFor(rank int) Medal {
	switch rank {
	case 1:
		return MedalGold
	case 2:
		return MedalSilver
	case 3:
		return MedalBronze
	default:
		return MedalNone
	}
}

// MonthLabel renders "<Turkish month> <year>".
func MonthLabel(now time.Time) string {
	return fmt.Sprintf("%s %d", monthNames[now.Month()-1], now.Year())
}

// Render projects board for the driver myID. The footer row is appended whenever
// the backend sent CurrentUser, even if that rank is already on the page.
func Render(board Board, myID string, now time.Time) View {
	view := View{
		Header: fmt.Sprintf("%s — %d sürücü arasında", MonthLabel(now), board.TotalDrivers),
	}

	if len(board.Entries) == 0 {
		view.Message = EmptyMessage
		return view
	}

	view.Rows = make([]Row, 0, len(board.Entries)+1)
	for _, e := range board.Entries {
		view.Rows = append(view.Rows, Row{
			Rank:      e.Rank,
			Initials:  e.Initials,
			TripCount: e.TripCount,
			Medal:     MedalFor(e.Rank),
			IsMe:      myID != "" && e.ID == myID,
		})
	}

	if board.CurrentUser != nil {
		view.Separator = true
		view.Rows = append(view.Rows, Row{
			Rank:      board.CurrentUser.Rank,
			Initials:  board.CurrentUser.Initials,
			TripCount: board.CurrentUser.TripCount,
			IsMe:      true,
			Footer:    true,
		})
	}

	return view
}
