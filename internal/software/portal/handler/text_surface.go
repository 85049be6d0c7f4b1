package handler

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"driver-portal/internal/domain/auth"
	"driver-portal/internal/ports"
)

// TextSurface prints each render as a plain text block.
type TextSurface struct {
	mu  sync.Mutex
	out io.Writer
}

func NewTextSurface(out io.Writer) *TextSurface {
	return &TextSurface{out: out}
}

var _ ports.RenderSurface = (*TextSurface)(nil)

func (s *TextSurface) RenderAuth(v ports.AuthView) {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", v.Step)

	switch auth.Step(v.Step) {
	case auth.StepCitySelection:
		if v.Restoring {
			b.WriteString("Oturum kontrol ediliyor...\n")
			break
		}
		fmt.Fprintf(&b, "Şehir: %s\n", strings.Join(v.Cities, ", "))
	case auth.StepPhoneEntry:
		fmt.Fprintf(&b, "Şehir: %s\n", v.City)
		fmt.Fprintf(&b, "Telefon: +90 %s\n", v.PhoneInput)
		fmt.Fprintf(&b, "[login %s] [go-register]\n", enabled(v.CanLogin))
	case auth.StepRegistrationForm:
		for _, k := range registrationOrder {
			fmt.Fprintf(&b, "  %-18s %s\n", k, v.Form[k])
		}
		fmt.Fprintf(&b, "[register %s]\n", enabled(v.CanRegister))
	case auth.StepOtpEntry:
		fmt.Fprintf(&b, "Kod gönderildi: %s\n", v.PhoneDisplay)
		cells := make([]string, len(v.OtpCells))
		for i, c := range v.OtpCells {
			if c == "" {
				c = "_"
			}
			if i == v.OtpFocus {
				c = "[" + c + "]"
			}
			cells[i] = c
		}
		fmt.Fprintf(&b, "%s\n", strings.Join(cells, " "))
		if v.ResendIn > 0 {
			fmt.Fprintf(&b, "Tekrar gönder: %d sn\n", v.ResendIn)
		} else {
			fmt.Fprintf(&b, "[resend %s]\n", enabled(v.CanResend))
		}
		fmt.Fprintf(&b, "[verify %s]\n", enabled(v.CanVerify))
	}

	if v.Busy {
		b.WriteString("...\n")
	}
	if v.Error != "" {
		fmt.Fprintf(&b, "! %s\n", v.Error)
		if v.CanRetry {
			b.WriteString("[restore]\n")
		}
	}
	s.write(b.String())
}

var registrationOrder = []string{
	auth.FieldPhone, auth.FieldNationalID, auth.FieldFirstName, auth.FieldLastName,
	auth.FieldLicenseNumber, auth.FieldLicenseIssueDate, auth.FieldLicenseExpiryDate, auth.FieldBirthDate,
}

func (s *TextSurface) RenderProfile(v ports.ProfileView) {
	var b strings.Builder
	fmt.Fprintf(&b, "== PROFİL ==\n(%s) %s\n", v.Initials, v.Name)
	fmt.Fprintf(&b, "Şehir: %s  Telefon: %s\n", v.City, v.Phone)
	fmt.Fprintf(&b, "Araç: %s\n", v.Car)
	fmt.Fprintf(&b, "Bakiye: %s\n", v.Balance)

	trips := v.TripCount
	if v.TripsLoading {
		trips = "..."
	}
	periods := make([]string, len(v.Periods))
	for i, p := range v.Periods {
		if p == v.Period {
			p = "*" + p
		}
		periods[i] = p
	}
	fmt.Fprintf(&b, "Yolculuk [%s]: %s\n", strings.Join(periods, " "), trips)
	if v.Campaign != "" {
		fmt.Fprintf(&b, "Kampanya: %s\n", v.Campaign)
	}
	s.write(b.String())
}

func (s *TextSurface) RenderLeaderboard(v ports.LeaderboardView) {
	if !v.Open {
		return
	}
	var b strings.Builder
	b.WriteString("== SIRALAMA ==\n")
	switch {
	case v.Loading:
		b.WriteString("Yükleniyor...\n")
	case v.Error != "":
		fmt.Fprintf(&b, "! %s\n[retry-leaderboard]\n", v.Error)
	default:
		if v.Header != "" {
			b.WriteString(v.Header + "\n")
		}
		if v.Message != "" {
			b.WriteString(v.Message + "\n")
		}
		for _, row := range v.Rows {
			if row.Footer && v.Separator {
				b.WriteString("  ...\n")
			}
			me := ""
			if row.IsMe {
				me = " (Sen)"
			}
			fmt.Fprintf(&b, "%3d %-6s %-3s %d yolculuk%s\n", row.Rank, row.Medal, row.Initials, row.TripCount, me)
		}
	}
	s.write(b.String())
}

func (s *TextSurface) RenderPlate(v ports.PlateView) {
	if v.Step == "" || v.Step == "idle" {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "== ARAÇ (%s) ==\n", v.Step)
	fmt.Fprintf(&b, "Plaka: %s\n", v.Plate)
	if v.Matched != nil {
		fmt.Fprintf(&b, "Bulunan araç: %s\n[confirm-car]\n", v.Matched.Text)
	}
	if len(v.Brands) > 0 {
		fmt.Fprintf(&b, "Markalar: %s\n", strings.Join(v.Brands, ", "))
	}
	if len(v.Years) > 0 {
		fmt.Fprintf(&b, "Yıl: %d-%d\n", v.Years[len(v.Years)-1], v.Years[0])
	}
	if v.Busy {
		b.WriteString("...\n")
	}
	if v.Error != "" {
		fmt.Fprintf(&b, "! %s\n", v.Error)
	}
	s.write(b.String())
}

func (s *TextSurface) write(block string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = io.WriteString(s.out, block+"\n")
}

func enabled(ok bool) string {
	if ok {
		return "on"
	}
	return "off"
}
