package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driver-portal/internal/domain/auth"
	"driver-portal/internal/domain/driver"
	"driver-portal/internal/domain/failure"
	"driver-portal/internal/domain/session"
	"driver-portal/internal/general/apiclient"
	"driver-portal/internal/general/contracts"
	"driver-portal/internal/general/eventloop"
	"driver-portal/internal/general/logger"
	"driver-portal/internal/general/sessionstore"
	"driver-portal/internal/ports"
)

var testDriver = map[string]any{
	"id":        "d-1",
	"name":      "Mehmet Demir",
	"car":       "Fiat Egea (2019) - Plaka: 06XYZ1",
	"carId":     "car-1",
	"carNumber": "06XYZ1",
	"tripCount": 42,
	"balance":   "150 TL",
}

var tripCounts = map[string]int{"today": 3, "week": 11, "month": 27, "all": 42}

// ----- fake backend -----

type hit struct {
	body  []byte
	token string
}

type fakeBackend struct {
	mu       sync.Mutex
	hits     map[string][]hit
	override map[string]http.HandlerFunc
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{hits: map[string][]hit{}, override: map[string]http.HandlerFunc{}}
}

func (f *fakeBackend) handle(key string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.override[key] = h
}

func (f *fakeBackend) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.hits[key])
}

func (f *fakeBackend) last(key string) hit {
	f.mu.Lock()
	defer f.mu.Unlock()
	hs := f.hits[key]
	if len(hs) == 0 {
		return hit{}
	}
	return hs[len(hs)-1]
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	key := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/api")

	f.mu.Lock()
	f.hits[key] = append(f.hits[key], hit{body: body, token: r.Header.Get(contracts.HeaderSessionToken)})
	h := f.override[key]
	f.mu.Unlock()

	if h != nil {
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		h(w, r)
		return
	}

	switch key {
	case "GET " + contracts.PathSession:
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "driver": testDriver})
	case "POST " + contracts.PathVerifyOtp:
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "driver": testDriver, "sessionToken": "tok-1"})
	case "POST " + contracts.PathRegisterVerify:
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "driver": testDriver, "sessionToken": "tok-2"})
	case "POST " + contracts.PathTripCount:
		var req contracts.TripCountRequest
		_ = json.Unmarshal(body, &req)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "tripCount": tripCounts[req.Period]})
	case "POST " + contracts.PathCheckPlate:
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "found": false})
	case "GET " + contracts.PathCarBrands:
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "brands": []string{"Renault", "Toyota"}})
	case "GET " + contracts.PathLeaderboard:
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"leaderboard": []map[string]any{
				{"id": "d-9", "rank": 1, "initials": "AK", "tripCount": 90},
				{"id": "d-1", "rank": 2, "initials": "MD", "tripCount": 42},
			},
			"totalDrivers": 12,
		})
	case "GET " + contracts.PathCampaign:
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "campaign": map[string]any{"active": true, "text": "Hafta sonu bonusu"}})
	default:
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ----- recorders -----

type recordingSurface struct {
	mu      sync.Mutex
	auth    []ports.AuthView
	profile ports.ProfileView
	board   ports.LeaderboardView
	plate   ports.PlateView
}

func (s *recordingSurface) RenderAuth(v ports.AuthView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = append(s.auth, v)
}

func (s *recordingSurface) RenderProfile(v ports.ProfileView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = v
}

func (s *recordingSurface) RenderLeaderboard(v ports.LeaderboardView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board = v
}

func (s *recordingSurface) RenderPlate(v ports.PlateView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plate = v
}

func (s *recordingSurface) lastAuth() ports.AuthView {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.auth) == 0 {
		return ports.AuthView{}
	}
	return s.auth[len(s.auth)-1]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []contracts.PortalEventMessage
}

func (p *recordingPublisher) PublishPortalEvent(_ context.Context, msg contracts.PortalEventMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, msg)
	return nil
}

func (p *recordingPublisher) types() []contracts.PortalEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]contracts.PortalEventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// ----- harness -----

type harness struct {
	backend *fakeBackend
	server  *httptest.Server
	store   *sessionstore.Memory
	clock   *eventloop.ManualClock
	loop    *eventloop.Loop
	surface *recordingSurface
	events  *recordingPublisher
	portal  *Portal
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	backend := newFakeBackend()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	log := logger.New("portal-test")
	log.SetOutput(io.Discard)

	store := sessionstore.NewMemory()
	clock := eventloop.NewManualClock(time.Date(2026, time.March, 12, 10, 0, 0, 0, time.UTC))
	loop := eventloop.New(clock)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = loop.Run(ctx) }()

	client := apiclient.New(store, apiclient.Options{BaseURL: srv.URL + "/api", Timeout: 5 * time.Second})
	surface := &recordingSurface{}
	events := &recordingPublisher{}

	portal := NewPortal(ctx, log, loop, store, client, events, surface, Options{
		Producer: "portal-test",
		Cities:   []string{"İstanbul", "Ankara"},
	})

	return &harness{
		backend: backend,
		server:  srv,
		store:   store,
		clock:   clock,
		loop:    loop,
		surface: surface,
		events:  events,
		portal:  portal,
	}
}

func (h *harness) settle() { h.loop.Settle() }

// snapshot runs fn on the loop and waits for it.
func (h *harness) snapshot(fn func(p *Portal)) {
	h.loop.Call(func() { fn(h.portal) })
}

func (h *harness) authView() ports.AuthView {
	var v ports.AuthView
	h.snapshot(func(p *Portal) { v = p.AuthView() })
	return v
}

func (h *harness) profileView() ports.ProfileView {
	var v ports.ProfileView
	h.snapshot(func(p *Portal) { v = p.ProfileView() })
	return v
}

func (h *harness) leaderboardView() ports.LeaderboardView {
	var v ports.LeaderboardView
	h.snapshot(func(p *Portal) { v = p.LeaderboardView() })
	return v
}

func (h *harness) plateView() ports.PlateView {
	var v ports.PlateView
	h.snapshot(func(p *Portal) { v = p.PlateView() })
	return v
}

func (h *harness) stored() session.Session {
	s, _ := h.store.Get(context.Background())
	return s
}

func (h *harness) requestOtp(t *testing.T) {
	t.Helper()
	h.portal.SelectCity("İstanbul")
	h.portal.SetPhone("532 123 45 67")
	h.portal.Login()
	h.settle()
	require.Equal(t, auth.StepOtpEntry.String(), h.authView().Step)
}

func (h *harness) signIn(t *testing.T) {
	t.Helper()
	h.requestOtp(t)
	h.portal.OtpPaste("123456")
	h.portal.Verify()
	h.settle()
	require.Equal(t, auth.StepAuthenticated.String(), h.authView().Step)
}

func (h *harness) tick(seconds int) {
	for i := 0; i < seconds; i++ {
		h.clock.Advance(time.Second)
		h.settle()
	}
}

// ----- auth flow -----

func TestLogin_SendsNormalizedPhoneAndStartsCountdown(t *testing.T) {
	h := newHarness(t)

	h.portal.SelectCity("İstanbul")
	h.portal.SetPhone("532 123 45 67")
	h.settle()

	v := h.authView()
	assert.Equal(t, "532 123 45 67", v.PhoneInput)
	assert.True(t, v.CanLogin)

	h.portal.Login()
	h.settle()

	var body contracts.LoginRequest
	require.NoError(t, json.Unmarshal(h.backend.last("POST "+contracts.PathLogin).body, &body))
	assert.Equal(t, contracts.LoginRequest{Phone: "+905321234567", City: "İstanbul"}, body)

	v = h.authView()
	assert.Equal(t, auth.StepOtpEntry.String(), v.Step)
	assert.Equal(t, auth.OtpLogin.String(), v.OtpContext)
	assert.Equal(t, "+90 532 123 45 67", v.PhoneDisplay)
	assert.Equal(t, ResendSeconds, v.ResendIn)
	assert.False(t, v.CanResend)

	h.tick(59)
	v = h.authView()
	assert.Equal(t, 1, v.ResendIn)
	assert.False(t, v.CanResend)

	h.tick(1)
	v = h.authView()
	assert.Equal(t, 0, v.ResendIn)
	assert.True(t, v.CanResend)

	h.portal.Resend()
	h.settle()
	assert.Equal(t, 2, h.backend.count("POST "+contracts.PathLogin))
	assert.Equal(t, ResendSeconds, h.authView().ResendIn)
}

func TestLogin_IncompletePhoneNoRequest(t *testing.T) {
	h := newHarness(t)

	h.portal.SelectCity("Ankara")
	h.portal.SetPhone("532 123")
	h.portal.Submit()
	h.settle()

	v := h.authView()
	assert.Equal(t, auth.StepPhoneEntry.String(), v.Step)
	assert.False(t, v.CanLogin)
	assert.Zero(t, h.backend.count("POST "+contracts.PathLogin))
}

func TestLogin_ApplicationFailureShowsMessage(t *testing.T) {
	h := newHarness(t)
	h.backend.handle("POST "+contracts.PathLogin, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "Sürücü bulunamadı."})
	})

	h.portal.SelectCity("Ankara")
	h.portal.SetPhone("5321234567")
	h.portal.Login()
	h.settle()

	v := h.authView()
	assert.Equal(t, auth.StepPhoneEntry.String(), v.Step)
	assert.Equal(t, "Sürücü bulunamadı.", v.Error)
	assert.False(t, v.Busy)
}

func TestVerify_PersistsSessionAndShowsProfile(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	assert.Equal(t, session.Session{Token: "tok-1", City: "İstanbul", Phone: "+905321234567"}, h.stored())

	var body contracts.VerifyOtpRequest
	require.NoError(t, json.Unmarshal(h.backend.last("POST "+contracts.PathVerifyOtp).body, &body))
	assert.Equal(t, contracts.VerifyOtpRequest{Phone: "+905321234567", Otp: "123456"}, body)

	p := h.profileView()
	assert.Equal(t, "d-1", p.DriverID)
	assert.Equal(t, "MD", p.Initials)
	assert.Equal(t, "İstanbul", p.City)
	assert.Equal(t, "+90 532 123 45 67", p.Phone)
	assert.Equal(t, "42", p.TripCount)
	assert.Equal(t, "all", p.Period)
	assert.True(t, p.CanEditCar)
	assert.Equal(t, "Hafta sonu bonusu", p.Campaign)

	assert.Equal(t, []contracts.PortalEventType{contracts.EventLoggedIn}, h.events.types())
	h.events.mu.Lock()
	masked := h.events.events[0].Phone
	h.events.mu.Unlock()
	assert.Equal(t, "+90********67", masked)
}

func TestVerify_WrongCodeClearsCells(t *testing.T) {
	h := newHarness(t)
	h.backend.handle("POST "+contracts.PathVerifyOtp, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false})
	})
	h.requestOtp(t)

	h.portal.OtpPaste("999999")
	h.portal.Verify()
	h.settle()

	v := h.authView()
	assert.Equal(t, auth.StepOtpEntry.String(), v.Step)
	assert.Equal(t, apiclient.GenericFailure, v.Error)
	assert.Equal(t, []string{"", "", "", "", "", ""}, v.OtpCells)
	assert.False(t, v.CanVerify)
	assert.False(t, h.stored().Authenticated())
}

func TestOtpPaste_FillsFromFirstCell(t *testing.T) {
	h := newHarness(t)
	h.requestOtp(t)

	h.portal.OtpInput(4, "7")
	h.portal.OtpPaste("12-34")
	h.settle()

	v := h.authView()
	assert.Equal(t, []string{"1", "2", "3", "4", "", ""}, v.OtpCells)
	assert.Equal(t, 4, v.OtpFocus)
	assert.False(t, v.CanVerify)

	h.portal.OtpInput(4, "5")
	h.portal.OtpInput(5, "6")
	h.portal.OtpBackspace(5)
	h.settle()
	assert.Equal(t, []string{"1", "2", "3", "4", "5", ""}, h.authView().OtpCells)
}

func TestBack_FromOtpCancelsCountdownAndDropsLateResult(t *testing.T) {
	h := newHarness(t)
	h.requestOtp(t)

	h.portal.Back()
	h.settle()

	v := h.authView()
	assert.Equal(t, auth.StepPhoneEntry.String(), v.Step)
	assert.Equal(t, 0, v.ResendIn)
	assert.Nil(t, v.OtpCells)

	release := make(chan struct{})
	h.backend.handle("POST "+contracts.PathLogin, func(w http.ResponseWriter, _ *http.Request) {
		<-release
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	h.portal.Login()
	h.snapshot(func(*Portal) {})
	h.portal.ChangeCity()
	h.snapshot(func(*Portal) {})
	close(release)
	h.settle()

	v = h.authView()
	assert.Equal(t, auth.StepCitySelection.String(), v.Step)
	assert.False(t, v.Busy)
}

func TestRegister_ValidatesThenRequestsOtp(t *testing.T) {
	h := newHarness(t)

	h.portal.SelectCity("Ankara")
	h.portal.SetPhone("5321234567")
	h.portal.GoToRegister()
	h.settle()

	v := h.authView()
	assert.Equal(t, auth.StepRegistrationForm.String(), v.Step)
	assert.Equal(t, "532 123 45 67", v.Form[auth.FieldPhone], "phone carried over")

	h.portal.SetRegistrationField(auth.FieldNationalID, "1234")
	h.portal.Register()
	h.settle()
	assert.Equal(t, MsgNationalID, h.authView().Error)
	assert.Zero(t, h.backend.count("POST "+contracts.PathRegisterRequest))

	fields := map[string]string{
		auth.FieldNationalID:        "12345678901",
		auth.FieldFirstName:         "Ayşe",
		auth.FieldLastName:          "Yılmaz",
		auth.FieldLicenseNumber:     "B-123456",
		auth.FieldLicenseIssueDate:  "2015-04-01",
		auth.FieldLicenseExpiryDate: "2035-04-01",
		auth.FieldBirthDate:         "1990-01-01",
	}
	for k, val := range fields {
		h.portal.SetRegistrationField(k, val)
	}
	h.settle()
	assert.True(t, h.authView().CanRegister)

	h.portal.Register()
	h.settle()

	var body contracts.RegisterRequest
	require.NoError(t, json.Unmarshal(h.backend.last("POST "+contracts.PathRegisterRequest).body, &body))
	assert.Equal(t, "+905321234567", body.Phone)
	assert.Equal(t, "Ankara", body.City)
	assert.Equal(t, "12345678901", body.NationalID)

	v = h.authView()
	assert.Equal(t, auth.StepOtpEntry.String(), v.Step)
	assert.Equal(t, auth.OtpRegister.String(), v.OtpContext)

	h.portal.Back()
	h.settle()
	assert.Equal(t, auth.StepRegistrationForm.String(), h.authView().Step)

	h.portal.Register()
	h.settle()
	h.portal.OtpPaste("654321")
	h.portal.Submit()
	h.settle()

	assert.Equal(t, auth.StepAuthenticated.String(), h.authView().Step)
	assert.Equal(t, "tok-2", h.stored().Token)
	assert.Equal(t, []contracts.PortalEventType{contracts.EventRegistered}, h.events.types())
}

func (h *harness) fillRegistration() {
	for k, val := range map[string]string{
		auth.FieldNationalID:        "12345678901",
		auth.FieldFirstName:         "Ayşe",
		auth.FieldLastName:          "Yılmaz",
		auth.FieldLicenseNumber:     "B-123456",
		auth.FieldLicenseIssueDate:  "2015-04-01",
		auth.FieldLicenseExpiryDate: "2035-04-01",
		auth.FieldBirthDate:         "1990-01-01",
	} {
		h.portal.SetRegistrationField(k, val)
	}
}

func TestBack_FromRegisterOtpKeepsForm(t *testing.T) {
	h := newHarness(t)
	h.portal.SelectCity("Ankara")
	h.portal.SetPhone("5321234567")
	h.portal.GoToRegister()
	h.fillRegistration()
	h.portal.Register()
	h.settle()
	require.Equal(t, auth.StepOtpEntry.String(), h.authView().Step)

	h.portal.Back()
	h.settle()

	v := h.authView()
	assert.Equal(t, auth.StepRegistrationForm.String(), v.Step)
	assert.Equal(t, "12345678901", v.Form[auth.FieldNationalID])
	assert.Equal(t, "Ayşe", v.Form[auth.FieldFirstName])
	assert.Equal(t, "532 123 45 67", v.Form[auth.FieldPhone])
	assert.True(t, v.CanRegister)
}

// ----- session lifecycle -----

func TestRestoreSession_AcceptedToken(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.Save(context.Background(), session.Session{Token: "tok-9", City: "Ankara", Phone: "+905551112233"}))

	h.portal.RestoreSession()
	h.settle()

	assert.Equal(t, "tok-9", h.backend.last("GET "+contracts.PathSession).token)
	assert.Equal(t, auth.StepAuthenticated.String(), h.authView().Step)
	p := h.profileView()
	assert.Equal(t, "Ankara", p.City)
	assert.Equal(t, "+90 555 111 22 33", p.Phone)
	assert.Empty(t, h.events.types(), "restore is not a login")
}

func TestRestoreSession_NoTokenShowsCitySelection(t *testing.T) {
	h := newHarness(t)

	h.portal.RestoreSession()
	h.settle()

	assert.Zero(t, h.backend.count("GET "+contracts.PathSession))
	assert.Equal(t, auth.StepCitySelection.String(), h.surface.lastAuth().Step)
}

func TestRestoreSession_RejectedClearsStore(t *testing.T) {
	h := newHarness(t)
	h.store.Set(session.KeyToken, "tok-old")
	h.backend.handle("GET "+contracts.PathSession, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false})
	})

	h.portal.RestoreSession()
	h.settle()

	assert.False(t, h.stored().Authenticated())
	v := h.authView()
	assert.Equal(t, auth.StepCitySelection.String(), v.Step)
	assert.False(t, v.Restoring)
}

func TestRestoreSession_UnauthorizedClearsStore(t *testing.T) {
	h := newHarness(t)
	h.store.Set(session.KeyToken, "tok-old")
	h.backend.handle("GET "+contracts.PathSession, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	h.portal.RestoreSession()
	h.settle()

	assert.False(t, h.stored().Authenticated())
	v := h.authView()
	assert.Equal(t, auth.StepCitySelection.String(), v.Step)
	assert.False(t, v.Restoring)
}

func TestRestoreSession_UnreachableKeepsToken(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.Save(context.Background(), session.Session{Token: "tok-9"}))
	h.server.Close()

	h.portal.RestoreSession()
	h.settle()

	assert.True(t, h.stored().Authenticated())
	v := h.authView()
	assert.Equal(t, MsgUnreachable, v.Error)
	assert.True(t, v.CanRetry)
	assert.False(t, v.Restoring)
}

func TestRestoreSession_IgnoresAuthInputWhileValidating(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.Save(context.Background(), session.Session{Token: "tok-9", City: "Ankara"}))
	release := make(chan struct{})
	h.backend.handle("GET "+contracts.PathSession, func(w http.ResponseWriter, _ *http.Request) {
		<-release
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "driver": testDriver})
	})

	h.portal.RestoreSession()
	h.snapshot(func(*Portal) {})
	h.portal.SelectCity("İstanbul")
	h.portal.SetPhone("5321234567")
	h.portal.Login()

	v := h.authView()
	assert.True(t, v.Restoring)
	assert.Equal(t, auth.StepCitySelection.String(), v.Step)

	close(release)
	h.settle()

	assert.Equal(t, auth.StepAuthenticated.String(), h.authView().Step)
	assert.False(t, h.authView().Restoring)
	assert.Zero(t, h.backend.count("POST "+contracts.PathLogin))
}

func TestLogout_ClearsEverything(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	h.portal.SelectPeriod("week")
	h.portal.OpenLeaderboard()
	h.settle()

	h.portal.Logout()
	h.settle()

	assert.False(t, h.stored().Authenticated())
	assert.Equal(t, 1, h.backend.count("DELETE "+contracts.PathSession))
	assert.Equal(t, "tok-1", h.backend.last("DELETE "+contracts.PathSession).token)

	v := h.authView()
	assert.Equal(t, auth.StepCitySelection.String(), v.Step)
	assert.Empty(t, v.City)
	assert.Empty(t, v.PhoneInput)
	assert.Empty(t, v.Error)
	assert.Equal(t, ports.ProfileView{}, h.profileView())
	assert.Equal(t, []contracts.PortalEventType{contracts.EventLoggedIn, contracts.EventLoggedOut}, h.events.types())

	// caches are per session
	h.signIn(t)
	h.portal.SelectPeriod("week")
	h.portal.OpenLeaderboard()
	h.settle()
	assert.Equal(t, 2, h.backend.count("POST "+contracts.PathTripCount))
	assert.Equal(t, 2, h.backend.count("GET "+contracts.PathLeaderboard))
}

func TestUnauthorized_ResetsToCitySelection(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.backend.handle("POST "+contracts.PathTripCount, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	h.portal.SelectPeriod("month")
	h.settle()

	assert.False(t, h.stored().Authenticated())
	v := h.authView()
	assert.Equal(t, auth.StepCitySelection.String(), v.Step)
	assert.Equal(t, MsgSessionExpired, v.Error)
	assert.Equal(t, ports.ProfileView{}, h.profileView())
	assert.Equal(t, []contracts.PortalEventType{contracts.EventLoggedIn, contracts.EventSessionExpired}, h.events.types())
}

func TestUnauthorized_LateResultDoesNotDisturbNewLogin(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	release := make(chan struct{})
	h.backend.handle("POST "+contracts.PathTripCount, func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusUnauthorized)
	})
	h.portal.SelectPeriod("today")
	h.portal.Logout()
	h.portal.SelectCity("Ankara")
	h.snapshot(func(*Portal) {})
	close(release)
	h.settle()

	v := h.authView()
	assert.Equal(t, auth.StepPhoneEntry.String(), v.Step)
	assert.Equal(t, "Ankara", v.City)
	assert.Empty(t, v.Error)
}

// ----- profile -----

func TestSelectPeriod_CachedPeriodsSendNoRequest(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	h.portal.SelectPeriod("all")
	h.settle()
	assert.Zero(t, h.backend.count("POST "+contracts.PathTripCount), "all comes with the profile")

	h.portal.SelectPeriod("week")
	h.settle()
	assert.Equal(t, 1, h.backend.count("POST "+contracts.PathTripCount))
	assert.Equal(t, "11", h.profileView().TripCount)

	h.portal.SelectPeriod("all")
	h.portal.SelectPeriod("week")
	h.portal.SelectPeriod("bogus")
	h.settle()
	assert.Equal(t, 1, h.backend.count("POST "+contracts.PathTripCount))
	p := h.profileView()
	assert.Equal(t, "week", p.Period)
	assert.Equal(t, "11", p.TripCount)
}

func TestSelectPeriod_StaleResultNotDisplayed(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	release := make(chan struct{})
	h.backend.handle("POST "+contracts.PathTripCount, func(w http.ResponseWriter, r *http.Request) {
		var req contracts.TripCountRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Period == "week" {
			<-release
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "tripCount": tripCounts[req.Period]})
	})

	h.portal.SelectPeriod("week")
	h.snapshot(func(*Portal) {})
	assert.True(t, h.profileView().TripsLoading)

	h.portal.SelectPeriod("month")
	require.Eventually(t, func() bool {
		return h.profileView().TripCount == "27"
	}, 2*time.Second, 10*time.Millisecond)

	close(release)
	h.settle()

	p := h.profileView()
	assert.Equal(t, "month", p.Period)
	assert.Equal(t, "27", p.TripCount)

	h.portal.SelectPeriod("week")
	h.settle()
	assert.Equal(t, "11", h.profileView().TripCount, "late result was still cached")
	assert.Equal(t, 2, h.backend.count("POST "+contracts.PathTripCount))
}

func TestSelectPeriod_FailureShowsDash(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.backend.handle("POST "+contracts.PathTripCount, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false})
	})

	h.portal.SelectPeriod("today")
	h.settle()

	p := h.profileView()
	assert.Equal(t, "-", p.TripCount)
	assert.False(t, p.TripsLoading)
}

func TestCampaign_FailureShowsFallback(t *testing.T) {
	h := newHarness(t)
	h.backend.handle("GET "+contracts.PathCampaign, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>oops</html>"))
	})
	h.signIn(t)

	assert.Equal(t, MsgCampaignFallback, h.profileView().Campaign)
}

func TestLeaderboard_LoadsOncePerSession(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	h.portal.OpenLeaderboard()
	h.settle()
	h.portal.CloseLeaderboard()
	h.portal.OpenLeaderboard()
	h.settle()

	assert.Equal(t, 1, h.backend.count("GET "+contracts.PathLeaderboard))
	v := h.leaderboardView()
	assert.True(t, v.Open)
	assert.Equal(t, "Mart 2026 — 12 sürücü arasında", v.Header)
	require.Len(t, v.Rows, 2)
	assert.Equal(t, "gold", v.Rows[0].Medal)
	assert.True(t, v.Rows[1].IsMe)
	assert.False(t, v.Separator)
}

func TestLeaderboard_RetryAfterFailure(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.backend.handle("GET "+contracts.PathLeaderboard, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": ""})
	})

	h.portal.OpenLeaderboard()
	h.settle()
	v := h.leaderboardView()
	assert.Equal(t, apiclient.GenericFailure, v.Error)
	assert.True(t, v.CanRetry)

	h.backend.handle("GET "+contracts.PathLeaderboard, nil)
	h.portal.RetryLeaderboard()
	h.settle()
	assert.Equal(t, 2, h.backend.count("GET "+contracts.PathLeaderboard))
	v = h.leaderboardView()
	assert.Empty(t, v.Error)
	assert.Len(t, v.Rows, 2)
}

func TestLeaderboard_ReopenAfterFailureFetchesAgain(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.backend.handle("GET "+contracts.PathLeaderboard, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": ""})
	})

	h.portal.OpenLeaderboard()
	h.settle()
	require.Equal(t, apiclient.GenericFailure, h.leaderboardView().Error)

	h.backend.handle("GET "+contracts.PathLeaderboard, nil)
	h.portal.CloseLeaderboard()
	h.portal.OpenLeaderboard()
	h.settle()

	assert.Equal(t, 2, h.backend.count("GET "+contracts.PathLeaderboard))
	v := h.leaderboardView()
	assert.Empty(t, v.Error)
	assert.Len(t, v.Rows, 2)

	// a successful load is kept for the rest of the session
	h.portal.CloseLeaderboard()
	h.portal.OpenLeaderboard()
	h.settle()
	assert.Equal(t, 2, h.backend.count("GET "+contracts.PathLeaderboard))
}

// ----- car change -----

func TestCheckPlate_UnknownPlateOpensNewCarForm(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	h.portal.OpenPlateEditor()
	h.settle()
	v := h.plateView()
	assert.Equal(t, string(PlateEntry), v.Step)
	assert.Equal(t, "06XYZ1", v.Plate)

	h.portal.CheckPlate(" ab")
	h.settle()
	assert.Equal(t, MsgPlateInvalid, h.plateView().Error)
	assert.Zero(t, h.backend.count("POST "+contracts.PathCheckPlate))

	h.portal.CheckPlate("34abc123")
	h.settle()

	var check contracts.CheckPlateRequest
	require.NoError(t, json.Unmarshal(h.backend.last("POST "+contracts.PathCheckPlate).body, &check))
	assert.Equal(t, "34ABC123", check.Plate)

	v = h.plateView()
	assert.Equal(t, string(PlateNewCarForm), v.Step)
	assert.Equal(t, "34ABC123", v.Plate)
	assert.Equal(t, []string{"Renault", "Toyota"}, v.Brands)
	require.NotEmpty(t, v.Years)
	assert.Equal(t, 2026, v.Years[0])

	h.portal.SaveNewCar("Toyota", "Corolla", "1985")
	h.settle()
	assert.Equal(t, MsgYearOutOfRange, h.plateView().Error)

	h.portal.SaveNewCar("Toyota", "Corolla", "2020")
	h.settle()

	var change contracts.ChangeCarRequest
	require.NoError(t, json.Unmarshal(h.backend.last("POST "+contracts.PathChangeCar).body, &change))
	assert.Equal(t, contracts.ChangeCarRequest{Plate: "34ABC123", Brand: "Toyota", Model: "Corolla", Year: 2020}, change)

	assert.Equal(t, string(PlateIdle), h.plateView().Step)
	assert.Equal(t, "Toyota Corolla (2020) - Plaka: 34ABC123", h.profileView().Car)
	assert.Equal(t, contracts.EventCarChanged, h.events.types()[1])
	assert.Equal(t, 1, h.backend.count("GET "+contracts.PathCarBrands))
}

func TestCheckPlate_KnownPlateConfirms(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.backend.handle("POST "+contracts.PathCheckPlate, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"found":   true,
			"car":     map[string]any{"id": 77, "brand": "Renault", "model": "Clio", "year": "2021"},
		})
	})

	h.portal.OpenPlateEditor()
	h.portal.CheckPlate(" 35xyz99 ")
	h.settle()

	v := h.plateView()
	assert.Equal(t, string(PlateMatchedCar), v.Step)
	require.NotNil(t, v.Matched)
	assert.Equal(t, "Renault Clio (2021) - Plaka: 35XYZ99", v.Matched.Text)

	h.portal.ConfirmExistingCar()
	h.settle()

	var change contracts.ChangeCarRequest
	require.NoError(t, json.Unmarshal(h.backend.last("POST "+contracts.PathChangeCar).body, &change))
	assert.Equal(t, "77", change.CarID)
	assert.Equal(t, "35XYZ99", change.Plate)
	assert.Equal(t, "Renault Clio (2021) - Plaka: 35XYZ99", h.profileView().Car)
}

func TestSaveNewCar_FailureKeepsForm(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.backend.handle("POST "+contracts.PathChangeCar, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "Araç kaydedilemedi."})
	})

	h.portal.OpenPlateEditor()
	h.portal.CheckPlate("34ABC123")
	h.settle()
	require.Equal(t, string(PlateNewCarForm), h.plateView().Step)

	h.portal.SaveNewCar("Toyota", "Corolla", "2020")
	h.settle()

	v := h.plateView()
	assert.Equal(t, string(PlateNewCarForm), v.Step)
	assert.Equal(t, "Araç kaydedilemedi.", v.Error)
	assert.False(t, v.Busy)
	assert.Equal(t, "Fiat Egea (2019) - Plaka: 06XYZ1", h.profileView().Car)
	assert.NotContains(t, h.events.types(), contracts.EventCarChanged)
}

func TestOpenPlateEditor_RequiresAssignedCar(t *testing.T) {
	h := newHarness(t)
	h.backend.handle("POST "+contracts.PathVerifyOtp, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":      true,
			"driver":       map[string]any{"id": "d-2", "name": "Ali Kaya", "tripCount": 0},
			"sessionToken": "tok-3",
		})
	})
	h.signIn(t)

	h.portal.OpenPlateEditor()
	h.portal.CheckPlate("34ABC123")
	h.settle()

	assert.Equal(t, string(PlateIdle), h.plateView().Step)
	assert.Zero(t, h.backend.count("POST "+contracts.PathCheckPlate))
}

func TestValidationFailure_CarriesInlineMessage(t *testing.T) {
	err := validationFailure(driver.ErrPlateTooShort)

	assert.Equal(t, failure.KindValidation, failure.KindOf(err))
	assert.ErrorIs(t, err, driver.ErrPlateTooShort)
	assert.Equal(t, MsgPlateInvalid, errorText(err, MsgUpdateFailed, MsgUnreachableShort))
	assert.Equal(t, MsgCarFields, errorText(validationFailure(errors.New("other")), MsgCarFields, MsgUnreachableShort))
}

func TestClosePlateEditor_DropsPendingResult(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	release := make(chan struct{})
	h.backend.handle("POST "+contracts.PathCheckPlate, func(w http.ResponseWriter, _ *http.Request) {
		<-release
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "found": false})
	})

	h.portal.OpenPlateEditor()
	h.portal.CheckPlate("34ABC123")
	h.portal.ClosePlateEditor()
	h.snapshot(func(*Portal) {})
	close(release)
	h.settle()

	assert.Equal(t, string(PlateIdle), h.plateView().Step)
	assert.Zero(t, h.backend.count("GET "+contracts.PathCarBrands))
}
