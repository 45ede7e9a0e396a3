// Package main runs end-to-end scenarios against a running clinic-calendar API.
//
// Scenarios cover:
//   - Session login for both roles
//   - Suggestions for the default and an explicit duration
//   - Booking the top suggestion and seeing it leave the list
//   - Double-booking rejection
//   - Cancellation
//   - Role dashboards
//   - The live suggestion feed reacting to a booking
//
// Usage:
//
//	API_BASE_URL=http://localhost:8080 go run scripts/e2e/run_e2e.go [scenario-name]
//
// Credentials default to the development demo accounts and can be overridden
// with E2E_PATIENT_EMAIL, E2E_PRACTITIONER_EMAIL and E2E_PASSWORD.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/net/websocket"
)

const liveWait = 10 * time.Second

var (
	apiBase           string
	patientEmail      string
	practitionerEmail string
	password          string
)

type scenario struct {
	Name string
	Fn   func(t *T)
}

// T is a lightweight test context for a single scenario.
type T struct {
	passed int
	failed int
	name   string
}

func (t *T) check(name string, ok bool) {
	if ok {
		fmt.Printf("    PASS: %s\n", name)
		t.passed++
	} else {
		fmt.Printf("    FAIL: %s\n", name)
		t.failed++
	}
}

func (t *T) fatalf(format string, args ...interface{}) {
	fmt.Printf("    FATAL: "+format+"\n", args...)
	t.failed++
}

type slot struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Confidence float64   `json:"confidence"`
	Reason     string    `json:"reason"`
}

type appointment struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Status    string    `json:"status"`
}

type session struct {
	Token string `json:"token"`
	User  struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
}

func call(method, path, token string, body interface{}, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, apiBase+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

func login(email string) (session, error) {
	var s session
	status, err := call(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password}, &s)
	if err != nil {
		return s, err
	}
	if status != http.StatusOK {
		return s, fmt.Errorf("login %s returned %d", email, status)
	}
	return s, nil
}

func suggestions(token string, minutes int) ([]slot, error) {
	var out struct {
		Suggestions []slot `json:"suggestions"`
	}
	path := "/api/suggestions"
	if minutes > 0 {
		path += fmt.Sprintf("?duration=%d", minutes)
	}
	status, err := call(http.MethodGet, path, token, nil, &out)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("suggestions returned %d", status)
	}
	return out.Suggestions, nil
}

func book(token string, s slot) (appointment, int, error) {
	var appt appointment
	status, err := call(http.MethodPost, "/api/appointments", token, map[string]interface{}{
		"title": "E2E consultation",
		"start": s.Start,
		"end":   s.End,
	}, &appt)
	return appt, status, err
}

func cancel(token, id string) int {
	status, err := call(http.MethodDelete, "/api/appointments/"+id, token, nil, nil)
	if err != nil {
		return 0
	}
	return status
}

func setup(t *T) (session, bool) {
	s, err := login(patientEmail)
	if err != nil {
		t.fatalf("login: %v", err)
		return s, false
	}
	return s, true
}

func scenarioLogin(t *T) {
	p, err := login(patientEmail)
	t.check("patient login succeeds", err == nil && p.Token != "")
	t.check("patient role returned", p.User.Role == "patient")

	d, err := login(practitionerEmail)
	t.check("practitioner login succeeds", err == nil && d.Token != "")
	t.check("practitioner role returned", d.User.Role == "practitioner")

	status, _ := call(http.MethodPost, "/auth/login", "", map[string]string{"email": patientEmail, "password": "wrong"}, nil)
	t.check("bad password rejected", status == http.StatusUnauthorized)

	status, _ = call(http.MethodGet, "/api/suggestions", "", nil, nil)
	t.check("suggestions require a session", status == http.StatusUnauthorized)
}

func scenarioSuggestions(t *T) {
	s, ok := setup(t)
	if !ok {
		return
	}
	slots, err := suggestions(s.Token, 0)
	if err != nil {
		t.fatalf("suggestions: %v", err)
		return
	}
	t.check("at most three suggestions", len(slots) <= 3)
	t.check("at least one suggestion", len(slots) > 0)
	for i := 1; i < len(slots); i++ {
		t.check(fmt.Sprintf("slot %d ordered by confidence", i), slots[i-1].Confidence >= slots[i].Confidence)
	}
	for i, sl := range slots {
		t.check(fmt.Sprintf("slot %d has a reason", i), sl.Reason != "")
		t.check(fmt.Sprintf("slot %d lands on the half hour", i), sl.Start.Minute()%30 == 0)
	}

	short, err := suggestions(s.Token, 30)
	t.check("30 minute suggestions returned", err == nil && len(short) > 0)
	if len(short) > 0 {
		t.check("30 minute slot length", short[0].End.Sub(short[0].Start) == 30*time.Minute)
	}

	status, _ := call(http.MethodGet, "/api/suggestions?duration=0", s.Token, nil, nil)
	t.check("zero duration rejected", status == http.StatusBadRequest)
}

func scenarioBookAndCancel(t *T) {
	s, ok := setup(t)
	if !ok {
		return
	}
	slots, err := suggestions(s.Token, 60)
	if err != nil || len(slots) == 0 {
		t.fatalf("no suggestions to book: %v", err)
		return
	}
	top := slots[0]

	appt, status, err := book(s.Token, top)
	t.check("booking created", err == nil && status == http.StatusCreated)
	t.check("booking belongs to patient", appt.PatientID == s.User.ID)

	after, err := suggestions(s.Token, 60)
	stillOffered := false
	for _, sl := range after {
		if sl.Start.Equal(top.Start) {
			stillOffered = true
		}
	}
	t.check("booked slot no longer suggested", err == nil && !stillOffered)

	_, status, _ = book(s.Token, top)
	t.check("double booking rejected", status == http.StatusConflict)

	if appt.ID == "" {
		return
	}
	t.check("new booking awaits confirmation", appt.Status == "booked")
	status, _ = call(http.MethodPost, "/api/appointments/"+appt.ID+"/confirm", s.Token, nil, nil)
	t.check("patient cannot confirm", status == http.StatusForbidden)
	if d, err := login(practitionerEmail); err == nil {
		var confirmed appointment
		status, err = call(http.MethodPost, "/api/appointments/"+appt.ID+"/confirm", d.Token, nil, &confirmed)
		t.check("practitioner confirms booking", err == nil && status == http.StatusOK && confirmed.Status == "confirmed")
	}
	t.check("cancellation succeeds", cancel(s.Token, appt.ID) == http.StatusOK)
}

func scenarioDashboards(t *T) {
	p, err := login(patientEmail)
	if err != nil {
		t.fatalf("patient login: %v", err)
		return
	}
	var patientView map[string]interface{}
	status, err := call(http.MethodGet, "/api/dashboard", p.Token, nil, &patientView)
	t.check("patient dashboard served", err == nil && status == http.StatusOK)
	t.check("patient dashboard role", patientView["role"] == "patient")
	_, hasSuggestions := patientView["suggestions"]
	t.check("patient dashboard has suggestions", hasSuggestions)

	d, err := login(practitionerEmail)
	if err != nil {
		t.fatalf("practitioner login: %v", err)
		return
	}
	var practitionerView map[string]interface{}
	status, err = call(http.MethodGet, "/api/dashboard", d.Token, nil, &practitionerView)
	t.check("practitioner dashboard served", err == nil && status == http.StatusOK)
	t.check("practitioner dashboard role", practitionerView["role"] == "practitioner")
}

func scenarioLiveFeed(t *T) {
	s, ok := setup(t)
	if !ok {
		return
	}
	wsURL := strings.Replace(apiBase, "http", "ws", 1) + "/api/suggestions/live?duration=60&token=" + url.QueryEscape(s.Token)
	conn, err := websocket.Dial(wsURL, "", apiBase)
	if err != nil {
		t.fatalf("dial live feed: %v", err)
		return
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(liveWait))

	var first struct {
		Type        string `json:"type"`
		Trigger     string `json:"trigger"`
		Suggestions []slot `json:"suggestions"`
	}
	if err := websocket.JSON.Receive(conn, &first); err != nil {
		t.fatalf("receive initial: %v", err)
		return
	}
	t.check("initial push on connect", first.Trigger == "connected")
	if len(first.Suggestions) == 0 {
		t.fatalf("initial push had no suggestions")
		return
	}

	appt, status, err := book(s.Token, first.Suggestions[0])
	if err != nil || status != http.StatusCreated {
		t.fatalf("book from live feed: status=%d err=%v", status, err)
		return
	}
	defer cancel(s.Token, appt.ID)

	next := first
	for next.Trigger != "calendar_changed" {
		next.Trigger, next.Suggestions = "", nil
		if err := websocket.JSON.Receive(conn, &next); err != nil {
			t.fatalf("receive update: %v", err)
			return
		}
	}
	moved := len(next.Suggestions) == 0 || !next.Suggestions[0].Start.Equal(first.Suggestions[0].Start)
	t.check("live feed pushes after booking", moved)
}

func main() {
	apiBase = strings.TrimRight(os.Getenv("API_BASE_URL"), "/")
	if apiBase == "" {
		fmt.Fprintln(os.Stderr, "ERROR: API_BASE_URL required")
		os.Exit(1)
	}
	patientEmail = envOr("E2E_PATIENT_EMAIL", "patient@clinic.local")
	practitionerEmail = envOr("E2E_PRACTITIONER_EMAIL", "practitioner@clinic.local")
	password = envOr("E2E_PASSWORD", "demo")

	scenarios := []scenario{
		{"login", scenarioLogin},
		{"suggestions", scenarioSuggestions},
		{"book-and-cancel", scenarioBookAndCancel},
		{"dashboards", scenarioDashboards},
		{"live-feed", scenarioLiveFeed},
	}

	filter := ""
	if len(os.Args) > 1 {
		filter = os.Args[1]
	}

	totalPassed := 0
	totalFailed := 0
	scenarioResults := make([]string, 0)

	for _, s := range scenarios {
		if filter != "" && s.Name != filter {
			continue
		}

		fmt.Printf("\n========================================\n")
		fmt.Printf("SCENARIO: %s\n", s.Name)
		fmt.Printf("========================================\n")

		t := &T{name: s.Name}
		s.Fn(t)

		totalPassed += t.passed
		totalFailed += t.failed

		status := "ok"
		if t.failed > 0 {
			status = "FAILED"
		}
		scenarioResults = append(scenarioResults, fmt.Sprintf("  %s %s (%d passed, %d failed)", status, s.Name, t.passed, t.failed))
	}

	fmt.Printf("\n========================================\n")
	fmt.Println("SUMMARY")
	fmt.Printf("========================================\n")
	for _, r := range scenarioResults {
		fmt.Println(r)
	}
	fmt.Printf("\nTotal: %d passed, %d failed\n", totalPassed, totalFailed)

	if totalFailed > 0 {
		fmt.Println("\nSOME TESTS FAILED")
		os.Exit(1)
	}
	fmt.Println("\nALL TESTS PASSED")
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
