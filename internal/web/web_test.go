package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"vfestimetable/internal/catalog"
	"vfestimetable/internal/config"
	"vfestimetable/internal/ics"
	"vfestimetable/internal/model"
	"vfestimetable/internal/share"
)

func testServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()

	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg.ShareBaseURL = "https://timetable.example.com/"

	store := catalog.NewStore()
	store.Replace([]model.Event{
		{
			UID:             "abc123-0000",
			Title:           "AMOKA",
			Platform:        []model.Platform{model.PlatformPC},
			TimeSlotMinutes: 30,
		},
	})

	srv := httptest.NewServer(NewServer(cfg, store).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func selectionsBody() string {
	return `[{"uid":"abc123-0000","schedule":{"date":{"year":2025,"month":2,"day":9},"time":{"hour":19,"minute":30}}}]`
}

func TestHandleHealth(t *testing.T) {
	srv := testServer(t, nil)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestHandleEvents(t *testing.T) {
	srv := testServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/events")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var events []model.Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	if len(events) != 1 || events[0].UID != "abc123-0000" {
		t.Errorf("events = %+v", events)
	}
}

func TestHandleGenerate_Create(t *testing.T) {
	srv := testServer(t, nil)

	resp, err := http.Post(srv.URL+"/api/calendar/ics", "application/json", strings.NewReader(selectionsBody()))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != ics.MIMEType {
		t.Errorf("Content-Type = %q, want %q", got, ics.MIMEType)
	}
	if got := resp.Header.Get("Content-Disposition"); !strings.Contains(got, ics.FileNameEvents) {
		t.Errorf("Content-Disposition = %q", got)
	}

	var body strings.Builder
	if _, err := copyBody(&body, resp); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body.String(), "DTSTART:20250209T103000Z") {
		t.Errorf("body missing UTC start:\n%s", body.String())
	}
	if !strings.Contains(body.String(), "METHOD:REQUEST") {
		t.Errorf("body missing METHOD:REQUEST")
	}
}

func TestHandleGenerate_Cancel(t *testing.T) {
	srv := testServer(t, nil)

	resp, err := http.Post(srv.URL+"/api/calendar/cancel-ics", "application/json", strings.NewReader(selectionsBody()))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Disposition"); !strings.Contains(got, ics.FileNameCancelEvents) {
		t.Errorf("Content-Disposition = %q", got)
	}

	var body strings.Builder
	if _, err := copyBody(&body, resp); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body.String(), "STATUS:CANCELLED") {
		t.Errorf("body missing STATUS:CANCELLED")
	}
}

func TestHandleGenerate_Errors(t *testing.T) {
	srv := testServer(t, nil)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"empty list", `[]`, http.StatusBadRequest},
		{"malformed json", `{`, http.StatusBadRequest},
		{
			"unknown event",
			`[{"uid":"ffffff-0000","schedule":{"date":{"year":2025,"month":2,"day":9},"time":{"hour":19,"minute":30}}}]`,
			http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/calendar/ics", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestHandleShare_RoundTrip(t *testing.T) {
	srv := testServer(t, nil)

	resp, err := http.Post(srv.URL+"/api/share", "application/json", strings.NewReader(selectionsBody()))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("share create status = %d", resp.StatusCode)
	}

	var created struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
		URL     string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if !created.Success || created.Token == "" {
		t.Fatalf("share create response = %+v", created)
	}

	// The returned URL carries the same token in its schedules parameter.
	u, err := url.Parse(created.URL)
	if err != nil {
		t.Fatal(err)
	}
	if got := u.Query().Get(share.ShareParam); got != created.Token {
		t.Errorf("url token = %q, want %q", got, created.Token)
	}

	// Decode it back through the GET endpoint.
	decodeResp, err := http.Get(srv.URL + "/api/share?schedules=" + url.QueryEscape(created.Token))
	if err != nil {
		t.Fatal(err)
	}
	defer decodeResp.Body.Close()
	if decodeResp.StatusCode != http.StatusOK {
		t.Fatalf("share decode status = %d", decodeResp.StatusCode)
	}

	var selections []model.SelectedSchedule
	if err := json.NewDecoder(decodeResp.Body).Decode(&selections); err != nil {
		t.Fatal(err)
	}
	want := []model.SelectedSchedule{
		{
			EventID: "abc123-0000",
			Slot: model.ScheduleSlot{
				Date: model.CalendarDate{Year: 2025, Month: 2, Day: 9},
				Time: model.ClockTime{Hour: 19, Minute: 30},
			},
		},
	}
	if !reflect.DeepEqual(selections, want) {
		t.Errorf("decoded selections = %+v, want %+v", selections, want)
	}
}

func TestHandleShare_InvalidToken(t *testing.T) {
	srv := testServer(t, nil)

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{"missing token", "", http.StatusBadRequest},
		{"garbage token", "?schedules=not-a-valid-token", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + "/api/share" + tt.query)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestBasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "vfes", Password: "secret"}
	srv := testServer(t, cfg)

	// /health stays open.
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/health status = %d, want 200", resp.StatusCode)
	}

	// API without credentials is rejected.
	resp, err = http.Get(srv.URL + "/api/events")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", resp.StatusCode)
	}

	// Correct credentials pass.
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/events", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.SetBasicAuth("vfes", "secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", resp.StatusCode)
	}
}

func copyBody(dst *strings.Builder, resp *http.Response) (int64, error) {
	return io.Copy(dst, resp.Body)
}
