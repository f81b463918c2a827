// Package calendar talks to the external calendar service that mirrors
// confirmed appointments. The core only depends on the create/delete
// capability; this client is one concrete adapter for it.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Guyeche/Romki-Barber-App-V2/internal/model"
)

// Event durations per service; unmapped services fall back to the default.
var serviceDurations = map[string]time.Duration{
	"Haircut":              20 * time.Minute,
	"Beard Trim":           10 * time.Minute,
	"Haircut & Beard Trim": 30 * time.Minute,
}

const defaultEventDuration = 30 * time.Minute

// EventDuration returns how long the calendar event for a service lasts.
func EventDuration(service string) time.Duration {
	if d, ok := serviceDurations[service]; ok {
		return d
	}
	return defaultEventDuration
}

// Client is a REST adapter for a calendar API with bearer-token auth.
type Client struct {
	baseURL    string
	calendarID string
	token      string
	httpc      *http.Client
	loc        *time.Location
}

func NewClient(baseURL, calendarID, token string, loc *time.Location) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		calendarID: calendarID,
		token:      token,
		httpc:      &http.Client{Timeout: 10 * time.Second},
		loc:        loc,
	}
}

type eventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type eventRequest struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Start       eventTime `json:"start"`
	End         eventTime `json:"end"`
}

type eventResponse struct {
	ID string `json:"id"`
}

// CreateEvent creates a calendar event for the appointment and returns its
// external id. Start/end are expressed in the business timezone; the end time
// comes from the service duration table.
func (c *Client) CreateEvent(ctx context.Context, appt model.Appointment) (string, error) {
	start, err := model.SlotStart(appt.Date, appt.Time, c.loc)
	if err != nil {
		return "", err
	}
	end := start.Add(EventDuration(appt.Service))

	body, err := json.Marshal(eventRequest{
		Summary:     fmt.Sprintf("Appointment: %s - %s", appt.CustomerName, appt.Service),
		Description: fmt.Sprintf("Customer: %s\nEmail: %s\nService: %s", appt.CustomerName, appt.Email, appt.Service),
		Start:       eventTime{DateTime: start.Format(time.RFC3339), TimeZone: c.loc.String()},
		End:         eventTime{DateTime: end.Format(time.RFC3339), TimeZone: c.loc.String()},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/calendars/%s/events", c.baseURL, c.calendarID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	c.addHeaders(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("calendar api error: status %d", resp.StatusCode)
	}

	var created eventResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("calendar api returned no event id")
	}
	return created.ID, nil
}

// DeleteEvent removes a previously created event. A 404 means the event is
// already gone, which is the state we want.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	if strings.TrimSpace(eventID) == "" {
		return nil
	}
	url := fmt.Sprintf("%s/calendars/%s/events/%s", c.baseURL, c.calendarID, eventID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	c.addHeaders(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		return fmt.Errorf("calendar api error: status %d", resp.StatusCode)
	}
}

func (c *Client) addHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
}

// Disabled is a no-op gateway for deployments without a calendar configured.
// It reports success with no event id, so bookings proceed without sync.
type Disabled struct{}

func (Disabled) CreateEvent(context.Context, model.Appointment) (string, error) { return "", nil }
func (Disabled) DeleteEvent(context.Context, string) error                      { return nil }
