// Package calendar fetches a user's upcoming calendar events from the
// external calendar provider, grounded on the teacher's bookowl/mattermost
// HTTP client pattern (spec §4.D "RunDeviceSchedule").
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lanternhq/beacon/pkg/model"
)

// Client fetches upcoming calendar events for a user.
type Client interface {
	UpcomingEvents(ctx context.Context, accessToken string, within time.Duration) ([]model.CalendarEvent, error)
}

// HTTPClient calls a calendar provider's REST API directly (e.g. Google
// Calendar's events.list), using a bearer access token.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewHTTPClient creates a calendar client with a 30-second timeout, matching
// spec §5's "practical upper bound of ~30 s" for external HTTP calls.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
	}
}

type eventsResponse struct {
	Items []struct {
		Summary string `json:"summary"`
		Start   struct {
			DateTime time.Time `json:"dateTime"`
		} `json:"start"`
		End struct {
			DateTime time.Time `json:"dateTime"`
		} `json:"end"`
	} `json:"items"`
}

// UpcomingEvents fetches events starting within the given window.
func (c *HTTPClient) UpcomingEvents(ctx context.Context, accessToken string, within time.Duration) ([]model.CalendarEvent, error) {
	now := time.Now().UTC()
	url := fmt.Sprintf("%s/events?timeMin=%s&timeMax=%s&singleEvents=true&orderBy=startTime",
		c.baseURL, now.Format(time.RFC3339), now.Add(within).Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("calendar: building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calendar: calling provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar: provider returned HTTP %d", resp.StatusCode)
	}

	var parsed eventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("calendar: decoding response: %w", err)
	}

	events := make([]model.CalendarEvent, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		events = append(events, model.CalendarEvent{
			Summary: item.Summary,
			Start:   item.Start.DateTime,
			End:     item.End.DateTime,
		})
	}
	return events, nil
}
