package gcal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

func TestListManagedEventsFollowsPagination(t *testing.T) {
	var paths []string
	var pageTokens []string
	var filters []string
	var firstQuery map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		paths = append(paths, r.URL.Path)
		pageTokens = append(pageTokens, q.Get("pageToken"))
		filters = append(filters, q.Get("privateExtendedProperty"))
		if firstQuery == nil {
			firstQuery = map[string]string{
				"timeMin":      q.Get("timeMin"),
				"timeMax":      q.Get("timeMax"),
				"singleEvents": q.Get("singleEvents"),
			}
		}

		resp := &calendar.Events{}
		if q.Get("pageToken") == "" {
			resp.Items = []*calendar.Event{{Id: "ev-1"}}
			resp.NextPageToken = "p2"
		} else {
			resp.Items = []*calendar.Event{{Id: "ev-2"}}
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	svc, err := calendar.NewService(context.Background(),
		option.WithEndpoint(srv.URL), option.WithoutAuthentication())
	require.NoError(t, err)
	client, err := NewClient(context.Background(), svc, "primary", nil)
	require.NoError(t, err)

	timeMin := time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)
	events, err := client.ListManagedEvents(context.Background(), timeMin, timeMin.AddDate(0, 0, 7))
	require.NoError(t, err)

	// Both pages are fetched and concatenated in order.
	require.Len(t, events, 2)
	assert.Equal(t, "ev-1", events[0].Id)
	assert.Equal(t, "ev-2", events[1].Id)
	assert.Equal(t, []string{"", "p2"}, pageTokens)

	for _, p := range paths {
		assert.Contains(t, p, "/calendars/primary/events")
	}
	// Every page carries the ownership tag filter.
	for _, f := range filters {
		assert.Equal(t, SourceTagKey+"="+SourceTagValue, f)
	}
	assert.Equal(t, "2026-02-16T00:00:00Z", firstQuery["timeMin"])
	assert.Equal(t, "2026-02-23T00:00:00Z", firstQuery["timeMax"])
	assert.Equal(t, "true", firstQuery["singleEvents"])
}
