// Package gcal wraps the Google Calendar API for the sync engine. Only
// events carrying the fieldsync ownership tag are ever listed, updated, or
// deleted; foreign events on the same calendar are invisible here.
package gcal

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/rgoodwin/fieldsync/pkg/auth"
)

const (
	// SourceTagKey/SourceTagValue mark events owned by fieldsync.
	SourceTagKey   = "dispatchSource"
	SourceTagValue = "fieldsync"
	// JobIDTagKey carries the originating dispatch job id.
	JobIDTagKey = "dispatchJobId"
	// hashTagKey carries the payload content hash used by the
	// skip-unchanged optimization.
	hashTagKey = "dispatchHash"

	listPageSize = 250
)

// Client operates on a single calendar.
type Client struct {
	srv        *calendar.Service
	calendarID string
	log        *zap.SugaredLogger
}

// NewService builds a calendar service whose requests authenticate through
// the broker.
func NewService(ctx context.Context, broker *auth.Broker) (*calendar.Service, error) {
	srv, err := calendar.NewService(ctx, option.WithTokenSource(broker.TokenSource(ctx)))
	if err != nil {
		return nil, errors.Wrap(err, "creating calendar service")
	}
	return srv, nil
}

// NewClient resolves calendarName against the user's calendar list and
// returns a client bound to it. The literal id "primary" is passed through.
func NewClient(ctx context.Context, srv *calendar.Service, calendarName string, log *zap.SugaredLogger) (*Client, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if calendarName == "primary" {
		return &Client{srv: srv, calendarID: "primary", log: log}, nil
	}

	list, err := srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrap(err, "retrieving calendar list")
	}
	for _, item := range list.Items {
		if item.Summary == calendarName || item.Id == calendarName {
			return &Client{srv: srv, calendarID: item.Id, log: log}, nil
		}
	}
	return nil, errors.Newf("calendar %q not found", calendarName)
}

// CalendarID returns the calendar-native id this client is bound to.
func (c *Client) CalendarID() string {
	return c.calendarID
}

// ListManagedEvents returns every fieldsync-tagged event in the half-open
// window [timeMin, timeMax), following pagination to exhaustion.
func (c *Client) ListManagedEvents(ctx context.Context, timeMin, timeMax time.Time) ([]*calendar.Event, error) {
	var out []*calendar.Event
	pageToken := ""
	for {
		call := c.srv.Events.List(c.calendarID).
			TimeMin(timeMin.Format(time.RFC3339)).
			TimeMax(timeMax.Format(time.RFC3339)).
			PrivateExtendedProperty(SourceTagKey + "=" + SourceTagValue).
			SingleEvents(true).
			MaxResults(listPageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		events, err := call.Do()
		if err != nil {
			return nil, errors.Wrap(err, "listing managed events")
		}
		out = append(out, events.Items...)
		if events.NextPageToken == "" {
			break
		}
		pageToken = events.NextPageToken
	}
	c.log.Debugw("managed events listed", "calendar", c.calendarID, "count", len(out))
	return out, nil
}

// Insert creates a new event.
func (c *Client) Insert(ctx context.Context, ev *calendar.Event) (*calendar.Event, error) {
	return c.srv.Events.Insert(c.calendarID, ev).Context(ctx).Do()
}

// Update replaces the event with id eventID wholesale.
func (c *Client) Update(ctx context.Context, eventID string, ev *calendar.Event) (*calendar.Event, error) {
	return c.srv.Events.Update(c.calendarID, eventID, ev).Context(ctx).Do()
}

// Delete removes the event with id eventID.
func (c *Client) Delete(ctx context.Context, eventID string) error {
	return c.srv.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
}
