package gcal

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/rgoodwin/fieldsync/pkg/model"
)

// BuildEvent converts a dispatch job into the managed event payload.
// The job's wall-clock window is rendered as explicit UTC-offset timestamps
// in loc, and the ownership tags plus the originating job id are stamped
// into the private property bag on every build, so every write re-asserts
// ownership.
func BuildEvent(job *model.DispatchJob, loc *time.Location) (*calendar.Event, error) {
	start, end, err := job.StartEnd(loc)
	if err != nil {
		return nil, err
	}

	summary := job.Title
	if job.CustomerName != "" {
		summary = fmt.Sprintf("%s - %s", job.Title, job.CustomerName)
	}

	var lines []string
	lines = append(lines, "Job ID: "+job.ID)
	lines = append(lines, "Status: "+string(job.Status))
	if job.ServiceType != "" {
		lines = append(lines, "Service: "+job.ServiceType)
	}
	if job.CustomerName != "" {
		lines = append(lines, "Customer: "+job.CustomerName)
	}
	if job.CustomerPhone != "" {
		lines = append(lines, "Phone: "+job.CustomerPhone)
	}
	if job.CustomerAddress != "" {
		lines = append(lines, "Address: "+job.CustomerAddress)
	}
	if job.Notes != "" {
		lines = append(lines, "Notes: "+job.Notes)
	}
	if job.Description != "" {
		lines = append(lines, "Description: "+job.Description)
	}

	ev := &calendar.Event{
		Summary:     summary,
		Description: strings.Join(lines, "\n"),
		Location:    job.CustomerAddress,
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				SourceTagKey: SourceTagValue,
				JobIDTagKey:  job.ID,
			},
		},
	}
	ev.ExtendedProperties.Private[hashTagKey] = PayloadHash(ev)
	return ev, nil
}

// JobIDOf extracts the originating job id from a managed event's private
// tag.
func JobIDOf(ev *calendar.Event) (string, bool) {
	if ev.ExtendedProperties == nil || ev.ExtendedProperties.Private == nil {
		return "", false
	}
	id, ok := ev.ExtendedProperties.Private[JobIDTagKey]
	return id, ok && id != ""
}

// PayloadHash digests the fields the sync engine writes. Two payloads with
// the same hash render identically on the calendar.
func PayloadHash(ev *calendar.Event) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00", ev.Summary, ev.Description, ev.Location)
	if ev.Start != nil {
		fmt.Fprintf(h, "%s\x00", ev.Start.DateTime)
	}
	if ev.End != nil {
		fmt.Fprintf(h, "%s\x00", ev.End.DateTime)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// StoredHash returns the payload hash stamped on a previously written
// managed event, if any.
func StoredHash(ev *calendar.Event) string {
	if ev.ExtendedProperties == nil || ev.ExtendedProperties.Private == nil {
		return ""
	}
	return ev.ExtendedProperties.Private[hashTagKey]
}
