package engine

import (
	"time"

	"github.com/rgoodwin/fieldsync/pkg/model"
)

// WeekOf returns the Monday and Sunday calendar dates of the week
// containing t.
func WeekOf(t time.Time) (weekStart, weekEnd string) {
	offset := int(t.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7 // Sunday
	}
	monday := t.AddDate(0, 0, -offset)
	sunday := monday.AddDate(0, 0, 6)
	return monday.Format(model.DateLayout), sunday.Format(model.DateLayout)
}
