package export

import (
	"context"
	"fmt"
	"io"

	ics "github.com/arran4/golang-ical"

	"github.com/frcattend/attend/internal/store"
)

// WriteCalendar serializes every recorded event as an all-day VEVENT, so
// the season's meeting history can be dropped into a team calendar.
func WriteCalendar(ctx context.Context, db *store.Store, w io.Writer) error {
	events, err := db.ListEvents(ctx)
	if err != nil {
		return err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//frcattend//attend//EN")

	for _, ev := range events {
		// The (date, type) key is unique, which makes repeated exports
		// update rather than duplicate entries.
		uid := fmt.Sprintf("%s-%s@frcattend", ev.Date, ev.Type)
		vevent := cal.AddEvent(uid)
		vevent.SetAllDayStartAt(ev.Date.Time())
		vevent.SetAllDayEndAt(ev.Date.AddDays(1).Time())
		vevent.SetSummary(ev.Type.Title())

		n, err := db.CheckinCount(ctx, ev.Date, ev.Type)
		if err != nil {
			return err
		}
		desc := fmt.Sprintf("%d checked in", n)
		if ev.Description != nil && *ev.Description != "" {
			desc = *ev.Description + "\n" + desc
		}
		vevent.SetDescription(desc)
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("serialize calendar: %w", err)
	}
	return nil
}
