package service

import (
	"fmt"
	"strings"
	"time"

	"smart-planner/modules/planner/entity"

	ical "github.com/arran4/golang-ical"
)

const icsProductID = "-//smart-planner//week export//EN"

// ExportWeekICS renders the anchor's week as an iCalendar document. The event
// category travels in CATEGORIES.
func ExportWeekICS(events []entity.Event, anchor time.Time, weekStart time.Weekday, now time.Time) string {
	start, _ := WeekBounds(anchor, weekStart)

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetXWRCalName(fmt.Sprintf("Week of %s", start.Format("2006-01-02")))

	for _, e := range EventsInWeek(events, anchor, weekStart) {
		ve := cal.AddEvent(eventUID(e))
		ve.SetDtStampTime(now.UTC())
		ve.SetSummary(e.Title)
		if e.AllDay {
			ve.SetAllDayStartAt(e.Start)
			ve.SetAllDayEndAt(e.End)
		} else {
			ve.SetStartAt(e.Start.UTC())
			ve.SetEndAt(e.End.UTC())
		}
		if e.Description != "" {
			ve.SetDescription(e.Description)
		}
		if e.Location != "" {
			ve.SetLocation(e.Location)
		}
		ve.AddProperty(ical.ComponentPropertyCategories, strings.ToUpper(string(entity.NormalizeCategory(string(e.Category)))))
	}
	return cal.Serialize()
}

func eventUID(e entity.Event) string {
	id := e.ID
	if id == "" {
		id = fmt.Sprintf("%d", e.Start.Unix())
	}
	return id + "@smart-planner"
}
