// Command expand parses an iCalendar stream, expands the recurrence
// rules of each event, and prints the occurrences.
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/calwire/calwire/ical"
	"github.com/calwire/calwire/jscalendar"
)

const sampleICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//calwire//expand example//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:standup@example.com\r\n" +
	"DTSTAMP:20240301T120000Z\r\n" +
	"DTSTART:20240304T093000Z\r\n" +
	"DTEND:20240304T094500Z\r\n" +
	"SUMMARY:Daily standup\r\n" +
	"RRULE:FREQ=WEEKLY;COUNT=12;BYDAY=MO,WE,FR\r\n" +
	"EXDATE:20240311T093000Z\r\n" +
	"X-UNMAPPED:ignored\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func main() {
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.Kitchen,
	}))

	data := []byte(sampleICS)
	if len(os.Args) > 1 {
		var err error
		data, err = os.ReadFile(os.Args[1])
		if err != nil {
			log.Fatalf("reading %s: %v", os.Args[1], err)
		}
	}

	cal, err := ical.Parse(data, ical.WithLogger(logger))
	if err != nil {
		log.Fatalf("parsing calendar: %v", err)
	}

	for _, event := range cal.Events() {
		summary, _ := event.Text(ical.PropSummary).Get()
		fmt.Printf("%s\n", summary)

		set, err := event.RecurrenceSet(time.UTC)
		if err != nil {
			logger.Warn("event has no usable recurrence", "summary", summary, "err", err)
			continue
		}
		dates, limited, err := set.All(20)
		if err != nil {
			log.Fatalf("expanding %q: %v", summary, err)
		}
		for _, d := range dates {
			fmt.Printf("  %s\n", d.Format(time.RFC1123))
		}
		if limited {
			fmt.Println("  ...")
		}
	}

	// Show the same events in their JSCalendar form.
	events, err := jscalendar.FromICal(cal, jscalendar.WithLogger(logger))
	if err != nil {
		log.Fatalf("converting to JSCalendar: %v", err)
	}
	out, err := jscalendar.Marshal(events)
	if err != nil {
		log.Fatalf("encoding JSCalendar: %v", err)
	}
	fmt.Printf("%s\n", out)
}
