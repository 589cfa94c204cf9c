// Package rrule implements the iCalendar recurrence rule model
// (RFC 5545 section 3.3.10) together with a lazy occurrence expansion
// engine.
//
// A rule is normally obtained by parsing its text form with
// StrToROption, combined with a DTSTART and turned into an *RRule via
// NewRRule. Occurrences are pulled one at a time from an Iterator, or
// collected with All, Between, Before and After. Several rules,
// additional dates and exclusions combine into a Set.
//
// The expansion algorithm follows python-dateutil's rrule: per year (or
// month) the engine precomputes flat day masks answering weekday, month,
// day-of-month and week-number queries in constant time, builds a
// candidate day set for the current period, filters it through the BY*
// constraints and crosses the survivors with the rule's time set.
package rrule
