package rrule

import (
	"sort"
	"strings"
	"time"
)

// Set aggregates the recurrence properties of one calendar component:
// any number of RRULEs and RDATEs producing occurrences, minus the
// occurrences of EXRULEs and EXDATEs. Results come out sorted and
// deduplicated.
type Set struct {
	dtstart time.Time
	rrule   []*RRule
	rdate   []time.Time
	exrule  []*RRule
	exdate  []time.Time
}

// NewSet returns an empty set anchored at dtstart. Rules added later
// that carry no DTSTART of their own inherit it.
func NewSet(dtstart time.Time) *Set {
	return &Set{dtstart: dtstart.Truncate(time.Second)}
}

// DTStart returns the set's anchor date-time.
func (s *Set) DTStart() time.Time { return s.dtstart }

// RRule adds a generating rule. The set's DTSTART applies when the
// rule was built without one.
func (s *Set) RRule(r *RRule) {
	s.rrule = append(s.rrule, s.anchored(r))
}

// RDate adds a single extra occurrence.
func (s *Set) RDate(t time.Time) {
	s.rdate = append(s.rdate, t.Truncate(time.Second))
}

// ExRule adds an excluding rule; its occurrences are removed from the
// set.
func (s *Set) ExRule(r *RRule) {
	s.exrule = append(s.exrule, s.anchored(r))
}

// ExDate removes a single occurrence.
func (s *Set) ExDate(t time.Time) {
	s.exdate = append(s.exdate, t.Truncate(time.Second))
}

func (s *Set) anchored(r *RRule) *RRule {
	if r.OrigOptions.Dtstart.IsZero() && !s.dtstart.IsZero() {
		opt := r.OrigOptions
		opt.Dtstart = s.dtstart
		if anch, err := NewRRule(opt); err == nil {
			return anch
		}
	}
	return r
}

// All expands the whole set up to limit occurrences. The second return
// value reports whether the limit cut the expansion short; pass a
// non-positive limit for no cap, which an unbounded rule will make run
// to year 9999.
func (s *Set) All(limit int) ([]time.Time, bool, error) {
	it, err := s.iterator()
	if err != nil {
		return nil, false, err
	}
	var out []time.Time
	for {
		t, ok := it.next()
		if !ok {
			return out, false, it.err()
		}
		if limit > 0 && len(out) == limit {
			return out, true, nil
		}
		out = append(out, t)
	}
}

// Between returns the set's occurrences in the given window; both ends
// are included when inc is true.
func (s *Set) Between(after, before time.Time, inc bool) ([]time.Time, error) {
	it, err := s.iterator()
	if err != nil {
		return nil, err
	}
	var out []time.Time
	for {
		t, ok := it.next()
		if !ok {
			return out, it.err()
		}
		if t.After(before) || (!inc && t.Equal(before)) {
			return out, nil
		}
		if t.After(after) || (inc && t.Equal(after)) {
			out = append(out, t)
		}
	}
}

// String serializes the set's properties one per line in RRULE, RDATE,
// EXRULE, EXDATE order.
func (s *Set) String() string {
	var b strings.Builder
	line := func(text string) {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(text)
	}
	for _, r := range s.rrule {
		line("RRULE:" + r.String())
	}
	for _, t := range s.rdate {
		line("RDATE:" + timeToUTCStr(t))
	}
	for _, r := range s.exrule {
		line("EXRULE:" + r.String())
	}
	for _, t := range s.exdate {
		line("EXDATE:" + timeToUTCStr(t))
	}
	return b.String()
}

// setIterator merges the generating streams and co-advances the
// exclusion streams past each candidate.
type setIterator struct {
	gen     []stream
	ex      []stream
	exdate  map[int64]struct{}
	last    time.Time
	started bool
	iterErr error
}

// stream is one sorted source of occurrences with single-element
// lookahead.
type stream struct {
	next func() (time.Time, bool)
	fail func() error
	head time.Time
	ok   bool
}

func (st *stream) advance() {
	st.head, st.ok = st.next()
}

func (s *Set) iterator() (*setIterator, error) {
	it := &setIterator{exdate: make(map[int64]struct{}, len(s.exdate))}
	for _, t := range s.exdate {
		it.exdate[t.Unix()] = struct{}{}
	}

	for _, r := range s.rrule {
		ri := r.Iterator()
		it.gen = append(it.gen, stream{next: ri.Next, fail: ri.Err})
	}
	if len(s.rdate) > 0 {
		rdate := append([]time.Time(nil), s.rdate...)
		sort.Slice(rdate, func(i, j int) bool { return rdate[i].Before(rdate[j]) })
		i := 0
		it.gen = append(it.gen, stream{
			next: func() (time.Time, bool) {
				if i == len(rdate) {
					return time.Time{}, false
				}
				t := rdate[i]
				i++
				return t, true
			},
			fail: func() error { return nil },
		})
	}
	for _, r := range s.exrule {
		ri := r.Iterator()
		it.ex = append(it.ex, stream{next: ri.Next, fail: ri.Err})
	}

	for i := range it.gen {
		it.gen[i].advance()
	}
	for i := range it.ex {
		it.ex[i].advance()
	}
	return it, nil
}

func (it *setIterator) next() (time.Time, bool) {
	for {
		// Pick the earliest head across the generating streams.
		best := -1
		for i := range it.gen {
			if !it.gen[i].ok {
				continue
			}
			if best == -1 || it.gen[i].head.Before(it.gen[best].head) {
				best = i
			}
		}
		if best == -1 {
			for i := range it.gen {
				if err := it.gen[i].fail(); err != nil {
					it.iterErr = err
				}
			}
			return time.Time{}, false
		}
		t := it.gen[best].head
		it.gen[best].advance()

		if it.started && !t.After(it.last) {
			continue // duplicate across streams
		}
		if it.excluded(t) {
			continue
		}
		it.started = true
		it.last = t
		return t, true
	}
}

func (it *setIterator) excluded(t time.Time) bool {
	if _, ok := it.exdate[t.Unix()]; ok {
		return true
	}
	for i := range it.ex {
		for it.ex[i].ok && it.ex[i].head.Before(t) {
			it.ex[i].advance()
		}
		if it.ex[i].ok && it.ex[i].head.Equal(t) {
			return true
		}
	}
	return false
}

func (it *setIterator) err() error { return it.iterErr }
