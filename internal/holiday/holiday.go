// Package holiday supplies the national holidays shown on the calendar.
package holiday

import (
	"sort"
	"sync"
	"time"

	"planner/internal/calendar"
)

// Kind classifies a holiday. Only national holidays are tabulated.
type Kind string

const National Kind = "national"

// Holiday is a named day off.
type Holiday struct {
	Date string `json:"date"` // YYYY-MM-DD
	Name string `json:"name"`
	Kind Kind   `json:"type"`
}

// Provider returns the holidays of a year. Implementations must be pure
// functions of the year.
type Provider interface {
	ForYear(year int) []Holiday
}

// Easter returns Easter Sunday of the given Gregorian year using the
// Meeus/Jones/Butcher algorithm.
func Easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return calendar.Date(year, time.Month(month), day)
}

// Brazil is the national holiday table: fixed dates plus the moveable feasts
// derived from Easter.
type Brazil struct{}

func (Brazil) ForYear(year int) []Holiday {
	fixed := func(month time.Month, day int, name string) Holiday {
		return Holiday{Date: calendar.ToISODate(calendar.Date(year, month, day)), Name: name, Kind: National}
	}
	moveable := func(d time.Time, name string) Holiday {
		return Holiday{Date: calendar.ToISODate(d), Name: name, Kind: National}
	}

	easter := Easter(year)
	carnival := calendar.AddDays(easter, -47)

	holidays := []Holiday{
		fixed(time.January, 1, "Ano Novo"),
		fixed(time.April, 21, "Tiradentes"),
		fixed(time.May, 1, "Dia do Trabalho"),
		fixed(time.September, 7, "Independência do Brasil"),
		fixed(time.October, 12, "Nossa Senhora Aparecida"),
		fixed(time.November, 2, "Finados"),
		fixed(time.November, 15, "Proclamação da República"),
		fixed(time.November, 20, "Consciência Negra"),
		fixed(time.December, 25, "Natal"),

		moveable(calendar.AddDays(carnival, -3), "Sábado de Carnaval"),
		moveable(calendar.AddDays(carnival, -2), "Domingo de Carnaval"),
		moveable(calendar.AddDays(carnival, -1), "Segunda de Carnaval"),
		moveable(carnival, "Carnaval"),
		moveable(calendar.AddDays(carnival, 1), "Quarta-feira de Cinzas"),
		moveable(calendar.AddDays(easter, -2), "Sexta-feira Santa"),
		moveable(easter, "Páscoa"),
		moveable(calendar.AddDays(easter, 60), "Corpus Christi"),
	}

	sort.SliceStable(holidays, func(i, j int) bool {
		return holidays[i].Date < holidays[j].Date
	})
	return holidays
}

// Cached memoizes another provider per year. It is safe for concurrent use.
type Cached struct {
	next  Provider
	mu    sync.RWMutex
	years map[int][]Holiday
}

func NewCached(next Provider) *Cached {
	return &Cached{next: next, years: make(map[int][]Holiday)}
}

func (c *Cached) ForYear(year int) []Holiday {
	c.mu.RLock()
	hs, ok := c.years[year]
	c.mu.RUnlock()
	if !ok {
		hs = c.next.ForYear(year)
		c.mu.Lock()
		c.years[year] = hs
		c.mu.Unlock()
	}
	out := make([]Holiday, len(hs))
	copy(out, hs)
	return out
}

// Find looks a YYYY-MM-DD date up in holidays.
func Find(date string, holidays []Holiday) (Holiday, bool) {
	for _, h := range holidays {
		if h.Date == date {
			return h, true
		}
	}
	return Holiday{}, false
}

// Between returns the holidays in [start, end], which may span several years.
func Between(p Provider, start, end time.Time) []Holiday {
	from, to := calendar.ToISODate(start), calendar.ToISODate(end)

	var out []Holiday
	for year := start.Year(); year <= end.Year(); year++ {
		for _, h := range p.ForYear(year) {
			if h.Date >= from && h.Date <= to {
				out = append(out, h)
			}
		}
	}
	return out
}
