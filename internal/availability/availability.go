// Package availability computes which appointment slots are still open.
package availability

import (
	"errors"
	"time"

	"doctors-portal-api/internal/model"
)

const DateLayout = "2006-01-02"

var ErrBadDate = errors.New("date must be YYYY-MM-DD")

type Option struct {
	ID    string   `json:"_id"`
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Slots []string `json:"slots"`
}

type Specialty struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Resolve returns every catalog entry with the slots consumed by bookings
// removed. bookings must already be restricted to a single date. Catalog and
// slot order are preserved; consumed labels missing from the catalog are ignored.
func Resolve(catalog []model.TreatmentOption, bookings []model.Booking) []Option {
	taken := make(map[string]map[string]struct{}, len(catalog))
	for _, b := range bookings {
		set, ok := taken[b.Treatment]
		if !ok {
			set = make(map[string]struct{})
			taken[b.Treatment] = set
		}
		set[b.Slot] = struct{}{}
	}

	out := make([]Option, 0, len(catalog))
	for _, t := range catalog {
		used := taken[t.Name]
		remaining := make([]string, 0, len(t.Slots))
		for _, s := range t.Slots {
			if _, ok := used[s]; !ok {
				remaining = append(remaining, s)
			}
		}
		out = append(out, Option{ID: t.ID, Name: t.Name, Price: t.Price, Slots: remaining})
	}
	return out
}

func Specialties(catalog []model.TreatmentOption) []Specialty {
	out := make([]Specialty, len(catalog))
	for i, t := range catalog {
		out[i] = Specialty{ID: t.ID, Name: t.Name}
	}
	return out
}

// ParseDate checks raw is a calendar day and returns it in canonical form.
func ParseDate(raw string) (string, error) {
	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		return "", ErrBadDate
	}
	return d.Format(DateLayout), nil
}
