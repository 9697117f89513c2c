package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stallbook/stallbook/internal/shared"
)

// PathID parses a positive integer URL parameter.
func PathID(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.NewError(shared.ErrValidation, "INVALID_ID", "%s must be a positive integer", key)
	}
	return id, nil
}

// QueryInt reads an optional integer query parameter.
func QueryInt(r *http.Request, key string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, shared.NewError(shared.ErrValidation, CodeValidation, "%s must be an integer", key)
	}
	return v, nil
}

// QueryInt64Ptr reads an optional integer query parameter, nil when absent.
func QueryInt64Ptr(r *http.Request, key string) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, shared.NewError(shared.ErrValidation, CodeValidation, "%s must be an integer", key)
	}
	return &v, nil
}

// Page reads page and limit.
func Page(r *http.Request) (shared.PageRequest, error) {
	page, err := QueryInt(r, "page", 1)
	if err != nil {
		return shared.PageRequest{}, err
	}
	limit, err := QueryInt(r, "limit", shared.DefaultPerPage)
	if err != nil {
		return shared.PageRequest{}, err
	}
	return shared.PageRequest{Page: page, Limit: limit}.Normalize(), nil
}

// ParseDate accepts YYYY-MM-DD or RFC3339.
func ParseDate(raw string) (time.Time, error) {
	return shared.ParseDate(raw)
}

// PeriodFilter reads month+year, year, or date_from/date_to. It returns nil
// when no period was requested. Open-ended ranges leave the missing bound zero.
func PeriodFilter(r *http.Request) (*shared.Period, error) {
	q := r.URL.Query()
	month, err := QueryInt(r, "month", 0)
	if err != nil {
		return nil, err
	}
	year, err := QueryInt(r, "year", 0)
	if err != nil {
		return nil, err
	}
	switch {
	case month != 0 && year != 0:
		p, err := shared.MonthPeriod(year, month, time.UTC)
		if err != nil {
			return nil, shared.NewError(shared.ErrValidation, "INVALID_PERIOD", "month must be 1-12 and year positive")
		}
		return &p, nil
	case month != 0:
		return nil, shared.NewError(shared.ErrValidation, "INVALID_PERIOD", "month requires year")
	case year != 0:
		p, err := shared.YearPeriod(year, time.UTC)
		if err != nil {
			return nil, shared.NewError(shared.ErrValidation, "INVALID_PERIOD", "year must be positive")
		}
		return &p, nil
	}

	var p shared.Period
	if raw := q.Get("date_from"); raw != "" {
		from, err := ParseDate(raw)
		if err != nil {
			return nil, err
		}
		p.From = shared.DayPeriod(from).From
	}
	if raw := q.Get("date_to"); raw != "" {
		to, err := ParseDate(raw)
		if err != nil {
			return nil, err
		}
		p.To = shared.DayPeriod(to).To
	}
	if p.From.IsZero() && p.To.IsZero() {
		return nil, nil
	}
	if !p.From.IsZero() && !p.To.IsZero() && !p.From.Before(p.To) {
		return nil, shared.NewError(shared.ErrValidation, "INVALID_PERIOD", "date_from must not be after date_to")
	}
	return &p, nil
}

// RequiredRange reads the mandatory from/to pair used by history range views.
func RequiredRange(r *http.Request) (shared.Period, error) {
	q := r.URL.Query()
	rawFrom, rawTo := q.Get("from"), q.Get("to")
	if rawFrom == "" || rawTo == "" {
		return shared.Period{}, shared.NewError(shared.ErrValidation, "MISSING_PARAMETERS", "from and to are required")
	}
	from, err := ParseDate(rawFrom)
	if err != nil {
		return shared.Period{}, err
	}
	to, err := ParseDate(rawTo)
	if err != nil {
		return shared.Period{}, err
	}
	p, err := shared.RangePeriod(from, to)
	if err != nil {
		return shared.Period{}, shared.NewError(shared.ErrValidation, "INVALID_PERIOD", "from must not be after to")
	}
	return p, nil
}

// MonthParams reads month and year, defaulting to the month containing now.
func MonthParams(r *http.Request, now time.Time) (int, int, error) {
	month, err := QueryInt(r, "month", int(now.Month()))
	if err != nil {
		return 0, 0, err
	}
	year, err := QueryInt(r, "year", now.Year())
	if err != nil {
		return 0, 0, err
	}
	if month < 1 || month > 12 || year < 1 {
		return 0, 0, shared.NewError(shared.ErrValidation, "INVALID_PERIOD", "month must be 1-12 and year positive")
	}
	return month, year, nil
}
