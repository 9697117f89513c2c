package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMonthPeriod(t *testing.T) {
	p, err := MonthPeriod(2024, 12, time.UTC)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), p.From)
	require.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), p.To)
	require.True(t, p.Contains(time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC)))
	require.False(t, p.Contains(p.To))

	_, err = MonthPeriod(2024, 13, nil)
	require.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestRangePeriodInclusive(t *testing.T) {
	from := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 3, 8, 0, 0, 0, time.UTC)
	p, err := RangePeriod(from, to)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), p.To)

	_, err = RangePeriod(to, from)
	require.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestPagination(t *testing.T) {
	p := NewPagination(0, 0, 41)
	require.Equal(t, 1, p.Page)
	require.Equal(t, DefaultPerPage, p.PerPage)
	require.Equal(t, 3, p.TotalPages)

	req := PageRequest{Page: -2, Limit: 500}.Normalize()
	require.Equal(t, PageRequest{Page: 1, Limit: MaxPerPage}, req)
}

func TestCodedError(t *testing.T) {
	err := NewError(ErrNotFound, "PRODUCT_NOT_FOUND", "product %d not found", 7)
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, "PRODUCT_NOT_FOUND", CodeOf(err))
	require.Equal(t, "product 7 not found", err.Error())
	require.Empty(t, CodeOf(ErrNotFound))
}
