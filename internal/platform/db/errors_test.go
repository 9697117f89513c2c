package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/stallbook/stallbook/internal/shared"
)

func TestMapError(t *testing.T) {
	require.NoError(t, MapError(nil, "op"))
	require.ErrorIs(t, MapError(pgx.ErrNoRows, "get product"), shared.ErrNotFound)
	require.ErrorIs(t, MapError(&pgconn.PgError{Code: "23505"}, "insert"), shared.ErrDuplicate)
	require.ErrorIs(t, MapError(&pgconn.PgError{Code: "23503", ConstraintName: "purchases_product_id_fkey"}, "insert"), shared.ErrValidation)
	require.ErrorIs(t, MapError(context.Canceled, "list"), context.Canceled)

	other := errors.New("boom")
	err := MapError(other, "list")
	require.ErrorIs(t, err, other)
	require.NotErrorIs(t, err, shared.ErrNotFound)
}

func TestIsUniqueViolation(t *testing.T) {
	require.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	require.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	require.False(t, IsUniqueViolation(errors.New("x")))
}

func TestPage(t *testing.T) {
	b := Builder.Select("id").From("products")

	sql, _, err := Page(b, 0, 0).ToSql()
	require.NoError(t, err)
	require.Equal(t, "SELECT id FROM products", sql)

	sql, _, err = Page(b, 3, 20).ToSql()
	require.NoError(t, err)
	require.Equal(t, "SELECT id FROM products LIMIT 20 OFFSET 40", sql)
}
