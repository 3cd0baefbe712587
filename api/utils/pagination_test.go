package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPagination(t *testing.T) {
	p := NewPagination(0, 0)
	assert.Equal(t, DefaultPage, p.Page)
	assert.Equal(t, DefaultLimit, p.Limit)
	assert.Equal(t, 0, p.Offset)

	p = NewPagination(3, 25)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 25, p.Limit)
	assert.Equal(t, 50, p.Offset)

	p = NewPagination(-4, -1)
	assert.Equal(t, DefaultPage, p.Page)
	assert.Equal(t, DefaultLimit, p.Limit)

	p = NewPagination(1, 100000)
	assert.Equal(t, MaxLimit, p.Limit)
}

func TestExtractPagination(t *testing.T) {
	r := httptest.NewRequest("GET", "/sales/uploads", nil)
	p, err := ExtractPagination(r)
	require.NoError(t, err)
	assert.Equal(t, DefaultPage, p.Page)
	assert.Equal(t, DefaultLimit, p.Limit)

	r = httptest.NewRequest("GET", "/sales/uploads?page=4&limit=20", nil)
	p, err = ExtractPagination(r)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Page)
	assert.Equal(t, 20, p.Limit)
	assert.Equal(t, 60, p.Offset)

	r = httptest.NewRequest("GET", "/sales/uploads?page=abc", nil)
	_, err = ExtractPagination(r)
	require.Error(t, err)

	r = httptest.NewRequest("GET", "/sales/uploads?page=0", nil)
	_, err = ExtractPagination(r)
	require.Error(t, err)

	r = httptest.NewRequest("GET", "/sales/uploads?limit=-5", nil)
	_, err = ExtractPagination(r)
	require.Error(t, err)
}

func TestSetPaginationStats(t *testing.T) {
	p := NewPagination(1, 10)
	p.SetPaginationStats(0)
	assert.Equal(t, 0, p.TotalPages)

	p.SetPaginationStats(95)
	assert.Equal(t, 95, p.TotalRecords)
	assert.Equal(t, 10, p.TotalPages)

	p.SetPaginationStats(100)
	assert.Equal(t, 10, p.TotalPages)

	p.SetPaginationStats(101)
	assert.Equal(t, 11, p.TotalPages)
}
