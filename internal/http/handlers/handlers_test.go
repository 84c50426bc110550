package handlers

import (
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-news-cms/internal/models"
	"github.com/pribylovaa/go-news-cms/internal/pagination"
	"github.com/pribylovaa/go-news-cms/internal/service"
)

func TestQueryInt(t *testing.T) {
	q := url.Values{
		"empty":   {""},
		"word":    {"abc"},
		"frac":    {"1.5"},
		"padded":  {" 3 "},
		"neg":     {"-2"},
		"zero":    {"0"},
		"suffix":  {"5abc"},
		"sign":    {"+"},
		"huge":    {"99999999999999"},
		"neghuge": {"-99999999999999"},
	}

	cases := map[string]int{
		"missing": 7,
		"empty":   0,
		"word":    0,
		"frac":    1,
		"padded":  3,
		"neg":     -2,
		"zero":    0,
		"suffix":  5,
		"sign":    0,
		"huge":    math.MaxInt32,
		"neghuge": math.MinInt32,
	}

	for key, want := range cases {
		require.Equal(t, want, queryInt(q, key, 7), key)
	}
}

func TestListToResponse(t *testing.T) {
	photo := "/uploads/a.png"
	res := &pagination.Result{
		Filter:     models.NewsFilter{Author: "bob"},
		Page:       2,
		Limit:      1,
		Total:      3,
		TotalPages: 3,
		Items:      []models.News{{ID: 2, Title: "t", Author: "bob", Content: "c", Photo: &photo}},
	}

	out := listToResponse(res)
	require.Equal(t, "bob", out.Filters.Author)
	require.Equal(t, models.PaginationResponse{Page: 2, Limit: 1, TotalItems: 3, TotalPages: 3}, out.Pagination)
	require.Len(t, out.Data, 1)
	require.Equal(t, &photo, out.Data[0].Photo)

	empty := listToResponse(&pagination.Result{Items: nil})
	require.NotNil(t, empty.Data)
}

func TestDecodeStrict(t *testing.T) {
	var in models.AuthRequest

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.io","password":"x"}`))
	require.NoError(t, decodeStrict(r, &in))
	require.Equal(t, "a@b.io", in.Email)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.io","role":"admin"}`))
	require.ErrorIs(t, decodeStrict(r, &in), service.ErrInvalidArgument)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`not json`))
	require.ErrorIs(t, decodeStrict(r, &in), service.ErrInvalidArgument)
}
