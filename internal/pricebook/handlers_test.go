package pricebook_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/livvitt-quotes/internal/pricebook"
	"github.com/noah-isme/livvitt-quotes/internal/store"
)

func newRouter(t *testing.T) (http.Handler, *store.Store) {
	t.Helper()
	st := store.New(store.NewMemoryKV(), "")
	r := chi.NewRouter()
	r.Route("/api/v1", func(v chi.Router) {
		pricebook.NewHandler(st, zerolog.Nop()).Routes(v)
	})
	return r, st
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, pricebook.PriceBook) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	var resp struct {
		Data pricebook.PriceBook `json:"data"`
	}
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp.Data
}

func TestGetReturnsDefault(t *testing.T) {
	h, _ := newRouter(t)
	rec, book := do(t, h, http.MethodGet, "/api/v1/pricebook/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, pricebook.Default(), book)
}

func TestReplaceAndReset(t *testing.T) {
	h, st := newRouter(t)
	ctx := context.Background()

	edited := pricebook.Default().WithInstall(pricebook.Install{HourlyRate: 90, CrewMinHours: 3})
	raw, err := json.Marshal(edited)
	require.NoError(t, err)

	rec, got := do(t, h, http.MethodPut, "/api/v1/pricebook/", string(raw))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 90.0, got.Install.HourlyRate)

	stored, err := st.PriceBook(ctx)
	require.NoError(t, err)
	require.Equal(t, 3.0, stored.Install.CrewMinHours)

	rec, _ = do(t, h, http.MethodPost, "/api/v1/pricebook/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stored, err = st.PriceBook(ctx)
	require.NoError(t, err)
	require.Equal(t, pricebook.Default(), stored)
}

func TestReplaceRejectsNegativeRates(t *testing.T) {
	h, st := newRouter(t)
	bad := pricebook.Default().WithSqftRate("Banner", -1)
	raw, err := json.Marshal(bad)
	require.NoError(t, err)

	rec, _ := do(t, h, http.MethodPut, "/api/v1/pricebook/", string(raw))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "VALIDATION_ERROR")

	stored, err := st.PriceBook(context.Background())
	require.NoError(t, err)
	require.Equal(t, 8.0, stored.SqftRate("Banner"))
}

func TestReplaceRejectsMalformedBody(t *testing.T) {
	h, _ := newRouter(t)
	rec, _ := do(t, h, http.MethodPut, "/api/v1/pricebook/", "{")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetSingleRates(t *testing.T) {
	h, _ := newRouter(t)

	rec, book := do(t, h, http.MethodPut, "/api/v1/pricebook/sqft/Mesh", `{"rate": 11.5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 11.5, book.SqftRate("Mesh"))

	rec, book = do(t, h, http.MethodPut, "/api/v1/pricebook/unit/AFrame_White", `{"rate": 240}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 240.0, book.UnitRate("AFrame_White"))
	require.Equal(t, 11.5, book.SqftRate("Mesh"))

	rec, _ = do(t, h, http.MethodPut, "/api/v1/pricebook/unit/AFrame_White", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, h, http.MethodPut, "/api/v1/pricebook/unit/AFrame_White", `{"rate": -5}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestConcurrentRateEditsAllLand(t *testing.T) {
	h, st := newRouter(t)

	const workers = 12
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			path := fmt.Sprintf("/api/v1/pricebook/sqft/Vinyl_%d", i)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, path, strings.NewReader(fmt.Sprintf(`{"rate": %d}`, i+1))))
			require.Equal(t, http.StatusOK, rec.Code)
		}()
	}
	wg.Wait()

	book, err := st.PriceBook(context.Background())
	require.NoError(t, err)
	for i := range workers {
		require.Equal(t, float64(i+1), book.SqftRate(fmt.Sprintf("Vinyl_%d", i)))
	}
}
