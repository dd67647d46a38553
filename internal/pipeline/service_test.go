package pipeline_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/livvitt-quotes/internal/document"
	"github.com/noah-isme/livvitt-quotes/internal/pipeline"
	"github.com/noah-isme/livvitt-quotes/internal/store"
)

func seeded(t *testing.T) *store.Store {
	t.Helper()
	st := store.New(store.NewMemoryKV(), "")
	ctx := context.Background()
	for _, d := range []document.Document{
		{ID: "a", Kind: document.KindQuote, Number: "LVQ-2026-0001", Status: document.StatusQuoted, TaxRate: 0.05, Customer: document.Customer{Name: "Top 1 Toys"},
			Items: []document.Item{{Type: "AFrame_White", Qty: 2, UnitType: document.UnitFlat}}},
		{ID: "b", Kind: document.KindInvoice, Number: "LVI-2026-0001", Status: document.StatusPaid, TaxRate: 0.05,
			Items: []document.Item{{Type: "AFrame_White", Qty: 1, UnitType: document.UnitFlat}}},
	} {
		_, err := st.Save(ctx, d)
		require.NoError(t, err)
	}
	return st
}

func router(st *store.Store) http.Handler {
	svc, _ := pipeline.NewService(pipeline.ServiceConfig{Source: st})
	h := pipeline.NewHandler(svc)
	r := chi.NewRouter()
	r.Route("/api/v1", func(v chi.Router) { h.Routes(v) })
	return r
}

func TestReport(t *testing.T) {
	svc, err := pipeline.NewService(pipeline.ServiceConfig{Source: seeded(t)})
	require.NoError(t, err)
	report, err := svc.Report(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Lanes, 7)

	quoted := report.Lanes[1]
	require.Equal(t, document.StatusQuoted, quoted.Status)
	require.Equal(t, 1, quoted.Count)
	require.Equal(t, "Top 1 Toys", quoted.Cards[0].Customer)
	// 2 A-frames at 225 plus 5% tax.
	require.InDelta(t, 472.5, quoted.Cards[0].Total, 1e-9)

	require.InDelta(t, 472.5, report.Stats.Max, 1e-9)
	require.Equal(t, 100, report.Stats.ByStatus[1].Percent)
	require.Equal(t, 50, report.Stats.ByStatus[6].Percent)
}

func TestNewServiceRequiresSource(t *testing.T) {
	_, err := pipeline.NewService(pipeline.ServiceConfig{})
	require.Error(t, err)
}

func TestBoardHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	router(seeded(t)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/pipeline", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data pipeline.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Lanes, 7)
}

func TestExportHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	router(seeded(t)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/pipeline/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `attachment; filename="livvitt-pipeline.json"`, rec.Header().Get("Content-Disposition"))

	var docs []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	require.Len(t, docs, 2)
	require.Equal(t, "b", docs[0]["id"])
}

func TestExportEmpty(t *testing.T) {
	rec := httptest.NewRecorder()
	router(store.New(store.NewMemoryKV(), "")).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/pipeline/export", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "no saved documents", body.Error.Message)
}
