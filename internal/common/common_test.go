package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestWriteErrorUsesAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	err := NewAppError("NOT_FOUND", "document not found", http.StatusNotFound, errors.New("missing"))
	WriteError(rec, err)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body struct {
		Error ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "NOT_FOUND", body.Error.Code)
	require.Equal(t, "document not found", body.Error.Message)
}

func TestWriteErrorHidesUnknownCauses(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("redis: connection refused"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "redis")
}

func TestAttachment(t *testing.T) {
	rec := httptest.NewRecorder()
	Attachment(rec, "application/json", "livvitt-pipeline.json", []byte("[]"))
	require.Equal(t, `attachment; filename="livvitt-pipeline.json"`, rec.Header().Get("Content-Disposition"))
	require.Equal(t, "[]", rec.Body.String())
}

func TestWindow(t *testing.T) {
	start, end := Window(2, 10, 25)
	require.Equal(t, 10, start)
	require.Equal(t, 20, end)
	start, end = Window(5, 10, 25)
	require.Equal(t, 25, start)
	require.Equal(t, 25, end)
}

func TestParsePaginationCaps(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?page=3&limit=5000", nil)
	page, per := ParsePagination(r, 50)
	require.Equal(t, 3, page)
	require.Equal(t, MaxPerPage, per)
}

func TestIdemRejectsReplay(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	calls := 0
	h := Idem{R: client, Prefix: "livvitt."}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", nil)
		req.Header.Set("Idempotency-Key", "abc")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	require.Equal(t, http.StatusCreated, send())
	require.Equal(t, http.StatusConflict, send())
	require.Equal(t, 1, calls)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:4242"
	require.Equal(t, "192.0.2.10", ClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.7")
	require.Equal(t, "198.51.100.7", ClientIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.5 , 10.0.0.1")
	require.Equal(t, "203.0.113.5", ClientIP(req))

	require.Empty(t, ClientIP(nil))
}
