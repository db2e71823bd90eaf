package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"popstudy/internal/config"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg, err := config.Load(writeCatalog(t))
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fed, err := openFederation(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = fed.Close() })
	coord, err := fed.coordinator(logger, nil)
	require.NoError(t, err)
	srv := httptest.NewServer(queryHandler(coord, logger))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, path string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestQueryHandler(t *testing.T) {
	srv := newTestServer(t)

	status, body := get(t, srv, "/v1/donors?by=gender&population=GBR")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, []any{"GENDER", "DONORS"}, body["columns"])
	require.Len(t, body["rows"], 3)

	status, body = get(t, srv, "/v1/variant-distribution?variant=rs1042522&by=gender")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body["columns"], "FREQUENCY")

	status, body = get(t, srv, "/v1/variants-in-gene?gene=TP53")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body["rows"], 1)
}

func TestQueryHandlerErrors(t *testing.T) {
	srv := newTestServer(t)

	status, body := get(t, srv, "/v1/variant-distribution")
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "missing parameter variant", body["error"])

	status, body = get(t, srv, "/v1/donors?colour=blue")
	require.Equal(t, http.StatusBadRequest, status)
	require.True(t, strings.Contains(body["error"].(string), "colour"))

	status, _ = get(t, srv, "/v1/values?attribute=DONOR_ID")
	require.Equal(t, http.StatusForbidden, status)

	status, _ = get(t, srv, "/v1/variants-in-gene?gene=BRCA1")
	require.Equal(t, http.StatusNotFound, status)

	status, _ = get(t, srv, "/v1/donors?disease=melanoma")
	require.Equal(t, http.StatusUnprocessableEntity, status)
}
