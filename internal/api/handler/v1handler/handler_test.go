package v1handler_test

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"checkin/internal/access"
	"checkin/internal/api/handler/v1handler"
	"checkin/internal/checkin"
	"checkin/internal/report"
	"checkin/pkg/domain"
	"checkin/pkg/logger"
	"checkin/pkg/storage/memory"
)

func TestMain(m *testing.M) {
	logger.Setup(logger.DevelopmentEnvironment)
	m.Run()
}

type testAPI struct {
	handler http.Handler
	store   *memory.Store
	token   string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	publicPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDER})

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Subject:   "moderator@example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}).SignedString(key)
	require.NoError(t, err)

	st := memory.New()
	accessSvc := access.New(st, access.Options{MaxNoteLength: 100}, nil)
	reportSvc := report.New(st, report.Options{MaxMailtoLength: 1900, ExportMaxAttempts: 3}, nil)
	checkInSvc := checkin.New(st, accessSvc, nil)

	handler, err := v1handler.New(v1handler.Deps{
		Access:  accessSvc,
		CheckIn: checkInSvc,
		Report:  reportSvc,
	}, &v1handler.SecOptions{PublicKey: string(publicPEM)})
	require.NoError(t, err)

	return &testAPI{handler: handler, store: st, token: token}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	return out
}

func (a *testAPI) createLocation(t *testing.T, name string, accessType domain.AccessType) domain.Location {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/api/v1/locations", map[string]any{
		"name":       name,
		"accessType": string(accessType),
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	return decode[domain.Location](t, rec)
}

func TestAuth(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/locations", nil, false)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/locations", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/locations", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLocations_CreateAndList(t *testing.T) {
	api := newTestAPI(t)

	location := api.createLocation(t, "lab 1", domain.AccessTypeCodeRequired)
	require.Equal(t, "lab 1", location.Name)

	rec := api.do(t, http.MethodPost, "/api/v1/locations", map[string]any{
		"name":       " ",
		"accessType": "OPEN",
	}, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/locations", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Items []domain.Location `json:"items"`
	}](t, rec)
	require.Len(t, list.Items, 1)
}

func TestGrants_Lifecycle(t *testing.T) {
	api := newTestAPI(t)
	location := api.createLocation(t, "lab 1", domain.AccessTypeCodeRequired)

	from := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	to := from.Add(4 * time.Hour)

	rec := api.do(t, http.MethodPost, "/api/v1/access-grants", map[string]any{
		"locationId":    location.ID.String(),
		"allowedEmails": []string{"Alice@Example.com", "alice@example.com"},
		"dateRanges":    []map[string]int64{{"from": from.UnixMilli(), "to": to.UnixMilli()}},
		"note":          "guest lecture",
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	grant := decode[domain.AccessGrant](t, rec)
	require.Equal(t, []string{"alice@example.com"}, grant.AllowedEmails)
	require.EqualValues(t, 1, grant.Version)

	// edit with the current version token
	rec = api.do(t, http.MethodPatch, "/api/v1/access-grants/"+grant.ID.String(), map[string]any{
		"note":    "moved room",
		"version": grant.Version,
	}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[domain.AccessGrant](t, rec)
	require.Equal(t, "moved room", updated.Note)
	require.EqualValues(t, 2, updated.Version)

	// a stale token conflicts
	rec = api.do(t, http.MethodPatch, "/api/v1/access-grants/"+grant.ID.String(), map[string]any{
		"note":    "too late",
		"version": grant.Version,
	}, true)
	require.Equal(t, http.StatusConflict, rec.Code)

	// invalid merged record is rejected
	rec = api.do(t, http.MethodPatch, "/api/v1/access-grants/"+grant.ID.String(), map[string]any{
		"allowedEmails": []string{},
		"version":       updated.Version,
	}, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// list by location
	rec = api.do(t, http.MethodGet, "/api/v1/locations/"+location.ID.String()+"/access-grants", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	// get / delete / get again
	rec = api.do(t, http.MethodGet, "/api/v1/access-grants/"+grant.ID.String(), nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, http.MethodDelete, "/api/v1/access-grants/"+grant.ID.String(), nil, true)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(t, http.MethodGet, "/api/v1/access-grants/"+grant.ID.String(), nil, true)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGrants_ValidationErrors(t *testing.T) {
	api := newTestAPI(t)
	location := api.createLocation(t, "lab 1", domain.AccessTypeCodeRequired)

	from := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	// overlapping windows
	rec := api.do(t, http.MethodPost, "/api/v1/access-grants", map[string]any{
		"locationId":    location.ID.String(),
		"allowedEmails": []string{"alice@example.com"},
		"dateRanges": []map[string]int64{
			{"from": from.UnixMilli(), "to": from.Add(2 * time.Hour).UnixMilli()},
			{"from": from.Add(time.Hour).UnixMilli(), "to": from.Add(3 * time.Hour).UnixMilli()},
		},
	}, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// no emails
	rec = api.do(t, http.MethodPost, "/api/v1/access-grants", map[string]any{
		"locationId": location.ID.String(),
	}, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckIn(t *testing.T) {
	api := newTestAPI(t)
	open := api.createLocation(t, "foyer", domain.AccessTypeOpen)
	restricted := api.createLocation(t, "lab 1", domain.AccessTypeCodeRequired)

	// check-in does not require authentication
	rec := api.do(t, http.MethodPost, "/api/v1/check-ins", map[string]any{
		"email":      "visitor@example.com",
		"locationId": open.ID.String(),
	}, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodPost, "/api/v1/check-ins", map[string]any{
		"email":      "visitor@example.com",
		"locationId": restricted.ID.String(),
	}, false)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/check-ins", map[string]any{
		"email":      "not-an-email",
		"locationId": open.ID.String(),
	}, false)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAccessChecks(t *testing.T) {
	api := newTestAPI(t)
	location := api.createLocation(t, "lab 1", domain.AccessTypeCodeRequired)

	from := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	rec := api.do(t, http.MethodPost, "/api/v1/access-grants", map[string]any{
		"locationId":    location.ID.String(),
		"allowedEmails": []string{"alice@example.com"},
		"dateRanges":    []map[string]int64{{"from": from.UnixMilli(), "to": from.Add(4 * time.Hour).UnixMilli()}},
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code)

	url := fmt.Sprintf("/api/v1/access-checks?email=alice@example.com&locationId=%s&timestamp=%d",
		location.ID.String(), from.Add(time.Hour).UnixMilli())
	rec = api.do(t, http.MethodGet, url, nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[struct {
		Allowed bool `json:"allowed"`
	}](t, rec)
	require.True(t, result.Allowed)

	url = fmt.Sprintf("/api/v1/access-checks?email=alice@example.com&locationId=%s&timestamp=%d",
		location.ID.String(), from.Add(4*time.Hour).UnixMilli())
	rec = api.do(t, http.MethodGet, url, nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	result = decode[struct {
		Allowed bool `json:"allowed"`
	}](t, rec)
	require.False(t, result.Allowed)
}

func TestReports(t *testing.T) {
	api := newTestAPI(t)
	open := api.createLocation(t, "foyer", domain.AccessTypeOpen)

	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		rec := api.do(t, http.MethodPost, "/api/v1/check-ins", map[string]any{
			"email":      email,
			"locationId": open.ID.String(),
		}, false)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	now := time.Now().UTC()
	from := now.Add(-24 * time.Hour).UnixMilli()
	to := now.Add(24 * time.Hour).UnixMilli()

	rec := api.do(t, http.MethodPost, "/api/v1/reports", map[string]any{
		"reportedEmail": "a@x.com",
		"from":          from,
		"to":            to,
	}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[domain.ExposureReport](t, rec)
	require.Equal(t, 2, result.ImpactedUsersCount)
	require.NotContains(t, result.ImpactedUsersEmailsCsv, "a@x.com")

	// inverted window
	rec = api.do(t, http.MethodPost, "/api/v1/reports", map[string]any{
		"reportedEmail": "a@x.com",
		"from":          to,
		"to":            from,
	}, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportExports(t *testing.T) {
	api := newTestAPI(t)

	now := time.Now().UTC()
	rec := api.do(t, http.MethodPost, "/api/v1/report-exports", map[string]any{
		"reportedEmail": "a@x.com",
		"from":          now.Add(-24 * time.Hour).UnixMilli(),
		"to":            now.UnixMilli(),
	}, true)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	export := decode[domain.ReportExport](t, rec)
	require.Equal(t, domain.ExportStatusPending, export.Status)
	require.Len(t, api.store.Jobs(), 1)

	rec = api.do(t, http.MethodGet, "/api/v1/report-exports/"+export.ID.String(), nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/report-exports", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Items []domain.ReportExport `json:"items"`
	}](t, rec)
	require.Len(t, list.Items, 1)
}

func TestLocationVisits(t *testing.T) {
	api := newTestAPI(t)
	open := api.createLocation(t, "foyer", domain.AccessTypeOpen)

	rec := api.do(t, http.MethodPost, "/api/v1/check-ins", map[string]any{
		"email":      "a@x.com",
		"locationId": open.ID.String(),
	}, false)
	require.Equal(t, http.StatusCreated, rec.Code)

	now := time.Now().UTC()
	url := fmt.Sprintf("/api/v1/locations/%s/visits?from=%d&to=%d",
		open.ID.String(), now.Add(-time.Hour).UnixMilli(), now.Add(time.Hour).UnixMilli())
	rec = api.do(t, http.MethodGet, url, nil, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	visits := decode[domain.LocationVisits](t, rec)
	require.Contains(t, visits.Csv, "a@x.com")
}
