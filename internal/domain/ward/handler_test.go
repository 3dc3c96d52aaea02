package ward

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/roundshub/roundshub/internal/platform/kv"
)

func newTestHandler(t *testing.T) (*echo.Echo, *Service) {
	t.Helper()
	svc, _ := newTestService(t)
	e := echo.New()
	NewHandler(svc, 0).RegisterRoutes(e.Group("/api/v1"))
	return e, svc
}

func doRequest(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGetWard(t *testing.T) {
	e, _ := newTestHandler(t)

	rec := doRequest(e, http.MethodGet, "/api/v1/ward", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var w Ward
	if err := json.Unmarshal(rec.Body.Bytes(), &w); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w.Title != "Surgery" || len(w.Beds) != 3 {
		t.Fatalf("unexpected ward: %+v", w)
	}
}

func TestGetWardBeforeInit(t *testing.T) {
	svc := NewService(NewStore(kv.NewMemory()), nil, zerolog.Nop())
	e := echo.New()
	NewHandler(svc, 0).RegisterRoutes(e.Group("/api/v1"))

	rec := doRequest(e, http.MethodGet, "/api/v1/ward", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestUpdateTitleEndpoint(t *testing.T) {
	e, svc := newTestHandler(t)

	rec := doRequest(e, http.MethodPut, "/api/v1/ward/title", `{"title":"Medicine"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if svc.Snapshot().Title != "Medicine" {
		t.Fatalf("title not applied: %q", svc.Snapshot().Title)
	}

	rec = doRequest(e, http.MethodPut, "/api/v1/ward/title", `{"title":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank title, got %d", rec.Code)
	}
}

func TestAddBedsEndpoint(t *testing.T) {
	e, svc := newTestHandler(t)

	rec := doRequest(e, http.MethodPost, "/api/v1/ward/beds", `{"count":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if got := len(svc.Snapshot().Beds); got != 5 {
		t.Fatalf("expected 5 beds, got %d", got)
	}

	rec = doRequest(e, http.MethodPost, "/api/v1/ward/beds", `{"count":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for count 0, got %d", rec.Code)
	}
}

func TestDeleteBedEndpoint(t *testing.T) {
	e, svc := newTestHandler(t)
	bedID := svc.Snapshot().Beds[1].ID

	rec := doRequest(e, http.MethodDelete, "/api/v1/ward/beds/"+bedID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if got := len(svc.Snapshot().Beds); got != 2 {
		t.Fatalf("expected 2 beds, got %d", got)
	}

	rec = doRequest(e, http.MethodDelete, "/api/v1/ward/beds/unknown", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetBedEndpoint(t *testing.T) {
	e, svc := newTestHandler(t)
	bedID := svc.Snapshot().Beds[0].ID
	name := "Jane"
	_ = svc.UpdateBedPatient(context.Background(), bedID, &PatientData{Name: &name})

	rec := doRequest(e, http.MethodGet, "/api/v1/ward/beds/"+bedID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		HasPatient bool           `json:"hasPatient"`
		Indicators DataIndicators `json:"indicators"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.HasPatient || !resp.Indicators.Name {
		t.Fatalf("indicators wrong: %+v", resp)
	}
}

func TestDischargeEndpoint(t *testing.T) {
	e, svc := newTestHandler(t)
	bedID := svc.Snapshot().Beds[0].ID
	name := "Jane"
	_ = svc.UpdateBedPatient(context.Background(), bedID, &PatientData{Name: &name})

	rec := doRequest(e, http.MethodPost, "/api/v1/ward/beds/"+bedID+"/discharge", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if svc.Snapshot().Beds[0].Patient != nil {
		t.Fatal("patient not discharged")
	}
}
