package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	consumptiondomain "github.com/hydrosuite/aquabill/internal/consumption/domain"
	meterrequestdomain "github.com/hydrosuite/aquabill/internal/meterrequest/domain"
)

type fakeMeterRequestService struct {
	submitted   []meterrequestdomain.SubmitMeterRequest
	submitErr   error
	statusReply meterrequestdomain.MeterRequest
	statusErr   error
}

func (f *fakeMeterRequestService) Submit(ctx context.Context, req meterrequestdomain.SubmitMeterRequest) (meterrequestdomain.MeterRequest, error) {
	_ = ctx
	f.submitted = append(f.submitted, req)
	if f.submitErr != nil {
		return meterrequestdomain.MeterRequest{}, f.submitErr
	}
	return meterrequestdomain.MeterRequest{
		ID:       snowflake.ID(100),
		FullName: req.FullName,
		Status:   meterrequestdomain.StatusPending,
	}, nil
}

func (f *fakeMeterRequestService) Approve(ctx context.Context, rawID string) (meterrequestdomain.MeterRequest, error) {
	_ = ctx
	_ = rawID
	return meterrequestdomain.MeterRequest{}, nil
}

func (f *fakeMeterRequestService) Reject(ctx context.Context, rawID string, notes string) (meterrequestdomain.MeterRequest, error) {
	_ = ctx
	_ = rawID
	_ = notes
	return meterrequestdomain.MeterRequest{}, nil
}

func (f *fakeMeterRequestService) GetByID(ctx context.Context, rawID string) (meterrequestdomain.MeterRequest, error) {
	_ = ctx
	_ = rawID
	return meterrequestdomain.MeterRequest{}, nil
}

func (f *fakeMeterRequestService) ListPending(ctx context.Context) ([]meterrequestdomain.MeterRequest, error) {
	_ = ctx
	return nil, nil
}

func (f *fakeMeterRequestService) StatusByContact(ctx context.Context, email, nif string) (meterrequestdomain.MeterRequest, error) {
	_ = ctx
	_ = email
	_ = nif
	if f.statusErr != nil {
		return meterrequestdomain.MeterRequest{}, f.statusErr
	}
	return f.statusReply, nil
}

type fakeConsumptionService struct {
	recorded  []consumptiondomain.RecordConsumptionRequest
	recordErr error
}

func (f *fakeConsumptionService) Record(ctx context.Context, req consumptiondomain.RecordConsumptionRequest) (consumptiondomain.Consumption, error) {
	_ = ctx
	f.recorded = append(f.recorded, req)
	if f.recordErr != nil {
		return consumptiondomain.Consumption{}, f.recordErr
	}
	return consumptiondomain.Consumption{
		ID:         snowflake.ID(200),
		CustomerID: req.CustomerID,
		Reading:    req.Reading,
		Volume:     req.Reading,
	}, nil
}

func (f *fakeConsumptionService) RecordMissing(ctx context.Context) (int, error) {
	_ = ctx
	return 0, nil
}

func (f *fakeConsumptionService) GetByID(ctx context.Context, rawID string) (consumptiondomain.Consumption, error) {
	_ = ctx
	_ = rawID
	return consumptiondomain.Consumption{}, nil
}

func (f *fakeConsumptionService) History(ctx context.Context, customerID snowflake.ID) ([]consumptiondomain.Consumption, error) {
	_ = ctx
	_ = customerID
	return nil, nil
}

func newTestServer(meterRequests meterrequestdomain.Service, consumptions consumptiondomain.Service) *Server {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	return NewServer(ServerParams{
		Gin:             engine,
		MeterRequestSvc: meterRequests,
		ConsumptionSvc:  consumptions,
	})
}

func performJSON(t *testing.T, s *Server, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func TestSubmitMeterRequestTrimsInput(t *testing.T) {
	fake := &fakeMeterRequestService{}
	s := newTestServer(fake, &fakeConsumptionService{})

	w := performJSON(t, s, http.MethodPost, "/api/meter-requests", map[string]string{
		"full_name": "  Maria Alves  ",
		"nif":       " 123456789 ",
		"email":     " maria@example.pt ",
		"address":   "Rua das Flores 12",
	}, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(fake.submitted) != 1 {
		t.Fatalf("expected one submit call, got %d", len(fake.submitted))
	}
	if fake.submitted[0].FullName != "Maria Alves" {
		t.Fatalf("expected trimmed name, got %q", fake.submitted[0].FullName)
	}
	if fake.submitted[0].Email != "maria@example.pt" {
		t.Fatalf("expected trimmed email, got %q", fake.submitted[0].Email)
	}
}

func TestSubmitMeterRequestDuplicateIsConflict(t *testing.T) {
	fake := &fakeMeterRequestService{submitErr: meterrequestdomain.ErrDuplicateContact}
	s := newTestServer(fake, &fakeConsumptionService{})

	w := performJSON(t, s, http.MethodPost, "/api/meter-requests", map[string]string{
		"full_name": "Maria Alves",
		"nif":       "123456789",
		"email":     "maria@example.pt",
	}, nil)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMeterRequestStatusNotFound(t *testing.T) {
	fake := &fakeMeterRequestService{statusErr: meterrequestdomain.ErrNotFound}
	s := newTestServer(fake, &fakeConsumptionService{})

	w := performJSON(t, s, http.MethodGet, "/api/meter-requests/status?email=nobody@example.pt", nil, nil)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMeterRequestStatusReturnsDecision(t *testing.T) {
	decided := time.Date(2026, time.July, 7, 12, 0, 0, 0, time.UTC)
	fake := &fakeMeterRequestService{statusReply: meterrequestdomain.MeterRequest{
		Status:    meterrequestdomain.StatusApproved,
		DecidedAt: &decided,
	}}
	s := newTestServer(fake, &fakeConsumptionService{})

	w := performJSON(t, s, http.MethodGet, "/api/meter-requests/status?nif=123456789", nil, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Status != string(meterrequestdomain.StatusApproved) {
		t.Fatalf("expected approved status, got %q", resp.Data.Status)
	}
}

func TestPortalRequiresCustomerHeader(t *testing.T) {
	s := newTestServer(&fakeMeterRequestService{}, &fakeConsumptionService{})

	w := performJSON(t, s, http.MethodPost, "/api/customer/consumptions", map[string]string{"reading": "100"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without header, got %d", w.Code)
	}

	w = performJSON(t, s, http.MethodPost, "/api/customer/consumptions", map[string]string{"reading": "100"},
		map[string]string{"X-Customer-Id": "not-a-number"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad header, got %d", w.Code)
	}
}

func TestPortalRecordBindsCustomerAndOrigin(t *testing.T) {
	fake := &fakeConsumptionService{}
	s := newTestServer(&fakeMeterRequestService{}, fake)

	w := performJSON(t, s, http.MethodPost, "/api/customer/consumptions", map[string]any{"reading": "120.5"},
		map[string]string{"X-Customer-Id": "123456789"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if len(fake.recorded) != 1 {
		t.Fatalf("expected one record call, got %d", len(fake.recorded))
	}
	got := fake.recorded[0]
	if got.CustomerID != snowflake.ID(123456789) {
		t.Fatalf("expected bound customer id, got %v", got.CustomerID)
	}
	if got.Origin != consumptiondomain.OriginCustomerAPI {
		t.Fatalf("expected portal origin, got %q", got.Origin)
	}
}

func TestPortalRecordAfterDeadlineIsUnprocessable(t *testing.T) {
	fake := &fakeConsumptionService{recordErr: consumptiondomain.ErrDeadlinePassed}
	s := newTestServer(&fakeMeterRequestService{}, fake)

	w := performJSON(t, s, http.MethodPost, "/api/customer/consumptions", map[string]any{"reading": "120.5"},
		map[string]string{"X-Customer-Id": "123456789"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
}

func TestBackOfficeRecordValidatesCustomerID(t *testing.T) {
	fake := &fakeConsumptionService{}
	s := newTestServer(&fakeMeterRequestService{}, fake)

	w := performJSON(t, s, http.MethodPost, "/api/consumptions", map[string]any{
		"customer_id": "garbage",
		"reading":     "100",
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if len(fake.recorded) != 0 {
		t.Fatalf("expected no record calls, got %d", len(fake.recorded))
	}
}
