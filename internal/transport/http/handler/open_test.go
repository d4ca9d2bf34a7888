package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mediagate/internal/application/access"
	"github.com/mediagate/internal/application/gate"
	"github.com/mediagate/internal/domain"
)

// --- mocks ---

type mockAccessSvc struct{ mock.Mock }

func (m *mockAccessSvc) Open(ctx context.Context, ownerID int64, payload string) (*access.OpenResult, error) {
	args := m.Called(ctx, ownerID, payload)
	if r, _ := args.Get(0).(*access.OpenResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAccessSvc) RegisterDelivery(ctx context.Context, chatID, messageID int64) error {
	return m.Called(ctx, chatID, messageID).Error(0)
}

type mockGateSvc struct{ mock.Mock }

func (m *mockGateSvc) Issue(ctx context.Context, ownerID int64, payload string) (*gate.Challenge, error) {
	args := m.Called(ctx, ownerID, payload)
	if c, _ := args.Get(0).(*gate.Challenge); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateSvc) RecordClick(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockGateSvc) Verify(ctx context.Context, ownerID int64, tokenStr string) (*gate.VerifyResult, error) {
	args := m.Called(ctx, ownerID, tokenStr)
	if r, _ := args.Get(0).(*gate.VerifyResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateSvc) TokenStats(ctx context.Context) (*domain.TokenStats, error) {
	args := m.Called(ctx)
	if s, _ := args.Get(0).(*domain.TokenStats); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateSvc) BypassStats(ctx context.Context) ([]domain.BypassStats, error) {
	args := m.Called(ctx)
	if s, _ := args.Get(0).([]domain.BypassStats); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateSvc) ClearBypassRecord(ctx context.Context, ownerID int64) (int, error) {
	args := m.Called(ctx, ownerID)
	return args.Int(0), args.Error(1)
}

func (m *mockGateSvc) RevokeTokens(ctx context.Context, ownerID int64) (int, error) {
	args := m.Called(ctx, ownerID)
	return args.Int(0), args.Error(1)
}

// --- helpers ---

func postJSON(t *testing.T, h http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// --- tests ---

func TestOpen_Released(t *testing.T) {
	accessSvc := &mockAccessSvc{}
	accessSvc.On("Open", mock.Anything, int64(7), "c2hhcmU").Return(&access.OpenResult{
		Kind: access.KindReleased,
		Items: []domain.ReleasedItem{
			{LocationID: -100, ItemID: 42, Filename: "Movie.2024.1080p.mkv", URL: "https://s3/presigned"},
		},
	}, nil)

	h := NewOpenHandler(accessSvc, &mockGateSvc{})
	rr := postJSON(t, h.Open, "/v1/open", openRequest{OwnerID: 7, Payload: "c2hhcmU"})

	assert.Equal(t, http.StatusOK, rr.Code)
	var res access.OpenResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, access.KindReleased, res.Kind)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "https://s3/presigned", res.Items[0].URL)
}

func TestOpen_Challenge(t *testing.T) {
	accessSvc := &mockAccessSvc{}
	accessSvc.On("Open", mock.Anything, int64(7), "c2hhcmU").Return(&access.OpenResult{
		Kind:      access.KindChallenge,
		VerifyURL: "https://short.example/x",
	}, nil)

	h := NewOpenHandler(accessSvc, &mockGateSvc{})
	rr := postJSON(t, h.Open, "/v1/open", openRequest{OwnerID: 7, Payload: "c2hhcmU"})

	assert.Equal(t, http.StatusOK, rr.Code)
	var res access.OpenResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, access.KindChallenge, res.Kind)
	assert.Equal(t, "https://short.example/x", res.VerifyURL)
}

func TestOpen_BannedOwner(t *testing.T) {
	accessSvc := &mockAccessSvc{}
	accessSvc.On("Open", mock.Anything, int64(7), "c2hhcmU").
		Return(nil, fmt.Errorf("owner 7: %w", domain.ErrOwnerBanned))

	h := NewOpenHandler(accessSvc, &mockGateSvc{})
	rr := postJSON(t, h.Open, "/v1/open", openRequest{OwnerID: 7, Payload: "c2hhcmU"})

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestOpen_MalformedLink(t *testing.T) {
	accessSvc := &mockAccessSvc{}
	accessSvc.On("Open", mock.Anything, int64(7), "!!!").
		Return(nil, fmt.Errorf("decode: %w", domain.ErrMalformedLink))

	h := NewOpenHandler(accessSvc, &mockGateSvc{})
	rr := postJSON(t, h.Open, "/v1/open", openRequest{OwnerID: 7, Payload: "!!!"})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestOpen_ReusedToken(t *testing.T) {
	accessSvc := &mockAccessSvc{}
	accessSvc.On("Open", mock.Anything, int64(7), "verify-abc").
		Return(nil, fmt.Errorf("verification: %w", domain.ErrTokenReused))

	h := NewOpenHandler(accessSvc, &mockGateSvc{})
	rr := postJSON(t, h.Open, "/v1/open", openRequest{OwnerID: 7, Payload: "verify-abc"})

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestOpen_MissingFields(t *testing.T) {
	h := NewOpenHandler(&mockAccessSvc{}, &mockGateSvc{})
	rr := postJSON(t, h.Open, "/v1/open", map[string]interface{}{"owner_id": 7})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestClick_CountsThrough(t *testing.T) {
	gateSvc := &mockGateSvc{}
	gateSvc.On("RecordClick", mock.Anything, "tok123").Return(nil)

	h := NewOpenHandler(&mockAccessSvc{}, gateSvc)

	r := chi.NewRouter()
	r.Post("/v1/clicks/{token}", h.Click)

	req := httptest.NewRequest(http.MethodPost, "/v1/clicks/tok123", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	gateSvc.AssertExpectations(t)
}

func TestClick_SwallowsStoreErrors(t *testing.T) {
	gateSvc := &mockGateSvc{}
	gateSvc.On("RecordClick", mock.Anything, "gone").Return(fmt.Errorf("token gone: %w", domain.ErrNotFound))

	h := NewOpenHandler(&mockAccessSvc{}, gateSvc)

	r := chi.NewRouter()
	r.Post("/v1/clicks/{token}", h.Click)

	req := httptest.NewRequest(http.MethodPost, "/v1/clicks/gone", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}
