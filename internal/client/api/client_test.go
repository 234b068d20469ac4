package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/guardian/internal/models"
	"github.com/iudanet/guardian/pkg/api"
)

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080")

	assert.Equal(t, "http://localhost:8080", client.BaseURL())
	assert.Equal(t, DefaultTimeout, client.httpClient.Timeout)

	client = NewClient("http://localhost:8080", WithTimeout(5*time.Second))
	assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
}

func TestClient_PostLocations(t *testing.T) {
	acc := 4.5
	samples := []models.LocationSample{
		{Latitude: 55.75, Longitude: 37.61, TimestampUTC: "2026-03-01T10:00:00Z", Accuracy: &acc},
		{Latitude: -33.86, Longitude: 151.2, TimestampUTC: "2026-03-01T10:00:05Z"},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/location", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var got []models.LocationSample
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, samples, got)

		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	err := NewClient(server.URL).PostLocations(context.Background(), "tok", samples)
	require.NoError(t, err)
}

func TestClient_SendEmergencyAlert(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emergency-alert", r.URL.Path)

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var body map[string]any
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, "user-1", body["userId"])
		assert.Contains(t, body, "location")
		assert.Nil(t, body["location"], "unknown location is sent as null")
		assert.Len(t, body["contacts"], 1)

		_ = json.NewEncoder(w).Encode(api.EmergencyAlertResponse{AlertID: "srv-1", ContactsNotified: 1})
	}))
	defer server.Close()

	resp, err := NewClient(server.URL).SendEmergencyAlert(context.Background(), "tok", api.EmergencyAlertRequest{
		UserID:    "user-1",
		Contacts:  []api.AlertContact{{Name: "Ann", Phone: "+15550001"}},
		Message:   "help",
		Timestamp: "2026-03-01T10:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.ContactsNotified)
}

func TestClient_GetContacts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_ = json.NewEncoder(w).Encode(api.ContactsResponse{
			Contacts: []models.Contact{{ID: "c1", Name: "Ann", Phone: "+15550001"}},
		})
	}))
	defer server.Close()

	contacts, err := NewClient(server.URL).GetContacts(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Ann", contacts[0].Name)
}

func TestClient_Execute_Routes(t *testing.T) {
	tests := []struct {
		name       string
		op         models.QueuedOperation
		wantMethod string
		wantPath   string
		wantBody   bool
	}{
		{
			name:       "create contact",
			op:         models.QueuedOperation{Kind: models.OperationCreate, EntityType: models.EntityContacts, EntityID: "c1", Payload: json.RawMessage(`{"id":"c1"}`)},
			wantMethod: http.MethodPost,
			wantPath:   "/contacts",
			wantBody:   true,
		},
		{
			name:       "update contact",
			op:         models.QueuedOperation{Kind: models.OperationUpdate, EntityType: models.EntityContacts, EntityID: "c1", Payload: json.RawMessage(`{"id":"c1"}`)},
			wantMethod: http.MethodPut,
			wantPath:   "/contacts/c1",
			wantBody:   true,
		},
		{
			name:       "delete contact",
			op:         models.QueuedOperation{Kind: models.OperationDelete, EntityType: models.EntityContacts, EntityID: "c1", Payload: json.RawMessage(`{"id":"c1"}`)},
			wantMethod: http.MethodDelete,
			wantPath:   "/contacts/c1",
		},
		{
			name:       "update profile",
			op:         models.QueuedOperation{Kind: models.OperationUpdate, EntityType: models.EntityProfile, Payload: json.RawMessage(`{"full_name":"A"}`)},
			wantMethod: http.MethodPut,
			wantPath:   "/profile",
			wantBody:   true,
		},
		{
			name:       "create medical info",
			op:         models.QueuedOperation{Kind: models.OperationCreate, EntityType: models.EntityMedical, Payload: json.RawMessage(`{"blood_type":"A+"}`)},
			wantMethod: http.MethodPut,
			wantPath:   "/medical-info",
			wantBody:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.wantMethod, r.Method)
				assert.Equal(t, tt.wantPath, r.URL.Path)
				assert.Equal(t, "Bearer captured", r.Header.Get("Authorization"))

				raw, _ := io.ReadAll(r.Body)
				if tt.wantBody {
					assert.JSONEq(t, string(tt.op.Payload), string(raw))
				} else {
					assert.Empty(t, raw)
				}
				w.WriteHeader(http.StatusNoContent)
			}))
			defer server.Close()

			op := tt.op
			op.AuthToken = "captured"
			require.NoError(t, NewClient(server.URL).Execute(context.Background(), &op))
		})
	}
}

func TestClient_Execute_Unroutable(t *testing.T) {
	client := NewClient("http://127.0.0.1:0")

	err := client.Execute(context.Background(), &models.QueuedOperation{Kind: models.OperationUpdate, EntityType: models.EntityContacts})
	assert.ErrorIs(t, err, ErrUnroutable)
	assert.False(t, IsTransient(err))

	err = client.Execute(context.Background(), &models.QueuedOperation{Kind: "patch", EntityType: models.EntityProfile})
	assert.ErrorIs(t, err, ErrUnroutable)
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		wantMessage   string
		statusCode    int
		wantTransient bool
	}{
		{name: "bad request", statusCode: http.StatusBadRequest, body: `{"error":"bad","message":"invalid phone"}`, wantMessage: "invalid phone"},
		{name: "unauthorized", statusCode: http.StatusUnauthorized, body: `{"error":"unauthorized"}`, wantMessage: "unauthorized"},
		{name: "rate limited", statusCode: http.StatusTooManyRequests, body: `slow down`, wantMessage: "slow down", wantTransient: true},
		{name: "server error", statusCode: http.StatusInternalServerError, body: `Internal Server Error`, wantMessage: "Internal Server Error", wantTransient: true},
		{name: "bad gateway", statusCode: http.StatusBadGateway, body: ``, wantTransient: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			err := NewClient(server.URL).Health(context.Background())
			require.Error(t, err)

			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, tt.statusCode, statusErr.StatusCode)
			assert.Equal(t, tt.wantMessage, statusErr.Message)
			assert.Equal(t, tt.wantTransient, IsTransient(err))
		})
	}
}

func TestClient_NetworkErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	err := NewClient(url).Health(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.False(t, IsUnauthorized(err))
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(errors.New("plain")))
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.True(t, IsTransient(&StatusError{StatusCode: http.StatusRequestTimeout}))
	assert.False(t, IsTransient(&StatusError{StatusCode: http.StatusNotFound}))
	assert.True(t, IsUnauthorized(&StatusError{StatusCode: http.StatusUnauthorized}))
}
