package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iudanet/guardian/internal/client/iocli"
	"github.com/iudanet/guardian/internal/client/launcher"
	"github.com/iudanet/guardian/internal/client/location"
	"github.com/iudanet/guardian/internal/executil"
	"github.com/iudanet/guardian/internal/models"
	"github.com/iudanet/guardian/pkg/api"
)

// fakeBackend is an in-memory guardian backend.
type fakeBackend struct {
	mu         sync.Mutex
	down       bool
	rejectWith int // status returned for contact writes when non-zero
	contacts   []models.Contact
	profile    models.UserProfile
	medical    models.MedicalInfo
	locations  [][]models.LocationSample
	alerts     []api.EmergencyAlertRequest
	tokens     []string
}

func (b *fakeBackend) setDown(down bool) {
	b.mu.Lock()
	b.down = down
	b.mu.Unlock()
}

func (b *fakeBackend) setReject(status int) {
	b.mu.Lock()
	b.rejectWith = status
	b.mu.Unlock()
}

func (b *fakeBackend) snapshotContacts() []models.Contact {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Contact{}, b.contacts...)
}

func (b *fakeBackend) snapshotAlerts() []api.EmergencyAlertRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.EmergencyAlertRequest{}, b.alerts...)
}

func (b *fakeBackend) snapshotLocations() [][]models.LocationSample {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]models.LocationSample{}, b.locations...)
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /contacts", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, api.ContactsResponse{Contacts: b.contacts})
	})
	mux.HandleFunc("POST /contacts", func(w http.ResponseWriter, r *http.Request) {
		if b.rejectWith != 0 {
			w.WriteHeader(b.rejectWith)
			writeJSON(w, api.ErrorResponse{Error: "rejected", Message: "invalid contact"})
			return
		}
		var c models.Contact
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.contacts = append(b.contacts, c)
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("DELETE /contacts/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		kept := b.contacts[:0]
		for _, c := range b.contacts {
			if c.ID != id {
				kept = append(kept, c)
			}
		}
		b.contacts = kept
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /profile", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, b.profile)
	})
	mux.HandleFunc("PUT /profile", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&b.profile)
	})
	mux.HandleFunc("GET /medical-info", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, b.medical)
	})
	mux.HandleFunc("PUT /medical-info", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&b.medical)
	})
	mux.HandleFunc("POST /location", func(w http.ResponseWriter, r *http.Request) {
		var batch []models.LocationSample
		_ = json.NewDecoder(r.Body).Decode(&batch)
		b.locations = append(b.locations, batch)
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("POST /emergency-alert", func(w http.ResponseWriter, r *http.Request) {
		var req api.EmergencyAlertRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.alerts = append(b.alerts, req)
		writeJSON(w, api.EmergencyAlertResponse{AlertID: "srv-alert", ContactsNotified: len(req.Contacts)})
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()

		if b.down {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if r.URL.Path != api.PathHealth {
			b.tokens = append(b.tokens, strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		}
		mux.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type testEnv struct {
	backend  *fakeBackend
	provider *location.StaticProvider
	exec     *executil.RecordingExecutor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		backend:  &fakeBackend{},
		provider: location.NewStaticProvider(&location.Position{Latitude: 52.52, Longitude: 13.405}),
		exec:     &executil.RecordingExecutor{},
	}
	srv := httptest.NewServer(env.backend.handler())
	t.Cleanup(srv.Close)

	t.Setenv("GUARDIAN_APP_ENV", "local")
	t.Setenv("GUARDIAN_API_BASE_URL", srv.URL)
	t.Setenv("GUARDIAN_DATA_DIR", t.TempDir())
	t.Setenv("GUARDIAN_STORAGE_DRIVER", "bolt")
	t.Setenv("GUARDIAN_LOG_LEVEL", "debug")
	t.Setenv("GUARDIAN_QUEUE_DRAIN_DELAY", "0s")
	t.Setenv("GUARDIAN_ALERT_CONTACT_DELAY", "0s")
	t.Setenv("GUARDIAN_LOCATION_START_DELAY", "1h")
	t.Setenv("GUARDIAN_HTTP_TIMEOUT", "5s")
	return env
}

// run executes one CLI invocation with input fed to the terminal.
func (e *testEnv) run(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	c := New(iocli.NewStream(strings.NewReader(input), &out),
		WithLocationProvider(e.provider),
		WithLauncherExecutor(e.exec),
	)

	root := c.RootCmd("test")
	root.SetArgs(append([]string{"--env-file", ""}, args...))
	root.SetOut(&out)
	root.SetErr(&out)

	err := root.ExecuteContext(context.Background())
	require.NoError(t, c.teardown(nil, nil))
	return out.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, "", args...)
	require.NoError(t, err, out)
	return out
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	e.mustRun(t, "login", "--token", "tok-1", "--user", "user-1")
}

func (e *testEnv) failLaunchers() {
	e.exec.Errors = map[string]error{
		launcher.DefaultOpenCommand(): errors.New("no handler"),
	}
}
