package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/rbackup/app/job"
	"github.com/umputun/rbackup/app/registry"
	"github.com/umputun/rbackup/app/scheduler"
	"github.com/umputun/rbackup/app/store"
	"github.com/umputun/rbackup/app/web/mocks"
)

// bcrypt hash for "testpass"
const testPasswordHash = "$2y$10$qOIpGITktzktHpcnWXiow.penxJmMcapV3G2ZRQaK0QRW7BSmAuJG" //nolint:gosec // test password hash

const nightlyRecord = `{"name":"nightly","source":"/home/user","destination":"/mnt/backup","time":"02:30",
	"days":{"monday":true,"wednesday":true,"friday":true},"flags":{"compress":true,"compression":"gzip"}}`

func newTestServer(t *testing.T, cfg Config) (*Server, *scheduler.Memory) {
	t.Helper()
	mem := scheduler.NewMemory()
	if cfg.Registry == nil {
		reg := registry.New(registry.Params{Store: store.NewJSONFile(filepath.Join(t.TempDir(), "jobs.json")), Scheduler: mem})
		require.NoError(t, reg.LoadJobs())
		cfg.Registry = reg
	}
	srv, err := New(cfg)
	require.NoError(t, err)
	return srv, mem
}

func request(t *testing.T, h http.Handler, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader = http.NoBody
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, rdr)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeJob(t *testing.T, rec *httptest.ResponseRecorder) job.Job {
	t.Helper()
	j, err := job.FromJSON(rec.Body.Bytes())
	require.NoError(t, err, rec.Body.String())
	return j
}

func TestNew(t *testing.T) {
	_, err := New(Config{})
	require.EqualError(t, err, "web server initialization failed: registry is required")
}

func TestServer_JobsLifecycle(t *testing.T) {
	srv, mem := newTestServer(t, Config{Version: "test"})
	h := srv.routes()

	rec := request(t, h, "POST", "/api/v1/jobs", nightlyRecord)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeJob(t, rec)
	assert.Equal(t, "nightly", created.Name)
	assert.Equal(t, job.CompressionGzip, created.Flags.Compression)

	rec = request(t, h, "POST", "/api/v1/jobs", nightlyRecord)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = request(t, h, "POST", "/api/v1/jobs", `{"name":"weekly","source":"/etc","destination":"/mnt/etc"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = request(t, h, "GET", "/api/v1/jobs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	list := APIJobsResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 2, list.Total)
	first, err := job.FromJSON(list.Jobs[0])
	require.NoError(t, err)
	assert.Equal(t, "nightly", first.Name, "sorted by name")

	rec = request(t, h, "GET", "/api/v1/jobs/nightly", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decodeJob(t, rec))

	rec = request(t, h, "PUT", "/api/v1/jobs/nightly", `{"name":"nightly","source":"/srv","destination":"/mnt/srv"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/srv", decodeJob(t, rec).Source)

	rec = request(t, h, "POST", "/api/v1/jobs/nightly/enable", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeJob(t, rec).Enabled)
	assert.Equal(t, scheduler.UnitEnabled, mem.State("nightly"))

	rec = request(t, h, "POST", "/api/v1/jobs/nightly/run", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"started":"nightly"}`, rec.Body.String())
	assert.Equal(t, 1, mem.Runs("nightly"))

	rec = request(t, h, "POST", "/api/v1/jobs/nightly/disable", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeJob(t, rec).Enabled)

	rec = request(t, h, "DELETE", "/api/v1/jobs/nightly", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":"nightly"}`, rec.Body.String())

	rec = request(t, h, "GET", "/api/v1/jobs/nightly", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "job not found")
}

func TestServer_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	h := srv.routes()
	require.Equal(t, http.StatusCreated, request(t, h, "POST", "/api/v1/jobs", nightlyRecord).Code)

	tbl := []struct {
		name, method, url, body string
		status                  int
	}{
		{"not json", "POST", "/api/v1/jobs", `{"name":`, http.StatusBadRequest},
		{"missing source", "POST", "/api/v1/jobs", `{"name":"x","destination":"/b"}`, http.StatusBadRequest},
		{"invalid time", "POST", "/api/v1/jobs", `{"name":"x","source":"/a","destination":"/b","time":"9am"}`, http.StatusBadRequest},
		{"invalid name", "POST", "/api/v1/jobs", `{"name":"a/b","source":"/a","destination":"/b"}`, http.StatusBadRequest},
		{"name mismatch", "PUT", "/api/v1/jobs/nightly", `{"name":"other","source":"/a","destination":"/b"}`, http.StatusBadRequest},
		{"update missing", "PUT", "/api/v1/jobs/other", `{"name":"other","source":"/a","destination":"/b"}`, http.StatusNotFound},
		{"enable missing", "POST", "/api/v1/jobs/other/enable", "", http.StatusNotFound},
		{"run missing", "POST", "/api/v1/jobs/other/run", "", http.StatusNotFound},
		{"delete missing", "DELETE", "/api/v1/jobs/other", "", http.StatusNotFound},
	}
	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			rec := request(t, h, tt.method, tt.url, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			resp := map[string]string{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestServer_SchedulerFailure(t *testing.T) {
	srv, mem := newTestServer(t, Config{})
	h := srv.routes()
	require.Equal(t, http.StatusCreated, request(t, h, "POST", "/api/v1/jobs", nightlyRecord).Code)

	mem.Fail(scheduler.OpEnable, errors.New("systemd unavailable"))
	rec := request(t, h, "POST", "/api/v1/jobs/nightly/enable", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "systemd unavailable")

	rec = request(t, h, "GET", "/api/v1/jobs/nightly", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeJob(t, rec).Enabled)
}

func TestServer_PersistenceFailure(t *testing.T) {
	reg := &mocks.RegistryMock{
		AddNewJobFunc: func(job.Job) error {
			return &registry.OpError{Op: "add", Name: "nightly", Kind: registry.ErrPersistence, Err: errors.New("disk full")}
		},
	}
	srv, _ := newTestServer(t, Config{Registry: reg})
	rec := request(t, srv.routes(), "POST", "/api/v1/jobs", nightlyRecord)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"add \"nightly\": persistence failure: disk full"}`, rec.Body.String())
	require.Len(t, reg.AddNewJobCalls(), 1)
	assert.Equal(t, "nightly", reg.AddNewJobCalls()[0].J.Name)
}

func TestServer_Authentication(t *testing.T) {
	srv, _ := newTestServer(t, Config{PasswordHash: testPasswordHash})
	h := srv.routes()

	t.Run("without auth", func(t *testing.T) {
		rec := request(t, h, "GET", "/api/v1/jobs", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, `Basic realm="rbackup"`, rec.Header().Get("WWW-Authenticate"))
	})

	t.Run("wrong password", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/jobs", http.NoBody)
		req.SetBasicAuth("rbackup", "wrongpass")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong user", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/jobs", http.NoBody)
		req.SetBasicAuth("admin", "testpass")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("correct auth", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/jobs", http.NoBody)
		req.SetBasicAuth("rbackup", "testpass")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("ping without auth", func(t *testing.T) {
		rec := request(t, h, "GET", "/ping", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "pong", rec.Body.String())
	})
}

func TestServer_RateLimit(t *testing.T) {
	srv, _ := newTestServer(t, Config{RateLimit: 1})
	h := srv.routes()
	require.Equal(t, http.StatusCreated, request(t, h, "POST", "/api/v1/jobs", nightlyRecord).Code)

	limited := 0
	for range 5 {
		if request(t, h, "POST", "/api/v1/jobs/nightly/run", "").Code == http.StatusTooManyRequests {
			limited++
		}
	}
	assert.Positive(t, limited, "mutating requests limited")

	for range 5 {
		assert.Equal(t, http.StatusOK, request(t, h, "GET", "/api/v1/jobs", "").Code, "reads not limited")
	}
}

func TestServer_Reload(t *testing.T) {
	reg := &mocks.RegistryMock{LoadJobsFunc: func() error { return nil }}
	srv, _ := newTestServer(t, Config{Registry: reg})
	require.NoError(t, srv.Reload())
	assert.Len(t, reg.LoadJobsCalls(), 1)

	reg.LoadJobsFunc = func() error { return registry.ErrMalformedDocument }
	err := srv.Reload()
	require.ErrorIs(t, err, registry.ErrMalformedDocument)
}

func TestServer_Run(t *testing.T) {
	srv, _ := newTestServer(t, Config{})
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, srv.Run(ctx, "127.0.0.1:0"))
}
