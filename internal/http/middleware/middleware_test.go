package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pribylovaa/playlist-transfer-api/internal/auth"
	"github.com/pribylovaa/playlist-transfer-api/internal/models"
	"github.com/pribylovaa/playlist-transfer-api/internal/pkg/log"
	"github.com/stretchr/testify/require"
)

// capHandler — тестовый slog.Handler: копит базовые attrs из With(...)
// и attrs последней записи.
type capHandler struct {
	base    []slog.Attr
	lastMsg string
	lastLvl slog.Level
	attrs   map[string]any
	msgs    []string
}

func (h *capHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *capHandler) Handle(_ context.Context, r slog.Record) error {
	out := make(map[string]any, len(h.base)+8)
	for _, a := range h.base {
		out[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Any()
		return true
	})

	h.msgs = append(h.msgs, r.Message)
	h.lastMsg = r.Message
	h.lastLvl = r.Level
	h.attrs = out

	return nil
}

func (h *capHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.base = append(h.base, attrs...)
	return h
}

func (h *capHandler) WithGroup(string) slog.Handler { return h }

func makeReq(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = (&net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 12345}).String()
	return req
}

type apiError struct {
	Code      int    `json:"errorCode"`
	Key       string `json:"errorKey"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

type fakeVerifier struct {
	claims *models.AccessClaims
	err    error
	calls  int
}

func (f *fakeVerifier) Verify(_ context.Context, _ string) (*models.AccessClaims, error) {
	f.calls++
	return f.claims, f.err
}

func TestChain_Order(t *testing.T) {
	order := []string{}

	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name+"-begin")
				next.ServeHTTP(w, r)
				order = append(order, name+"-end")
			})
		}
	}

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	Chain(final, mw("m1"), mw("m2")).ServeHTTP(rr, makeReq("/chain"))

	require.Equal(t, []string{"m1-begin", "m2-begin", "handler", "m2-end", "m1-end"}, order)
	require.Equal(t, http.StatusTeapot, rr.Code)
}

func TestRequestID_GenerateAndPropagate(t *testing.T) {
	var seenHeader, seenCtx string

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenHeader = r.Header.Get(HeaderRequestID)
		seenCtx = RequestIDFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	Chain(h, RequestID()).ServeHTTP(rr, makeReq("/rid"))

	respID := rr.Header().Get(HeaderRequestID)
	require.Len(t, respID, 36)
	require.Equal(t, respID, seenHeader)
	require.Equal(t, respID, seenCtx)
}

func TestRequestID_UseExisting(t *testing.T) {
	const given = "abc123-existing-id"
	var seenCtx string

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenCtx = RequestIDFrom(r.Context())
	})

	req := makeReq("/rid2")
	req.Header.Set(HeaderRequestID, given)
	rr := httptest.NewRecorder()
	Chain(h, RequestID()).ServeHTTP(rr, req)

	require.Equal(t, given, rr.Header().Get(HeaderRequestID))
	require.Equal(t, given, seenCtx)
}

func TestTimeout_SetsDeadline_WhenAbsent(t *testing.T) {
	var hasDeadline bool

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	})

	Chain(h, Timeout(50*time.Millisecond)).ServeHTTP(httptest.NewRecorder(), makeReq("/timeout"))
	require.True(t, hasDeadline)
}

func TestTimeout_DoesNotOverrideExistingDeadline(t *testing.T) {
	var childDL time.Time

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		childDL, _ = r.Context().Deadline()
	})

	parent, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	Chain(h, Timeout(time.Second)).ServeHTTP(httptest.NewRecorder(), makeReq("/timeout2").WithContext(parent))

	parentDL, _ := parent.Deadline()
	require.WithinDuration(t, parentDL, childDL, time.Millisecond)
}

func TestTimeout_NonPositiveIsNoop(t *testing.T) {
	var hasDeadline bool

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	})

	Chain(h, Timeout(0)).ServeHTTP(httptest.NewRecorder(), makeReq("/timeout3"))
	require.False(t, hasDeadline)
}

func TestRecover_ConvertsPanicTo500(t *testing.T) {
	ch := &capHandler{}
	panicHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	req := makeReq("/panic")
	req = req.WithContext(log.Into(req.Context(), slog.New(ch)))
	rr := httptest.NewRecorder()
	Chain(panicHandler, Recover()).ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body apiError
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, 5000, body.Code)
	require.Equal(t, "InternalError", body.Key)
	require.Equal(t, "Internal server error", body.Message)

	require.Equal(t, "panic_recovered", ch.lastMsg)
	require.Equal(t, slog.LevelError, ch.lastLvl)
}

func TestLogging_WritesRecord_WithStatusDurBytesAndRequestID(t *testing.T) {
	ch := &capHandler{}
	const rid = "rid-456"

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	})

	req := makeReq("/log")
	req.Header.Set(HeaderRequestID, rid)
	req.Header.Set("Authorization", "Bearer secret-token")
	rr := httptest.NewRecorder()
	Chain(final, RequestID(), Logging(slog.New(ch))).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "http", ch.lastMsg)
	require.Equal(t, slog.LevelInfo, ch.lastLvl)

	require.Equal(t, http.MethodGet, ch.attrs["method"])
	require.Equal(t, "/log", ch.attrs["path"])
	require.EqualValues(t, http.StatusOK, ch.attrs["status"])
	require.EqualValues(t, 10, ch.attrs["bytes"])
	require.Equal(t, rid, ch.attrs["request_id"])
	require.Contains(t, ch.attrs, "dur")

	for _, v := range ch.attrs {
		require.NotEqual(t, "Bearer secret-token", v)
	}
}

func TestLogging_ServerErrorLoggedAsError(t *testing.T) {
	ch := &capHandler{}
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	Chain(final, Logging(slog.New(ch))).ServeHTTP(httptest.NewRecorder(), makeReq("/fail"))

	require.Equal(t, slog.LevelError, ch.lastLvl)
	require.EqualValues(t, http.StatusInternalServerError, ch.attrs["status"])
}

func TestStatusWriter_CountsBytes_AndDefaultStatus200(t *testing.T) {
	sw := newStatusWriter(httptest.NewRecorder())

	_, _ = sw.Write([]byte("abcd"))

	require.Equal(t, http.StatusOK, sw.status)
	require.Equal(t, 4, sw.count)
}

func TestRequireAuth(t *testing.T) {
	claims := &models.AccessClaims{Subject: 7, Username: "alice"}

	tests := []struct {
		name      string
		header    string
		verifier  *fakeVerifier
		wantCode  int
		wantKey   string
		wantCalls int
	}{
		{"missing_header", "", &fakeVerifier{claims: claims}, http.StatusUnauthorized, "MissingAuthHeader", 0},
		{"no_scheme", "abc", &fakeVerifier{claims: claims}, http.StatusUnauthorized, "InvalidAuthHeader", 0},
		{"basic_scheme", "Basic abc", &fakeVerifier{claims: claims}, http.StatusUnauthorized, "InvalidAuthHeader", 0},
		{"bad_token", "Bearer abc", &fakeVerifier{err: errors.New("expired")}, http.StatusUnauthorized, "Unauthorized", 1},
		{"ok", "Bearer abc", &fakeVerifier{claims: claims}, http.StatusOK, "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *models.AccessClaims
			final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = auth.From(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := makeReq("/v1/users/me")
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			Chain(final, RequireAuth(tt.verifier)).ServeHTTP(rr, req)

			require.Equal(t, tt.wantCode, rr.Code)
			require.Equal(t, tt.wantCalls, tt.verifier.calls)

			if tt.wantKey == "" {
				require.Equal(t, claims, seen)
				return
			}

			require.Nil(t, seen)
			var body apiError
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			require.Equal(t, tt.wantKey, body.Key)
		})
	}
}
