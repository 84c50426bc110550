package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-news-cms/internal/metrics"
	"github.com/pribylovaa/go-news-cms/internal/service"
)

// capHandler — тестовый slog.Handler, который:
//   - аккумулирует базовые attrs, приходящие через Logger.With(...);
//   - собирает attrs последней записи в map[string]any.
type capHandler struct {
	base    []slog.Attr
	lastMsg string
	lastLvl slog.Level
	attrs   map[string]any
	count   int
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
	h.count++
	h.lastMsg = r.Message
	h.lastLvl = r.Level
	h.attrs = out
	return nil
}

func (h *capHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) > 0 {
		h.base = append(h.base, attrs...)
	}
	return h
}

func (h *capHandler) WithGroup(string) slog.Handler { return h }

func makeReq(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = (&net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 12345}).String()
	return req
}

type errEnvelope struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func decodeErr(t *testing.T, rr *httptest.ResponseRecorder) errEnvelope {
	t.Helper()
	var env errEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env
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
		seenCtx = RequestIDFromContext(r.Context())
	})

	rr := httptest.NewRecorder()
	Chain(h, RequestID()).ServeHTTP(rr, makeReq("/rid"))

	respID := rr.Header().Get(HeaderRequestID)
	_, err := uuid.Parse(respID)
	require.NoError(t, err)
	require.Equal(t, respID, seenHeader)
	require.Equal(t, respID, seenCtx)
}

func TestRequestID_UseExisting_RejectOversized(t *testing.T) {
	h := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	rr := httptest.NewRecorder()
	req := makeReq("/rid")
	req.Header.Set(HeaderRequestID, "abc123-existing-id")
	Chain(h, RequestID()).ServeHTTP(rr, req)
	require.Equal(t, "abc123-existing-id", rr.Header().Get(HeaderRequestID))

	rr = httptest.NewRecorder()
	req = makeReq("/rid")
	req.Header.Set(HeaderRequestID, strings.Repeat("x", 500))
	Chain(h, RequestID()).ServeHTTP(rr, req)
	require.Len(t, rr.Header().Get(HeaderRequestID), 36)
}

type fakeValidator struct {
	uid uuid.UUID
	err error
	got string
}

func (f *fakeValidator) ValidateToken(_ context.Context, token string) (uuid.UUID, string, error) {
	f.got = token
	if f.err != nil {
		return uuid.Nil, "", f.err
	}
	return f.uid, "a@b.io", nil
}

func TestRequireAuth_OK(t *testing.T) {
	v := &fakeValidator{uid: uuid.New()}

	var gotUID uuid.UUID
	var gotEmail string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ok bool
		gotUID, gotEmail, ok = UserFromContext(r.Context())
		require.True(t, ok)
		w.WriteHeader(http.StatusNoContent)
	})

	rr := httptest.NewRecorder()
	req := makeReq("/api/news")
	req.Header.Set("Authorization", "Bearer test-token-123")
	Chain(h, RequireAuth(v)).ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, "test-token-123", v.got)
	require.Equal(t, v.uid, gotUID)
	require.Equal(t, "a@b.io", gotEmail)
}

// TestRequireAuth_Rejects — без валидного токена обработчик не вызывается.
func TestRequireAuth_Rejects(t *testing.T) {
	called := false
	h := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

	cases := map[string]struct {
		header string
		err    error
	}{
		"no_header":     {"", nil},
		"basic":         {"Basic aaa", nil},
		"empty_bearer":  {"Bearer   ", nil},
		"invalid_token": {"Bearer x", service.ErrInvalidToken},
		"expired_token": {"Bearer x", service.ErrTokenExpired},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			called = false
			rr := httptest.NewRecorder()
			req := makeReq("/api/news")
			req.Header.Set(HeaderRequestID, "rid-1")
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			Chain(h, RequireAuth(&fakeValidator{err: tc.err})).ServeHTTP(rr, req)

			require.False(t, called)
			require.Equal(t, http.StatusUnauthorized, rr.Code)
			env := decodeErr(t, rr)
			require.Equal(t, "unauthenticated", env.Error.Code)
			require.Equal(t, "rid-1", env.Error.RequestID)
		})
	}
}

func TestUserFromContext_Empty(t *testing.T) {
	_, _, ok := UserFromContext(context.Background())
	require.False(t, ok)
}

func TestTimeout_SetsDeadline_WhenAbsent(t *testing.T) {
	var left time.Duration
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dl, ok := r.Context().Deadline()
		require.True(t, ok)
		left = time.Until(dl)
	})

	Chain(h, Timeout(50*time.Millisecond)).ServeHTTP(httptest.NewRecorder(), makeReq("/timeout"))
	require.Greater(t, left, time.Duration(0))
}

func TestTimeout_DoesNotOverrideExistingDeadline(t *testing.T) {
	var childDL time.Time
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		childDL, _ = r.Context().Deadline()
	})

	parent, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	Chain(h, Timeout(time.Second)).ServeHTTP(httptest.NewRecorder(), makeReq("/timeout").WithContext(parent))

	parentDL, _ := parent.Deadline()
	require.WithinDuration(t, parentDL, childDL, time.Millisecond)
}

func TestMaxBody_LimitsRead(t *testing.T) {
	var readErr error
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		for readErr == nil {
			_, readErr = r.Body.Read(buf)
		}
	})

	req := httptest.NewRequest(http.MethodPost, "/file/upload", strings.NewReader(strings.Repeat("a", 100)))
	Chain(h, MaxBody(10)).ServeHTTP(httptest.NewRecorder(), req)

	var mbe *http.MaxBytesError
	require.True(t, errors.As(readErr, &mbe))
}

func TestRecover_ConvertsPanicTo500(t *testing.T) {
	panicHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rr := httptest.NewRecorder()
	Chain(panicHandler, Recover()).ServeHTTP(rr, makeReq("/panic"))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	env := decodeErr(t, rr)
	require.Equal(t, "internal", env.Error.Code)
	require.NotContains(t, env.Error.Message, "boom")
}

func TestLogging_WritesRecord_WithStatusDurBytesAndRequestID(t *testing.T) {
	h := &capHandler{}
	logger := slog.New(h)

	const rid = "rid-456"
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	})

	rr := httptest.NewRecorder()
	req := makeReq("/log")
	req.Header.Set(HeaderRequestID, rid)
	Chain(final, RequestID(), Logging(logger)).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 1, h.count)
	require.Equal(t, "http", h.lastMsg)
	require.Equal(t, slog.LevelInfo, h.lastLvl)

	require.Equal(t, http.MethodGet, h.attrs["method"])
	require.Equal(t, "/log", h.attrs["path"])
	require.EqualValues(t, http.StatusOK, h.attrs["status"])
	require.EqualValues(t, 10, h.attrs["bytes"])
	require.Equal(t, rid, h.attrs["request_id"])
	require.Contains(t, h.attrs, "dur")
}

func TestLogging_ErrorLevelOn5xx(t *testing.T) {
	h := &capHandler{}
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	Chain(final, Logging(slog.New(h))).ServeHTTP(httptest.NewRecorder(), makeReq("/x"))
	require.Equal(t, slog.LevelError, h.lastLvl)
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Delete("/api/news/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/news/"+id, nil))
	}

	n, err := testutil.GatherAndCount(reg, "news_cms_http_requests_total")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestResponseMeter_CountsBytes_AndDefaultStatus200(t *testing.T) {
	rec := meter(httptest.NewRecorder())
	require.Equal(t, http.StatusOK, rec.Status())

	_, _ = rec.Write([]byte("abcd"))
	rec.WriteHeader(http.StatusTeapot)
	require.Equal(t, http.StatusOK, rec.Status())
	require.Equal(t, 4, rec.BytesWritten())
}
