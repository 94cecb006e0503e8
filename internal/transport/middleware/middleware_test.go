package middleware_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/transport/middleware"
	"github.com/frahmantamala/user-management/pkg/logger"
	"github.com/frahmantamala/user-management/pkg/metrics"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var _ = Describe("RequestID", func() {
	var seen string

	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := logger.FromContext(r.Context())
		Expect(ok).To(BeTrue())
		seen = w.Header().Get(middleware.TraceIDHeader)
	}))

	It("echoes a caller supplied trace id", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.TraceIDHeader, "trace-123")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		Expect(w.Header().Get(middleware.TraceIDHeader)).To(Equal("trace-123"))
		Expect(seen).To(Equal("trace-123"))
	})

	It("mints an id when none is supplied", func() {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(w.Header().Get(middleware.TraceIDHeader)).To(HaveLen(36))
	})

	It("replaces an oversized id", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.TraceIDHeader, strings.Repeat("a", 200))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		Expect(w.Header().Get(middleware.TraceIDHeader)).To(HaveLen(36))
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	It("turns a panic into a generic 500", func() {
		handler := middleware.RecoveryMiddleware(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("database password is hunter2")
		}))
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		var body internal.ErrorBody
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body).To(Equal(internal.ErrorBody{Code: 500, Message: "internal server error"}))
		Expect(w.Body.String()).NotTo(ContainSubstring("hunter2"))
	})

	It("lets http.ErrAbortHandler through", func() {
		handler := middleware.RecoveryMiddleware(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic(http.ErrAbortHandler)
		}))

		Expect(func() {
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		}).To(PanicWith(http.ErrAbortHandler))
	})
})

var _ = Describe("LoggingMiddleware", func() {
	var (
		buf     *bytes.Buffer
		handler http.Handler
		got     []byte
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		base := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		handler = middleware.LoggingMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ = io.ReadAll(r.Body)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":401,"message":"invalid credentials"}`))
		}))
	})

	It("masks credentials but leaves the body intact for the handler", func() {
		payload := `{"username":"superadmin","password":"ls231007","profile":{"id_card":"110101199001010011"}}`
		req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(payload))
		req.Header.Set("Authorization", "Bearer abc.def.ghi")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		Expect(string(got)).To(Equal(payload))
		Expect(w.Code).To(Equal(http.StatusUnauthorized))

		logged := buf.String()
		Expect(logged).To(ContainSubstring("superadmin"))
		Expect(logged).To(ContainSubstring("[FILTERED]"))
		Expect(logged).NotTo(ContainSubstring("ls231007"))
		Expect(logged).NotTo(ContainSubstring("110101199001010011"))
		Expect(logged).NotTo(ContainSubstring("abc.def.ghi"))
	})

	It("logs the response status at warn level for client errors", func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/user/1", nil))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		Expect(lines).To(HaveLen(2))

		var entry map[string]interface{}
		Expect(json.Unmarshal([]byte(lines[1]), &entry)).To(Succeed())
		Expect(entry["msg"]).To(Equal("response"))
		Expect(entry["level"]).To(Equal("WARN"))
		Expect(entry["status_code"]).To(BeNumerically("==", 401))
	})
})

var _ = Describe("RequireRoles", func() {
	var handler http.Handler

	BeforeEach(func() {
		handler = middleware.RequireRoles(discardLogger(), "superadmin", "admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
	})

	serve := func(p *internal.Principal) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		if p != nil {
			req = req.WithContext(internal.ContextWithPrincipal(req.Context(), p))
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	It("admits a caller holding one of the roles", func() {
		w := serve(&internal.Principal{ID: 1, Username: "root", Roles: []string{"user", "admin"}})

		Expect(w.Code).To(Equal(http.StatusNoContent))
	})

	It("forbids a caller without the roles", func() {
		w := serve(&internal.Principal{ID: 2, Username: "alice", Roles: []string{"user"}})

		Expect(w.Code).To(Equal(http.StatusForbidden))
		var body internal.ErrorBody
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Message).To(Equal("insufficient role"))
	})

	It("rejects an anonymous request", func() {
		w := serve(nil)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})
})

var _ = Describe("CORS", func() {
	handler := middleware.CORS("https://admin.example.com, https://ops.example.com")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	It("allows a configured origin", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
		req.Header.Set("Origin", "https://ops.example.com")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://ops.example.com"))
	})

	It("ignores other origins", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("answers preflight requests", func() {
		req := httptest.NewRequest(http.MethodOptions, "/api/login", nil)
		req.Header.Set("Origin", "https://admin.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusNoContent))
		Expect(w.Header().Get("Access-Control-Allow-Headers")).To(ContainSubstring("Authorization"))
	})
})

var _ = Describe("Metrics", func() {
	It("labels requests with the route pattern", func() {
		router := chi.NewRouter()
		router.Use(middleware.Metrics)
		router.Get("/api/user/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/user/{id}", "404")
		before := testutil.ToFloat64(counter)

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/user/42", nil))
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/user/43", nil))

		Expect(testutil.ToFloat64(counter) - before).To(Equal(2.0))
	})
})

var _ = Describe("UserContext", func() {
	It("attaches a request logger for authenticated callers", func() {
		var tagged bool
		handler := middleware.UserContext(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, tagged = logger.FromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(internal.ContextWithPrincipal(req.Context(), &internal.Principal{ID: 7, Username: "alice"}))
		handler.ServeHTTP(httptest.NewRecorder(), req)

		Expect(tagged).To(BeTrue())
	})

	It("passes anonymous requests through", func() {
		var tagged bool
		handler := middleware.UserContext(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, tagged = logger.FromContext(r.Context())
		}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(tagged).To(BeFalse())
	})
})
