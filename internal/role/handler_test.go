package role_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/auth"
	"github.com/frahmantamala/user-management/internal/role"
	roleRepository "github.com/frahmantamala/user-management/internal/role/mysql"
	"github.com/frahmantamala/user-management/internal/seed"
	"github.com/frahmantamala/user-management/internal/testutil"
	"github.com/frahmantamala/user-management/internal/transport"
)

var _ = Describe("Role Handler Integration", func() {
	var router chi.Router

	do := func(method, target, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, target, nil)
		} else {
			req = httptest.NewRequest(method, target, strings.NewReader(body))
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	createRole := func(name string) role.RoleResponse {
		w := do(http.MethodPost, "/api/roles", `{"role_name":"`+name+`","description":"created in test"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))
		var resp role.RoleDetailResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		return *resp.Data
	}

	BeforeEach(func() {
		ctx := context.Background()
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		store, err := testutil.OpenSQLite(ctx)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(store.Close)

		_, err = seed.Run(ctx, store.Gorm, auth.NewBcryptHasher(bcrypt.MinCost), seed.Options{}, lg)
		Expect(err).NotTo(HaveOccurred())

		service := role.NewService(roleRepository.NewRoleRepository(store.Gorm), lg)
		handler := role.NewHandler(transport.NewBaseHandler(lg), service)

		router = chi.NewRouter()
		router.Route("/api/roles", func(r chi.Router) {
			r.Get("/", handler.ListRoles)
			r.Post("/", handler.CreateRole)
			r.Get("/{id}", handler.GetRole)
			r.Patch("/{id}", handler.UpdateRole)
			r.Delete("/{id}", handler.DeleteRole)
		})
	})

	It("lists the seeded roles in id order", func() {
		w := do(http.MethodGet, "/api/roles", "")

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp role.RoleListResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Total).To(Equal(int64(3)))
		names := make([]string, 0, len(resp.Data))
		for _, r := range resp.Data {
			names = append(names, r.RoleName)
		}
		Expect(names).To(Equal([]string{"superadmin", "admin", "user"}))
	})

	DescribeTable("filters by role name",
		func(query string, total int64) {
			w := do(http.MethodGet, "/api/roles?role_name="+query, "")

			var resp role.RoleListResponse
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Total).To(Equal(total))
		},
		Entry("substring", "admin", int64(2)),
		Entry("other case", "ADMIN", int64(2)),
		Entry("wildcard taken literally", "%25", int64(0)),
	)

	It("creates, reads, renames and deletes a role", func() {
		created := createRole("auditor")
		path := "/api/roles/" + strconv.FormatInt(created.ID, 10)

		w := do(http.MethodGet, path, "")
		Expect(w.Code).To(Equal(http.StatusOK))

		w = do(http.MethodPatch, path, `{"role_name":"reviewer"}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		var updated role.RoleDetailResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &updated)).To(Succeed())
		Expect(updated.Data.RoleName).To(Equal("reviewer"))
		Expect(*updated.Data.Description).To(Equal("created in test"))

		w = do(http.MethodDelete, path, "")
		Expect(w.Code).To(Equal(http.StatusOK))

		w = do(http.MethodGet, path, "")
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("rejects a duplicate role name with 409", func() {
		w := do(http.MethodPost, "/api/roles", `{"role_name":"admin"}`)

		Expect(w.Code).To(Equal(http.StatusConflict))
		var body internal.ErrorBody
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Message).To(Equal("role name already exists"))
	})

	It("rejects a whitespace-only role name with 400", func() {
		w := do(http.MethodPost, "/api/roles", `{"role_name":"   "}`)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		var body internal.ErrorBody
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Message).To(Equal("role_name is required"))

		w = do(http.MethodGet, "/api/roles", "")
		var resp role.RoleListResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Total).To(Equal(int64(3)))
	})

	It("refuses to delete a role that is still assigned", func() {
		w := do(http.MethodGet, "/api/roles?role_name=superadmin", "")
		var resp role.RoleListResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Data).To(HaveLen(1))

		w = do(http.MethodDelete, "/api/roles/"+strconv.FormatInt(resp.Data[0].ID, 10), "")

		Expect(w.Code).To(Equal(http.StatusConflict))
	})

	It("returns 400 for a malformed id", func() {
		w := do(http.MethodGet, "/api/roles/abc", "")

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 404 for an integer id that matches no role", func() {
		w := do(http.MethodGet, "/api/roles/0", "")

		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
