package user_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/role"
	"github.com/frahmantamala/user-management/internal/user"
)

// plainHasher keeps tests fast; the digest is the plaintext with a prefix.
type plainHasher struct{}

func (plainHasher) Hash(plaintext string) (string, error) { return "hashed:" + plaintext, nil }

func (plainHasher) Verify(plaintext, digest string) bool { return digest == "hashed:"+plaintext }

// mockRepository is an in-memory user store.
type mockRepository struct {
	users       map[int64]*user.User
	roles       map[int64]role.Summary
	nextID      int64
	lastFilter  user.ListFilter
	lastRoleIDs []int64
	failWith    error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users: map[int64]*user.User{},
		roles: map[int64]role.Summary{
			1: {ID: 1, RoleName: "superadmin"},
			2: {ID: 2, RoleName: "admin"},
			3: {ID: 3, RoleName: "user"},
		},
		nextID: 1,
	}
}

func (m *mockRepository) add(u *user.User) *user.User {
	u.ID = m.nextID
	m.nextID++
	m.users[u.ID] = u
	return u
}

func (m *mockRepository) FindByID(ctx context.Context, id int64) (*user.User, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	u, ok := m.users[id]
	if !ok {
		return nil, internal.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *mockRepository) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, internal.ErrUserNotFound
}

func (m *mockRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := m.FindByUsername(ctx, username)
	return err == nil, nil
}

func (m *mockRepository) IDCardTakenByOther(ctx context.Context, idCard string, excludeID int64) (bool, error) {
	for _, u := range m.users {
		if u.IDCard == idCard && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) List(ctx context.Context, filter user.ListFilter) ([]*user.User, int64, error) {
	m.lastFilter = filter
	if m.failWith != nil {
		return nil, 0, m.failWith
	}
	out := make([]*user.User, 0, len(m.users))
	for id := int64(1); id < m.nextID; id++ {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockRepository) linked(roleIDs []int64) ([]role.Summary, error) {
	roles := make([]role.Summary, 0, len(roleIDs))
	for _, id := range roleIDs {
		r, ok := m.roles[id]
		if !ok {
			return nil, internal.ErrUnknownRole
		}
		roles = append(roles, r)
	}
	return roles, nil
}

func (m *mockRepository) Create(ctx context.Context, u *user.User, roleIDs []int64) error {
	m.lastRoleIDs = roleIDs
	roles, err := m.linked(roleIDs)
	if err != nil {
		return err
	}
	u.Roles = roles
	stored := *u
	m.add(&stored)
	u.ID = stored.ID
	return nil
}

func (m *mockRepository) Update(ctx context.Context, u *user.User, roleIDs []int64) error {
	m.lastRoleIDs = roleIDs
	stored := *u
	if roleIDs != nil {
		roles, err := m.linked(roleIDs)
		if err != nil {
			return err
		}
		stored.Roles = roles
	}
	m.users[u.ID] = &stored
	return nil
}

func (m *mockRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	u, ok := m.users[id]
	if !ok {
		return internal.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return internal.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

func strPtr(s string) *string { return &s }

func validCreateDTO() user.CreateUserDTO {
	return user.CreateUserDTO{
		Username:   "alice",
		Password:   "secret123",
		RealName:   "Alice Liddell",
		IDCard:     "110101199203030022",
		Phone:      "13900000001",
		Department: "Finance",
		RoleIDs:    []int64{3},
	}
}

var _ = Describe("User Service", func() {
	var (
		repo    *mockRepository
		service *user.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = newMockRepository()
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = user.NewService(repo, plainHasher{}, lg)
	})

	Describe("FindByID", func() {
		It("returns the stored user with roles", func() {
			stored := repo.add(&user.User{Username: "root", Roles: []role.Summary{{ID: 1, RoleName: "superadmin"}}})

			u, err := service.FindByID(ctx, stored.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(u.Username).To(Equal("root"))
			Expect(u.RoleNames()).To(Equal([]string{"superadmin"}))
		})

		It("passes not found through unchanged", func() {
			_, err := service.FindByID(ctx, 999999)

			Expect(err).To(Equal(internal.ErrUserNotFound))
		})

		It("hides store failures behind an internal error", func() {
			repo.failWith = errors.New("connection refused")

			_, err := service.FindByID(ctx, 1)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeInternal))
			Expect(appErr.Message).NotTo(ContainSubstring("connection refused"))
		})
	})

	Describe("Create", func() {
		It("hashes the password and links the roles", func() {
			u, err := service.Create(ctx, validCreateDTO())

			Expect(err).NotTo(HaveOccurred())
			Expect(u.ID).To(BeNumerically(">", 0))
			Expect(u.PasswordHash).To(Equal("hashed:secret123"))
			Expect(u.RoleNames()).To(Equal([]string{"user"}))
		})

		It("trims the username", func() {
			dto := validCreateDTO()
			dto.Username = "  alice  "

			u, err := service.Create(ctx, dto)

			Expect(err).NotTo(HaveOccurred())
			Expect(u.Username).To(Equal("alice"))
		})

		It("rejects a taken username", func() {
			_, err := service.Create(ctx, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())

			dto := validCreateDTO()
			dto.IDCard = "110101199203030033"
			_, err = service.Create(ctx, dto)

			Expect(err).To(Equal(internal.ErrUsernameTaken))
		})

		It("rejects an id card already in use", func() {
			_, err := service.Create(ctx, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())

			dto := validCreateDTO()
			dto.Username = "bob"
			_, err = service.Create(ctx, dto)

			Expect(err).To(Equal(internal.ErrIDCardTaken))
		})

		It("rejects unknown role ids", func() {
			dto := validCreateDTO()
			dto.RoleIDs = []int64{42}

			_, err := service.Create(ctx, dto)

			Expect(err).To(MatchError(internal.ErrUnknownRole))
		})

		DescribeTable("rejects invalid input",
			func(mutate func(*user.CreateUserDTO), message string) {
				dto := validCreateDTO()
				mutate(&dto)

				_, err := service.Create(ctx, dto)

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.StatusCode).To(Equal(400))
				Expect(appErr.GetDetailedMessage()).To(ContainSubstring(message))
			},
			Entry("missing username", func(d *user.CreateUserDTO) { d.Username = "" }, "username is required"),
			Entry("blank username", func(d *user.CreateUserDTO) { d.Username = "   " }, "username is required"),
			Entry("blank real name", func(d *user.CreateUserDTO) { d.RealName = " \t " }, "real_name is required"),
			Entry("password over 72 bytes", func(d *user.CreateUserDTO) { d.Password = strings.Repeat("密", 30) }, "password must not exceed 72 bytes"),
			Entry("short password", func(d *user.CreateUserDTO) { d.Password = "abc" }, "password must be at least 6 characters"),
			Entry("malformed id card", func(d *user.CreateUserDTO) { d.IDCard = "12345" }, "id_card must be 18 characters"),
			Entry("malformed phone", func(d *user.CreateUserDTO) { d.Phone = "call me" }, "phone must contain only digits"),
			Entry("duplicate role ids", func(d *user.CreateUserDTO) { d.RoleIDs = []int64{3, 3} }, "role_ids must not contain duplicates"),
			Entry("non-positive role id", func(d *user.CreateUserDTO) { d.RoleIDs = []int64{0} }, "must be greater than 0"),
		)
	})

	Describe("Update", func() {
		var existing *user.User

		BeforeEach(func() {
			var err error
			existing, err = service.Create(ctx, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())
		})

		It("applies only the provided fields", func() {
			u, err := service.Update(ctx, existing.ID, user.UpdateUserDTO{Department: strPtr(" Sales ")})

			Expect(err).NotTo(HaveOccurred())
			Expect(u.Department).To(Equal("Sales"))
			Expect(u.RealName).To(Equal("Alice Liddell"))
			Expect(u.RoleNames()).To(Equal([]string{"user"}))
			Expect(repo.lastRoleIDs).To(BeNil())
		})

		It("replaces the role set when role_ids is given", func() {
			roleIDs := []int64{2, 3}

			u, err := service.Update(ctx, existing.ID, user.UpdateUserDTO{RoleIDs: &roleIDs})

			Expect(err).NotTo(HaveOccurred())
			Expect(u.RoleNames()).To(Equal([]string{"admin", "user"}))
		})

		It("clears the roles for an empty role_ids", func() {
			empty := []int64{}

			u, err := service.Update(ctx, existing.ID, user.UpdateUserDTO{RoleIDs: &empty})

			Expect(err).NotTo(HaveOccurred())
			Expect(u.Roles).To(BeEmpty())
			Expect(repo.lastRoleIDs).NotTo(BeNil())
		})

		It("rejects an id card owned by someone else", func() {
			other := validCreateDTO()
			other.Username = "bob"
			other.IDCard = "110101199203030044"
			_, err := service.Create(ctx, other)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Update(ctx, existing.ID, user.UpdateUserDTO{IDCard: strPtr("110101199203030044")})

			Expect(err).To(Equal(internal.ErrIDCardTaken))
		})

		It("keeps the user's own id card without a conflict", func() {
			_, err := service.Update(ctx, existing.ID, user.UpdateUserDTO{IDCard: strPtr(existing.IDCard)})

			Expect(err).NotTo(HaveOccurred())
		})

		It("returns not found for a missing user", func() {
			_, err := service.Update(ctx, 999999, user.UpdateUserDTO{RealName: strPtr("Nobody")})

			Expect(err).To(Equal(internal.ErrUserNotFound))
		})

		DescribeTable("rejects a blank real name",
			func(realName string) {
				_, err := service.Update(ctx, existing.ID, user.UpdateUserDTO{RealName: strPtr(realName)})

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.StatusCode).To(Equal(400))
				Expect(appErr.GetDetailedMessage()).To(Equal("real_name must not be blank"))
				Expect(repo.users[existing.ID].RealName).To(Equal("Alice Liddell"))
			},
			Entry("empty", ""),
			Entry("spaces", "   "),
		)
	})

	Describe("UpdateProfile", func() {
		It("never touches the role links", func() {
			existing, err := service.Create(ctx, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())

			u, err := service.UpdateProfile(ctx, existing.ID, user.UpdateProfileDTO{Phone: strPtr("+86-139-0000")})

			Expect(err).NotTo(HaveOccurred())
			Expect(u.Phone).To(Equal("+86-139-0000"))
			Expect(u.RoleNames()).To(Equal([]string{"user"}))
			Expect(repo.lastRoleIDs).To(BeNil())
		})
	})

	Describe("Delete", func() {
		It("removes another user", func() {
			target := repo.add(&user.User{Username: "target"})

			Expect(service.Delete(ctx, 100, target.ID)).To(Succeed())
			_, err := service.FindByID(ctx, target.ID)
			Expect(err).To(Equal(internal.ErrUserNotFound))
		})

		It("refuses to delete the caller", func() {
			self := repo.add(&user.User{Username: "self"})

			err := service.Delete(ctx, self.ID, self.ID)

			Expect(err).To(Equal(internal.ErrCannotDeleteSelf))
		})

		It("reports a missing user before the self check", func() {
			err := service.Delete(ctx, 999999, 999999)

			Expect(err).To(Equal(internal.ErrUserNotFound))
		})
	})

	Describe("ChangePassword", func() {
		var existing *user.User

		BeforeEach(func() {
			existing = repo.add(&user.User{Username: "alice", PasswordHash: "hashed:secret123"})
		})

		It("stores the new digest", func() {
			err := service.ChangePassword(ctx, existing.ID, user.ChangePasswordDTO{OldPassword: "secret123", NewPassword: "better456"})

			Expect(err).NotTo(HaveOccurred())
			Expect(repo.users[existing.ID].PasswordHash).To(Equal("hashed:better456"))
		})

		It("rejects a wrong old password", func() {
			err := service.ChangePassword(ctx, existing.ID, user.ChangePasswordDTO{OldPassword: "nope", NewPassword: "better456"})

			Expect(err).To(Equal(internal.ErrWrongOldPassword))
		})

		It("rejects an unchanged password", func() {
			err := service.ChangePassword(ctx, existing.ID, user.ChangePasswordDTO{OldPassword: "secret123", NewPassword: "secret123"})

			Expect(err).To(Equal(internal.ErrPasswordUnchanged))
		})

		It("rejects a short new password", func() {
			err := service.ChangePassword(ctx, existing.ID, user.ChangePasswordDTO{OldPassword: "secret123", NewPassword: "abc"})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.GetDetailedMessage()).To(Equal("new_password must be at least 6 characters"))
			Expect(repo.users[existing.ID].PasswordHash).To(Equal("hashed:secret123"))
		})

		It("rejects a new password bcrypt cannot hold", func() {
			err := service.ChangePassword(ctx, existing.ID, user.ChangePasswordDTO{OldPassword: "secret123", NewPassword: strings.Repeat("密", 30)})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
			Expect(appErr.GetDetailedMessage()).To(Equal("new_password must not exceed 72 bytes"))
			Expect(repo.users[existing.ID].PasswordHash).To(Equal("hashed:secret123"))
		})
	})

	Describe("List", func() {
		It("normalizes paging and trims filters", func() {
			repo.add(&user.User{Username: "a"})
			repo.add(&user.User{Username: "b"})

			result, err := service.List(ctx, user.ListQuery{Username: "  a ", Page: 0, PageSize: 1000})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Total).To(Equal(int64(2)))
			Expect(result.Page).To(Equal(1))
			Expect(result.PageSize).To(Equal(100))
			Expect(repo.lastFilter.Username).To(Equal("a"))
			Expect(repo.lastFilter.Offset).To(Equal(0))
			Expect(repo.lastFilter.Limit).To(Equal(100))
		})

		It("computes the offset from the page", func() {
			_, err := service.List(ctx, user.ListQuery{Page: 3, PageSize: 20})

			Expect(err).NotTo(HaveOccurred())
			Expect(repo.lastFilter.Offset).To(Equal(40))
		})

		It("wraps store failures", func() {
			repo.failWith = errors.New("boom")

			_, err := service.List(ctx, user.ListQuery{})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(strings.Contains(appErr.Error(), "failed to list users")).To(BeTrue())
		})
	})
})
