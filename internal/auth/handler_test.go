package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = ginkgo.Describe("Handler", func() {
	var (
		handler *Handler
		service *Service
		rbac    *RBACAuthorization
		quiet   *slog.Logger
	)

	login := func(email string) AuthTokens {
		tokens, err := service.Authenticate(context.Background(), LoginDTO{Email: email, Password: "correct_password"})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		return tokens
	}

	decodeError := func(rec *httptest.ResponseRecorder) map[string]interface{} {
		var body struct {
			Error map[string]interface{} `json:"error"`
		}
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(gomega.Succeed())
		return body.Error
	}

	ginkgo.BeforeEach(func() {
		quiet = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		tokenGen := NewJWTTokenGenerator("handler-access-secret", "handler-refresh-secret", time.Minute, time.Hour)
		service = NewService(newMockRepository(), tokenGen, bcrypt.MinCost).WithLogger(quiet)
		handler = NewHandler(service)
		handler.Logger = quiet
		rbac = NewRBACAuthorization(NewPermissionChecker(), quiet)
	})

	ginkgo.Describe("Login", func() {
		ginkgo.It("should return tokens for valid credentials", func() {
			body, _ := json.Marshal(LoginDTO{Email: "member@example.com", Password: "correct_password"})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
			rec := httptest.NewRecorder()

			handler.Login(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			var tokens AuthTokens
			gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &tokens)).To(gomega.Succeed())
			gomega.Expect(tokens.AccessToken).ToNot(gomega.BeEmpty())
		})

		ginkgo.It("should answer 401 with a code for bad credentials", func() {
			body, _ := json.Marshal(LoginDTO{Email: "member@example.com", Password: "nope"})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
			rec := httptest.NewRecorder()

			handler.Login(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(decodeError(rec)).To(gomega.HaveKeyWithValue("code", "INVALID_CREDENTIALS"))
		})

		ginkgo.It("should answer 400 for a malformed body", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString("{"))
			rec := httptest.NewRecorder()

			handler.Login(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
			gomega.Expect(decodeError(rec)).To(gomega.HaveKeyWithValue("code", "INVALID_REQUEST_BODY"))
		})
	})

	ginkgo.Describe("AuthMiddleware", func() {
		var (
			seen *User
			next http.Handler
		)

		ginkgo.BeforeEach(func() {
			seen = nil
			next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = UserFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})
		})

		ginkgo.It("should attach the user with permissions", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/leaves", nil)
			req.Header.Set("Authorization", "Bearer "+login("admin@example.com").AccessToken)
			rec := httptest.NewRecorder()

			handler.AuthMiddleware(next).ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(seen).ToNot(gomega.BeNil())
			gomega.Expect(seen.ID).To(gomega.Equal(int64(2)))
			gomega.Expect(seen.IsAdmin()).To(gomega.BeTrue())
		})

		ginkgo.It("should reject a request without a token", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/leaves", nil)
			rec := httptest.NewRecorder()

			handler.AuthMiddleware(next).ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(seen).To(gomega.BeNil())
		})

		ginkgo.It("should reject a refresh token used as access token", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/leaves", nil)
			req.Header.Set("Authorization", "Bearer "+login("member@example.com").RefreshToken)
			rec := httptest.NewRecorder()

			handler.AuthMiddleware(next).ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(decodeError(rec)).To(gomega.HaveKeyWithValue("code", "INVALID_TOKEN"))
		})
	})

	ginkgo.Describe("RequireAdmin", func() {
		var protected http.Handler

		ginkgo.BeforeEach(func() {
			protected = rbac.RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}))
		})

		ginkgo.It("should let admins through", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/leaves/pending", nil)
			req = req.WithContext(WithUser(req.Context(), &User{ID: 2, Permissions: []string{PermissionAdmin}}))
			rec := httptest.NewRecorder()

			protected.ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
		})

		ginkgo.It("should answer 403 for members", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/leaves/pending", nil)
			req = req.WithContext(WithUser(req.Context(), &User{ID: 1}))
			rec := httptest.NewRecorder()

			protected.ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
			gomega.Expect(decodeError(rec)).To(gomega.HaveKeyWithValue("code", "UNAUTHORIZED_ACCESS"))
		})

		ginkgo.It("should answer 401 without a user", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/leaves/pending", nil)
			rec := httptest.NewRecorder()

			protected.ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		})
	})

	ginkgo.Describe("Logout", func() {
		ginkgo.It("should accept a valid access token", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
			req.Header.Set("Authorization", "Bearer "+login("member@example.com").AccessToken)
			rec := httptest.NewRecorder()

			handler.Logout(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
		})
	})
})
