package leave_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/leave"
)

var _ = Describe("Handler", func() {
	var (
		router http.Handler
		repo   *memoryRepository
		now    time.Time

		member *auth.User
		admin  *auth.User
	)

	serve := func(method, path string, body interface{}, user *auth.User) *httptest.ResponseRecorder {
		var reader io.Reader = http.NoBody
		if body != nil {
			raw, err := json.Marshal(body)
			Expect(err).NotTo(HaveOccurred())
			reader = bytes.NewReader(raw)
		}
		req := httptest.NewRequest(method, path, reader)
		if user != nil {
			req = req.WithContext(auth.WithUser(req.Context(), user))
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	decode := func(rec *httptest.ResponseRecorder) map[string]interface{} {
		var out map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &out)).To(Succeed())
		return out
	}

	errorCode := func(rec *httptest.ResponseRecorder) interface{} {
		return decode(rec)["error"].(map[string]interface{})["code"]
	}

	BeforeEach(func() {
		now = time.Date(2025, time.June, 4, 9, 0, 0, 0, time.UTC)
		repo = newMemoryRepository()
		directory := &memoryDirectory{createdAt: map[int64]time.Time{
			7: now.AddDate(0, 0, -365),
			1: now.AddDate(-2, 0, 0),
		}}
		quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
		service := leave.NewService(repo, directory, nil, quiet, leave.WithClock(func() time.Time { return now }))

		h := leave.NewHandler(service)
		h.Logger = quiet

		r := chi.NewRouter()
		r.Get("/leaves", h.GetHistory)
		r.Post("/leaves", h.Apply)
		r.Get("/leaves/balance", h.GetMyBalance)
		r.Get("/leaves/pending", h.GetPending)
		r.Patch("/leaves/{id}/approve", h.Approve)
		r.Patch("/leaves/{id}/reject", h.Reject)
		r.Get("/accounts/{id}/leave-balance", h.GetAccountBalance)
		r.Post("/accounts/{id}/leave-balance/recalculate", h.Recalculate)
		router = r

		member = &auth.User{ID: 7, Email: "member@example.com"}
		admin = &auth.User{ID: 1, Email: "admin@example.com", Permissions: []string{auth.PermissionAdmin}}
	})

	apply := map[string]string{
		"leave_type": "casual",
		"from_date":  "2025-06-09",
		"to_date":    "2025-06-11",
		"reason":     "family trip out of town",
	}

	It("returns the caller's balance with two decimal casual days", func() {
		rec := serve(http.MethodGet, "/leaves/balance", nil, member)

		Expect(rec.Code).To(Equal(http.StatusOK))
		body := decode(rec)
		Expect(body["casual_leave_balance"]).To(Equal("11.00"))
		Expect(body["medical_leave_balance"]).To(BeEquivalentTo(12))
	})

	It("creates a request and lists it in history", func() {
		rec := serve(http.MethodPost, "/leaves", apply, member)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		created := decode(rec)
		Expect(created["status"]).To(Equal("pending"))
		Expect(created["from_date"]).To(Equal("2025-06-09"))
		Expect(created["total_days"]).To(BeEquivalentTo(3))

		rec = serve(http.MethodGet, "/leaves", nil, member)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(decode(rec)["total"]).To(BeEquivalentTo(1))
	})

	It("rejects unknown body fields", func() {
		body := map[string]string{"leave_type": "casual", "days": "3"}

		rec := serve(http.MethodPost, "/leaves", body, member)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(errorCode(rec)).To(Equal("INVALID_REQUEST_BODY"))
	})

	It("maps a weekend range to EMPTY_DATE_RANGE", func() {
		body := map[string]string{
			"leave_type": "casual",
			"from_date":  "2025-06-07",
			"to_date":    "2025-06-08",
			"reason":     "a long weekend away",
		}

		rec := serve(http.MethodPost, "/leaves", body, member)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(errorCode(rec)).To(Equal("EMPTY_DATE_RANGE"))
	})

	It("reports insufficient balance with the amounts", func() {
		body := map[string]string{
			"leave_type": "casual",
			"from_date":  "2025-06-02",
			"to_date":    "2025-06-20",
			"reason":     "three weeks of travel",
		}

		rec := serve(http.MethodPost, "/leaves", body, member)

		Expect(rec.Code).To(Equal(http.StatusUnprocessableEntity))
		errBody := decode(rec)["error"].(map[string]interface{})
		Expect(errBody["code"]).To(Equal("INSUFFICIENT_BALANCE"))
		details := errBody["details"].(map[string]interface{})
		Expect(details["available"]).To(Equal("11.00"))
		Expect(details["requested"]).To(BeEquivalentTo(15))
	})

	It("approves once and answers 409 afterwards", func() {
		rec := serve(http.MethodPost, "/leaves", apply, member)
		Expect(rec.Code).To(Equal(http.StatusCreated))

		rec = serve(http.MethodPatch, "/leaves/1/approve", nil, admin)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(decode(rec)["status"]).To(Equal("approved"))

		rec = serve(http.MethodPatch, "/leaves/1/reject", nil, admin)
		Expect(rec.Code).To(Equal(http.StatusConflict))
		Expect(errorCode(rec)).To(Equal("ALREADY_PROCESSED"))

		rec = serve(http.MethodGet, "/accounts/7/leave-balance", nil, admin)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(decode(rec)["casual_leave_balance"]).To(Equal("8.00"))
	})

	It("forbids members from approving", func() {
		serve(http.MethodPost, "/leaves", apply, member)

		rec := serve(http.MethodPatch, "/leaves/1/approve", nil, member)

		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(errorCode(rec)).To(Equal("UNAUTHORIZED_ACCESS"))
	})

	It("answers 404 for unknown requests", func() {
		rec := serve(http.MethodPatch, "/leaves/42/reject", nil, admin)

		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(errorCode(rec)).To(Equal("LEAVE_REQUEST_NOT_FOUND"))
	})

	It("validates path ids", func() {
		rec := serve(http.MethodPatch, "/leaves/abc/approve", nil, admin)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(errorCode(rec)).To(Equal("VALIDATION_FAILED"))
	})

	It("validates the account_id query", func() {
		rec := serve(http.MethodGet, "/leaves?account_id=-3", nil, admin)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("lists pending requests for admins only", func() {
		serve(http.MethodPost, "/leaves", apply, member)

		rec := serve(http.MethodGet, "/leaves/pending", nil, admin)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(decode(rec)["total"]).To(BeEquivalentTo(1))

		rec = serve(http.MethodGet, "/leaves/pending", nil, member)
		Expect(rec.Code).To(Equal(http.StatusForbidden))
	})

	It("recalculates an account's casual balance", func() {
		repo.seedRequest(leave.Request{
			AccountID: 7,
			LeaveType: leave.TypeCasual,
			TotalDays: 2,
			Status:    leave.StatusApproved,
			CreatedAt: now.AddDate(0, -1, 0),
		})

		rec := serve(http.MethodPost, "/accounts/7/leave-balance/recalculate", nil, admin)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(decode(rec)["casual_leave_balance"]).To(Equal("9.00"))
	})

	It("refuses another account's balance to a member", func() {
		rec := serve(http.MethodGet, "/accounts/1/leave-balance", nil, member)

		Expect(rec.Code).To(Equal(http.StatusForbidden))
	})
})
