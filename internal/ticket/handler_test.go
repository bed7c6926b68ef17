package ticket_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/frahmantamala/pos-helpdesk/internal/auth"
	stationDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/station"
	userDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/user"
	"github.com/frahmantamala/pos-helpdesk/internal/permission"
	stationPostgres "github.com/frahmantamala/pos-helpdesk/internal/station/postgres"
	"github.com/frahmantamala/pos-helpdesk/internal/ticket"
	ticketPostgres "github.com/frahmantamala/pos-helpdesk/internal/ticket/postgres"
	"github.com/frahmantamala/pos-helpdesk/internal/transport"
	userPostgres "github.com/frahmantamala/pos-helpdesk/internal/user/postgres"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Ticket Handler", func() {
	var (
		router   *chi.Mux
		notifier *fakeNotifier
	)

	withPrincipal := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := &auth.Principal{ID: 1, Name: "Admin User", RoleID: 1461, Permissions: permission.Resolve(permission.Record{RoleID: 1461})}
			next.ServeHTTP(w, r.WithContext(auth.ContextWithPrincipal(r.Context(), p)))
		})
	}

	BeforeEach(func() {
		db := openTestDB()
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		Expect(db.Create(&stationDatamodel.Station{Code: "S1", Name: "SPBU Sudirman", Province: "DKI Jakarta"}).Error).To(Succeed())
		Expect(db.Create(&userDatamodel.User{ID: 1, Name: "Admin User", Email: "admin@example.com", PasswordHash: "x", RoleID: 1461}).Error).To(Succeed())

		notifier = &fakeNotifier{}
		service := ticket.NewService(
			ticketPostgres.NewTicketRepository(db),
			stationPostgres.NewStationRepository(db),
			userPostgres.NewUserRepository(db),
			slogger,
			ticket.WithNotifier(notifier),
			ticket.WithImageStore(ticket.NewDiskImageStore(GinkgoT().TempDir()), 0),
			ticket.WithClock(func() time.Time { return time.Date(2024, 10, 19, 10, 0, 0, 0, time.UTC) }),
		)
		handler := ticket.NewHandler(transport.NewBaseHandler(slogger), service)

		router = chi.NewRouter()
		router.Use(withPrincipal)
		router.Get("/tickets", handler.GetTickets)
		router.Post("/tickets", handler.CreateTicket)
		router.Get("/tickets/export", handler.ExportTickets)
		router.Get("/tickets/{id}", handler.GetTicket)
		router.Patch("/tickets/{id}/status", handler.ChangeStatus)
		router.Post("/tickets/{id}/reopen", handler.ReopenTicket)
		router.Post("/tickets/{id}/images", handler.UploadImage)
		router.Get("/track/{code}", handler.TrackTicket)
	})

	send := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	create := func() map[string]interface{} {
		w := send(http.MethodPost, "/tickets", map[string]interface{}{
			"station_id":        "S1",
			"issue_category":    "PTT_Digital",
			"issue_type":        "Hardware",
			"issue_description": "Printer jam",
		})
		Expect(w.Code).To(Equal(http.StatusCreated))
		var body map[string]interface{}
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		return body
	}

	It("creates a ticket and reports the alert outcome", func() {
		notifier.err = errors.New("bot blocked")
		body := create()

		Expect(body["message"]).To(Equal("ticket created, but alert not sent"))
		Expect(body["notification"]).To(HaveKeyWithValue("sent", false))
		Expect(body["ticket"]).To(HaveKeyWithValue("ticket_code", "POS2410000001"))
		Expect(body["ticket"]).To(HaveKeyWithValue("status", "open"))
		Expect(body["ticket"]).To(HaveKeyWithValue("ticket_close", BeNil()))
	})

	It("filters the list from query parameters", func() {
		create()
		send(http.MethodPatch, "/tickets/1/status", map[string]string{"status": "CLOSE"})
		create()

		w := send(http.MethodGet, "/tickets?status=open", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var resp struct {
			Tickets []ticket.Ticket `json:"tickets"`
			Total   int             `json:"total"`
		}
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Total).To(Equal(1))
		Expect(resp.Tickets[0].Code).To(Equal("POS2410000002"))
	})

	It("rejects malformed date filters", func() {
		w := send(http.MethodGet, "/tickets?open_from=yesterday", nil)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("maps illegal transitions to 409 INVALID_TRANSITION", func() {
		create()
		w := send(http.MethodPatch, "/tickets/1/status", map[string]string{"status": "open"})
		Expect(w.Code).To(Equal(http.StatusConflict))

		var body map[string]interface{}
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body["kind"]).To(Equal("INVALID_TRANSITION"))
	})

	It("serves exports as attachments", func() {
		create()
		w := send(http.MethodGet, "/tickets/export?format=csv&province=jakarta", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(HavePrefix("text/csv"))
		Expect(w.Header().Get("Content-Disposition")).To(MatchRegexp(`attachment; filename="tickets_\d{8}_\d{6}\.csv"`))
		Expect(w.Body.String()).To(ContainSubstring("POS2410000001"))

		w = send(http.MethodGet, "/tickets/export?format=doc", nil)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("accepts multipart image uploads", func() {
		create()

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("image", "receipt.png")
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write(pngHeader)
		Expect(err).NotTo(HaveOccurred())
		Expect(mw.Close()).To(Succeed())

		req := httptest.NewRequest(http.MethodPost, "/tickets/1/images", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(w.Body.String()).To(ContainSubstring(`"content_type":"image/png"`))
	})

	It("tracks a ticket by code", func() {
		create()
		w := send(http.MethodGet, "/track/POS2410000001", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"action":"created"`))
	})

	It("lets the admin principal reopen", func() {
		create()
		send(http.MethodPatch, "/tickets/1/status", map[string]string{"status": "close"})

		w := send(http.MethodPost, "/tickets/1/reopen", map[string]string{"reason": "not fixed"})
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"status":"open"`))
	})

	It("returns 404 for unknown tickets", func() {
		w := send(http.MethodGet, "/tickets/77", nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
