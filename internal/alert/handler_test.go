package alert_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"

	"github.com/frahmantamala/pos-helpdesk/internal/alert"
	alertPostgres "github.com/frahmantamala/pos-helpdesk/internal/alert/postgres"
	alertDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/alert"
	"github.com/frahmantamala/pos-helpdesk/internal/ticket"
	"github.com/frahmantamala/pos-helpdesk/internal/transport"
	userPostgres "github.com/frahmantamala/pos-helpdesk/internal/user/postgres"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

type ticketsByID map[int64]*ticket.Ticket

func (t ticketsByID) Get(_ context.Context, id int64) (*ticket.Ticket, error) {
	if tk, ok := t[id]; ok {
		return tk, nil
	}
	return nil, ticket.ErrTicketNotFound
}

var _ = Describe("Alert Handler", func() {
	var (
		db       *gorm.DB
		repo     *alertPostgres.AlertRepository
		telegram *fakeSender
		email    *fakeSender
		router   *chi.Mux
		assignee int64
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		db = openTestDB()
		repo = alertPostgres.NewAlertRepository(db)
		telegram = &fakeSender{platform: alert.PlatformTelegram}
		email = &fakeSender{platform: alert.PlatformEmail}

		assignee = createUser(db, "Budi", "budi@example.com").ID
		users := userPostgres.NewUserRepository(db)
		dispatcher := alert.NewDispatcher(repo, nil, logger, telegram, email)
		notifier := alert.NewTicketNotifier(dispatcher, users, repo, -1, logger)
		tickets := ticketsByID{42: sampleTicket(&assignee)}

		service := alert.NewService(repo, dispatcher, notifier, tickets, users, logger)
		handler := alert.NewHandler(transport.NewBaseHandler(logger), service)

		router = chi.NewRouter()
		router.Post("/alert_bot", handler.SendAlert)
		router.Get("/alert_logs", handler.GetLogs)
		router.Get("/telegram_groups", handler.GetGroups)
		router.Post("/telegram_groups", handler.CreateGroup)
		router.Post("/telegram_groups/{id}/members", handler.AddGroupMember)
		router.Delete("/telegram_groups/{id}/members/{userID}", handler.RemoveGroupMember)
	})

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	decode := func(rec *httptest.ResponseRecorder) map[string]interface{} {
		var out map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &out)).To(Succeed())
		return out
	}

	Describe("POST /alert_bot", func() {
		It("sends a manual telegram alert with the extra message", func() {
			rec := do(http.MethodPost, "/alert_bot", map[string]interface{}{
				"platform":  "telegram",
				"ticket_id": 42,
				"message":   "please check today",
			})

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decode(rec)["message"]).To(Equal(alert.MessageAlertSent))
			Expect(telegram.count()).To(Equal(1))
			Expect(telegram.messages[0].Address).To(Equal("-1"))
			Expect(telegram.messages[0].Body).To(HavePrefix("please check today\n\n"))
			Expect(email.count()).To(BeZero())
		})

		It("sends to the assignee over gmail", func() {
			rec := do(http.MethodPost, "/alert_bot", map[string]interface{}{"platform": "gmail", "ticket_id": 42})

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(email.count()).To(Equal(1))
			Expect(email.messages[0].Address).To(Equal("budi@example.com"))
		})

		It("rejects an unknown platform", func() {
			rec := do(http.MethodPost, "/alert_bot", map[string]interface{}{"platform": "sms", "ticket_id": 42})

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			body := decode(rec)
			Expect(body["kind"]).To(Equal("VALIDATION_ERROR"))
			Expect(rec.Body.String()).To(ContainSubstring("INVALID_PLATFORM"))
		})

		It("returns 404 for an unknown ticket", func() {
			rec := do(http.MethodPost, "/alert_bot", map[string]interface{}{"platform": "telegram", "ticket_id": 7})
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 502 and logs the attempt when delivery fails", func() {
			telegram.setErr(errUnreachable)

			rec := do(http.MethodPost, "/alert_bot", map[string]interface{}{"platform": "telegram", "ticket_id": 42})
			Expect(rec.Code).To(Equal(http.StatusBadGateway))
			Expect(decode(rec)["code"]).To(Equal("NOTIFICATION_FAILED"))

			rec = do(http.MethodGet, "/alert_logs?ticket_id=42", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			var logs alert.LogsResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &logs)).To(Succeed())
			Expect(logs.Logs).To(HaveLen(1))
			Expect(logs.Logs[0].Status).To(Equal(alert.StatusFailed))
		})

		It("rejects a malformed ticket filter on the log list", func() {
			rec := do(http.MethodGet, "/alert_logs?ticket_id=abc", nil)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("telegram groups", func() {
		It("creates a group, adds and removes members", func() {
			rec := do(http.MethodPost, "/telegram_groups", map[string]interface{}{"name": "Jakarta", "chat_id": -100500})
			Expect(rec.Code).To(Equal(http.StatusCreated))
			var group alert.Group
			Expect(json.Unmarshal(rec.Body.Bytes(), &group)).To(Succeed())
			Expect(group.ChatID).To(Equal(int64(-100500)))
			Expect(group.Members).To(BeEmpty())

			path := "/telegram_groups/" + strconv.FormatInt(group.ID, 10) + "/members"
			rec = do(http.MethodPost, path, map[string]interface{}{"users_id": assignee})
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(json.Unmarshal(rec.Body.Bytes(), &group)).To(Succeed())
			Expect(group.Members).To(Equal([]int64{assignee}))

			rec = do(http.MethodGet, "/telegram_groups", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			var list alert.GroupsResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &list)).To(Succeed())
			Expect(list.Groups).To(HaveLen(1))
			Expect(list.Groups[0].Members).To(Equal([]int64{assignee}))

			rec = do(http.MethodDelete, path+"/"+strconv.FormatInt(assignee, 10), nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(json.Unmarshal(rec.Body.Bytes(), &group)).To(Succeed())
			Expect(group.Members).To(BeEmpty())
		})

		It("routes the assignee's alerts to their group", func() {
			g := &alertDatamodel.TelegramGroup{Name: "Jakarta", ChatID: -100600}
			Expect(repo.CreateGroup(context.Background(), g)).To(Succeed())
			rec := do(http.MethodPost, "/telegram_groups/"+strconv.FormatInt(g.ID, 10)+"/members", map[string]interface{}{"users_id": assignee})
			Expect(rec.Code).To(Equal(http.StatusOK))

			rec = do(http.MethodPost, "/alert_bot", map[string]interface{}{"platform": "telegram", "ticket_id": 42})
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(telegram.messages[0].Address).To(Equal("-100600"))
		})

		It("refuses a chat that is already registered", func() {
			Expect(do(http.MethodPost, "/telegram_groups", map[string]interface{}{"name": "A", "chat_id": 9}).Code).To(Equal(http.StatusCreated))

			rec := do(http.MethodPost, "/telegram_groups", map[string]interface{}{"name": "B", "chat_id": 9})
			Expect(rec.Code).To(Equal(http.StatusConflict))
			Expect(decode(rec)["code"]).To(Equal("DUPLICATE_CHAT"))
		})

		It("validates the group body", func() {
			rec := do(http.MethodPost, "/telegram_groups", map[string]interface{}{"name": ""})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(rec.Body.String()).To(ContainSubstring("chat_id"))
		})

		It("returns 404 for unknown groups and users", func() {
			rec := do(http.MethodPost, "/telegram_groups/77/members", map[string]interface{}{"users_id": assignee})
			Expect(rec.Code).To(Equal(http.StatusNotFound))

			g := &alertDatamodel.TelegramGroup{Name: "Jakarta", ChatID: 1}
			Expect(repo.CreateGroup(context.Background(), g)).To(Succeed())
			rec = do(http.MethodPost, "/telegram_groups/"+strconv.FormatInt(g.ID, 10)+"/members", map[string]interface{}{"users_id": 999})
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})
})
