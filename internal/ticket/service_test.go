package ticket_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	apperrors "github.com/frahmantamala/pos-helpdesk/internal"
	stationDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/station"
	ticketDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/ticket"
	userDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/user"
	"github.com/frahmantamala/pos-helpdesk/internal/core/events"
	"github.com/frahmantamala/pos-helpdesk/internal/export"
	stationPostgres "github.com/frahmantamala/pos-helpdesk/internal/station/postgres"
	"github.com/frahmantamala/pos-helpdesk/internal/ticket"
	ticketPostgres "github.com/frahmantamala/pos-helpdesk/internal/ticket/postgres"
	userPostgres "github.com/frahmantamala/pos-helpdesk/internal/user/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type fakeNotifier struct {
	mu    sync.Mutex
	err   error
	kinds []ticket.NotifyKind
}

func (n *fakeNotifier) NotifyTicket(_ context.Context, kind ticket.NotifyKind, _ *ticket.Ticket) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
	return n.err
}

type recordingPublisher struct {
	mu    sync.Mutex
	types []string
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, e.EventType())
	return nil
}

func openTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	Expect(err).NotTo(HaveOccurred())
	sqlDB, err := db.DB()
	Expect(err).NotTo(HaveOccurred())
	sqlDB.SetMaxOpenConns(1)

	Expect(db.AutoMigrate(
		&stationDatamodel.Station{},
		&userDatamodel.User{},
		&ticketDatamodel.Ticket{},
		&ticketDatamodel.History{},
		&ticketDatamodel.Image{},
		&ticketDatamodel.CodeCounter{},
	)).To(Succeed())
	return db
}

var _ = Describe("Ticket Service", func() {
	var (
		ctx       context.Context
		db        *gorm.DB
		repo      *ticketPostgres.TicketRepository
		service   *ticket.Service
		notifier  *fakeNotifier
		publisher *recordingPublisher
		uploadDir string
		now       time.Time
		admin     ticket.Actor
		agent     ticket.Actor
	)

	validDTO := func() ticket.CreateTicketDTO {
		return ticket.CreateTicketDTO{
			StationID:        "s1",
			IssueCategory:    "PTT_Digital",
			IssueType:        "software",
			IssueDescription: "EDC cannot print receipt",
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		db = openTestDB()
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		Expect(db.Create(&stationDatamodel.Station{Code: "S1", Name: "SPBU Sudirman", StationType: "COCO", Province: "DKI Jakarta"}).Error).To(Succeed())
		Expect(db.Create(&userDatamodel.User{ID: 1, Name: "Admin User", Email: "admin@example.com", PasswordHash: "x", RoleID: 1461}).Error).To(Succeed())
		Expect(db.Create(&userDatamodel.User{ID: 2, Name: "Tech Support", Email: "tech@example.com", PasswordHash: "x", RoleID: 2}).Error).To(Succeed())

		now = time.Date(2024, 10, 19, 10, 0, 0, 0, time.UTC)
		admin = ticket.Actor{ID: 1, IsAdmin: true}
		agent = ticket.Actor{ID: 2}
		notifier = &fakeNotifier{}
		publisher = &recordingPublisher{}
		uploadDir = GinkgoT().TempDir()

		repo = ticketPostgres.NewTicketRepository(db)
		service = ticket.NewService(
			repo,
			stationPostgres.NewStationRepository(db),
			userPostgres.NewUserRepository(db),
			slogger,
			ticket.WithNotifier(notifier),
			ticket.WithPublisher(publisher),
			ticket.WithImageStore(ticket.NewDiskImageStore(uploadDir), 1024),
			ticket.WithAlertTimeout(time.Second),
			ticket.WithClock(func() time.Time { return now }),
		)
	})

	Describe("Create", func() {
		It("opens a ticket with only ticket_open set and a station snapshot", func() {
			result, err := service.Create(ctx, admin, validDTO())
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Message).To(Equal(ticket.MessageCreated))
			Expect(result.Notification).To(Equal(&ticket.Notification{Sent: true}))

			t := result.Ticket
			Expect(t.Code).To(Equal("POS2410000001"))
			Expect(t.Status).To(Equal(ticket.StatusOpen))
			Expect(t.OpenedAt.Equal(now)).To(BeTrue())
			Expect(t.OnHoldAt).To(BeNil())
			Expect(t.InProgressAt).To(BeNil())
			Expect(t.PendingVendorAt).To(BeNil())
			Expect(t.ClosedAt).To(BeNil())
			Expect(t.StationID).To(Equal("S1"))
			Expect(t.StationName).To(Equal("SPBU Sudirman"))
			Expect(t.IssueType).To(Equal("Software"))
			Expect(t.IssueTypeID).To(Equal(1))
			Expect(*t.CreatorName).To(Equal("Admin User"))
			Expect(t.Version).To(Equal(int64(1)))

			Expect(notifier.kinds).To(Equal([]ticket.NotifyKind{ticket.NotifyCreated}))
			Expect(publisher.types).To(Equal([]string{events.EventTypeTicketCreated}))
		})

		It("numbers tickets per month", func() {
			first, err := service.Create(ctx, admin, validDTO())
			Expect(err).NotTo(HaveOccurred())
			second, err := service.Create(ctx, admin, validDTO())
			Expect(err).NotTo(HaveOccurred())

			now = time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
			third, err := service.Create(ctx, admin, validDTO())
			Expect(err).NotTo(HaveOccurred())

			Expect(first.Ticket.Code).To(Equal("POS2410000001"))
			Expect(second.Ticket.Code).To(Equal("POS2410000002"))
			Expect(third.Ticket.Code).To(Equal("POS2411000001"))
		})

		It("keeps the ticket when the alert fails", func() {
			notifier.err = errors.New("telegram: chat not found")

			result, err := service.Create(ctx, admin, validDTO())
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Message).To(Equal("ticket created, but alert not sent"))
			Expect(result.Notification.Sent).To(BeFalse())
			Expect(result.Notification.Error).To(ContainSubstring("chat not found"))

			tickets, err := service.List(ctx, ticket.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(tickets).To(HaveLen(1))
		})

		It("strips markup from the description", func() {
			dto := validDTO()
			dto.IssueDescription = "<b>EDC</b> rusak & mati<script>alert(1)</script>"

			result, err := service.Create(ctx, admin, dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Ticket.IssueDescription).To(Equal("EDC rusak & mati"))
		})

		It("does not revive entity-encoded markup", func() {
			dto := validDTO()
			dto.IssueDescription = "&lt;img src=x onerror=alert(1)&gt; pump down"
			dto.Comment = strp("&amp;lt;script&amp;gt;alert(1)&amp;lt;/script&amp;gt;tank 3 & 4")

			result, err := service.Create(ctx, admin, dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Ticket.IssueDescription).NotTo(ContainSubstring("<img"))
			Expect(result.Ticket.IssueDescription).To(Equal("pump down"))
			Expect(*result.Ticket.Comment).NotTo(ContainSubstring("<script"))
			Expect(*result.Ticket.Comment).To(Equal("tank 3 & 4"))
		})

		DescribeTable("validates before writing",
			func(mutate func(*ticket.CreateTicketDTO)) {
				dto := validDTO()
				mutate(&dto)
				_, err := service.Create(ctx, admin, dto)

				appErr, ok := apperrors.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(apperrors.ErrorTypeValidation))

				var count int64
				Expect(db.Model(&ticketDatamodel.Ticket{}).Count(&count).Error).To(Succeed())
				Expect(count).To(BeZero())
			},
			Entry("unknown station", func(d *ticket.CreateTicketDTO) { d.StationID = "S404" }),
			Entry("unknown category", func(d *ticket.CreateTicketDTO) { d.IssueCategory = "Internal" }),
			Entry("unknown issue type", func(d *ticket.CreateTicketDTO) { d.IssueType = "Printer" }),
			Entry("missing description", func(d *ticket.CreateTicketDTO) { d.IssueDescription = "  " }),
			Entry("description too long", func(d *ticket.CreateTicketDTO) { d.IssueDescription = strings.Repeat("x", 1001) }),
			Entry("unknown assignee", func(d *ticket.CreateTicketDTO) { d.AssigneeID = int64p(99) }),
			Entry("comment too long", func(d *ticket.CreateTicketDTO) { d.Comment = strp(strings.Repeat("x", 1001)) }),
		)
	})

	Describe("status changes", func() {
		var created *ticket.Ticket

		BeforeEach(func() {
			result, err := service.Create(ctx, admin, validDTO())
			Expect(err).NotTo(HaveOccurred())
			created = result.Ticket
		})

		It("closes a ticket and keeps ticket_open", func() {
			now = now.Add(2 * time.Hour)
			result, err := service.ChangeStatus(ctx, agent, created.ID, ticket.StatusDTO{Status: "Close", Comment: strp("fixed")})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Message).To(Equal(ticket.MessageUpdated))

			stored, err := service.Get(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(ticket.StatusClose))
			Expect(stored.OpenedAt.Equal(created.OpenedAt)).To(BeTrue())
			Expect(stored.ClosedAt).NotTo(BeNil())
			Expect(stored.ClosedAt.Equal(now)).To(BeTrue())
			Expect(stored.Version).To(Equal(int64(2)))
			Expect(*stored.Comment).To(Equal("fixed"))

			history, err := service.History(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(history.History).To(HaveLen(2))
			Expect(history.History[1].Action).To(Equal(ticket.ActionStatus))
			Expect(*history.History[1].FromStatus).To(Equal("open"))
			Expect(*history.History[1].ToStatus).To(Equal("close"))
		})

		It("clears the previous status timestamp in storage", func() {
			_, err := service.ChangeStatus(ctx, agent, created.ID, ticket.StatusDTO{Status: "in_progress"})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.ChangeStatus(ctx, agent, created.ID, ticket.StatusDTO{Status: "on_hold"})
			Expect(err).NotTo(HaveOccurred())

			stored, err := service.Get(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.InProgressAt).To(BeNil())
			Expect(stored.OnHoldAt).NotTo(BeNil())
		})

		It("refuses to move a closed ticket", func() {
			_, err := service.ChangeStatus(ctx, agent, created.ID, ticket.StatusDTO{Status: "close"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.ChangeStatus(ctx, agent, created.ID, ticket.StatusDTO{Status: "in progress"})
			Expect(err).To(MatchError(ticket.ErrTicketClosed))
		})

		It("rejects a stale version", func() {
			_, err := service.ChangeStatus(ctx, agent, created.ID, ticket.StatusDTO{Status: "on_hold", Version: 7})
			Expect(err).To(MatchError(apperrors.ErrVersionConflict))
		})

		It("detects a concurrent write at the repository", func() {
			row := ticket.ToDataModel(created)
			row.Version = 2
			Expect(repo.Update(ctx, row, 1, nil)).To(Succeed())

			row.Version = 3
			err := repo.Update(ctx, row, 1, nil)
			Expect(err).To(MatchError(apperrors.ErrVersionConflict))

			row.ID = 999
			Expect(repo.Update(ctx, row, 1, nil)).To(MatchError(ticket.ErrTicketNotFound))
		})

		It("returns not found for a missing ticket", func() {
			_, err := service.ChangeStatus(ctx, agent, 999, ticket.StatusDTO{Status: "close"})
			Expect(err).To(MatchError(ticket.ErrTicketNotFound))
		})

		It("alerts on a status change", func() {
			_, err := service.ChangeStatus(ctx, agent, created.ID, ticket.StatusDTO{Status: "in_progress"})
			Expect(err).NotTo(HaveOccurred())
			Expect(notifier.kinds).To(ContainElement(ticket.NotifyStatus))
		})

		It("keeps the status change when the alert fails", func() {
			notifier.err = errors.New("telegram: bot was blocked")

			result, err := service.ChangeStatus(ctx, agent, created.ID, ticket.StatusDTO{Status: "on_hold"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Message).To(Equal(ticket.MessageUpdatedNoAlert))
			Expect(result.Notification.Sent).To(BeFalse())
			Expect(result.Notification.Error).To(ContainSubstring("bot was blocked"))

			stored, err := service.Get(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(ticket.StatusOnHold))
		})

		It("rejects an oversized comment", func() {
			_, err := service.ChangeStatus(ctx, agent, created.ID, ticket.StatusDTO{Status: "close", Comment: strp(strings.Repeat("x", 1001))})
			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(apperrors.ErrorTypeValidation))

			stored, err := service.Get(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(ticket.StatusOpen))
		})

		It("accepts a comment at the length limit", func() {
			comment := strings.Repeat("x", ticket.MaxDescriptionLength)
			_, err := service.ChangeStatus(ctx, agent, created.ID, ticket.StatusDTO{Status: "close", Comment: &comment})
			Expect(err).NotTo(HaveOccurred())

			stored, err := service.Get(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(*stored.Comment).To(HaveLen(ticket.MaxDescriptionLength))
		})
	})

	Describe("Assign", func() {
		It("assigns an existing user and alerts", func() {
			created, err := service.Create(ctx, admin, validDTO())
			Expect(err).NotTo(HaveOccurred())

			result, err := service.Assign(ctx, admin, created.Ticket.ID, ticket.AssignDTO{AssigneeID: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(*result.Ticket.AssigneeID).To(Equal(int64(2)))
			Expect(*result.Ticket.AssigneeName).To(Equal("Tech Support"))
			Expect(notifier.kinds).To(ContainElement(ticket.NotifyAssigned))
		})

		It("reports a failed alert on reassignment", func() {
			created, err := service.Create(ctx, admin, validDTO())
			Expect(err).NotTo(HaveOccurred())
			notifier.err = errors.New("smtp timeout")

			result, err := service.Assign(ctx, admin, created.Ticket.ID, ticket.AssignDTO{AssigneeID: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Message).To(Equal("ticket updated, but alert not sent"))
			Expect(result.Notification.Sent).To(BeFalse())
		})

		It("rejects unknown users", func() {
			created, err := service.Create(ctx, admin, validDTO())
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Assign(ctx, admin, created.Ticket.ID, ticket.AssignDTO{AssigneeID: 42})
			Expect(err).To(MatchError(ticket.ErrUnknownAssignee))
		})
	})

	Describe("Reopen", func() {
		var id int64

		BeforeEach(func() {
			created, err := service.Create(ctx, admin, validDTO())
			Expect(err).NotTo(HaveOccurred())
			id = created.Ticket.ID
			_, err = service.ChangeStatus(ctx, agent, id, ticket.StatusDTO{Status: "close"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("is reserved for administrators", func() {
			_, err := service.Reopen(ctx, agent, id, ticket.ReopenDTO{Reason: "customer called back"})
			Expect(err).To(MatchError(apperrors.ErrAdminRequired))
		})

		It("requires a reason", func() {
			_, err := service.Reopen(ctx, admin, id, ticket.ReopenDTO{})
			Expect(err).To(HaveOccurred())
		})

		It("reopens and records the reason", func() {
			result, err := service.Reopen(ctx, admin, id, ticket.ReopenDTO{Reason: "customer called back"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Ticket.Status).To(Equal(ticket.StatusOpen))
			Expect(result.Ticket.ClosedAt).To(BeNil())

			history, err := service.History(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			last := history.History[len(history.History)-1]
			Expect(last.Action).To(Equal(ticket.ActionReopened))
			Expect(*last.Note).To(Equal("customer called back"))
		})

		It("alerts on reopen and reports a failed alert", func() {
			notifier.err = errors.New("smtp timeout")

			result, err := service.Reopen(ctx, admin, id, ticket.ReopenDTO{Reason: "customer called back"})
			Expect(err).NotTo(HaveOccurred())
			Expect(notifier.kinds).To(ContainElement(ticket.NotifyReopened))
			Expect(result.Message).To(Equal(ticket.MessageUpdatedNoAlert))
			Expect(result.Notification.Sent).To(BeFalse())

			stored, err := service.Get(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(ticket.StatusOpen))
		})
	})

	Describe("Update", func() {
		It("edits descriptive fields and bumps the version", func() {
			created, err := service.Create(ctx, admin, validDTO())
			Expect(err).NotTo(HaveOccurred())

			updated, err := service.Update(ctx, agent, created.Ticket.ID, ticket.UpdateTicketDTO{
				IssueType: strp("Network"),
				Comment:   strp("checked router"),
				Version:   1,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.IssueType).To(Equal("Network"))
			Expect(updated.IssueTypeID).To(Equal(5))
			Expect(updated.Version).To(Equal(int64(2)))
			Expect(updated.Code).To(Equal(created.Ticket.Code))
		})

		It("rejects an oversized comment without alerting", func() {
			created, err := service.Create(ctx, admin, validDTO())
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Update(ctx, agent, created.Ticket.ID, ticket.UpdateTicketDTO{Comment: strp(strings.Repeat("y", 1001))})
			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(apperrors.ErrorTypeValidation))
			Expect(notifier.kinds).To(Equal([]ticket.NotifyKind{ticket.NotifyCreated}))
		})
	})

	Describe("images", func() {
		var id int64

		BeforeEach(func() {
			created, err := service.Create(ctx, admin, validDTO())
			Expect(err).NotTo(HaveOccurred())
			id = created.Ticket.ID
		})

		It("stores png uploads", func() {
			img, err := service.AddImage(ctx, agent, id, "receipt.png", pngHeader)
			Expect(err).NotTo(HaveOccurred())
			Expect(img.ContentType).To(Equal("image/png"))
			Expect(img.Path).To(HavePrefix(uploadDir))
			Expect(img.Path).To(BeAnExistingFile())

			t, err := service.Get(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(t.Images).To(HaveLen(1))
		})

		It("rejects other content types", func() {
			_, err := service.AddImage(ctx, agent, id, "notes.txt", []byte("just some text"))
			Expect(err).To(MatchError(ticket.ErrImageType))
		})

		It("rejects files over the limit", func() {
			big := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 2048)...)
			_, err := service.AddImage(ctx, agent, id, "big.png", big)
			Expect(err).To(MatchError(ticket.ErrImageTooLarge))
		})

		It("removes images with the ticket", func() {
			img, err := service.AddImage(ctx, agent, id, "receipt.png", pngHeader)
			Expect(err).NotTo(HaveOccurred())

			Expect(service.Delete(ctx, admin, id)).To(Succeed())
			_, err = service.Get(ctx, id)
			Expect(err).To(MatchError(ticket.ErrTicketNotFound))
			Expect(img.Path).NotTo(BeAnExistingFile())

			var count int64
			Expect(db.Model(&ticketDatamodel.History{}).Where("ticket_id = ?", id).Count(&count).Error).To(Succeed())
			Expect(count).To(BeZero())
			Expect(publisher.types).To(ContainElement(events.EventTypeTicketDeleted))
		})
	})

	Describe("Track", func() {
		It("finds a ticket by code with its history", func() {
			created, err := service.Create(ctx, admin, validDTO())
			Expect(err).NotTo(HaveOccurred())

			tracked, err := service.Track(ctx, strings.ToLower(created.Ticket.Code))
			Expect(err).NotTo(HaveOccurred())
			Expect(tracked.Ticket.ID).To(Equal(created.Ticket.ID))
			Expect(tracked.History).To(HaveLen(1))
		})

		It("rejects malformed codes", func() {
			_, err := service.Track(ctx, "TICKET-1")
			Expect(err).To(MatchError(ticket.ErrInvalidCode))
		})

		It("returns not found for unknown codes", func() {
			_, err := service.Track(ctx, "POS2410999999")
			Expect(err).To(MatchError(ticket.ErrTicketNotFound))
		})
	})

	Describe("Export", func() {
		BeforeEach(func() {
			_, err := service.Create(ctx, admin, validDTO())
			Expect(err).NotTo(HaveOccurred())

			dto := validDTO()
			dto.IssueDescription = "Dispenser, nozzle \"3\" stuck"
			dto.IssueType = "Dispenser"
			dto.Comment = strp("line one\nline two")
			dto.AssigneeID = int64p(2)
			second, err := service.Create(ctx, admin, dto)
			Expect(err).NotTo(HaveOccurred())

			now = now.Add(90 * time.Minute)
			_, err = service.ChangeStatus(ctx, agent, second.Ticket.ID, ticket.StatusDTO{Status: "close"})
			Expect(err).NotTo(HaveOccurred())
		})

		DescribeTable("round-trips field values",
			func(format export.Format, read func(io.Reader) (export.Table, error)) {
				tickets, err := service.List(ctx, ticket.Filter{})
				Expect(err).NotTo(HaveOccurred())
				expected := ticket.ExportTable(tickets)

				file, err := service.Export(ctx, ticket.Filter{}, format)
				Expect(err).NotTo(HaveOccurred())
				Expect(file.Filename).To(HavePrefix("tickets_"))
				Expect(file.Filename).To(HaveSuffix("." + string(format)))

				parsed, err := read(bytes.NewReader(file.Data))
				Expect(err).NotTo(HaveOccurred())
				Expect(parsed.Headers).To(Equal(ticket.ExportHeaders))
				Expect(parsed.Rows).To(Equal(expected.Rows))

				closed := parsed.Rows[0]
				Expect(closed[8]).To(Equal("close"))
				Expect(closed[9]).To(Equal("Tech Support"))
				Expect(closed[10]).To(Equal("2024-10-19 10:00:00"))
				Expect(closed[14]).To(Equal("2024-10-19 11:30:00"))
			},
			Entry("csv", export.FormatCSV, export.ReadCSV),
			Entry("xlsx", export.FormatXLSX, export.ReadXLSX),
		)

		It("exports only filtered tickets", func() {
			file, err := service.Export(ctx, ticket.Filter{Status: ticket.StatusOpen}, export.FormatCSV)
			Expect(err).NotTo(HaveOccurred())

			parsed, err := export.ReadCSV(bytes.NewReader(file.Data))
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed.Rows).To(HaveLen(1))
			Expect(parsed.Rows[0][8]).To(Equal("open"))
		})
	})
})
