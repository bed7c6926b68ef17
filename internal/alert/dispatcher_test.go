package alert_test

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	apperrors "github.com/frahmantamala/pos-helpdesk/internal"
	"github.com/frahmantamala/pos-helpdesk/internal/alert"
	alertPostgres "github.com/frahmantamala/pos-helpdesk/internal/alert/postgres"
	alertDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/alert"
	"github.com/frahmantamala/pos-helpdesk/internal/core/events"
	"github.com/frahmantamala/pos-helpdesk/internal/ticket"
	userPostgres "github.com/frahmantamala/pos-helpdesk/internal/user/postgres"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"
)

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

type fakeBot struct {
	sent []tgbotapi.Chattable
	err  error
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.sent = append(b.sent, c)
	return tgbotapi.Message{MessageID: len(b.sent)}, b.err
}

type fakeDialer struct {
	messages []*gomail.Message
	err      error
	delay    time.Duration
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	time.Sleep(d.delay)
	d.messages = append(d.messages, m...)
	return d.err
}

func sampleTicket(assignee *int64) *ticket.Ticket {
	name := "Budi"
	return &ticket.Ticket{
		ID:               42,
		Code:             "POS2501000042",
		StationID:        "SPBU-01",
		StationName:      "Station One",
		Province:         "Jakarta",
		IssueCategory:    "PTT_Digital",
		IssueType:        "Network",
		IssueDescription: "EDC offline",
		AssigneeID:       assignee,
		AssigneeName:     &name,
		Status:           ticket.StatusOpen,
		OpenedAt:         time.Date(2025, 1, 10, 8, 30, 0, 0, time.UTC),
	}
}

var _ = Describe("Dispatcher", func() {
	var (
		ctx        context.Context
		db         *gorm.DB
		repo       *alertPostgres.AlertRepository
		telegram   *fakeSender
		email      *fakeSender
		publisher  *recordingPublisher
		dispatcher *alert.Dispatcher
		logger     *slog.Logger
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		db = openTestDB()
		repo = alertPostgres.NewAlertRepository(db)
		telegram = &fakeSender{platform: alert.PlatformTelegram}
		email = &fakeSender{platform: alert.PlatformEmail}
		publisher = &recordingPublisher{}
		dispatcher = alert.NewDispatcher(repo, publisher, logger, telegram, email)
	})

	It("logs every recipient and keeps going after a failure", func() {
		email.setErr(errUnreachable)
		ticketID := int64(7)

		result := dispatcher.Dispatch(ctx, alert.Message{
			TicketID: &ticketID,
			Subject:  "subject",
			Body:     "body",
			Recipients: []alert.Recipient{
				alert.EmailRecipient("budi@example.com"),
				alert.TelegramRecipient(-1001),
			},
		})

		Expect(result.Sent).To(Equal(1))
		Expect(result.Failed).To(Equal(1))
		Expect(result.Errors).To(HaveKey(alert.PlatformEmail))
		Expect(result.Errors).NotTo(HaveKey(alert.PlatformTelegram))
		Expect(result.LogIDs).To(HaveLen(2))
		Expect(result.OK()).To(BeFalse())

		err := result.Err()
		Expect(err).To(HaveOccurred())
		appErr, ok := apperrors.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(apperrors.ErrCodeNotificationFailed))
		Expect(err).To(MatchError(alert.ErrNotificationFailed))

		var logs []*alertDatamodel.Log
		Expect(db.Order("id ASC").Find(&logs).Error).To(Succeed())
		Expect(logs).To(HaveLen(2))
		Expect(logs[0].Platform).To(Equal("email"))
		Expect(logs[0].Status).To(Equal(string(alert.StatusFailed)))
		Expect(logs[0].Attempts).To(Equal(1))
		Expect(*logs[0].LastError).To(ContainSubstring("connection refused"))
		Expect(*logs[0].TicketID).To(Equal(int64(7)))
		Expect(logs[1].Platform).To(Equal("telegram"))
		Expect(logs[1].Recipient).To(Equal("-1001"))
		Expect(logs[1].Status).To(Equal(string(alert.StatusSent)))
		Expect(logs[1].LastError).To(BeNil())

		Expect(publisher.types).To(Equal([]string{events.EventTypeAlertFailed, events.EventTypeAlertSent}))
	})

	It("reports a platform without a sender as unavailable", func() {
		d := alert.NewDispatcher(repo, nil, logger, telegram)

		result := d.Dispatch(ctx, alert.Message{
			Subject:    "subject",
			Body:       "body",
			Recipients: []alert.Recipient{alert.EmailRecipient("budi@example.com")},
		})

		Expect(result.Failed).To(Equal(1))
		Expect(result.Errors[alert.PlatformEmail]).To(ContainSubstring("not configured"))
		Expect(d.Enabled(alert.PlatformEmail)).To(BeFalse())
		Expect(d.Enabled(alert.PlatformTelegram)).To(BeTrue())
	})

	It("turns a panicking sender into a failure", func() {
		telegram.panics = true

		var result alert.Result
		Expect(func() {
			result = dispatcher.Dispatch(ctx, alert.Message{
				Body:       "body",
				Recipients: []alert.Recipient{alert.TelegramRecipient(5)},
			})
		}).NotTo(Panic())
		Expect(result.Failed).To(Equal(1))
	})

	It("treats an empty recipient list as an error", func() {
		result := dispatcher.Dispatch(ctx, alert.Message{Body: "body"})
		Expect(result.Err()).To(MatchError(alert.ErrNoRecipients))
	})

	Describe("Retry", func() {
		It("re-sends a failed alert and bumps the attempt count", func() {
			telegram.setErr(errUnreachable)
			result := dispatcher.Dispatch(ctx, alert.Message{
				Body:       "body",
				Recipients: []alert.Recipient{alert.TelegramRecipient(5)},
			})
			Expect(result.LogIDs).To(HaveLen(1))

			telegram.setErr(nil)
			l, err := dispatcher.Retry(ctx, result.LogIDs[0])
			Expect(err).NotTo(HaveOccurred())
			Expect(l.Status).To(Equal(alert.StatusSent))
			Expect(l.Attempts).To(Equal(2))
			Expect(l.LastError).To(BeNil())

			stored, err := repo.GetLog(ctx, result.LogIDs[0])
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(string(alert.StatusSent)))
			Expect(stored.Attempts).To(Equal(2))
			Expect(stored.LastError).To(BeNil())
		})

		It("keeps a failing alert failed", func() {
			telegram.setErr(errUnreachable)
			result := dispatcher.Dispatch(ctx, alert.Message{
				Body:       "body",
				Recipients: []alert.Recipient{alert.TelegramRecipient(5)},
			})

			l, err := dispatcher.Retry(ctx, result.LogIDs[0])
			Expect(err).To(MatchError(alert.ErrNotificationFailed))
			Expect(l.Status).To(Equal(alert.StatusFailed))
			Expect(l.Attempts).To(Equal(2))
		})

		It("leaves sent alerts alone", func() {
			result := dispatcher.Dispatch(ctx, alert.Message{
				Body:       "body",
				Recipients: []alert.Recipient{alert.TelegramRecipient(5)},
			})

			l, err := dispatcher.Retry(ctx, result.LogIDs[0])
			Expect(err).NotTo(HaveOccurred())
			Expect(l.Attempts).To(Equal(1))
			Expect(telegram.count()).To(Equal(1))
		})

		It("returns not found for an unknown log", func() {
			_, err := dispatcher.Retry(ctx, 999)
			Expect(err).To(MatchError(alert.ErrLogNotFound))
		})
	})
})

var _ = Describe("TicketNotifier", func() {
	var (
		ctx        context.Context
		db         *gorm.DB
		repo       *alertPostgres.AlertRepository
		telegram   *fakeSender
		email      *fakeSender
		dispatcher *alert.Dispatcher
		logger     *slog.Logger
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		db = openTestDB()
		repo = alertPostgres.NewAlertRepository(db)
		telegram = &fakeSender{platform: alert.PlatformTelegram}
		email = &fakeSender{platform: alert.PlatformEmail}
		dispatcher = alert.NewDispatcher(repo, nil, logger, telegram, email)
	})

	notifier := func(defaultChat int64) *alert.TicketNotifier {
		return alert.NewTicketNotifier(dispatcher, userPostgres.NewUserRepository(db), repo, defaultChat, logger)
	}

	It("sends to the assignee's email and telegram groups", func() {
		u := createUser(db, "Budi", "budi@example.com")
		group := &alertDatamodel.TelegramGroup{Name: "Jakarta", ChatID: -100200}
		Expect(repo.CreateGroup(ctx, group)).To(Succeed())
		Expect(repo.AddMember(ctx, &alertDatamodel.UserGroup{UserID: u.ID, GroupID: group.ID})).To(Succeed())

		recipients, err := notifier(-1).Recipients(ctx, sampleTicket(&u.ID))
		Expect(err).NotTo(HaveOccurred())
		Expect(recipients).To(ConsistOf(
			alert.EmailRecipient("budi@example.com"),
			alert.TelegramRecipient(-100200),
		))
	})

	It("falls back to the default chat", func() {
		u := createUser(db, "Budi", "budi@example.com")

		recipients, err := notifier(-1).Recipients(ctx, sampleTicket(&u.ID))
		Expect(err).NotTo(HaveOccurred())
		Expect(recipients).To(ConsistOf(
			alert.EmailRecipient("budi@example.com"),
			alert.TelegramRecipient(-1),
		))

		recipients, err = notifier(-1).Recipients(ctx, sampleTicket(nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(recipients).To(ConsistOf(alert.TelegramRecipient(-1)))
	})

	It("adds a member only once", func() {
		u := createUser(db, "Budi", "budi@example.com")
		g := &alertDatamodel.TelegramGroup{Name: "Jakarta", ChatID: -300}
		Expect(repo.CreateGroup(ctx, g)).To(Succeed())
		Expect(repo.AddMember(ctx, &alertDatamodel.UserGroup{UserID: u.ID, GroupID: g.ID})).To(Succeed())
		Expect(repo.AddMember(ctx, &alertDatamodel.UserGroup{UserID: u.ID, GroupID: g.ID})).To(Succeed())

		recipients, err := notifier(0).Recipients(ctx, sampleTicket(&u.ID))
		Expect(err).NotTo(HaveOccurred())
		Expect(recipients).To(HaveLen(2))
	})

	It("delivers the formatted alert and reports failures", func() {
		u := createUser(db, "Budi", "budi@example.com")
		n := notifier(-1)

		Expect(n.NotifyTicket(ctx, ticket.NotifyCreated, sampleTicket(&u.ID))).To(Succeed())
		Expect(email.count()).To(Equal(1))
		Expect(email.messages[0].Subject).To(Equal("[POS2501000042] New ticket"))
		Expect(email.messages[0].Body).To(ContainSubstring("Station: SPBU-01 - Station One"))
		Expect(email.messages[0].Body).To(ContainSubstring("Time: 2025-01-10 08:30:00 UTC"))

		telegram.setErr(errUnreachable)
		err := n.NotifyTicket(ctx, ticket.NotifyAssigned, sampleTicket(&u.ID))
		Expect(err).To(MatchError(alert.ErrNotificationFailed))
	})

	It("fails when nobody can be reached", func() {
		err := notifier(0).NotifyTicket(ctx, ticket.NotifyCreated, sampleTicket(nil))
		Expect(err).To(MatchError(alert.ErrNoRecipients))
	})
})

var _ = Describe("Senders", func() {
	It("sends telegram messages to the chat id", func() {
		bot := &fakeBot{}
		sender := alert.NewTelegramSenderWithBot(bot)

		Expect(sender.Send(context.Background(), "-1001", "Title", "Body")).To(Succeed())
		Expect(bot.sent).To(HaveLen(1))
		msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
		Expect(ok).To(BeTrue())
		Expect(msg.ChatID).To(Equal(int64(-1001)))
		Expect(msg.Text).To(Equal("Title\n\nBody"))
	})

	It("rejects a non numeric chat id", func() {
		sender := alert.NewTelegramSenderWithBot(&fakeBot{})
		Expect(sender.Send(context.Background(), "@channel", "", "Body")).To(MatchError(ContainSubstring("invalid telegram chat id")))
	})

	It("sends email through the dialer", func() {
		dialer := &fakeDialer{}
		sender := alert.NewEmailSenderWithDialer("helpdesk@example.com", dialer)

		Expect(sender.Send(context.Background(), "budi@example.com", "Subject", "Body")).To(Succeed())
		Expect(dialer.messages).To(HaveLen(1))
		Expect(dialer.messages[0].GetHeader("To")).To(Equal([]string{"budi@example.com"}))
		Expect(dialer.messages[0].GetHeader("From")).To(Equal([]string{"helpdesk@example.com"}))
		Expect(dialer.messages[0].GetHeader("Subject")).To(Equal([]string{"Subject"}))
	})

	It("gives up on email when the context ends", func() {
		dialer := &fakeDialer{delay: 200 * time.Millisecond}
		sender := alert.NewEmailSenderWithDialer("helpdesk@example.com", dialer)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		Expect(sender.Send(ctx, "budi@example.com", "Subject", "Body")).To(MatchError(context.DeadlineExceeded))
	})

	It("parses platforms", func() {
		for raw, want := range map[string]alert.Platform{
			"telegram": alert.PlatformTelegram,
			" TG ":     alert.PlatformTelegram,
			"Gmail":    alert.PlatformEmail,
			"email":    alert.PlatformEmail,
		} {
			got, err := alert.ParsePlatform(raw)
			Expect(err).NotTo(HaveOccurred(), raw)
			Expect(got).To(Equal(want), raw)
		}
		_, err := alert.ParsePlatform("sms")
		Expect(err).To(MatchError(alert.ErrInvalidPlatform))
	})
})

var _ = Describe("Pool", func() {
	var logger *slog.Logger

	BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	})

	It("runs queued jobs on the workers", func() {
		var mu sync.Mutex
		var done []int64
		pool := alert.NewPool(alert.PoolConfig{MaxWorkers: 2, JobQueueSize: 10}, func(_ context.Context, job alert.RetryJob) {
			mu.Lock()
			defer mu.Unlock()
			done = append(done, job.LogID)
		}, logger)
		defer pool.Shutdown()

		for id := int64(1); id <= 5; id++ {
			queued, err := pool.Enqueue(alert.RetryJob{LogID: id})
			Expect(err).NotTo(HaveOccurred())
			Expect(queued).To(BeTrue())
		}

		Eventually(func() []int64 {
			mu.Lock()
			defer mu.Unlock()
			return append([]int64(nil), done...)
		}).Should(ConsistOf(int64(1), int64(2), int64(3), int64(4), int64(5)))
		Eventually(pool.Pending).Should(BeZero())
	})

	It("skips a job that is already pending and rejects when full", func() {
		release := make(chan struct{})
		started := make(chan int64, 10)
		pool := alert.NewPool(alert.PoolConfig{MaxWorkers: 1, JobQueueSize: 1}, func(_ context.Context, job alert.RetryJob) {
			started <- job.LogID
			<-release
		}, logger)

		queued, err := pool.Enqueue(alert.RetryJob{LogID: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(queued).To(BeTrue())
		Eventually(started).Should(Receive(Equal(int64(1))))

		queued, err = pool.Enqueue(alert.RetryJob{LogID: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(queued).To(BeFalse())

		next := int64(1)
		Eventually(func() error {
			next++
			_, err := pool.Enqueue(alert.RetryJob{LogID: next})
			return err
		}).Should(MatchError(alert.ErrQueueFull))

		close(release)
		pool.Shutdown()

		_, err = pool.Enqueue(alert.RetryJob{LogID: 99})
		Expect(err).To(MatchError(alert.ErrQueueFull))
	})
})

type recordingQueue struct {
	ids []int64
	err error
}

func (q *recordingQueue) Enqueue(job alert.RetryJob) (bool, error) {
	if q.err != nil {
		return false, q.err
	}
	q.ids = append(q.ids, job.LogID)
	return true, nil
}

type staticDigest string

func (d staticDigest) Digest(context.Context) (string, error) { return string(d), nil }

var _ = Describe("Scheduler", func() {
	var (
		ctx    context.Context
		db     *gorm.DB
		repo   *alertPostgres.AlertRepository
		logger *slog.Logger
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		db = openTestDB()
		repo = alertPostgres.NewAlertRepository(db)
	})

	seed := func(status alert.Status, attempts int) int64 {
		row := &alertDatamodel.Log{
			Platform:  "telegram",
			Recipient: "1",
			Message:   "m",
			Status:    string(status),
			Attempts:  attempts,
		}
		Expect(repo.CreateLog(ctx, row)).To(Succeed())
		return row.ID
	}

	It("queues failed alerts that have attempts left", func() {
		retry := seed(alert.StatusFailed, 1)
		seed(alert.StatusFailed, 3)
		seed(alert.StatusSent, 1)
		retryToo := seed(alert.StatusFailed, 2)

		queue := &recordingQueue{}
		s, err := alert.NewScheduler(alert.SchedulerConfig{RetrySpec: "@every 1m", MaxAttempts: 3}, repo, queue, nil, nil, logger)
		Expect(err).NotTo(HaveOccurred())

		n, err := s.EnqueueRetries(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(2))
		Expect(queue.ids).To(ConsistOf(retry, retryToo))
	})

	It("stops the sweep quietly when the queue is full", func() {
		seed(alert.StatusFailed, 1)
		s, err := alert.NewScheduler(alert.SchedulerConfig{MaxAttempts: 3}, repo, &recordingQueue{err: alert.ErrQueueFull}, nil, nil, logger)
		Expect(err).NotTo(HaveOccurred())

		n, err := s.EnqueueRetries(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeZero())
	})

	It("rejects a bad cron spec", func() {
		_, err := alert.NewScheduler(alert.SchedulerConfig{RetrySpec: "every minute"}, repo, &recordingQueue{}, nil, nil, logger)
		Expect(err).To(MatchError(ContainSubstring("invalid retry schedule")))
	})

	It("posts the digest to the configured chat", func() {
		telegram := &fakeSender{platform: alert.PlatformTelegram}
		dispatcher := alert.NewDispatcher(repo, nil, logger, telegram)
		s, err := alert.NewScheduler(alert.SchedulerConfig{DigestSpec: "0 8 * * *", DigestChatID: -77}, repo, &recordingQueue{}, dispatcher, staticDigest("3 open tickets"), logger)
		Expect(err).NotTo(HaveOccurred())

		Expect(s.SendDigest(ctx)).To(Succeed())
		Expect(telegram.messages).To(HaveLen(1))
		Expect(telegram.messages[0].Address).To(Equal(strconv.Itoa(-77)))
		Expect(telegram.messages[0].Body).To(Equal("3 open tickets"))
	})

	It("starts and stops", func() {
		s, err := alert.NewScheduler(alert.SchedulerConfig{RetrySpec: "@every 1h"}, repo, &recordingQueue{}, nil, nil, logger)
		Expect(err).NotTo(HaveOccurred())
		s.Start()

		stopCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		s.Stop(stopCtx)
	})
})
