package ticket_test

import (
	"time"

	apperrors "github.com/frahmantamala/pos-helpdesk/internal"
	"github.com/frahmantamala/pos-helpdesk/internal/ticket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseStatus", func() {
	DescribeTable("normalizes client spellings",
		func(raw string, expected ticket.Status) {
			status, err := ticket.ParseStatus(raw)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(expected))
		},
		Entry("lower open", "open", ticket.StatusOpen),
		Entry("title close", "Close", ticket.StatusClose),
		Entry("upper close", "CLOSE", ticket.StatusClose),
		Entry("closed", "closed", ticket.StatusClose),
		Entry("snake in progress", "in_progress", ticket.StatusInProgress),
		Entry("title in progress", "In Progress", ticket.StatusInProgress),
		Entry("spaced on hold", " on hold ", ticket.StatusOnHold),
		Entry("pending vendor", "Pending_Vendor", ticket.StatusPendingVendor),
	)

	It("rejects unknown statuses", func() {
		_, err := ticket.ParseStatus("resolved")
		Expect(err).To(MatchError(ticket.ErrInvalidStatus))
	})
})

var _ = Describe("Ticket lifecycle", func() {
	var (
		opened time.Time
		t      *ticket.Ticket
	)

	BeforeEach(func() {
		opened = time.Date(2024, 10, 1, 8, 0, 0, 0, time.UTC)
		t = &ticket.Ticket{Status: ticket.StatusOpen, OpenedAt: opened}
	})

	It("closes and keeps ticket_open", func() {
		closedAt := opened.Add(3 * time.Hour)
		Expect(t.Transition(ticket.StatusClose, closedAt)).To(Succeed())

		Expect(t.Status).To(Equal(ticket.StatusClose))
		Expect(t.OpenedAt).To(Equal(opened))
		Expect(t.ClosedAt).NotTo(BeNil())
		Expect(*t.ClosedAt).To(Equal(closedAt))
		Expect(t.OnHoldAt).To(BeNil())
		Expect(t.InProgressAt).To(BeNil())
		Expect(t.PendingVendorAt).To(BeNil())
	})

	It("keeps only the timestamp of the current status", func() {
		Expect(t.Transition(ticket.StatusInProgress, opened.Add(time.Hour))).To(Succeed())
		Expect(t.InProgressAt).NotTo(BeNil())

		Expect(t.Transition(ticket.StatusPendingVendor, opened.Add(2*time.Hour))).To(Succeed())
		Expect(t.InProgressAt).To(BeNil())
		Expect(t.PendingVendorAt).NotTo(BeNil())

		Expect(t.Transition(ticket.StatusOnHold, opened.Add(3*time.Hour))).To(Succeed())
		Expect(t.PendingVendorAt).To(BeNil())
		Expect(*t.OnHoldAt).To(Equal(opened.Add(3 * time.Hour)))
		Expect(t.StatusTime()).To(Equal(opened.Add(3 * time.Hour)))

		Expect(t.Transition(ticket.StatusInProgress, opened.Add(4*time.Hour))).To(Succeed())
		Expect(t.OnHoldAt).To(BeNil())
		Expect(t.OpenedAt).To(Equal(opened))
	})

	DescribeTable("rejects illegal moves with INVALID_TRANSITION",
		func(from, to ticket.Status, expected *apperrors.AppError) {
			t.Status = from
			err := t.Transition(to, opened.Add(time.Hour))
			Expect(err).To(MatchError(expected))

			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(apperrors.ErrorTypeInvalidTransition))
			Expect(t.Status).To(Equal(from))
		},
		Entry("no-op", ticket.StatusOpen, ticket.StatusOpen, ticket.ErrNoopTransition),
		Entry("out of close", ticket.StatusClose, ticket.StatusInProgress, ticket.ErrTicketClosed),
		Entry("close to close", ticket.StatusClose, ticket.StatusClose, ticket.ErrTicketClosed),
		Entry("back to open", ticket.StatusInProgress, ticket.StatusOpen, ticket.ErrInvalidTransition),
		Entry("open to vendor", ticket.StatusOpen, ticket.StatusPendingVendor, ticket.ErrInvalidTransition),
		Entry("hold to vendor", ticket.StatusOnHold, ticket.StatusPendingVendor, ticket.ErrInvalidTransition),
	)

	It("lets any state close", func() {
		for _, from := range []ticket.Status{ticket.StatusOpen, ticket.StatusOnHold, ticket.StatusInProgress, ticket.StatusPendingVendor} {
			Expect(ticket.CanTransition(from, ticket.StatusClose)).To(BeTrue(), string(from))
		}
	})

	Describe("Reopen", func() {
		It("returns a closed ticket to open with no status timestamps", func() {
			Expect(t.Transition(ticket.StatusClose, opened.Add(time.Hour))).To(Succeed())
			Expect(t.Reopen()).To(Succeed())

			Expect(t.Status).To(Equal(ticket.StatusOpen))
			Expect(t.ClosedAt).To(BeNil())
			Expect(t.OpenedAt).To(Equal(opened))
		})

		It("refuses tickets that are not closed", func() {
			Expect(t.Reopen()).To(MatchError(ticket.ErrTicketNotClosed))
		})
	})
})

var _ = Describe("Ticket codes", func() {
	at := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	It("formats POS + YYMM + sequence", func() {
		code, err := ticket.FormatCode(at, 42)
		Expect(err).NotTo(HaveOccurred())
		Expect(code).To(Equal("POS2403000042"))
		Expect(ticket.ValidateCode(code)).To(Succeed())
		Expect(ticket.CodePeriod(at)).To(Equal("2403"))
	})

	It("fails once the monthly sequence is used up", func() {
		_, err := ticket.FormatCode(at, ticket.MaxCodeSequence)
		Expect(err).NotTo(HaveOccurred())

		_, err = ticket.FormatCode(at, ticket.MaxCodeSequence+1)
		Expect(err).To(MatchError(ticket.ErrCodeSpaceExceeded))
	})

	DescribeTable("validates the code shape",
		func(code string, valid bool) {
			if valid {
				Expect(ticket.ValidateCode(code)).To(Succeed())
			} else {
				Expect(ticket.ValidateCode(code)).NotTo(Succeed())
			}
		},
		Entry("valid", "POS2410000001", true),
		Entry("lower prefix", "pos2410000001", false),
		Entry("short sequence", "POS241000001", false),
		Entry("letters", "POS24AB000001", false),
	)
})

var _ = Describe("Issue types", func() {
	It("derives ids 1..7 case-insensitively", func() {
		id, ok := ticket.IssueTypeID("fleetcard")
		Expect(ok).To(BeTrue())
		Expect(id).To(Equal(7))
		Expect(ticket.CanonicalIssueType("aba")).To(Equal("ABA"))

		_, ok = ticket.IssueTypeID("Printer")
		Expect(ok).To(BeFalse())
	})
})
