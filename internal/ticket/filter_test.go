package ticket_test

import (
	"math/rand"
	"net/url"
	"time"

	"github.com/frahmantamala/pos-helpdesk/internal/ticket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func strp(v string) *string { return &v }

func int64p(v int64) *int64 { return &v }

func timep(t time.Time) *time.Time { return &t }

func sampleTickets() []*ticket.Ticket {
	base := time.Date(2024, 10, 1, 9, 30, 0, 0, time.UTC)
	return []*ticket.Ticket{
		{
			ID: 1, Code: "POS2410000001", StationID: "S1", StationName: "SPBU Sudirman", StationType: "COCO",
			Province: "DKI Jakarta", IssueCategory: "PTT_Digital", IssueType: "Software", IssueTypeID: 1,
			IssueDescription: "EDC cannot print receipt", Status: ticket.StatusOpen, OpenedAt: base,
			AssigneeID: int64p(10), AssigneeName: strp("Budi Santoso"), CreatorName: strp("Admin"),
		},
		{
			ID: 2, Code: "POS2410000002", StationID: "S2", StationName: "SPBU Dago", StationType: "DODO",
			Province: "Jawa Barat", IssueCategory: "Third_Party", IssueType: "Network", IssueTypeID: 5,
			IssueDescription: "VSAT down", Status: ticket.StatusClose, OpenedAt: base.Add(24 * time.Hour),
			ClosedAt: timep(base.Add(50 * time.Hour)), Comment: strp("vendor replaced modem"),
		},
		{
			ID: 3, Code: "POS2410000003", StationID: "S10", StationName: "SPBU Sudirman 2", StationType: "COCO",
			Province: "DKI Jakarta", IssueCategory: "PTT_Digital", IssueType: "Hardware", IssueTypeID: 2,
			IssueDescription: "Printer jam", Status: ticket.StatusOnHold, OpenedAt: base.Add(72 * time.Hour),
			OnHoldAt: timep(base.Add(73 * time.Hour)), AssigneeID: int64p(11), AssigneeName: strp("Siti"),
		},
		{
			ID: 4, Code: "POS2410000004", StationID: "S3", StationName: "SPBU Kuta", StationType: "COCO",
			Province: "Bali", IssueCategory: "PTT_Digital", IssueType: "Dispenser", IssueTypeID: 3,
			IssueDescription: "Nozzle sensor error", Status: ticket.StatusInProgress, OpenedAt: base.Add(96 * time.Hour),
			InProgressAt: timep(base.Add(97 * time.Hour)), CreatorName: strp("Operator Bali"),
		},
	}
}

func ids(tickets []*ticket.Ticket) []int64 {
	out := make([]int64, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, t.ID)
	}
	return out
}

var _ = Describe("Filter", func() {
	var tickets []*ticket.Ticket

	BeforeEach(func() {
		tickets = sampleTickets()
	})

	It("returns every ticket in order for an empty filter", func() {
		out := ticket.Filter{}.Apply(tickets)
		Expect(out).To(Equal(tickets))
		Expect(ticket.Filter{}.IsEmpty()).To(BeTrue())
	})

	It("keeps nil entries only when no predicate is set", func() {
		withNil := []*ticket.Ticket{tickets[0], nil, tickets[1]}

		all := ticket.Filter{}.Apply(withNil)
		Expect(all).To(Equal(withNil))

		narrowed := ticket.Filter{Province: "jakarta"}.Apply(withNil)
		Expect(ids(narrowed)).To(Equal([]int64{1}))
	})

	It("matches status exactly", func() {
		pair := []*ticket.Ticket{
			{ID: 1, StationID: "S1", Status: ticket.StatusOpen},
			{ID: 2, StationID: "S2", Status: ticket.StatusClose},
		}
		f, err := ticket.ParseFilter(url.Values{"status": {"open"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(ids(f.Apply(pair))).To(Equal([]int64{1}))
	})

	It("matches strings case-insensitively by substring", func() {
		out := ticket.Filter{StationName: "sudirman", Province: "jakarta"}.Apply(tickets)
		Expect(ids(out)).To(Equal([]int64{1, 3}))
	})

	It("never matches a nil field against a set predicate", func() {
		Expect(ids(ticket.Filter{Comment: "modem"}.Apply(tickets))).To(Equal([]int64{2}))
		Expect(ids(ticket.Filter{AssigneeName: "s"}.Apply(tickets))).To(Equal([]int64{1, 3}))
		Expect(ids(ticket.Filter{Creator: "bali"}.Apply(tickets))).To(Equal([]int64{4}))
	})

	It("matches timestamp substrings on the rendered value", func() {
		Expect(ids(ticket.Filter{OnHold: "2024-10-04 10:30"}.Apply(tickets))).To(Equal([]int64{3}))
		Expect(ids(ticket.Filter{TicketTime: "2024-10-02"}.Apply(tickets))).To(Equal([]int64{2}))
		Expect(ids(ticket.Filter{InProgress: "2024-10-05"}.Apply(tickets))).To(Equal([]int64{4}))
	})

	It("filters on assignee id and issue type id", func() {
		Expect(ids(ticket.Filter{AssigneeID: 11}.Apply(tickets))).To(Equal([]int64{3}))
		Expect(ids(ticket.Filter{IssueTypeID: 5}.Apply(tickets))).To(Equal([]int64{2}))
	})

	Describe("date bounds", func() {
		It("treats a date-only upper bound as the whole day", func() {
			f, err := ticket.ParseFilter(url.Values{"open_from": {"2024-10-01"}, "open_to": {"2024-10-02"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(f.Apply(tickets))).To(Equal([]int64{1, 2}))
		})

		It("is open-ended when one side is empty", func() {
			f, err := ticket.ParseFilter(url.Values{"open_from": {"2024-10-04"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(f.Apply(tickets))).To(Equal([]int64{3, 4}))
		})

		It("is inclusive on exact timestamps", func() {
			f, err := ticket.ParseFilter(url.Values{"open_to": {"2024-10-01 09:30:00"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(f.Apply(tickets))).To(Equal([]int64{1}))
		})

		It("excludes tickets without a close time from close ranges", func() {
			f, err := ticket.ParseFilter(url.Values{"close_from": {"2024-10-01"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(f.Apply(tickets))).To(Equal([]int64{2}))
		})
	})

	Describe("ParseFilter", func() {
		It("rejects a malformed date", func() {
			_, err := ticket.ParseFilter(url.Values{"open_from": {"01/10/2024"}})
			Expect(err).To(HaveOccurred())
		})

		It("rejects an unknown status", func() {
			_, err := ticket.ParseFilter(url.Values{"status": {"done"}})
			Expect(err).To(MatchError(ticket.ErrInvalidStatus))
		})

		It("reads every string predicate", func() {
			f, err := ticket.ParseFilter(url.Values{
				"station_id":  {" s1 "},
				"issue_type":  {"soft"},
				"assignee":    {"budi"},
				"users_id":    {"10"},
				"ticket_time": {"09:30"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(f.StationID).To(Equal("s1"))
			Expect(f.AssigneeID).To(Equal(int64(10)))
			Expect(ids(f.Apply(tickets))).To(Equal([]int64{1}))
		})
	})

	It("does not modify its input", func() {
		before := ids(tickets)
		_ = ticket.Filter{Status: ticket.StatusClose}.Apply(tickets)
		Expect(ids(tickets)).To(Equal(before))
		Expect(tickets[0].Status).To(Equal(ticket.StatusOpen))
	})

	It("only narrows when predicates are added", func() {
		r := rand.New(rand.NewSource(11))
		options := []func(*ticket.Filter){
			func(f *ticket.Filter) { f.Province = "jakarta" },
			func(f *ticket.Filter) { f.StationType = "coco" },
			func(f *ticket.Filter) { f.Status = ticket.StatusOnHold },
			func(f *ticket.Filter) { f.IssueCategory = "ptt" },
			func(f *ticket.Filter) { f.AssigneeName = "i" },
			func(f *ticket.Filter) { f.OpenFrom = timep(time.Date(2024, 10, 2, 0, 0, 0, 0, time.UTC)) },
			func(f *ticket.Filter) { f.IssueDescription = "e" },
		}

		for i := 0; i < 200; i++ {
			var f ticket.Filter
			prev := f.Apply(tickets)
			for _, k := range r.Perm(len(options))[:1+r.Intn(len(options))] {
				options[k](&f)
				next := f.Apply(tickets)
				Expect(len(next)).To(BeNumerically("<=", len(prev)))
				for _, t := range next {
					Expect(prev).To(ContainElement(t))
				}
				prev = next
			}
		}
	})
})
