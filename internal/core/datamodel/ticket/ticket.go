package ticket

import "time"

type Ticket struct {
	ID               int64      `gorm:"column:id;primaryKey"`
	Code             string     `gorm:"column:ticket_code;uniqueIndex;not null"`
	StationCode      string     `gorm:"column:station_id;not null;index"`
	StationName      string     `gorm:"column:station_name"`
	StationType      string     `gorm:"column:station_type"`
	Province         string     `gorm:"column:province"`
	IssueCategory    string     `gorm:"column:issue_category;not null"`
	IssueType        string     `gorm:"column:issue_type;not null"`
	IssueTypeID      int        `gorm:"column:issue_type_id;not null"`
	IssueDescription string     `gorm:"column:issue_description;not null"`
	AssigneeID       *int64     `gorm:"column:users_id;index"`
	Status           string     `gorm:"column:status;not null;index"`
	OpenedAt         time.Time  `gorm:"column:ticket_open;not null"`
	OnHoldAt         *time.Time `gorm:"column:ticket_on_hold"`
	InProgressAt     *time.Time `gorm:"column:ticket_in_progress"`
	PendingVendorAt  *time.Time `gorm:"column:ticket_pending_vendor"`
	ClosedAt         *time.Time `gorm:"column:ticket_close"`
	Comment          *string    `gorm:"column:comment"`
	CreatedBy        *int64     `gorm:"column:created_by"`
	Version          int64      `gorm:"column:version;not null;default:1"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Ticket) TableName() string { return "tickets" }

// TicketRow is a ticket joined with the display names of its assignee and
// creator, as read by list queries.
type TicketRow struct {
	Ticket
	AssigneeName *string `gorm:"column:assignee_name"`
	CreatorName  *string `gorm:"column:creator_name"`
}

type History struct {
	ID         int64     `gorm:"column:id;primaryKey"`
	TicketID   int64     `gorm:"column:ticket_id;not null;index"`
	Action     string    `gorm:"column:action;not null"`
	FromStatus *string   `gorm:"column:from_status"`
	ToStatus   *string   `gorm:"column:to_status"`
	ActorID    *int64    `gorm:"column:actor_id"`
	Note       *string   `gorm:"column:note"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
}

func (History) TableName() string { return "ticket_histories" }

type Image struct {
	ID          int64     `gorm:"column:id;primaryKey"`
	TicketID    int64     `gorm:"column:ticket_id;not null;index"`
	FileName    string    `gorm:"column:file_name;not null"`
	Path        string    `gorm:"column:path;not null"`
	ContentType string    `gorm:"column:content_type;not null"`
	SizeBytes   int64     `gorm:"column:size_bytes;not null"`
	UploadedBy  *int64    `gorm:"column:uploaded_by"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Image) TableName() string { return "ticket_images" }

// CodeCounter holds the last issued ticket sequence for a YYMM period.
type CodeCounter struct {
	Period  string `gorm:"column:period;primaryKey"`
	Counter int64  `gorm:"column:counter;not null"`
}

func (CodeCounter) TableName() string { return "ticket_code_counters" }
