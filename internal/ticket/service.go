package ticket

import (
	"context"
	"html"
	"log/slog"
	"strconv"
	"strings"
	"time"

	errors "github.com/frahmantamala/pos-helpdesk/internal"
	stationDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/station"
	ticketDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/ticket"
	userDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/user"
	"github.com/frahmantamala/pos-helpdesk/internal/core/events"
	"github.com/frahmantamala/pos-helpdesk/internal/export"
	"github.com/microcosm-cc/bluemonday"
)

const (
	maxSanitizePasses = 5

	MessageCreated          = "ticket created"
	MessageCreatedNoAlert   = "ticket created, but alert not sent"
	MessageUpdated          = "ticket updated"
	MessageUpdatedNoAlert   = "ticket updated, but alert not sent"
	defaultAlertTimeout     = 10 * time.Second
	defaultImageUploadLimit = DefaultMaxImageBytes
)

var (
	ErrUnknownStation  = errors.NewValidationFieldError("station_id", "station_id does not reference a registered station", errors.ErrCodeStationNotFound)
	ErrUnknownAssignee = errors.NewValidationFieldError("users_id", "users_id does not reference an existing user", errors.ErrCodeUserNotFound)
)

type RepositoryAPI interface {
	// Create assigns the ticket code and inserts the ticket with its
	// creation history in one transaction.
	Create(ctx context.Context, t *ticketDatamodel.Ticket, h *ticketDatamodel.History) error
	GetByID(ctx context.Context, id int64) (*ticketDatamodel.TicketRow, error)
	GetByCode(ctx context.Context, code string) (*ticketDatamodel.TicketRow, error)
	List(ctx context.Context) ([]*ticketDatamodel.TicketRow, error)
	// Update saves t only if the stored version still equals
	// expectedVersion, and appends h when it is not nil.
	Update(ctx context.Context, t *ticketDatamodel.Ticket, expectedVersion int64, h *ticketDatamodel.History) error
	Delete(ctx context.Context, id int64) error
	AddImage(ctx context.Context, img *ticketDatamodel.Image, h *ticketDatamodel.History) error
	Images(ctx context.Context, ticketID int64) ([]*ticketDatamodel.Image, error)
	History(ctx context.Context, ticketID int64) ([]*ticketDatamodel.History, error)
}

type StationLookup interface {
	GetByCode(ctx context.Context, code string) (*stationDatamodel.Station, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
}

type NotifyKind string

const (
	NotifyCreated  NotifyKind = "created"
	NotifyStatus   NotifyKind = "status"
	NotifyAssigned NotifyKind = "assigned"
	NotifyReopened NotifyKind = "reopened"
)

// Notifier delivers ticket alerts. It is called after the write commits.
type Notifier interface {
	NotifyTicket(ctx context.Context, kind NotifyKind, t *Ticket) error
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Actor is the user performing a mutation.
type Actor struct {
	ID      int64
	IsAdmin bool
}

type Option func(*Service)

func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }

func WithPublisher(p Publisher) Option { return func(s *Service) { s.publisher = p } }

func WithImageStore(store ImageStore, maxBytes int64) Option {
	return func(s *Service) {
		s.images = store
		if maxBytes > 0 {
			s.maxImageBytes = maxBytes
		}
	}
}

func WithAlertTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.alertTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

type Service struct {
	repo          RepositoryAPI
	stations      StationLookup
	users         UserLookup
	notifier      Notifier
	publisher     Publisher
	images        ImageStore
	sanitizer     *bluemonday.Policy
	alertTimeout  time.Duration
	maxImageBytes int64
	now           func() time.Time
	logger        *slog.Logger
}

func NewService(repo RepositoryAPI, stations StationLookup, users UserLookup, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:          repo,
		stations:      stations,
		users:         users,
		sanitizer:     bluemonday.StrictPolicy(),
		alertTimeout:  defaultAlertTimeout,
		maxImageBytes: defaultImageUploadLimit,
		now:           time.Now,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) List(ctx context.Context, filter Filter) ([]*Ticket, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list tickets", "error", err)
		return nil, errors.NewInternalError("Failed to list tickets", err)
	}

	tickets := make([]*Ticket, 0, len(rows))
	for _, row := range rows {
		tickets = append(tickets, FromRow(row))
	}
	return filter.Apply(tickets), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Ticket, error) {
	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	images, err := s.repo.Images(ctx, id)
	if err != nil {
		s.logger.Error("failed to load ticket images", "ticket_id", id, "error", err)
		return nil, errors.NewInternalError("Failed to get ticket", err)
	}
	for _, img := range images {
		t.Images = append(t.Images, ImageFromDataModel(img))
	}
	return t, nil
}

func (s *Service) get(ctx context.Context, id int64) (*Ticket, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get ticket", "ticket_id", id, "error", err)
		return nil, errors.NewInternalError("Failed to get ticket", err)
	}
	if row == nil {
		return nil, ErrTicketNotFound
	}
	return FromRow(row), nil
}

func (s *Service) Create(ctx context.Context, actor Actor, dto CreateTicketDTO) (*Result, error) {
	dto.StationID = strings.ToUpper(strings.TrimSpace(dto.StationID))
	dto.IssueDescription = s.sanitize(dto.IssueDescription)
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	st, err := s.stations.GetByCode(ctx, dto.StationID)
	if err != nil {
		s.logger.Error("failed to look up station", "station_id", dto.StationID, "error", err)
		return nil, errors.NewInternalError("Failed to create ticket", err)
	}
	if st == nil {
		return nil, ErrUnknownStation
	}
	if dto.AssigneeID != nil {
		if err := s.checkAssignee(ctx, *dto.AssigneeID); err != nil {
			return nil, err
		}
	}

	issueTypeID, _ := IssueTypeID(dto.IssueType)
	now := s.now().UTC().Truncate(time.Second)
	row := &ticketDatamodel.Ticket{
		StationCode:      st.Code,
		StationName:      st.Name,
		StationType:      st.StationType,
		Province:         st.Province,
		IssueCategory:    dto.IssueCategory,
		IssueType:        CanonicalIssueType(dto.IssueType),
		IssueTypeID:      issueTypeID,
		IssueDescription: dto.IssueDescription,
		AssigneeID:       dto.AssigneeID,
		Status:           string(StatusOpen),
		OpenedAt:         now,
		Comment:          s.sanitizePtr(dto.Comment),
		CreatedBy:        actorPtr(actor),
		Version:          1,
	}
	history := newHistory(ActionCreated, nil, StatusOpen, actor, nil, now)

	if err := s.repo.Create(ctx, row, history); err != nil {
		if appErr, ok := errors.IsAppError(err); ok {
			return nil, appErr
		}
		s.logger.Error("failed to create ticket", "station_id", st.Code, "error", err)
		return nil, errors.NewInternalError("Failed to create ticket", err)
	}

	s.logger.Info("ticket created", "ticket_id", row.ID, "ticket_code", row.Code, "station_id", row.StationCode)
	t, err := s.get(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTypeTicketCreated, t, actor)
	return s.notify(ctx, NotifyCreated, t, MessageCreated, MessageCreatedNoAlert), nil
}

// Update edits the descriptive fields. Status and assignee have their own
// operations.
func (s *Service) Update(ctx context.Context, actor Actor, id int64, dto UpdateTicketDTO) (*Ticket, error) {
	if dto.IssueDescription != nil {
		clean := s.sanitize(*dto.IssueDescription)
		dto.IssueDescription = &clean
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(t, dto.Version); err != nil {
		return nil, err
	}

	if dto.IssueCategory != nil {
		t.IssueCategory = *dto.IssueCategory
	}
	if dto.IssueType != nil {
		t.IssueType = CanonicalIssueType(*dto.IssueType)
		t.IssueTypeID, _ = IssueTypeID(*dto.IssueType)
	}
	if dto.IssueDescription != nil {
		t.IssueDescription = *dto.IssueDescription
	}
	if dto.Comment != nil {
		t.Comment = s.sanitizePtr(dto.Comment)
	}

	history := newHistory(ActionUpdated, &t.Status, t.Status, actor, nil, s.now().UTC())
	if err := s.save(ctx, t, history); err != nil {
		return nil, err
	}
	s.logger.Info("ticket updated", "ticket_id", id, "version", t.Version)
	return s.get(ctx, id)
}

func (s *Service) ChangeStatus(ctx context.Context, actor Actor, id int64, dto StatusDTO) (*Result, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	to, err := ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(t, dto.Version); err != nil {
		return nil, err
	}

	from := t.Status
	now := s.now().UTC().Truncate(time.Second)
	if err := t.Transition(to, now); err != nil {
		return nil, err
	}
	if dto.Comment != nil {
		t.Comment = s.sanitizePtr(dto.Comment)
	}

	history := newHistory(ActionStatus, &from, to, actor, t.Comment, now)
	if err := s.save(ctx, t, history); err != nil {
		return nil, err
	}

	s.logger.Info("ticket status changed", "ticket_id", id, "from", from, "to", to)
	s.publish(ctx, events.EventTypeTicketStatusChanged, t, actor)
	return s.notify(ctx, NotifyStatus, t, MessageUpdated, MessageUpdatedNoAlert), nil
}

func (s *Service) Assign(ctx context.Context, actor Actor, id int64, dto AssignDTO) (*Result, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(t, dto.Version); err != nil {
		return nil, err
	}
	if err := s.checkAssignee(ctx, dto.AssigneeID); err != nil {
		return nil, err
	}

	assignee := dto.AssigneeID
	t.AssigneeID = &assignee
	history := newHistory(ActionAssigned, &t.Status, t.Status, actor, nil, s.now().UTC())
	history.Note = stringPtr("assigned to user " + strconv.FormatInt(assignee, 10))
	if err := s.save(ctx, t, history); err != nil {
		return nil, err
	}

	s.logger.Info("ticket assigned", "ticket_id", id, "users_id", assignee)
	t, err = s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTypeTicketAssigned, t, actor)
	return s.notify(ctx, NotifyAssigned, t, MessageUpdated, MessageUpdatedNoAlert), nil
}

// Reopen is restricted to administrators and always needs a reason.
func (s *Service) Reopen(ctx context.Context, actor Actor, id int64, dto ReopenDTO) (*Result, error) {
	if !actor.IsAdmin {
		return nil, errors.ErrAdminRequired
	}
	dto.Reason = s.sanitize(dto.Reason)
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(t, dto.Version); err != nil {
		return nil, err
	}

	from := t.Status
	if err := t.Reopen(); err != nil {
		return nil, err
	}

	history := newHistory(ActionReopened, &from, StatusOpen, actor, &dto.Reason, s.now().UTC())
	if err := s.save(ctx, t, history); err != nil {
		return nil, err
	}

	s.logger.Info("ticket reopened", "ticket_id", id, "actor_id", actor.ID)
	s.publish(ctx, events.EventTypeTicketReopened, t, actor)
	return s.notify(ctx, NotifyReopened, t, MessageUpdated, MessageUpdatedNoAlert), nil
}

// Delete removes the ticket with its images and history.
func (s *Service) Delete(ctx context.Context, actor Actor, id int64) error {
	t, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	images, err := s.repo.Images(ctx, id)
	if err != nil {
		s.logger.Error("failed to load ticket images", "ticket_id", id, "error", err)
		return errors.NewInternalError("Failed to delete ticket", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete ticket", "ticket_id", id, "error", err)
		return errors.NewInternalError("Failed to delete ticket", err)
	}

	if s.images != nil {
		for _, img := range images {
			if err := s.images.Remove(img.Path); err != nil {
				s.logger.Warn("failed to remove ticket image", "ticket_id", id, "path", img.Path, "error", err)
			}
		}
	}

	s.logger.Info("ticket deleted", "ticket_id", id, "ticket_code", t.Code, "actor_id", actor.ID)
	s.publish(ctx, events.EventTypeTicketDeleted, t, actor)
	return nil
}

func (s *Service) AddImage(ctx context.Context, actor Actor, id int64, fileName string, data []byte) (*Image, error) {
	if s.images == nil {
		return nil, errors.NewInternalError("Image uploads are not configured", nil)
	}
	if int64(len(data)) > s.maxImageBytes {
		return nil, ErrImageTooLarge
	}
	if len(data) == 0 {
		return nil, ErrImageType
	}
	contentType, ext, err := DetectImageType(data)
	if err != nil {
		return nil, err
	}

	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	path, err := s.images.Save(t.ID, ext, data)
	if err != nil {
		s.logger.Error("failed to store ticket image", "ticket_id", id, "error", err)
		return nil, errors.NewInternalError("Failed to store image", err)
	}

	name := strings.TrimSpace(fileName)
	if name == "" {
		name = "image" + ext
	}
	row := &ticketDatamodel.Image{
		TicketID:    t.ID,
		FileName:    name,
		Path:        path,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		UploadedBy:  actorPtr(actor),
	}
	history := newHistory(ActionImage, &t.Status, t.Status, actor, &name, s.now().UTC())
	if err := s.repo.AddImage(ctx, row, history); err != nil {
		if rmErr := s.images.Remove(path); rmErr != nil {
			s.logger.Warn("failed to remove orphaned image", "path", path, "error", rmErr)
		}
		s.logger.Error("failed to save ticket image", "ticket_id", id, "error", err)
		return nil, errors.NewInternalError("Failed to store image", err)
	}

	s.logger.Info("ticket image added", "ticket_id", id, "image_id", row.ID, "size", row.SizeBytes)
	return ImageFromDataModel(row), nil
}

func (s *Service) History(ctx context.Context, id int64) (*HistoryResponse, error) {
	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withHistory(ctx, t)
}

// Track looks a ticket up by its public code.
func (s *Service) Track(ctx context.Context, code string) (*HistoryResponse, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if err := ValidateCode(code); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		s.logger.Error("failed to get ticket by code", "ticket_code", code, "error", err)
		return nil, errors.NewInternalError("Failed to track ticket", err)
	}
	if row == nil {
		return nil, ErrTicketNotFound
	}
	return s.withHistory(ctx, FromRow(row))
}

func (s *Service) withHistory(ctx context.Context, t *Ticket) (*HistoryResponse, error) {
	rows, err := s.repo.History(ctx, t.ID)
	if err != nil {
		s.logger.Error("failed to load ticket history", "ticket_id", t.ID, "error", err)
		return nil, errors.NewInternalError("Failed to load ticket history", err)
	}

	history := make([]*History, 0, len(rows))
	for _, h := range rows {
		history = append(history, HistoryFromDataModel(h))
	}
	return &HistoryResponse{Ticket: t, History: history}, nil
}

func (s *Service) save(ctx context.Context, t *Ticket, h *ticketDatamodel.History) error {
	expected := t.Version
	t.Version = expected + 1
	h.TicketID = t.ID

	if err := s.repo.Update(ctx, ToDataModel(t), expected, h); err != nil {
		t.Version = expected
		if appErr, ok := errors.IsAppError(err); ok {
			return appErr
		}
		s.logger.Error("failed to save ticket", "ticket_id", t.ID, "error", err)
		return errors.NewInternalError("Failed to save ticket", err)
	}
	return nil
}

// notify runs after the write committed. Its failure never undoes the write.
func (s *Service) notify(ctx context.Context, kind NotifyKind, t *Ticket, okMessage, failMessage string) *Result {
	result := &Result{Ticket: t, Message: okMessage}
	if s.notifier == nil {
		return result
	}

	alertCtx, cancel := errors.WithTimeout(errors.Detached(ctx), s.alertTimeout)
	defer cancel()

	if err := s.notifier.NotifyTicket(alertCtx, kind, t); err != nil {
		s.logger.Warn("ticket alert not sent", "ticket_id", t.ID, "kind", kind, "error", err)
		result.Message = failMessage
		result.Notification = &Notification{Sent: false, Error: err.Error()}
		return result
	}
	result.Notification = &Notification{Sent: true}
	return result
}

func (s *Service) publish(ctx context.Context, eventType string, t *Ticket, actor Actor) {
	if s.publisher == nil {
		return
	}
	event := events.NewTicketEvent(eventType, t.ID, t.Code, string(t.Status), t.IssueType, actor.ID)
	if err := s.publisher.Publish(errors.Detached(ctx), event); err != nil {
		s.logger.Warn("failed to publish ticket event", "event_type", eventType, "ticket_id", t.ID, "error", err)
	}
}

func (s *Service) checkAssignee(ctx context.Context, userID int64) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to look up assignee", "users_id", userID, "error", err)
		return errors.NewInternalError("Failed to check assignee", err)
	}
	if u == nil {
		return ErrUnknownAssignee
	}
	return nil
}

// sanitize strips markup from free text and returns it unescaped. Input is
// decoded and stripped until it stops changing, so entity-encoded tags never
// come back as live markup.
func (s *Service) sanitize(text string) string {
	clean := text
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(s.sanitizer.Sanitize(html.UnescapeString(clean)))
		if next == clean {
			return strings.TrimSpace(clean)
		}
		clean = next
	}
	// still nesting after every pass: keep the escaped form
	return strings.TrimSpace(s.sanitizer.Sanitize(clean))
}

func (s *Service) sanitizePtr(text *string) *string {
	if text == nil {
		return nil
	}
	clean := s.sanitize(*text)
	if clean == "" {
		return nil
	}
	return &clean
}

func checkVersion(t *Ticket, version int64) error {
	if version != 0 && version != t.Version {
		return errors.ErrVersionConflict.WithDetails(map[string]int64{"current_version": t.Version})
	}
	return nil
}

func newHistory(action string, from *Status, to Status, actor Actor, note *string, at time.Time) *ticketDatamodel.History {
	h := &ticketDatamodel.History{
		Action:    action,
		ToStatus:  stringPtr(string(to)),
		ActorID:   actorPtr(actor),
		Note:      note,
		CreatedAt: at,
	}
	if from != nil {
		h.FromStatus = stringPtr(string(*from))
	}
	return h
}

func actorPtr(actor Actor) *int64 {
	if actor.ID == 0 {
		return nil
	}
	id := actor.ID
	return &id
}

func stringPtr(s string) *string { return &s }

type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Export renders the filtered ticket list.
func (s *Service) Export(ctx context.Context, filter Filter, format export.Format) (*ExportFile, error) {
	tickets, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	data, err := export.Render(format, ExportTable(tickets))
	if err != nil {
		s.logger.Error("failed to render ticket export", "format", format, "error", err)
		return nil, err
	}

	s.logger.Info("tickets exported", "format", format, "count", len(tickets), "bytes", len(data))
	return &ExportFile{
		Filename:    export.Filename("tickets", format, s.now()),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}
