package alert

import (
	"context"
	"log/slog"
	"strings"

	errors "github.com/frahmantamala/pos-helpdesk/internal"
	alertDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/alert"
	"github.com/frahmantamala/pos-helpdesk/internal/ticket"
)

const MessageAlertSent = "alert sent"

type RepositoryAPI interface {
	LogStore
	RetryStore
	ChatLookup
	ListLogs(ctx context.Context, ticketID *int64, limit int) ([]*alertDatamodel.Log, error)
	ListGroups(ctx context.Context) ([]*alertDatamodel.TelegramGroup, error)
	GetGroup(ctx context.Context, id int64) (*alertDatamodel.TelegramGroup, error)
	GetGroupByChatID(ctx context.Context, chatID int64) (*alertDatamodel.TelegramGroup, error)
	CreateGroup(ctx context.Context, g *alertDatamodel.TelegramGroup) error
	GroupMembers(ctx context.Context, groupIDs ...int64) (map[int64][]int64, error)
	AddMember(ctx context.Context, m *alertDatamodel.UserGroup) error
	RemoveMember(ctx context.Context, groupID, userID int64) error
}

type TicketReader interface {
	Get(ctx context.Context, id int64) (*ticket.Ticket, error)
}

type Service struct {
	repo       RepositoryAPI
	dispatcher MessageDispatcher
	notifier   *TicketNotifier
	tickets    TicketReader
	users      UserLookup
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, dispatcher MessageDispatcher, notifier *TicketNotifier, tickets TicketReader, users UserLookup, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		dispatcher: dispatcher,
		notifier:   notifier,
		tickets:    tickets,
		users:      users,
		logger:     logger,
	}
}

// SendManual alerts the ticket's recipients on one platform. Every attempt
// is logged even when the send fails.
func (s *Service) SendManual(ctx context.Context, dto SendAlertDTO) (*SendAlertResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	platform, err := ParsePlatform(dto.Platform)
	if err != nil {
		return nil, err
	}

	t, err := s.tickets.Get(ctx, dto.TicketID)
	if err != nil {
		return nil, err
	}

	all, err := s.notifier.Recipients(ctx, t)
	if err != nil {
		return nil, errors.NewInternalError("Failed to resolve alert recipients", err)
	}
	var recipients []Recipient
	for _, r := range all {
		if r.Platform == platform {
			recipients = append(recipients, r)
		}
	}
	if len(recipients) == 0 {
		return nil, ErrNoRecipients.WithDetails(map[string]string{"platform": string(platform)})
	}

	subject, body := FormatTicketAlert(KindManual, t)
	if text := strings.TrimSpace(dto.Message); text != "" {
		body = text + "\n\n" + body
	}

	id := t.ID
	result := s.dispatcher.Dispatch(ctx, Message{
		TicketID:   &id,
		Subject:    subject,
		Body:       body,
		Recipients: recipients,
	})
	if err := result.Err(); err != nil {
		s.logger.Warn("manual alert failed", "ticket_id", t.ID, "platform", platform, "error", err)
		return nil, err
	}

	s.logger.Info("manual alert sent", "ticket_id", t.ID, "platform", platform, "recipients", result.Sent)
	return &SendAlertResponse{Message: MessageAlertSent, Result: result}, nil
}

func (s *Service) ListLogs(ctx context.Context, ticketID *int64, limit int) ([]*Log, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.repo.ListLogs(ctx, ticketID, limit)
	if err != nil {
		s.logger.Error("failed to list alert logs", "error", err)
		return nil, errors.NewInternalError("Failed to list alert logs", err)
	}
	logs := make([]*Log, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, LogFromDataModel(row))
	}
	return logs, nil
}

func (s *Service) ListGroups(ctx context.Context) ([]*Group, error) {
	rows, err := s.repo.ListGroups(ctx)
	if err != nil {
		s.logger.Error("failed to list telegram groups", "error", err)
		return nil, errors.NewInternalError("Failed to list telegram groups", err)
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	members, err := s.repo.GroupMembers(ctx, ids...)
	if err != nil {
		s.logger.Error("failed to list telegram group members", "error", err)
		return nil, errors.NewInternalError("Failed to list telegram groups", err)
	}

	groups := make([]*Group, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, GroupFromDataModel(row, members[row.ID]))
	}
	return groups, nil
}

func (s *Service) CreateGroup(ctx context.Context, dto GroupDTO) (*Group, error) {
	dto.Name = strings.TrimSpace(dto.Name)
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetGroupByChatID(ctx, dto.ChatID)
	if err != nil {
		return nil, errors.NewInternalError("Failed to check telegram chat", err)
	}
	if existing != nil {
		return nil, ErrDuplicateChat
	}

	row := &alertDatamodel.TelegramGroup{Name: dto.Name, ChatID: dto.ChatID}
	if err := s.repo.CreateGroup(ctx, row); err != nil {
		s.logger.Error("failed to create telegram group", "chat_id", dto.ChatID, "error", err)
		return nil, errors.NewInternalError("Failed to create telegram group", err)
	}

	s.logger.Info("telegram group created", "id", row.ID, "chat_id", row.ChatID)
	return GroupFromDataModel(row, nil), nil
}

func (s *Service) AddMember(ctx context.Context, groupID int64, dto MemberDTO) (*Group, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	group, err := s.group(ctx, groupID)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, dto.UserID)
	if err != nil {
		return nil, errors.NewInternalError("Failed to look up user", err)
	}
	if u == nil {
		return nil, errors.NewNotFoundError("User not found", errors.ErrCodeUserNotFound)
	}

	if err := s.repo.AddMember(ctx, &alertDatamodel.UserGroup{UserID: dto.UserID, GroupID: groupID}); err != nil {
		s.logger.Error("failed to add telegram group member", "group_id", groupID, "users_id", dto.UserID, "error", err)
		return nil, errors.NewInternalError("Failed to add group member", err)
	}
	return s.withMembers(ctx, group)
}

func (s *Service) RemoveMember(ctx context.Context, groupID, userID int64) (*Group, error) {
	group, err := s.group(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RemoveMember(ctx, groupID, userID); err != nil {
		s.logger.Error("failed to remove telegram group member", "group_id", groupID, "users_id", userID, "error", err)
		return nil, errors.NewInternalError("Failed to remove group member", err)
	}
	return s.withMembers(ctx, group)
}

func (s *Service) group(ctx context.Context, id int64) (*alertDatamodel.TelegramGroup, error) {
	group, err := s.repo.GetGroup(ctx, id)
	if err != nil {
		return nil, errors.NewInternalError("Failed to load telegram group", err)
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

func (s *Service) withMembers(ctx context.Context, group *alertDatamodel.TelegramGroup) (*Group, error) {
	members, err := s.repo.GroupMembers(ctx, group.ID)
	if err != nil {
		return nil, errors.NewInternalError("Failed to list group members", err)
	}
	return GroupFromDataModel(group, members[group.ID]), nil
}
