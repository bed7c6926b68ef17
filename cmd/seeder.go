package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	roleDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/role"
	stationDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/station"
	userDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/user"
	stationPostgres "github.com/frahmantamala/pos-helpdesk/internal/station/postgres"
	"github.com/frahmantamala/pos-helpdesk/internal/ticket"
	ticketPostgres "github.com/frahmantamala/pos-helpdesk/internal/ticket/postgres"
	userPostgres "github.com/frahmantamala/pos-helpdesk/internal/user/postgres"
	"github.com/frahmantamala/pos-helpdesk/pkg/logger"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with roles, users, stations and a few tickets for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		db, err := initGorm(sqlDB)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		ctx := context.Background()
		if clearData {
			if err := clearTables(db); err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		if err := seedRoles(db, cfg.Security.LegacyAdminRoleID); err != nil {
			log.Fatalf("failed to seed roles: %v", err)
		}
		users, err := seedUsers(db, cfg.Security.LegacyAdminRoleID, cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to seed users: %v", err)
		}
		if err := seedStations(db); err != nil {
			log.Fatalf("failed to seed stations: %v", err)
		}
		if err := seedTickets(ctx, db, users); err != nil {
			log.Fatalf("failed to seed tickets: %v", err)
		}

		fmt.Println("Seed completed")
	},
}

// seededTables are cleared child first.
var seededTables = []string{
	"user_groups", "telegram_groups", "alert_logs",
	"ticket_images", "ticket_histories", "tickets", "ticket_code_counters",
	"stations", "users", "rules",
}

func clearTables(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, table := range seededTables {
			if err := tx.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

func on() *int  { v := 1; return &v }
func off() *int { v := 0; return &v }

func seedRoles(db *gorm.DB, adminRoleID int64) error {
	admin := true
	notAdmin := false

	roles := []roleDatamodel.Rule{
		{
			ID: adminRoleID, Name: "Administrator", IsAdmin: &admin, Version: 1,
			AddUserStatus: on(), EditUserStatus: on(), DeleteUserStatus: on(), ListUserStatus: on(),
			AddTicketStatus: on(), EditTicketStatus: on(), DeleteTicketStatus: on(), ListTicketStatus: on(), ListTicketAssignStatus: on(),
			AddStationStatus: on(), EditStationStatus: on(), DeleteStationStatus: on(), ListStationStatus: on(),
			AddUserRulesStatus: on(), EditUserRulesStatus: on(), DeleteUserRulesStatus: on(), ListUserRulesStatus: on(),
			ListDashboard: on(), ListTrack: on(), ListReport: on(),
		},
		{
			Name: "Technician", IsAdmin: &notAdmin, Version: 1,
			ListUserStatus:  on(),
			AddTicketStatus: on(), EditTicketStatus: on(), ListTicketStatus: on(), ListTicketAssignStatus: on(),
			ListStationStatus: on(),
			ListDashboard:     on(), ListTrack: on(), ListReport: off(),
		},
		{
			Name: "Station Operator", IsAdmin: &notAdmin, Version: 1,
			AddTicketStatus: on(), ListTicketStatus: on(),
			ListStationStatus: on(),
		},
	}

	for i := range roles {
		r := &roles[i]
		var existing roleDatamodel.Rule
		err := db.Where("rules_name = ?", r.Name).First(&existing).Error
		if err == nil {
			fmt.Println("role already exists:", r.Name)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(r).Error; err != nil {
			return fmt.Errorf("insert role %s: %w", r.Name, err)
		}
		fmt.Println("Seeded role:", r.Name)
	}

	// the administrator row was inserted with an explicit id
	return db.Exec("SELECT setval(pg_get_serial_sequence('rules', 'rules_id'), (SELECT MAX(rules_id) FROM rules))").Error
}

type seededUsers struct {
	Admin      *userDatamodel.User
	Technician *userDatamodel.User
}

func seedUsers(db *gorm.DB, adminRoleID int64, cost int) (*seededUsers, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), cost)
	if err != nil {
		return nil, err
	}

	var technicianRole roleDatamodel.Rule
	if err := db.Where("rules_name = ?", "Technician").First(&technicianRole).Error; err != nil {
		return nil, fmt.Errorf("lookup technician role: %w", err)
	}

	ensure := func(name, email string, roleID int64) (*userDatamodel.User, error) {
		var u userDatamodel.User
		err := db.Where("email = ?", email).First(&u).Error
		if err == nil {
			fmt.Println("user already exists:", email)
			return &u, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		u = userDatamodel.User{Name: name, Email: email, PasswordHash: string(hash), RoleID: roleID}
		if err := db.Create(&u).Error; err != nil {
			return nil, fmt.Errorf("insert user %s: %w", email, err)
		}
		fmt.Println("Seeded user:", email)
		return &u, nil
	}

	admin, err := ensure("Helpdesk Admin", "admin@helpdesk.local", adminRoleID)
	if err != nil {
		return nil, err
	}
	tech, err := ensure("Field Technician", "tech@helpdesk.local", technicianRole.ID)
	if err != nil {
		return nil, err
	}
	return &seededUsers{Admin: admin, Technician: tech}, nil
}

var sampleStations = []stationDatamodel.Station{
	{Code: "ST-1001", Name: "Sukhumvit 71", StationType: "COCO", Province: "Bangkok"},
	{Code: "ST-1002", Name: "Rama 2 Km.9", StationType: "DODO", Province: "Samut Sakhon"},
	{Code: "ST-2001", Name: "Chiang Mai Superhighway", StationType: "COCO", Province: "Chiang Mai"},
}

func seedStations(db *gorm.DB) error {
	for i := range sampleStations {
		st := sampleStations[i]
		var n int64
		if err := db.Model(&stationDatamodel.Station{}).Where("station_id = ?", st.Code).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			continue
		}
		if err := db.Create(&st).Error; err != nil {
			return fmt.Errorf("insert station %s: %w", st.Code, err)
		}
		fmt.Println("Seeded station:", st.Code)
	}
	return nil
}

// seedTickets goes through the ticket service so codes, history and
// timestamps are produced the same way as over the API. Alerts are off.
func seedTickets(ctx context.Context, db *gorm.DB, users *seededUsers) error {
	var n int64
	if err := db.Table("tickets").Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		fmt.Println("tickets already present; skipping")
		return nil
	}

	svc := ticket.NewService(
		ticketPostgres.NewTicketRepository(db),
		stationPostgres.NewStationRepository(db),
		userPostgres.NewUserRepository(db),
		logger.LoggerWrapper(),
	)
	actor := ticket.Actor{ID: users.Admin.ID, IsAdmin: true}
	assignee := users.Technician.ID

	samples := []ticket.CreateTicketDTO{
		{StationID: "ST-1001", IssueCategory: string(ticket.CategoryPTTDigital), IssueType: "Network", IssueDescription: "POS terminals offline since opening", AssigneeID: &assignee},
		{StationID: "ST-1002", IssueCategory: string(ticket.CategoryThirdParty), IssueType: "Dispenser", IssueDescription: "Dispenser 3 stops at 20 litres"},
		{StationID: "ST-2001", IssueCategory: string(ticket.CategoryPTTDigital), IssueType: "Fleetcard", IssueDescription: "Fleetcard payments declined"},
	}
	for _, dto := range samples {
		res, err := svc.Create(ctx, actor, dto)
		if err != nil {
			return fmt.Errorf("create ticket for %s: %w", dto.StationID, err)
		}
		fmt.Println("Seeded ticket:", res.Ticket.Code)
	}

	first, err := svc.List(ctx, ticket.Filter{StationID: "ST-1001"})
	if err != nil || len(first) == 0 {
		return err
	}
	_, err = svc.ChangeStatus(ctx, actor, first[0].ID, ticket.StatusDTO{Status: string(ticket.StatusInProgress)})
	return err
}
