package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/claimsbridge-backend/internal/data/repos"
	types "github.com/yungbote/claimsbridge-backend/internal/domain"
	"github.com/yungbote/claimsbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/claimsbridge-backend/internal/platform/logger"
)

// ServicePeriodInput declares one service interval at registration.
// Intervals may overlap; the pipeline only tests containment.
type ServicePeriodInput struct {
	Branch    string    `json:"branch"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type VeteranService interface {
	Register(ctx context.Context, email, firstName, lastName string, periods []ServicePeriodInput) (*types.Veteran, error)
	Get(ctx context.Context, veteranID uuid.UUID) (*types.Veteran, error)
	ServicePeriods(ctx context.Context, veteranID uuid.UUID) ([]*types.ServicePeriod, error)
}

type veteranService struct {
	db       *gorm.DB
	log      *logger.Logger
	veterans repos.VeteranRepo
	periods  repos.ServicePeriodRepo
}

func NewVeteranService(db *gorm.DB, baseLog *logger.Logger, r repos.All) VeteranService {
	return &veteranService{
		db:       db,
		log:      baseLog.With("service", "VeteranService"),
		veterans: r.Veterans,
		periods:  r.ServicePeriods,
	}
}

func (s *veteranService) Register(ctx context.Context, email, firstName, lastName string, periods []ServicePeriodInput) (*types.Veteran, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("register: missing email")
	}
	for i, p := range periods {
		if p.EndDate.Before(p.StartDate) {
			return nil, fmt.Errorf("register: service period %d ends before it starts", i)
		}
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	created, err := s.veterans.Create(dbc, []*types.Veteran{{
		Email:     email,
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
	}})
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("register: create veteran: %w", err)
	}
	vet := created[0]

	if len(periods) > 0 {
		rows := make([]*types.ServicePeriod, len(periods))
		for i, p := range periods {
			rows[i] = &types.ServicePeriod{
				VeteranID: vet.ID,
				Branch:    strings.TrimSpace(p.Branch),
				StartDate: p.StartDate,
				EndDate:   p.EndDate,
			}
		}
		if _, err := s.periods.Create(dbc, rows); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("register: create service periods: %w", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	s.log.Info("Veteran registered", "veteran_id", vet.ID, "service_periods", len(periods))
	return vet, nil
}

func (s *veteranService) Get(ctx context.Context, veteranID uuid.UUID) (*types.Veteran, error) {
	vets, err := s.veterans.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{veteranID})
	if err != nil {
		return nil, err
	}
	if len(vets) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return vets[0], nil
}

func (s *veteranService) ServicePeriods(ctx context.Context, veteranID uuid.UUID) ([]*types.ServicePeriod, error) {
	return s.periods.GetByVeteranID(dbctx.Context{Ctx: ctx}, veteranID)
}
