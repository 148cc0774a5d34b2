package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/hydrosuite/aquabill/internal/clock"
	customerdomain "github.com/hydrosuite/aquabill/internal/customer/domain"
	meterdomain "github.com/hydrosuite/aquabill/internal/meter/domain"
	"github.com/hydrosuite/aquabill/internal/meterrequest/domain"
	notificationdomain "github.com/hydrosuite/aquabill/internal/notification/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Repo          domain.Repository
	Customers     customerdomain.Service
	Meters        meterdomain.Service
	Notifications notificationdomain.Service
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	repo          domain.Repository
	customers     customerdomain.Service
	meters        meterdomain.Service
	notifications notificationdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("meterrequest.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		repo:          p.Repo,
		customers:     p.Customers,
		meters:        p.Meters,
		notifications: p.Notifications,
	}
}

func (s *Service) Submit(ctx context.Context, req domain.SubmitMeterRequest) (domain.MeterRequest, error) {
	name := strings.TrimSpace(req.FullName)
	if name == "" {
		return domain.MeterRequest{}, domain.ErrInvalidName
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.MeterRequest{}, domain.ErrInvalidEmail
	}
	nif := strings.TrimSpace(req.NIF)
	if nif == "" {
		return domain.MeterRequest{}, domain.ErrInvalidNIF
	}

	open, err := s.repo.FindOpenByContact(ctx, s.db, email, nif)
	if err != nil {
		return domain.MeterRequest{}, err
	}
	if open != nil {
		return domain.MeterRequest{}, domain.ErrDuplicateContact
	}

	existing, err := s.customers.FindByContact(ctx, email, nif)
	if err != nil {
		return domain.MeterRequest{}, err
	}
	if existing != nil {
		return domain.MeterRequest{}, domain.ErrDuplicateContact
	}

	now := s.clock.Now().UTC()
	request := domain.MeterRequest{
		ID:        s.genID.Generate(),
		FullName:  name,
		NIF:       nif,
		Email:     email,
		Address:   strings.TrimSpace(req.Address),
		Phone:     strings.TrimSpace(req.Phone),
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &request); err != nil {
		return domain.MeterRequest{}, err
	}

	message := fmt.Sprintf("New meter installation request from %s (%s).", name, email)
	if _, err := s.notifications.NotifyEmployees(ctx, notificationdomain.CategoryMeterRequest, message); err != nil {
		s.log.Warn("employee notification failed",
			zap.String("request_id", request.ID.String()),
			zap.Error(err),
		)
	}

	s.log.Info("meter request submitted", zap.String("request_id", request.ID.String()))
	return request, nil
}

func (s *Service) Approve(ctx context.Context, rawID string) (domain.MeterRequest, error) {
	request, err := s.pendingByID(ctx, rawID)
	if err != nil {
		return domain.MeterRequest{}, err
	}

	// Customer, meter and decision land together or not at all. A partial
	// commit would leave a customer row blocking every retry.
	var (
		customer customerdomain.Customer
		meter    meterdomain.Meter
	)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		customer, err = s.customers.CreateInTx(ctx, tx, customerdomain.CreateCustomerRequest{
			FullName: request.FullName,
			NIF:      request.NIF,
			Email:    request.Email,
			Address:  request.Address,
			Phone:    request.Phone,
		})
		if err != nil {
			return err
		}

		meter, err = s.meters.ProvisionInTx(ctx, tx, customer.ID)
		if err != nil {
			return err
		}

		now := s.clock.Now().UTC()
		request.Status = domain.StatusApproved
		request.CustomerID = &customer.ID
		request.MeterID = &meter.ID
		request.DecidedAt = &now
		request.UpdatedAt = now
		return s.repo.Update(ctx, tx, request)
	})
	if err != nil {
		if errors.Is(err, customerdomain.ErrCustomerExists) {
			return domain.MeterRequest{}, domain.ErrDuplicateContact
		}
		return domain.MeterRequest{}, err
	}

	message := fmt.Sprintf("Set up portal access for %s (meter %s).", customer.FullName, meter.SerialNumber)
	if _, err := s.notifications.NotifyAdmins(ctx, customer.ID, notificationdomain.CategoryAccountSetup, message); err != nil {
		s.log.Warn("account setup notification failed",
			zap.String("customer_id", customer.ID.String()),
			zap.Error(err),
		)
	}

	s.log.Info("meter request approved",
		zap.String("request_id", request.ID.String()),
		zap.String("customer_id", customer.ID.String()),
		zap.String("serial_number", meter.SerialNumber),
	)

	return *request, nil
}

func (s *Service) Reject(ctx context.Context, rawID string, notes string) (domain.MeterRequest, error) {
	request, err := s.pendingByID(ctx, rawID)
	if err != nil {
		return domain.MeterRequest{}, err
	}

	now := s.clock.Now().UTC()
	request.Status = domain.StatusRejected
	request.Notes = strings.TrimSpace(notes)
	request.DecidedAt = &now
	request.UpdatedAt = now

	if err := s.repo.Update(ctx, s.db, request); err != nil {
		return domain.MeterRequest{}, err
	}

	s.log.Info("meter request rejected", zap.String("request_id", request.ID.String()))
	return *request, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.MeterRequest, error) {
	id, err := parseID(rawID)
	if err != nil {
		return domain.MeterRequest{}, err
	}

	request, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.MeterRequest{}, err
	}
	if request == nil {
		return domain.MeterRequest{}, domain.ErrNotFound
	}
	return *request, nil
}

func (s *Service) ListPending(ctx context.Context) ([]domain.MeterRequest, error) {
	items, err := s.repo.ListByStatus(ctx, s.db, domain.StatusPending)
	if err != nil {
		return nil, err
	}

	requests := make([]domain.MeterRequest, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		requests = append(requests, *item)
	}
	return requests, nil
}

func (s *Service) StatusByContact(ctx context.Context, email, nif string) (domain.MeterRequest, error) {
	email = strings.TrimSpace(email)
	nif = strings.TrimSpace(nif)
	if email == "" && nif == "" {
		return domain.MeterRequest{}, domain.ErrInvalidContact
	}

	request, err := s.repo.FindLatestByContact(ctx, s.db, email, nif)
	if err != nil {
		return domain.MeterRequest{}, err
	}
	if request == nil {
		return domain.MeterRequest{}, domain.ErrNotFound
	}
	return *request, nil
}

func (s *Service) pendingByID(ctx context.Context, rawID string) (*domain.MeterRequest, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}

	request, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, domain.ErrNotFound
	}
	if request.Status != domain.StatusPending {
		return nil, domain.ErrAlreadyDecided
	}
	return request, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
