package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/hydrosuite/aquabill/internal/clock"
	consumptiondomain "github.com/hydrosuite/aquabill/internal/consumption/domain"
	customerdomain "github.com/hydrosuite/aquabill/internal/customer/domain"
	"github.com/hydrosuite/aquabill/internal/invoice/domain"
	meterdomain "github.com/hydrosuite/aquabill/internal/meter/domain"
	notificationdomain "github.com/hydrosuite/aquabill/internal/notification/domain"
	"github.com/hydrosuite/aquabill/internal/observability/metrics"
	"github.com/hydrosuite/aquabill/internal/providers/email"
	"github.com/hydrosuite/aquabill/internal/providers/pdf"
	tariffdomain "github.com/hydrosuite/aquabill/internal/tariff/domain"
	"github.com/hydrosuite/aquabill/pkg/db"
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
	Metrics       *metrics.Metrics
	Repo          domain.Repository
	Consumptions  consumptiondomain.Service
	Tariffs       tariffdomain.Service
	Customers     customerdomain.Service
	Meters        meterdomain.Service
	Notifications notificationdomain.Service
	Email         email.Provider
	PDF           pdf.Renderer
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	metrics       *metrics.Metrics
	repo          domain.Repository
	consumptions  consumptiondomain.Service
	tariffs       tariffdomain.Service
	customers     customerdomain.Service
	meters        meterdomain.Service
	notifications notificationdomain.Service
	email         email.Provider
	pdf           pdf.Renderer
}

func New(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("invoice.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		metrics:       p.Metrics,
		repo:          p.Repo,
		consumptions:  p.Consumptions,
		tariffs:       p.Tariffs,
		customers:     p.Customers,
		meters:        p.Meters,
		notifications: p.Notifications,
		email:         p.Email,
		pdf:           p.PDF,
	}
}

func (s *Service) Issue(ctx context.Context, rawConsumptionID string) (domain.Invoice, error) {
	consumption, err := s.consumptions.GetByID(ctx, rawConsumptionID)
	if err != nil {
		return domain.Invoice{}, err
	}

	// Report a duplicate before touching the bracket table, so the error
	// stays stable even when tariffs changed since the first issuance.
	issued, err := s.repo.FindByConsumption(ctx, s.db, consumption.ID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if issued != nil {
		return domain.Invoice{}, domain.ErrAlreadyIssued
	}

	bracket, err := s.tariffs.Resolve(ctx, consumption.Volume)
	if err != nil {
		return domain.Invoice{}, err
	}

	now := s.clock.Now().UTC()
	invoice := domain.Invoice{
		ID:                 s.genID.Generate(),
		ConsumptionID:      consumption.ID,
		CustomerID:         consumption.CustomerID,
		Volume:             consumption.Volume,
		PricePerCubicMeter: bracket.PricePerCubicMeter,
		Total:              consumption.Volume.Mul(bracket.PricePerCubicMeter).Round(2),
		Year:               consumption.Year,
		Month:              consumption.Month,
		Status:             domain.StatusPending,
		IssuedAt:           now,
		CreatedAt:          now,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByConsumption(ctx, tx, consumption.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrAlreadyIssued
		}
		return s.repo.Insert(ctx, tx, &invoice)
	})
	if err != nil {
		// The unique index on consumption_id closes the race the
		// pre-check cannot.
		if db.IsDuplicateKeyErr(err) {
			return domain.Invoice{}, domain.ErrAlreadyIssued
		}
		return domain.Invoice{}, err
	}

	s.metrics.InvoiceIssued(ctx)

	period := formatPeriod(invoice.Year, invoice.Month)
	message := fmt.Sprintf("Your water invoice for %s is available: %s EUR.", period, invoice.Total.StringFixed(2))
	if _, err := s.notifications.NotifyCustomer(ctx, invoice.CustomerID, notificationdomain.CategoryInvoiceIssued, message); err != nil {
		s.log.Warn("invoice notification failed",
			zap.String("invoice_id", invoice.ID.String()),
			zap.Error(err),
		)
	}

	if customer, err := s.customers.GetByID(ctx, invoice.CustomerID.String()); err == nil {
		subject := "Water invoice " + period
		if err := s.email.Send(ctx, customer.Email, subject, message); err != nil {
			s.log.Warn("invoice email failed",
				zap.String("invoice_id", invoice.ID.String()),
				zap.Error(err),
			)
		}
	}

	s.log.Info("invoice issued",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("customer_id", invoice.CustomerID.String()),
		zap.String("total", invoice.Total.StringFixed(2)),
	)

	return invoice, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Invoice, error) {
	id, err := parseID(rawID)
	if err != nil {
		return domain.Invoice{}, err
	}

	invoice, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}
	return *invoice, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Invoice, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return dereference(items), nil
}

func (s *Service) ListByCustomer(ctx context.Context, customerID snowflake.ID) ([]domain.Invoice, error) {
	if customerID == 0 {
		return nil, domain.ErrInvalidCustomer
	}
	items, err := s.repo.ListByCustomer(ctx, s.db, customerID)
	if err != nil {
		return nil, err
	}
	return dereference(items), nil
}

func (s *Service) ListUnreadByCustomer(ctx context.Context, customerID snowflake.ID) ([]domain.Invoice, error) {
	if customerID == 0 {
		return nil, domain.ErrInvalidCustomer
	}
	items, err := s.repo.ListUnreadByCustomer(ctx, s.db, customerID)
	if err != nil {
		return nil, err
	}
	return dereference(items), nil
}

func (s *Service) MarkRead(ctx context.Context, customerID snowflake.ID, rawID string) error {
	invoice, err := s.ownedByCustomer(ctx, customerID, rawID)
	if err != nil {
		return err
	}
	if invoice.Read {
		return nil
	}

	invoice.Read = true
	return s.repo.Update(ctx, s.db, invoice)
}

func (s *Service) LastByCustomer(ctx context.Context, customerID snowflake.ID) (domain.Invoice, error) {
	if customerID == 0 {
		return domain.Invoice{}, domain.ErrInvalidCustomer
	}

	invoice, err := s.repo.FindLastByCustomer(ctx, s.db, customerID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}
	return *invoice, nil
}

func (s *Service) RenderPDF(ctx context.Context, customerID snowflake.ID, rawID string) ([]byte, error) {
	invoice, err := s.ownedByCustomer(ctx, customerID, rawID)
	if err != nil {
		return nil, err
	}

	customer, err := s.customers.GetByID(ctx, invoice.CustomerID.String())
	if err != nil {
		return nil, err
	}

	doc := pdf.InvoiceDocument{
		InvoiceNumber:   invoice.ID.String(),
		IssueDate:       invoice.IssuedAt.Format("2006-01-02"),
		BillingPeriod:   formatPeriod(invoice.Year, invoice.Month),
		CustomerName:    customer.FullName,
		CustomerAddress: customer.Address,
		CustomerNIF:     customer.NIF,
		Volume:          invoice.Volume.StringFixed(3),
		UnitPrice:       invoice.PricePerCubicMeter.StringFixed(4),
		Total:           invoice.Total.StringFixed(2),
	}

	if consumption, err := s.consumptions.GetByID(ctx, invoice.ConsumptionID.String()); err == nil {
		doc.Reading = consumption.Reading.StringFixed(3)
		if meter, err := s.meters.GetByID(ctx, consumption.MeterID.String()); err == nil {
			doc.MeterSerial = meter.SerialNumber
		}
	}

	return s.pdf.RenderInvoice(ctx, doc)
}

func (s *Service) ownedByCustomer(ctx context.Context, customerID snowflake.ID, rawID string) (*domain.Invoice, error) {
	if customerID == 0 {
		return nil, domain.ErrInvalidCustomer
	}
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}

	invoice, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil || invoice.CustomerID != customerID {
		return nil, domain.ErrNotFound
	}
	return invoice, nil
}

func dereference(items []*domain.Invoice) []domain.Invoice {
	invoices := make([]domain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}
	return invoices
}

func formatPeriod(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
