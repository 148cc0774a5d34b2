package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/hydrosuite/aquabill/internal/config"
	"github.com/hydrosuite/aquabill/internal/consumption"
	consumptiondomain "github.com/hydrosuite/aquabill/internal/consumption/domain"
	"github.com/hydrosuite/aquabill/internal/customer"
	customerdomain "github.com/hydrosuite/aquabill/internal/customer/domain"
	"github.com/hydrosuite/aquabill/internal/invoice"
	invoicedomain "github.com/hydrosuite/aquabill/internal/invoice/domain"
	"github.com/hydrosuite/aquabill/internal/meter"
	meterdomain "github.com/hydrosuite/aquabill/internal/meter/domain"
	"github.com/hydrosuite/aquabill/internal/meterrequest"
	meterrequestdomain "github.com/hydrosuite/aquabill/internal/meterrequest/domain"
	"github.com/hydrosuite/aquabill/internal/notification"
	notificationdomain "github.com/hydrosuite/aquabill/internal/notification/domain"
	"github.com/hydrosuite/aquabill/internal/observability"
	obsmiddleware "github.com/hydrosuite/aquabill/internal/observability/logger"
	obsmetrics "github.com/hydrosuite/aquabill/internal/observability/metrics"
	obstracing "github.com/hydrosuite/aquabill/internal/observability/tracing"
	"github.com/hydrosuite/aquabill/internal/providers/email"
	"github.com/hydrosuite/aquabill/internal/providers/pdf"
	"github.com/hydrosuite/aquabill/internal/tariff"
	tariffdomain "github.com/hydrosuite/aquabill/internal/tariff/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	email.Module,
	pdf.Module,
	customer.Module,
	meter.Module,
	meterrequest.Module,
	tariff.Module,
	consumption.Module,
	invoice.Module,
	notification.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	genID           *snowflake.Node
	customerSvc     customerdomain.Service
	meterSvc        meterdomain.Service
	meterRequestSvc meterrequestdomain.Service
	tariffSvc       tariffdomain.Service
	consumptionSvc  consumptiondomain.Service
	invoiceSvc      invoicedomain.Service
	notificationSvc notificationdomain.Service
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	GenID           *snowflake.Node
	CustomerSvc     customerdomain.Service
	MeterSvc        meterdomain.Service
	MeterRequestSvc meterrequestdomain.Service
	TariffSvc       tariffdomain.Service
	ConsumptionSvc  consumptiondomain.Service
	InvoiceSvc      invoicedomain.Service
	NotificationSvc notificationdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		genID:           p.GenID,
		customerSvc:     p.CustomerSvc,
		meterSvc:        p.MeterSvc,
		meterRequestSvc: p.MeterRequestSvc,
		tariffSvc:       p.TariffSvc,
		consumptionSvc:  p.ConsumptionSvc,
		invoiceSvc:      p.InvoiceSvc,
		notificationSvc: p.NotificationSvc,
	}

	svc.registerPublicRoutes()
	svc.registerCustomerRoutes()
	svc.registerBackOfficeRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerPublicRoutes wires endpoints reachable without any identity:
// prospective customers file and track meter installation requests here.
func (s *Server) registerPublicRoutes() {
	api := s.engine.Group("/api")

	api.POST("/meter-requests", s.SubmitMeterRequest)
	api.GET("/meter-requests/status", s.GetMeterRequestStatus)
}

// registerCustomerRoutes wires the customer portal. Identity arrives as
// the X-Customer-Id header set by the auth gateway in front of us.
func (s *Server) registerCustomerRoutes() {
	portal := s.engine.Group("/api/customer", s.CustomerContextRequired())

	portal.POST("/consumptions", s.RecordPortalConsumption)
	portal.GET("/consumptions", s.ListOwnConsumptions)

	portal.GET("/tariff-brackets", s.ListTariffBrackets)

	portal.GET("/invoices", s.ListOwnInvoices)
	portal.GET("/invoices/unread", s.ListOwnUnreadInvoices)
	portal.POST("/invoices/:id/mark-as-read", s.MarkInvoiceRead)
	portal.GET("/invoices/:id/pdf", s.DownloadInvoicePDF)

	portal.GET("/meters", s.ListOwnMeters)
	portal.POST("/meters", s.RequestAdditionalMeter)

	portal.GET("/notifications", s.ListOwnNotifications)
	portal.POST("/notifications/mark-all-read", s.MarkNotificationsRead)
}

// registerBackOfficeRoutes wires the employee surface.
func (s *Server) registerBackOfficeRoutes() {
	api := s.engine.Group("/api")

	// -------- Consumptions --------
	api.POST("/consumptions", s.RecordConsumption)
	api.GET("/consumptions/customer/:customerId", s.ListCustomerConsumptions)

	// -------- Invoices --------
	api.POST("/invoices", s.IssueInvoice)
	api.GET("/invoices", s.ListInvoices)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.GET("/last-invoice/:customerId", s.GetLastInvoiceByCustomer)

	// -------- Meter requests --------
	api.GET("/meter-requests", s.ListPendingMeterRequests)
	api.POST("/meter-requests/:id/approve", s.ApproveMeterRequest)
	api.POST("/meter-requests/:id/reject", s.RejectMeterRequest)

	// -------- Tariff brackets --------
	api.GET("/tariff-brackets", s.ListTariffBrackets)
	api.POST("/tariff-brackets", s.CreateTariffBracket)
	api.PUT("/tariff-brackets/:id", s.UpdateTariffBracket)
	api.DELETE("/tariff-brackets/:id", s.DeleteTariffBracket)

	// -------- Meters --------
	api.GET("/meters", s.ListPendingMeters)
	api.GET("/meters/by-serial", s.GetMeterBySerial)
	api.POST("/meters/:id/approve", s.ApproveMeter)
	api.POST("/meters/:id/reject", s.RejectMeter)

	// -------- Customers --------
	api.GET("/customers", s.ListCustomers)
	api.POST("/customers", s.CreateCustomer)
	api.GET("/customers/:id", s.GetCustomerByID)
	api.GET("/customers/:id/meters", s.ListCustomerMeters)

	// -------- Notifications --------
	api.GET("/notifications/employee", s.ListEmployeeNotifications)
	api.GET("/notifications/account-setup", s.ListAccountSetupNotifications)
}
