// cmd/server/main.go
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/leadvault/leadvault-backend/internal/config"
	"github.com/leadvault/leadvault-backend/internal/db"
	"github.com/leadvault/leadvault-backend/internal/dispatch"
	"github.com/leadvault/leadvault-backend/internal/events"
	"github.com/leadvault/leadvault-backend/internal/handler"
	"github.com/leadvault/leadvault-backend/internal/model"
	"github.com/leadvault/leadvault-backend/internal/provider"
	"github.com/leadvault/leadvault-backend/internal/repository"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()

	database, err := db.Open(cfg, logger)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}
	defer database.Close()

	campaignRepo := &repository.CampaignRepository{DB: database}
	deliveryLogRepo := &repository.DeliveryLogRepository{DB: database}
	leadRepo := &repository.LeadRepository{DB: database}
	importRepo := &repository.ImportRepository{DB: database}
	auditRepo := &repository.AuditLogRepository{DB: database}

	publisher := events.Resolve(cfg.AMQPURL, logger)

	emailDispatcher := &dispatch.EmailDispatcher{
		Campaigns:          campaignRepo,
		Logs:               deliveryLogRepo,
		Sender:             provider.ResolveEmailSender(cfg, logger),
		Events:             publisher,
		DefaultSenderEmail: cfg.SenderEmail,
		DefaultSenderName:  cfg.SenderName,
		Log:                logger,
	}

	smsDispatcher := &dispatch.SMSDispatcher{
		Campaigns:         campaignRepo,
		Logs:              deliveryLogRepo,
		Events:            publisher,
		FallbackSenderID:  cfg.SMSSenderID,
		DefaultSenderName: cfg.SMSSenderName,
		PhonePrefix:       cfg.PhoneCountryPrefix,
		Log:               logger,
	}

	campaignHandler := &handler.CampaignHandler{
		Email:     emailDispatcher,
		SMS:       smsDispatcher,
		Campaigns: campaignRepo,
		Logs:      deliveryLogRepo,
		Log:       logger,
	}

	if cfg.SMSConfigured() {
		gateway := provider.NewSMSClient(cfg.SMSAPIBase, cfg.SMSUsername, cfg.SMSAPIKey, cfg.SendTimeout, logger)
		smsDispatcher.Gateway = gateway
		campaignHandler.Balance = gateway
	} else {
		logger.Warn("SMS gateway credentials not set, SMS sending disabled")
	}

	leadHandler := &handler.LeadHandler{
		Leads:   leadRepo,
		Imports: importRepo,
		Audits:  auditRepo,
		Log:     logger,
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	// Campaign routes
	r.Post("/api/send-bulk-email", campaignHandler.SendBulkEmail)
	r.Post("/api/send-bulk-sms", campaignHandler.SendBulkSMS)
	r.Get("/api/sms-balance", campaignHandler.SMSBalance)
	r.Get("/api/email-campaigns", campaignHandler.ListCampaigns(model.ChannelEmail))
	r.Get("/api/sms-campaigns", campaignHandler.ListCampaigns(model.ChannelSMS))
	r.Get("/api/email-report/{id}", campaignHandler.CampaignReport(model.ChannelEmail))
	r.Get("/api/sms-report/{id}", campaignHandler.CampaignReport(model.ChannelSMS))

	// Lead routes
	r.Get("/api/leads", leadHandler.ListLeads)
	r.Post("/api/leads", leadHandler.CreateLead)
	r.Put("/api/leads/{id}", leadHandler.UpdateLead)
	r.Delete("/api/leads/{id}", leadHandler.DeleteLead)
	r.Post("/api/imports", leadHandler.Import)

	logger.Info("server running", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
