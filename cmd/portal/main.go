package main

import (
	"fmt"
	"os"

	"github.com/nurpe/storebox-portal/internal/auth"
	"github.com/nurpe/storebox-portal/internal/config"
	"github.com/nurpe/storebox-portal/internal/db"
	"github.com/nurpe/storebox-portal/internal/excel"
	httphandler "github.com/nurpe/storebox-portal/internal/http"
	"github.com/nurpe/storebox-portal/internal/http/middleware"
	"github.com/nurpe/storebox-portal/internal/logger"
	"github.com/nurpe/storebox-portal/internal/payment"
	"github.com/nurpe/storebox-portal/internal/pdf"
	"github.com/nurpe/storebox-portal/internal/repository"
	"github.com/nurpe/storebox-portal/internal/service"
	"github.com/nurpe/storebox-portal/internal/warehouse"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	orderRepo := repository.NewOrderRepository(database)
	reportRepo := repository.NewReportRepository(database)

	paymentClient := payment.NewClient(cfg.Payments.BaseURL, cfg.Payments.Timeout)
	warehouseClient := warehouse.NewClient(cfg.Warehouse.BaseURL, cfg.Warehouse.Timeout)

	pdfGenerator, err := pdf.NewGenerator(cfg.PDF.FontPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init pdf generator")
	}
	excelGenerator := excel.NewGenerator()

	orderService := service.NewOrderService(orderRepo, paymentClient, warehouseClient, cfg, log)
	reportService := service.NewReportService(reportRepo, orderRepo, excelGenerator, pdfGenerator)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(orderService, reportService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting storage portal")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
