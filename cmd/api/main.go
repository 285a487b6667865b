package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/vatsinhr/settlement-backend-go/internal/config"
	"github.com/vatsinhr/settlement-backend-go/internal/domain/employee"
	"github.com/vatsinhr/settlement-backend-go/internal/domain/notification"
	"github.com/vatsinhr/settlement-backend-go/internal/domain/settlement"
	appHTTP "github.com/vatsinhr/settlement-backend-go/internal/handler/http"
	"github.com/vatsinhr/settlement-backend-go/internal/pkg/database"
	"github.com/vatsinhr/settlement-backend-go/internal/pkg/jwt"
	"github.com/vatsinhr/settlement-backend-go/internal/pkg/sse"
	"github.com/vatsinhr/settlement-backend-go/internal/repository/memory"
	"github.com/vatsinhr/settlement-backend-go/internal/repository/postgresql"
	authService "github.com/vatsinhr/settlement-backend-go/internal/service/auth"
	employeeService "github.com/vatsinhr/settlement-backend-go/internal/service/employee"
	notificationService "github.com/vatsinhr/settlement-backend-go/internal/service/notification"
	settlementService "github.com/vatsinhr/settlement-backend-go/internal/service/settlement"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
		slog.String("app", "settlement-backend"),
	)

	var (
		ledgerRepo       settlement.LedgerRepository
		auditRepo        settlement.AuditRepository
		distributionRepo settlement.DistributionRepository
		txRunner         settlement.TxRunner
		employeeRepo     employee.EmployeeRepository
		notificationRepo notification.Repository
	)

	switch cfg.App.StoreDriver {
	case "postgres":
		db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
		if err != nil {
			fmt.Println("Error connecting to database:", err)
			return
		}
		defer db.Close()

		ledgerRepo = postgresql.NewLedgerRepository(db)
		auditRepo = postgresql.NewAuditRepository(db)
		distributionRepo = postgresql.NewDistributionRepository(db)
		txRunner = postgresql.NewTxManager(db)
		employeeRepo = postgresql.NewEmployeeRepository(db)
		notificationRepo = postgresql.NewNotificationRepository(db)
	case "memory":
		store := memory.NewStore()
		ledgerRepo = memory.NewLedgerRepository(store)
		auditRepo = memory.NewAuditRepository(store)
		distributionRepo = memory.NewDistributionRepository(store)
		txRunner = store
		employeeRepo = memory.NewEmployeeRepository(store)
		notificationRepo = memory.NewNotificationRepository(store)
	}

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	hub := sse.NewHub()

	notifSvc := notificationService.NewNotificationService(notificationRepo, hub, logger, notificationService.Config{})
	defer notifSvc.Shutdown()

	authSvc := authService.NewAuthService(cfg.Admin, cfg.Auditor, jwtService)
	employeeSvc := employeeService.NewEmployeeService(employeeRepo)
	settlementSvc := settlementService.NewSettlementService(
		ledgerRepo,
		auditRepo,
		distributionRepo,
		txRunner,
		employeeRepo,
		notifSvc,
		logger,
	)

	authHandler := appHTTP.NewAuthHandler(authSvc)
	employeeHandler := appHTTP.NewEmployeeHandler(employeeSvc)
	settlementHandler := appHTTP.NewSettlementHandler(settlementSvc)
	notificationHandler := appHTTP.NewNotificationHandler(notifSvc, jwtService, hub)

	router := appHTTP.NewRouter(
		cfg,
		jwtService,
		authHandler,
		employeeHandler,
		settlementHandler,
		notificationHandler,
	)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
