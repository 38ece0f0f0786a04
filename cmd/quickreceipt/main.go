package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	database "github.com/quickreceipt/quickreceipt/db"
	"github.com/quickreceipt/quickreceipt/internal/auth"
	emailService "github.com/quickreceipt/quickreceipt/internal/email"
	"github.com/quickreceipt/quickreceipt/internal/files"
	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/application"
	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/infrastructure"
	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/interfaces"
	"github.com/quickreceipt/quickreceipt/internal/user"
)

type Response struct {
	Message string `json:"message"`
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("Started %s %s", r.Method, r.URL.Path)

		next.ServeHTTP(w, r)

		log.Printf("Completed %s in %v", r.URL.Path, time.Since(start))
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string, errs ...[]string) {
	payload := map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	}
	if len(errs) > 0 && len(errs[0]) > 0 {
		payload["errors"] = errs[0]
	}
	respondJSON(w, status, payload)
}

type Server struct {
	router             *http.ServeMux
	dbService          *database.DBService
	authService        auth.Service
	authHandler        *auth.Handler
	userHandler        *user.Handler
	onboardingHandler  *interfaces.OnboardingHandler
	teamHandler        *interfaces.TeamHandler
	budgetHandler      *interfaces.BudgetHandler
	transactionHandler *interfaces.TransactionHandler
	receiptHandler     *interfaces.ReceiptHandler
	categoryHandler    *interfaces.CategoryHandler
	invitationHandler  *interfaces.InvitationHandler
	fileHandler        *files.Handler
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(Response{Message: "Path not found"})
}

func checkConfiguration() error {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, continuing with system environment variables")
	}

	if os.Getenv("JWT_SECRET") == "" {
		return errors.New("no JWT_SECRET Provided")
	}
	if os.Getenv("DATABASE_URL") == "" {
		return errors.New("no DATABASE_URL Provided")
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.dbService.Health())
}

func (s *Server) RegisterRoutes() {
	// Public routes
	publicRoutes := http.NewServeMux()
	publicRoutes.Handle("POST /api/register", http.HandlerFunc(s.userHandler.HandleRegister))
	publicRoutes.Handle("POST /api/email/verify", http.HandlerFunc(s.userHandler.HandleVerifyEmail))
	publicRoutes.Handle("POST /api/auth/login", http.HandlerFunc(s.authHandler.HandleLogin))
	publicRoutes.Handle("POST /api/auth/logout", http.HandlerFunc(s.authHandler.HandleLogout))
	publicRoutes.Handle("POST /api/auth/2fa/verify", http.HandlerFunc(s.authHandler.HandleVerifyTwoFactor))
	publicRoutes.Handle("POST /api/password-reset/request", http.HandlerFunc(s.authHandler.RequestPasswordResetHandler))
	publicRoutes.Handle("POST /api/password-reset/confirm", http.HandlerFunc(s.authHandler.ResetPasswordHandler))
	publicRoutes.Handle("POST /api/onboard-organization", http.HandlerFunc(s.onboardingHandler.OnboardOrganization))
	publicRoutes.Handle("GET /api/health", http.HandlerFunc(s.handleHealth))

	// Protected routes (using JWT Access Token Middleware)
	protectedRoutes := http.NewServeMux()
	withAuth := s.authService.JWTAccessTokenMiddleware()

	protectedRoutes.Handle("GET /api/protected/profile", withAuth(http.HandlerFunc(s.userHandler.HandleGetUserProfile)))
	protectedRoutes.Handle("POST /api/protected/change-password", withAuth(http.HandlerFunc(s.userHandler.HandleChangePassword)))

	protectedRoutes.Handle("POST /api/protected/2fa/register", withAuth(http.HandlerFunc(s.authHandler.HandleRegisterTwoFactor)))
	protectedRoutes.Handle("POST /api/protected/2fa/verify-registration", withAuth(http.HandlerFunc(s.authHandler.HandleVerifyTwoFactorCode)))
	protectedRoutes.Handle("POST /api/protected/2fa/request-email-code", withAuth(http.HandlerFunc(s.authHandler.HandleRequestEmail2FACode)))
	protectedRoutes.Handle("DELETE /api/protected/2fa/disable", withAuth(http.HandlerFunc(s.authHandler.HandleDisableTwoFactor)))

	// ORGANIZATION API
	protectedRoutes.Handle("GET /api/protected/categories", withAuth(http.HandlerFunc(s.categoryHandler.ListCategories)))
	protectedRoutes.Handle("POST /api/protected/categories", withAuth(http.HandlerFunc(s.categoryHandler.CreateCategory)))
	protectedRoutes.Handle("POST /api/protected/leads/invite", withAuth(http.HandlerFunc(s.invitationHandler.InviteTeamLead)))
	protectedRoutes.Handle("POST /api/protected/teams/invite-user", withAuth(http.HandlerFunc(s.invitationHandler.InviteExistingUser)))

	// TEAMS API
	protectedRoutes.Handle("GET /api/protected/teams", withAuth(http.HandlerFunc(s.teamHandler.ListTeams)))
	protectedRoutes.Handle("POST /api/protected/teams", withAuth(http.HandlerFunc(s.teamHandler.CreateTeam)))
	protectedRoutes.Handle("GET /api/protected/teams/{teamID}", withAuth(http.HandlerFunc(s.teamHandler.GetTeam)))
	protectedRoutes.Handle("PUT /api/protected/teams/{teamID}", withAuth(http.HandlerFunc(s.teamHandler.UpdateTeam)))
	protectedRoutes.Handle("DELETE /api/protected/teams/{teamID}", withAuth(http.HandlerFunc(s.teamHandler.DeleteTeam)))

	// BUDGETS API
	protectedRoutes.Handle("GET /api/protected/teams/{teamID}/budgets", withAuth(http.HandlerFunc(s.budgetHandler.ListBudgets)))
	protectedRoutes.Handle("POST /api/protected/teams/{teamID}/budgets", withAuth(http.HandlerFunc(s.budgetHandler.CreateBudget)))
	protectedRoutes.Handle("GET /api/protected/teams/{teamID}/budgets/{budgetID}", withAuth(http.HandlerFunc(s.budgetHandler.GetBudget)))
	protectedRoutes.Handle("PUT /api/protected/teams/{teamID}/budgets/{budgetID}", withAuth(http.HandlerFunc(s.budgetHandler.UpdateBudget)))
	protectedRoutes.Handle("DELETE /api/protected/teams/{teamID}/budgets/{budgetID}", withAuth(http.HandlerFunc(s.budgetHandler.DeleteBudget)))
	protectedRoutes.Handle("PATCH /api/protected/teams/{teamID}/budgets/{budgetID}/toggle-status", withAuth(http.HandlerFunc(s.budgetHandler.ToggleBudgetStatus)))
	protectedRoutes.Handle("GET /api/protected/teams/{teamID}/budgets/{budgetID}/summary", withAuth(http.HandlerFunc(s.budgetHandler.GetBudgetSummary)))

	// TRANSACTIONS API
	protectedRoutes.Handle("GET /api/protected/budgets/{budgetID}/transactions", withAuth(http.HandlerFunc(s.transactionHandler.ListTransactions)))
	protectedRoutes.Handle("POST /api/protected/budgets/{budgetID}/transactions", withAuth(http.HandlerFunc(s.transactionHandler.CreateTransaction)))
	protectedRoutes.Handle("GET /api/protected/budgets/{budgetID}/transactions/{transactionID}", withAuth(http.HandlerFunc(s.transactionHandler.GetTransaction)))
	protectedRoutes.Handle("PUT /api/protected/budgets/{budgetID}/transactions/{transactionID}", withAuth(http.HandlerFunc(s.transactionHandler.UpdateTransaction)))
	protectedRoutes.Handle("DELETE /api/protected/budgets/{budgetID}/transactions/{transactionID}", withAuth(http.HandlerFunc(s.transactionHandler.DeleteTransaction)))

	// RECEIPTS API
	protectedRoutes.Handle("GET /api/protected/budgets/{budgetID}/receipts", withAuth(http.HandlerFunc(s.receiptHandler.ListReceipts)))
	protectedRoutes.Handle("POST /api/protected/budgets/{budgetID}/receipts", withAuth(http.HandlerFunc(s.receiptHandler.UploadReceipt)))
	protectedRoutes.Handle("GET /api/protected/budgets/{budgetID}/receipts/{receiptID}", withAuth(http.HandlerFunc(s.receiptHandler.GetReceipt)))
	protectedRoutes.Handle("PUT /api/protected/budgets/{budgetID}/receipts/{receiptID}/file", withAuth(http.HandlerFunc(s.receiptHandler.ReplaceReceiptFile)))
	protectedRoutes.Handle("DELETE /api/protected/budgets/{budgetID}/receipts/{receiptID}", withAuth(http.HandlerFunc(s.receiptHandler.DeleteReceipt)))
	protectedRoutes.Handle("GET /api/protected/budgets/{budgetID}/receipts/{receiptID}/url", withAuth(http.HandlerFunc(s.receiptHandler.GetReceiptURL)))

	// FILES API
	protectedRoutes.Handle("POST /api/protected/files", withAuth(http.HandlerFunc(s.fileHandler.Upload)))
	protectedRoutes.Handle("GET /api/protected/files/{fileID}", withAuth(http.HandlerFunc(s.fileHandler.Show)))
	protectedRoutes.Handle("PUT /api/protected/files/{fileID}", withAuth(http.HandlerFunc(s.fileHandler.Replace)))
	protectedRoutes.Handle("DELETE /api/protected/files/{fileID}", withAuth(http.HandlerFunc(s.fileHandler.Delete)))
	protectedRoutes.Handle("GET /api/protected/files/{fileID}/url", withAuth(http.HandlerFunc(s.fileHandler.GetURL)))

	// Refresh token routes
	refreshTokenRoutes := http.NewServeMux()
	refreshTokenRoutes.Handle("PUT /api/auth/refresh/token", s.authService.JWTRefreshTokenMiddleware()(http.HandlerFunc(s.authHandler.RefreshAccessToken)))

	// Main router
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/api/auth/refresh/", refreshTokenRoutes)
	mainRouter.Handle("/api/protected/", protectedRoutes)
	mainRouter.Handle("/api/", publicRoutes)
	if os.Getenv("FILE_STORAGE_DRIVER") != "s3" {
		// The local storage driver mints URLs under /files/.
		mainRouter.Handle("GET /files/", http.StripPrefix("/files/", http.FileServer(http.Dir(localStorageDir()))))
	}
	mainRouter.Handle("/", http.HandlerFunc(notFoundHandler))

	s.router = mainRouter
}

func localStorageDir() string {
	baseDir := os.Getenv("STORAGE_DIR")
	if baseDir == "" {
		baseDir = "storage"
	}
	return baseDir
}

func newStorage(fileRepo *files.Repository) (files.Storage, error) {
	if os.Getenv("FILE_STORAGE_DRIVER") == "s3" {
		bucket := os.Getenv("S3_BUCKET")
		if bucket == "" {
			return nil, errors.New("no S3_BUCKET Provided")
		}
		return files.NewS3Storage(bucket, fileRepo)
	}

	return files.NewLocalStorage(localStorageDir(), os.Getenv("APP_URL")+"/files", fileRepo), nil
}

func main() {
	if err := checkConfiguration(); err != nil {
		log.Fatalf("Missing configuration, update to start server: %v", err)
	}

	dbService, err := database.NewDBService()
	if err != nil {
		log.Fatalf("Could not initialize database: %v", err)
	}
	defer dbService.Close()

	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:8080"
	}

	authRepo := auth.NewUserRepository(dbService.DB)
	userRepo := user.NewUserRepository(dbService.DB)
	fileRepo := files.NewRepository(dbService.DB)

	orgRepo := infrastructure.NewOrgRepository(dbService.DB)
	membershipRepo := infrastructure.NewMembershipRepository(dbService.DB)
	teamRepo := infrastructure.NewTeamRepository(dbService.DB)
	budgetRepo := infrastructure.NewBudgetRepository(dbService.DB)
	transactionRepo := infrastructure.NewTransactionRepository(dbService.DB)
	categoryRepo := infrastructure.NewCategoryRepository(dbService.DB)
	receiptRepo := infrastructure.NewReceiptRepository(dbService.DB)
	invitationRepo := infrastructure.NewInvitationRepository(dbService.DB)

	storage, err := newStorage(fileRepo)
	if err != nil {
		log.Fatalf("Could not initialize file storage: %v", err)
	}

	sessionManager := auth.NewSessionManager()
	jwtManager := auth.NewJWTManager()
	newEmailService := emailService.NewEmailService()
	authenticator := auth.Authenticator{}

	authorizationService := application.NewAuthorizationService(membershipRepo)
	teamService := application.NewTeamService(teamRepo, membershipRepo, budgetRepo, authorizationService)
	budgetService := application.NewBudgetService(budgetRepo, transactionRepo, teamRepo, authorizationService)
	transactionService := application.NewTransactionService(transactionRepo, budgetRepo, teamRepo, categoryRepo, authorizationService)
	receiptService := application.NewReceiptService(receiptRepo, budgetRepo, teamRepo, transactionRepo, storage, authorizationService)
	categoryService := application.NewCategoryService(categoryRepo, membershipRepo, authorizationService)
	invitationService := application.NewInvitationService(invitationRepo, teamRepo, membershipRepo, authorizationService, userRepo, newEmailService, appURL)
	onboardingService := application.NewOnboardingService(orgRepo, membershipRepo, userRepo)

	userService := user.NewUserService(userRepo, newEmailService)
	userHandler := user.NewHandler(userService, invitationService)
	authService := auth.NewAuthService(authRepo, userService, sessionManager, jwtManager, newEmailService, authenticator)
	authHandler := auth.NewHandler(authService)

	server := &Server{
		dbService:          dbService,
		authService:        authService,
		authHandler:        authHandler,
		userHandler:        userHandler,
		onboardingHandler:  interfaces.NewOnboardingHandler(onboardingService, respondJSON, respondError),
		teamHandler:        interfaces.NewTeamHandler(teamService, respondJSON, respondError),
		budgetHandler:      interfaces.NewBudgetHandler(budgetService, respondJSON, respondError),
		transactionHandler: interfaces.NewTransactionHandler(transactionService, respondJSON, respondError),
		receiptHandler:     interfaces.NewReceiptHandler(receiptService, respondJSON, respondError),
		categoryHandler:    interfaces.NewCategoryHandler(categoryService, respondJSON, respondError),
		invitationHandler:  interfaces.NewInvitationHandler(invitationService, respondJSON, respondError),
		fileHandler:        files.NewHandler(storage, respondJSON, respondError),
	}

	server.RegisterRoutes()

	sessionManager.StartSessionTokenCleanup(time.Minute)

	if err := startInvitationSweeper(invitationService); err != nil {
		log.Fatalf("Scheduler didn't start, stoping the app ...")
	}

	handler := loggingMiddleware(server.router)
	log.Println("Server starting on port 8080...")
	if err := http.ListenAndServe(":8080", handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func startInvitationSweeper(invitationService *application.InvitationService) error {
	c := cron.New()
	// Expired invitations are purged once a night.
	_, err := c.AddFunc("0 3 * * *", func() {
		invitationService.SweepExpired()
	})
	if err != nil {
		return err
	}
	c.Start()
	return nil
}
