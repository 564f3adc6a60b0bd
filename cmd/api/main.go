package main

import (
	"context"
	"fmt"
	"log"

	common_api "github.com/kienquocIT/mis-api-sub003/internal/common/api"
	"github.com/kienquocIT/mis-api-sub003/internal/config"
	"github.com/kienquocIT/mis-api-sub003/internal/database"
	"github.com/kienquocIT/mis-api-sub003/internal/features/archive"
	"github.com/kienquocIT/mis-api-sub003/internal/features/audit"
	"github.com/kienquocIT/mis-api-sub003/internal/features/auth"
	"github.com/kienquocIT/mis-api-sub003/internal/features/document"
	"github.com/kienquocIT/mis-api-sub003/internal/features/engine"
	"github.com/kienquocIT/mis-api-sub003/internal/features/notification"
	"github.com/kienquocIT/mis-api-sub003/internal/features/organization"
	"github.com/kienquocIT/mis-api-sub003/internal/features/scheduler"
	"github.com/kienquocIT/mis-api-sub003/internal/features/system"
	"github.com/kienquocIT/mis-api-sub003/internal/features/user"
	"github.com/kienquocIT/mis-api-sub003/internal/features/workflow"
	"github.com/kienquocIT/mis-api-sub003/internal/logger"
	"github.com/kienquocIT/mis-api-sub003/internal/middleware"
	"github.com/kienquocIT/mis-api-sub003/pkg/utils"

	_ "github.com/kienquocIT/mis-api-sub003/docs" // Import swagger docs

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),    // Cast to Interface
		fx.ResultTags(`group:"routes"`), // Add to Group
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	log.Printf("Registering %d routes...\n", len(routes))
	for _, route := range routes {
		route.Setup(app)
	}
	log.Println("All routes registered successfully")
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	utils.SetSecret(cfg.JWTSecret)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// @title           MIS Workflow API
// @version         1.0
// @description     Multi-tenant document approval workflow engine built on Fiber, Uber Fx, and MongoDB.

// @contact.name    API Support

// @host            localhost:8080
// @BasePath        /
func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			// Initialize Repository
			audit.NewAuditRepository,
			user.NewUserRepository,
			organization.NewEmployeeRepository,
			workflow.NewWorkflowRepository,
			document.NewDocumentRepository,
			engine.NewEngineRepository,

			// Initialize Service
			audit.NewAuditService,
			auth.NewAuthService,
			organization.NewOrganizationService,
			workflow.NewWorkflowService,
			document.NewDocumentService,
			engine.NewCollaboratorResolver,
			engine.NewQuorumTracker,
			engine.NewTransitionPlanner,
			engine.NewEngineService,
			archive.NewArchiveService,
			scheduler.NewReminderService,
			notification.NewHub,

			// Interface Adapters to break circular dependencies and satisfy Fx
			func(s engine.EngineService) document.AdvanceTrigger { return s },
			func(r user.UserRepository) audit.UserFinder { return r },
			func(h *notification.Hub) engine.EventPublisher { return h },
			func(s *archive.ArchiveService) engine.ArchiveSink { return s },

			// Initialize Controller
			auth.NewAuthController,
			audit.NewAuditController,
			organization.NewOrganizationController,
			workflow.NewWorkflowController,
			document.NewDocumentController,
			engine.NewEngineController,

			// Initialize API Routes
			AsRoute(auth.NewAuthApi),
			AsRoute(audit.NewAuditApi),
			AsRoute(organization.NewOrganizationApi),
			AsRoute(workflow.NewWorkflowApi),
			AsRoute(document.NewDocumentApi),
			AsRoute(engine.NewEngineApi),
			AsRoute(notification.NewNotificationApi),
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewSwaggerApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			func(lc fx.Lifecycle, reminder *scheduler.ReminderService) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return reminder.Start()
					},
					OnStop: func(ctx context.Context) error {
						reminder.Stop()
						return nil
					},
				})
			},
		),
	)

	app.Run()
}
