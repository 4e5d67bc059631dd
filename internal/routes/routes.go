package routes

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/materialsdesk/internal/config"
	"github.com/example/materialsdesk/internal/gateway"
	"github.com/example/materialsdesk/internal/handlers"
	"github.com/example/materialsdesk/internal/middleware"
	"github.com/example/materialsdesk/internal/orders"
	"github.com/example/materialsdesk/internal/services"
	"github.com/example/materialsdesk/internal/session"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, client *gateway.Client) {
	telegramService := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)
	auditService := services.NewAuditService(db, telegramService)

	authClient := gateway.NewAuthClient(client)
	sessionStore := services.NewSessionStore(db, cfg.SessionSealKey, cfg.TokenExpires, authClient)

	orderClient := func(sess *session.Session) *gateway.OrderClient {
		return gateway.NewOrderClient(client, sess)
	}
	workspace := services.NewWorkspace(func(sess *session.Session) orders.Gateway {
		return orderClient(sess)
	}, cfg.TimeZone, auditService)
	sessionStore.OnEnd(workspace.Drop)
	workspace.OnChange(func(_ context.Context, sess *session.Session, ev orders.Event) {
		if ev.Err != nil {
			log.Printf("[Orders] %s on %s by %s failed: %v", ev.Action, ev.LeadID, sess.CurrentUser().Email, ev.Err)
			return
		}
		log.Printf("[Orders] %s on %s by %s, status now %s", ev.Action, ev.LeadID, sess.CurrentUser().Email, ev.Status)
	})

	authHandler := handlers.NewAuthHandler(authClient, sessionStore, cfg)
	orderHandler := handlers.NewOrderHandler(orderClient, auditService)
	viewHandler := handlers.NewOrderViewHandler(workspace)

	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true})
	})

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(cfg, sessionStore))

	protected.Post("/auth/logout", authHandler.Logout)
	protected.Get("/auth/me", authHandler.Me)

	protected.Post("/pricing/quote", orderHandler.Quote)

	ordersGroup := protected.Group("/orders")
	ordersGroup.Get("/", orderHandler.ListOrders)
	ordersGroup.Get("/status-catalog", orderHandler.StatusCatalog)
	ordersGroup.Get("/:leadId/documents/:type", orderHandler.DownloadDocument)
	ordersGroup.Get("/:leadId/actions", orderHandler.ListActions)

	view := ordersGroup.Group("/:leadId/view")
	view.Post("/", viewHandler.Open)
	view.Get("/", viewHandler.Get)
	view.Post("/refresh", viewHandler.Refresh)
	view.Delete("/", viewHandler.Close)
	view.Put("/tab", viewHandler.SwitchTab)

	dialogs := view.Group("/dialogs", middleware.RequirePermission(handlers.PermissionOrdersUpdate))
	dialogs.Post("/:dialog", viewHandler.OpenDialog)
	dialogs.Patch("/:dialog", viewHandler.PatchDialog)
	dialogs.Delete("/:dialog", viewHandler.CloseDialog)
	dialogs.Post("/:dialog/submit", viewHandler.SubmitDialog)
}
