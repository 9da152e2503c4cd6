// file: internals/route/index.go
package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	authMiddleware "sekolahku_backend/internals/middlewares/auth"
	routeDetails "sekolahku_backend/internals/route/details"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	startTime = time.Now()

	BaseRoutes(app, db)

	// ===================== PUBLIC =====================
	// Callback gateway — tanpa JWT, keasliannya dari signature payload.
	log.Println("[INFO] Setting up PUBLIC group...")
	public := app.Group("/api/public")
	routeDetails.FinancePublicRoutes(public, db)

	// ===================== PRIVATE (USER) =====================
	// Siswa & wali yang login.
	log.Println("[INFO] Setting up PRIVATE group...")
	private := app.Group("/api/u", authMiddleware.AuthMiddleware())
	routeDetails.FinanceUserRoutes(private, db)

	// ===================== ADMIN =====================
	// Staf keuangan; role dicek per-route group.
	log.Println("[INFO] Setting up ADMIN group...")
	admin := app.Group("/api/a", authMiddleware.AuthMiddleware())
	routeDetails.FinanceAdminRoutes(admin, db)
}
