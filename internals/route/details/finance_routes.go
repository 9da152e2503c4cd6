// file: internals/route/details/finance_routes.go
package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"sekolahku_backend/internals/configs"
	"sekolahku_backend/internals/constants"
	campaignController "sekolahku_backend/internals/features/finance/campaigns/controller"
	campaignService "sekolahku_backend/internals/features/finance/campaigns/service"
	"sekolahku_backend/internals/features/finance/directory"
	"sekolahku_backend/internals/features/finance/gateway"
	paymentController "sekolahku_backend/internals/features/finance/payments/controller"
	paymentService "sekolahku_backend/internals/features/finance/payments/service"
	middlewares "sekolahku_backend/internals/middlewares"
	authMiddleware "sekolahku_backend/internals/middlewares/auth"
)

/* =========================================================
   Wiring modul finance: directory → service → controller.
========================================================= */

type financeModule struct {
	campaigns   *campaignController.CampaignController
	obligations *campaignController.ObligationUserController
	payments    *paymentController.PaymentController
	callbacks   *paymentController.CallbackController
}

func newFinanceModule(db *gorm.DB) *financeModule {
	students := directory.NewGormStudentDirectory(db)
	classes := directory.NewGormClassDirectory(db)
	branches := directory.NewGormBranchDirectory(db)

	campaignSvc := campaignService.NewCampaignService(db, students, classes)
	ledger := paymentService.NewLedgerService(db, campaignSvc)

	paygate := gateway.NewPaygate(gateway.PaygateConfig{
		TmnCode:    configs.PaygateTmnCode,
		HashSecret: configs.PaygateHashSecret,
		PayURL:     configs.PaygatePayURL,
		ReturnURL:  configs.PaygateReturnURL,
	})
	snapGw := gateway.NewSnap(configs.MidtransServerKey, configs.MidtransProduction)
	registry := gateway.NewRegistry(paygate, gateway.NewCash(), snapGw)

	checkout := paymentService.NewCheckoutService(
		db, students, branches, campaignSvc, ledger, registry,
		paygate, snapGw, configs.PaygateResultRedirect,
	)

	return &financeModule{
		campaigns:   campaignController.NewCampaignController(campaignSvc),
		obligations: campaignController.NewObligationUserController(campaignSvc, students),
		payments:    paymentController.NewPaymentController(checkout, ledger, students),
		callbacks:   paymentController.NewCallbackController(checkout),
	}
}

// FinanceAdminRoutes: staf keuangan (admin/bendahara/owner).
func FinanceAdminRoutes(r fiber.Router, db *gorm.DB) {
	m := newFinanceModule(db)
	staffOnly := authMiddleware.OnlyRoles("Akses khusus staf keuangan", constants.FinanceStaff...)

	fin := r.Group("/finance", staffOnly)

	fin.Post("/campaigns", m.campaigns.CreateCampaign)
	fin.Get("/campaigns", m.campaigns.ListCampaigns)
	fin.Get("/campaigns/:id", m.campaigns.GetCampaign)
	fin.Get("/campaigns/:id/obligations", m.campaigns.GetCampaignObligations)
	fin.Post("/campaigns/:id/cancel", m.campaigns.CancelCampaign)

	fin.Get("/obligations/:id", m.campaigns.GetObligation)
	fin.Post("/obligations/mark-overdue", m.campaigns.MarkOverdue)

	fin.Get("/payments", m.payments.ListAllPayments)
	fin.Get("/payments/pending-cash", m.payments.ListPendingCash)
	fin.Post("/payments/:id/confirm-cash", m.payments.ConfirmCash)
	fin.Get("/payments/:id/transactions", m.payments.ListTransactions)
}

// FinanceUserRoutes: siswa & wali.
func FinanceUserRoutes(r fiber.Router, db *gorm.DB) {
	m := newFinanceModule(db)
	payerOnly := authMiddleware.OnlyRoles("Akses khusus siswa dan orang tua", constants.Payers...)

	fin := r.Group("/finance", payerOnly)

	fin.Get("/obligations", m.obligations.ListMyObligations)
	fin.Get("/obligations/:id", m.obligations.GetMyObligation)

	fin.Post("/payments", middlewares.CheckoutRateLimiter(), m.payments.InitiatePayment)
	fin.Get("/payments", m.payments.ListMyPayments)
	fin.Get("/payments/:id", m.payments.GetPayment)
}

// FinancePublicRoutes: callback gateway, tanpa JWT.
func FinancePublicRoutes(r fiber.Router, db *gorm.DB) {
	m := newFinanceModule(db)

	fin := r.Group("/finance")

	fin.Get("/payments/return", m.callbacks.PaygateReturn)
	fin.Get("/payments/ipn", m.callbacks.PaygateIPN)
	fin.Post("/payments/midtrans-notify", m.callbacks.MidtransNotification)
}
