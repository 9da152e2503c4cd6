// file: internals/features/finance/payments/controller/callback_controller.go
package controller

import (
	"github.com/gofiber/fiber/v2"

	"sekolahku_backend/internals/features/finance/payments/service"
	helper "sekolahku_backend/internals/helpers"
)

/* =========================================================
   Endpoint publik yang dipanggil gateway, bukan user.
   Tidak ada auth; keasliannya dijamin signature di payload.
========================================================= */

type CallbackController struct {
	Checkout *service.CheckoutService
}

func NewCallbackController(checkout *service.CheckoutService) *CallbackController {
	return &CallbackController{Checkout: checkout}
}

// GET /api/public/finance/payments/return
// Browser user mendarat di sini setelah bayar; hasilnya redirect ke frontend.
func (ctrl *CallbackController) PaygateReturn(c *fiber.Ctx) error {
	target, err := ctrl.Checkout.HandleReturn(c.UserContext(), c.Queries())
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return c.Redirect(target, fiber.StatusFound)
}

// GET /api/public/finance/payments/ipn
// Server gateway; jawabannya ack {RspCode, Message}, selalu 200.
func (ctrl *CallbackController) PaygateIPN(c *fiber.Ctx) error {
	ack, err := ctrl.Checkout.HandleIPN(c.UserContext(), c.Queries())
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(ack)
}

// POST /api/public/finance/payments/midtrans-notify
func (ctrl *CallbackController) MidtransNotification(c *fiber.Ctx) error {
	var n service.SnapNotification
	if err := c.BodyParser(&n); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "payload tidak valid")
	}

	if err := ctrl.Checkout.HandleSnapNotification(c.UserContext(), n, c.Body()); err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Notifikasi diproses", nil)
}
