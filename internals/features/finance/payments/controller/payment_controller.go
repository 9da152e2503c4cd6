// file: internals/features/finance/payments/controller/payment_controller.go
package controller

import (
	"github.com/gofiber/fiber/v2"

	"sekolahku_backend/internals/constants"
	"sekolahku_backend/internals/features/finance/directory"
	"sekolahku_backend/internals/features/finance/payments/dto"
	"sekolahku_backend/internals/features/finance/payments/service"
	helper "sekolahku_backend/internals/helpers"
)

type PaymentController struct {
	Checkout *service.CheckoutService
	Ledger   *service.LedgerService
	Students directory.StudentDirectory
}

func NewPaymentController(checkout *service.CheckoutService, ledger *service.LedgerService, students directory.StudentDirectory) *PaymentController {
	return &PaymentController{Checkout: checkout, Ledger: ledger, Students: students}
}

/* ================= User ================= */

// POST /api/u/finance/payments
func (ctrl *PaymentController) InitiatePayment(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var in dto.CheckoutRequest
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "payload tidak valid")
	}
	if err := helper.ValidateStruct(c, &in); err != nil {
		return err
	}

	payment, intent, err := ctrl.Checkout.InitiatePayment(c.UserContext(), userID, in, c.IP())
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	_, items, err := ctrl.Ledger.GetPayment(c.UserContext(), payment.PaymentID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	return helper.JsonCreated(c, "Pembayaran dibuat", fiber.Map{
		"payment": dto.ToPaymentResponse(&payment, items),
		"intent":  intent,
	})
}

// GET /api/u/finance/payments
func (ctrl *PaymentController) ListMyPayments(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	student, err := ctrl.Students.FindByUserID(c.UserContext(), userID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	payments, err := ctrl.Ledger.ListStudentPayments(c.UserContext(), student.StudentID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	out := make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		out = append(out, dto.ToPaymentResponse(&payments[i], nil))
	}
	return helper.JsonList(c, "Riwayat pembayaran", out, nil)
}

// GET /api/u/finance/payments/:id
func (ctrl *PaymentController) GetPayment(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	payment, items, err := ctrl.Ledger.GetPayment(c.UserContext(), id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	// Pemilik (payer) atau staf keuangan.
	if payment.PaymentPayerUserID != userID && !isFinanceStaff(c) {
		return helper.JsonError(c, fiber.StatusNotFound, "pembayaran tidak ditemukan")
	}
	return helper.JsonOK(c, "Detail pembayaran", dto.ToPaymentResponse(&payment, items))
}

/* ================= Admin / kasir ================= */

// GET /api/a/finance/payments?status=
func (ctrl *PaymentController) ListAllPayments(c *fiber.Ctx) error {
	payments, err := ctrl.Ledger.ListAllPayments(c.UserContext(), c.Query("status"))
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	out := make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		out = append(out, dto.ToPaymentResponse(&payments[i], nil))
	}
	return helper.JsonList(c, "Daftar pembayaran", out, nil)
}

// GET /api/a/finance/payments/pending-cash
func (ctrl *PaymentController) ListPendingCash(c *fiber.Ctx) error {
	payments, err := ctrl.Ledger.ListPendingCash(c.UserContext())
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	out := make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		out = append(out, dto.ToPaymentResponse(&payments[i], nil))
	}
	return helper.JsonList(c, "Antrian pembayaran tunai", out, nil)
}

// POST /api/a/finance/payments/:id/confirm-cash
func (ctrl *PaymentController) ConfirmCash(c *fiber.Ctx) error {
	adminID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var in dto.CashConfirmRequest
	if err := c.BodyParser(&in); err != nil && len(c.Body()) > 0 {
		return helper.JsonError(c, fiber.StatusBadRequest, "payload tidak valid")
	}
	if err := helper.ValidateStruct(c, &in); err != nil {
		return err
	}

	payment, err := ctrl.Ledger.ConfirmCash(c.UserContext(), id, adminID, in.Note)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Pembayaran tunai dikonfirmasi", dto.ToPaymentResponse(&payment, nil))
}

// GET /api/a/finance/payments/:id/transactions
func (ctrl *PaymentController) ListTransactions(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	rows, err := ctrl.Ledger.ListTransactions(c.UserContext(), id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	out := make([]dto.PaymentTransactionResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.ToPaymentTransactionResponse(&rows[i]))
	}
	return helper.JsonList(c, "Riwayat transaksi pembayaran", out, nil)
}

func isFinanceStaff(c *fiber.Ctx) bool {
	role := helper.GetUserRole(c)
	for _, r := range constants.FinanceStaff {
		if role == r {
			return true
		}
	}
	return false
}
