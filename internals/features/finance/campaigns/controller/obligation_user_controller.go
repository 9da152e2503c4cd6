// file: internals/features/finance/campaigns/controller/obligation_user_controller.go
package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"sekolahku_backend/internals/features/finance/campaigns/dto"
	"sekolahku_backend/internals/features/finance/campaigns/service"
	"sekolahku_backend/internals/features/finance/directory"
	helper "sekolahku_backend/internals/helpers"
)

/* =========================================================
   View tagihan untuk siswa/wali yang login.
========================================================= */

type ObligationUserController struct {
	Service  *service.CampaignService
	Students directory.StudentDirectory
}

func NewObligationUserController(svc *service.CampaignService, students directory.StudentDirectory) *ObligationUserController {
	return &ObligationUserController{Service: svc, Students: students}
}

// GET /api/u/finance/obligations?status=&student_id=
// student_id opsional: wali melihat tagihan anaknya.
func (ctrl *ObligationUserController) ListMyObligations(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	student, err := ctrl.resolveStudent(c, userID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	statuses := parseStatusFilter(c.Query("status"))
	obligations, err := ctrl.Service.ListStudentObligations(c.UserContext(), student.StudentID, statuses)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "Daftar tagihan Anda", dto.ToObligationResponses(obligations), nil)
}

// GET /api/u/finance/obligations/:id
func (ctrl *ObligationUserController) GetMyObligation(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	student, err := ctrl.Students.FindByUserID(c.UserContext(), userID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	ob, err := ctrl.Service.GetObligation(c.UserContext(), id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	if ob.ObligationStudentID != student.StudentID {
		return helper.JsonError(c, fiber.StatusNotFound, "tagihan tidak ditemukan")
	}
	return helper.JsonOK(c, "Detail tagihan", dto.ToObligationResponse(ob))
}

// resolveStudent: default siswa milik user login; dengan ?student_id=
// hanya boleh kalau user adalah siswa itu sendiri atau walinya.
func (ctrl *ObligationUserController) resolveStudent(c *fiber.Ctx, userID uuid.UUID) (directory.StudentInfo, error) {
	raw := c.Query("student_id")
	if raw == "" {
		return ctrl.Students.FindByUserID(c.UserContext(), userID)
	}

	studentID, err := uuid.Parse(raw)
	if err != nil {
		return directory.StudentInfo{}, fiber.NewError(fiber.StatusBadRequest, "student_id tidak valid")
	}
	student, err := ctrl.Students.FindByID(c.UserContext(), studentID)
	if err != nil {
		return directory.StudentInfo{}, err
	}
	if student.UserID != userID &&
		(student.GuardianUserID == nil || *student.GuardianUserID != userID) {
		return directory.StudentInfo{}, fiber.NewError(fiber.StatusForbidden, "Anda bukan wali siswa ini")
	}
	return student, nil
}
