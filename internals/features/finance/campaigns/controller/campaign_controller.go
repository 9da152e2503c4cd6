// file: internals/features/finance/campaigns/controller/campaign_controller.go
package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"sekolahku_backend/internals/features/finance/campaigns/dto"
	"sekolahku_backend/internals/features/finance/campaigns/model"
	"sekolahku_backend/internals/features/finance/campaigns/service"
	helper "sekolahku_backend/internals/helpers"
)

type CampaignController struct {
	Service *service.CampaignService
}

func NewCampaignController(svc *service.CampaignService) *CampaignController {
	return &CampaignController{Service: svc}
}

/* ================= Admin ================= */

// POST /api/a/finance/campaigns
func (ctrl *CampaignController) CreateCampaign(c *fiber.Ctx) error {
	adminID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var in dto.CampaignCreateDTO
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "payload tidak valid")
	}
	if err := helper.ValidateStruct(c, &in); err != nil {
		return err
	}

	campaign, obligations, err := ctrl.Service.CreateCampaign(c.UserContext(), in, adminID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	return helper.JsonCreated(c, "Campaign berhasil dibuat", fiber.Map{
		"campaign":    dto.ToCampaignResponse(campaign),
		"obligations": dto.ToObligationResponses(obligations),
	})
}

// GET /api/a/finance/campaigns?class_id=&include_cancelled=
func (ctrl *CampaignController) ListCampaigns(c *fiber.Ctx) error {
	var classID *uuid.UUID
	if raw := c.Query("class_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "class_id tidak valid")
		}
		classID = &id
	}
	includeCancelled := c.QueryBool("include_cancelled", false)

	campaigns, err := ctrl.Service.ListCampaigns(c.UserContext(), classID, includeCancelled)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "Daftar campaign", dto.ToCampaignResponses(campaigns), nil)
}

// GET /api/a/finance/campaigns/:id
func (ctrl *CampaignController) GetCampaign(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	campaign, err := ctrl.Service.GetCampaign(c.UserContext(), id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Detail campaign", dto.ToCampaignResponse(campaign))
}

// GET /api/a/finance/campaigns/:id/obligations
func (ctrl *CampaignController) GetCampaignObligations(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	campaign, obligations, paid, pending, err := ctrl.Service.GetCampaignObligations(c.UserContext(), id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	return helper.JsonOK(c, "Detail campaign beserta tagihan", dto.CampaignObligationsResponse{
		Campaign:    dto.ToCampaignResponse(campaign),
		Total:       len(obligations),
		Paid:        paid,
		Pending:     pending,
		Obligations: dto.ToObligationResponses(obligations),
	})
}

// POST /api/a/finance/campaigns/:id/cancel
func (ctrl *CampaignController) CancelCampaign(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	if err := ctrl.Service.CancelCampaign(c.UserContext(), id); err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Campaign dibatalkan", fiber.Map{"campaign_id": id})
}

// POST /api/a/finance/obligations/mark-overdue
func (ctrl *CampaignController) MarkOverdue(c *fiber.Ctx) error {
	n, err := ctrl.Service.MarkOverdue(c.UserContext(), time.Now())
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Sweep overdue selesai", fiber.Map{"updated": n})
}

// GET /api/a/finance/obligations/:id
func (ctrl *CampaignController) GetObligation(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	ob, err := ctrl.Service.GetObligation(c.UserContext(), id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Detail tagihan", dto.ToObligationResponse(ob))
}

/* ================= helper query status ================= */

func parseStatusFilter(raw string) []model.ObligationStatus {
	switch raw {
	case "pending":
		return []model.ObligationStatus{model.ObligationStatusPending}
	case "overdue":
		return []model.ObligationStatus{model.ObligationStatusOverdue}
	case "paid":
		return []model.ObligationStatus{model.ObligationStatusPaid}
	case "cancelled":
		return []model.ObligationStatus{model.ObligationStatusCancelled}
	case "all":
		return []model.ObligationStatus{
			model.ObligationStatusPending,
			model.ObligationStatusOverdue,
			model.ObligationStatusPaid,
			model.ObligationStatusCancelled,
		}
	}
	return nil // default service: yang masih payable
}
