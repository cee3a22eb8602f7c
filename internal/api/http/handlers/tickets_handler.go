package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/campusvoice/ticket-service/internal/api/dto"
	"github.com/campusvoice/ticket-service/internal/auth"
	"github.com/campusvoice/ticket-service/internal/domain"
	"github.com/campusvoice/ticket-service/internal/service"
	apperrors "github.com/campusvoice/ticket-service/pkg/util/errorutil"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// TicketUseCases is the ticket surface consumed by the HTTP layer.
type TicketUseCases interface {
	Create(ctx context.Context, actor *domain.User, in service.CreateTicketInput) (*domain.Ticket, error)
	Get(ctx context.Context, actor *domain.User, ticketID string) (*service.TicketDetails, error)
	List(ctx context.Context, actor *domain.User, in service.ListTicketsInput) ([]domain.Ticket, error)
	AddMessage(ctx context.Context, actor *domain.User, ticketID string, in service.AddMessageInput) (*domain.TicketMessage, error)
	Escalate(ctx context.Context, actor *domain.User, ticketID, reason string) (*service.EscalationResult, error)
	Update(ctx context.Context, actor *domain.User, ticketID string, in service.UpdateTicketInput) (*domain.Ticket, error)
	Rate(ctx context.Context, actor *domain.User, ticketID string, in service.RateInput) (*domain.Ticket, error)
	Reanalyze(ctx context.Context, actor *domain.User, ticketID string) error
	ListEscalations(ctx context.Context, actor *domain.User, ticketID string) ([]domain.Escalation, error)
	ListPredictions(ctx context.Context, actor *domain.User, ticketID string) ([]domain.AIPrediction, error)
}

// TicketsHandler manages ticket endpoints for every role. Authorization
// by role and scope happens in the service.
type TicketsHandler struct {
	service TicketUseCases
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService TicketUseCases) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.Create(c.UserContext(), user, service.CreateTicketInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Type:         req.Type,
		Priority:     req.Priority,
		CollegeID:    req.CollegeID,
		DepartmentID: req.DepartmentID,
		IsAnonymous:  req.IsAnonymous,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket, user)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	in, err := parseListQuery(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.List(c.UserContext(), user, in)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i], user))
	}
	return c.JSON(fiber.Map{"data": items, "limit": in.Limit, "offset": in.Offset})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	details, err := h.service.Get(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	resp := dto.TicketDetailResponse{
		TicketResponse: ticketResponse(details.Ticket, user),
		Messages:       make([]dto.TicketMessageResponse, 0, len(details.Messages)),
	}
	for i := range details.Messages {
		resp.Messages = append(resp.Messages, messageResponse(&details.Messages[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Update(c.UserContext(), user, c.Params("id"), service.UpdateTicketInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		Version:     req.Version,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket, user)})
}

// AddMessage POST /tickets/:id/messages.
func (h *TicketsHandler) AddMessage(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	in := service.AddMessageInput{Body: req.Body, IsInternal: req.IsInternal}
	for _, a := range req.Attachments {
		in.Attachments = append(in.Attachments, service.AttachmentInput{
			FileURL:   a.FileURL,
			FileName:  a.FileName,
			MimeType:  a.MimeType,
			SizeBytes: a.SizeBytes,
		})
	}
	msg, err := h.service.AddMessage(c.UserContext(), user, c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": messageResponse(msg)})
}

// Escalate POST /tickets/:id/escalate.
func (h *TicketsHandler) Escalate(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.EscalateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	result, err := h.service.Escalate(c.UserContext(), user, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.EscalateResponse{
		Level:             result.Level,
		AssignedUserID:    result.AssignedUserID,
		EscalationCreated: result.EscalationCreated,
	}})
}

// Rate POST /tickets/:id/rating.
func (h *TicketsHandler) Rate(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.RateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Rate(c.UserContext(), user, c.Params("id"), service.RateInput{
		Rating:   req.Rating,
		Feedback: req.Feedback,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket, user)})
}

// Reanalyze POST /tickets/:id/reanalyze.
func (h *TicketsHandler) Reanalyze(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.service.Reanalyze(c.UserContext(), user, c.Params("id")); err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": fiber.Map{"queued": true}})
}

// ListEscalations GET /tickets/:id/escalations.
func (h *TicketsHandler) ListEscalations(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	records, err := h.service.ListEscalations(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.EscalationResponse, 0, len(records))
	for _, e := range records {
		items = append(items, dto.EscalationResponse{
			ID:            e.ID,
			FromLevel:     e.FromLevel,
			ToLevel:       e.ToLevel,
			FromUserID:    e.FromUserID,
			ToUserID:      e.ToUserID,
			Reason:        e.Reason,
			AutoEscalated: e.AutoEscalated,
			CreatedAt:     e.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListPredictions GET /tickets/:id/predictions.
func (h *TicketsHandler) ListPredictions(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	predictions, err := h.service.ListPredictions(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.PredictionResponse, 0, len(predictions))
	for _, p := range predictions {
		items = append(items, dto.PredictionResponse{
			ID:         p.ID,
			Type:       p.Type,
			Result:     p.Result,
			Confidence: p.Confidence,
			Model:      p.Model,
			CreatedAt:  p.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return user, nil
}

func parseListQuery(c *fiber.Ctx) (service.ListTicketsInput, error) {
	in := service.ListTicketsInput{Limit: defaultPageSize}
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := domain.TicketStatus(strings.ToUpper(strings.TrimSpace(part)))
			if !status.Valid() {
				return in, apperrors.NewValidationError("invalid status filter", map[string]any{"status": part})
			}
			in.Statuses = append(in.Statuses, status)
		}
	}
	limit, err := parseInt(c.Query("limit"), defaultPageSize)
	if err != nil || limit <= 0 {
		return in, apperrors.NewValidationError("invalid limit", nil)
	}
	in.Limit = min(limit, maxPageSize)
	offset, err := parseInt(c.Query("offset"), 0)
	if err != nil || offset < 0 {
		return in, apperrors.NewValidationError("invalid offset", nil)
	}
	in.Offset = offset
	return in, nil
}

func parseInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

// ticketResponse hides the creator of an anonymous ticket from everyone
// but the creator.
func ticketResponse(t *domain.Ticket, viewer *domain.User) dto.TicketResponse {
	resp := dto.TicketResponse{
		ID:                 t.ID,
		TicketNumber:       t.TicketNumber,
		Title:              t.Title,
		Description:        t.Description,
		Category:           t.Category,
		Type:               t.Type,
		Priority:           t.Priority,
		Status:             t.Status,
		CollegeID:          t.CollegeID,
		DepartmentID:       t.DepartmentID,
		CurrentLevel:       t.CurrentLevel,
		AssignedUserID:     t.AssignedUserID,
		SLADueAt:           t.SLADueAt,
		IsAnonymous:        t.IsAnonymous,
		Rating:             t.Rating,
		Feedback:           t.Feedback,
		Summary:            t.Summary,
		IsToxic:            t.IsToxic,
		ModerationAction:   t.ModerationAction,
		CategoryConfidence: t.CategoryConfidence,
		PriorityConfidence: t.PriorityConfidence,
		Version:            t.Version,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
		ResolvedAt:         t.ResolvedAt,
		ClosedAt:           t.ClosedAt,
	}
	if !t.IsAnonymous || (viewer != nil && viewer.ID == t.CreatorID) {
		creator := t.CreatorID
		resp.CreatorID = &creator
	}
	return resp
}

func messageResponse(m *domain.TicketMessage) dto.TicketMessageResponse {
	resp := dto.TicketMessageResponse{
		ID:          m.ID,
		AuthorType:  m.AuthorType,
		AuthorID:    m.AuthorID,
		Body:        m.Body,
		IsInternal:  m.IsInternal,
		Attachments: make([]dto.AttachmentResponse, 0, len(m.Attachments)),
		CreatedAt:   m.CreatedAt,
	}
	for _, a := range m.Attachments {
		resp.Attachments = append(resp.Attachments, dto.AttachmentResponse{
			ID:           a.ID,
			FileName:     a.FileName,
			MimeType:     a.MimeType,
			SizeBytes:    a.SizeBytes,
			URL:          a.FileURL,
			OCRProcessed: a.OCRProcessed,
			OCRText:      a.OCRText,
		})
	}
	return resp
}
