package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/campusvoice/ticket-service/internal/domain"
	"github.com/campusvoice/ticket-service/internal/repository"
)

// ErrJobTargetMissing marks jobs whose ticket or attachment no longer exists.
// Retrying them cannot succeed.
var ErrJobTargetMissing = errors.New("job target no longer exists")

// ErrInvalidJobPayload marks jobs whose payload cannot be processed.
var ErrInvalidJobPayload = errors.New("invalid job payload")

// EnrichmentService implements the background job handlers. Gateway errors
// are returned unchanged so that the queue's retry policy applies; no default
// values are substituted here.
type EnrichmentService struct {
	tickets       repository.TicketRepository
	predictions   repository.PredictionRepository
	embeddings    repository.EmbeddingRepository
	attachments   repository.AttachmentRepository
	notifications repository.NotificationRepository
	users         repository.UserRepository
	gateway       AIGateway
	transport     NotificationTransport
	logger        *zap.Logger
}

// EnrichmentDependencies bundles collaborators for the enrichment service.
type EnrichmentDependencies struct {
	TicketRepo       repository.TicketRepository
	PredictionRepo   repository.PredictionRepository
	EmbeddingRepo    repository.EmbeddingRepository
	AttachmentRepo   repository.AttachmentRepository
	NotificationRepo repository.NotificationRepository
	UserRepo         repository.UserRepository
	Gateway          AIGateway
	Transport        NotificationTransport
	Logger           *zap.Logger
}

// NewEnrichmentService creates the service.
func NewEnrichmentService(deps EnrichmentDependencies) *EnrichmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrichmentService{
		tickets:       deps.TicketRepo,
		predictions:   deps.PredictionRepo,
		embeddings:    deps.EmbeddingRepo,
		attachments:   deps.AttachmentRepo,
		notifications: deps.NotificationRepo,
		users:         deps.UserRepo,
		gateway:       deps.Gateway,
		transport:     deps.Transport,
		logger:        logger.With(zap.String("component", "enrichment")),
	}
}

// Classify stores a CATEGORIZATION prediction and the category confidence.
func (s *EnrichmentService) Classify(ctx context.Context, p domain.TextPayload) error {
	if err := s.requireTicket(ctx, p.TicketID); err != nil {
		return err
	}
	result, err := s.gateway.Classify(ctx, p.Description, p.Title)
	if err != nil {
		return err
	}
	if err := s.record(ctx, p.TicketID, domain.PredictionCategorization, result.Raw, result.Confidence); err != nil {
		return err
	}
	return s.patch(ctx, p.TicketID, domain.EnrichmentPatch{CategoryConfidence: result.Confidence})
}

// Priority stores a PRIORITY prediction. The ticket's priority itself stays
// as set by people; only the confidence is written.
func (s *EnrichmentService) Priority(ctx context.Context, p domain.TextPayload) error {
	if err := s.requireTicket(ctx, p.TicketID); err != nil {
		return err
	}
	result, err := s.gateway.PredictPriority(ctx, p.Description, p.Title)
	if err != nil {
		return err
	}
	if err := s.record(ctx, p.TicketID, domain.PredictionPriority, result.Raw, result.Confidence); err != nil {
		return err
	}
	return s.patch(ctx, p.TicketID, domain.EnrichmentPatch{PriorityConfidence: result.Confidence})
}

// Moderate stores a TOXICITY prediction and sets or clears the toxicity flags.
func (s *EnrichmentService) Moderate(ctx context.Context, p domain.TextPayload) error {
	if err := s.requireTicket(ctx, p.TicketID); err != nil {
		return err
	}
	text := strings.TrimSpace(p.Title + "\n\n" + p.Description)
	result, err := s.gateway.Moderate(ctx, text)
	if err != nil {
		return err
	}
	if err := s.record(ctx, p.TicketID, domain.PredictionToxicity, result.Raw, result.Confidence); err != nil {
		return err
	}
	// the flags mirror the latest TOXICITY prediction, so a clean result
	// clears an earlier flag
	toxic := result.IsToxic
	var severity string
	var action domain.ModerationAction
	if toxic {
		severity = result.Severity
		action = moderationAction(result.Action)
	}
	return s.patch(ctx, p.TicketID, domain.EnrichmentPatch{
		IsToxic:          &toxic,
		ToxicitySeverity: &severity,
		ModerationAction: &action,
	})
}

// Summarize stores a SUMMARY prediction and the ticket summary.
func (s *EnrichmentService) Summarize(ctx context.Context, p domain.TextPayload) error {
	if err := s.requireTicket(ctx, p.TicketID); err != nil {
		return err
	}
	result, err := s.gateway.Summarize(ctx, p.Title, p.Description)
	if err != nil {
		return err
	}
	if err := s.record(ctx, p.TicketID, domain.PredictionSummary, result.Raw, nil); err != nil {
		return err
	}
	summary := strings.TrimSpace(result.Summary)
	return s.patch(ctx, p.TicketID, domain.EnrichmentPatch{Summary: &summary})
}

// Embed upserts the single embedding of the ticket.
func (s *EnrichmentService) Embed(ctx context.Context, p domain.TextPayload) error {
	if err := s.requireTicket(ctx, p.TicketID); err != nil {
		return err
	}
	result, err := s.gateway.Embed(ctx, strings.TrimSpace(p.Title+"\n\n"+p.Description))
	if err != nil {
		return err
	}
	return s.embeddings.Upsert(ctx, &domain.Embedding{
		TicketID: p.TicketID,
		Vector:   result.Embedding,
		Model:    result.Model,
	})
}

// OCR writes the extracted text onto the attachment.
func (s *EnrichmentService) OCR(ctx context.Context, p domain.OCRPayload) error {
	attachment, err := s.attachments.GetByID(ctx, p.AttachmentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return fmt.Errorf("%w: attachment %s", ErrJobTargetMissing, p.AttachmentID)
		}
		return err
	}
	fileURL, mimeType := p.FileURL, p.MimeType
	if fileURL == "" {
		fileURL, mimeType = attachment.FileURL, attachment.MimeType
	}
	result, err := s.gateway.OCR(ctx, fileURL, mimeType)
	if err != nil {
		return err
	}
	return s.attachments.UpdateOCR(ctx, attachment.ID, result.Text)
}

// Notify stores in-app notifications and hands the other channels to the
// transport.
func (s *EnrichmentService) Notify(ctx context.Context, p domain.NotificationPayload) error {
	switch p.Channel {
	case domain.ChannelInApp:
		if p.UserID == "" {
			return fmt.Errorf("%w: in_app notification without user", ErrInvalidJobPayload)
		}
		var entityID *string
		if p.EntityID != "" {
			entityID = &p.EntityID
		}
		return s.notifications.Create(ctx, &domain.Notification{
			UserID:     p.UserID,
			Subject:    p.Subject,
			Message:    p.Message,
			EntityType: p.EntityType,
			EntityID:   entityID,
		})

	case domain.ChannelEmail, domain.ChannelSMS, domain.ChannelPush:
		if err := s.fillRecipient(ctx, &p); err != nil {
			return err
		}
		if s.transport == nil {
			s.logger.Warn("no notification transport configured", zap.String("channel", string(p.Channel)))
			return nil
		}
		return s.transport.Send(ctx, p)

	default:
		return fmt.Errorf("%w: unknown channel %q", ErrInvalidJobPayload, p.Channel)
	}
}

func (s *EnrichmentService) fillRecipient(ctx context.Context, p *domain.NotificationPayload) error {
	needsEmail := p.Channel == domain.ChannelEmail && p.Email == ""
	needsPhone := p.Channel == domain.ChannelSMS && p.Phone == ""
	if !needsEmail && !needsPhone {
		return nil
	}
	if p.UserID == "" || s.users == nil {
		return fmt.Errorf("%w: no recipient for %s notification", ErrInvalidJobPayload, p.Channel)
	}
	user, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return fmt.Errorf("%w: user %s", ErrJobTargetMissing, p.UserID)
		}
		return err
	}
	p.Email, p.Phone = firstNonEmpty(p.Email, user.Email), firstNonEmpty(p.Phone, user.Phone)
	if (needsEmail && p.Email == "") || (needsPhone && p.Phone == "") {
		return fmt.Errorf("%w: user %s has no %s contact", ErrInvalidJobPayload, p.UserID, p.Channel)
	}
	return nil
}

func (s *EnrichmentService) requireTicket(ctx context.Context, ticketID string) error {
	if ticketID == "" {
		return fmt.Errorf("%w: missing ticket id", ErrInvalidJobPayload)
	}
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		if repository.IsNotFound(err) {
			return fmt.Errorf("%w: ticket %s", ErrJobTargetMissing, ticketID)
		}
		return err
	}
	return nil
}

func (s *EnrichmentService) record(ctx context.Context, ticketID string, kind domain.PredictionType, result map[string]any, confidence *float64) error {
	if result == nil {
		result = map[string]any{}
	}
	return s.predictions.Create(ctx, &domain.AIPrediction{
		TicketID:   ticketID,
		Type:       kind,
		Result:     result,
		Confidence: confidence,
		Model:      s.gateway.Model(),
	})
}

func (s *EnrichmentService) patch(ctx context.Context, ticketID string, patch domain.EnrichmentPatch) error {
	err := s.tickets.UpdateEnrichment(ctx, ticketID, patch)
	if repository.IsNotFound(err) {
		return fmt.Errorf("%w: ticket %s", ErrJobTargetMissing, ticketID)
	}
	return err
}

func moderationAction(raw string) domain.ModerationAction {
	switch action := domain.ModerationAction(strings.ToUpper(strings.TrimSpace(raw))); action {
	case domain.ModerationAllow, domain.ModerationFlag, domain.ModerationBlock:
		return action
	}
	return domain.ModerationFlag
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
