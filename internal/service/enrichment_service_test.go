package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusvoice/ticket-service/internal/aigateway"
	"github.com/campusvoice/ticket-service/internal/domain"
)

type enrichmentFixture struct {
	tickets       *fakeTicketRepo
	predictions   *fakePredictionRepo
	embeddings    *fakeEmbeddingRepo
	attachments   *fakeAttachmentRepo
	notifications *fakeNotificationRepo
	transport     *fakeTransport
	gateway       *fakeGateway
	svc           *EnrichmentService
	ticket        *domain.Ticket
}

func newEnrichmentFixture() *enrichmentFixture {
	f := &enrichmentFixture{
		tickets:       newFakeTicketRepo(),
		predictions:   &fakePredictionRepo{},
		embeddings:    &fakeEmbeddingRepo{},
		attachments:   newFakeAttachmentRepo(),
		notifications: &fakeNotificationRepo{},
		transport:     &fakeTransport{},
		gateway:       &fakeGateway{},
	}
	f.ticket = f.tickets.put(domain.Ticket{
		CreatorID: "student-1",
		Title:     "Leaking roof",
		Status:    domain.TicketStatusOpen,
	})
	f.svc = NewEnrichmentService(EnrichmentDependencies{
		TicketRepo:       f.tickets,
		PredictionRepo:   f.predictions,
		EmbeddingRepo:    f.embeddings,
		AttachmentRepo:   f.attachments,
		NotificationRepo: f.notifications,
		UserRepo: &fakeUserRepo{users: []domain.User{
			{ID: "student-1", Email: "s1@campus.test", Active: true},
		}},
		Gateway:   f.gateway,
		Transport: f.transport,
		Logger:    zap.NewNop(),
	})
	return f
}

func (f *enrichmentFixture) payload() domain.TextPayload {
	return domain.TextPayload{TicketID: f.ticket.ID, Title: "Leaking roof", Description: "Water drips in hall B."}
}

func confidence(v float64) *float64 { return &v }

func TestClassifyStoresPredictionAndConfidence(t *testing.T) {
	f := newEnrichmentFixture()
	f.gateway.classify = &aigateway.ClassifyResult{
		Category:   "ADMINISTRATIVE",
		Confidence: confidence(0.91),
		Raw:        map[string]any{"category": "ADMINISTRATIVE"},
	}

	require.NoError(t, f.svc.Classify(context.Background(), f.payload()))

	require.Len(t, f.predictions.predictions, 1)
	p := f.predictions.predictions[0]
	assert.Equal(t, domain.PredictionCategorization, p.Type)
	assert.Equal(t, "test-model", p.Model)
	assert.Equal(t, "ADMINISTRATIVE", p.Result["category"])
	assert.InDelta(t, 0.91, *f.tickets.get(f.ticket.ID).CategoryConfidence, 1e-9)
}

func TestModerateFlagsToxicTickets(t *testing.T) {
	f := newEnrichmentFixture()
	f.gateway.moderation = &aigateway.ModerationResult{IsToxic: false}
	require.NoError(t, f.svc.Moderate(context.Background(), f.payload()))
	assert.Len(t, f.predictions.predictions, 1)
	assert.False(t, f.tickets.get(f.ticket.ID).IsToxic)

	f.gateway.moderation = &aigateway.ModerationResult{IsToxic: true, Severity: "high", Action: "block"}
	require.NoError(t, f.svc.Moderate(context.Background(), f.payload()))

	stored := f.tickets.get(f.ticket.ID)
	assert.True(t, stored.IsToxic)
	assert.Equal(t, "high", stored.ToxicitySeverity)
	assert.Equal(t, domain.ModerationBlock, stored.ModerationAction)
	assert.Equal(t, 1, stored.Version, "enrichment does not bump the version")
}

func TestModerateCleanResultClearsEarlierFlag(t *testing.T) {
	f := newEnrichmentFixture()
	f.gateway.moderation = &aigateway.ModerationResult{IsToxic: true, Severity: "medium", Action: "flag"}
	require.NoError(t, f.svc.Moderate(context.Background(), f.payload()))
	require.True(t, f.tickets.get(f.ticket.ID).IsToxic)

	f.gateway.moderation = &aigateway.ModerationResult{IsToxic: false, Severity: "medium", Action: "flag"}
	require.NoError(t, f.svc.Moderate(context.Background(), f.payload()))

	stored := f.tickets.get(f.ticket.ID)
	assert.False(t, stored.IsToxic)
	assert.Empty(t, stored.ToxicitySeverity)
	assert.Empty(t, stored.ModerationAction)
	assert.Len(t, f.predictions.predictions, 2)
}

func TestSummarizeWritesSummary(t *testing.T) {
	f := newEnrichmentFixture()
	f.gateway.summary = &aigateway.SummaryResult{Summary: " Roof leak in hall B. "}

	require.NoError(t, f.svc.Summarize(context.Background(), f.payload()))
	assert.Equal(t, "Roof leak in hall B.", f.tickets.get(f.ticket.ID).Summary)
	assert.Equal(t, domain.PredictionSummary, f.predictions.predictions[0].Type)
}

func TestEmbedRedeliveryKeepsOneEmbedding(t *testing.T) {
	f := newEnrichmentFixture()
	f.gateway.embedding = &aigateway.EmbeddingResult{Embedding: []float64{0.1, 0.2}, Model: "embed-v1"}

	require.NoError(t, f.svc.Embed(context.Background(), f.payload()))
	f.gateway.embedding = &aigateway.EmbeddingResult{Embedding: []float64{0.3, 0.4}, Model: "embed-v1"}
	require.NoError(t, f.svc.Embed(context.Background(), f.payload()))

	require.Len(t, f.embeddings.byTicket, 1)
	assert.Equal(t, []float64{0.3, 0.4}, f.embeddings.byTicket[f.ticket.ID].Vector)
}

func TestGatewayErrorsPropagate(t *testing.T) {
	f := newEnrichmentFixture()
	f.gateway.err = errGatewayDown

	err := f.svc.Priority(context.Background(), f.payload())
	require.Error(t, err)
	assert.ErrorIs(t, err, aigateway.ErrUnavailable)
	assert.True(t, aigateway.IsRetryable(err))
	assert.Empty(t, f.predictions.predictions)
	assert.Nil(t, f.tickets.get(f.ticket.ID).PriorityConfidence)
}

func TestMissingTicketIsNotRetried(t *testing.T) {
	f := newEnrichmentFixture()
	p := f.payload()
	p.TicketID = "gone"

	err := f.svc.Summarize(context.Background(), p)
	assert.ErrorIs(t, err, ErrJobTargetMissing)
	assert.Zero(t, f.gateway.calls)

	err = f.svc.Summarize(context.Background(), domain.TextPayload{})
	assert.ErrorIs(t, err, ErrInvalidJobPayload)
}

func TestOCRUpdatesAttachment(t *testing.T) {
	f := newEnrichmentFixture()
	att := &domain.Attachment{TicketID: f.ticket.ID, FileURL: "https://files.campus.test/x.png", MimeType: "image/png"}
	require.NoError(t, f.attachments.Create(context.Background(), att))
	f.gateway.ocr = &aigateway.OCRResult{Text: "ROOM 204"}

	require.NoError(t, f.svc.OCR(context.Background(), domain.OCRPayload{AttachmentID: att.ID}))

	stored, err := f.attachments.GetByID(context.Background(), att.ID)
	require.NoError(t, err)
	assert.True(t, stored.OCRProcessed)
	assert.Equal(t, "ROOM 204", stored.OCRText)

	err = f.svc.OCR(context.Background(), domain.OCRPayload{AttachmentID: "missing"})
	assert.ErrorIs(t, err, ErrJobTargetMissing)
}

func TestNotifyChannels(t *testing.T) {
	f := newEnrichmentFixture()
	ctx := context.Background()

	require.NoError(t, f.svc.Notify(ctx, domain.NotificationPayload{
		Channel: domain.ChannelInApp, UserID: "student-1", Subject: "Hi", Message: "There", EntityType: "ticket", EntityID: f.ticket.ID,
	}))
	require.Len(t, f.notifications.notifications, 1)
	assert.Equal(t, strPtr(f.ticket.ID), f.notifications.notifications[0].EntityID)

	require.NoError(t, f.svc.Notify(ctx, domain.NotificationPayload{
		Channel: domain.ChannelEmail, UserID: "student-1", Subject: "Resolved", Message: "Done",
	}))
	require.Len(t, f.transport.sent, 1)
	assert.Equal(t, "s1@campus.test", f.transport.sent[0].Email)

	err := f.svc.Notify(ctx, domain.NotificationPayload{Channel: domain.ChannelSMS, UserID: "student-1"})
	assert.ErrorIs(t, err, ErrInvalidJobPayload, "user has no phone")

	err = f.svc.Notify(ctx, domain.NotificationPayload{Channel: "fax"})
	assert.ErrorIs(t, err, ErrInvalidJobPayload)
}
