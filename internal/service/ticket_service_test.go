package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusvoice/ticket-service/internal/domain"
	"github.com/campusvoice/ticket-service/internal/events"
	"github.com/campusvoice/ticket-service/internal/repository"
	apperrors "github.com/campusvoice/ticket-service/pkg/util/errorutil"
)

func validCreateInput() CreateTicketInput {
	return CreateTicketInput{
		Title:        "Wi-Fi down in library",
		Description:  "No connectivity on the second floor since Monday.",
		Category:     domain.CategoryAcademic,
		Priority:     domain.TicketPriorityCritical,
		DepartmentID: strPtr(deptID),
	}
}

func TestCreateRoutesAndAnchorsSLA(t *testing.T) {
	h := newHarness()

	ticket, err := h.ticketService.Create(context.Background(), h.user("student-1"), validCreateInput())
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^CMP-20260302-\d{5}$`), ticket.TicketNumber)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.LevelHOD, ticket.Level())
	assert.Equal(t, strPtr("hod-1"), ticket.AssignedUserID)
	assert.Equal(t, baseTime.Add(6*time.Hour), ticket.SLADueAt)
	assert.Equal(t, domain.TicketTypeComplaint, ticket.Type)

	assert.ElementsMatch(t,
		[]domain.JobType{domain.JobSummarize, domain.JobModerate, domain.JobEmbed},
		h.queue.types())
	require.Len(t, h.audit.entries, 1)
	assert.Equal(t, domain.AuditTicketCreated, h.audit.entries[0].Action)
	require.Len(t, h.published, 1)
	assert.Equal(t, events.EventTicketCreated, h.published[0].Type)
}

func TestCreateTransportWithoutIncharge(t *testing.T) {
	h := newHarness()
	in := validCreateInput()
	in.Category = domain.CategoryTransport
	in.Priority = ""

	ticket, err := h.ticketService.Create(context.Background(), h.user("student-1"), in)
	require.NoError(t, err)

	stored := h.tickets.get(ticket.ID)
	assert.Equal(t, domain.LevelTransportIncharge, stored.Level())
	assert.Nil(t, stored.AssignedUserID)
	assert.Equal(t, domain.TicketPriorityMedium, stored.Priority)
	assert.Equal(t, baseTime.Add(48*time.Hour), stored.SLADueAt)
}

func TestCreateDoesNotEnqueueWhenPersistenceFails(t *testing.T) {
	h := newHarness()
	h.tickets.createErrs = []error{errStorage}

	_, err := h.ticketService.Create(context.Background(), h.user("student-1"), validCreateInput())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))
	assert.Empty(t, h.queue.types())
	assert.Empty(t, h.published)
}

func TestCreateSurvivesQueueAndAuditOutage(t *testing.T) {
	h := newHarness()
	h.queue.err = errors.New("redis down")
	h.audit.err = errStorage

	ticket, err := h.ticketService.Create(context.Background(), h.user("student-1"), validCreateInput())
	require.NoError(t, err)
	assert.NotEmpty(t, ticket.ID)
}

func TestCreateRetriesTicketNumberCollision(t *testing.T) {
	h := newHarness()
	suffixes := []int{42, 42, 7}
	h.ticketService.suffix = func() int {
		next := suffixes[0]
		suffixes = suffixes[1:]
		return next
	}

	first, err := h.ticketService.Create(context.Background(), h.user("student-1"), validCreateInput())
	require.NoError(t, err)
	second, err := h.ticketService.Create(context.Background(), h.user("student-2"), validCreateInput())
	require.NoError(t, err)

	assert.Equal(t, "CMP-20260302-00042", first.TicketNumber)
	assert.Equal(t, "CMP-20260302-00007", second.TicketNumber)
}

func TestCreateGivesUpAfterRepeatedCollisions(t *testing.T) {
	h := newHarness()
	h.tickets.createErrs = []error{
		repository.ErrDuplicateTicketNumber,
		repository.ErrDuplicateTicketNumber,
		repository.ErrDuplicateTicketNumber,
		repository.ErrDuplicateTicketNumber,
		repository.ErrDuplicateTicketNumber,
	}

	_, err := h.ticketService.Create(context.Background(), h.user("student-1"), validCreateInput())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))
	assert.Empty(t, h.queue.types())
}

func TestCreateValidatesInput(t *testing.T) {
	h := newHarness()
	in := validCreateInput()
	in.Title = "  "
	in.Category = "PARKING"

	_, err := h.ticketService.Create(context.Background(), h.user("student-1"), in)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	de := apperrors.ToDomainError(err)
	assert.Contains(t, de.Details, "Title")
	assert.Contains(t, de.Details, "Category")
}

func TestUpdatePriorityRecomputesSLAFromCreation(t *testing.T) {
	h := newHarness()
	ticket := h.seedTicket(domain.LevelHOD, strPtr("hod-1"))
	h.clock.now = baseTime.Add(30 * time.Hour)

	high := domain.TicketPriorityHigh
	updated, err := h.ticketService.Update(context.Background(), h.user("hod-1"), ticket.ID, UpdateTicketInput{Priority: &high})
	require.NoError(t, err)

	assert.Equal(t, baseTime.Add(24*time.Hour), updated.SLADueAt)
	assert.Equal(t, baseTime.Add(24*time.Hour), h.tickets.get(ticket.ID).SLADueAt)
}

func TestUpdateClosedTicketIsRejected(t *testing.T) {
	h := newHarness()
	ticket := h.seedTicket(domain.LevelHOD, strPtr("hod-1"), func(t *domain.Ticket) { t.Status = domain.TicketStatusClosed })

	title := "new title"
	_, err := h.ticketService.Update(context.Background(), h.user("hod-1"), ticket.ID, UpdateTicketInput{Title: &title})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestUpdateStatusTransitions(t *testing.T) {
	h := newHarness()
	ticket := h.seedTicket(domain.LevelHOD, strPtr("hod-1"))
	hod := h.user("hod-1")

	escalated := domain.TicketStatusEscalated
	_, err := h.ticketService.Update(context.Background(), hod, ticket.ID, UpdateTicketInput{Status: &escalated})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "ESCALATED only via escalation")

	resolved := domain.TicketStatusResolved
	updated, err := h.ticketService.Update(context.Background(), hod, ticket.ID, UpdateTicketInput{Status: &resolved})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, updated.Status)
	require.NotNil(t, updated.ResolvedAt)

	_, err = h.ticketService.Update(context.Background(), h.user("student-1"), ticket.ID, UpdateTicketInput{Status: &resolved})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	stale := 1
	title := "late edit"
	_, err = h.ticketService.Update(context.Background(), h.user("student-1"), ticket.ID, UpdateTicketInput{Title: &title, Version: &stale})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestRateRules(t *testing.T) {
	h := newHarness()
	open := h.seedTicket(domain.LevelHOD, strPtr("hod-1"))
	resolved := h.seedTicket(domain.LevelHOD, strPtr("hod-1"), func(t *domain.Ticket) { t.Status = domain.TicketStatusResolved })
	ctx := context.Background()

	_, err := h.ticketService.Rate(ctx, h.user("student-2"), resolved.ID, RateInput{Rating: 5})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = h.ticketService.Rate(ctx, h.user("student-1"), open.ID, RateInput{Rating: 5})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = h.ticketService.Rate(ctx, h.user("student-1"), resolved.ID, RateInput{Rating: 6})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	rated, err := h.ticketService.Rate(ctx, h.user("student-1"), resolved.ID, RateInput{Rating: 4, Feedback: " thanks "})
	require.NoError(t, err)
	require.NotNil(t, rated.Rating)
	assert.Equal(t, 4, *rated.Rating)
	assert.Equal(t, "thanks", rated.Feedback)

	_, err = h.ticketService.Rate(ctx, h.user("student-1"), resolved.ID, RateInput{Rating: 1})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeTerminalState))
}

func TestAddMessageEnqueuesOCRForImages(t *testing.T) {
	h := newHarness()
	ticket := h.seedTicket(domain.LevelHOD, strPtr("hod-1"))

	msg, err := h.ticketService.AddMessage(context.Background(), h.user("student-1"), ticket.ID, AddMessageInput{
		Body: "Photo of the broken projector attached.",
		Attachments: []AttachmentInput{
			{FileURL: "https://files.campus.test/a.png", FileName: "a.png", MimeType: "image/png", SizeBytes: 1024},
			{FileURL: "https://files.campus.test/b.txt", FileName: "b.txt", MimeType: "text/plain", SizeBytes: 12},
		},
	})
	require.NoError(t, err)
	require.Len(t, msg.Attachments, 2)
	assert.Equal(t, []domain.JobType{domain.JobOCR}, h.queue.types())

	require.Len(t, h.published, 1)
	payload := h.published[0].Payload.(events.TicketMessageAddedPayload)
	assert.Equal(t, strPtr("hod-1"), payload.RecipientID)

	details, err := h.ticketService.Get(context.Background(), h.user("hod-1"), ticket.ID)
	require.NoError(t, err)
	require.Len(t, details.Messages, 1)
	assert.Len(t, details.Messages[0].Attachments, 2)
}

func TestAddMessageInternalNoteRequiresHandler(t *testing.T) {
	h := newHarness()
	ticket := h.seedTicket(domain.LevelHOD, strPtr("hod-1"))

	_, err := h.ticketService.AddMessage(context.Background(), h.user("student-1"), ticket.ID, AddMessageInput{
		Body: "secret", IsInternal: true,
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = h.ticketService.AddMessage(context.Background(), h.user("hod-1"), ticket.ID, AddMessageInput{
		Body: "checking with facilities", IsInternal: true,
	})
	require.NoError(t, err)

	details, err := h.ticketService.Get(context.Background(), h.user("student-1"), ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, details.Messages)

	details, err = h.ticketService.Get(context.Background(), h.user("hod-1"), ticket.ID)
	require.NoError(t, err)
	require.Len(t, details.Messages, 1)
	assert.True(t, details.Messages[0].IsInternal)
}

func TestManualEscalationByHandler(t *testing.T) {
	h := newHarness()
	ticket := h.seedTicket(domain.LevelCampusAdmin, strPtr("campus-1"))

	_, err := h.ticketService.Escalate(context.Background(), h.user("student-1"), ticket.ID, "please")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	result, err := h.ticketService.Escalate(context.Background(), h.user("campus-1"), ticket.ID, "needs system admin")
	require.NoError(t, err)
	assert.Equal(t, domain.LevelSystemAdmin, result.Level)
	assert.Equal(t, strPtr("sysadmin-1"), result.AssignedUserID)

	list, err := h.ticketService.ListEscalations(context.Background(), h.user("student-1"), ticket.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].AutoEscalated)
}

func TestReanalyze(t *testing.T) {
	h := newHarness()
	ticket := h.seedTicket(domain.LevelHOD, strPtr("hod-1"))

	require.NoError(t, h.ticketService.Reanalyze(context.Background(), h.user("hod-1"), ticket.ID))
	assert.Equal(t, []domain.JobType{domain.JobClassify, domain.JobPriority}, h.queue.types())

	h.queue.err = errors.New("redis down")
	err := h.ticketService.Reanalyze(context.Background(), h.user("hod-1"), ticket.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnavailable))
}

func TestListScopesByRole(t *testing.T) {
	h := newHarness()
	h.seedTicket(domain.LevelHOD, strPtr("hod-1"))
	h.seedTicket(domain.LevelDirector, strPtr("director-1"), func(t *domain.Ticket) { t.CreatorID = "student-2" })

	mine, err := h.ticketService.List(context.Background(), h.user("student-2"), ListTicketsInput{})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	assigned, err := h.ticketService.List(context.Background(), h.user("hod-1"), ListTicketsInput{})
	require.NoError(t, err)
	assert.Len(t, assigned, 1)

	all, err := h.ticketService.List(context.Background(), h.user("campus-1"), ListTicketsInput{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
