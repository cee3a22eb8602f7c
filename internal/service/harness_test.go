package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/campusvoice/ticket-service/internal/domain"
	"github.com/campusvoice/ticket-service/internal/events"
)

const (
	collegeID = "7f1d5a5e-3a9e-4d55-9a57-0c6f2f1b6a01"
	deptID    = "0b6e8c2a-51f7-4c35-8f83-7a4a2a9d6b02"
)

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

type harness struct {
	clock         *testClock
	tickets       *fakeTicketRepo
	users         *fakeUserRepo
	org           *fakeOrgRepo
	queue         *fakeQueue
	messages      *fakeMessageRepo
	attachments   *fakeAttachmentRepo
	predictions   *fakePredictionRepo
	audit         *fakeAuditRepo
	dispatcher    events.Dispatcher
	mu            sync.Mutex
	published     []events.Event
	resolver      *RoutingResolver
	escalations   *EscalationService
	sweeper       *SLASweeper
	ticketService *TicketService
}

func newHarness() *harness {
	h := &harness{
		clock:   &testClock{now: baseTime},
		tickets: newFakeTicketRepo(),
		users: &fakeUserRepo{users: []domain.User{
			{ID: "student-1", Role: domain.RoleStudent, Active: true, Email: "s1@campus.test"},
			{ID: "student-2", Role: domain.RoleStudent, Active: true},
			{ID: "hod-1", Role: domain.RoleHOD, Active: true, DepartmentID: strPtr(deptID), CollegeID: strPtr(collegeID)},
			{ID: "director-1", Role: domain.RoleDirector, Active: true, CollegeID: strPtr(collegeID)},
			{ID: "campus-1", Role: domain.RoleCampusAdmin, Active: true},
			{ID: "sysadmin-1", Role: domain.RoleSystemAdmin, Active: true},
			{ID: "warden-1", Role: domain.RoleHostelWarden, Active: true},
		}},
		org: &fakeOrgRepo{
			departments: map[string]domain.Department{
				deptID: {ID: deptID, CollegeID: collegeID, Name: "Computer Science", HodID: strPtr("hod-1"), IsActive: true},
			},
			colleges: map[string]domain.College{
				collegeID: {ID: collegeID, Name: "Engineering", DirectorID: strPtr("director-1"), IsActive: true},
			},
		},
		queue:       &fakeQueue{},
		messages:    &fakeMessageRepo{},
		attachments: newFakeAttachmentRepo(),
		predictions: &fakePredictionRepo{},
		audit:       &fakeAuditRepo{},
	}

	logger := zap.NewNop()
	h.dispatcher = events.NewInMemoryDispatcher(logger)
	for _, t := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketEscalated,
		events.EventTicketStatusChanged,
		events.EventTicketMessageAdded,
	} {
		h.dispatcher.Subscribe(t, h.record)
	}

	h.resolver = NewRoutingResolver(h.users, h.org, logger)
	h.escalations = NewEscalationService(EscalationDependencies{
		TicketRepo:     h.tickets,
		EscalationRepo: fakeEscalationRepo{tickets: h.tickets},
		Resolver:       h.resolver,
		Dispatcher:     h.dispatcher,
		Logger:         logger,
		Clock:          h.clock.Now,
	})
	h.sweeper = NewSLASweeper(SLASweeperDependencies{
		TicketRepo: h.tickets,
		Escalator:  h.escalations,
		Logger:     logger,
		Clock:      h.clock.Now,
	})
	h.ticketService = NewTicketService(TicketDependencies{
		TicketRepo:     h.tickets,
		MessageRepo:    h.messages,
		AttachmentRepo: h.attachments,
		PredictionRepo: h.predictions,
		Resolver:       h.resolver,
		Escalator:      h.escalations,
		Queue:          h.queue,
		Dispatcher:     h.dispatcher,
		Audit:          NewAuditService(h.audit, logger),
		Logger:         logger,
		NumberPrefix:   "CMP",
		Clock:          h.clock.Now,
	})
	return h
}

func (h *harness) record(_ context.Context, e events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.published = append(h.published, e)
	return nil
}

func (h *harness) user(id string) *domain.User {
	for i := range h.users.users {
		if h.users.users[i].ID == id {
			u := h.users.users[i]
			return &u
		}
	}
	return nil
}

// seedTicket stores an open ticket of student-1 at level, assigned to assignee.
func (h *harness) seedTicket(level domain.HierarchyLevel, assignee *string, mutate ...func(*domain.Ticket)) *domain.Ticket {
	t := domain.Ticket{
		TicketNumber:   "CMP-20260302-00001",
		CreatorID:      "student-1",
		Title:          "Projector broken",
		Description:    "The projector in room 204 does not turn on.",
		Category:       domain.CategoryAcademic,
		Type:           domain.TicketTypeComplaint,
		Priority:       domain.TicketPriorityMedium,
		Status:         domain.TicketStatusOpen,
		CollegeID:      strPtr(collegeID),
		DepartmentID:   strPtr(deptID),
		CurrentLevel:   levelPtr(level),
		AssignedUserID: assignee,
		SLADueAt:       domain.SLADeadline(baseTime, domain.TicketPriorityMedium),
		CreatedAt:      baseTime,
	}
	for _, m := range mutate {
		m(&t)
	}
	return h.tickets.put(t)
}
