package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/campusvoice/ticket-service/internal/aigateway"
	"github.com/campusvoice/ticket-service/internal/domain"
	"github.com/campusvoice/ticket-service/internal/repository"
)

type fakeTicketRepo struct {
	mu          sync.Mutex
	seq         int
	tickets     map[string]*domain.Ticket
	numbers     map[string]bool
	escalations []domain.Escalation
	messages    []domain.TicketMessage

	createErrs  []error
	listErr     error
	beforeApply func(change *domain.EscalationChange)
	enrichments []domain.EnrichmentPatch
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}, numbers: map[string]bool{}}
}

func (r *fakeTicketRepo) nextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s-%d", prefix, r.seq)
}

func (r *fakeTicketRepo) put(t domain.Ticket) *domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == "" {
		t.ID = r.nextID("t")
	}
	if t.Version == 0 {
		t.Version = 1
	}
	stored := t
	r.tickets[t.ID] = &stored
	return &stored
}

func (r *fakeTicketRepo) get(id string) domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.tickets[id]
}

func (r *fakeTicketRepo) escalationsFor(ticketID string) []domain.Escalation {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Escalation
	for _, e := range r.escalations {
		if e.TicketID == ticketID {
			out = append(out, e)
		}
	}
	return out
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.createErrs) > 0 {
		err := r.createErrs[0]
		r.createErrs = r.createErrs[1:]
		if err != nil {
			return err
		}
	}
	if r.numbers[ticket.TicketNumber] {
		return repository.ErrDuplicateTicketNumber
	}
	r.numbers[ticket.TicketNumber] = true
	ticket.ID = r.nextID("t")
	ticket.Version = 1
	ticket.UpdatedAt = ticket.CreatedAt
	stored := *ticket
	r.tickets[ticket.ID] = &stored
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if current.Version != ticket.Version {
		return repository.ErrVersionConflict
	}
	ticket.Version++
	stored := *ticket
	r.tickets[ticket.ID] = &stored
	return nil
}

func (r *fakeTicketRepo) UpdateEnrichment(_ context.Context, id string, patch domain.EnrichmentPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	r.enrichments = append(r.enrichments, patch)
	if patch.Summary != nil {
		t.Summary = *patch.Summary
	}
	if patch.IsToxic != nil {
		t.IsToxic = *patch.IsToxic
	}
	if patch.ToxicitySeverity != nil {
		t.ToxicitySeverity = *patch.ToxicitySeverity
	}
	if patch.ModerationAction != nil {
		t.ModerationAction = *patch.ModerationAction
	}
	if patch.CategoryConfidence != nil {
		t.CategoryConfidence = patch.CategoryConfidence
	}
	if patch.PriorityConfidence != nil {
		t.PriorityConfidence = patch.PriorityConfidence
	}
	return nil
}

func (r *fakeTicketRepo) ApplyEscalation(_ context.Context, change *domain.EscalationChange) error {
	if r.beforeApply != nil {
		hook := r.beforeApply
		r.beforeApply = nil
		hook(change)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[change.TicketID]
	if !ok {
		return pgx.ErrNoRows
	}
	esc := change.Escalation
	if t.Version != change.ExpectedVersion || t.Level() != esc.FromLevel || t.Status.Terminal() {
		return repository.ErrVersionConflict
	}
	to := esc.ToLevel
	t.Status = domain.TicketStatusEscalated
	t.CurrentLevel = &to
	t.AssignedUserID = change.NewAssigneeID
	t.Version++
	t.UpdatedAt = change.At

	esc.ID = r.nextID("esc")
	esc.CreatedAt = change.At
	r.escalations = append(r.escalations, *esc)
	if change.SystemMessage != nil {
		msg := *change.SystemMessage
		msg.ID = r.nextID("msg")
		msg.CreatedAt = change.At
		r.messages = append(r.messages, msg)
	}
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *t
	return &clone, nil
}

func (r *fakeTicketRepo) GetByNumber(_ context.Context, number string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.TicketNumber == number {
			clone := *t
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, f repository.TicketFilter) ([]domain.Ticket, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, t := range r.tickets {
		if !matches(t, f) {
			continue
		}
		out = append(out, *t)
	}
	sortTickets(out, f.OrderBy, f.Descending)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *fakeTicketRepo) Count(ctx context.Context, f repository.TicketFilter) (int, error) {
	list, err := r.ListWithFilter(ctx, f)
	return len(list), err
}

// sortTickets mirrors the repository ordering: the requested column, then id.
func sortTickets(list []domain.Ticket, orderBy string, desc bool) {
	key := func(t domain.Ticket) time.Time {
		switch orderBy {
		case "sla_due_at":
			return t.SLADueAt
		case "updated_at":
			return t.UpdatedAt
		default:
			return t.CreatedAt
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		a, b := key(list[i]), key(list[j])
		if !a.Equal(b) {
			return a.Before(b) != desc
		}
		return list[i].ID < list[j].ID
	})
}

func matches(t *domain.Ticket, f repository.TicketFilter) bool {
	if f.CreatorID != nil && t.CreatorID != *f.CreatorID {
		return false
	}
	if f.AssignedUserID != nil && (t.AssignedUserID == nil || *t.AssignedUserID != *f.AssignedUserID) {
		return false
	}
	if len(f.Statuses) > 0 && !contains(f.Statuses, t.Status) {
		return false
	}
	if len(f.Levels) > 0 && (t.CurrentLevel == nil || !contains(f.Levels, *t.CurrentLevel)) {
		return false
	}
	if len(f.ExcludeLevels) > 0 && t.CurrentLevel != nil && contains(f.ExcludeLevels, *t.CurrentLevel) {
		return false
	}
	if f.SLADueBefore != nil && !t.SLADueAt.Before(*f.SLADueBefore) {
		return false
	}
	return true
}

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

type fakeEscalationRepo struct {
	tickets *fakeTicketRepo
}

func (r fakeEscalationRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Escalation, error) {
	return r.tickets.escalationsFor(ticketID), nil
}

type fakeUserRepo struct {
	users []domain.User
	err   error
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	for i := range r.users {
		if r.users[i].ID == id {
			u := r.users[i]
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) FindActiveByRole(_ context.Context, role domain.UserRole, scope repository.UserScope) (*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	for i := range r.users {
		u := r.users[i]
		if u.Role != role || !u.Active {
			continue
		}
		if scope.DepartmentID != nil && (u.DepartmentID == nil || *u.DepartmentID != *scope.DepartmentID) {
			continue
		}
		if scope.CollegeID != nil && (u.CollegeID == nil || *u.CollegeID != *scope.CollegeID) {
			continue
		}
		return &u, nil
	}
	return nil, pgx.ErrNoRows
}

type fakeOrgRepo struct {
	departments map[string]domain.Department
	colleges    map[string]domain.College
}

func (r *fakeOrgRepo) GetDepartment(_ context.Context, id string) (*domain.Department, error) {
	d, ok := r.departments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &d, nil
}

func (r *fakeOrgRepo) GetCollege(_ context.Context, id string) (*domain.College, error) {
	c, ok := r.colleges[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &c, nil
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []domain.Job
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, job domain.Job) error {
	if q.err != nil {
		return q.err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) types() []domain.JobType {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]domain.JobType, 0, len(q.jobs))
	for _, j := range q.jobs {
		out = append(out, j.Type)
	}
	return out
}

type fakeMessageRepo struct {
	seq      int
	messages []domain.TicketMessage
}

func (r *fakeMessageRepo) Create(_ context.Context, msg *domain.TicketMessage) error {
	r.seq++
	msg.ID = fmt.Sprintf("m-%d", r.seq)
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *fakeMessageRepo) ListByTicket(_ context.Context, ticketID string, includeInternal bool) ([]domain.TicketMessage, error) {
	var out []domain.TicketMessage
	for _, m := range r.messages {
		if m.TicketID == ticketID && (includeInternal || !m.IsInternal) {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeAttachmentRepo struct {
	seq         int
	attachments map[string]*domain.Attachment
}

func newFakeAttachmentRepo() *fakeAttachmentRepo {
	return &fakeAttachmentRepo{attachments: map[string]*domain.Attachment{}}
}

func (r *fakeAttachmentRepo) Create(_ context.Context, a *domain.Attachment) error {
	r.seq++
	a.ID = fmt.Sprintf("a-%d", r.seq)
	stored := *a
	r.attachments[a.ID] = &stored
	return nil
}

func (r *fakeAttachmentRepo) GetByID(_ context.Context, id string) (*domain.Attachment, error) {
	a, ok := r.attachments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *a
	return &clone, nil
}

func (r *fakeAttachmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	var out []domain.Attachment
	for _, a := range r.attachments {
		if a.TicketID == ticketID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeAttachmentRepo) UpdateOCR(_ context.Context, id, text string) error {
	a, ok := r.attachments[id]
	if !ok {
		return pgx.ErrNoRows
	}
	a.OCRText = text
	a.OCRProcessed = true
	return nil
}

type fakePredictionRepo struct {
	predictions []domain.AIPrediction
}

func (r *fakePredictionRepo) Create(_ context.Context, p *domain.AIPrediction) error {
	p.ID = fmt.Sprintf("p-%d", len(r.predictions)+1)
	r.predictions = append(r.predictions, *p)
	return nil
}

func (r *fakePredictionRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.AIPrediction, error) {
	var out []domain.AIPrediction
	for _, p := range r.predictions {
		if p.TicketID == ticketID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeEmbeddingRepo struct {
	byTicket map[string]domain.Embedding
}

func (r *fakeEmbeddingRepo) Upsert(_ context.Context, e *domain.Embedding) error {
	if r.byTicket == nil {
		r.byTicket = map[string]domain.Embedding{}
	}
	e.UpdatedAt = time.Now()
	r.byTicket[e.TicketID] = *e
	return nil
}

func (r *fakeEmbeddingRepo) GetByTicket(_ context.Context, ticketID string) (*domain.Embedding, error) {
	e, ok := r.byTicket[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &e, nil
}

type fakeNotificationRepo struct {
	notifications []domain.Notification
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	n.ID = fmt.Sprintf("n-%d", len(r.notifications)+1)
	r.notifications = append(r.notifications, *n)
	return nil
}

type fakeAuditRepo struct {
	entries []domain.AuditEntry
	err     error
}

func (r *fakeAuditRepo) Create(_ context.Context, e *domain.AuditEntry) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, *e)
	return nil
}

type fakeTransport struct {
	sent []domain.NotificationPayload
}

func (t *fakeTransport) Send(_ context.Context, n domain.NotificationPayload) error {
	t.sent = append(t.sent, n)
	return nil
}

var errGatewayDown = &aigateway.Error{Endpoint: "test", StatusCode: 503, Err: aigateway.ErrUnavailable}

type fakeGateway struct {
	err        error
	classify   *aigateway.ClassifyResult
	priority   *aigateway.PriorityResult
	moderation *aigateway.ModerationResult
	summary    *aigateway.SummaryResult
	embedding  *aigateway.EmbeddingResult
	ocr        *aigateway.OCRResult
	calls      int
}

func (g *fakeGateway) Classify(context.Context, string, string) (*aigateway.ClassifyResult, error) {
	g.calls++
	return g.classify, g.err
}

func (g *fakeGateway) PredictPriority(context.Context, string, string) (*aigateway.PriorityResult, error) {
	g.calls++
	return g.priority, g.err
}

func (g *fakeGateway) Moderate(context.Context, string) (*aigateway.ModerationResult, error) {
	g.calls++
	return g.moderation, g.err
}

func (g *fakeGateway) Summarize(context.Context, string, string) (*aigateway.SummaryResult, error) {
	g.calls++
	return g.summary, g.err
}

func (g *fakeGateway) Embed(context.Context, string) (*aigateway.EmbeddingResult, error) {
	g.calls++
	return g.embedding, g.err
}

func (g *fakeGateway) OCR(context.Context, string, string) (*aigateway.OCRResult, error) {
	g.calls++
	return g.ocr, g.err
}

func (g *fakeGateway) Model() string { return "test-model" }

func strPtr(s string) *string { return &s }

func levelPtr(l domain.HierarchyLevel) *domain.HierarchyLevel { return &l }

var errStorage = errors.New("storage unavailable")
