package retention

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/cityprop/backoffice/internal/observability"
	"github.com/cityprop/backoffice/internal/orders"
	"github.com/cityprop/backoffice/internal/shared"
)

// Service implements the follow-up workflows: retention calls, workshop
// delay alerts and their resolution.
type Service struct {
	repo    Repository
	logger  *slog.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewService wires the retention service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// WithClock overrides the clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithMetrics enables business counters.
func (s *Service) WithMetrics(m *observability.Metrics) *Service {
	s.metrics = m
	return s
}

// Today returns the current business day in UTC, truncated to midnight.
func (s *Service) Today() time.Time {
	t := s.now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AlertPage is one page of normalized alerts.
type AlertPage struct {
	Alerts     []Alert
	Pagination shared.Pagination
}

func paginate(all []Alert, page int) *AlertPage {
	p := shared.NewPagination(page, AlertsPerPage, len(all))
	start := p.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + AlertsPerPage
	if end > len(all) {
		end = len(all)
	}
	return &AlertPage{Alerts: all[start:end], Pagination: p}
}

func sortAlerts(all []Alert) {
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].TriggerDate.Equal(all[j].TriggerDate) {
			return all[i].TriggerDate.Before(all[j].TriggerDate)
		}
		if all[i].Ref.Kind != all[j].Ref.Kind {
			return all[i].Ref.Kind < all[j].Ref.Kind
		}
		return all[i].Ref.ID < all[j].Ref.ID
	})
}

// RetentionAlerts merges climate and carpet retention alerts, oldest
// trigger first. search matches on client name or phone.
func (s *Service) RetentionAlerts(ctx context.Context, today time.Time, search string, page int) (*AlertPage, error) {
	climate, err := s.repo.ListClimateAlerts(ctx,
		Cutoff(today, CityPropWindowDays), Cutoff(today, ClimateWindowDays), search)
	if err != nil {
		return nil, err
	}
	carpet, err := s.repo.ListCarpetAlerts(ctx, Cutoff(today, CarpetWindowDays), search)
	if err != nil {
		return nil, err
	}
	all := append(climate, carpet...)
	sortAlerts(all)
	return paginate(all, page), nil
}

// DelayAlerts lists carpet orders stuck in the workshop past the delay
// window.
func (s *Service) DelayAlerts(ctx context.Context, today time.Time, search string, page int) (*AlertPage, error) {
	all, err := s.repo.ListDelayAlerts(ctx, Cutoff(today, DelayWindowDays), search)
	if err != nil {
		return nil, err
	}
	sortAlerts(all)
	return paginate(all, page), nil
}

// Counts are the alert badge totals shown in the navigation.
type Counts struct {
	Retention int
	Delay     int
}

// AlertCounts returns the badge totals for the given day.
func (s *Service) AlertCounts(ctx context.Context, today time.Time) (Counts, error) {
	climate, err := s.repo.ListClimateAlerts(ctx,
		Cutoff(today, CityPropWindowDays), Cutoff(today, ClimateWindowDays), "")
	if err != nil {
		return Counts{}, err
	}
	carpet, err := s.repo.ListCarpetAlerts(ctx, Cutoff(today, CarpetWindowDays), "")
	if err != nil {
		return Counts{}, err
	}
	delay, err := s.repo.ListDelayAlerts(ctx, Cutoff(today, DelayWindowDays), "")
	if err != nil {
		return Counts{}, err
	}
	return Counts{Retention: len(climate) + len(carpet), Delay: len(delay)}, nil
}

// MarkRetained flags the referenced detail as retained. Marking an already
// retained record is a no-op; changed reports whether this call flipped the
// flag.
func (s *Service) MarkRetained(ctx context.Context, ref DetailRef) (changed bool, err error) {
	switch ref.Kind {
	case KindClimate:
		changed, err = s.repo.MarkClimateRetained(ctx, ref.ID)
	case KindCarpet:
		changed, err = s.repo.MarkCarpetRetained(ctx, ref.ID)
	default:
		return false, shared.NewValidationError("Référence de fiche invalide.", nil)
	}
	if err != nil {
		return false, err
	}
	if changed {
		s.metrics.ClientRetained()
		s.logger.Info("client retained", "detail_kind", ref.Kind, "detail_id", ref.ID)
	}
	return changed, nil
}

// StatusFromAction maps a posted resolution action to a carpet status. The
// form posts lowercase action values; any member of the status enum is a
// valid transition target.
func StatusFromAction(action string) (orders.CarpetStatus, bool) {
	st := orders.CarpetStatus(strings.ToUpper(strings.TrimSpace(action)))
	if !st.Valid() {
		return "", false
	}
	return st, true
}

// ResolveDelay moves a delayed carpet to a new status. Delivered targets
// stamp today's delivery date; orders already in a terminal status are left
// untouched.
func (s *Service) ResolveDelay(ctx context.Context, id int64, action string, today time.Time) error {
	target, ok := StatusFromAction(action)
	if !ok {
		return shared.NewValidationError("Action de résolution inconnue.", nil)
	}
	current, err := s.repo.CarpetStatus(ctx, id)
	if err != nil {
		return err
	}
	if current.Terminal() {
		return shared.NewValidationError("Cette fiche est déjà clôturée.", nil)
	}
	var when *time.Time
	if target.Delivered() {
		when = &today
	}
	if err := s.repo.SetCarpetStatus(ctx, id, target, when); err != nil {
		return err
	}
	s.logger.Info("delay alert resolved", "detail_id", id, "status", target)
	return nil
}

// Workshop returns the carpets still in the workshop with their deadline
// urgency for the follow-up board.
func (s *Service) Workshop(ctx context.Context, today time.Time) ([]WorkshopItem, error) {
	items, err := s.repo.ListWorkshop(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Urgency = items[i].Detail.Urgency(today)
	}
	return items, nil
}

// AbandonedPerPage is the abandoned list page size.
const AbandonedPerPage = 10

// Abandoned lists the carpet orders written off by their clients, newest
// pickup first.
func (s *Service) Abandoned(ctx context.Context, f AbandonedFilter) (*AlertPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	items, total, err := s.repo.ListAbandoned(ctx, f, AbandonedPerPage, (f.Page-1)*AbandonedPerPage)
	if err != nil {
		return nil, err
	}
	return &AlertPage{
		Alerts:     items,
		Pagination: shared.NewPagination(f.Page, AbandonedPerPage, total),
	}, nil
}

// DelayDetail loads one carpet record with its note history for the
// follow-up detail page.
func (s *Service) DelayDetail(ctx context.Context, id int64, today time.Time) (*WorkshopItem, []Note, error) {
	item, err := s.repo.GetCarpet(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	item.Urgency = item.Detail.Urgency(today)
	notes, err := s.repo.ListNotes(ctx, DetailRef{Kind: KindCarpet, ID: id})
	if err != nil {
		return nil, nil, err
	}
	return item, notes, nil
}

// AddComment records a follow-up note on a detail record. markedRetained
// flags notes taken at the moment the client was marked retained.
func (s *Service) AddComment(ctx context.Context, ref DetailRef, author, body string, markedRetained bool) error {
	body = strings.TrimSpace(body)
	if body == "" {
		return shared.NewValidationError("Le commentaire est vide.", nil)
	}
	n := &Note{
		DetailKind:     ref.Kind,
		DetailID:       ref.ID,
		Author:         author,
		Body:           body,
		MarkedRetained: markedRetained,
		CreatedAt:      s.now().UTC(),
	}
	return s.repo.AddNote(ctx, n)
}

// Comments lists the follow-up notes of a detail record, newest first.
func (s *Service) Comments(ctx context.Context, ref DetailRef) ([]Note, error) {
	return s.repo.ListNotes(ctx, ref)
}
