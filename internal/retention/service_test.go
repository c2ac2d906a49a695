package retention

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cityprop/backoffice/internal/orders"
	"github.com/cityprop/backoffice/internal/shared"
)

type fakeRepo struct {
	Repository

	climate   []Alert
	carpet    []Alert
	delay     []Alert
	abandoned []Alert

	climateRetained map[int64]bool
	carpetRetained  map[int64]bool
	statuses        map[int64]orders.CarpetStatus
	delivered       map[int64]*time.Time
	carpets         map[int64]*WorkshopItem
	notes           []Note
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		climateRetained: map[int64]bool{},
		carpetRetained:  map[int64]bool{},
		statuses:        map[int64]orders.CarpetStatus{},
		delivered:       map[int64]*time.Time{},
		carpets:         map[int64]*WorkshopItem{},
	}
}

func matchSearch(alerts []Alert, search string) []Alert {
	if search == "" {
		return alerts
	}
	var out []Alert
	for _, a := range alerts {
		if strings.Contains(a.ClientName, search) || strings.Contains(a.ClientPhone, search) {
			out = append(out, a)
		}
	}
	return out
}

func (f *fakeRepo) ListClimateAlerts(_ context.Context, _, _ time.Time, search string) ([]Alert, error) {
	return matchSearch(f.climate, search), nil
}

func (f *fakeRepo) ListCarpetAlerts(_ context.Context, _ time.Time, search string) ([]Alert, error) {
	return matchSearch(f.carpet, search), nil
}

func (f *fakeRepo) ListDelayAlerts(_ context.Context, _ time.Time, search string) ([]Alert, error) {
	return matchSearch(f.delay, search), nil
}

func (f *fakeRepo) ListAbandoned(_ context.Context, filter AbandonedFilter, limit, offset int) ([]Alert, int, error) {
	all := matchSearch(f.abandoned, filter.Search)
	total := len(all)
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (f *fakeRepo) GetCarpet(_ context.Context, id int64) (*WorkshopItem, error) {
	it, ok := f.carpets[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return it, nil
}

func (f *fakeRepo) ListNotes(_ context.Context, ref DetailRef) ([]Note, error) {
	var out []Note
	for _, n := range f.notes {
		if n.DetailKind == ref.Kind && n.DetailID == ref.ID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeRepo) MarkClimateRetained(_ context.Context, id int64) (bool, error) {
	if _, ok := f.climateRetained[id]; !ok {
		return false, shared.ErrNotFound
	}
	if f.climateRetained[id] {
		return false, nil
	}
	f.climateRetained[id] = true
	return true, nil
}

func (f *fakeRepo) MarkCarpetRetained(_ context.Context, id int64) (bool, error) {
	if _, ok := f.carpetRetained[id]; !ok {
		return false, shared.ErrNotFound
	}
	if f.carpetRetained[id] {
		return false, nil
	}
	f.carpetRetained[id] = true
	return true, nil
}

func (f *fakeRepo) CarpetStatus(_ context.Context, id int64) (orders.CarpetStatus, error) {
	s, ok := f.statuses[id]
	if !ok {
		return "", shared.ErrNotFound
	}
	return s, nil
}

func (f *fakeRepo) SetCarpetStatus(_ context.Context, id int64, status orders.CarpetStatus, delivered *time.Time) error {
	if _, ok := f.statuses[id]; !ok {
		return shared.ErrNotFound
	}
	f.statuses[id] = status
	f.delivered[id] = delivered
	return nil
}

func (f *fakeRepo) AddNote(_ context.Context, n *Note) error {
	n.ID = int64(len(f.notes) + 1)
	f.notes = append(f.notes, *n)
	return nil
}

func newService(repo Repository) *Service {
	return NewService(repo, slog.New(slog.DiscardHandler)).
		WithClock(func() time.Time { return today })
}

func alertOn(kind DetailKind, id int64, trigger time.Time) Alert {
	return Alert{Ref: DetailRef{Kind: kind, ID: id}, TriggerDate: trigger}
}

func TestRetentionAlertsMergedAndSorted(t *testing.T) {
	repo := newFakeRepo()
	repo.climate = []Alert{
		alertOn(KindClimate, 1, today.AddDate(0, 0, -200)),
		alertOn(KindClimate, 2, today.AddDate(0, 0, -95)),
	}
	repo.carpet = []Alert{
		alertOn(KindCarpet, 3, today.AddDate(0, 0, -250)),
		alertOn(KindCarpet, 4, today.AddDate(0, 0, -181)),
	}
	s := newService(repo)

	page, err := s.RetentionAlerts(context.Background(), today, "", 1)
	require.NoError(t, err)
	require.Len(t, page.Alerts, 4)
	assert.Equal(t, int64(3), page.Alerts[0].Ref.ID)
	assert.Equal(t, int64(1), page.Alerts[1].Ref.ID)
	assert.Equal(t, int64(4), page.Alerts[2].Ref.ID)
	assert.Equal(t, int64(2), page.Alerts[3].Ref.ID)
}

func TestRetentionAlertsPaginated(t *testing.T) {
	repo := newFakeRepo()
	for i := 1; i <= 10; i++ {
		repo.carpet = append(repo.carpet,
			alertOn(KindCarpet, int64(i), today.AddDate(0, 0, -200-i)))
	}
	s := newService(repo)

	page, err := s.RetentionAlerts(context.Background(), today, "", 1)
	require.NoError(t, err)
	assert.Len(t, page.Alerts, AlertsPerPage)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.Equal(t, 10, page.Pagination.Total)

	page, err = s.RetentionAlerts(context.Background(), today, "", 2)
	require.NoError(t, err)
	assert.Len(t, page.Alerts, 10-AlertsPerPage)

	// Out-of-range page clamps to the last one.
	page, err = s.RetentionAlerts(context.Background(), today, "", 99)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Pagination.Page)
	assert.Len(t, page.Alerts, 10-AlertsPerPage)
}

func TestMarkRetainedIdempotent(t *testing.T) {
	repo := newFakeRepo()
	repo.climateRetained[5] = false
	s := newService(repo)
	ref := DetailRef{Kind: KindClimate, ID: 5}

	changed, err := s.MarkRetained(context.Background(), ref)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.MarkRetained(context.Background(), ref)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestMarkRetainedUnknownDetail(t *testing.T) {
	s := newService(newFakeRepo())
	_, err := s.MarkRetained(context.Background(), DetailRef{Kind: KindCarpet, ID: 99})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestResolveDelay(t *testing.T) {
	repo := newFakeRepo()
	repo.statuses[7] = orders.CarpetInProgress
	s := newService(repo)

	err := s.ResolveDelay(context.Background(), 7, "livre_satisfait", today)
	require.NoError(t, err)
	assert.Equal(t, orders.CarpetDeliveredOK, repo.statuses[7])
	require.NotNil(t, repo.delivered[7])
	assert.Equal(t, today, *repo.delivered[7])

	// Terminal orders cannot be resolved again.
	err = s.ResolveDelay(context.Background(), 7, "abandon", today)
	require.Error(t, err)
	var verr *shared.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestResolveDelayAbandonLeavesDeliveryUnset(t *testing.T) {
	repo := newFakeRepo()
	repo.statuses[8] = orders.CarpetClientUnavailable
	s := newService(repo)

	require.NoError(t, s.ResolveDelay(context.Background(), 8, "abandon", today))
	assert.Equal(t, orders.CarpetAbandoned, repo.statuses[8])
	assert.Nil(t, repo.delivered[8])
}

func TestResolveDelayUnknownAction(t *testing.T) {
	repo := newFakeRepo()
	repo.statuses[9] = orders.CarpetReady
	s := newService(repo)

	err := s.ResolveDelay(context.Background(), 9, "expedier", today)
	require.Error(t, err)
	assert.Equal(t, orders.CarpetReady, repo.statuses[9])
}

func TestAddCommentRejectsEmptyBody(t *testing.T) {
	repo := newFakeRepo()
	s := newService(repo)
	ref := DetailRef{Kind: KindCarpet, ID: 1}

	err := s.AddComment(context.Background(), ref, "admin", "   ", false)
	require.Error(t, err)
	assert.Empty(t, repo.notes)

	require.NoError(t, s.AddComment(context.Background(), ref, "admin", "  Rappeler lundi. ", false))
	require.Len(t, repo.notes, 1)
	assert.Equal(t, "Rappeler lundi.", repo.notes[0].Body)
	assert.Equal(t, today, repo.notes[0].CreatedAt)
}

func TestRetentionAlertsSearch(t *testing.T) {
	repo := newFakeRepo()
	a := alertOn(KindClimate, 1, today.AddDate(0, 0, -200))
	a.ClientName = "Mme Koné"
	a.ClientPhone = "0102030405"
	b := alertOn(KindCarpet, 2, today.AddDate(0, 0, -200))
	b.ClientName = "M. Traoré"
	b.ClientPhone = "0708091011"
	repo.climate = []Alert{a}
	repo.carpet = []Alert{b}
	s := newService(repo)

	page, err := s.RetentionAlerts(context.Background(), today, "Koné", 1)
	require.NoError(t, err)
	require.Len(t, page.Alerts, 1)
	assert.Equal(t, int64(1), page.Alerts[0].Ref.ID)

	page, err = s.RetentionAlerts(context.Background(), today, "0708", 1)
	require.NoError(t, err)
	require.Len(t, page.Alerts, 1)
	assert.Equal(t, int64(2), page.Alerts[0].Ref.ID)
}

func TestStatusFromActionAcceptsFullEnum(t *testing.T) {
	cases := map[string]orders.CarpetStatus{
		"pret":              orders.CarpetReady,
		"client_indispo":    orders.CarpetClientUnavailable,
		"non_respecte":      orders.CarpetInProgress,
		"livre_satisfait":   orders.CarpetDeliveredOK,
		"livre_insatisfait": orders.CarpetDeliveredKO,
		"abandon":           orders.CarpetAbandoned,
	}
	for action, want := range cases {
		got, ok := StatusFromAction(action)
		require.True(t, ok, action)
		assert.Equal(t, want, got)
	}
	_, ok := StatusFromAction("expedier")
	assert.False(t, ok)
}

func TestResolveDelayToNonTerminalStatus(t *testing.T) {
	repo := newFakeRepo()
	repo.statuses[11] = orders.CarpetInProgress
	s := newService(repo)

	require.NoError(t, s.ResolveDelay(context.Background(), 11, "client_indispo", today))
	assert.Equal(t, orders.CarpetClientUnavailable, repo.statuses[11])
	assert.Nil(t, repo.delivered[11])

	// Non-terminal transitions leave the record open for another one.
	require.NoError(t, s.ResolveDelay(context.Background(), 11, "pret", today))
	assert.Equal(t, orders.CarpetReady, repo.statuses[11])
}

func TestAbandonedPaginatedAndFiltered(t *testing.T) {
	repo := newFakeRepo()
	for i := 1; i <= 12; i++ {
		a := alertOn(KindCarpet, int64(i), today.AddDate(0, 0, -i))
		a.ClientName = "Client"
		repo.abandoned = append(repo.abandoned, a)
	}
	repo.abandoned[0].ClientName = "Mme Diabaté"
	s := newService(repo)

	page, err := s.Abandoned(context.Background(), AbandonedFilter{Page: 1})
	require.NoError(t, err)
	assert.Len(t, page.Alerts, AbandonedPerPage)
	assert.Equal(t, 12, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)

	page, err = s.Abandoned(context.Background(), AbandonedFilter{Search: "Diabaté", Page: 1})
	require.NoError(t, err)
	require.Len(t, page.Alerts, 1)
	assert.Equal(t, int64(1), page.Alerts[0].Ref.ID)
}

func TestDelayDetail(t *testing.T) {
	repo := newFakeRepo()
	pickup := today.AddDate(0, 0, -20)
	processed := today.AddDate(0, 0, -2)
	repo.carpets[7] = &WorkshopItem{
		Detail: orders.CarpetDetail{
			ID:            7,
			OrderID:       70,
			PickupDate:    &pickup,
			ProcessedDate: &processed,
			Status:        orders.CarpetInProgress,
		},
		OrderID:    70,
		ClientName: "Mme Koné",
	}
	repo.notes = []Note{
		{ID: 1, DetailKind: KindCarpet, DetailID: 7, Body: "Rappeler lundi."},
		{ID: 2, DetailKind: KindClimate, DetailID: 7, Body: "Autre fiche."},
	}
	s := newService(repo)

	item, notes, err := s.DelayDetail(context.Background(), 7, today)
	require.NoError(t, err)
	assert.Equal(t, orders.UrgencyLate, item.Urgency)
	require.Len(t, notes, 1)
	assert.Equal(t, "Rappeler lundi.", notes[0].Body)

	_, _, err = s.DelayDetail(context.Background(), 99, today)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAddCommentRecordsRetentionMark(t *testing.T) {
	repo := newFakeRepo()
	s := newService(repo)
	ref := DetailRef{Kind: KindClimate, ID: 5}

	require.NoError(t, s.AddComment(context.Background(), ref, "admin", "Client recontacté.", true))
	require.NoError(t, s.AddComment(context.Background(), ref, "admin", "Simple suivi.", false))
	require.Len(t, repo.notes, 2)
	assert.True(t, repo.notes[0].MarkedRetained)
	assert.False(t, repo.notes[1].MarkedRetained)
}
