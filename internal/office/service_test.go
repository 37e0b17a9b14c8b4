package office

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/office-booking-backend/internal/lock"
	"github.com/nekogravitycat/office-booking-backend/internal/notification"
	"github.com/nekogravitycat/office-booking-backend/internal/notification/notificationtest"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/office-booking-backend/internal/tag"
	"github.com/nekogravitycat/office-booking-backend/internal/user"
)

type memoryRepo struct {
	mu      sync.Mutex
	offices map[string]*Office
	deleted map[string]bool
	tags    map[string][]string
	active  map[string]bool // office id -> has active reservations
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		offices: map[string]*Office{},
		deleted: map[string]bool{},
		tags:    map[string][]string{},
		active:  map[string]bool{},
	}
}

func (m *memoryRepo) Create(_ context.Context, o *Office, tagIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = uuid.NewString()
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	cp := *o
	m.offices[o.ID] = &cp
	m.tags[o.ID] = tagIDs
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id string) (*Office, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offices[id]
	if !ok || m.deleted[id] {
		return nil, ErrNotFound
	}
	cp := *o
	cp.Images = append([]Image(nil), o.Images...)
	cp.Tags = nil
	for _, tid := range m.tags[id] {
		cp.Tags = append(cp.Tags, tag.Tag{ID: tid})
	}
	return &cp, nil
}

func (m *memoryRepo) List(_ context.Context, filter Filter) ([]*Office, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Office
	for id, o := range m.offices {
		if m.deleted[id] {
			continue
		}
		if filter.HostID != "" && o.UserID != filter.HostID {
			continue
		}
		if (filter.HostID == "" || filter.HostID != filter.RequesterID) && !o.Bookable() {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, len(out), nil
}

func (m *memoryRepo) Update(_ context.Context, o *Office, tagIDs []string, resetApproval bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.offices[o.ID]
	if !ok || m.deleted[o.ID] {
		return ErrNotFound
	}
	cp := *o
	cp.ApprovalStatus = stored.ApprovalStatus
	if resetApproval {
		cp.ApprovalStatus = ApprovalPending
	}
	o.ApprovalStatus = cp.ApprovalStatus
	m.offices[o.ID] = &cp
	if tagIDs != nil {
		m.tags[o.ID] = tagIDs
	}
	return nil
}

func (m *memoryRepo) SoftDelete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.offices[id]; !ok || m.deleted[id] {
		return ErrNotFound
	}
	m.deleted[id] = true
	return nil
}

func (m *memoryRepo) SetApprovalStatus(_ context.Context, id string, status ApprovalStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offices[id]
	if !ok || m.deleted[id] {
		return ErrNotFound
	}
	o.ApprovalStatus = status
	return nil
}

func (m *memoryRepo) HasActiveReservations(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active[id], nil
}

func (m *memoryRepo) AddImage(_ context.Context, officeID, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.offices[officeID]
	o.Images = append(o.Images, Image{ID: fileID, OfficeID: officeID, CreatedAt: time.Now()})
	return nil
}

func (m *memoryRepo) RemoveImage(_ context.Context, officeID, fileID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.offices[officeID]
	if len(o.Images) <= 1 || (o.FeaturedImageID != nil && *o.FeaturedImageID == fileID) {
		return false, nil
	}
	for i, img := range o.Images {
		if img.ID == fileID {
			o.Images = append(o.Images[:i], o.Images[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type stubTags struct{ known map[string]bool }

func (s *stubTags) Create(context.Context, string) (*tag.Tag, error) { return nil, errors.New("unused") }
func (s *stubTags) List(context.Context) ([]*tag.Tag, error)        { return nil, nil }
func (s *stubTags) Delete(context.Context, string) error             { return nil }
func (s *stubTags) ValidateIDs(_ context.Context, ids []string) error {
	for _, id := range ids {
		if !s.known[id] {
			return tag.ErrInvalidTags
		}
	}
	return nil
}

type stubAdmins struct{ ids []string }

func (s *stubAdmins) ListAdmins(context.Context) ([]*user.User, error) {
	out := make([]*user.User, len(s.ids))
	for i, id := range s.ids {
		out[i] = &user.User{ID: id, IsSystemAdmin: true, IsActive: true}
	}
	return out, nil
}

type recordingRemover struct {
	mu      sync.Mutex
	removed []string
}

func (r *recordingRemover) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, id)
	return nil
}

type fixture struct {
	svc      Service
	repo     *memoryRepo
	locker   lock.Locker
	recorder *notificationtest.Recorder
	remover  *recordingRemover
	tagID    string
}

func newFixture() *fixture {
	repo := newMemoryRepo()
	recorder := &notificationtest.Recorder{}
	remover := &recordingRemover{}
	tagID := uuid.NewString()
	locker := lock.NewMemoryLocker(lock.Options{Wait: 30 * time.Millisecond, RetryInterval: time.Millisecond})
	svc := NewService(
		repo,
		&stubTags{known: map[string]bool{tagID: true}},
		NewReviewNotifier(&stubAdmins{ids: []string{"admin-1", "admin-2"}}, recorder),
		remover,
		locker,
	)
	return &fixture{svc: svc, repo: repo, locker: locker, recorder: recorder, remover: remover, tagID: tagID}
}

func validCreate() CreateOfficeRequest {
	return CreateOfficeRequest{
		Title:           "Sunny desk",
		Description:     "Quiet corner near the window",
		Lat:             25.03,
		Lng:             121.56,
		AddressLine1:    "1 Main St",
		PricePerDay:     1000,
		MonthlyDiscount: 10,
	}
}

func TestService_CreateForcesPendingAndNotifiesAdmins(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := validCreate()
	req.Tags = []string{f.tagID, f.tagID}
	o, err := f.svc.Create(ctx, "host-1", req)
	require.NoError(t, err)

	assert.Equal(t, ApprovalPending, o.ApprovalStatus)
	assert.Equal(t, "host-1", o.UserID)
	require.Len(t, o.Tags, 1)
	assert.Equal(t, f.tagID, o.Tags[0].ID)

	calls := f.recorder.OfKind(notification.KindOfficePendingApproval)
	require.Len(t, calls, 1)
	assert.ElementsMatch(t, []string{"admin-1", "admin-2"}, calls[0].Recipients)
}

func TestService_CreateValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tests := []struct {
		name  string
		edit  func(r *CreateOfficeRequest)
		want  error
		field string
	}{
		{name: "title", edit: func(r *CreateOfficeRequest) { r.Title = "  " }, want: ErrTitleRequired, field: "title"},
		{name: "description", edit: func(r *CreateOfficeRequest) { r.Description = "" }, want: ErrDescriptionRequired, field: "description"},
		{name: "lat", edit: func(r *CreateOfficeRequest) { r.Lat = 91 }, want: ErrInvalidLat, field: "lat"},
		{name: "lng", edit: func(r *CreateOfficeRequest) { r.Lng = -181 }, want: ErrInvalidLng, field: "lng"},
		{name: "address", edit: func(r *CreateOfficeRequest) { r.AddressLine1 = "" }, want: ErrAddressRequired, field: "address_line1"},
		{name: "price", edit: func(r *CreateOfficeRequest) { r.PricePerDay = 99 }, want: ErrPriceTooLow, field: "price_per_day"},
		{name: "negative discount", edit: func(r *CreateOfficeRequest) { r.MonthlyDiscount = -1 }, want: ErrInvalidDiscount, field: "monthly_discount"},
		{name: "discount over 100", edit: func(r *CreateOfficeRequest) { r.MonthlyDiscount = 101 }, want: ErrInvalidDiscount, field: "monthly_discount"},
		{name: "unknown tag", edit: func(r *CreateOfficeRequest) { r.Tags = []string{uuid.NewString()} }, want: tag.ErrInvalidTags, field: "tags"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreate()
			tt.edit(&req)
			_, err := f.svc.Create(ctx, "host-1", req)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.field, apperror.FieldOf(err))
		})
	}

	assert.Empty(t, f.repo.offices)
	assert.Empty(t, f.recorder.Calls())
}

func TestService_UpdateReviewRule(t *testing.T) {
	newPrice := int64(2000)
	newLat := 10.0
	newLng := 20.0
	newTitle := "Renamed"
	hidden := true

	tests := []struct {
		name       string
		req        UpdateOfficeRequest
		wantStatus ApprovalStatus
		wantNotify int
	}{
		{name: "price change", req: UpdateOfficeRequest{PricePerDay: &newPrice}, wantStatus: ApprovalPending, wantNotify: 1},
		{name: "lat change", req: UpdateOfficeRequest{Lat: &newLat}, wantStatus: ApprovalPending, wantNotify: 1},
		{name: "lng change", req: UpdateOfficeRequest{Lng: &newLng}, wantStatus: ApprovalPending, wantNotify: 1},
		{name: "all three at once", req: UpdateOfficeRequest{Lat: &newLat, Lng: &newLng, PricePerDay: &newPrice}, wantStatus: ApprovalPending, wantNotify: 1},
		{name: "title only", req: UpdateOfficeRequest{Title: &newTitle}, wantStatus: ApprovalApproved},
		{name: "hidden only", req: UpdateOfficeRequest{Hidden: &hidden}, wantStatus: ApprovalApproved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			ctx := context.Background()

			o, err := f.svc.Create(ctx, "host-1", validCreate())
			require.NoError(t, err)
			_, err = f.svc.Approve(ctx, o.ID)
			require.NoError(t, err)
			f.recorder.Reset()

			updated, err := f.svc.Update(ctx, o.ID, "host-1", tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, updated.ApprovalStatus)
			assert.Len(t, f.recorder.OfKind(notification.KindOfficePendingApproval), tt.wantNotify)
		})
	}
}

// moderatingRepo applies an admin decision right after the office is read,
// before the host's edit is written back.
type moderatingRepo struct {
	*memoryRepo
	decide func(id string)
}

func (m *moderatingRepo) GetByID(ctx context.Context, id string) (*Office, error) {
	o, err := m.memoryRepo.GetByID(ctx, id)
	if err == nil && m.decide != nil {
		decide := m.decide
		m.decide = nil
		decide(id)
	}
	return o, err
}

func TestService_UpdateKeepsConcurrentModeration(t *testing.T) {
	newTitle := "Renamed"
	newPrice := int64(2000)

	tests := []struct {
		name       string
		decision   ApprovalStatus
		req        UpdateOfficeRequest
		wantStatus ApprovalStatus
	}{
		{name: "rejected during title edit", decision: ApprovalRejected, req: UpdateOfficeRequest{Title: &newTitle}, wantStatus: ApprovalRejected},
		{name: "approved during title edit", decision: ApprovalApproved, req: UpdateOfficeRequest{Title: &newTitle}, wantStatus: ApprovalApproved},
		{name: "price edit still resets", decision: ApprovalApproved, req: UpdateOfficeRequest{PricePerDay: &newPrice}, wantStatus: ApprovalPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			ctx := context.Background()

			o, err := f.svc.Create(ctx, "host-1", validCreate())
			require.NoError(t, err)
			_, err = f.svc.Approve(ctx, o.ID)
			require.NoError(t, err)

			repo := &moderatingRepo{memoryRepo: f.repo}
			repo.decide = func(id string) {
				require.NoError(t, f.repo.SetApprovalStatus(ctx, id, tt.decision))
			}
			svc := NewService(repo, &stubTags{}, NewReviewNotifier(&stubAdmins{}, f.recorder), f.remover, f.locker)

			updated, err := svc.Update(ctx, o.ID, "host-1", tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, updated.ApprovalStatus)

			stored, err := f.repo.GetByID(ctx, o.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, stored.ApprovalStatus)
		})
	}
}

func TestService_UpdateSamePriceDoesNotRequireReview(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	o, err := f.svc.Create(ctx, "host-1", validCreate())
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, o.ID)
	require.NoError(t, err)
	f.recorder.Reset()

	same := o.PricePerDay
	updated, err := f.svc.Update(ctx, o.ID, "host-1", UpdateOfficeRequest{PricePerDay: &same})
	require.NoError(t, err)
	assert.Equal(t, ApprovalApproved, updated.ApprovalStatus)
	assert.Empty(t, f.recorder.Calls())
}

func TestService_UpdateOwnershipAndFeaturedImage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	o, err := f.svc.Create(ctx, "host-1", validCreate())
	require.NoError(t, err)

	title := "Stolen"
	_, err = f.svc.Update(ctx, o.ID, "intruder", UpdateOfficeRequest{Title: &title})
	assert.ErrorIs(t, err, ErrNotOwner)

	foreign := uuid.NewString()
	_, err = f.svc.Update(ctx, o.ID, "host-1", UpdateOfficeRequest{FeaturedImageID: &foreign})
	assert.ErrorIs(t, err, ErrFeaturedImageOwner)
	assert.Equal(t, "featured_image_id", apperror.FieldOf(err))

	own := uuid.NewString()
	require.NoError(t, f.svc.AttachImage(ctx, o.ID, own))
	updated, err := f.svc.Update(ctx, o.ID, "host-1", UpdateOfficeRequest{FeaturedImageID: &own})
	require.NoError(t, err)
	require.NotNil(t, updated.FeaturedImageID)
	assert.Equal(t, own, *updated.FeaturedImageID)

	none := ""
	updated, err = f.svc.Update(ctx, o.ID, "host-1", UpdateOfficeRequest{FeaturedImageID: &none})
	require.NoError(t, err)
	assert.Nil(t, updated.FeaturedImageID)
}

func TestService_UpdateTags(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := validCreate()
	req.Tags = []string{f.tagID}
	o, err := f.svc.Create(ctx, "host-1", req)
	require.NoError(t, err)

	title := "New title"
	updated, err := f.svc.Update(ctx, o.ID, "host-1", UpdateOfficeRequest{Title: &title})
	require.NoError(t, err)
	assert.Len(t, updated.Tags, 1, "tags untouched when not sent")

	updated, err = f.svc.Update(ctx, o.ID, "host-1", UpdateOfficeRequest{Tags: []string{}})
	require.NoError(t, err)
	assert.Empty(t, updated.Tags)

	_, err = f.svc.Update(ctx, o.ID, "host-1", UpdateOfficeRequest{Tags: []string{uuid.NewString()}})
	assert.ErrorIs(t, err, tag.ErrInvalidTags)
}

func TestService_Delete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	o, err := f.svc.Create(ctx, "host-1", validCreate())
	require.NoError(t, err)
	img := uuid.NewString()
	require.NoError(t, f.svc.AttachImage(ctx, o.ID, img))

	assert.ErrorIs(t, f.svc.Delete(ctx, o.ID, "intruder"), ErrNotOwner)

	f.repo.active[o.ID] = true
	err = f.svc.Delete(ctx, o.ID, "host-1")
	assert.ErrorIs(t, err, ErrActiveReservations)
	assert.Equal(t, "office", apperror.FieldOf(err))

	f.repo.active[o.ID] = false
	require.NoError(t, f.svc.Delete(ctx, o.ID, "host-1"))
	assert.Equal(t, []string{img}, f.remover.removed)

	_, err = f.svc.GetByID(ctx, o.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_DeleteWaitsForCalendarLock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	o, err := f.svc.Create(ctx, "host-1", validCreate())
	require.NoError(t, err)

	// A booking in progress holds the office's calendar.
	held, err := f.locker.Acquire(ctx, CalendarLockKey(o.ID))
	require.NoError(t, err)

	err = f.svc.Delete(ctx, o.ID, "host-1")
	require.Error(t, err)
	assert.True(t, apperror.IsContention(err))
	assert.ErrorIs(t, err, lock.ErrTimeout)

	_, err = f.svc.GetByID(ctx, o.ID)
	require.NoError(t, err, "office survives a busy calendar")

	// The booking committed before releasing; the office now has an active reservation.
	f.repo.active[o.ID] = true
	require.NoError(t, held.Release(ctx))
	assert.ErrorIs(t, f.svc.Delete(ctx, o.ID, "host-1"), ErrActiveReservations)

	// Delete gives the lock back on every path.
	f.repo.active[o.ID] = false
	require.NoError(t, f.svc.Delete(ctx, o.ID, "host-1"))
	lease, err := f.locker.Acquire(ctx, CalendarLockKey(o.ID))
	require.NoError(t, err)
	require.NoError(t, lease.Release(ctx))
}

func TestService_DeleteImageRules(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	o, err := f.svc.Create(ctx, "host-1", validCreate())
	require.NoError(t, err)

	first := uuid.NewString()
	require.NoError(t, f.svc.AttachImage(ctx, o.ID, first))

	err = f.svc.DeleteImage(ctx, o.ID, first, "host-1")
	assert.ErrorIs(t, err, ErrOnlyImage)
	assert.Equal(t, "image", apperror.FieldOf(err))

	second := uuid.NewString()
	require.NoError(t, f.svc.AttachImage(ctx, o.ID, second))
	_, err = f.svc.Update(ctx, o.ID, "host-1", UpdateOfficeRequest{FeaturedImageID: &first})
	require.NoError(t, err)

	err = f.svc.DeleteImage(ctx, o.ID, first, "host-1")
	assert.ErrorIs(t, err, ErrFeaturedImage)
	assert.Equal(t, "image", apperror.FieldOf(err))

	assert.ErrorIs(t, f.svc.DeleteImage(ctx, o.ID, uuid.NewString(), "host-1"), ErrImageNotFound)
	assert.ErrorIs(t, f.svc.DeleteImage(ctx, o.ID, second, "intruder"), ErrNotOwner)

	require.NoError(t, f.svc.DeleteImage(ctx, o.ID, second, "host-1"))
	assert.Equal(t, []string{second}, f.remover.removed)

	got, err := f.svc.GetByID(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Images, 1)
	assert.Equal(t, first, got.Images[0].ID)
}

func TestService_ApproveNotifiesHost(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	o, err := f.svc.Create(ctx, "host-1", validCreate())
	require.NoError(t, err)

	rejected, err := f.svc.Reject(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, ApprovalRejected, rejected.ApprovalStatus)

	calls := f.recorder.OfKind(notification.KindOfficeApprovalChanged)
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"host-1"}, calls[0].Recipients)

	_, err = f.svc.Approve(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_ListVisibility(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	pending, err := f.svc.Create(ctx, "host-1", validCreate())
	require.NoError(t, err)

	req := validCreate()
	req.Title = "Approved desk"
	approved, err := f.svc.Create(ctx, "host-1", req)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, approved.ID)
	require.NoError(t, err)

	public, total, err := f.svc.List(ctx, Filter{HostID: "host-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, approved.ID, public[0].ID)

	own, total, err := f.svc.List(ctx, Filter{HostID: "host-1", RequesterID: "host-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	ids := []string{own[0].ID, own[1].ID}
	assert.ElementsMatch(t, []string{pending.ID, approved.ID}, ids)
}

func TestRequiresReview(t *testing.T) {
	base := &Office{Lat: 1, Lng: 2, PricePerDay: 100, Title: "a"}

	same := *base
	same.Title = "b"
	same.Hidden = true
	assert.False(t, RequiresReview(base, &same))

	for _, edit := range []func(o *Office){
		func(o *Office) { o.Lat = 1.5 },
		func(o *Office) { o.Lng = 2.5 },
		func(o *Office) { o.PricePerDay = 150 },
	} {
		changed := *base
		edit(&changed)
		assert.True(t, RequiresReview(base, &changed))
	}
}
