package tenant

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carehub/internal/core/apperror"
	"carehub/internal/core/security"
)

const (
	tenantA = "7b1f3c9e-2d4a-4e1b-9c51-000000000001"
	tenantB = "7b1f3c9e-2d4a-4e1b-9c51-000000000002"
	tenantC = "7b1f3c9e-2d4a-4e1b-9c51-000000000003"
)

// fakeMembership is an in-memory Membership with injectable failures.
type fakeMembership struct {
	mu       sync.Mutex
	entitled map[string][]string
	primary  map[string]string

	entitledErr error
	primaryErr  error
	setErr      error

	// afterSet, when set, runs after a successful write to simulate a concurrent writer.
	afterSet func(userID string)
	setCalls int
}

func newFakeMembership() *fakeMembership {
	return &fakeMembership{
		entitled: map[string][]string{},
		primary:  map[string]string{},
	}
}

func (m *fakeMembership) EntitledTenants(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entitledErr != nil {
		return nil, m.entitledErr
	}
	return m.entitled[userID], nil
}

func (m *fakeMembership) PrimaryTenant(_ context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.primaryErr != nil {
		return "", m.primaryErr
	}
	return m.primary[userID], nil
}

func (m *fakeMembership) SetPrimaryTenant(_ context.Context, userID, tenantID string) error {
	m.mu.Lock()
	m.setCalls++
	if m.setErr != nil {
		m.mu.Unlock()
		return m.setErr
	}
	m.primary[userID] = tenantID
	hook := m.afterSet
	m.mu.Unlock()

	if hook != nil {
		hook(userID)
	}
	return nil
}

type fakeResolver struct {
	identity *security.Identity
	err      error
}

func (r fakeResolver) Resolve(context.Context, security.Credential) (*security.Identity, error) {
	return r.identity, r.err
}

var careManager = &security.Identity{
	UserID:   "user-1",
	Email:    "cm@example.com",
	Name:     "Care Manager",
	Role:     security.RoleCareManager,
	TenantID: tenantA,
}

func readyContext(t *testing.T, m *fakeMembership) *Context {
	t.Helper()
	tc := NewContext(m)
	err := tc.Establish(context.Background(), fakeResolver{identity: careManager}, security.Credential{Bearer: "tok"})
	require.NoError(t, err)
	require.Equal(t, StateReady, tc.State())
	return tc
}

func TestEstablish_ActiveTenantSelection(t *testing.T) {
	tests := []struct {
		name     string
		entitled []string
		primary  string
		want     string
	}{
		{name: "recorded primary wins", entitled: []string{tenantA, tenantB}, primary: tenantB, want: tenantB},
		{name: "credential tenant when no primary", entitled: []string{tenantB, tenantA}, want: tenantA},
		{name: "first entitled otherwise", entitled: []string{tenantB, tenantC}, want: tenantB},
		{name: "stale primary ignored", entitled: []string{tenantB}, primary: tenantC, want: tenantB},
		{name: "no memberships", entitled: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newFakeMembership()
			m.entitled[careManager.UserID] = tt.entitled
			if tt.primary != "" {
				m.primary[careManager.UserID] = tt.primary
			}

			tc := readyContext(t, m)
			assert.Equal(t, tt.want, tc.ActiveTenantID())
			assert.Equal(t, careManager, tc.Identity())
		})
	}
}

func TestEstablish_ResolverFailureEnds(t *testing.T) {
	tc := NewContext(newFakeMembership())
	authErr := apperror.NewUnauthorized("invalid credential")

	err := tc.Establish(context.Background(), fakeResolver{err: authErr}, security.Credential{})
	assert.ErrorIs(t, err, authErr)
	assert.Equal(t, StateEnded, tc.State())
	assert.Nil(t, tc.Identity())
}

func TestEstablish_MembershipFailureIsUpstream(t *testing.T) {
	m := newFakeMembership()
	m.entitledErr = errors.New("connection refused")
	tc := NewContext(m)

	err := tc.Establish(context.Background(), fakeResolver{identity: careManager}, security.Credential{Bearer: "tok"})
	assert.True(t, apperror.IsUpstreamUnavailable(err))
	assert.Equal(t, StateEnded, tc.State())
	assert.Nil(t, tc.Identity())
}

func TestEstablish_Twice(t *testing.T) {
	m := newFakeMembership()
	m.entitled[careManager.UserID] = []string{tenantA}
	tc := readyContext(t, m)

	err := tc.Establish(context.Background(), fakeResolver{identity: careManager}, security.Credential{Bearer: "tok"})
	assert.ErrorIs(t, err, ErrContextEstablished)
	assert.Equal(t, StateReady, tc.State())
}

func TestSwitch_Success(t *testing.T) {
	m := newFakeMembership()
	m.entitled[careManager.UserID] = []string{tenantA, tenantB}
	tc := readyContext(t, m)

	require.NoError(t, tc.Switch(context.Background(), tenantB))
	assert.Equal(t, tenantB, tc.ActiveTenantID())
	assert.Equal(t, tenantB, m.primary[careManager.UserID])
	assert.Equal(t, StateReady, tc.State())
}

func TestSwitch_NotEntitledLeavesActiveUnchanged(t *testing.T) {
	m := newFakeMembership()
	m.entitled[careManager.UserID] = []string{tenantA, tenantB}
	tc := readyContext(t, m)

	err := tc.Switch(context.Background(), tenantC)
	assert.ErrorIs(t, err, ErrTenantNotEntitled)
	assert.Equal(t, tenantA, tc.ActiveTenantID())
	assert.Equal(t, StateReady, tc.State())
	assert.Zero(t, m.setCalls)
}

func TestSwitch_DurableWriteFailureLeavesActiveUnchanged(t *testing.T) {
	m := newFakeMembership()
	m.entitled[careManager.UserID] = []string{tenantA, tenantB}
	tc := readyContext(t, m)
	m.setErr = errors.New("timeout")

	err := tc.Switch(context.Background(), tenantB)
	assert.True(t, apperror.IsUpstreamUnavailable(err))
	assert.Equal(t, tenantA, tc.ActiveTenantID())
	assert.Equal(t, StateReady, tc.State())
}

func TestSwitch_StoreRejectsRevokedMembership(t *testing.T) {
	m := newFakeMembership()
	m.entitled[careManager.UserID] = []string{tenantA, tenantB}
	tc := readyContext(t, m)
	m.setErr = ErrTenantNotEntitled

	err := tc.Switch(context.Background(), tenantB)
	assert.ErrorIs(t, err, ErrTenantNotEntitled)
	assert.Equal(t, tenantA, tc.ActiveTenantID())
}

func TestSwitch_ConflictAdoptsDurableValue(t *testing.T) {
	m := newFakeMembership()
	m.entitled[careManager.UserID] = []string{tenantA, tenantB, tenantC}
	tc := readyContext(t, m)

	// Another instance writes tenantC right after this instance writes tenantB.
	m.afterSet = func(userID string) {
		m.mu.Lock()
		m.primary[userID] = tenantC
		m.mu.Unlock()
	}

	err := tc.Switch(context.Background(), tenantB)
	assert.ErrorIs(t, err, ErrSwitchConflict)
	assert.Equal(t, tenantC, tc.ActiveTenantID())
	assert.Equal(t, StateReady, tc.State())
}

func TestSwitch_ConflictWithUnknownTenantKeepsPrior(t *testing.T) {
	m := newFakeMembership()
	m.entitled[careManager.UserID] = []string{tenantA, tenantB}
	tc := readyContext(t, m)

	m.afterSet = func(userID string) {
		m.mu.Lock()
		m.primary[userID] = "not-a-member"
		m.mu.Unlock()
	}

	err := tc.Switch(context.Background(), tenantB)
	assert.ErrorIs(t, err, ErrSwitchConflict)
	assert.Equal(t, tenantA, tc.ActiveTenantID())
}

func TestSwitch_ReadBackFailureKeepsWrittenTenant(t *testing.T) {
	m := newFakeMembership()
	m.entitled[careManager.UserID] = []string{tenantA, tenantB}
	tc := readyContext(t, m)
	m.primaryErr = errors.New("read timeout")

	require.NoError(t, tc.Switch(context.Background(), tenantB))
	assert.Equal(t, tenantB, tc.ActiveTenantID())
}

func TestSwitch_NotReady(t *testing.T) {
	tc := NewContext(newFakeMembership())
	assert.ErrorIs(t, tc.Switch(context.Background(), tenantA), ErrContextNotReady)
}

func TestEnded_RejectsEverything(t *testing.T) {
	m := newFakeMembership()
	m.entitled[careManager.UserID] = []string{tenantA, tenantB}
	tc := readyContext(t, m)

	tc.End()
	tc.End()

	assert.Equal(t, StateEnded, tc.State())
	assert.Nil(t, tc.Identity())
	assert.Empty(t, tc.ActiveTenantID())
	assert.Nil(t, tc.EntitledTenants())
	assert.ErrorIs(t, tc.Switch(context.Background(), tenantB), ErrContextEnded)
	assert.ErrorIs(t,
		tc.Establish(context.Background(), fakeResolver{identity: careManager}, security.Credential{Bearer: "tok"}),
		ErrContextEnded,
	)
}

func TestSwitch_ConcurrentCallsSerialize(t *testing.T) {
	m := newFakeMembership()
	m.entitled[careManager.UserID] = []string{tenantA, tenantB, tenantC}
	tc := readyContext(t, m)

	var wg sync.WaitGroup
	for _, target := range []string{tenantB, tenantC, tenantA, tenantB} {
		wg.Add(1)
		go func(target string) {
			defer wg.Done()
			_ = tc.Switch(context.Background(), target)
		}(target)
	}
	wg.Wait()

	assert.Equal(t, m.primary[careManager.UserID], tc.ActiveTenantID())
	assert.Contains(t, tc.EntitledTenants(), tc.ActiveTenantID())
}

func TestEstablish_UpstreamTimeout(t *testing.T) {
	tc := NewContext(slowMembership{}, WithUpstreamTimeout(10*time.Millisecond))

	err := tc.Establish(context.Background(), fakeResolver{identity: careManager}, security.Credential{Bearer: "tok"})
	assert.True(t, apperror.IsUpstreamUnavailable(err))
	assert.Equal(t, StateEnded, tc.State())
}

type slowMembership struct{}

func (slowMembership) EntitledTenants(ctx context.Context, _ string) ([]string, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (slowMembership) PrimaryTenant(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (slowMembership) SetPrimaryTenant(ctx context.Context, _, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestFromContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	tc := NewContext(newFakeMembership())
	ctx := WithContext(context.Background(), tc)
	assert.Same(t, tc, FromContext(ctx))
}
