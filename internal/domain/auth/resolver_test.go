package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carehub/internal/core/apperror"
	"carehub/internal/core/security"
)

// stubVerifier returns a fixed principal per token.
type stubVerifier struct {
	principals map[string]*Principal
	err        error
	calls      int
}

func (s *stubVerifier) Verify(_ context.Context, token string) (*Principal, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.principals[token]
	if !ok {
		return nil, fmt.Errorf("%w: unknown token", ErrInvalidCredential)
	}
	return p, nil
}

type countingObserver map[string]int

func (o countingObserver) ObserveResolution(result string) { o[result]++ }

func TestResolver_PrefersBearer(t *testing.T) {
	bearer := &stubVerifier{principals: map[string]*Principal{
		"tok": {UserID: "u1", Role: "care_manager", TenantID: "t1"},
	}}
	session := &stubVerifier{principals: map[string]*Principal{
		"sess": {UserID: "u2", Role: "patient", TenantID: "t2"},
	}}
	obs := countingObserver{}
	r := NewResolver(bearer, session, ResolverConfig{}).WithObserver(obs)

	id, err := r.Resolve(context.Background(), security.Credential{Bearer: "tok", Session: "sess"})
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, security.RoleCareManager, id.Role)
	assert.Zero(t, session.calls)
	assert.Equal(t, 1, obs[ResultBearer])
}

func TestResolver_FallsBackToSession(t *testing.T) {
	bearer := &stubVerifier{}
	session := &stubVerifier{principals: map[string]*Principal{
		"sess": {UserID: "u2", Role: "patient", TenantID: "t2"},
	}}
	r := NewResolver(bearer, session, ResolverConfig{})

	id, err := r.Resolve(context.Background(), security.Credential{Bearer: "expired", Session: "sess"})
	require.NoError(t, err)
	assert.Equal(t, "u2", id.UserID)
}

func TestResolver_Failures(t *testing.T) {
	down := errors.New("dial tcp: connection refused")

	tests := []struct {
		name         string
		bearer       *stubVerifier
		session      *stubVerifier
		config       ResolverConfig
		cred         security.Credential
		wantUnauth   bool
		wantUpstream bool
	}{
		{
			name:       "no credential",
			bearer:     &stubVerifier{},
			session:    &stubVerifier{},
			cred:       security.Credential{},
			wantUnauth: true,
		},
		{
			name:       "both invalid",
			bearer:     &stubVerifier{},
			session:    &stubVerifier{},
			cred:       security.Credential{Bearer: "x", Session: "y"},
			wantUnauth: true,
		},
		{
			name:         "verifier down",
			bearer:       &stubVerifier{err: down},
			session:      &stubVerifier{},
			cred:         security.Credential{Bearer: "x"},
			wantUpstream: true,
		},
		{
			name:         "bearer down and session invalid",
			bearer:       &stubVerifier{err: down},
			session:      &stubVerifier{},
			cred:         security.Credential{Bearer: "x", Session: "y"},
			wantUpstream: true,
		},
		{
			name: "unknown role",
			bearer: &stubVerifier{principals: map[string]*Principal{
				"tok": {UserID: "u1", Role: "auditor", TenantID: "t1"},
			}},
			session:    &stubVerifier{},
			cred:       security.Credential{Bearer: "tok"},
			wantUnauth: true,
		},
		{
			name: "missing user id",
			bearer: &stubVerifier{principals: map[string]*Principal{
				"tok": {Role: "patient", TenantID: "t1"},
			}},
			session:    &stubVerifier{},
			cred:       security.Credential{Bearer: "tok"},
			wantUnauth: true,
		},
		{
			name: "missing tenant without default",
			bearer: &stubVerifier{principals: map[string]*Principal{
				"tok": {UserID: "u1", Role: "front_desk"},
			}},
			session:    &stubVerifier{},
			cred:       security.Credential{Bearer: "tok"},
			wantUnauth: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.bearer, tt.session, tt.config)
			id, err := r.Resolve(context.Background(), tt.cred)
			require.Error(t, err)
			assert.Nil(t, id)
			assert.Equal(t, tt.wantUnauth, apperror.IsUnauthorized(err))
			assert.Equal(t, tt.wantUpstream, apperror.IsUpstreamUnavailable(err))
		})
	}
}

func TestResolver_DefaultTenantSubstitution(t *testing.T) {
	bearer := &stubVerifier{principals: map[string]*Principal{
		"staff": {UserID: "u1", Role: "front_desk"},
		"root":  {UserID: "u0", Role: "super_admin"},
	}}
	r := NewResolver(bearer, nil, ResolverConfig{DefaultTenantID: "t-default"})

	id, err := r.Resolve(context.Background(), security.Credential{Bearer: "staff"})
	require.NoError(t, err)
	assert.Equal(t, "t-default", id.TenantID)

	id, err = r.Resolve(context.Background(), security.Credential{Bearer: "root"})
	require.NoError(t, err)
	assert.Empty(t, id.TenantID)
	assert.True(t, id.IsSuperAdmin())
}

func TestResolver_VerifierTimeout(t *testing.T) {
	r := NewResolver(blockingVerifier{}, nil, ResolverConfig{Timeout: 10 * time.Millisecond})

	_, err := r.Resolve(context.Background(), security.Credential{Bearer: "tok"})
	assert.True(t, apperror.IsUpstreamUnavailable(err))
}

type blockingVerifier struct{}

func (blockingVerifier) Verify(ctx context.Context, _ string) (*Principal, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
