package server

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zcrmhq/auth-gateway/backend"
)

func TestValidateRedirect(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"app root", "/app", "/app"},
		{"app subpage", "/app/contacts/42", "/app/contacts/42"},
		{"onboarding page", "/onboarding/invite-team", "/onboarding/invite-team"},
		{"app prefix trick", "/appendix", RouteOnboardingSetup},
		{"absolute url", "https://evil.example.com/app", RouteOnboardingSetup},
		{"protocol relative", "//evil.example.com", RouteOnboardingSetup},
		{"unknown path", "/admin", RouteOnboardingSetup},
		{"empty", "", RouteOnboardingSetup},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ValidateRedirect(tc.path))
		})
	}
}

func TestPostLoginRedirect(t *testing.T) {
	completed := &backend.Onboarding{Completed: true}

	tests := []struct {
		name      string
		resp      *backend.ExchangeResponse
		requested string
		want      string
	}{
		{
			name: "no tenants means create business first",
			resp: &backend.ExchangeResponse{},
			want: RouteOnboardingCreateBusiness,
		},
		{
			name: "pending onboarding resumes at its step",
			resp: &backend.ExchangeResponse{
				Tenants:    []backend.Tenant{{ID: "tenant-1"}},
				Onboarding: &backend.Onboarding{Completed: false, Status: "pending_team"},
			},
			want: RouteOnboardingInviteTeam,
		},
		{
			name: "unknown pending status falls back to setup",
			resp: &backend.ExchangeResponse{
				Tenants:    []backend.Tenant{{ID: "tenant-1"}},
				Onboarding: &backend.Onboarding{Completed: false, Status: "pending_something_new"},
			},
			want: RouteOnboardingSetup,
		},
		{
			name: "completed onboarding with no request lands in app",
			resp: &backend.ExchangeResponse{
				Tenants:    []backend.Tenant{{ID: "tenant-1"}},
				Onboarding: completed,
			},
			want: RouteApp,
		},
		{
			name: "completed onboarding honors a safe redirect",
			resp: &backend.ExchangeResponse{
				Tenants:    []backend.Tenant{{ID: "tenant-1"}},
				Onboarding: completed,
			},
			requested: "/app/deals",
			want:      "/app/deals",
		},
		{
			name: "completed onboarding never goes back into onboarding",
			resp: &backend.ExchangeResponse{
				Tenants:    []backend.Tenant{{ID: "tenant-1"}},
				Onboarding: completed,
			},
			requested: "/onboarding/setup",
			want:      RouteApp,
		},
		{
			name: "unsafe redirect is replaced",
			resp: &backend.ExchangeResponse{
				Tenants:    []backend.Tenant{{ID: "tenant-1"}},
				Onboarding: completed,
			},
			requested: "https://evil.example.com/app",
			want:      RouteOnboardingSetup,
		},
		{
			name: "nil onboarding counts as completed",
			resp: &backend.ExchangeResponse{
				Tenants: []backend.Tenant{{ID: "tenant-1"}},
			},
			want: RouteApp,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, postLoginRedirect(tc.resp, tc.requested))
		})
	}
}
