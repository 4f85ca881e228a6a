package server

// Route path constants
// All gateway routes and in-app destinations are defined here to ensure
// consistency and prevent typos
const (
	// Gateway routes
	RouteHealth       = "/healthz"
	RouteAuthCallback = "/auth/callback"
	RouteAuthMe       = "/auth/me"
	RouteAuthRefresh  = "/auth/refresh"
	RouteAuthLogout   = "/auth/logout"
	RouteAuthTenant   = "/auth/tenant"

	// In-app destinations (served by the CRM frontend, used as redirect
	// targets only)
	RouteLoginPage = "/login"
	RouteApp       = "/app"

	RouteOnboardingCreateBusiness = "/onboarding/create-business"
	RouteOnboardingSetup          = "/onboarding/setup"
	RouteOnboardingInviteTeam     = "/onboarding/invite-team"
	RouteOnboardingImportLeads    = "/onboarding/import-leads"
)
