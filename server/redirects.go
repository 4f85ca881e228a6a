package server

import (
	"strings"

	"github.com/zcrmhq/auth-gateway/backend"
)

// onboardingRoutes maps the backend's onboarding status to the frontend
// route that resumes it.
var onboardingRoutes = map[string]string{
	"pending_business": RouteOnboardingCreateBusiness,
	"pending_setup":    RouteOnboardingSetup,
	"pending_team":     RouteOnboardingInviteTeam,
	"pending_import":   RouteOnboardingImportLeads,
}

// ValidateRedirect returns path unchanged when it matches the allow-list of
// known in-app destinations (exact or prefix), else the safe onboarding
// default. A caller-supplied redirect parameter is never honored outside
// this list.
func ValidateRedirect(path string) string {
	if path == RouteApp || strings.HasPrefix(path, RouteApp+"/") {
		return path
	}
	if strings.HasPrefix(path, "/onboarding/") {
		return path
	}
	return RouteOnboardingSetup
}

// postLoginRedirect decides where a freshly logged-in user lands.
func postLoginRedirect(resp *backend.ExchangeResponse, requested string) string {
	// No tenant yet: the business has to be created first.
	if len(resp.Tenants) == 0 {
		return RouteOnboardingCreateBusiness
	}

	if resp.Onboarding != nil && !resp.Onboarding.Completed {
		if route, ok := onboardingRoutes[resp.Onboarding.Status]; ok {
			return route
		}
		return RouteOnboardingSetup
	}

	// Onboarding is done; do not send the user back into it.
	if strings.HasPrefix(requested, "/onboarding") {
		return RouteApp
	}

	if requested != "" {
		return ValidateRedirect(requested)
	}
	return RouteApp
}
