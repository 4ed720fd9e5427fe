package endpoints

import (
	"github.com/retrodraw/retrodraw/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&StatusEndpoint{},

		// Recognition endpoints
		&ProcessEndpoint{},
		&MethodsEndpoint{},

		// Drawing analysis endpoints
		&AnalyzeEndpoint{},
	}
}
