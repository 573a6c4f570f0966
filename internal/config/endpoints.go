package config

import "strings"

// Upstream resources joined into a driver week.
const (
	ResourceDrivers   = "drivers"
	ResourceMileage   = "mileage"
	ResourceSafety    = "safety"
	ResourceFuel      = "fuel"
	ResourceFinancial = "financial"
)

var Resources = []string{
	ResourceDrivers,
	ResourceMileage,
	ResourceSafety,
	ResourceFuel,
	ResourceFinancial,
}

var defaultResourcePaths = map[string]string{
	ResourceDrivers:   "/rest/v1/drivers",
	ResourceMileage:   "/rest/v1/driver_mileage",
	ResourceSafety:    "/rest/v1/driver_safety",
	ResourceFuel:      "/rest/v1/driver_fuel",
	ResourceFinancial: "/rest/v1/driver_financials",
}

func IsResource(name string) bool {
	_, ok := defaultResourcePaths[name]
	return ok
}

// ResourceURL returns the absolute endpoint for resource, honouring
// UPSTREAM_PATH_<RESOURCE> overrides.
func (e Env) ResourceURL(resource string) string {
	path := defaultResourcePaths[resource]
	if p, ok := e.UpstreamPaths[resource]; ok && p != "" {
		path = p
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return e.UpstreamBaseURL + path
}
