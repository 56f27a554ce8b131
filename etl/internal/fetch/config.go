package fetch

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultBaseURL is the public eCFR API root.
const DefaultBaseURL = "https://www.ecfr.gov"

// Supported upstream services.
const (
	ServiceAdmin     = "admin"     // agency directory (JSON)
	ServiceVersioner = "versioner" // point-in-time regulatory text (XML)
)

// ErrUnsupportedService is returned for any service tag other than
// "admin" or "versioner".
var ErrUnsupportedService = errors.New("fetch: unsupported service")

// ErrMissingParameter is returned when the versioner service is requested
// without both a date and a title.
var ErrMissingParameter = errors.New("fetch: missing required parameter")

// Params are the caller-supplied parameters for a ServiceConfig.
type Params struct {
	BaseURL string // defaults to DefaultBaseURL
	Date    string // versioner only: ISO 8601 date, required
	Title   string // versioner only: title number, required
}

// ServiceConfig is the immutable parameter bundle for one extraction call.
type ServiceConfig struct {
	Service  string
	BaseURL  string
	Endpoint string // admin only
	Date     string // versioner only
	Title    string // versioner only
}

// NewServiceConfig builds the parameter bundle for service. The admin service
// needs no parameters beyond an optional base URL override; the versioner
// service requires both Date and Title.
func NewServiceConfig(service string, p Params) (ServiceConfig, error) {
	base := p.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	base = strings.TrimRight(base, "/")

	switch service {
	case ServiceAdmin:
		return ServiceConfig{
			Service:  ServiceAdmin,
			BaseURL:  base,
			Endpoint: "api/admin/v1/agencies.json",
		}, nil
	case ServiceVersioner:
		if p.Date == "" {
			return ServiceConfig{}, fmt.Errorf("%w: date (versioner)", ErrMissingParameter)
		}
		if p.Title == "" {
			return ServiceConfig{}, fmt.Errorf("%w: title (versioner)", ErrMissingParameter)
		}
		return ServiceConfig{
			Service: ServiceVersioner,
			BaseURL: base,
			Date:    p.Date,
			Title:   p.Title,
		}, nil
	default:
		return ServiceConfig{}, fmt.Errorf("%w: %q", ErrUnsupportedService, service)
	}
}

// URL returns the full request URL for this configuration.
func (c ServiceConfig) URL() string {
	switch c.Service {
	case ServiceAdmin:
		return c.BaseURL + "/" + c.Endpoint
	case ServiceVersioner:
		return fmt.Sprintf("%s/api/versioner/v1/full/%s/title-%s.xml", c.BaseURL, c.Date, c.Title)
	default:
		return ""
	}
}
