package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/samirrijal/geoproxy/internal/core/domain"
)

// GoogleID is the registry id of the Google Maps adapter.
const GoogleID domain.ProviderID = "google"

// DefaultGoogleEndpoint is the Google Maps geocoding endpoint.
const DefaultGoogleEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleResponseStatus is the top-level "status" of a Google geocoding reply.
type GoogleResponseStatus string

const (
	GoogleStatusOK             GoogleResponseStatus = "OK"
	GoogleStatusZeroResults    GoogleResponseStatus = "ZERO_RESULTS"
	GoogleStatusOverQueryLimit GoogleResponseStatus = "OVER_QUERY_LIMIT"
	GoogleStatusRequestDenied  GoogleResponseStatus = "REQUEST_DENIED"
	GoogleStatusInvalidRequest GoogleResponseStatus = "INVALID_REQUEST"
	GoogleStatusUnknownError   GoogleResponseStatus = "UNKNOWN_ERROR"
)

// Google queries the Google Maps Geocoding API.
type Google struct {
	apiKey   string
	endpoint string
}

// NewGoogle creates a Google adapter. An empty endpoint uses DefaultGoogleEndpoint.
func NewGoogle(apiKey, endpoint string) *Google {
	if endpoint == "" {
		endpoint = DefaultGoogleEndpoint
	}
	return &Google{apiKey: apiKey, endpoint: endpoint}
}

func (g *Google) ID() domain.ProviderID { return GoogleID }

// BoundsConvention is south-west|north-east.
func (g *Google) BoundsConvention() domain.BoundsConvention {
	return domain.BoundsBottomLeftTopRight
}

// BuildQuery formats the request URL. address is already '+'-joined and is
// passed through verbatim: '&' or '#' in it are not escaped and end up as
// query syntax, matching what existing clients send upstream.
func (g *Google) BuildQuery(address string, bounds *domain.BoundingBox) domain.ProviderQuery {
	u := fmt.Sprintf("%s?address=%s&key=%s", g.endpoint, address, g.apiKey)
	if bounds != nil {
		u += fmt.Sprintf("&bounds=%s,%s|%s,%s",
			domain.FormatDegrees(bounds.BottomLeft.Latitude),
			domain.FormatDegrees(bounds.BottomLeft.Longitude),
			domain.FormatDegrees(bounds.TopRight.Latitude),
			domain.FormatDegrees(bounds.TopRight.Longitude),
		)
	}
	return domain.ProviderQuery{Method: http.MethodGet, URL: u}
}

type googleResponse struct {
	Status  GoogleResponseStatus `json:"status"`
	Results *[]struct {
		FormattedAddress *string `json:"formatted_address"`
		Geometry         *struct {
			Location *struct {
				Lat *degrees `json:"lat"`
				Lng *degrees `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// ParseResponse reads the first (best) result.
func (g *Google) ParseResponse(body []byte) domain.ProviderResult {
	var resp googleResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Failure(fmt.Errorf("google: decode response: %w", err))
	}

	switch resp.Status {
	case GoogleStatusOK:
	case GoogleStatusZeroResults:
		return domain.ZeroResults()
	case "":
		return domain.Failure(errors.New("google: response has no status"))
	default:
		return domain.Failure(fmt.Errorf("google: status %s", resp.Status))
	}

	if resp.Results == nil {
		return domain.Failure(errors.New("google: OK response has no results"))
	}
	if len(*resp.Results) == 0 {
		return domain.ZeroResults()
	}

	first := (*resp.Results)[0]
	if first.FormattedAddress == nil {
		return domain.Failure(errors.New("google: result has no formatted_address"))
	}
	if first.Geometry == nil || first.Geometry.Location == nil {
		return domain.Failure(errors.New("google: result has no geometry.location"))
	}
	loc := first.Geometry.Location
	if loc.Lat == nil || loc.Lng == nil {
		return domain.Failure(errors.New("google: location is missing lat or lng"))
	}

	return domain.Success(*first.FormattedAddress, float64(*loc.Lat), float64(*loc.Lng))
}
