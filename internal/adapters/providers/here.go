package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/samirrijal/geoproxy/internal/core/domain"
)

// HereID is the registry id of the HERE adapter.
const HereID domain.ProviderID = "here"

// DefaultHereEndpoint is the HERE 6.2 geocoder endpoint.
const DefaultHereEndpoint = "https://geocoder.cit.api.here.com/6.2/geocode.json"

// Here queries the HERE geocoder with app_id/app_code credentials.
type Here struct {
	appID    string
	appCode  string
	endpoint string
}

// NewHere creates a HERE adapter. An empty endpoint uses DefaultHereEndpoint.
func NewHere(appID, appCode, endpoint string) *Here {
	if endpoint == "" {
		endpoint = DefaultHereEndpoint
	}
	return &Here{appID: appID, appCode: appCode, endpoint: endpoint}
}

func (h *Here) ID() domain.ProviderID { return HereID }

// BoundsConvention is north-west;south-east.
func (h *Here) BoundsConvention() domain.BoundsConvention {
	return domain.BoundsTopLeftBottomRight
}

// BuildQuery passes address through unescaped, like Google.BuildQuery.
func (h *Here) BuildQuery(address string, bounds *domain.BoundingBox) domain.ProviderQuery {
	u := fmt.Sprintf("%s?app_id=%s&app_code=%s&searchtext=%s", h.endpoint, h.appID, h.appCode, address)
	if bounds != nil {
		u += fmt.Sprintf("&bounds=%s,%s;%s,%s",
			domain.FormatDegrees(bounds.TopLeft.Latitude),
			domain.FormatDegrees(bounds.TopLeft.Longitude),
			domain.FormatDegrees(bounds.BottomRight.Latitude),
			domain.FormatDegrees(bounds.BottomRight.Longitude),
		)
	}
	return domain.ProviderQuery{Method: http.MethodGet, URL: u}
}

type hereLocation struct {
	Address *struct {
		Label *string `json:"Label"`
	} `json:"Address"`
	DisplayPosition *struct {
		Latitude  *degrees `json:"Latitude"`
		Longitude *degrees `json:"Longitude"`
	} `json:"DisplayPosition"`
}

type hereResponse struct {
	Response *struct {
		View *[]struct {
			Result []struct {
				Location *hereLocation `json:"Location"`
			} `json:"Result"`
		} `json:"View"`
	} `json:"Response"`
}

// ParseResponse descends Response.View[0].Result[0].Location.
func (h *Here) ParseResponse(body []byte) domain.ProviderResult {
	var resp hereResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Failure(fmt.Errorf("here: decode response: %w", err))
	}
	if resp.Response == nil {
		return domain.Failure(errors.New("here: response has no Response object"))
	}
	if resp.Response.View == nil {
		return domain.Failure(errors.New("here: response has no View"))
	}

	views := *resp.Response.View
	if len(views) == 0 {
		return domain.ZeroResults()
	}
	if len(views[0].Result) == 0 {
		return domain.Failure(errors.New("here: view has no Result"))
	}

	loc := views[0].Result[0].Location
	switch {
	case loc == nil:
		return domain.Failure(errors.New("here: result has no Location"))
	case loc.Address == nil || loc.Address.Label == nil:
		return domain.Failure(errors.New("here: location has no Address.Label"))
	case loc.DisplayPosition == nil || loc.DisplayPosition.Latitude == nil || loc.DisplayPosition.Longitude == nil:
		return domain.Failure(errors.New("here: location has no DisplayPosition"))
	}

	return domain.Success(*loc.Address.Label,
		float64(*loc.DisplayPosition.Latitude), float64(*loc.DisplayPosition.Longitude))
}
