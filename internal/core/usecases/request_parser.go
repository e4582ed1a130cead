package usecases

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/samirrijal/geoproxy/internal/core/domain"
	"github.com/samirrijal/geoproxy/internal/core/ports"
	"github.com/samirrijal/geoproxy/internal/pkg/logging"
)

// RawRequest holds the query values as extracted by the boundary layer.
// A nil slice means the parameter was absent.
type RawRequest struct {
	Address []string
	Service []string
	Bounds  []string
}

// ClientError rejects a request before any provider is queried.
type ClientError struct {
	Status  domain.Status
	Message string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("%s: %s", e.Status, e.Message)
}

const (
	msgAddressRequired = "A single address parameter is required within the request"
	msgAddressInvalid  = "Address is invalid"
)

// BoundsMode selects how the two corners of a bounds string are read.
type BoundsMode string

const (
	// BoundsFixed always reads "south-west|north-east".
	BoundsFixed BoundsMode = "bl_tr"
	// BoundsPrimaryProvider reads the corners in the primary provider's own convention.
	BoundsPrimaryProvider BoundsMode = "provider"
)

// RequestParser validates and normalizes inbound lookups.
type RequestParser struct {
	providers ports.ProviderRegistry
	mode      BoundsMode
}

// NewRequestParser creates a parser over the registered providers.
func NewRequestParser(providers ports.ProviderRegistry, mode BoundsMode) *RequestParser {
	if mode == "" {
		mode = BoundsFixed
	}
	return &RequestParser{providers: providers, mode: mode}
}

// Parse builds a GeocodeRequest. Only address problems are fatal; a bad
// service or bounds value degrades to the defaults.
func (p *RequestParser) Parse(ctx context.Context, raw RawRequest) (domain.GeocodeRequest, error) {
	logger := logging.FromContext(ctx)

	if len(raw.Address) != 1 {
		logger.Warn("rejecting request", "reason", msgAddressRequired, "count", len(raw.Address))
		return domain.GeocodeRequest{}, &ClientError{Status: domain.StatusInvalidRequest, Message: msgAddressRequired}
	}
	if raw.Address[0] == "" {
		logger.Warn("rejecting request", "reason", msgAddressInvalid)
		return domain.GeocodeRequest{}, &ClientError{Status: domain.StatusInvalidRequest, Message: msgAddressInvalid}
	}

	req := domain.GeocodeRequest{
		Query:         raw.Address[0],
		Address:       strings.ReplaceAll(raw.Address[0], " ", "+"),
		ProviderOrder: providerOrder(p.providers.IDs(), raw.Service),
	}

	if len(raw.Bounds) == 1 {
		coords, err := ParseBoundingCoordinates(raw.Bounds[0])
		if err != nil {
			logger.Warn("ignoring bounds", "bounds", raw.Bounds[0], "error", err)
			req.Diagnostics = append(req.Diagnostics, err.Error())
		} else {
			box := p.convention(req.ProviderOrder).Build(
				domain.NewCoordinate(coords[0], coords[1]),
				domain.NewCoordinate(coords[2], coords[3]),
			)
			req.Bounds = &box
		}
	} else if len(raw.Bounds) > 1 {
		req.Diagnostics = append(req.Diagnostics, "multiple bounds parameters, ignoring all")
	}

	return req, nil
}

func (p *RequestParser) convention(order []domain.ProviderID) domain.BoundsConvention {
	if p.mode != BoundsPrimaryProvider || len(order) == 0 {
		return domain.BoundsBottomLeftTopRight
	}
	if provider, ok := p.providers.Get(order[0]); ok {
		return provider.BoundsConvention()
	}
	return domain.BoundsBottomLeftTopRight
}

// providerOrder puts the requested service first and backfills the rest in
// registration order. Unknown or repeated services fall back to registration order.
func providerOrder(known []domain.ProviderID, service []string) []domain.ProviderID {
	order := make([]domain.ProviderID, 0, len(known))
	if len(service) == 1 {
		primary := domain.ProviderID(service[0])
		for _, id := range known {
			if id == primary {
				order = append(order, primary)
				break
			}
		}
		if len(order) == 1 {
			for _, id := range known {
				if id != primary {
					order = append(order, id)
				}
			}
			return order
		}
	}
	return append(order, known...)
}

// ParseBoundingCoordinates reads "lat,lon|lat,lon" into four floats in the
// order they appear.
func ParseBoundingCoordinates(bounds string) ([4]float64, error) {
	var out [4]float64

	corners := strings.Split(bounds, "|")
	if len(corners) != 2 {
		return out, fmt.Errorf("bounds: expected 2 corners separated by '|', got %d", len(corners))
	}
	for i, corner := range corners {
		parts := strings.Split(corner, ",")
		if len(parts) != 2 {
			return out, fmt.Errorf("bounds: corner %d: expected lat,lon, got %d values", i+1, len(parts))
		}
		for j, part := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return out, fmt.Errorf("bounds: corner %d: %w", i+1, err)
			}
			out[i*2+j] = f
		}
	}
	return out, nil
}
