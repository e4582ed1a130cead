package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ProviderID identifies a registered geocoding provider ("google", "here").
type ProviderID string

// Status is the outcome reported to the client.
type Status string

const (
	StatusOK             Status = "OK"
	StatusZeroResults    Status = "ZERO_RESULTS"
	StatusInvalidRequest Status = "INVALID_REQUEST"
	StatusUnknownError   Status = "UNKNOWN_ERROR"
)

// GeocodeRequest is a validated, normalized lookup. It is built once by the
// request parser and only read afterwards.
type GeocodeRequest struct {
	// Query is the address exactly as the client sent it.
	Query string
	// Address is Query with spaces replaced by '+'.
	Address       string
	ProviderOrder []ProviderID
	Bounds        *BoundingBox
	// Diagnostics collects non-fatal parse problems. Never sent to the client.
	Diagnostics []string
}

// ProviderQuery describes the upstream call for one provider attempt.
type ProviderQuery struct {
	Method string
	URL    string
}

// OutcomeKind tags a ProviderResult.
type OutcomeKind int

const (
	// OutcomeFailure covers network errors, timeouts and malformed payloads.
	OutcomeFailure OutcomeKind = iota
	// OutcomeZeroResults is a valid upstream answer with no matches.
	OutcomeZeroResults
	OutcomeSuccess
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeZeroResults:
		return "zero_results"
	default:
		return "failure"
	}
}

// ProviderResult is the normalized outcome of a single provider attempt.
type ProviderResult struct {
	Kind            OutcomeKind
	ResolvedAddress string
	Latitude        float64
	Longitude       float64
	// Err explains a failure. Only used for diagnostics.
	Err error
}

// Success builds a successful provider outcome.
func Success(resolvedAddress string, lat, lon float64) ProviderResult {
	return ProviderResult{Kind: OutcomeSuccess, ResolvedAddress: resolvedAddress, Latitude: lat, Longitude: lon}
}

// ZeroResults builds an outcome for a valid call with no matches.
func ZeroResults() ProviderResult {
	return ProviderResult{Kind: OutcomeZeroResults}
}

// Failure builds a failed provider outcome.
func Failure(err error) ProviderResult {
	return ProviderResult{Kind: OutcomeFailure, Err: err}
}

// ProxyResponse is the final answer for one request. OK responses carry the
// resolved location; every other status carries a message.
type ProxyResponse struct {
	Query           string
	Status          Status
	ResolvedAddress string
	Source          ProviderID
	Latitude        float64
	Longitude       float64
	Message         string
}

// NewOKResponse builds a successful response.
func NewOKResponse(query string, source ProviderID, resolvedAddress string, lat, lon float64) ProxyResponse {
	return ProxyResponse{
		Query:           query,
		Status:          StatusOK,
		ResolvedAddress: resolvedAddress,
		Source:          source,
		Latitude:        lat,
		Longitude:       lon,
	}
}

// NewErrorResponse builds an error response. status must not be StatusOK.
func NewErrorResponse(query string, status Status, message string) ProxyResponse {
	return ProxyResponse{Query: query, Status: status, Message: message}
}

// OK reports whether the response carries a location.
func (r ProxyResponse) OK() bool {
	return r.Status == StatusOK
}

type proxyResult struct {
	Source ProviderID `json:"source"`
	Lat    float64    `json:"lat"`
	Lon    float64    `json:"lon"`
}

type proxyResponseJSON struct {
	Query           string       `json:"query"`
	ResolvedAddress string       `json:"resolved_address,omitempty"`
	Status          Status       `json:"status"`
	Result          *proxyResult `json:"result,omitempty"`
	Error           string       `json:"error,omitempty"`
}

// MarshalJSON writes the client wire format.
func (r ProxyResponse) MarshalJSON() ([]byte, error) {
	out := proxyResponseJSON{Query: r.Query, Status: r.Status}
	if r.OK() {
		out.ResolvedAddress = r.ResolvedAddress
		out.Result = &proxyResult{Source: r.Source, Lat: r.Latitude, Lon: r.Longitude}
	} else {
		out.Error = r.Message
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the client wire format.
func (r *ProxyResponse) UnmarshalJSON(data []byte) error {
	var in proxyResponseJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Status == "" {
		return fmt.Errorf("proxy response: missing status")
	}
	*r = ProxyResponse{Query: in.Query, Status: in.Status, Message: in.Error}
	if in.Status == StatusOK {
		if in.Result == nil {
			return fmt.Errorf("proxy response: OK without result")
		}
		r.ResolvedAddress = in.ResolvedAddress
		r.Source = in.Result.Source
		r.Latitude = in.Result.Lat
		r.Longitude = in.Result.Lon
	}
	return nil
}

// LookupEvent is published after every finalized lookup.
type LookupEvent struct {
	ID        string       `json:"id"`
	Query     string       `json:"query"`
	Status    Status       `json:"status"`
	Source    ProviderID   `json:"source,omitempty"`
	Attempted []ProviderID `json:"attempted"`
	Cached    bool         `json:"cached"`
	Duration  float64      `json:"duration_ms"`
	Time      time.Time    `json:"time"`
}
