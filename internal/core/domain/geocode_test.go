package domain

import (
	"encoding/json"
	"testing"
)

func TestProxyResponse_MarshalOK(t *testing.T) {
	resp := NewOKResponse("101 North St", "google", "101 North St, CA", 37.4, -122.1)

	got, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"query":"101 North St","resolved_address":"101 North St, CA","status":"OK","result":{"source":"google","lat":37.4,"lon":-122.1}}`
	if string(got) != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestProxyResponse_MarshalError(t *testing.T) {
	tests := []struct {
		resp ProxyResponse
		want string
	}{
		{
			resp: NewErrorResponse("nowhere", StatusZeroResults, "Zero results"),
			want: `{"query":"nowhere","status":"ZERO_RESULTS","error":"Zero results"}`,
		},
		{
			resp: NewErrorResponse("", StatusInvalidRequest, "A single address parameter is required within the request"),
			want: `{"query":"","status":"INVALID_REQUEST","error":"A single address parameter is required within the request"}`,
		},
	}
	for _, tt := range tests {
		got, err := json.Marshal(tt.resp)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(got) != tt.want {
			t.Errorf("got  %s\nwant %s", got, tt.want)
		}
	}
}

func TestProxyResponse_Unmarshal(t *testing.T) {
	var r ProxyResponse
	if err := json.Unmarshal([]byte(`{"query":"q","resolved_address":"A","status":"OK","result":{"source":"here","lat":1.5,"lon":2}}`), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if want := NewOKResponse("q", "here", "A", 1.5, 2); r != want {
		t.Errorf("got %+v, want %+v", r, want)
	}

	if err := json.Unmarshal([]byte(`{"query":"q","status":"OK"}`), &r); err == nil {
		t.Error("expected error for OK without result")
	}
	if err := json.Unmarshal([]byte(`{"query":"q"}`), &r); err == nil {
		t.Error("expected error for missing status")
	}
}

func TestOutcomeKind_String(t *testing.T) {
	if Success("a", 0, 0).Kind.String() != "success" ||
		ZeroResults().Kind.String() != "zero_results" ||
		Failure(nil).Kind.String() != "failure" {
		t.Error("unexpected outcome labels")
	}
}
