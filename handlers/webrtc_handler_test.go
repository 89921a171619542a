package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	rtc "candy-rush/webrtc"
)

func TestWebRTCOfferValidation(t *testing.T) {
	gm := newTestManager(t)
	h := NewWebRTCHandler(gm, rtc.NewManager(nil, "", "", quietLogger()), "", quietLogger())

	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{name: "preflight", method: http.MethodOptions, want: http.StatusOK},
		{name: "wrong method", method: http.MethodGet, want: http.StatusMethodNotAllowed},
		{name: "bad json", method: http.MethodPost, body: `{`, want: http.StatusBadRequest},
		{name: "missing sdp", method: http.MethodPost, body: `{"offer":{"type":"offer"}}`, want: http.StatusBadRequest},
		{name: "answer type", method: http.MethodPost, body: `{"offer":{"type":"answer","sdp":"v=0"}}`, want: http.StatusBadRequest},
		{name: "garbage sdp", method: http.MethodPost, body: `{"offer":{"type":"offer","sdp":"nope"}}`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/webrtc/offer", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.HandleOffer(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
				t.Fatalf("cors origin = %q", got)
			}
		})
	}

	if gm.Clients.Len() != 0 {
		t.Fatalf("rejected offers must not register clients, have %d", gm.Clients.Len())
	}
}
