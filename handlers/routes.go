package handlers

import (
	"log"
	"net/http"

	"candy-rush/auth"
	"candy-rush/game"
	"candy-rush/scores"
	rtc "candy-rush/webrtc"
)

// Deps are the collaborators the HTTP surface needs. WebRTC is optional.
type Deps struct {
	GameManager   *game.Manager
	Scores        scores.Repository
	Issuer        *auth.Issuer
	WebRTC        *rtc.Manager
	AllowedOrigin string
	Logger        *log.Logger
}

func NewRouter(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/ws", NewWebSocketHandler(d.GameManager, d.AllowedOrigin, d.Logger))
	if d.WebRTC != nil {
		mux.HandleFunc("/webrtc/offer", NewWebRTCHandler(d.GameManager, d.WebRTC, d.AllowedOrigin, d.Logger).HandleOffer)
	}

	sh := NewScoresHandler(d.Scores, d.GameManager, d.Logger)
	mux.HandleFunc("POST /api/scores/single", sh.PostSingle)
	mux.HandleFunc("GET /api/scores/single", sh.ListSingle)
	mux.HandleFunc("POST /api/scores/multiplayer", sh.PostMatch)
	mux.HandleFunc("GET /api/scores/multiplayer", sh.ListMatches)
	mux.Handle("DELETE /api/scores/clear", auth.RequireRole(d.Issuer, auth.RoleAdmin, http.HandlerFunc(sh.Clear)))
	mux.HandleFunc("GET /api/rooms", sh.Rooms)
	mux.HandleFunc("GET /healthz", sh.Health)

	return mux
}
