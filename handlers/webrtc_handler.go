package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v3"

	"candy-rush/game"
	"candy-rush/protocol"
	rtc "candy-rush/webrtc"
)

const maxOfferSize = 64 << 10

type WebRTCHandler struct {
	gameManager   *game.Manager
	webrtcManager *rtc.Manager
	allowedOrigin string
	logger        *log.Logger
}

func NewWebRTCHandler(gameManager *game.Manager, webrtcManager *rtc.Manager, allowedOrigin string, logger *log.Logger) *WebRTCHandler {
	if logger == nil {
		logger = log.Default()
	}
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return &WebRTCHandler{
		gameManager:   gameManager,
		webrtcManager: webrtcManager,
		allowedOrigin: allowedOrigin,
		logger:        logger,
	}
}

type offerRequest struct {
	Offer struct {
		Type string `json:"type"`
		SDP  string `json:"sdp"`
	} `json:"offer"`
}

// HandleOffer answers a client SDP offer. Once the client's data channel opens
// it speaks the same event protocol as the websocket, JSON encoded.
func (h *WebRTCHandler) HandleOffer(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", h.allowedOrigin)
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req offerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxOfferSize)).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Offer.SDP == "" {
		http.Error(w, "offer.sdp is required", http.StatusBadRequest)
		return
	}
	if req.Offer.Type != "" && req.Offer.Type != webrtc.SDPTypeOffer.String() {
		http.Error(w, "offer.type must be offer", http.StatusBadRequest)
		return
	}

	clientID := uuid.NewString()
	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: req.Offer.SDP}
	answer, err := h.webrtcManager.Answer(clientID, offer, rtc.Handlers{
		OnOpen: func(p *rtc.Peer) {
			h.gameManager.Connect(p.ID, p)
		},
		OnMessage: func(p *rtc.Peer, data []byte) {
			msg, err := protocol.Decode(protocol.JSONCodec{}, data)
			if err != nil {
				h.logger.Printf("Discarding message from %s: %v", p.ID, err)
				return
			}
			h.gameManager.HandleMessage(p.ID, msg)
		},
		OnClose: func(p *rtc.Peer) {
			h.gameManager.Disconnect(p.ID)
		},
	})
	if err != nil {
		h.logger.Printf("WebRTC offer from %s rejected: %v", r.RemoteAddr, err)
		http.Error(w, "Failed to negotiate peer connection", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"player_id": clientID,
		"answer": map[string]string{
			"type": answer.Type.String(),
			"sdp":  answer.SDP,
		},
	}); err != nil {
		h.logger.Printf("Failed to encode answer for %s: %v", clientID, err)
	}
}
