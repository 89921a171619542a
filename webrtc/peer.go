// Package webrtc carries the game event protocol over pion DataChannels for
// clients that prefer them to websockets.
package webrtc

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/pion/webrtc/v3"

	"candy-rush/protocol"
)

// maxBufferedAmount is how much unsent data a peer may accumulate before it is
// treated as too slow and closed.
const maxBufferedAmount = 1 << 20

var (
	ErrChannelClosed = errors.New("data channel closed")
	ErrSlowPeer      = errors.New("data channel buffer full")
)

// Handlers are invoked from pion's callback goroutines.
type Handlers struct {
	OnOpen    func(*Peer)
	OnMessage func(*Peer, []byte)
	OnClose   func(*Peer)
}

// Peer is one remote client. It implements models.Conn once its data channel
// is open.
type Peer struct {
	ID             string
	PeerConnection *webrtc.PeerConnection

	mu      sync.Mutex
	channel *webrtc.DataChannel
	closed  bool

	closeOnce sync.Once
	onClose   func(*Peer)
}

// Send encodes the event as a JSON text message.
func (p *Peer) Send(msgType string, data any) error {
	frame, err := protocol.Encode(protocol.JSONCodec{}, msgType, data)
	if err != nil {
		return err
	}

	p.mu.Lock()
	dc, closed := p.channel, p.closed
	p.mu.Unlock()
	if closed || dc == nil || dc.ReadyState() != webrtc.DataChannelStateOpen {
		return ErrChannelClosed
	}
	if dc.BufferedAmount() > maxBufferedAmount {
		p.abandon()
		return ErrSlowPeer
	}
	return dc.SendText(string(frame))
}

func (p *Peer) Close() error {
	if !p.markClosed() {
		return nil
	}
	return p.teardown()
}

// abandon closes the peer without blocking the caller. Send runs on a room
// goroutine, and the close handler re-enters that room.
func (p *Peer) abandon() {
	if p.markClosed() {
		go p.teardown()
	}
}

func (p *Peer) markClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.closed = true
	return true
}

func (p *Peer) teardown() error {
	err := p.PeerConnection.Close()
	p.fireClose()
	return err
}

func (p *Peer) fireClose() {
	p.closeOnce.Do(func() {
		if p.onClose != nil {
			p.onClose(p)
		}
	})
}

type Manager struct {
	api    *webrtc.API
	config webrtc.Configuration
	peers  map[string]*Peer
	mutex  sync.RWMutex
	logger *log.Logger
}

// NewManager builds a manager that advertises the given STUN/TURN urls.
// Username and credential apply to turn: entries only.
func NewManager(iceServers []string, username, credential string, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		api:    webrtc.NewAPI(),
		config: iceConfiguration(iceServers, username, credential),
		peers:  make(map[string]*Peer),
		logger: logger,
	}
}

func iceConfiguration(urls []string, username, credential string) webrtc.Configuration {
	var stun, turn []string
	for _, u := range urls {
		u = strings.TrimSpace(u)
		switch {
		case u == "":
		case strings.HasPrefix(u, "turn:"), strings.HasPrefix(u, "turns:"):
			turn = append(turn, u)
		default:
			stun = append(stun, u)
		}
	}

	var servers []webrtc.ICEServer
	if len(stun) > 0 {
		servers = append(servers, webrtc.ICEServer{URLs: stun})
	}
	if len(turn) > 0 {
		servers = append(servers, webrtc.ICEServer{
			URLs:       turn,
			Username:   username,
			Credential: credential,
		})
	}
	return webrtc.Configuration{
		ICEServers:         servers,
		ICETransportPolicy: webrtc.ICETransportPolicyAll,
	}
}

// Answer accepts a client offer and returns the local answer with every ICE
// candidate already gathered, so no trickle exchange is needed. The client is
// expected to create the data channel.
func (m *Manager) Answer(id string, offer webrtc.SessionDescription, h Handlers) (*webrtc.SessionDescription, error) {
	pc, err := m.api.NewPeerConnection(m.config)
	if err != nil {
		return nil, fmt.Errorf("new peer connection: %w", err)
	}

	peer := &Peer{ID: id, PeerConnection: pc, onClose: func(p *Peer) {
		m.forget(p.ID)
		if h.OnClose != nil {
			h.OnClose(p)
		}
	}}

	pc.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		m.logger.Printf("ICE Connection State for %s: %s", id, state.String())
		switch state {
		case webrtc.ICEConnectionStateFailed, webrtc.ICEConnectionStateDisconnected, webrtc.ICEConnectionStateClosed:
			peer.Close()
		}
	})

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		peer.mu.Lock()
		if peer.channel != nil || peer.closed {
			peer.mu.Unlock()
			m.logger.Printf("Ignoring extra data channel %q from %s", dc.Label(), id)
			return
		}
		peer.channel = dc
		peer.mu.Unlock()

		dc.OnOpen(func() {
			m.logger.Printf("DataChannel opened for %s", id)
			if h.OnOpen != nil {
				h.OnOpen(peer)
			}
		})
		dc.OnMessage(func(msg webrtc.DataChannelMessage) {
			if h.OnMessage != nil {
				h.OnMessage(peer, msg.Data)
			}
		})
		dc.OnClose(func() {
			m.logger.Printf("DataChannel closed for %s", id)
			peer.Close()
		})
		dc.OnError(func(err error) {
			m.logger.Printf("DataChannel error for %s: %v", id, err)
		})
	})

	if err := pc.SetRemoteDescription(offer); err != nil {
		pc.Close()
		return nil, fmt.Errorf("set remote description: %w", err)
	}
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("create answer: %w", err)
	}
	gathered := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		pc.Close()
		return nil, fmt.Errorf("set local description: %w", err)
	}
	<-gathered

	peer.mu.Lock()
	closed := peer.closed
	peer.mu.Unlock()
	if closed {
		return nil, ErrChannelClosed
	}

	m.mutex.Lock()
	m.peers[id] = peer
	m.mutex.Unlock()

	return pc.LocalDescription(), nil
}

func (m *Manager) GetPeer(id string) (*Peer, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	peer, ok := m.peers[id]
	return peer, ok
}

func (m *Manager) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.peers)
}

// RemovePeer closes the peer, which also runs its close handler.
func (m *Manager) RemovePeer(id string) {
	if peer, ok := m.GetPeer(id); ok {
		peer.Close()
	}
}

// Shutdown closes every peer.
func (m *Manager) Shutdown() {
	m.mutex.RLock()
	peers := make([]*Peer, 0, len(m.peers))
	for _, p := range m.peers {
		peers = append(peers, p)
	}
	m.mutex.RUnlock()

	for _, p := range peers {
		p.Close()
	}
}

func (m *Manager) forget(id string) {
	m.mutex.Lock()
	delete(m.peers, id)
	m.mutex.Unlock()
}
