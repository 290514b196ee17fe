// Package connectivity answers whether the device currently has a usable network transport.
package connectivity

import (
	"fmt"
	"strings"
)

// Transport is a kind of link an active network may expose.
type Transport int

const (
	TransportOther Transport = iota
	TransportWiFi
	TransportCellular
	TransportEthernet
)

func (t Transport) String() string {
	switch t {
	case TransportWiFi:
		return "wifi"
	case TransportCellular:
		return "cellular"
	case TransportEthernet:
		return "ethernet"
	default:
		return "other"
	}
}

// ParseTransport maps a config token to a Transport. Unknown tokens map to TransportOther.
func ParseTransport(s string) Transport {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wifi", "wi-fi", "wlan":
		return TransportWiFi
	case "cellular", "mobile", "wwan":
		return TransportCellular
	case "ethernet", "wired", "eth":
		return TransportEthernet
	default:
		return TransportOther
	}
}

// ActiveNetwork is the network the device would currently route through.
type ActiveNetwork struct {
	Name       string
	Transports []Transport
}

// HasTransport reports whether the network advertises t.
func (n *ActiveNetwork) HasTransport(t Transport) bool {
	if n == nil {
		return false
	}
	for _, have := range n.Transports {
		if have == t {
			return true
		}
	}
	return false
}

// Inspector reports the active network. A nil network with nil error means no active network.
type Inspector interface {
	ActiveNetwork() (*ActiveNetwork, error)
}

// IsNetworkAvailable returns true iff an active network exists and exposes Wi-Fi, cellular or wired transport.
// Inspector errors count as no network.
func IsNetworkAvailable(inspector Inspector) bool {
	if inspector == nil {
		return false
	}
	network, err := inspector.ActiveNetwork()
	if err != nil || network == nil {
		return false
	}
	return network.HasTransport(TransportWiFi) ||
		network.HasTransport(TransportCellular) ||
		network.HasTransport(TransportEthernet)
}

// StaticInspector always reports the same network. A nil Network means offline.
type StaticInspector struct {
	Network *ActiveNetwork
}

// NewStaticInspector builds a StaticInspector from a transport token. Empty or "none" means offline.
func NewStaticInspector(token string) *StaticInspector {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" || token == "none" || token == "offline" {
		return &StaticInspector{}
	}
	return &StaticInspector{Network: &ActiveNetwork{
		Name:       fmt.Sprintf("static-%s", token),
		Transports: []Transport{ParseTransport(token)},
	}}
}

func (s *StaticInspector) ActiveNetwork() (*ActiveNetwork, error) {
	return s.Network, nil
}
