// Package mgmt provides a read-only HTTP introspection API over the
// router's live state: configured interfaces, the static routing table,
// and a snapshot of the ARP cache. It exists for operators and
// monitoring tooling, never for mutating router state at runtime.
package mgmt

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dantte-lp/routerd/internal/router"
)

// Server answers read-only introspection requests over the router's
// configured interfaces, routes, and ARP cache.
type Server struct {
	ifaces    []router.Interface
	routes    []router.Route
	arp       *router.ARPTable
	startedAt time.Time
	logger    *slog.Logger
}

// New builds a Server over the given static configuration and live ARP
// table. ifaces and routes are the same values used to build the
// router's InterfaceTable and RoutingTable; arp may be nil if the
// router was built without one, in which case /arp reports an empty
// cache.
func New(ifaces []router.Interface, routes []router.Route, arp *router.ARPTable, logger *slog.Logger) *Server {
	return &Server{
		ifaces:    ifaces,
		routes:    routes,
		arp:       arp,
		startedAt: time.Now(),
		logger:    logger,
	}
}

// Handler returns an http.Handler serving the introspection endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /interfaces", s.handleInterfaces)
	mux.HandleFunc("GET /routes", s.handleRoutes)
	mux.HandleFunc("GET /arp", s.handleARP)
	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, healthzResponse{
		Status: "ok",
		Uptime: time.Since(s.startedAt).String(),
	})
}

type healthzResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

func (s *Server) handleInterfaces(w http.ResponseWriter, _ *http.Request) {
	out := make([]interfaceView, 0, len(s.ifaces))
	for _, ifc := range s.ifaces {
		out = append(out, interfaceView{
			Name: ifc.Name,
			MAC:  ifc.MAC.String(),
			IPv4: ifc.IPv4.String(),
		})
	}
	s.writeJSON(w, out)
}

type interfaceView struct {
	Name string `json:"name"`
	MAC  string `json:"mac"`
	IPv4 string `json:"ipv4"`
}

func (s *Server) handleRoutes(w http.ResponseWriter, _ *http.Request) {
	out := make([]routeView, 0, len(s.routes))
	for _, rt := range s.routes {
		out = append(out, routeView{
			Dest:     rt.Dest.String(),
			Mask:     rt.Mask.String(),
			Gateway:  rt.Gateway.String(),
			OutIface: rt.OutIface,
		})
	}
	s.writeJSON(w, out)
}

type routeView struct {
	Dest     string `json:"dest"`
	Mask     string `json:"mask"`
	Gateway  string `json:"gateway"`
	OutIface string `json:"out_iface"`
}

func (s *Server) handleARP(w http.ResponseWriter, _ *http.Request) {
	out := []arpEntryView{}
	if s.arp != nil {
		snap := s.arp.Snapshot()
		out = make([]arpEntryView, 0, len(snap))
		for ip, mac := range snap {
			out = append(out, arpEntryView{IPv4: ip.String(), MAC: mac.String()})
		}
	}
	s.writeJSON(w, out)
}

type arpEntryView struct {
	IPv4 string `json:"ipv4"`
	MAC  string `json:"mac"`
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("mgmt: failed to encode response", slog.String("error", err.Error()))
	}
}
