// Package config manages routerd daemon configuration using koanf/v2.
//
// Supports YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete routerd configuration.
type Config struct {
	Mgmt       MgmtConfig       `koanf:"mgmt"`
	Metrics    MetricsConfig    `koanf:"metrics"`
	Log        LogConfig        `koanf:"log"`
	ARP        ARPConfig        `koanf:"arp"`
	Interfaces []InterfaceConfig `koanf:"interfaces"`
	Routes     []RouteConfig    `koanf:"routes"`
}

// MgmtConfig holds the read-only management/introspection HTTP API
// configuration.
type MgmtConfig struct {
	// Addr is the HTTP listen address (e.g., ":8080").
	Addr string `koanf:"addr"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	// Addr is the HTTP listen address for the metrics endpoint (e.g., ":9100").
	Addr string `koanf:"addr"`
	// Path is the URL path for the metrics endpoint (e.g., "/metrics").
	Path string `koanf:"path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// ARPConfig holds the ARP cache/pending-request tunables (§4.F).
type ARPConfig struct {
	// CacheTTL is how long a resolved ARP entry is trusted before
	// eviction.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// RetransmitInterval is how often an unresolved pending request
	// gets another ARP request broadcast.
	RetransmitInterval time.Duration `koanf:"retransmit_interval"`

	// MaxAttempts bounds the ARP requests sent for a target: once more
	// than MaxAttempts have gone unanswered (MaxAttempts+1 requests in
	// all), the pending request is abandoned and ICMP host-unreachable is
	// generated for its buffered frames.
	MaxAttempts int `koanf:"max_attempts"`
}

// InterfaceConfig describes one of the router's own network attachments.
type InterfaceConfig struct {
	// Name is the interface name, e.g. "eth0"; also the transport's
	// device name when netio binds a raw socket to it.
	Name string `koanf:"name"`

	// MAC is the interface's hardware address, "aa:bb:cc:dd:ee:ff".
	MAC string `koanf:"mac"`

	// IPv4 is the interface's own IPv4 address, dotted-quad.
	IPv4 string `koanf:"ipv4"`
}

// RouteConfig describes a single static routing table entry, loaded once
// at startup and never mutated at runtime (§3).
type RouteConfig struct {
	// Dest is the destination network's address, dotted-quad.
	Dest string `koanf:"dest"`
	// Mask is the destination network's netmask, dotted-quad.
	Mask string `koanf:"mask"`
	// Gateway is the next-hop IPv4 address to ARP-resolve and forward
	// through.
	Gateway string `koanf:"gateway"`
	// OutIface names the configured interface this route forwards out.
	OutIface string `koanf:"out_iface"`
}

// ParseMAC parses MAC as a 6-byte Ethernet hardware address.
func (ic InterfaceConfig) ParseMAC() ([6]byte, error) {
	var mac [6]byte
	parts := strings.Split(ic.MAC, ":")
	if len(parts) != 6 {
		return mac, fmt.Errorf("interface %q mac %q: %w", ic.Name, ic.MAC, ErrInvalidMAC)
	}
	for i, p := range parts {
		var b int
		if _, err := fmt.Sscanf(p, "%02x", &b); err != nil {
			return mac, fmt.Errorf("interface %q mac %q: %w", ic.Name, ic.MAC, ErrInvalidMAC)
		}
		mac[i] = byte(b)
	}
	return mac, nil
}

// parseIPv4 parses a dotted-quad string as a
// netip.Addr, rejecting anything that is not a 4-byte address.
func parseIPv4(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return netip.Addr{}, fmt.Errorf("parse ipv4 %q: %w", s, ErrInvalidIPv4)
	}
	return addr, nil
}

// ParseIPv4 parses the interface's own address.
func (ic InterfaceConfig) ParseIPv4() (netip.Addr, error) {
	return parseIPv4(ic.IPv4)
}

// ParseDest parses the route's destination network address.
func (rc RouteConfig) ParseDest() (netip.Addr, error) { return parseIPv4(rc.Dest) }

// ParseMask parses the route's netmask.
func (rc RouteConfig) ParseMask() (netip.Addr, error) { return parseIPv4(rc.Mask) }

// ParseGateway parses the route's next-hop gateway address.
func (rc RouteConfig) ParseGateway() (netip.Addr, error) { return parseIPv4(rc.Gateway) }

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config populated with sensible defaults. ARP
// tunables default to the values named in the component design (§4.F):
// a 15s cache TTL, 1s retransmit interval, and 5 retransmission attempts
// before giving up.
func DefaultConfig() *Config {
	return &Config{
		Mgmt: MgmtConfig{
			Addr: ":8080",
		},
		Metrics: MetricsConfig{
			Addr: ":9100",
			Path: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		ARP: ARPConfig{
			CacheTTL:           15 * time.Second,
			RetransmitInterval: 1 * time.Second,
			MaxAttempts:        5,
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for routerd configuration.
// Variables are named ROUTERD_<section>_<key>, e.g., ROUTERD_MGMT_ADDR.
const envPrefix = "ROUTERD_"

// Load reads configuration from a YAML file at path, overlays environment
// variable overrides (ROUTERD_ prefix), and merges on top of
// DefaultConfig(). Missing fields inherit defaults.
//
// Environment variable mapping:
//
//	ROUTERD_MGMT_ADDR     -> mgmt.addr
//	ROUTERD_METRICS_ADDR  -> metrics.addr
//	ROUTERD_METRICS_PATH  -> metrics.path
//	ROUTERD_LOG_LEVEL     -> log.level
//	ROUTERD_LOG_FORMAT    -> log.format
//	ROUTERD_ARP_CACHE_TTL -> arp.cache_ttl
//
// Interfaces and routes are only configurable via the YAML file: they are
// structured lists with no sane single-variable env mapping.
//
// Uses koanf/v2 with file + env providers and YAML parser.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}

// envKeyMapper transforms ROUTERD_MGMT_ADDR -> mgmt.addr.
// Strips the ROUTERD_ prefix, lowercases, and replaces the first _ with .
// so that ROUTERD_ARP_CACHE_TTL -> arp.cache_ttl.
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.Replace(s, "_", ".", 1)
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"mgmt.addr":             defaults.Mgmt.Addr,
		"metrics.addr":          defaults.Metrics.Addr,
		"metrics.path":          defaults.Metrics.Path,
		"log.level":             defaults.Log.Level,
		"log.format":            defaults.Log.Format,
		"arp.cache_ttl":         defaults.ARP.CacheTTL.String(),
		"arp.retransmit_interval": defaults.ARP.RetransmitInterval.String(),
		"arp.max_attempts":      defaults.ARP.MaxAttempts,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

// Validation errors.
var (
	// ErrEmptyMgmtAddr indicates the management HTTP listen address is empty.
	ErrEmptyMgmtAddr = errors.New("mgmt.addr must not be empty")

	// ErrInvalidMaxAttempts indicates arp.max_attempts is zero or negative.
	ErrInvalidMaxAttempts = errors.New("arp.max_attempts must be >= 1")

	// ErrInvalidCacheTTL indicates arp.cache_ttl is not positive.
	ErrInvalidCacheTTL = errors.New("arp.cache_ttl must be > 0")

	// ErrInvalidRetransmitInterval indicates arp.retransmit_interval is not positive.
	ErrInvalidRetransmitInterval = errors.New("arp.retransmit_interval must be > 0")

	// ErrNoInterfaces indicates the configuration declares no interfaces.
	ErrNoInterfaces = errors.New("at least one interface must be configured")

	// ErrInvalidMAC indicates an interface's mac field does not parse as
	// a 6-byte Ethernet address.
	ErrInvalidMAC = errors.New("interface mac must be a 6-byte colon-separated hex address")

	// ErrInvalidIPv4 indicates a configured address does not parse as an
	// IPv4 dotted-quad.
	ErrInvalidIPv4 = errors.New("address must be a valid IPv4 dotted-quad")

	// ErrDuplicateInterfaceName indicates two interfaces share the same name.
	ErrDuplicateInterfaceName = errors.New("duplicate interface name")

	// ErrRouteUnknownInterface indicates a route names an interface not
	// present in the interfaces list.
	ErrRouteUnknownInterface = errors.New("route out_iface does not name a configured interface")
)

// Validate checks the configuration for logical errors.
// Returns the first validation error encountered.
func Validate(cfg *Config) error {
	if cfg.Mgmt.Addr == "" {
		return ErrEmptyMgmtAddr
	}

	if cfg.ARP.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}
	if cfg.ARP.CacheTTL <= 0 {
		return ErrInvalidCacheTTL
	}
	if cfg.ARP.RetransmitInterval <= 0 {
		return ErrInvalidRetransmitInterval
	}

	ifaceNames, err := validateInterfaces(cfg.Interfaces)
	if err != nil {
		return err
	}

	if err := validateRoutes(cfg.Routes, ifaceNames); err != nil {
		return err
	}

	return nil
}

// validateInterfaces checks each configured interface for correctness and
// returns the set of valid names, for cross-referencing by routes.
func validateInterfaces(ifaces []InterfaceConfig) (map[string]struct{}, error) {
	if len(ifaces) == 0 {
		return nil, ErrNoInterfaces
	}

	names := make(map[string]struct{}, len(ifaces))
	for i, ic := range ifaces {
		if _, dup := names[ic.Name]; dup {
			return nil, fmt.Errorf("interfaces[%d] name %q: %w", i, ic.Name, ErrDuplicateInterfaceName)
		}
		names[ic.Name] = struct{}{}

		if _, err := ic.ParseMAC(); err != nil {
			return nil, fmt.Errorf("interfaces[%d]: %w", i, err)
		}
		if _, err := ic.ParseIPv4(); err != nil {
			return nil, fmt.Errorf("interfaces[%d]: %w", i, err)
		}
	}

	return names, nil
}

// validateRoutes checks each configured route for correctness against the
// interface names declared valid by validateInterfaces.
func validateRoutes(routes []RouteConfig, ifaceNames map[string]struct{}) error {
	for i, rc := range routes {
		if _, err := rc.ParseDest(); err != nil {
			return fmt.Errorf("routes[%d]: %w", i, err)
		}
		if _, err := rc.ParseMask(); err != nil {
			return fmt.Errorf("routes[%d]: %w", i, err)
		}
		if _, err := rc.ParseGateway(); err != nil {
			return fmt.Errorf("routes[%d]: %w", i, err)
		}
		if _, ok := ifaceNames[rc.OutIface]; !ok {
			return fmt.Errorf("routes[%d] out_iface %q: %w", i, rc.OutIface, ErrRouteUnknownInterface)
		}
	}
	return nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
//
// Recognized values: "debug", "info", "warn", "error" (case-insensitive).
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
