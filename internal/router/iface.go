package router

import "fmt"

// Interface describes one of the router's own network attachments. It is
// immutable after construction and owned by the Router instance; nothing
// in this package mutates an Interface's fields after InterfaceTable is
// built.
type Interface struct {
	Name string
	MAC  MACAddr
	IPv4 IPv4Addr
}

// InterfaceTable is an immutable, linear-scan lookup over a small set of
// interfaces. Interface counts on a router are small (single digits),
// so a linear scan is simpler and fast enough; it is never rebuilt after
// NewInterfaceTable returns.
type InterfaceTable struct {
	ifaces []Interface
}

// NewInterfaceTable builds an InterfaceTable from a list of interfaces,
// rejecting duplicate names.
func NewInterfaceTable(ifaces []Interface) (*InterfaceTable, error) {
	seen := make(map[string]struct{}, len(ifaces))
	for _, iface := range ifaces {
		if _, dup := seen[iface.Name]; dup {
			return nil, fmt.Errorf("interface table: %q: %w", iface.Name, ErrDuplicateInterface)
		}
		seen[iface.Name] = struct{}{}
	}

	cp := make([]Interface, len(ifaces))
	copy(cp, ifaces)

	return &InterfaceTable{ifaces: cp}, nil
}

// LookupByName returns the interface with the given name.
func (t *InterfaceTable) LookupByName(name string) (Interface, bool) {
	for _, iface := range t.ifaces {
		if iface.Name == name {
			return iface, true
		}
	}
	return Interface{}, false
}

// LookupByIP returns the interface owning the given IPv4 address.
func (t *InterfaceTable) LookupByIP(ip IPv4Addr) (Interface, bool) {
	for _, iface := range t.ifaces {
		if iface.IPv4 == ip {
			return iface, true
		}
	}
	return Interface{}, false
}

// IsLocalIP reports whether ip belongs to any configured interface.
func (t *InterfaceTable) IsLocalIP(ip IPv4Addr) bool {
	_, ok := t.LookupByIP(ip)
	return ok
}

// All returns every configured interface, in configuration order.
func (t *InterfaceTable) All() []Interface {
	return t.ifaces
}
