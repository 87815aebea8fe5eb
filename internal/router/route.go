package router

import (
	"fmt"
	"net/netip"

	"github.com/gaissmai/bart"
)

// Route is a single routing table entry, loaded once at startup and
// never mutated at runtime.
type Route struct {
	Dest     IPv4Addr
	Mask     IPv4Addr
	Gateway  IPv4Addr
	OutIface string
}

// maskLen returns the number of leading one-bits in mask, i.e. the CIDR
// prefix length implied by a dotted-quad netmask.
func maskLen(mask IPv4Addr) int {
	v := mask.Uint32()
	n := 0
	for b := uint32(0x80000000); b != 0; b >>= 1 {
		if v&b == 0 {
			break
		}
		n++
	}
	return n
}

// RoutingTable answers longest-prefix-match queries over a fixed set of
// routes. It is built once from the configured route list; per
// github.com/gaissmai/bart, a Table is safe for concurrent *readers*
// once no further writes occur, which matches this router's lifecycle
// exactly (load at startup, read-only for the life of the process).
type RoutingTable struct {
	trie *bart.Table[Route]
}

// NewRoutingTable builds a RoutingTable from routes, in the order
// given. Every route must satisfy dest & mask == dest. Among routes
// with identical (dest, mask) — which can only tie with each other,
// since the LPM itself always prefers the longer mask — the
// first-inserted one is kept and the rest are silently superseded, per
// the longest-prefix-match tie-break rule.
func NewRoutingTable(routes []Route) (*RoutingTable, error) {
	trie := new(bart.Table[Route])

	for _, r := range routes {
		if r.Dest.Uint32()&r.Mask.Uint32() != r.Dest.Uint32() {
			return nil, fmt.Errorf("routing table: %s/%s: %w", r.Dest, r.Mask, ErrInvalidRoute)
		}

		pfx, err := routePrefix(r)
		if err != nil {
			return nil, fmt.Errorf("routing table: %w", err)
		}

		if _, ok := trie.Get(pfx); ok {
			// First-inserted wins on an exact (dest, mask) tie.
			continue
		}
		trie.Insert(pfx, r)
	}

	return &RoutingTable{trie: trie}, nil
}

func routePrefix(r Route) (netip.Prefix, error) {
	addr := netip.AddrFrom4(r.Dest)
	pfx := netip.PrefixFrom(addr, maskLen(r.Mask))
	if !pfx.IsValid() {
		return netip.Prefix{}, fmt.Errorf("%s/%d: %w", r.Dest, maskLen(r.Mask), ErrInvalidRoute)
	}
	return pfx.Masked(), nil
}

// LPM returns the longest-prefix-match route for dst, if any.
func (t *RoutingTable) LPM(dst IPv4Addr) (Route, bool) {
	route, ok := t.trie.Lookup(netip.AddrFrom4(dst))
	return route, ok
}
