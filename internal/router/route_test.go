package router

import "testing"

func mustRoutingTable(t *testing.T, routes []Route) *RoutingTable {
	t.Helper()
	rt, err := NewRoutingTable(routes)
	if err != nil {
		t.Fatalf("NewRoutingTable() error = %v", err)
	}
	return rt
}

func TestRoutingTableLongestPrefixWins(t *testing.T) {
	rt := mustRoutingTable(t, []Route{
		{Dest: IPv4Addr{10, 0, 0, 0}, Mask: IPv4Addr{255, 0, 0, 0}, Gateway: IPv4Addr{10, 0, 0, 1}, OutIface: "eth0"},
		{Dest: IPv4Addr{10, 0, 2, 0}, Mask: IPv4Addr{255, 255, 255, 0}, Gateway: IPv4Addr{10, 0, 2, 1}, OutIface: "eth1"},
	})

	route, ok := rt.LPM(IPv4Addr{10, 0, 2, 77})
	if !ok {
		t.Fatal("LPM() ok = false, want true")
	}
	if route.OutIface != "eth1" {
		t.Fatalf("LPM() matched %q, want the more specific /24 route on eth1", route.OutIface)
	}
}

func TestRoutingTableNoMatch(t *testing.T) {
	rt := mustRoutingTable(t, []Route{
		{Dest: IPv4Addr{10, 0, 2, 0}, Mask: IPv4Addr{255, 255, 255, 0}, Gateway: IPv4Addr{10, 0, 2, 1}, OutIface: "eth1"},
	})

	if _, ok := rt.LPM(IPv4Addr{192, 0, 2, 5}); ok {
		t.Fatal("LPM() ok = true for an address with no matching route")
	}
}

func TestRoutingTableFirstInsertedWinsOnTie(t *testing.T) {
	first := Route{Dest: IPv4Addr{10, 0, 2, 0}, Mask: IPv4Addr{255, 255, 255, 0}, Gateway: IPv4Addr{10, 0, 2, 1}, OutIface: "eth1"}
	second := Route{Dest: IPv4Addr{10, 0, 2, 0}, Mask: IPv4Addr{255, 255, 255, 0}, Gateway: IPv4Addr{10, 0, 2, 9}, OutIface: "eth9"}

	rt := mustRoutingTable(t, []Route{first, second})

	route, ok := rt.LPM(IPv4Addr{10, 0, 2, 77})
	if !ok {
		t.Fatal("LPM() ok = false, want true")
	}
	if route.OutIface != first.OutIface {
		t.Fatalf("LPM() = %+v, want the first-inserted route %+v", route, first)
	}
}

func TestNewRoutingTableRejectsMisalignedRoute(t *testing.T) {
	_, err := NewRoutingTable([]Route{
		{Dest: IPv4Addr{10, 0, 2, 5}, Mask: IPv4Addr{255, 255, 255, 0}, Gateway: IPv4Addr{10, 0, 2, 1}, OutIface: "eth1"},
	})
	if err == nil {
		t.Fatal("NewRoutingTable() error = nil, want error for dest & mask != dest")
	}
}
