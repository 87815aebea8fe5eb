package mgmt_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dantte-lp/routerd/internal/mgmt"
	"github.com/dantte-lp/routerd/internal/router"
)

func testIfaces() []router.Interface {
	return []router.Interface{
		{
			Name: "eth0",
			MAC:  router.MACAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
			IPv4: router.IPv4Addr{192, 0, 2, 1},
		},
	}
}

func testRoutes() []router.Route {
	return []router.Route{
		{
			Dest:     router.IPv4Addr{192, 0, 2, 0},
			Mask:     router.IPv4Addr{255, 255, 255, 0},
			Gateway:  router.IPv4Addr{0, 0, 0, 0},
			OutIface: "eth0",
		},
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := mgmt.New(testIfaces(), testRoutes(), nil, slog.Default())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var out struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Status != "ok" {
		t.Errorf("status = %q, want %q", out.Status, "ok")
	}
}

func TestInterfaces(t *testing.T) {
	t.Parallel()

	srv := mgmt.New(testIfaces(), testRoutes(), nil, slog.Default())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/interfaces")
	if err != nil {
		t.Fatalf("GET /interfaces: %v", err)
	}
	defer resp.Body.Close()

	var out []struct {
		Name string `json:"name"`
		MAC  string `json:"mac"`
		IPv4 string `json:"ipv4"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d interfaces, want 1", len(out))
	}
	if out[0].Name != "eth0" || out[0].MAC != "00:11:22:33:44:55" || out[0].IPv4 != "192.0.2.1" {
		t.Errorf("unexpected interface view: %+v", out[0])
	}
}

func TestRoutes(t *testing.T) {
	t.Parallel()

	srv := mgmt.New(testIfaces(), testRoutes(), nil, slog.Default())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/routes")
	if err != nil {
		t.Fatalf("GET /routes: %v", err)
	}
	defer resp.Body.Close()

	var out []struct {
		Dest     string `json:"dest"`
		Mask     string `json:"mask"`
		Gateway  string `json:"gateway"`
		OutIface string `json:"out_iface"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].Dest != "192.0.2.0" || out[0].OutIface != "eth0" {
		t.Fatalf("unexpected routes view: %+v", out)
	}
}

func TestARPWithNilTable(t *testing.T) {
	t.Parallel()

	srv := mgmt.New(testIfaces(), testRoutes(), nil, slog.Default())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/arp")
	if err != nil {
		t.Fatalf("GET /arp: %v", err)
	}
	defer resp.Body.Close()

	var out []any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("got %d arp entries, want 0", len(out))
	}
}

func TestARPWithLiveTable(t *testing.T) {
	t.Parallel()

	arp := router.NewARPTable()
	arp.Insert(router.IPv4Addr{192, 0, 2, 2}, router.MACAddr{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff})

	srv := mgmt.New(testIfaces(), testRoutes(), arp, slog.Default())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/arp")
	if err != nil {
		t.Fatalf("GET /arp: %v", err)
	}
	defer resp.Body.Close()

	var out []struct {
		IPv4 string `json:"ipv4"`
		MAC  string `json:"mac"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].IPv4 != "192.0.2.2" || out[0].MAC != "aa:bb:cc:dd:ee:ff" {
		t.Fatalf("unexpected arp view: %+v", out)
	}
}
