package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// mgmtClient queries routerd's read-only management HTTP API.
type mgmtClient struct {
	baseURL string
	hc      *http.Client
}

func newMgmtClient(addr string) *mgmtClient {
	return &mgmtClient{
		baseURL: "http://" + addr,
		hc:      &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *mgmtClient) getJSON(path string, out any) error {
	resp, err := c.hc.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request %s: unexpected status %s", path, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", path, err)
	}
	return nil
}

type interfaceView struct {
	Name string `json:"name"`
	MAC  string `json:"mac"`
	IPv4 string `json:"ipv4"`
}

type routeView struct {
	Dest     string `json:"dest"`
	Mask     string `json:"mask"`
	Gateway  string `json:"gateway"`
	OutIface string `json:"out_iface"`
}

type arpEntryView struct {
	IPv4 string `json:"ipv4"`
	MAC  string `json:"mac"`
}

type healthzView struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

func (c *mgmtClient) interfaces() ([]interfaceView, error) {
	var out []interfaceView
	err := c.getJSON("/interfaces", &out)
	return out, err
}

func (c *mgmtClient) routes() ([]routeView, error) {
	var out []routeView
	err := c.getJSON("/routes", &out)
	return out, err
}

func (c *mgmtClient) arpEntries() ([]arpEntryView, error) {
	var out []arpEntryView
	err := c.getJSON("/arp", &out)
	return out, err
}

func (c *mgmtClient) healthz() (healthzView, error) {
	var out healthzView
	err := c.getJSON("/healthz", &out)
	return out, err
}
