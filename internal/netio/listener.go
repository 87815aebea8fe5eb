package netio

import "fmt"

// OpenConfig describes one interface to open a raw frame conn for.
type OpenConfig struct {
	// Name is the kernel interface name (e.g. "eth0").
	Name string

	// Promiscuous enables PACKET_MR_PROMISC, needed when the interface
	// must see frames addressed to MACs other than its own (bridged or
	// mirrored setups). Ordinary point-to-point router links don't need
	// it.
	Promiscuous bool
}

// OpenAll opens a RawFrameConn for every entry in cfgs, closing any
// conns already opened if a later one fails, so a partial failure never
// leaks sockets.
func OpenAll(cfgs []OpenConfig) ([]FrameConn, error) {
	conns := make([]FrameConn, 0, len(cfgs))

	for _, cfg := range cfgs {
		conn, err := NewRawFrameConn(cfg.Name, cfg.Promiscuous)
		if err != nil {
			for _, opened := range conns {
				_ = opened.Close()
			}
			return nil, fmt.Errorf("netio: open %q: %w", cfg.Name, err)
		}
		conns = append(conns, conn)
	}

	return conns, nil
}
