// Package router implements the data plane of a minimal IPv4 software
// router: Ethernet/ARP/IPv4/ICMP wire codecs, the ARP cache and pending
// request queue with a background sweeper, a longest-prefix-match routing
// table, and the forwarding pipeline that ties them together.
//
// The package has no knowledge of sockets, files, or the process
// lifecycle. It consumes received frames through HandleFrame and emits
// outgoing frames through the FrameSender collaborator interface, so it
// can be exercised in tests with an in-memory fake and wired to a real
// transport (internal/netio) only at the daemon's edge.
package router
