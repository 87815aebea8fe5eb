// Package netio provides raw Ethernet frame I/O for the router's data
// plane.
//
// Linux-specific implementation uses golang.org/x/sys/unix AF_PACKET
// sockets bound one per interface, with a classic BPF filter restricting
// delivery to ARP and IPv4 EtherTypes.
package netio
