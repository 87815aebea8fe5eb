package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

// errUnsupportedFormat is returned when the requested output format is not supported.
var errUnsupportedFormat = errors.New("unsupported output format")

func formatInterfaces(ifaces []interfaceView, format string) (string, error) {
	switch format {
	case formatJSON:
		return toJSON(ifaces)
	case formatTable:
		return tableInterfaces(ifaces), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

func formatRoutes(routes []routeView, format string) (string, error) {
	switch format {
	case formatJSON:
		return toJSON(routes)
	case formatTable:
		return tableRoutes(routes), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

func formatARP(entries []arpEntryView, format string) (string, error) {
	switch format {
	case formatJSON:
		return toJSON(entries)
	case formatTable:
		return tableARP(entries), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

func toJSON(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal json: %w", err)
	}
	return string(b), nil
}

func tableInterfaces(ifaces []interfaceView) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMAC\tIPV4")
	for _, ifc := range ifaces {
		fmt.Fprintf(w, "%s\t%s\t%s\n", ifc.Name, ifc.MAC, ifc.IPv4)
	}
	w.Flush()
	return buf.String()
}

func tableRoutes(routes []routeView) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DEST\tMASK\tGATEWAY\tOUT_IFACE")
	for _, rt := range routes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rt.Dest, rt.Mask, rt.Gateway, rt.OutIface)
	}
	w.Flush()
	return buf.String()
}

func tableARP(entries []arpEntryView) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "IPV4\tMAC")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\n", e.IPv4, e.MAC)
	}
	w.Flush()
	return buf.String()
}
