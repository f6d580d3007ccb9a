package telemetry

import "strings"

// FormatMACAddress converts a raw MAC address (e.g. "10061c41d104") to the
// canonical format used as the device key (e.g. "10:06:1C:41:D1:04").
// Already formatted addresses pass through unchanged.
func FormatMACAddress(mac string) string {
	mac = strings.ToUpper(strings.ReplaceAll(mac, ":", ""))

	parts := make([]string, 0, len(mac)/2+1)
	for i := 0; i < len(mac); i += 2 {
		end := i + 2
		if end > len(mac) {
			end = len(mac)
		}
		parts = append(parts, mac[i:end])
	}

	return strings.Join(parts, ":")
}
