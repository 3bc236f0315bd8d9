package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyZoneID      = "zone_id"
	KeyZoneName    = "zone_name"
	KeyScheduleID  = "schedule_id"
	KeyRunID       = "run_id"
	KeySource      = "source"
	KeyDurationSec = "duration_sec"
	KeyRelayMode   = "relay_mode"
	KeyMethod      = "method"
	KeyPath        = "path"
	KeyStatus      = "status"
	KeyRemoteAddr  = "remote_addr"
	KeyUserAgent   = "user_agent"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func ZoneID(id int) slog.Attr         { return slog.Int(KeyZoneID, id) }
func ZoneName(n string) slog.Attr     { return slog.String(KeyZoneName, n) }
func ScheduleID(id string) slog.Attr  { return slog.String(KeyScheduleID, id) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Source(s string) slog.Attr       { return slog.String(KeySource, s) }
func DurationSec(s int) slog.Attr     { return slog.Int(KeyDurationSec, s) }
func RelayMode(m string) slog.Attr    { return slog.String(KeyRelayMode, m) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func UserAgent(ua string) slog.Attr   { return slog.String(KeyUserAgent, ua) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
