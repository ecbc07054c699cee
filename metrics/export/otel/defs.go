package otel

import (
	"github.com/MrEthical07/sessionauth"
)

type counterDef struct {
	id   sessionauth.MetricID
	name string
	help string
}

var counterDefs = []counterDef{
	{sessionauth.MetricLoginSuccess, "sessionauth_login_success_total", "Successful logins."},
	{sessionauth.MetricLoginFailure, "sessionauth_login_failure_total", "Logins rejected for bad credentials."},
	{sessionauth.MetricLoginRateLimited, "sessionauth_login_rate_limited_total", "Logins rejected by the throttle."},
	{sessionauth.MetricRefreshSuccess, "sessionauth_refresh_success_total", "Successful refresh rotations."},
	{sessionauth.MetricRefreshFailure, "sessionauth_refresh_failure_total", "Refreshes rejected as invalid."},
	{sessionauth.MetricRefreshReuseDetected, "sessionauth_refresh_reuse_detected_total", "Stale refresh tokens presented."},
	{sessionauth.MetricLogout, "sessionauth_logout_total", "Refresh slots revoked by logout."},
	{sessionauth.MetricInfrastructureFailure, "sessionauth_infrastructure_failure_total", "Operations failed by a backend outage."},
	{sessionauth.MetricValidateSuccess, "sessionauth_validate_success_total", "Access tokens accepted."},
	{sessionauth.MetricValidateFailure, "sessionauth_validate_failure_total", "Access tokens rejected."},
}

const latencyName = "sessionauth_validate_latency_seconds"

// boundSuffix names each cumulative bucket gauge; it follows
// sessionauth.HistogramBounds plus the unbounded tail.
var boundSuffix = [8]string{"0_005", "0_01", "0_025", "0_05", "0_1", "0_25", "0_5", "inf"}

func cumulative(raw []uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := range out {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}
