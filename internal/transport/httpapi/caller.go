package httpapi

import (
	"net"
	"net/http"
	"strings"

	signoffuc "stagegate/internal/usecase/signoff"
)

// actorHeader carries the authenticated actor id, injected by the fronting
// gateway. The engines only ever see the value as part of the caller context.
const actorHeader = "X-Actor-ID"

func callerFromRequest(r *http.Request) signoffuc.Caller {
	return signoffuc.Caller{
		RequestorID: strings.TrimSpace(r.Header.Get(actorHeader)),
		SourceIP:    sourceIP(r),
	}
}

// sourceIP prefers the first X-Forwarded-For entry so the recorded address is
// the client's, not the reverse proxy's. Falls back to the socket address.
func sourceIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
