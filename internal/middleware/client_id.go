package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/yachtly/charter-service/internal/constants"
)

// ClientID names the caller for per-client SMS limits: the X-Client-Id
// header when present, otherwise the remote IP.
func ClientID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(constants.ClientIDHeader)); id != "" {
		return id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return constants.UnknownClientID
	}
	return host
}
