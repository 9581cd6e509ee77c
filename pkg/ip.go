package pkg

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
)

// checked in order, before falling back to the remote address
var clientIPHeaders = []string{"X-Real-Ip", "X-Forwarded-For"}

// IPIsLocal reports whether addr (with or without a port) is a loopback address
// or a docker bridge gateway (172.x.0.1).
func IPIsLocal(addr string) bool {
	ip := net.ParseIP(stripPort(addr))
	if ip == nil {
		return false
	}
	if ip.IsLoopback() {
		return true
	}
	ip4 := ip.To4()
	return ip4 != nil && ip4[0] == 172 && ip4[2] == 0 && ip4[3] == 1
}

// ReadUserIP returns the client IP used as the rate limiting key.
// Development traffic is collapsed into "localhost".
func ReadUserIP(r *http.Request) (string, error) {
	addr := r.RemoteAddr
	for _, header := range clientIPHeaders {
		if v := strings.TrimSpace(strings.Split(r.Header.Get(header), ",")[0]); v != "" {
			addr = v
			break
		}
	}

	if IPIsLocal(addr) {
		log.Debugf("read user IP: %s is local", addr)
		return "localhost", nil
	}

	host := stripPort(addr)
	if net.ParseIP(host) == nil {
		return "", fmt.Errorf("ip addr %s is invalid", addr)
	}
	return host, nil
}

func stripPort(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
