package sender

import (
	"context"
	"errors"
	"io"
	"net"
	"regexp"
	"strconv"
	"syscall"

	tele "gopkg.in/telebot.v4"
)

// Failure kinds reported in logs and the send_failures metric.
const (
	KindTimeout = "timeout"
	KindNetwork = "network"
	KindFlood   = "flood"
	KindBlocked = "blocked"
	KindClient  = "http_4xx"
	KindServer  = "http_5xx"
	KindUnknown = "unknown"
)

var (
	tokenRe  = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
	statusRe = regexp.MustCompile(`\(([0-9]{3})\)\s*$`)
)

// Classify maps a send error to one of the Kind constants.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, io.ErrUnexpectedEOF) {
		return KindNetwork
	}
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return KindFlood
	}
	switch code := statusCode(err); {
	case code == 403:
		return KindBlocked
	case code == 429:
		return KindFlood
	case code >= 500:
		return KindServer
	case code >= 400:
		return KindClient
	}
	return KindUnknown
}

// Transient reports whether repeating the call may succeed.
func Transient(err error) bool {
	switch Classify(err) {
	case KindTimeout, KindNetwork, KindFlood, KindServer:
		return true
	}
	return false
}

// Redact returns the error text with bot tokens masked; they leak through request URLs.
func Redact(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}

func statusCode(err error) int {
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	if m := statusRe.FindStringSubmatch(err.Error()); m != nil {
		code, _ := strconv.Atoi(m[1])
		return code
	}
	return 0
}
