// Package privacy scrubs credentials, URLs and coordinates from messages
// before they reach logs or telemetry.
package privacy

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	urlPattern = regexp.MustCompile(`\bhttps?://\S+`)

	// Telegram bot tokens: "<bot id>:<35 char secret>"
	botTokenPattern = regexp.MustCompile(`\b\d{6,}:[A-Za-z0-9_-]{30,}\b`)

	// "lat,lon" pairs with at least three decimals, as returned by IP geolocation
	coordinatePattern = regexp.MustCompile(`-?\d{1,3}\.\d{3,},\s*-?\d{1,3}\.\d{3,}`)

	ipv4Pattern = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)
)

// ScrubMessage anonymizes URLs, bot tokens and coordinates in message.
func ScrubMessage(message string) string {
	message = botTokenPattern.ReplaceAllString(message, "[BOT_TOKEN]")
	message = urlPattern.ReplaceAllStringFunc(message, AnonymizeURL)
	return ScrubCoordinates(message)
}

// ScrubSecret replaces every occurrence of secret in message. Used for
// errors from clients that embed a credential in the request URL.
func ScrubSecret(message, secret string) string {
	if secret == "" {
		return message
	}
	return strings.ReplaceAll(message, secret, "[REDACTED]")
}

// ScrubCoordinates reduces "lat,lon" pairs to one decimal place.
func ScrubCoordinates(message string) string {
	return coordinatePattern.ReplaceAllStringFunc(message, func(pair string) string {
		lat, lon, ok := strings.Cut(pair, ",")
		if !ok {
			return pair
		}
		return truncateDecimal(strings.TrimSpace(lat)) + "," + truncateDecimal(strings.TrimSpace(lon))
	})
}

func truncateDecimal(s string) string {
	whole, frac, ok := strings.Cut(s, ".")
	if !ok || frac == "" {
		return s
	}
	return whole + "." + frac[:1]
}

// AnonymizeURL converts a URL into a stable hash that keeps the scheme,
// host class and path shape but drops credentials, names and query.
func AnonymizeURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		hash := sha256.Sum256([]byte(rawURL))
		return fmt.Sprintf("url-hash-%x", hash[:8])
	}

	var parts []string
	if parsed.Scheme != "" {
		parts = append(parts, parsed.Scheme)
	}
	if host := parsed.Hostname(); host != "" {
		parts = append(parts, categorizeHost(host))
	}
	if parsed.Port() != "" {
		parts = append(parts, "port-"+parsed.Port())
	}
	if parsed.Path != "" && parsed.Path != "/" {
		parts = append(parts, anonymizePath(parsed.Path))
	}

	hash := sha256.Sum256([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("url-%x", hash[:12])
}

// SanitizeURL strips user info and query string, keeping a URL readable
// for log lines such as the uploaded image location.
func SanitizeURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	parsed.User = nil
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String()
}

func categorizeHost(host string) string {
	switch {
	case host == "localhost" || host == "127.0.0.1" || host == "::1":
		return "localhost"
	case isPrivateIP(host):
		return "private-ip"
	case isIPAddress(host):
		return "public-ip"
	}
	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		return "domain-" + parts[len(parts)-1]
	}
	return "unknown-host"
}

func anonymizePath(path string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return "root"
	}
	segments := strings.Split(path, "/")
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		if isNumeric(segment) {
			out = append(out, "numeric")
			continue
		}
		hash := sha256.Sum256([]byte(segment))
		out = append(out, fmt.Sprintf("seg-%x", hash[:4]))
	}
	return strings.Join(out, "/")
}

func isPrivateIP(host string) bool {
	host = strings.ToLower(host)
	if strings.HasPrefix(host, "172.") {
		var second int
		if _, err := fmt.Sscanf(host, "172.%d.", &second); err == nil {
			return second >= 16 && second <= 31
		}
	}
	for _, prefix := range []string{"10.", "192.168.", "169.254.", "fc00:", "fd00:", "fe80:"} {
		if strings.HasPrefix(host, prefix) {
			return true
		}
	}
	return false
}

func isIPAddress(host string) bool {
	return ipv4Pattern.MatchString(host) || strings.Contains(host, ":")
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
