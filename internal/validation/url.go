// Package validation checks user supplied URLs and file paths before
// they reach the network or the filesystem.
package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// RemoteURLValidator validates the API base URL and image URLs.
type RemoteURLValidator struct {
	// AllowLocalhost determines if localhost URLs are permitted
	AllowLocalhost bool
	// AllowPrivateIPs determines if private IP addresses are permitted
	AllowPrivateIPs bool
	// MaxLength is the maximum allowed URL length
	MaxLength int
}

// NewRemoteURLValidator creates a validator that blocks local and
// private hosts.
func NewRemoteURLValidator() *RemoteURLValidator {
	return &RemoteURLValidator{MaxLength: 2048}
}

// NewPermissiveRemoteURLValidator allows local development servers.
func NewPermissiveRemoteURLValidator() *RemoteURLValidator {
	return &RemoteURLValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		MaxLength:       2048,
	}
}

// ValidateAndNormalize validates input and returns it parsed. A missing
// scheme defaults to https.
func (v *RemoteURLValidator) ValidateAndNormalize(input string) (*url.URL, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return nil, fmt.Errorf("URL cannot be empty")
	}
	if len(input) > v.MaxLength {
		return nil, fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}
	if strings.ContainsAny(input, "<>\"'` ") {
		return nil, fmt.Errorf("URL contains invalid characters")
	}

	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	parsedURL, err := url.Parse(input)
	if err != nil {
		return nil, fmt.Errorf("invalid URL format: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("URL must use http or https protocol")
	}
	if parsedURL.Hostname() == "" {
		return nil, fmt.Errorf("URL must have a valid hostname")
	}
	if err := v.validateHost(parsedURL.Hostname()); err != nil {
		return nil, err
	}
	if strings.Contains(parsedURL.Path, "..") {
		return nil, fmt.Errorf("directory traversal patterns not allowed in URL path")
	}

	return parsedURL, nil
}

func (v *RemoteURLValidator) validateHost(hostname string) error {
	if !v.AllowLocalhost && isLocalhost(hostname) {
		return fmt.Errorf("localhost URLs are not permitted")
	}
	if ip := net.ParseIP(hostname); ip != nil {
		if ip.IsUnspecified() || ip.Equal(net.IPv4bcast) {
			return fmt.Errorf("unroutable IP address %s", hostname)
		}
		if !v.AllowPrivateIPs && isPrivateIP(ip) {
			return fmt.Errorf("private IP addresses are not permitted")
		}
	}
	return nil
}

func isLocalhost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	return hostname == "localhost" ||
		strings.HasSuffix(hostname, ".localhost") ||
		net.ParseIP(hostname).IsLoopback()
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast()
}
