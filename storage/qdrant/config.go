package qdrant

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPort       = 6334
	DefaultCollection = "docqa_chunks"
)

// Config holds the Qdrant connection settings.
type Config struct {
	// URL of the gRPC endpoint, e.g. "localhost:6334" or "https://xyz.cloud.qdrant.io:6334".
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
	// Dimension is the vector size used when the collection is created.
	Dimension int `yaml:"dimension"`
}

// Validate checks the configuration is complete.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return errors.New("qdrant config: URL is required")
	}
	if _, _, _, err := parseURL(c.URL); err != nil {
		return err
	}
	if c.Collection == "" {
		return errors.New("qdrant config: Collection is required")
	}
	if c.Dimension < 1 {
		return errors.New("qdrant config: Dimension must be positive")
	}
	return nil
}

// parseURL splits a Qdrant URL into host, port and whether TLS is used.
// A scheme is optional; https enables TLS. The port defaults to DefaultPort.
func parseURL(raw string) (host string, port int, useTLS bool, err error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, false, fmt.Errorf("qdrant config: invalid URL: %w", err)
	}
	switch u.Scheme {
	case "http", "grpc":
	case "https", "grpcs":
		useTLS = true
	default:
		return "", 0, false, fmt.Errorf("qdrant config: unsupported scheme %q", u.Scheme)
	}

	host = u.Hostname()
	if host == "" {
		return "", 0, false, errors.New("qdrant config: URL has no host")
	}
	port = DefaultPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return "", 0, false, fmt.Errorf("qdrant config: invalid port %q", p)
		}
	}
	return host, port, useTLS, nil
}

// address formats host and port for logging.
func address(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
