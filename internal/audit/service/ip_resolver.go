package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/sync/singleflight"
)

const (
	publicIPCacheTTL    = 5 * time.Minute
	maxLookupBodyLength = 64
)

// IPResolverConfig configures the public address lookup.
type IPResolverConfig struct {
	// LookupEnabled turns on the public lookup for private and loopback client addresses.
	LookupEnabled bool
	// LookupURL returns the caller's public address as plain text.
	LookupURL string
	// Timeout bounds how long Resolve waits for a lookup.
	Timeout time.Duration
}

type ipResolver struct {
	config IPResolverConfig
	client *http.Client
	group  singleflight.Group
	logger *slog.Logger

	mu        sync.Mutex
	cachedIP  string
	expiresAt time.Time
	now       func() time.Time
}

// NewIPResolver creates an IPResolver.
//
// Client addresses that are routable are returned as observed. Private, loopback and
// unparsable addresses mean the service sits behind infrastructure it does not trust
// for forwarding headers; for those the public address of the deployment is looked up
// once, shared between concurrent requests and cached.
func NewIPResolver(config IPResolverConfig, logger *slog.Logger) IPResolver {
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = config.Timeout

	return &ipResolver{
		config: config,
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

func (r *ipResolver) Resolve(ctx context.Context, clientIP string) string {
	if !r.config.LookupEnabled || isPublicAddress(clientIP) {
		return clientIP
	}

	if ip, ok := r.cached(); ok {
		return ip
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	ch := r.group.DoChan("public-ip", func() (any, error) {
		lookupCtx, lookupCancel := context.WithTimeout(context.Background(), r.config.Timeout)
		defer lookupCancel()
		return r.lookup(lookupCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			r.logger.Warn("public ip lookup failed, using local address",
				slog.String("client_ip", clientIP),
				slog.Any("error", res.Err))
			return clientIP
		}
		return res.Val.(string)
	case <-ctx.Done():
		r.logger.Warn("public ip lookup timed out, using local address",
			slog.String("client_ip", clientIP),
			slog.Duration("timeout", r.config.Timeout))
		return clientIP
	}
}

func (r *ipResolver) cached() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cachedIP != "" && r.now().Before(r.expiresAt) {
		return r.cachedIP, true
	}
	return "", false
}

func (r *ipResolver) lookup(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.config.LookupURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, r.config.LookupURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLookupBodyLength))
	if err != nil {
		return "", err
	}

	ip := strings.TrimSpace(string(body))
	if net.ParseIP(ip) == nil {
		return "", fmt.Errorf("lookup returned an invalid address %q", ip)
	}

	r.mu.Lock()
	r.cachedIP = ip
	r.expiresAt = r.now().Add(publicIPCacheTTL)
	r.mu.Unlock()

	return ip, nil
}

func isPublicAddress(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	return !ip.IsPrivate() && !ip.IsLoopback() && !ip.IsLinkLocalUnicast() && !ip.IsUnspecified()
}
