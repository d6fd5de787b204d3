// Package discovery announces the monitor's HTTP status server on the
// local network over mDNS, so field tablets find pods without static IPs.
package discovery

import (
	"fmt"
	"os"
	"sync"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType identifies farm-monitor pods in mDNS browsing.
	ServiceType = "_farmmon._tcp"

	// ServiceDomain is the mDNS domain.
	ServiceDomain = "local."
)

// Service registers the monitor with mDNS for the lifetime of the daemon.
type Service struct {
	mu       sync.Mutex
	server   *zeroconf.Server
	instance string
	port     int
	session  string
	running  bool
}

// New creates a service announcing the given HTTP port. The instance name
// is derived from the hostname so multiple pods stay distinguishable.
func New(port int, session string) *Service {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "farm-monitor"
	}
	return &Service{
		instance: fmt.Sprintf("%s-farm-monitor", hostname),
		port:     port,
		session:  session,
	}
}

// Start registers the mDNS service. Calling Start on a running service is
// a no-op.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	server, err := zeroconf.Register(
		s.instance,
		ServiceType,
		ServiceDomain,
		s.port,
		[]string{
			"version=1.0",
			fmt.Sprintf("session=%s", s.session),
			fmt.Sprintf("http=%d", s.port),
		},
		nil,
	)
	if err != nil {
		return fmt.Errorf("register mdns service: %w", err)
	}

	s.server = server
	s.running = true
	return nil
}

// Shutdown withdraws the mDNS registration.
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.server.Shutdown()
	s.server = nil
	s.running = false
}

// Instance returns the announced instance name.
func (s *Service) Instance() string {
	return s.instance
}

// IsRunning reports whether the service is registered.
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
