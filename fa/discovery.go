package fa

import (
	"context"

	"github.com/brutella/dnssd"
	"github.com/charmbracelet/log"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Announce the archiver's PV-serving port via DNS-SD, so a
 *		reader tool on the local network can find it without a
 *		hardcoded address. Uses the pure-Go brutella/dnssd package
 *		for cross-platform mDNS/DNS-SD announcement, the same
 *		library and pattern the teacher uses for its own TCP
 *		service announcement.
 *
 *------------------------------------------------------------------*/

// ServiceType is the DNS-SD service type under which the archiver's
// PV-serving port is announced.
const ServiceType = "_fa-archiver._tcp"

// Announce registers name (falling back to the host name if empty) as an
// mDNS/DNS-SD service on port, and responds to queries until ctx is
// cancelled. It returns once the service is registered; the responder
// runs in a background goroutine.
func Announce(ctx context.Context, name string, port int) error {
	cfg := dnssd.Config{
		Name: name,
		Type: ServiceType,
		Port: port,
	}
	svc, err := dnssd.NewService(cfg)
	if err != nil {
		return err
	}
	responder, err := dnssd.NewResponder()
	if err != nil {
		return err
	}
	if _, err := responder.Add(svc); err != nil {
		return err
	}

	logger := log.With("component", "discovery")
	logger.Info("announcing archive service", "port", port, "name", name)
	go func() {
		if err := responder.Respond(ctx); err != nil {
			logger.Error("responder stopped", "err", err)
		}
	}()
	return nil
}
