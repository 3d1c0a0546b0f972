package views

import (
	"cmp"
	"context"
	"fmt"
	"net/netip"
	"slices"
	"sync"
	"time"

	"github.com/haukened/rr-dash/internal/dash/common/log"
	"github.com/haukened/rr-dash/internal/dash/domain"
)

const topDomainCount = 5

// DomainCount is one entry of a client's most queried domains.
type DomainCount struct {
	Domain string
	Count  int64
}

// ClientCard is the rendered summary of one client.
type ClientCard struct {
	IP         string
	Name       string
	LastSeen   time.Time
	Queries    int64
	Blocked    int64
	TopDomains []DomainCount
}

// ClientsView lists the clients known to the resolver.
type ClientsView struct {
	api    API
	logger log.Logger

	mu    sync.Mutex
	cards []ClientCard
}

// NewClientsView creates a ClientsView.
func NewClientsView(api API, logger log.Logger) *ClientsView {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &ClientsView{api: api, logger: logger}
}

// Refresh fetches the client list. An empty success body means no clients;
// on failure the previous cards are kept.
func (v *ClientsView) Refresh(ctx context.Context) error {
	out := v.api.Get(ctx, "clients", domain.RequestOptions{})
	if !out.OK() {
		return failed("clients", out)
	}
	var list domain.ClientList
	if out.Payload != nil {
		if err := out.Decode(&list); err != nil {
			return fmt.Errorf(errDecodeFailed, "clients", err)
		}
	}

	byIP := make(map[string]ClientCard, len(list.Clients))
	for _, c := range list.Clients {
		if c.IP == "" {
			continue
		}
		byIP[c.IP] = newClientCard(c)
	}
	cards := make([]ClientCard, 0, len(byIP))
	for _, c := range byIP {
		cards = append(cards, c)
	}
	slices.SortFunc(cards, func(a, b ClientCard) int { return compareIP(a.IP, b.IP) })

	v.mu.Lock()
	v.cards = cards
	v.mu.Unlock()
	v.logger.Debug(map[string]any{"count": len(cards)}, "Clients refreshed")
	return nil
}

// Cards returns one card per client IP, ordered by address.
func (v *ClientsView) Cards() []ClientCard {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.cards)
}

func newClientCard(c domain.Client) ClientCard {
	top := make([]DomainCount, 0, len(c.AllDomains))
	for d, n := range c.AllDomains {
		top = append(top, DomainCount{Domain: d, Count: n})
	}
	slices.SortFunc(top, func(a, b DomainCount) int {
		if a.Count != b.Count {
			return cmp.Compare(b.Count, a.Count)
		}
		return cmp.Compare(a.Domain, b.Domain)
	})
	if len(top) > topDomainCount {
		top = top[:topDomainCount]
	}
	return ClientCard{
		IP:         c.IP,
		Name:       c.Name,
		LastSeen:   c.LastSeen,
		Queries:    c.Queries,
		Blocked:    c.Blocked,
		TopDomains: top,
	}
}

// compareIP orders parseable addresses numerically and everything else
// lexically after them.
func compareIP(a, b string) int {
	pa, errA := netip.ParseAddr(a)
	pb, errB := netip.ParseAddr(b)
	switch {
	case errA == nil && errB == nil:
		return pa.Compare(pb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return cmp.Compare(a, b)
	}
}
