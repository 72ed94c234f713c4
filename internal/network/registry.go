package network

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/GlebRadaev/cryptocheckout/internal/domain"
	"github.com/GlebRadaev/cryptocheckout/pkg/validate"
)

// Registry maps every enabled network to its static deposit address.
type Registry struct {
	addresses map[domain.Network]string
}

// NewRegistry fails when no network is enabled or an address does not match
// the format of its network.
func NewRegistry(wallets map[domain.Network]string) (*Registry, error) {
	if len(wallets) == 0 {
		return nil, errors.New("no deposit wallet configured")
	}
	addresses := make(map[domain.Network]string, len(wallets))
	for n, addr := range wallets {
		if !validate.IsDepositAddress(string(n), addr) {
			return nil, errors.Newf("invalid %s deposit address %q", n, addr)
		}
		addresses[n] = addr
	}
	return &Registry{addresses: addresses}, nil
}

func (r *Registry) Address(n domain.Network) (string, bool) {
	addr, ok := r.addresses[n]
	return addr, ok
}

func (r *Registry) Enabled() []domain.Network {
	networks := make([]domain.Network, 0, len(r.addresses))
	for n := range r.addresses {
		networks = append(networks, n)
	}
	sort.Slice(networks, func(i, j int) bool { return networks[i] < networks[j] })
	return networks
}
