package chaintest

import (
	"context"
	"fmt"
	"sync"

	"github.com/fil-builders/onramp-configurator/internal/chain"
	"github.com/fil-builders/onramp-configurator/internal/domain"
)

// Dialer hands out fake chains by chain name and enforces the declared chain id
// the way chain.EthDialer does.
type Dialer struct {
	mu     sync.Mutex
	chains map[string]*Chain
	dialed map[string]int
}

func NewDialer() *Dialer {
	return &Dialer{
		chains: make(map[string]*Chain),
		dialed: make(map[string]int),
	}
}

// Add registers a fake chain under name and returns it.
func (d *Dialer) Add(name string, c *Chain) *Chain {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.chains[name] = c
	return c
}

func (d *Dialer) Dialed(name string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dialed[name]
}

func (d *Dialer) Dial(_ context.Context, descriptor domain.ChainDescriptor) (chain.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.chains[descriptor.Name]
	if !ok {
		return nil, fmt.Errorf("failed to connect to %s: no fake chain", descriptor.Name)
	}
	d.dialed[descriptor.Name]++

	if c.id != descriptor.ChainID {
		return nil, domain.NewConfigurationError("node at %s reports chain id %d, but %s is declared as %d",
			descriptor.RPCEndpoint, c.id, descriptor.Name, descriptor.ChainID)
	}

	return c, nil
}
