package textplugins

import (
	"context"

	pk "github.com/platinummonkey/plugkit/pkg/plugins"
)

// Aliased is asserted through a renamed import
//
//plugin:metadata description="Imported under another name" order=1
type Aliased struct {
	Prefix string
}

var _ pk.Plugin = new(Aliased)

func (p *Aliased) Name() string { return "Aliased" }

func (p *Aliased) Execute(_ context.Context, payload string) (string, error) {
	return p.Prefix + payload, nil
}
