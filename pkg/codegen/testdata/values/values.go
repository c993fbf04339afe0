package values

import (
	"context"

	"github.com/platinummonkey/plugkit/pkg/plugins"
)

// Quote wraps its payload in quotes
//
//plugin:metadata description="Wraps text in \"quotes\"" order=3
type Quote struct{}

var _ plugins.Plugin = Quote{}

func (Quote) Name() string { return "Quote" }

func (Quote) Execute(_ context.Context, payload string) (string, error) {
	return `"` + payload + `"`, nil
}

type Plain struct{}

var _ plugins.Plugin = new(Plain)

func (p *Plain) Name() string { return "Plain" }

func (p *Plain) Execute(_ context.Context, payload string) (string, error) {
	return payload, nil
}
