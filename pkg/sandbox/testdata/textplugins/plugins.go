package textplugins

import (
	"context"
	"fmt"

	"example.com/helpers"
	"github.com/platinummonkey/plugkit/pkg/plugins"
)

// Shout upper-cases and adds an exclamation mark
//
//plugin:metadata description="Shouts the payload" order=0
type Shout struct{}

var _ plugins.Plugin = Shout{}

func (Shout) Name() string { return "Shout" }

func (Shout) Execute(_ context.Context, payload string) (string, error) {
	return helpers.Upper(payload) + "!", nil
}

// Reverse reverses its payload
//
//plugin:metadata description="Reverses text" order=2
type Reverse struct{}

var _ plugins.Plugin = (*Reverse)(nil)

func (p *Reverse) Name() string { return "Reverse" }

func (p *Reverse) Execute(_ context.Context, payload string) (string, error) {
	return helpers.Reverse(payload), nil
}

// Quiet has no metadata and sorts last
type Quiet struct{}

var _ plugins.Plugin = &Quiet{}

func (p *Quiet) Name() string { return "Quiet" }

func (p *Quiet) Execute(_ context.Context, payload string) (string, error) {
	return payload, nil
}

// Broken carries a malformed directive
//
//plugin:metadata description="Broken" order=first
type Broken struct{}

var _ plugins.Plugin = (*Broken)(nil)

func (p *Broken) Name() string { return "Broken" }

func (p *Broken) Execute(_ context.Context, payload string) (string, error) {
	return payload, nil
}

// Stringer implements a different interface
//
//plugin:metadata description="Not a plugin" order=1
type Stringer struct{}

var _ fmt.Stringer = (*Stringer)(nil)

func (s *Stringer) String() string { return "stringer" }

// Transformer is abstract
type Transformer interface {
	plugins.Plugin
	Transform(string) string
}

// Unasserted implements the contract without saying so
type Unasserted struct{}

func (p *Unasserted) Name() string { return "Unasserted" }

func (p *Unasserted) Execute(_ context.Context, payload string) (string, error) {
	return payload, nil
}
