package builtin

import (
	"context"
	"strings"

	"github.com/platinummonkey/plugkit/pkg/plugins"
)

// UppercasePlugin upper-cases its payload
//
//plugin:metadata description="Transforms text to uppercase" order=0
type UppercasePlugin struct{}

var _ plugins.Plugin = (*UppercasePlugin)(nil)

func (p *UppercasePlugin) Name() string {
	return "Uppercase"
}

func (p *UppercasePlugin) Execute(ctx context.Context, payload string) (string, error) {
	if ctx.Err() != nil {
		return "", plugins.Cancelled(ctx)
	}
	return strings.ToUpper(payload), nil
}
