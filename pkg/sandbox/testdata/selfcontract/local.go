package plugins

import "context"

type Plugin interface {
	Name() string
	Execute(ctx context.Context, payload string) (string, error)
}

//plugin:metadata description="Declared next to the contract"
type Echo struct{}

var _ Plugin = (*Echo)(nil)

func (p *Echo) Name() string { return "Echo" }

func (p *Echo) Execute(_ context.Context, payload string) (string, error) {
	return payload, nil
}
