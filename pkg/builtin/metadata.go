package builtin

import (
	"context"
	"fmt"
	"time"

	"github.com/platinummonkey/plugkit/pkg/plugins"
)

// TimestampLayout is the UTC layout of the appended timestamp
const TimestampLayout = "2006-01-02 15:04:05Z"

// MetadataPlugin appends the execution time to its payload
//
//plugin:metadata description="Appends execution metadata" order=1
type MetadataPlugin struct {
	// Now defaults to time.Now
	Now func() time.Time
}

var _ plugins.Plugin = (*MetadataPlugin)(nil)

func (p *MetadataPlugin) Name() string {
	return "Metadata"
}

func (p *MetadataPlugin) Execute(ctx context.Context, payload string) (string, error) {
	if ctx.Err() != nil {
		return "", plugins.Cancelled(ctx)
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	return fmt.Sprintf("%s [MetadataPlugin at %s]", payload, now().UTC().Format(TimestampLayout)), nil
}
