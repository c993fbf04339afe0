package plugins

import (
	"context"
	"math"
)

// ContractName is the fully qualified name of the Plugin interface
const ContractName = "github.com/platinummonkey/plugkit/pkg/plugins.Plugin"

// Unordered is the order of a declaration without metadata
const Unordered = math.MaxInt

// Plugin is the interface all plugins must implement
type Plugin interface {
	Name() string
	Execute(ctx context.Context, payload string) (string, error)
}

// AsyncPlugin is a plugin whose result arrives after Start returns.
// The channel must deliver exactly one Result.
type AsyncPlugin interface {
	Name() string
	Start(ctx context.Context, payload string) <-chan Result
}

// Result is the outcome of an asynchronous execution
type Result struct {
	Payload string
	Err     error
}

// Factory creates a fresh, default-constructed plugin instance
type Factory func() Plugin

// Metadata describes a plugin type. At most one per type.
type Metadata struct {
	Description string `yaml:"description" json:"description"`
	Order       int    `yaml:"order" json:"order"`
}

// TypeID identifies a plugin type by its owning module and name
type TypeID struct {
	Module string `json:"module"`
	Name   string `json:"name"`
}

func (id TypeID) String() string {
	if id.Module == "" {
		return id.Name
	}
	return id.Module + "." + id.Name
}

// Descriptor pairs a discovered plugin type with its optional metadata
type Descriptor struct {
	Type     TypeID
	Metadata *Metadata
	New      Factory
}

// Order returns the sort key of the descriptor
func (d Descriptor) Order() int {
	if d.Metadata == nil {
		return Unordered
	}
	return d.Metadata.Order
}

// Label returns the description, or the type name when there is none
func (d Descriptor) Label() string {
	if d.Metadata != nil && d.Metadata.Description != "" {
		return d.Metadata.Description
	}
	return d.Type.Name
}
