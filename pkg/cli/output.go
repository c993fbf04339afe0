package cli

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/platinummonkey/plugkit/pkg/plugins"
	"github.com/platinummonkey/plugkit/pkg/sandbox"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output
const (
	OutputText  = "text"
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// descriptorEntry is the encoded form of a discovered plugin. Unordered
// plugins carry no order.
type descriptorEntry struct {
	Type        string `json:"type" yaml:"type"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Order       *int   `json:"order,omitempty" yaml:"order,omitempty"`
}

func validateOutput(output string) error {
	switch output {
	case OutputText, OutputTable, OutputJSON, OutputYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format: %q (must be text, table, json, or yaml)", output)
	}
}

func encodeDescriptors(output string, descriptors []plugins.Descriptor) ([]byte, error) {
	var data []byte
	var err error
	switch output {
	case OutputText:
		data = encodeDescriptorsAsText(descriptors)
	case OutputTable:
		data = encodeDescriptorsAsTable(descriptors)
	case OutputJSON:
		data, err = encodeJSON(descriptorEntries(descriptors))
	case OutputYAML:
		data, err = yaml.Marshal(descriptorEntries(descriptors))
	default:
		err = validateOutput(output)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding plugins as %q failed: %w", output, err)
	}
	return data, nil
}

func descriptorEntries(descriptors []plugins.Descriptor) []descriptorEntry {
	entries := make([]descriptorEntry, len(descriptors))
	for i, d := range descriptors {
		entries[i] = descriptorEntry{
			Type: d.Type.String(),
			Name: d.Type.Name,
		}
		if d.Metadata != nil {
			order := d.Metadata.Order
			entries[i].Description = d.Metadata.Description
			entries[i].Order = &order
		}
	}
	return entries
}

// encodeDescriptorsAsText writes " - {order:02} :: {label}" per plugin.
// Unordered plugins show "--".
func encodeDescriptorsAsText(descriptors []plugins.Descriptor) []byte {
	var buf bytes.Buffer
	for _, d := range descriptors {
		order := "--"
		if d.Metadata != nil {
			order = fmt.Sprintf("%02d", d.Metadata.Order)
		}
		fmt.Fprintf(&buf, " - %s :: %s\n", order, d.Label())
	}
	return buf.Bytes()
}

func encodeDescriptorsAsTable(descriptors []plugins.Descriptor) []byte {
	var buf bytes.Buffer
	t := newTable(&buf)
	t.AppendHeader(table.Row{"Order", "Plugin", "Description"})
	for _, d := range descriptors {
		order := "-"
		if d.Metadata != nil {
			order = fmt.Sprintf("%d", d.Metadata.Order)
		}
		t.AppendRow(table.Row{order, d.Type.String(), d.Label()})
	}
	t.Render()
	return buf.Bytes()
}

func encodeSummaries(output string, summaries []sandbox.Summary) ([]byte, error) {
	var data []byte
	var err error
	switch output {
	case OutputText:
		data = encodeSummariesAsText(summaries)
	case OutputTable:
		data = encodeSummariesAsTable(summaries)
	case OutputJSON:
		data, err = encodeJSON(summaries)
	case OutputYAML:
		data, err = yaml.Marshal(summaries)
	default:
		err = validateOutput(output)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding plugin summaries as %q failed: %w", output, err)
	}
	return data, nil
}

// encodeSummariesAsText writes "{type} (Order: N, Description: D)" per type
func encodeSummariesAsText(summaries []sandbox.Summary) []byte {
	var buf bytes.Buffer
	for _, s := range summaries {
		if !s.HasMetadata {
			fmt.Fprintf(&buf, "%s (no metadata)\n", s.TypeName)
			continue
		}
		fmt.Fprintf(&buf, "%s (Order: %d, Description: %s)\n", s.TypeName, s.Order, s.Description)
	}
	return buf.Bytes()
}

func encodeSummariesAsTable(summaries []sandbox.Summary) []byte {
	var buf bytes.Buffer
	t := newTable(&buf)
	t.AppendHeader(table.Row{"Type", "Order", "Description"})
	for _, s := range summaries {
		order := "-"
		if s.HasMetadata {
			order = fmt.Sprintf("%d", s.Order)
		}
		t.AppendRow(table.Row{s.TypeName, order, s.Description})
	}
	t.Render()
	return buf.Bytes()
}

func newTable(buf *bytes.Buffer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(buf)
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	return t
}

func encodeJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
