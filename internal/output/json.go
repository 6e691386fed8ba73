package output

import (
	"encoding/json"
	"io"

	"github.com/bgricker/eggstep/internal/install"
	"github.com/bgricker/eggstep/internal/report"
)

// JSONRenderer emits structured results.
type JSONRenderer struct {
	out io.Writer
}

// NewJSON creates a JSON renderer writing to out.
func NewJSON(out io.Writer) *JSONRenderer {
	return &JSONRenderer{out: out}
}

// Report captures the JSON output schema.
type Report struct {
	BuildID string          `json:"build_id"`
	Records []report.Record `json:"records"`
	Summary report.Summary  `json:"summary"`
}

// Render encodes the report as JSON.
func (j *JSONRenderer) Render(r Report) error {
	if r.Records == nil {
		r.Records = []report.Record{}
	}
	return j.encode(r)
}

// RenderInstallations encodes the registry as JSON.
func (j *JSONRenderer) RenderInstallations(reg install.Registry) error {
	if reg == nil {
		reg = install.Registry{}
	}
	return j.encode(reg)
}

func (j *JSONRenderer) encode(v any) error {
	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
