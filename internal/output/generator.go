// Package output writes the run report.
package output

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/fil-builders/onramp-configurator/internal/infra/filesystem"
)

type Generator struct {
	writer filesystem.Writer
}

func NewGenerator(writer filesystem.Writer) *Generator {
	return &Generator{writer: writer}
}

// Marshal renders the report as YAML.
func Marshal(report *Report) ([]byte, error) {
	data, err := yaml.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("could not marshal report. Err: '%w'", err)
	}
	return data, nil
}

// Generate writes the report to path. An empty path disables the report.
func (g *Generator) Generate(path string, report *Report) error {
	if path == "" {
		return nil
	}

	data, err := Marshal(report)
	if err != nil {
		return err
	}

	if err := g.writer.WriteBytes(path, data); err != nil {
		return fmt.Errorf("could not write report file. Err: '%w'", err)
	}

	return nil
}
