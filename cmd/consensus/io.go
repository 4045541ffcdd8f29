package main

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/TrevorS/consensus"
)

// inputFile is the on-disk form of a set of observations. JSON input is
// accepted as well, being a subset of YAML.
type inputFile struct {
	Observations []*consensus.Observation `yaml:"observations"`
}

func readObservations(path string) ([]*consensus.Observation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading observations: %w", err)
	}
	var in inputFile
	if err := yaml.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parsing observations in %s: %w", path, err)
	}
	if len(in.Observations) == 0 {
		return nil, fmt.Errorf("%s: no observations", path)
	}
	for i, o := range in.Observations {
		if o == nil {
			return nil, fmt.Errorf("%s: observation %d is empty", path, i)
		}
		if o.Name == "" {
			o.Name = fmt.Sprintf("obs%d", i)
		}
	}
	return in.Observations, nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// openOutput returns the writer for path, or fallback when path is empty
// or "-".
func openOutput(path string, fallback io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return fallback, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
