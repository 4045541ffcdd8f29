package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TrevorS/consensus"
)

type superimposeOptions struct {
	input          string
	reference      string
	candidate      string
	ideal          bool
	atoms          []string
	representative string
}

type superimposeReport struct {
	Reference   string        `yaml:"reference"`
	Candidate   string        `yaml:"candidate"`
	RMSD        float64       `yaml:"rmsd"`
	Atoms       int           `yaml:"atoms"`
	Rotation    [3][3]float64 `yaml:"rotation,flow"`
	Translation [3]float64    `yaml:"translation,flow"`
	Permutation []int         `yaml:"permutation,omitempty,flow"`
}

func newSuperimposeCmd() *cobra.Command {
	opts := &superimposeOptions{}
	cmd := &cobra.Command{
		Use:   "superimpose",
		Short: "Superimpose one observation onto another and report the RMSD",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuperimpose(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "observations file (YAML or JSON)")
	f.StringVar(&opts.reference, "reference", "", "name of the reference observation (default: first)")
	f.StringVar(&opts.candidate, "candidate", "", "name of the candidate observation (default: second)")
	f.BoolVar(&opts.ideal, "ideal", false, "search all leaf orderings of the candidate")
	f.StringSliceVar(&opts.atoms, "atoms", nil, "superimpose only atoms with these names")
	f.StringVar(&opts.representative, "representative", "", "reduce every leaf to the atom with this name")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func findObservation(observations []*consensus.Observation, name string, fallback int) (*consensus.Observation, error) {
	if name == "" {
		if fallback >= len(observations) {
			return nil, fmt.Errorf("need at least %d observations, have %d", fallback+1, len(observations))
		}
		return observations[fallback], nil
	}
	for _, o := range observations {
		if o.Name == name {
			return o, nil
		}
	}
	return nil, fmt.Errorf("no observation named %q", name)
}

func runSuperimpose(cmd *cobra.Command, opts *superimposeOptions) error {
	observations, err := readObservations(opts.input)
	if err != nil {
		return err
	}
	ref, err := findObservation(observations, opts.reference, 0)
	if err != nil {
		return err
	}
	cand, err := findObservation(observations, opts.candidate, 1)
	if err != nil {
		return err
	}

	s := consensus.Superimposer{Ideal: opts.ideal}
	if len(opts.atoms) > 0 {
		s.Filter = consensus.AtomNames(opts.atoms...)
	}
	if opts.representative != "" {
		s.Scheme = consensus.RepresentativeAtom(opts.representative)
	}
	sup, err := s.Superimpose(cmd.Context(), ref, cand)
	if err != nil {
		return err
	}

	r := sup.Transform.Rotation
	t := sup.Transform.Translation
	return writeYAML(cmd.OutOrStdout(), superimposeReport{
		Reference:   ref.Name,
		Candidate:   cand.Name,
		RMSD:        sup.RMSD,
		Atoms:       len(sup.Pairs),
		Rotation:    [3][3]float64{{r[0], r[1], r[2]}, {r[3], r[4], r[5]}, {r[6], r[7], r[8]}},
		Translation: [3]float64{t.X, t.Y, t.Z},
		Permutation: sup.Permutation,
	})
}
