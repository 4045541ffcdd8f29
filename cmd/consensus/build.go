package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TrevorS/consensus"
)

type buildOptions struct {
	input          string
	config         string
	output         string
	cutoff         float64
	noAlign        bool
	ideal          bool
	workers        int
	atoms          []string
	representative string
}

type clusterReport struct {
	Root    int      `yaml:"root"`
	Members []string `yaml:"members"`
	Newick  string   `yaml:"newick"`
}

type buildReport struct {
	RunID        string                   `yaml:"run_id"`
	Score        float64                  `yaml:"score"`
	Trace        []float64                `yaml:"trace"`
	Newick       string                   `yaml:"newick"`
	Linkage      [][4]float64             `yaml:"linkage"`
	Clusters     []clusterReport          `yaml:"clusters"`
	Consensus    *consensus.Observation   `yaml:"consensus"`
	Observations []*consensus.Observation `yaml:"observations,omitempty"`
}

func newBuildCmd(root *rootOptions) *cobra.Command {
	opts := &buildOptions{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the consensus dendrogram and split it into clusters",
		Long: `Build reads observations, merges the closest pair until one consensus
remains, cuts the dendrogram at the cluster cutoff and writes a YAML report
with the merge trace, the dendrogram in Newick and linkage form, the
clusters and the global consensus. Unless --no-align is given, the
realigned input observations are included as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, root, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "observations file (YAML or JSON)")
	f.StringVarP(&opts.config, "config", "c", "", "config file (YAML)")
	f.StringVarP(&opts.output, "output", "o", "-", "report file, - for stdout")
	f.Float64Var(&opts.cutoff, "cutoff", 0.5, "cluster cutoff on consensus distance")
	f.BoolVar(&opts.noAlign, "no-align", false, "do not realign cluster members")
	f.BoolVar(&opts.ideal, "ideal", false, "search all leaf orderings for every superimposition")
	f.IntVar(&opts.workers, "workers", 0, "worker goroutines, 0 for one per CPU")
	f.StringSliceVar(&opts.atoms, "atoms", nil, "superimpose only atoms with these names")
	f.StringVar(&opts.representative, "representative", "", "reduce every leaf to the atom with this name")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// buildConfig layers flags that were set explicitly over the config file.
func buildConfig(cmd *cobra.Command, root *rootOptions, opts *buildOptions) (consensus.Config, error) {
	cfg := consensus.DefaultConfig()
	if opts.config != "" {
		var err error
		if cfg, err = consensus.LoadConfig(opts.config); err != nil {
			return consensus.Config{}, err
		}
	}

	f := cmd.Flags()
	if f.Changed("cutoff") {
		cfg.ClusterCutoff = opts.cutoff
	}
	if f.Changed("no-align") {
		cfg.AlignWithinClusters = !opts.noAlign
	}
	if f.Changed("ideal") {
		cfg.Ideal = opts.ideal
	}
	if f.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if f.Changed("atoms") {
		cfg.Atoms = opts.atoms
	}
	if f.Changed("representative") {
		cfg.Representative = opts.representative
	}
	cfg.Logger = root.logger(cmd)
	return cfg, nil
}

func runBuild(cmd *cobra.Command, root *rootOptions, opts *buildOptions) error {
	cfg, err := buildConfig(cmd, root, opts)
	if err != nil {
		return err
	}
	observations, err := readObservations(opts.input)
	if err != nil {
		return err
	}

	result, err := consensus.Run(cmd.Context(), observations, cfg)
	if err != nil {
		return err
	}

	d := result.Dendrogram
	report := buildReport{
		RunID:     result.RunID.String(),
		Score:     result.Score,
		Trace:     result.Trace,
		Newick:    d.Newick(d.Root()),
		Linkage:   d.Linkage(),
		Consensus: result.Consensus(),
	}
	for _, c := range result.Clusters {
		cr := clusterReport{Root: c.Root, Newick: d.Newick(c.Root)}
		for _, m := range c.Members {
			cr.Members = append(cr.Members, observations[m].Name)
		}
		report.Clusters = append(report.Clusters, cr)
	}
	if cfg.AlignWithinClusters {
		report.Observations = observations
	}

	w, closeOut, err := openOutput(opts.output, cmd.OutOrStdout())
	if err != nil {
		return fmt.Errorf("opening report: %w", err)
	}
	if err := writeYAML(w, report); err != nil {
		closeOut()
		return fmt.Errorf("writing report: %w", err)
	}
	return closeOut()
}
