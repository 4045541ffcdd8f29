// Package consensus builds a consensus three-dimensional structure from a
// set of spatially corresponding observations.
//
// Each observation is an ordered, fixed-length sequence of leaf groups, and
// each leaf group holds named points (for example the atoms of one residue).
// The builder repeatedly superimposes the closest pair of active
// observations, averages them into a consensus observation and records the
// merge in a binary dendrogram. The finished dendrogram is then cut into
// clusters, and members of each cluster can be realigned onto their
// cluster's consensus.
//
// Basic usage:
//
//	cfg := consensus.DefaultConfig()
//	cfg.ClusterCutoff = 0.8
//	result, err := consensus.Run(ctx, observations, cfg)
//	// result.Dendrogram.Root() is the global consensus node
//	// result.Trace[i] is the RMSD of the i-th merge
//	// result.Clusters partition the input observations
//
// # Superimposition
//
// Pairs are superimposed with the Kabsch algorithm: both point sets are
// centered, the cross-covariance matrix is decomposed by SVD and a proper
// rotation is recovered. Point correspondence is established per leaf by
// atom name, optionally restricted by an AtomFilter or reduced to a single
// representative point per leaf by a RepresentationScheme.
//
// When leaf order within the candidate is not fixed, Config.Ideal enables
// an exhaustive permutation search over candidate leaf orderings. The
// search is O(L!) and is intended for small motifs only.
package consensus
