// Package kmeans implements Lloyd's algorithm over a numeric dataset.
//
// Each step is a plain function from the dataset and the previous state to a
// new state: Assign maps rows to their nearest centroid, UpdateCentroids
// averages the members of every cluster and Movement measures how far the
// centroids travelled. Clusterer drives the steps until the movement falls to
// the configured epsilon or the iteration cap is reached.
//
// Ties between equidistant centroids always go to the lowest centroid index,
// and empty clusters are resolved by an EmptyClusterPolicy instead of dividing
// by zero, so a run is fully determined by its dataset, configuration and seed.
package kmeans
