// Package scenario contains the city and bounding-box stages of the map
// extraction pipeline: loading candidate cities from a CSV file, computing
// the extraction bounding box around each city, and writing the bounded
// set back out. Map conversion and simulation are external collaborators
// and intentionally not part of this package.
package scenario
