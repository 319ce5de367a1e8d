// Package sampler runs the periodic sensor sampling loop. Each cycle draws a
// batch of raw sub-readings, trims outliers, compensates the temperature for
// CPU heat soak and publishes the resulting Reading to the store and to the
// alert pipeline.
package sampler
