// Package processor drives translation runs. Run translates the dataset
// in batches, resuming after the last record already in the output file;
// Recover re-translates single records that are missing from the output
// or were written broken.
package processor
