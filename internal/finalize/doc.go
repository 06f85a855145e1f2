// Package finalize turns a translation sink into the final dataset file:
// one line per index in ascending order, without the index field.
package finalize
