// Package dataset loads Alpaca-style instruction records and provides the
// JSON codecs used for prompts and for translated output lines.
package dataset
