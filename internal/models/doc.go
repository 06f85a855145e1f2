// Package models lists the models an OpenAI-compatible backend serves, so
// users can pick a value for --model.
package models
