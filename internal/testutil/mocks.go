package testutil

import (
	"context"
	"encoding/json"
	"fmt"

	"codeberg.org/snonux/alpacatrans/internal/dataset"
)

// MockBackend replays scripted model replies
type MockBackend struct {
	// Responses are returned in order, one per call
	Responses []string
	// Default is returned once Responses is exhausted
	Default string
	// Errors maps a 1-based call number to a transport error
	Errors map[int]error
	Calls  []string
}

// Complete mocks a chat completion request
func (m *MockBackend) Complete(ctx context.Context, prompt string) (string, error) {
	m.Calls = append(m.Calls, prompt)
	call := len(m.Calls)

	if err, ok := m.Errors[call]; ok {
		return "", err
	}

	if call <= len(m.Responses) {
		return m.Responses[call-1], nil
	}

	return m.Default, nil
}

// Name returns the mock provider name
func (m *MockBackend) Name() string {
	return "mock"
}

// MockTranslator mocks the batch translation client
type MockTranslator struct {
	// Func produces the result for a batch; ReverseTranslate when nil
	Func  func(batch []dataset.Record) ([]json.RawMessage, error)
	Calls [][]dataset.Record
}

// Translate records the batch and delegates to Func
func (m *MockTranslator) Translate(ctx context.Context, batch []dataset.Record) ([]json.RawMessage, error) {
	copied := make([]dataset.Record, len(batch))
	copy(copied, batch)
	m.Calls = append(m.Calls, copied)

	if m.Func != nil {
		return m.Func(batch)
	}
	return ReverseTranslate(batch)
}

// ReverseTranslate stands in for a real translation by reversing every
// field value
func ReverseTranslate(batch []dataset.Record) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(batch))
	for _, rec := range batch {
		reversed := dataset.Record{
			Instruction: Reverse(rec.Instruction),
			Input:       Reverse(rec.Input),
			Output:      Reverse(rec.Output),
		}
		raw, err := json.Marshal(reversed)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

// Reverse reverses s rune by rune
func Reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

// TestDataGenerator generates test data
type TestDataGenerator struct{}

// GenerateRecords generates n distinct source records
func (g *TestDataGenerator) GenerateRecords(n int) []dataset.Record {
	records := make([]dataset.Record, n)
	for i := range records {
		records[i] = dataset.Record{
			Instruction: fmt.Sprintf("Instruction %d", i+1),
			Input:       "",
			Output:      fmt.Sprintf("Output %d", i+1),
		}
		if i%3 == 1 {
			records[i].Input = fmt.Sprintf("Input %d", i+1)
		}
	}
	return records
}
