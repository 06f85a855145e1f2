// Package translation provides English to Polish translation of Alpaca
// record batches through a chat-completion backend. It builds the prompt,
// cleans up the model response and retries once when the model returns
// text that is not valid JSON.
package translation
