package translation

import (
	"strings"

	"codeberg.org/snonux/alpacatrans/internal/dataset"
)

const promptPlaceholder = "{json_data}"

const promptTemplate = `You are a professional translator specialized in translating chatbot training data (in JSON format) into Polish.

You will receive a JSON array of items. Each item is a JSON object with three keys: "instruction", "input", and "output". Your task is to translate all three fields into Polish while preserving the structure exactly.

⚠️ Translation guidelines:
- Be as close to the original English as possible while ensuring the Polish is natural and grammatically correct.
- Do not summarize, interpret meaning, or add context — just translate faithfully.
- Use consistent terminology and tone across all fields.
- Leave fields unchanged if they are empty (e.g., "input": "")
- Do not add, remove, or rename any keys.

📤 Output format:
Only return a valid JSON array with the translated content.
- No markdown
- No extra commentary
- No headings or explanations
- Ensure output array length matches input
- Keep the order of items the same

🧪 Example Input:
[
  { "instruction": "What is the capital of France?", "input": "", "output": "The capital of France is Paris." },
  { "instruction": "Identify the odd one out.", "input": "Twitter, Instagram, Telegram", "output": "Telegram" }
]

Example Output:
[
  { "instruction": "Jaka jest stolica Francji?", "input": "", "output": "Stolicą Francji jest Paryż." },
  { "instruction": "Zidentyfikuj element, który nie pasuje.", "input": "Twitter, Instagram, Telegram", "output": "Telegram" }
]

Your task:
Translate the following CONVERSATION into Polish:
{json_data}
`

// BuildPrompt renders the translation prompt for a batch of records
func BuildPrompt(batch []dataset.Record) (string, error) {
	data, err := dataset.EncodeBatch(batch)
	if err != nil {
		return "", err
	}
	return strings.Replace(promptTemplate, promptPlaceholder, data, 1), nil
}
