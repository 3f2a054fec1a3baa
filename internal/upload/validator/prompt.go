// Package validator builds AI data-quality prompts and interprets the
// model's replies.
package validator

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// MaxPromptRows caps how many preview rows are serialized into a prompt
const MaxPromptRows = 50

// SystemPrompt instructs the model to act as a data-quality analyst and
// reply with a single JSON object.
const SystemPrompt = `You are a data quality analyst. Analyze the spreadsheet data provided and respond with ONLY a valid JSON object, no other text.

The JSON object must have exactly this structure:
{
  "valid_rows": <number of rows with no issues>,
  "warning_rows": <number of rows with minor issues>,
  "error_rows": <number of rows with serious issues>,
  "issues": [
    {
      "row": <row number>,
      "column": "<column name>",
      "issue": "<description of the problem>",
      "severity": "<warning or error>"
    }
  ],
  "summary": "<one or two sentence overview of the data quality>",
  "suggestions": ["<actionable improvement>", ...],
  "severity": "<overall: low, medium, or high>"
}

Check for missing values, inconsistent formats, suspicious outliers, duplicate rows, and values that do not match their column's apparent type.`

// BuildPrompt serializes a sheet preview into the user prompt sent to the
// model. At most MaxPromptRows rows are included; the sheet name, total
// retained row count, and column list are always present.
func BuildPrompt(sheetName string, headers []string, rows [][]string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Sheet: %s\n", sheetName)
	fmt.Fprintf(&b, "Total rows: %d\n", len(rows))
	fmt.Fprintf(&b, "Columns: %s\n\n", strings.Join(headers, ", "))

	limit := len(rows)
	if limit > MaxPromptRows {
		limit = MaxPromptRows
	}
	if limit < len(rows) {
		fmt.Fprintf(&b, "First %d rows:\n", limit)
	} else {
		b.WriteString("Data:\n")
	}

	for i := 0; i < limit; i++ {
		pairs := make([]string, 0, len(headers))
		for j, h := range headers {
			val := ""
			if j < len(rows[i]) {
				val = rows[i][j]
			}
			pairs = append(pairs, fmt.Sprintf("%s: %s", h, val))
		}
		fmt.Fprintf(&b, "Row %d: {%s}\n", i+1, strings.Join(pairs, ", "))
	}

	return b.String()
}

// EstimateTokens reports the cl100k_base token count of a prompt, falling
// back to a bytes/4 heuristic if the encoding cannot be loaded.
func EstimateTokens(prompt string) int {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return len(prompt) / 4
	}
	return len(enc.Encode(prompt, nil, nil))
}
