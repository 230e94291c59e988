package ai

import "strings"

const (
	fallbackChoiceText        = "Continue"
	fallbackChoiceConsequence = "The story continues..."
)

// FallbackChoice is the neutral record used to pad short responses.
func FallbackChoice() GeneratedChoice {
	return GeneratedChoice{Text: fallbackChoiceText, Consequence: fallbackChoiceConsequence}
}

// parseChoiceRecords extracts CHOICE / CONSEQUENCE / TONE records from raw
// provider text. A record needs CHOICE and CONSEQUENCE; TONE is optional.
func parseChoiceRecords(content string) []GeneratedChoice {
	var (
		choices []GeneratedChoice
		cur     *GeneratedChoice
	)
	flush := func() {
		if cur != nil && cur.Text != "" && cur.Consequence != "" {
			choices = append(choices, *cur)
		}
		cur = nil
	}

	for _, raw := range strings.Split(content, "\n") {
		label, value, ok := splitRecordLine(raw)
		if !ok {
			continue
		}
		switch label {
		case "CHOICE":
			flush()
			cur = &GeneratedChoice{Text: value}
		case "CONSEQUENCE":
			if cur != nil {
				cur.Consequence = value
			}
		case "TONE":
			if cur != nil {
				cur.EmotionalTone = value
				flush()
			}
		}
	}
	flush()
	return choices
}

// splitRecordLine recognises "LABEL: value" lines, tolerating list markers
// and markdown emphasis around the label.
func splitRecordLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "-*#0123456789.) ")
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	label := strings.ToUpper(strings.Trim(line[:idx], "* "))
	switch label {
	case "CHOICE", "CONSEQUENCE", "TONE":
	default:
		return "", "", false
	}
	value := strings.TrimSpace(strings.Trim(strings.TrimSpace(line[idx+1:]), "*"))
	return label, strings.TrimSpace(value), true
}

// normalizeChoices pads with fallback records or truncates to n.
func normalizeChoices(choices []GeneratedChoice, n int) []GeneratedChoice {
	out := make([]GeneratedChoice, 0, n)
	for i := 0; i < len(choices) && i < n; i++ {
		out = append(out, choices[i])
	}
	for len(out) < n {
		out = append(out, FallbackChoice())
	}
	return out
}
