package ai

import (
	"fmt"
	"sort"
	"strings"
)

const storytellerSystemPrompt = "You are a creative storyteller specializing in interactive fiction."

func buildStoryPrompt(req StoryRequest) string {
	var b strings.Builder
	b.WriteString("You are a masterful storyteller creating an interactive fiction experience.\n\n")
	b.WriteString("Generate an engaging story chapter with these specifications:\n\n")
	fmt.Fprintf(&b, "Genre: %s\n", req.Genre)
	if req.Theme != nil {
		fmt.Fprintf(&b, "Theme: %s\n", *req.Theme)
	}
	if req.Tone != nil {
		fmt.Fprintf(&b, "Tone: %s\n", *req.Tone)
	}
	if req.TargetLength != nil {
		fmt.Fprintf(&b, "Target length: approximately %d words\n", *req.TargetLength)
	}
	if len(req.Context) > 0 {
		b.WriteString("\nStory context and previous events:\n")
		writeContext(&b, req.Context)
	}
	b.WriteString("\nWrite a vivid, immersive chapter that:\n")
	b.WriteString("- Engages the reader with rich descriptions\n")
	b.WriteString("- Advances the plot naturally\n")
	b.WriteString("- Creates tension and anticipation\n")
	b.WriteString("- Leaves room for meaningful player choices\n\n")
	b.WriteString("Begin the chapter:")
	return b.String()
}

func buildChoicesPrompt(req ChoicesRequest) string {
	var b strings.Builder
	b.WriteString("You are creating choices for an interactive story.\n\n")
	b.WriteString("Current situation:\n")
	b.WriteString(req.CurrentSituation)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Generate %d distinct, meaningful choices for the player.\n\n", req.count())
	if req.DifficultyLevel != nil {
		fmt.Fprintf(&b, "Difficulty level: %s\n", *req.DifficultyLevel)
	}
	if len(req.Context) > 0 {
		b.WriteString("\nStory context:\n")
		writeContext(&b, req.Context)
	}
	b.WriteString("\nFormat each choice exactly as follows:\n")
	b.WriteString("CHOICE: [Clear, action-oriented choice text]\n")
	b.WriteString("CONSEQUENCE: [Brief hint about potential outcome]\n")
	b.WriteString("TONE: [Emotional tone: brave/cautious/clever/aggressive/diplomatic]\n\n")
	b.WriteString("Make each choice:\n")
	b.WriteString("- Distinct and meaningful\n")
	b.WriteString("- Lead to different story paths\n")
	b.WriteString("- Reflect different character traits or strategies\n")
	b.WriteString("- Feel natural to the situation\n\n")
	b.WriteString("Generate the choices now:")
	return b.String()
}

// writeContext renders context entries as "- key: value" lines in key order.
func writeContext(b *strings.Builder, ctx map[string]any) {
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "- %s: %v\n", k, ctx[k])
	}
}
