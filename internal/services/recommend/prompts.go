package recommend

import (
	"fmt"
	"strings"
)

// NoMatchMessage is the sole recommendation when no supplement matches.
const NoMatchMessage = "No suitable supplements found."

const promptTemplate = "Recommend supplements for these goals: %s. " +
	"The current recommendations are: %s. " +
	"Depth level: %s. " +
	"Generate more specific recommendations based on the depth level and ask questions as needed."

// BuildPrompt renders the language model prompt for a request.
func BuildPrompt(goals, recommendations []string, depth Depth) string {
	return fmt.Sprintf(promptTemplate, strings.Join(goals, ", "), strings.Join(recommendations, ", "), depth)
}
