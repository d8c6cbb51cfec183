package classify

import (
	"regexp"
	"strings"
)

var (
	jobTitleRe = regexp.MustCompile(`(?i)\b(?:senior|junior|lead|principal)?\s*(?:software engineer|backend engineer|frontend engineer|developer|manager|designer|analyst|consultant)\b`)
	workModeRe = regexp.MustCompile(`(?i)\b(remote|hybrid|on-?site)\b`)
	skillRe    = regexp.MustCompile(`(?i)\b(go|golang|python|java|typescript|javascript|react|kubernetes|sql|docker)\b`)
)

// ExtractEntities pulls coarse structured entities out of free text. It is
// the entity source for the phrase-matching path, where no model output is
// available.
func ExtractEntities(message string) map[string]any {
	entities := map[string]any{}

	if titles := jobTitleRe.FindAllString(message, -1); len(titles) > 0 {
		cleaned := make([]string, 0, len(titles))
		for _, t := range titles {
			cleaned = append(cleaned, strings.TrimSpace(t))
		}
		entities["jobTitles"] = cleaned
	}
	if mode := workModeRe.FindString(message); mode != "" {
		entities["workMode"] = strings.ToLower(mode)
	}
	if skills := skillRe.FindAllString(message, -1); len(skills) > 0 {
		lowered := make([]string, 0, len(skills))
		for _, s := range skills {
			lowered = append(lowered, strings.ToLower(s))
		}
		entities["skills"] = lowered
	}
	return entities
}
