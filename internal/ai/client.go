package ai

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dosewatch/dosewatch/internal/adherence"
	"github.com/sashabaranov/go-openai"
)

// Client generates adherence improvement suggestions from precomputed
// adherence patterns. When no API key is configured, or the model call
// fails, it falls back to deterministic rule-based suggestions so the
// insight surface always has content.
type Client struct {
	client *openai.Client
	model  string
}

func New(apiKey, baseURL, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (c *Client) SetModel(model string) {
	c.model = model
}

// Suggestion is one actionable adherence tip.
type Suggestion struct {
	Text     string `json:"text"`
	Type     string `json:"type"` // "ai-generated" or "rule-based"
	Priority string `json:"priority,omitempty"`
}

// Suggestions asks the model for exactly three numbered tips derived from
// the adherence patterns. A nil client or any model failure degrades to the
// rule-based fallback; the caller never sees an error for that.
func (c *Client) Suggestions(ctx context.Context, patterns adherence.Patterns) []Suggestion {
	if c == nil || c.client == nil {
		return FallbackSuggestions(patterns)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(patterns)},
		},
	})
	if err != nil || len(resp.Choices) == 0 {
		return FallbackSuggestions(patterns)
	}

	suggestions := parseSuggestions(resp.Choices[0].Message.Content)
	if len(suggestions) == 0 {
		return FallbackSuggestions(patterns)
	}
	return suggestions
}

func buildPrompt(p adherence.Patterns) string {
	mostMissedMed, _ := p.MostMissedMedication()
	if mostMissedMed == "" {
		mostMissedMed = "N/A"
	}
	mostMissedTime, _ := p.MissedByTimeOfDay.Most()
	if mostMissedTime == "" {
		mostMissedTime = "N/A"
	}

	trend := "Improving"
	if p.ImprovementTrend < 0 {
		trend = "Declining"
	}
	trendAbs := p.ImprovementTrend
	if trendAbs < 0 {
		trendAbs = -trendAbs
	}

	return fmt.Sprintf(`You are a medication adherence assistant. Analyze the following patient data and provide 3 specific, actionable suggestions to improve medication adherence. Keep each suggestion to 1-2 sentences.

Patient Data:
- Total Reminders: %d
- Adherence Rate: %d%%
- Missed Doses: %d
- Most Missed Medication: %s
- Most Missed Time: %s
- Consecutive Missed: %d
- Trend (vs last week): %s by %.1f%%

Provide exactly 3 suggestions in this format:
1. [Suggestion]
2. [Suggestion]
3. [Suggestion]

Focus on practical tips like timing adjustments, reminder strategies, or habit-building techniques.`,
		p.TotalReminders, p.AdherenceRate, p.MissedCount,
		mostMissedMed, mostMissedTime, p.ConsecutiveMissed, trend, trendAbs)
}

var suggestionLine = regexp.MustCompile(`^\d+\.\s*(.+)$`)

// parseSuggestions pulls the numbered lines out of a model reply, keeping
// at most three.
func parseSuggestions(reply string) []Suggestion {
	var suggestions []Suggestion
	for _, line := range strings.Split(reply, "\n") {
		m := suggestionLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		suggestions = append(suggestions, Suggestion{Text: strings.TrimSpace(m[1]), Type: "ai-generated"})
		if len(suggestions) == 3 {
			break
		}
	}
	return suggestions
}

// FallbackSuggestions produces rule-based tips tiered on the adherence
// rate, plus pattern-specific nudges for missed streaks, the worst time of
// day, and the most-missed medication. At most three are returned, tier
// suggestions first.
func FallbackSuggestions(p adherence.Patterns) []Suggestion {
	var suggestions []Suggestion

	switch {
	case p.AdherenceRate < 50:
		suggestions = append(suggestions,
			Suggestion{
				Text:     fmt.Sprintf("URGENT: Your %d%% adherence needs immediate attention. Contact your healthcare provider and consider pill organizers or family support.", p.AdherenceRate),
				Type:     "rule-based",
				Priority: "high",
			},
			Suggestion{
				Text:     "Start with ONE medication at a time. Set multiple alarms 15 minutes apart until taking medications becomes automatic.",
				Type:     "rule-based",
				Priority: "high",
			})
	case p.AdherenceRate < 75:
		suggestions = append(suggestions,
			Suggestion{
				Text:     fmt.Sprintf("Your %d%% adherence is below target (75%%+). Focus on identifying and eliminating the main barriers to taking medications.", p.AdherenceRate),
				Type:     "rule-based",
				Priority: "high",
			},
			Suggestion{
				Text:     `Try the "medication sandwich" - pair each dose with something you enjoy (coffee, music) to create positive associations.`,
				Type:     "rule-based",
				Priority: "medium",
			})
	case p.AdherenceRate < 85:
		suggestions = append(suggestions, Suggestion{
			Text:     fmt.Sprintf("Good work! At %d%%, you're in the acceptable range. Fine-tune your routine to reach the optimal 90%%+ target.", p.AdherenceRate),
			Type:     "rule-based",
			Priority: "medium",
		})
	case p.AdherenceRate < 95:
		suggestions = append(suggestions, Suggestion{
			Text:     fmt.Sprintf("Excellent %d%% adherence! You're doing great. Small tweaks to timing or reminders can get you to 95%%+.", p.AdherenceRate),
			Type:     "rule-based",
			Priority: "low",
		})
		if p.MissedCount > 0 {
			suggestions = append(suggestions, Suggestion{
				Text:     fmt.Sprintf("You've missed %d doses. Analyze when/why these happened to prevent future misses.", p.MissedCount),
				Type:     "rule-based",
				Priority: "low",
			})
		}
	default:
		suggestions = append(suggestions,
			Suggestion{
				Text:     fmt.Sprintf("Outstanding %d%% adherence! You're a medication management champion. Keep up this excellent routine!", p.AdherenceRate),
				Type:     "rule-based",
				Priority: "low",
			},
			Suggestion{
				Text:     "Consider mentoring others or sharing your successful strategies. Your consistency is exemplary!",
				Type:     "rule-based",
				Priority: "low",
			})
	}

	if p.ConsecutiveMissed >= 3 {
		suggestions = append(suggestions, Suggestion{
			Text:     fmt.Sprintf("You've missed %d doses in a row. Consider enabling quiet hours or adjusting reminder times to better fit your schedule.", p.ConsecutiveMissed),
			Type:     "rule-based",
			Priority: "high",
		})
	}

	if name, count := p.MissedByTimeOfDay.Most(); count > 2 {
		windows := map[string]string{
			"morning":   "morning (6 AM - 12 PM)",
			"afternoon": "afternoon (12 PM - 5 PM)",
			"evening":   "evening (5 PM - 9 PM)",
			"night":     "night (9 PM - 6 AM)",
		}
		suggestions = append(suggestions, Suggestion{
			Text:     fmt.Sprintf("You often miss %s doses. Try moving these medications to a different time or enabling extra reminders.", windows[name]),
			Type:     "rule-based",
			Priority: "medium",
		})
	}

	if name, count := p.MostMissedMedication(); count > 3 {
		suggestions = append(suggestions, Suggestion{
			Text:     fmt.Sprintf("%q is frequently missed. Consider setting multiple reminders or using the snooze feature for this medication.", name),
			Type:     "rule-based",
			Priority: "medium",
		})
	}

	if p.ImprovementTrend > 5 {
		suggestions = append(suggestions, Suggestion{
			Text:     fmt.Sprintf("Great job! Your adherence has improved by %.1f%% this week. Keep up the excellent work!", p.ImprovementTrend),
			Type:     "rule-based",
			Priority: "low",
		})
	}

	if len(suggestions) == 0 {
		suggestions = append(suggestions, Suggestion{
			Text:     "Set up notification preferences to receive timely reminders for your medications.",
			Type:     "rule-based",
			Priority: "low",
		})
	}
	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}
	return suggestions
}
