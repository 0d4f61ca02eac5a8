package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClassifier implements the extraction fallback with Gemini. The
// model is asked for strict JSON; anything that does not parse or names an
// unknown kind is reported as unresolved rather than guessed at.
type GeminiClassifier struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiClassifier(ctx context.Context, apiKey string) (*GeminiClassifier, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiClassifier{
		client: client,
		model:  client.GenerativeModel("models/gemini-2.5-flash"),
	}, nil
}

// Close releases the underlying API client.
func (g *GeminiClassifier) Close() error {
	return g.client.Close()
}

const classifyPrompt = `You extract scheduling information from one short phrase.
Today is %s (%s).

Phrase: %q

Answer with ONLY a JSON object, no prose, no code fences:
{"kind": "date" | "bucket" | "period" | "unknown",
 "date": "YYYY-MM-DD or empty",
 "bucket": "morning" | "afternoon" | "evening" | "any" | "",
 "period_start": "YYYY-MM-DD or empty",
 "period_end": "YYYY-MM-DD or empty"}

Use "date" for a single resolvable day, "bucket" for a time-of-day
preference, "period" for a vague range like "sometime next month", and
"unknown" when the phrase contains no scheduling information.`

type classifyReply struct {
	Kind        string `json:"kind"`
	Date        string `json:"date"`
	Bucket      string `json:"bucket"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

func (g *GeminiClassifier) ClassifyPeriodOrDate(ctx context.Context, phrase string, today time.Time) (Resolution, error) {
	prompt := fmt.Sprintf(classifyPrompt, today.Format("2006-01-02"), today.Weekday(), phrase)

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return Unresolved, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Unresolved, fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	var reply classifyReply
	if err := json.Unmarshal([]byte(stripFences(sb.String())), &reply); err != nil {
		return Unresolved, fmt.Errorf("parse gemini reply: %w", err)
	}

	loc := today.Location()
	switch reply.Kind {
	case "date":
		d, err := time.ParseInLocation("2006-01-02", reply.Date, loc)
		if err != nil {
			return Unresolved, fmt.Errorf("gemini date %q: %w", reply.Date, err)
		}
		return Resolution{Kind: KindDate, Date: d}, nil

	case "bucket":
		switch TimeBucket(reply.Bucket) {
		case BucketMorning, BucketAfternoon, BucketEvening, BucketAny:
			return Resolution{Kind: KindBucket, Bucket: TimeBucket(reply.Bucket)}, nil
		}
		return Unresolved, fmt.Errorf("gemini bucket %q unknown", reply.Bucket)

	case "period":
		start, err := time.ParseInLocation("2006-01-02", reply.PeriodStart, loc)
		if err != nil {
			return Unresolved, fmt.Errorf("gemini period start %q: %w", reply.PeriodStart, err)
		}
		end, err := time.ParseInLocation("2006-01-02", reply.PeriodEnd, loc)
		if err != nil {
			return Unresolved, fmt.Errorf("gemini period end %q: %w", reply.PeriodEnd, err)
		}
		if end.Before(start) {
			return Unresolved, fmt.Errorf("gemini period ends before it starts")
		}
		return Resolution{Kind: KindPeriod, Period: Window{Start: start, End: end}}, nil
	}

	return Unresolved, nil
}

// stripFences removes a markdown code fence if the model wrapped its JSON
// in one anyway.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
