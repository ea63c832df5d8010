package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MikolajSzawerda/find-me-nest/internal/offer"
	"github.com/MikolajSzawerda/find-me-nest/internal/otodom"
	"github.com/MikolajSzawerda/find-me-nest/logger"
	apperrors "github.com/MikolajSzawerda/find-me-nest/pkg/errors"

	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = `You analyze Polish apartment rental listings. Given a listing
description, respond with a JSON object carrying exactly these keys:
  "available_from": the move-in date if the listing states one, otherwise null
  "total_monthly_cost": the real monthly cost including rent, administrative fees
    and utilities if the listing lets you compute it, otherwise null
  "key_advantages": a short comma-separated list of the listing's strongest
    selling points, otherwise null
Respond with the JSON object only.`

// chatCompleter is the slice of the OpenAI client the analyzer uses
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Analyzer derives the description-only fields of an offer with a chat model.
// The model output is advisory; a failed or partial analysis never blocks the
// rest of the pipeline.
type Analyzer struct {
	client chatCompleter
	model  string
	log    *logger.Logger
}

// NewAnalyzer creates an analyzer backed by the OpenAI API
func NewAnalyzer(apiKey, model string) *Analyzer {
	return newAnalyzer(openai.NewClient(apiKey), model)
}

func newAnalyzer(client chatCompleter, model string) *Analyzer {
	return &Analyzer{
		client: client,
		model:  model,
		log:    logger.ForComponent("extract"),
	}
}

// analysisPayload mirrors the JSON object the model is asked to return.
// Pointer fields let explicit nulls and missing keys collapse to empty strings.
type analysisPayload struct {
	AvailableFrom    *string `json:"available_from"`
	TotalMonthlyCost *string `json:"total_monthly_cost"`
	KeyAdvantages    *string `json:"key_advantages"`
}

// Analyze runs the chat model over one offer description. Fields the model
// leaves null come back empty; a transport or decode failure returns an
// extraction error together with an empty Analysis.
func (a *Analyzer) Analyze(ctx context.Context, slug, description string) (offer.Analysis, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: description},
		},
	})
	if err != nil {
		return offer.Analysis{}, apperrors.NewExtraction(slug, "chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return offer.Analysis{}, apperrors.NewExtraction(slug, "chat completion returned no choices", nil)
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &payload); err != nil {
		return offer.Analysis{}, apperrors.NewExtraction(slug, "failed to decode model response", err)
	}

	analysis := offer.Analysis{
		AvailableFrom:    deref(payload.AvailableFrom),
		TotalMonthlyCost: deref(payload.TotalMonthlyCost),
		KeyAdvantages:    deref(payload.KeyAdvantages),
	}

	a.log.Debug().
		Str("slug", slug).
		Str("available_from", analysis.AvailableFrom).
		Str("total_monthly_cost", analysis.TotalMonthlyCost).
		Msg("Analyzed offer description")

	return analysis, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// BuildDescription assembles the text handed to the model: the listing title,
// location, commute details and every characteristic not already carried as a
// structured column, followed by the free-form description.
func BuildDescription(ad *otodom.Ad, commute offer.Commute) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Title: %s\n", ad.Title)

	address := []string{}
	for _, part := range []string{ad.Location.Address.Street.Name, ad.Location.Address.District.Name, ad.Location.Address.City.Name} {
		if part != "" {
			address = append(address, part)
		}
	}
	if len(address) > 0 {
		fmt.Fprintf(&b, "Address: %s\n", strings.Join(address, ", "))
	}

	fmt.Fprintf(&b, "Closest metro: %s (%.2f km)\n", commute.Station, commute.DistanceKm)
	if commute.WithinRange {
		fmt.Fprintf(&b, "Walking time to metro: %s\n", commute.WalkingTime)
		fmt.Fprintf(&b, "Transit time to metro: %s\n", commute.TransitTime)
	}

	for _, c := range ad.Characteristics {
		// Price, rent and area are structured columns already
		if c.Key == "price" || c.Key == "rent" || c.Key == "m" {
			continue
		}
		value := c.LocalizedValue
		if value == "" {
			value = c.Value
		}
		fmt.Fprintf(&b, "%s: %s\n", c.Label, value)
	}

	if len(ad.Features) > 0 {
		fmt.Fprintf(&b, "Features: %s\n", strings.Join(ad.Features, ", "))
	}
	if ad.AdvertiserType != "" {
		fmt.Fprintf(&b, "Advertiser: %s\n", ad.AdvertiserType)
	}
	if ad.CreatedAt != "" {
		fmt.Fprintf(&b, "Created: %s\n", ad.CreatedAt)
	}
	if ad.ModifiedAt != "" {
		fmt.Fprintf(&b, "Modified: %s\n", ad.ModifiedAt)
	}

	fmt.Fprintf(&b, "\nDescription:\n%s\n", ad.Description)

	return b.String()
}
