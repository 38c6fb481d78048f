package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"image"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"resello/internal/domain/entity"
	"resello/internal/domain/port"
)

const damagePrompt = `Analyze this %s image showing the '%s' view for physical damage and wear.

CRITICAL INSTRUCTIONS - BE EXTREMELY CAREFUL:
- Only report damage that is CLEARLY and UNMISTAKABLY VISIBLE
- Do NOT confuse reflections, lighting, shadows, or glare with damage
- Glass/reflective surfaces often show reflections that look like cracks - IGNORE THESE
- Camera lenses, sensors, and flash are NORMAL features, not damage
- Design elements, patterns, or textures are NOT damage
- If you're not 100%% certain it's real damage, DO NOT report it

Identify ONLY if you are absolutely certain:
1. Scratches: deep visible surface scratches (NOT light reflections)
2. Cracks: actual physical cracks with broken material (NOT reflections or light patterns)
3. Dents: physical deformations or impacts
4. Discoloration: permanent stains, yellowing, or color changes
5. Heavy wear: obvious usage wear like paint loss or material degradation
6. Broken parts: missing or broken components

Use only these types: scratches, dents, cracks, heavy wear, discoloration, broken parts, other.
Severity is one of: low, medium, high.

If the condition appears good or you're unsure, respond with pristine condition.

Return ONLY valid JSON:
{"issues": [{"type": "scratches", "severity": "medium", "location": "top-left corner", "description": "visible surface scratches"}], "overall_condition": "good"}

If pristine:
{"issues": [], "overall_condition": "pristine"}`

var damageSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"issues": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"type":        {Type: genai.TypeString},
					"severity":    {Type: genai.TypeString, Enum: []string{"low", "medium", "high"}},
					"location":    {Type: genai.TypeString},
					"description": {Type: genai.TypeString},
				},
				Required: []string{"type", "severity"},
			},
		},
		"overall_condition": {Type: genai.TypeString},
	},
	Required:         []string{"issues", "overall_condition"},
	PropertyOrdering: []string{"issues", "overall_condition"},
}

// DamageDetector ищет косметические повреждения на снимке.
type DamageDetector struct {
	client *Client
}

var _ port.DamageDetector = (*DamageDetector)(nil)

func NewDamageDetector(client *Client) *DamageDetector {
	return &DamageDetector{client: client}
}

// Analyze никогда не возвращает ошибку сервиса: сбой или неразборчивый ответ
// превращаются в entity.UnknownDamageReport.
func (d *DamageDetector) Analyze(ctx context.Context, img image.Image, view string, category entity.ProductCategory) (entity.DamageReport, error) {
	part, err := imagePart(img)
	if err != nil {
		log.Warn().Err(err).Str("view", view).Msg("damage analysis degraded")
		return entity.UnknownDamageReport(), nil
	}
	parts := []*genai.Part{
		genai.NewPartFromText(fmt.Sprintf(damagePrompt, category, view)),
		part,
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   damageSchema,
	}

	text, err := d.client.generate(ctx, "damage", parts, config)
	if err != nil {
		log.Warn().Err(err).Str("view", view).Msg("damage analysis degraded")
		return entity.UnknownDamageReport(), nil
	}

	report, err := parseDamageReport(text)
	if err != nil {
		log.Warn().Err(err).Str("view", view).Msg("damage analysis returned malformed json")
		return entity.UnknownDamageReport(), nil
	}

	log.Debug().
		Str("view", view).
		Int("issues", len(report.Issues)).
		Str("condition", report.OverallCondition).
		Msg("damage analysis done")
	return report, nil
}

func parseDamageReport(text string) (entity.DamageReport, error) {
	jsonStr, err := extractJSONObject(text)
	if err != nil {
		return entity.DamageReport{}, err
	}

	var raw struct {
		Issues           *[]entity.DamageFinding `json:"issues"`
		OverallCondition *string                 `json:"overall_condition"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return entity.DamageReport{}, fmt.Errorf("failed to parse damage json: %w (response: %s)", err, jsonStr)
	}
	if raw.Issues == nil || raw.OverallCondition == nil {
		return entity.DamageReport{}, fmt.Errorf("damage json misses issues or overall_condition: %s", jsonStr)
	}

	issues := *raw.Issues
	if issues == nil {
		issues = []entity.DamageFinding{}
	}
	return entity.DamageReport{Issues: issues, OverallCondition: *raw.OverallCondition}, nil
}
