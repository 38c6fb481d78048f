package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"resello/internal/domain/entity"
	"resello/internal/domain/port"
)

const sameDevicePrompt = `You are verifying whether multiple photos belong to the SAME physical %s.

This is a STRICT identity verification.

Determine whether ALL images show the SAME SINGLE DEVICE,
not just the same model or type.

Check carefully for:
- Matching scratches, dents, wear patterns
- Consistent logos, stickers, or marks
- Consistent port wear or damage
- Color tone and material consistency

If there is ANY doubt, answer NO.

Return ONLY valid JSON:
{"same_device": true | false, "confidence": "high | medium | low", "reason": "brief explanation"}`

// ReasonUnverified причина вердикта, когда сервис недоступен.
const ReasonUnverified = "same-device verification is unavailable"

var verdictSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"same_device": {Type: genai.TypeBoolean},
		"confidence":  {Type: genai.TypeString, Enum: []string{"high", "medium", "low"}},
		"reason":      {Type: genai.TypeString},
	},
	Required:         []string{"same_device", "confidence", "reason"},
	PropertyOrdering: []string{"same_device", "confidence", "reason"},
}

// DeviceVerifier проверяет, что все снимки сделаны с одного экземпляра устройства.
type DeviceVerifier struct {
	client *Client
}

var _ port.DeviceVerifier = (*DeviceVerifier)(nil)

func NewDeviceVerifier(client *Client) *DeviceVerifier {
	return &DeviceVerifier{client: client}
}

// Verify при сбое возвращает непроверенный вердикт с Degraded=true.
func (v *DeviceVerifier) Verify(ctx context.Context, images []image.Image, category entity.ProductCategory) (entity.DeviceVerdict, error) {
	if len(images) == 0 {
		return entity.DeviceVerdict{}, fmt.Errorf("no images provided")
	}

	parts := []*genai.Part{
		genai.NewPartFromText(fmt.Sprintf(sameDevicePrompt, category)),
	}
	for _, img := range images {
		part, err := imagePart(img)
		if err != nil {
			log.Warn().Err(err).Msg("same-device verification degraded")
			return unverified(), nil
		}
		parts = append(parts, part)
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   verdictSchema,
	}

	text, err := v.client.generate(ctx, "same_device", parts, config)
	if err != nil {
		log.Warn().Err(err).Int("imageCount", len(images)).Msg("same-device verification degraded")
		return unverified(), nil
	}

	verdict, err := parseVerdict(text)
	if err != nil {
		log.Warn().Err(err).Msg("same-device verification returned malformed json")
		return unverified(), nil
	}

	log.Info().
		Bool("sameDevice", verdict.SameDevice).
		Str("confidence", string(verdict.Confidence)).
		Int("imageCount", len(images)).
		Msg("same-device verification")
	return verdict, nil
}

func unverified() entity.DeviceVerdict {
	return entity.DeviceVerdict{
		SameDevice: false,
		Confidence: entity.ConfidenceLow,
		Reason:     ReasonUnverified,
		Degraded:   true,
	}
}

// parseVerdict переносит вердикт как есть; уровень уверенности только
// приводится к нижнему регистру.
func parseVerdict(text string) (entity.DeviceVerdict, error) {
	jsonStr, err := extractJSONObject(text)
	if err != nil {
		return entity.DeviceVerdict{}, err
	}

	var raw struct {
		SameDevice *bool  `json:"same_device"`
		Confidence string `json:"confidence"`
		Reason     string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return entity.DeviceVerdict{}, fmt.Errorf("failed to parse verdict json: %w (response: %s)", err, jsonStr)
	}
	if raw.SameDevice == nil {
		return entity.DeviceVerdict{}, fmt.Errorf("verdict json misses same_device: %s", jsonStr)
	}

	return entity.DeviceVerdict{
		SameDevice: *raw.SameDevice,
		Confidence: entity.Confidence(strings.ToLower(strings.TrimSpace(raw.Confidence))),
		Reason:     raw.Reason,
	}, nil
}
