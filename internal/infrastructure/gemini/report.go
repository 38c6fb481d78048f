package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"resello/internal/domain/entity"
	"resello/internal/domain/port"
	"resello/internal/domain/pricing"
)

const (
	markerArabic  = "[ARABIC]"
	markerEnglish = "[ENGLISH]"
)

const reportPrompt = `You are a senior professional physical condition inspector and pricing expert for a re-commerce platform named "Resello".
Your task is to write a final, polished report for a seller based on our AI inspection and market analysis.

### PRODUCT DETAILS:
- Product: %s
- Category: %s
- Usage Duration: %s years
- Condition Score: %d/100

### PRICE ANALYSIS:
- Brand New Market Price: %.0f %s
- Final Suggested Resale Price: %.0f %s

### DEPRECIATION BREAKDOWN:
- Age-based Deduction: %.0f%%
- Physical Condition Deduction: %.0f%%

### DETECTED ISSUES:
%s

### INSTRUCTIONS:
Write a professional, human-friendly summary in both Arabic and English.
Use the following markers to separate them:
[ARABIC]
(Your Arabic report here)
[ENGLISH]
(Your English report here)

1. Acknowledge the device model and its age.
2. Summarize the physical state (mentioning specific scratches, wear, or pristine condition).
3. Explain the price deduction logically (market age plus specific cosmetic issues).
4. Provide a final confident verdict on why this price is fair for both the seller and the buyer.

Use markdown with clear headings.`

// ReportWriter пишет итоговый отчёт для продавца на двух языках.
type ReportWriter struct {
	client *Client
}

var _ port.ReportDescriber = (*ReportWriter)(nil)

func NewReportWriter(client *Client) *ReportWriter {
	return &ReportWriter{client: client}
}

// Describe при сбое сервиса возвращает пустой отчёт с Degraded=true.
func (w *ReportWriter) Describe(ctx context.Context, insp *entity.Inspection, result *pricing.Result) (*entity.AiReport, error) {
	if insp == nil || result == nil {
		return nil, fmt.Errorf("report needs an inspection and a pricing result")
	}

	prompt := buildReportPrompt(insp, result)
	text, err := w.client.generate(ctx, "report", []*genai.Part{genai.NewPartFromText(prompt)}, nil)
	if err != nil {
		log.Warn().Err(err).Str("inspection", insp.ID).Msg("condition report degraded")
		return &entity.AiReport{Degraded: true}, nil
	}
	return splitReport(text), nil
}

func buildReportPrompt(insp *entity.Inspection, result *pricing.Result) string {
	var issues []string
	for _, line := range result.Defects.Breakdown {
		issues = append(issues, fmt.Sprintf("- %s (%s): %s", line.Type, line.Severity, line.Description))
	}
	issuesText := "No major physical defects detected."
	if len(issues) > 0 {
		issuesText = strings.Join(issues, "\n")
	}

	return fmt.Sprintf(reportPrompt,
		insp.ProductName,
		insp.Category,
		formatYears(insp.UsageYears),
		insp.ConditionScore(),
		result.BasePrice, result.Currency,
		result.FinalPrice, result.Currency,
		result.Age.Rate*100,
		result.Defects.Rate*100,
		issuesText,
	)
}

func formatYears(years float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", years), "0"), ".")
}

// splitReport делит ответ по маркерам. Без маркеров весь текст считается английским.
func splitReport(text string) *entity.AiReport {
	text = strings.TrimSpace(text)
	ar := strings.Index(text, markerArabic)
	en := strings.Index(text, markerEnglish)

	report := &entity.AiReport{}
	switch {
	case ar >= 0 && en > ar:
		report.Arabic = strings.TrimSpace(text[ar+len(markerArabic) : en])
		report.English = strings.TrimSpace(text[en+len(markerEnglish):])
	case en >= 0 && ar > en:
		report.English = strings.TrimSpace(text[en+len(markerEnglish) : ar])
		report.Arabic = strings.TrimSpace(text[ar+len(markerArabic):])
	case ar >= 0:
		report.Arabic = strings.TrimSpace(text[ar+len(markerArabic):])
	case en >= 0:
		report.English = strings.TrimSpace(text[en+len(markerEnglish):])
	default:
		report.English = text
	}
	return report
}
