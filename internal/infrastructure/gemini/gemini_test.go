package gemini

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"resello/internal/domain/entity"
	"resello/internal/domain/pricing"
)

// fakeGenerator отдаёт ответы по очереди; ошибка в очереди возвращается как сбой вызова.
type fakeGenerator struct {
	replies []any
	calls   int
	prompts []string
	images  []int
}

func (f *fakeGenerator) GenerateContent(_ context.Context, _ string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	images := 0
	for _, p := range contents[0].Parts {
		if p.InlineData != nil {
			images++
		} else {
			f.prompts = append(f.prompts, p.Text)
		}
	}
	f.images = append(f.images, images)

	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	switch r := reply.(type) {
	case error:
		return nil, r
	case string:
		return textResponse(r), nil
	}
	return &genai.GenerateContentResponse{}, nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func testClient(f *fakeGenerator, retries int) *Client {
	c := newClient(f, ClientOpts{RetryCount: retries})
	c.backOff = func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) }
	return c
}

func img() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 8, 8))
}

func TestExtractJSONObject(t *testing.T) {
	got, err := extractJSONObject("```json\n{\"a\": 1}\n```")
	require.NoError(t, err)
	require.Equal(t, `{"a": 1}`, got)

	_, err = extractJSONObject("no json here")
	require.Error(t, err)
}

func TestDamageDetector_ParsesFindings(t *testing.T) {
	f := &fakeGenerator{replies: []any{
		"```json\n" + `{"issues": [{"type": "scratches", "severity": "medium", "location": "lid", "description": "light scratches"}], "overall_condition": "good"}` + "\n```",
	}}
	report, err := NewDamageDetector(testClient(f, 0)).Analyze(context.Background(), img(), "Top lid (closed)", entity.CategoryLaptop)
	require.NoError(t, err)
	require.False(t, report.Degraded)
	require.Equal(t, "good", report.OverallCondition)
	require.Equal(t, []entity.DamageFinding{{Type: "scratches", Severity: "medium", Location: "lid", Description: "light scratches"}}, report.Issues)
	require.Equal(t, []int{1}, f.images)
	require.Contains(t, f.prompts[0], "'Top lid (closed)' view")
	require.Contains(t, f.prompts[0], "Laptop image")
}

func TestDamageDetector_PristineHasEmptyIssues(t *testing.T) {
	f := &fakeGenerator{replies: []any{`{"issues": [], "overall_condition": "pristine"}`}}
	report, err := NewDamageDetector(testClient(f, 0)).Analyze(context.Background(), img(), "Back panel", entity.CategoryMobile)
	require.NoError(t, err)
	require.NotNil(t, report.Issues)
	require.Empty(t, report.Issues)
	require.Equal(t, "pristine", report.OverallCondition)
}

func TestDamageDetector_MalformedDegrades(t *testing.T) {
	for _, reply := range []string{
		"sorry, I can't help",
		`{"issues": "many"}`,
		`{"overall_condition": "good"}`,
		`{"issues": null, "overall_condition": "good"}`,
	} {
		f := &fakeGenerator{replies: []any{reply}}
		report, err := NewDamageDetector(testClient(f, 0)).Analyze(context.Background(), img(), "Back panel", entity.CategoryMobile)
		require.NoError(t, err, reply)
		require.Equal(t, entity.UnknownDamageReport(), report, reply)
	}
}

func TestDamageDetector_RetriesThenDegrades(t *testing.T) {
	boom := errors.New("503")
	f := &fakeGenerator{replies: []any{boom}}
	c := testClient(f, 2)

	report, err := NewDamageDetector(c).Analyze(context.Background(), img(), "Back panel", entity.CategoryMobile)
	require.NoError(t, err)
	require.True(t, report.Degraded)
	require.Equal(t, 3, f.calls)
}

func TestDamageDetector_RecoversAfterRetry(t *testing.T) {
	f := &fakeGenerator{replies: []any{errors.New("timeout"), `{"issues": [], "overall_condition": "good"}`}}
	report, err := NewDamageDetector(testClient(f, 3)).Analyze(context.Background(), img(), "Back panel", entity.CategoryMobile)
	require.NoError(t, err)
	require.False(t, report.Degraded)
	require.Equal(t, 2, f.calls)
}

func TestDamageDetector_UnencodableImageDegrades(t *testing.T) {
	f := &fakeGenerator{replies: []any{`{"issues": [], "overall_condition": "good"}`}}
	huge := image.NewUniform(color.White)

	report, err := NewDamageDetector(testClient(f, 0)).Analyze(context.Background(), huge, "Back panel", entity.CategoryMobile)
	require.NoError(t, err)
	require.Equal(t, entity.UnknownDamageReport(), report)
	require.Zero(t, f.calls)
}

func TestClient_NoAPIKey(t *testing.T) {
	c, err := NewClient(context.Background(), ClientOpts{})
	require.NoError(t, err)
	_, err = c.generate(context.Background(), "test", nil, nil)
	require.ErrorIs(t, err, ErrNoAPIKey)

	report, err := NewDamageDetector(c).Analyze(context.Background(), img(), "Back panel", entity.CategoryMobile)
	require.NoError(t, err)
	require.True(t, report.Degraded)
}

func TestClient_EmptyResponseIsNotRetried(t *testing.T) {
	f := &fakeGenerator{replies: []any{nil}}
	_, err := testClient(f, 3).generate(context.Background(), "test", []*genai.Part{genai.NewPartFromText("x")}, nil)
	require.ErrorIs(t, err, errEmptyResponse)
	require.Equal(t, 1, f.calls)
}

func TestDeviceVerifier_PassesVerdict(t *testing.T) {
	f := &fakeGenerator{replies: []any{`{"same_device": false, "confidence": "Medium", "reason": "different sticker on lid"}`}}
	verdict, err := NewDeviceVerifier(testClient(f, 0)).Verify(context.Background(), []image.Image{img(), img(), img()}, entity.CategoryLaptop)
	require.NoError(t, err)
	require.Equal(t, entity.DeviceVerdict{
		SameDevice: false,
		Confidence: entity.ConfidenceMedium,
		Reason:     "different sticker on lid",
	}, verdict)
	require.Equal(t, []int{3}, f.images)
	require.Contains(t, f.prompts[0], "SAME physical Laptop")
}

func TestDeviceVerifier_KeepsUnknownConfidence(t *testing.T) {
	f := &fakeGenerator{replies: []any{`{"same_device": true, "confidence": " Very High ", "reason": "same serial"}`}}
	verdict, err := NewDeviceVerifier(testClient(f, 0)).Verify(context.Background(), []image.Image{img(), img()}, entity.CategoryLaptop)
	require.NoError(t, err)
	require.False(t, verdict.Degraded)
	require.True(t, verdict.SameDevice)
	require.Equal(t, entity.Confidence("very high"), verdict.Confidence)
	require.Equal(t, "same serial", verdict.Reason)
}

func TestDeviceVerifier_UnencodableImageDegrades(t *testing.T) {
	f := &fakeGenerator{replies: []any{`{"same_device": true, "confidence": "high", "reason": "ok"}`}}
	verdict, err := NewDeviceVerifier(testClient(f, 0)).Verify(context.Background(), []image.Image{img(), image.NewUniform(color.Black)}, entity.CategoryLaptop)
	require.NoError(t, err)
	require.True(t, verdict.Degraded)
	require.False(t, verdict.SameDevice)
	require.Zero(t, f.calls)
}

func TestDeviceVerifier_Degrades(t *testing.T) {
	f := &fakeGenerator{replies: []any{`{"confidence": "high"}`}}
	verdict, err := NewDeviceVerifier(testClient(f, 0)).Verify(context.Background(), []image.Image{img()}, entity.CategoryMobile)
	require.NoError(t, err)
	require.True(t, verdict.Degraded)
	require.False(t, verdict.SameDevice)
	require.Equal(t, ReasonUnverified, verdict.Reason)

	_, err = NewDeviceVerifier(testClient(f, 0)).Verify(context.Background(), nil, entity.CategoryMobile)
	require.Error(t, err)
}

func TestSplitReport(t *testing.T) {
	r := splitReport("intro\n[ARABIC]\nمرحبا\n[ENGLISH]\nHello there")
	require.Equal(t, "مرحبا", r.Arabic)
	require.Equal(t, "Hello there", r.English)

	r = splitReport("[ENGLISH] Hi [ARABIC] أهلا")
	require.Equal(t, "Hi", r.English)
	require.Equal(t, "أهلا", r.Arabic)

	r = splitReport("  plain text ")
	require.Equal(t, "plain text", r.English)
	require.Empty(t, r.Arabic)
}

func TestReportWriter_Describe(t *testing.T) {
	insp, err := entity.NewInspection(1, "Dell XPS 13", entity.CategoryLaptop, 2)
	require.NoError(t, err)
	result, err := pricing.NewCalculator("EGP").Calculate(10000, 2, []entity.DamageFinding{
		{Type: "dents", Severity: "low", Description: "corner dent"},
	})
	require.NoError(t, err)

	f := &fakeGenerator{replies: []any{"[ARABIC]\nتقرير\n[ENGLISH]\nReport"}}
	report, err := NewReportWriter(testClient(f, 0)).Describe(context.Background(), insp, result)
	require.NoError(t, err)
	require.Equal(t, "Report", report.English)
	require.Equal(t, "تقرير", report.Arabic)

	prompt := f.prompts[0]
	require.Contains(t, prompt, "Product: Dell XPS 13")
	require.Contains(t, prompt, "Usage Duration: 2 years")
	require.Contains(t, prompt, "Brand New Market Price: 10000 EGP")
	require.Contains(t, prompt, "Age-based Deduction: 25%")
	require.Contains(t, prompt, "- dents (low): corner dent")
	require.False(t, strings.Contains(prompt, "%!"))
}

func TestReportWriter_Degrades(t *testing.T) {
	insp, err := entity.NewInspection(1, "Pixel 7", entity.CategoryMobile, 1)
	require.NoError(t, err)
	result, err := pricing.NewCalculator("").Calculate(8000, 1, nil)
	require.NoError(t, err)

	f := &fakeGenerator{replies: []any{errors.New("quota")}}
	report, err := NewReportWriter(testClient(f, 0)).Describe(context.Background(), insp, result)
	require.NoError(t, err)
	require.True(t, report.Degraded)
	require.Empty(t, report.English)
}
