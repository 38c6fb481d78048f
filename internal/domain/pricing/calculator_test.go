package pricing

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"resello/internal/domain/entity"
)

const eps = 1e-9

func TestAgeRate_Table(t *testing.T) {
	cases := []struct {
		years float64
		want  float64
	}{
		{0, 0.15},
		{0.5, 0.15},
		{0.999, 0.15},
		{1.0, 0.15},
		{2, 0.25},
		{3.7, 0.35},
		{4, 0.43},
		{5, 0.50},
		{6.2, 0.55},
		{7, 0.60},
		{7.99, 0.60},
	}
	for _, tc := range cases {
		require.InDelta(t, tc.want, AgeRate(tc.years), eps, "years=%v", tc.years)
	}
}

func TestAgeRate_ClampsAfterSevenYears(t *testing.T) {
	for _, years := range []float64{8, 9.5, 10, 25, 100} {
		require.Equal(t, 0.60, AgeRate(years), "years=%v", years)
	}
}

func TestAgeRate_NonDecreasing(t *testing.T) {
	prev := AgeRate(0)
	for y := 0.0; y <= 12; y += 0.25 {
		r := AgeRate(y)
		require.GreaterOrEqual(t, r, prev)
		prev = r
	}
}

func TestDefectRate_MatchesVocabularyAndSeverity(t *testing.T) {
	d := DefectRate([]entity.DamageFinding{
		{Type: "Scratches", Severity: "medium", Description: "lid"},
		{Type: "deep cracks", Severity: "HIGH"},
		{Type: "wear", Severity: "high"},
		{Type: "dents"},
		{Type: "", Severity: "bogus"},
	})

	require.Len(t, d.Breakdown, 5)
	require.Equal(t, entity.DefectScratches, d.Breakdown[0].Category)
	require.InDelta(t, 0.05, d.Breakdown[0].Rate, eps)
	require.Equal(t, "scratches", d.Breakdown[0].Type)
	require.Equal(t, "lid", d.Breakdown[0].Description)

	require.Equal(t, entity.DefectCracks, d.Breakdown[1].Category)
	require.InDelta(t, 0.35, d.Breakdown[1].Rate, eps)

	// "wear" не совпадает с "heavy wear" и уходит в other
	require.Equal(t, entity.DefectOther, d.Breakdown[2].Category)
	require.InDelta(t, 0.10, d.Breakdown[2].Rate, eps)

	require.Equal(t, entity.SeverityLow, d.Breakdown[3].Severity)
	require.InDelta(t, 0.03, d.Breakdown[3].Rate, eps)

	require.Equal(t, "other", d.Breakdown[4].Type)
	require.InDelta(t, 0.02, d.Breakdown[4].Rate, eps)

	require.InDelta(t, 0.55, d.RawRate, eps)
	require.InDelta(t, 0.50, d.Rate, eps)
	require.True(t, d.Capped)
}

func TestDefectRate_MonotonicUntilCap(t *testing.T) {
	issues := []entity.DamageFinding{}
	all := []entity.DamageFinding{
		{Type: "scratches", Severity: "low"},
		{Type: "discoloration", Severity: "medium"},
		{Type: "dents", Severity: "high"},
		{Type: "cracks", Severity: "medium"},
		{Type: "broken parts", Severity: "high"},
		{Type: "scratches", Severity: "low"},
	}
	prev := DefectRate(issues).Rate
	require.Zero(t, prev)
	for _, f := range all {
		issues = append(issues, f)
		d := DefectRate(issues)
		require.GreaterOrEqual(t, d.Rate, prev)
		require.LessOrEqual(t, d.Rate, MaxDefectRate)
		if d.Capped {
			require.Equal(t, MaxDefectRate, d.Rate)
		}
		require.Len(t, d.Breakdown, len(issues))
		prev = d.Rate
	}
	require.Equal(t, MaxDefectRate, prev)
}

func TestCalculate_InvalidInput(t *testing.T) {
	c := NewCalculator("")
	for _, base := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := c.Calculate(base, 1, nil)
		require.ErrorIs(t, err, ErrInvalidInput)
	}
	_, err := c.Calculate(1000, -0.5, nil)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCalculate_NoIssues(t *testing.T) {
	res, err := NewCalculator("").Calculate(10000, 2, nil)
	require.NoError(t, err)
	require.InDelta(t, 0.25, res.Age.Rate, eps)
	require.InDelta(t, 2500, res.Age.Amount, eps)
	require.Zero(t, res.Defects.Rate)
	require.Empty(t, res.Defects.Breakdown)
	require.InDelta(t, 0.25, res.TotalRate, eps)
	require.InDelta(t, 7500, res.FinalPrice, eps)
	require.Equal(t, DefaultCurrency, res.Currency)
}

func TestCalculate_SingleHighCrack(t *testing.T) {
	res, err := NewCalculator("").Calculate(10000, 0, []entity.DamageFinding{
		{Type: "cracks", Severity: "high"},
	})
	require.NoError(t, err)
	require.InDelta(t, 0.15, res.Age.Rate, eps)
	require.InDelta(t, 0.35, res.Defects.Rate, eps)
	require.InDelta(t, 0.50, res.TotalRate, eps)
	require.InDelta(t, 5000, res.FinalPrice, eps)
	require.InDelta(t, 3500, res.Defects.Amount, eps)
}

func TestCalculate_CapsAndFloor(t *testing.T) {
	broken := entity.DamageFinding{Type: "broken parts", Severity: "high"}
	res, err := NewCalculator("USD").Calculate(10000, 10, []entity.DamageFinding{broken, broken})
	require.NoError(t, err)
	require.InDelta(t, 0.60, res.Age.Rate, eps)
	require.InDelta(t, 1.00, res.Defects.RawRate, eps)
	require.InDelta(t, 0.50, res.Defects.Rate, eps)
	require.True(t, res.Defects.Capped)
	require.Len(t, res.Defects.Breakdown, 2)
	require.InDelta(t, 0.90, res.TotalRate, eps)
	require.InDelta(t, 9000, res.TotalAmount, 1e-6)
	require.InDelta(t, 1000, res.FinalPrice, 1e-6)
	require.Equal(t, "USD", res.Currency)
}

func TestCalculate_InvariantsHoldForAllSeverityMixes(t *testing.T) {
	c := NewCalculator("")
	severities := []string{"low", "medium", "high"}
	for _, typ := range entity.DefectTypes {
		for _, sev := range severities {
			for n := 0; n < 5; n++ {
				issues := make([]entity.DamageFinding, n)
				for i := range issues {
					issues[i] = entity.DamageFinding{Type: string(typ), Severity: sev}
				}
				for _, years := range []float64{0, 3, 7, 12} {
					res, err := c.Calculate(5000, years, issues)
					require.NoError(t, err)
					require.LessOrEqual(t, res.TotalRate, MaxTotalRate+eps)
					require.GreaterOrEqual(t, res.FinalPrice, 5000*MinPriceShare-eps)
					require.LessOrEqual(t, res.Defects.Rate, MaxDefectRate)
					require.GreaterOrEqual(t, res.Age.Rate, 0.0)
					require.LessOrEqual(t, res.Age.Rate, 1.0)
				}
			}
		}
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	c := NewCalculator("")
	issues := []entity.DamageFinding{
		{Type: "scratches", Severity: "medium", Location: "lid", Description: "fine lines"},
		{Type: "dents", Severity: "low", Location: "corner"},
	}
	a, err := c.Calculate(12345.67, 3.4, issues)
	require.NoError(t, err)
	b, err := c.Calculate(12345.67, 3.4, issues)
	require.NoError(t, err)

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	require.Equal(t, ja, jb)
}
