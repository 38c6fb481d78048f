package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefectType(t *testing.T) {
	cases := map[string]DefectType{
		"scratches":           DefectScratches,
		"Deep Scratches":      DefectScratches,
		"CRACKS on glass":     DefectCracks,
		"heavy wear":          DefectHeavyWear,
		"wear":                DefectOther,
		"broken parts":        DefectBrokenParts,
		"rust":                DefectOther,
		"":                    DefectOther,
		"minor discoloration": DefectDiscoloration,
	}
	for in, want := range cases {
		require.Equal(t, want, ParseDefectType(in), in)
	}
}

func TestParseSeverity(t *testing.T) {
	require.Equal(t, SeverityHigh, ParseSeverity("HIGH"))
	require.Equal(t, SeverityMedium, ParseSeverity(" medium "))
	require.Equal(t, SeverityLow, ParseSeverity(""))
	require.Equal(t, SeverityLow, ParseSeverity("critical"))
}

func TestDamageFinding_EmptyTypeIsOther(t *testing.T) {
	f := DamageFinding{Severity: "high"}
	require.Equal(t, DefectOther, f.Category())
	require.Equal(t, SeverityHigh, f.Level())
}

func TestUnknownDamageReport(t *testing.T) {
	r := UnknownDamageReport()
	require.Empty(t, r.Issues)
	require.NotNil(t, r.Issues)
	require.Equal(t, "unknown", r.OverallCondition)
	require.True(t, r.Degraded)
}
