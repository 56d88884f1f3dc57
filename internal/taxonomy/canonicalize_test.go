package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/admissions-triage/core/internal/domain"
)

func TestCanonicalize_TypoAlias(t *testing.T) {
	patched := ApplyTypoPatches("Disadvantanged_Ind")
	assert.Equal(t, "Disadvantaged_Ind", patched)
}

func TestCanonicalize_WhitespaceAndParens(t *testing.T) {
	assert.Equal(t, "AMCAS_ID", Canonicalize("  amcas (id)  "))
}

func TestResolveIDColumn(t *testing.T) {
	cols := []string{"AMCAS#", "Gender", "Total_GPA"}
	assert.Equal(t, "AMCAS_ID", ResolveIDColumn(cols))
}

func TestResolveIDColumn_NoMatch(t *testing.T) {
	cols := []string{"Gender", "Total_GPA"}
	assert.Equal(t, "", ResolveIDColumn(cols))
}

func TestCanonicalDimensionName_V2(t *testing.T) {
	name, ok := CanonicalDimensionName("authenticity", domain.RubricV2)
	assert.True(t, ok)
	assert.Equal(t, "ps_authenticity", name)
}

func TestCanonicalDimensionName_V1(t *testing.T) {
	name, ok := CanonicalDimensionName("ps1_authenticity", domain.RubricV1)
	assert.True(t, ok)
	assert.Equal(t, "ps_authenticity", name)
}

func TestRescaleV2ToV1(t *testing.T) {
	assert.InDelta(t, 1.0, RescaleV2ToV1(1), 1e-9)
	assert.InDelta(t, 5.0, RescaleV2ToV1(4), 1e-9)
}
