package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltInPoliciesAreValid(t *testing.T) {
	require.NoError(t, JudgedPolicy().Validate())
	require.NoError(t, AttributePolicy().Validate())
}

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("")
	require.NoError(t, err)
	assert.Equal(t, PolicyJudged, p.Name)

	p, err = PolicyByName("attribute")
	require.NoError(t, err)
	assert.Equal(t, 0.2, p.CategoryWeight)

	_, err = PolicyByName("weighted-vibes")
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestPolicyValidate(t *testing.T) {
	p := JudgedPolicy()
	p.TextWeight = 0.5
	assert.ErrorIs(t, p.Validate(), ErrInvalidPolicy)

	p = JudgedPolicy()
	p.TimeWeight, p.CategoryWeight = -0.05, 0.2
	assert.ErrorIs(t, p.Validate(), ErrInvalidPolicy)

	p = JudgedPolicy()
	p.Name = "other"
	assert.ErrorIs(t, p.Validate(), ErrInvalidPolicy)

	p = JudgedPolicy()
	p.LateReportWindow = -time.Hour
	assert.ErrorIs(t, p.Validate(), ErrInvalidPolicy)

	p.LateReportWindow = 0
	assert.NoError(t, p.Validate(), "zero forbids finds that predate the loss")
}
