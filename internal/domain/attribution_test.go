package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestAttributionContext_Merge(t *testing.T) {
	stored := AttributionContext{
		UTMSource:   strPtr("google"),
		UTMCampaign: strPtr("spring"),
		ClickIDs:    ClickIDs{GCLID: strPtr("g-1")},
		Token:       "tok-1",
	}

	stored.Merge(AttributionContext{
		UTMSource: strPtr("facebook"),
		ClickIDs:  ClickIDs{FBCLID: strPtr("fb-1")},
	})

	assert.Equal(t, "facebook", StringValue(stored.UTMSource))
	assert.Equal(t, "spring", StringValue(stored.UTMCampaign))
	assert.Equal(t, "g-1", StringValue(stored.ClickIDs.GCLID))
	assert.Equal(t, "fb-1", StringValue(stored.ClickIDs.FBCLID))
	assert.Nil(t, stored.UTMMedium)
	assert.Equal(t, "tok-1", stored.Token)
}

func TestAttributionContext_MergeToken(t *testing.T) {
	c := AttributionContext{Token: "old"}
	c.Merge(AttributionContext{Token: "new"})
	assert.Equal(t, "new", c.Token)
}

func TestAttributionContext_HasValues(t *testing.T) {
	var nilContext *AttributionContext
	assert.False(t, nilContext.HasValues())
	assert.False(t, (&AttributionContext{}).HasValues())
	assert.True(t, (&AttributionContext{Token: "t"}).HasValues())
	assert.True(t, (&AttributionContext{UTMTerm: strPtr("shoes")}).HasValues())
}
