package domain

// ClickIDs are ad platform click identifiers captured from landing URLs.
type ClickIDs struct {
	FBCLID *string `json:"fbclid"`
	GCLID  *string `json:"gclid"`
	TTCLID *string `json:"ttclid"`
}

// AttributionContext is the marketing source of one client session.
type AttributionContext struct {
	UTMSource   *string  `json:"utm_source"`
	UTMMedium   *string  `json:"utm_medium"`
	UTMCampaign *string  `json:"utm_campaign"`
	UTMTerm     *string  `json:"utm_term"`
	UTMContent  *string  `json:"utm_content"`
	ClickIDs    ClickIDs `json:"click_ids"`
	Token       string   `json:"token"`
}

// HasValues reports whether any field, the token included, is set.
func (c *AttributionContext) HasValues() bool {
	if c == nil {
		return false
	}
	for _, v := range c.fields() {
		if *v != nil {
			return true
		}
	}
	return c.Token != ""
}

// Merge copies every non-nil field of newer over c. Nil fields in newer
// never clear a value already held by c.
func (c *AttributionContext) Merge(newer AttributionContext) {
	dst := c.fields()
	src := newer.fields()
	for i := range dst {
		if *src[i] != nil {
			*dst[i] = *src[i]
		}
	}
	if newer.Token != "" {
		c.Token = newer.Token
	}
}

func (c *AttributionContext) fields() []**string {
	return []**string{
		&c.UTMSource,
		&c.UTMMedium,
		&c.UTMCampaign,
		&c.UTMTerm,
		&c.UTMContent,
		&c.ClickIDs.FBCLID,
		&c.ClickIDs.GCLID,
		&c.ClickIDs.TTCLID,
	}
}

// StringValue dereferences s, returning "" for nil.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
