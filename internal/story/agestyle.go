package story

// StyleForAge maps a reader age bracket to the illustration style
// descriptor embedded in image prompts. Unknown brackets fall back to
// the oldest band.
func StyleForAge(age AgeGroup) string {
	switch age {
	case AgeGroupBaby:
		return "high-contrast minimal shapes, bold primary colors, very simple forms, soft rounded edges, baby-friendly"
	case AgeGroupToddler:
		return "cute, soft pastel colors, simple shapes, cartoon style, storybook illustration, whimsical, very friendly"
	case AgeGroupKid:
		return "vibrant colors, detailed children's book illustration, watercolor style, magical atmosphere"
	default:
		return "atmospheric fantasy art, soft lighting, rich detail, slightly more mature storybook style"
	}
}
