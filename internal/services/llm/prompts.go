package llm

const (
	healthSystemPrompt = "You must respond with JSON only."
	healthUserPrompt   = `Respond with {"ok":true}`

	metadataSystemPrompt = `You are a YouTube SEO expert writing metadata for a video upload.

Respond with a single JSON object and nothing else:
{"title": "...", "description": "...", "tags": ["...", "..."]}

Rules:
- title: catchy and search friendly, at most 100 characters, no clickbait.
- description: 300 to 500 words rich in natural keywords. Add a timestamps
  placeholder when the video sounds long, end with relevant hashtags, and
  include a call to action asking viewers to like, subscribe and comment.
- tags: 10 to 15 keywords or short phrases that help discoverability.`

	tagsSystemPrompt = `You generate YouTube tags that maximize discoverability.

Respond with a single JSON object and nothing else:
{"tags": ["...", "..."]}

Rules:
- exactly 15 tags mixing broad and specific keywords, including long-tail phrases.
- plain keywords only, no hashtags.
- each tag at most 30 characters.`

	descriptionSystemPrompt = `You improve YouTube video descriptions for search and engagement.

Keep the original meaning but make the text more professional and easier to
discover: use natural keywords, add relevant hashtags and a call to action,
and keep it engaging and informative. Stay under 5000 characters.

Reply with the improved description only, without commentary or formatting
fences.`
)
