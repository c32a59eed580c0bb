package exclude

// defaultPatterns are URL patterns that are never worth probing. Most entries
// fall into one of three buckets: hosts that block non-browser clients, pages
// behind consent or login walls, and archival mirrors that are stable by
// construction. Kept in rough alphabetical order by host.
var defaultPatterns = []string{
	`https?://.*\.archive\.org(/.*)?`,
	`https?://archive\.(org|today|ph|is)(/.*)?`,
	`https?://.*[\./@]booking\.com(/.*)?`,
	`https?://catalog\.hathitrust\.org(/.*)?`,
	`https?://.*[\./@]deutsche-biographie\.de(/.*)?`,
	`https?://.*[\./@]doi\.org(/.*)?`,
	`https?://.*[\./@]facebook\.com(/.*)?`,
	`https?://.*[\./@]gallica\.bnf\.fr(/.*)?`,
	`https?://.*[\./@]geni\.com(/.*)?`,
	`https?://.*[\./@]glassdoor\.(com|de)(/.*)?`,
	`https?://.*[\./@]google\.(com|pl|de)/books.*`,
	`https?://books\.google\.[a-z.]+(/.*)?`,
	`https?://.*[\./@]imdb\.com(/.*)?`,
	`https?://.*[\./@]instagram\.com(/.*)?`,
	`https?://.*[\./@]jstor\.org(/.*)?`,
	`https?://.*[\./@]linkedin\.com(/.*)?`,
	`https?://.*[\./@]nature\.com(/.*)?`,
	`https?://.*[\./@]nytimes\.com(/.*)?`,
	`https?://.*[\./@]oxforddnb\.com(/.*)?`,
	`https?://.*[\./@]patreon\.com(/.*)?`,
	`https?://.*[\./@]reddit\.com(/.*)?`,
	`https?://.*[\./@]researchgate\.net(/.*)?`,
	`https?://.*[\./@]sciencedirect\.com(/.*)?`,
	`https?://.*[\./@]spotify\.com(/.*)?`,
	`https?://.*[\./@]springer\.com(/.*)?`,
	`https?://.*[\./@]t\.me(/.*)?`,
	`https?://.*[\./@]tandfonline\.com(/.*)?`,
	`https?://.*[\./@]ticketmaster\.(com|pl)(/.*)?`,
	`https?://.*[\./@]tiktok\.com(/.*)?`,
	`https?://(www\.)?twitter\.com(/.*)?`,
	`https?://(www\.)?x\.com(/.*)?`,
	`https?://webcache\.googleusercontent\.com(/.*)?`,
	`https?://.*[\./@]wiley\.com(/.*)?`,
	`https?://.*[\./@]worldcat\.org(/.*)?`,
	`https?://(www\.)?youtube\.com/watch.*`,
	`https?://youtu\.be(/.*)?`,
	`https?://.*[\./@]zillow\.com(/.*)?`,
}
