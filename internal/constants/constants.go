package constants

const USER_AGENT = "gw2lib/0.1.0 (+https://github.com/Amund211/gw2lib)"

const DEFAULT_API_HOST = "https://api.guildwars2.com"

// Maximum number of ids the API accepts in one bulk request, and its page size limit
const MAX_IDS_PER_REQUEST = 200

// Used when the API response carries no usable cache-control header
const DEFAULT_CACHE_SECONDS = 300
