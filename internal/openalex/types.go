package openalex

// listResponse is the envelope shared by the /authors and /works list endpoints.
type listResponse[T any] struct {
	Meta    listMeta `json:"meta"`
	Results []T      `json:"results"`
}

type listMeta struct {
	Count      int     `json:"count"`
	PerPage    int     `json:"per_page"`
	NextCursor *string `json:"next_cursor"`
}

// Author is the subset of an OpenAlex author record used for identity resolution.
type Author struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	ORCID       string `json:"orcid"`
	WorksCount  int    `json:"works_count"`
}

// Work is the subset of an OpenAlex work record mapped into a publication.Record.
type Work struct {
	ID              string       `json:"id"`
	DOI             string       `json:"doi"`
	Title           string       `json:"title"`
	DisplayName     string       `json:"display_name"`
	PublicationYear int          `json:"publication_year"`
	Authorships     []Authorship `json:"authorships"`
	PrimaryLocation *Location    `json:"primary_location"`
	HostVenue       *HostVenue   `json:"host_venue"`
	OpenAccess      *OpenAccess  `json:"open_access"`
}

// Authorship links a work to one contributor.
type Authorship struct {
	Author *AuthorRef `json:"author"`
}

// AuthorRef is the dehydrated author embedded in an authorship.
type AuthorRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Location is where a work is hosted.
type Location struct {
	LandingPageURL string  `json:"landing_page_url"`
	Source         *Source `json:"source"`
}

// Source is the journal, repository or conference hosting a location.
type Source struct {
	DisplayName string `json:"display_name"`
}

// HostVenue is the legacy venue object still present on older responses.
type HostVenue struct {
	DisplayName string `json:"display_name"`
	URL         string `json:"url"`
}

// OpenAccess describes the best open-access copy.
type OpenAccess struct {
	OAURL string `json:"oa_url"`
}
