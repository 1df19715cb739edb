package openalex

import (
	"strconv"
	"strings"

	"github.com/JakeFAU/pubharvest/internal/publication"
)

const doiResolver = "https://doi.org/"

var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi:",
}

// MapWork projects an OpenAlex work onto a publication.Record. Missing fields become "".
func MapWork(w Work) publication.Record {
	title := w.Title
	if title == "" {
		title = w.DisplayName
	}
	year := ""
	if w.PublicationYear > 0 {
		year = strconv.Itoa(w.PublicationYear)
	}
	return publication.Record{
		Title:   publication.CleanText(title),
		Authors: joinAuthors(w.Authorships),
		Venue:   publication.StripYear(venue(w), year),
		Year:    year,
		URL:     workURL(w),
	}
}

func joinAuthors(authorships []Authorship) string {
	names := make([]string, 0, len(authorships))
	for _, a := range authorships {
		if a.Author == nil {
			continue
		}
		if name := publication.CleanText(a.Author.DisplayName); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

func venue(w Work) string {
	if w.PrimaryLocation != nil && w.PrimaryLocation.Source != nil && w.PrimaryLocation.Source.DisplayName != "" {
		return w.PrimaryLocation.Source.DisplayName
	}
	if w.HostVenue != nil {
		return w.HostVenue.DisplayName
	}
	return ""
}

// workURL picks the venue URL, then the open-access copy, then the DOI resolver,
// then the work's own OpenAlex ID.
func workURL(w Work) string {
	if w.HostVenue != nil && w.HostVenue.URL != "" {
		return w.HostVenue.URL
	}
	if w.PrimaryLocation != nil && w.PrimaryLocation.LandingPageURL != "" {
		return w.PrimaryLocation.LandingPageURL
	}
	if w.OpenAccess != nil && w.OpenAccess.OAURL != "" {
		return w.OpenAccess.OAURL
	}
	if doi := normalizeDOI(w.DOI); doi != "" {
		return doiResolver + doi
	}
	return w.ID
}

func normalizeDOI(raw string) string {
	doi := strings.TrimSpace(raw)
	lower := strings.ToLower(doi)
	for _, prefix := range doiPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return doi[len(prefix):]
		}
	}
	return doi
}
