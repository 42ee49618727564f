// ABOUTME: OPDS catalog feeds rendered as Atom XML from committed catalog entries
// ABOUTME: Navigation feed at /opds, acquisition feed of recent builds at /opds/recent

package api

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"newsfetch-api/core/domain"
)

const (
	opdsNavigationType  = "application/atom+xml;profile=opds-catalog;kind=navigation"
	opdsAcquisitionType = "application/atom+xml;profile=opds-catalog;kind=acquisition"
	acquisitionRel      = "http://opds-spec.org/acquisition"

	recentWindow  = 30 * 24 * time.Hour
	recentMaxSize = 20
)

type opdsFeed struct {
	XMLName xml.Name    `xml:"feed"`
	XMLNS   string      `xml:"xmlns,attr"`
	OPDS    string      `xml:"xmlns:opds,attr"`
	ID      string      `xml:"id"`
	Title   string      `xml:"title"`
	Updated string      `xml:"updated"`
	Author  *opdsAuthor `xml:"author,omitempty"`
	Links   []opdsLink  `xml:"link"`
	Entries []opdsEntry `xml:"entry"`
}

type opdsAuthor struct {
	Name string `xml:"name"`
}

type opdsLink struct {
	Rel    string `xml:"rel,attr"`
	Href   string `xml:"href,attr"`
	Type   string `xml:"type,attr"`
	Title  string `xml:"title,attr,omitempty"`
	Length string `xml:"length,attr,omitempty"`
}

type opdsEntry struct {
	ID       string        `xml:"id"`
	Title    string        `xml:"title"`
	Updated  string        `xml:"updated"`
	Content  *opdsContent  `xml:"content,omitempty"`
	Summary  string        `xml:"summary,omitempty"`
	Links    []opdsLink    `xml:"link"`
	Category *opdsCategory `xml:"category,omitempty"`
}

type opdsContent struct {
	Type string `xml:"type,attr"`
	Text string `xml:",chardata"`
}

type opdsCategory struct {
	Scheme string `xml:"scheme,attr"`
	Term   string `xml:"term,attr"`
	Label  string `xml:"label,attr"`
}

func (s *Server) handleOPDS(w http.ResponseWriter, r *http.Request) {
	entries, err := s.services.Catalog.List(r.Context(), time.Time{}, 0)
	if err != nil {
		s.writeError(w, err)
		return
	}

	feed := opdsFeed{
		XMLNS:   "http://www.w3.org/2005/Atom",
		OPDS:    "http://opds-spec.org/2010/catalog",
		ID:      "urn:uuid:newsfetch-opds",
		Title:   "Newsfetch EPUB Catalog",
		Updated: time.Now().UTC().Format(time.RFC3339),
		Author:  &opdsAuthor{Name: "Newsfetch"},
		Links: []opdsLink{
			{Rel: "self", Href: "/opds", Type: opdsNavigationType},
			{Rel: "start", Href: "/opds", Type: opdsNavigationType},
		},
	}
	for _, entry := range entries {
		feed.Entries = append(feed.Entries, catalogToOPDS(entry, true))
	}

	writeAtom(w, opdsNavigationType, feed)
}

func (s *Server) handleOPDSRecent(w http.ResponseWriter, r *http.Request) {
	cutoff := time.Now().Add(-recentWindow)
	entries, err := s.services.Catalog.List(r.Context(), cutoff, recentMaxSize)
	if err != nil {
		s.writeError(w, err)
		return
	}

	feed := opdsFeed{
		XMLNS:   "http://www.w3.org/2005/Atom",
		OPDS:    "http://opds-spec.org/2010/catalog",
		ID:      "urn:uuid:newsfetch-recent",
		Title:   "Recent News EPUBs",
		Updated: time.Now().UTC().Format(time.RFC3339),
		Links: []opdsLink{
			{Rel: "self", Href: "/opds/recent", Type: opdsAcquisitionType},
			{Rel: "up", Href: "/opds", Type: opdsNavigationType},
		},
	}
	for _, entry := range entries {
		feed.Entries = append(feed.Entries, catalogToOPDS(entry, false))
	}

	writeAtom(w, opdsAcquisitionType, feed)
}

func catalogToOPDS(entry domain.CatalogEntry, full bool) opdsEntry {
	filename := entry.Path
	if idx := strings.LastIndexByte(filename, '/'); idx >= 0 {
		filename = filename[idx+1:]
	}

	out := opdsEntry{
		ID:      "urn:uuid:epub-" + entry.ID,
		Title:   entry.Title,
		Updated: entry.UpdatedAt.UTC().Format(time.RFC3339),
		Links: []opdsLink{
			{
				Rel:    acquisitionRel,
				Href:   "/epubs/" + filename,
				Type:   "application/epub+zip",
				Title:  "Download EPUB",
				Length: fmt.Sprintf("%d", entry.FileSize),
			},
		},
	}

	date := entry.PublishedAt.Format("January 2, 2006")
	if full {
		out.Content = &opdsContent{Type: "text", Text: "News articles compiled on " + date}
		out.Category = &opdsCategory{
			Scheme: "http://www.bisg.org/standards/bisac_subject/index.html",
			Term:   "NEWS",
			Label:  "News",
		}
	} else {
		out.Summary = "News collection from " + date
	}
	return out
}

func writeAtom(w http.ResponseWriter, contentType string, feed opdsFeed) {
	data, err := xml.Marshal(feed)
	if err != nil {
		http.Error(w, "failed to render feed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(xml.Header))
	w.Write(data)
}
