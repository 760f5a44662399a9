package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// CatalogSource downloads the catalog pages listing semesters and programs.
type CatalogSource struct {
	client *Client
	lang   string
}

// NewCatalogSource creates a catalog source for the given site language.
func NewCatalogSource(client *Client, lang string) *CatalogSource {
	if lang == "" {
		lang = "lv"
	}
	return &CatalogSource{client: client, lang: lang}
}

// FetchCatalog returns the main page markup. A positive semesterID selects
// that semester so the program list is rendered for it.
func (s *CatalogSource) FetchCatalog(ctx context.Context, semesterID int) (string, error) {
	if semesterID < 0 {
		return "", fmt.Errorf("%w: semester id %d", ErrInvalidParameter, semesterID)
	}
	q := url.Values{"lang": {s.lang}}
	if semesterID > 0 {
		q.Set("semesterId", strconv.Itoa(semesterID))
	}
	body, err := s.client.Get(ctx, "/", q)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchSemesterMetadata returns the start and end dates of a semester.
func (s *CatalogSource) FetchSemesterMetadata(ctx context.Context, semesterID int) (SemesterMetadata, error) {
	if semesterID <= 0 {
		return SemesterMetadata{}, fmt.Errorf("%w: semester id %d", ErrInvalidParameter, semesterID)
	}
	var meta SemesterMetadata
	form := url.Values{"semesterId": {strconv.Itoa(semesterID)}}
	if err := s.client.postJSON(ctx, "getChousenSemesterStartEndDate", form, &meta); err != nil {
		return SemesterMetadata{}, err
	}
	return meta, nil
}
