// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/pharma-agent/internal/httputil"
	"github.com/pdiddy/pharma-agent/pkg/types"
)

// E-utilities endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	pubmedSearchBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	pubmedFetchBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
)

// PubMedSource queries PubMed through the NCBI E-utilities in two phases:
// esearch for PMIDs, then efetch for article details. A scoped variant
// (NEJM) narrows the query with a fixed filter and relabels its results;
// retrieval and parsing are otherwise identical.
type PubMedSource struct {
	Client    *http.Client
	UserAgent string
	// APIKey is an optional E-utilities key for higher rate limits.
	APIKey string

	// ScopeFilter is ANDed onto every query when non-empty.
	ScopeFilter string
	// Label overrides the source tag on results. Zero value means PubMed.
	Label types.SourceTag
}

// NewNEJMSource returns a PubMed source scoped to the New England Journal of
// Medicine, relabelling its results as NEJM.
func NewNEJMSource(client *http.Client, userAgent, apiKey string) *PubMedSource {
	return &PubMedSource{
		Client:      client,
		UserAgent:   userAgent,
		APIKey:      apiKey,
		ScopeFilter: `"The New England Journal of Medicine"[Journal]`,
		Label:       types.SourceNEJM,
	}
}

// Name returns the source tag.
func (s *PubMedSource) Name() types.SourceTag {
	if s.Label != "" {
		return s.Label
	}
	return types.SourcePubMed
}

// Search runs the esearch/efetch pair and shapes each article into a RawRecord.
func (s *PubMedSource) Search(ctx context.Context, query string, limit int) ([]types.RawRecord, error) {
	if limit <= 0 {
		limit = 3
	}
	if s.ScopeFilter != "" {
		query = query + " AND " + s.ScopeFilter
	}

	ids, err := s.searchIDs(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	return s.fetchArticles(ctx, ids)
}

// searchIDs resolves the query to a list of PMIDs sorted by relevance.
func (s *PubMedSource) searchIDs(ctx context.Context, query string, limit int) ([]string, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {query},
		"retmode": {"json"},
		"retmax":  {strconv.Itoa(limit)},
		"sort":    {"relevance"},
	}
	if s.APIKey != "" {
		params.Set("api_key", s.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pubmedSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating esearch request: %w", err)
	}
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("PubMed esearch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("PubMed esearch returned HTTP %d", resp.StatusCode)
	}

	var sr esearchResult
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing esearch response: %w", err)
	}
	return sr.Result.IDList, nil
}

// fetchArticles retrieves article XML for the given PMIDs.
func (s *PubMedSource) fetchArticles(ctx context.Context, ids []string) ([]types.RawRecord, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"xml"},
	}
	if s.APIKey != "" {
		params.Set("api_key", s.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pubmedFetchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating efetch request: %w", err)
	}
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("PubMed efetch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("PubMed efetch returned HTTP %d", resp.StatusCode)
	}

	var set pubmedArticleSet
	if err := xml.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("parsing efetch response: %w", err)
	}

	tag := s.Name()
	var records []types.RawRecord
	for _, article := range set.Articles {
		pmid := strings.TrimSpace(article.Citation.PMID)
		if pmid == "" {
			continue
		}

		var abstractParts []string
		for _, txt := range article.Citation.Article.Abstract.Texts {
			if t := strings.TrimSpace(txt.Text); t != "" {
				abstractParts = append(abstractParts, t)
			}
		}

		year := strings.TrimSpace(article.Citation.Article.Journal.Issue.PubDate.Year)
		if year == "" {
			year = "N/A"
		}

		records = append(records, types.RawRecord{
			ID:       pmid,
			Source:   tag,
			Title:    strings.TrimSpace(article.Citation.Article.Title),
			URL:      "https://pubmed.ncbi.nlm.nih.gov/" + pmid + "/",
			Abstract: strings.Join(abstractParts, " "),
			Journal:  strings.TrimSpace(article.Citation.Article.Journal.Title),
			Year:     year,
		})
	}
	return records, nil
}

// esearch JSON structures.
type esearchResult struct {
	Result esearchIDs `json:"esearchresult"`
}

type esearchIDs struct {
	IDList []string `json:"idlist"`
}

// efetch XML structures.
type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation medlineCitation `xml:"MedlineCitation"`
}

type medlineCitation struct {
	PMID    string        `xml:"PMID"`
	Article articleDetail `xml:"Article"`
}

type articleDetail struct {
	Title    string          `xml:"ArticleTitle"`
	Abstract articleAbstract `xml:"Abstract"`
	Journal  articleJournal  `xml:"Journal"`
}

type articleAbstract struct {
	Texts []abstractText `xml:"AbstractText"`
}

type abstractText struct {
	Text string `xml:",chardata"`
}

type articleJournal struct {
	Title string       `xml:"Title"`
	Issue journalIssue `xml:"JournalIssue"`
}

type journalIssue struct {
	PubDate pubDate `xml:"PubDate"`
}

type pubDate struct {
	Year string `xml:"Year"`
}
