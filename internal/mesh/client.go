// Package mesh looks up MeSH descriptors of papers by title.
//
// The lookup is a collaborator of the keyword pipeline: it is slow, rate
// limited and allowed to fail, so every error is contained to the title that
// caused it. The PubMed E-utilities client searches for the exact quoted
// title first, then for the bare title, and accepts the first of the top
// three candidates whose title shares more than MinTitleOverlap of the query
// words.
package mesh

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/chriscorrea/kwcanon/internal/fetch"
)

// DefaultBaseURL is the PubMed E-utilities endpoint.
const DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

const (
	searchLimit    = 5
	candidateLimit = 3
	maxBodyBytes   = 8 * 1024 * 1024
)

// Descriptor is one MeSH heading.
type Descriptor struct {
	Name  string
	UI    string
	Major bool
}

// Fetcher returns the MeSH descriptors of the paper with the given title. A
// nil slice with a nil error means no matching paper was found.
type Fetcher interface {
	Fetch(ctx context.Context, title string) ([]Descriptor, error)
}

// Article is the part of a PubMed record the lookup needs.
type Article struct {
	PMID        string
	Title       string
	Descriptors []Descriptor
}

// Client queries PubMed E-utilities.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	Retry   RetryConfig
	// Delay is the minimum time between two requests.
	Delay time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewClient returns a client for baseURL with the default retry policy. An
// empty baseURL selects DefaultBaseURL.
func NewClient(baseURL, apiKey string, delay time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    fetch.NewHTTPClient(),
		Retry:   DefaultRetryConfig(),
		Delay:   delay,
	}
}

// Fetch implements Fetcher.
func (c *Client) Fetch(ctx context.Context, title string) ([]Descriptor, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}

	var out []Descriptor
	err := retry(ctx, c.Retry, func() error {
		var err error
		out, err = c.lookup(ctx, title)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("MeSH lookup for %q: %w", truncate(title, 50), err)
	}
	return out, nil
}

func (c *Client) lookup(ctx context.Context, title string) ([]Descriptor, error) {
	pmids, err := c.Search(ctx, `"`+title+`"`)
	if err != nil {
		return nil, err
	}
	if len(pmids) == 0 {
		if pmids, err = c.Search(ctx, title); err != nil {
			return nil, err
		}
	}
	if len(pmids) > candidateLimit {
		pmids = pmids[:candidateLimit]
	}

	for _, pmid := range pmids {
		art, err := c.Article(ctx, pmid)
		if err != nil {
			return nil, err
		}
		overlap := TitleOverlap(title, art.Title)
		slog.Debug("MeSH candidate", "pmid", pmid, "overlap", overlap, "descriptors", len(art.Descriptors))
		if overlap > MinTitleOverlap && len(art.Descriptors) > 0 {
			return art.Descriptors, nil
		}
	}
	return nil, nil
}

type esearchResponse struct {
	Result struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// Search returns up to 5 PubMed ids matching term.
func (c *Client) Search(ctx context.Context, term string) ([]string, error) {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("term", term)
	q.Set("retmax", fmt.Sprint(searchLimit))
	q.Set("retmode", "json")

	body, err := c.get(ctx, "esearch.fcgi", q)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var resp esearchResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("invalid esearch response: %w", err)
	}
	return resp.Result.IDList, nil
}

// Article fetches the title and MeSH headings of one PubMed record.
func (c *Client) Article(ctx context.Context, pmid string) (*Article, error) {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("id", pmid)
	q.Set("retmode", "xml")

	body, err := c.get(ctx, "efetch.fcgi", q)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	art, err := parseArticle(body)
	if err != nil {
		return nil, fmt.Errorf("invalid efetch response for %s: %w", pmid, err)
	}
	art.PMID = pmid
	return art, nil
}

// parseArticle reads the first PubmedArticle of an efetch XML document.
func parseArticle(r io.Reader) (*Article, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	// element names are lowercased by the parser
	art := doc.Find("pubmedarticle").First()
	if art.Length() == 0 {
		art = doc.Selection
	}

	a := &Article{Title: strings.TrimSpace(art.Find("articletitle").First().Text())}
	art.Find("meshheadinglist meshheading descriptorname").Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(s.Text())
		if name == "" {
			return
		}
		ui, _ := s.Attr("ui")
		major, _ := s.Attr("majortopicyn")
		a.Descriptors = append(a.Descriptors, Descriptor{Name: name, UI: ui, Major: major == "Y"})
	})
	return a, nil
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values) (io.ReadCloser, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	if c.APIKey != "" {
		q.Set("api_key", c.APIKey)
	}

	u := c.BaseURL + "/" + endpoint + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", fetch.UserAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		err := fmt.Errorf("%s: status %d", endpoint, resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, permanent(err)
		}
		return nil, err
	}

	return struct {
		io.Reader
		io.Closer
	}{io.LimitReader(resp.Body, maxBodyBytes), resp.Body}, nil
}

// wait blocks until Delay has passed since the previous request.
func (c *Client) wait(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Delay > 0 && !c.last.IsZero() {
		if d := c.Delay - time.Since(c.last); d > 0 {
			timer := time.NewTimer(d)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	c.last = time.Now()
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
