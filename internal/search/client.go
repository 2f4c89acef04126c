package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/eventscout-project/eventscout/internal/core"
)

const searchGraphQL = `query EventScoutSearch($query: String!) {
  search(query: $query, version: V3) {
    results {
      limitHit
      results {
        __typename
        ... on FileMatch {
          repository { name }
          file { path }
          lineMatches { preview lineNumber }
        }
      }
    }
  }
}`

const fileContentGraphQL = `query EventScoutFile($repo: String!, $path: String!) {
  repository(name: $repo) {
    commit(rev: "HEAD") {
      file(path: $path) {
        content
      }
    }
  }
}`

// Client queries a Sourcegraph-compatible search API over its GraphQL
// endpoint. One Search call covers up to max_pages escalating count
// requests; the collaborator has no offset cursor, so paging works by
// raising count and dropping already-seen locations.
type Client struct {
	endpoint string
	token    string
	pageSize int
	maxPages int
	http     *http.Client
	logger   zerolog.Logger
}

var _ Searcher = (*Client)(nil)

// NewClient builds a client from the search config section.
func NewClient(cfg core.SearchConfig, logger zerolog.Logger) *Client {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		token:    cfg.Token,
		pageSize: pageSize,
		maxPages: maxPages,
		http:     &http.Client{Timeout: 30 * time.Second},
		logger:   logger.With().Str("component", "search_client").Logger(),
	}
}

// Search runs one query and maps every returned line match to a RawMatch.
func (c *Client) Search(ctx context.Context, q Query) ([]core.RawMatch, error) {
	count := c.pageSize
	seen := make(map[string]bool)
	var out []core.RawMatch

	for page := 1; page <= c.maxPages; page++ {
		matches, limitHit, err := c.searchOnce(ctx, q, count)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			key := m.Location().String()
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, m)
		}
		if !limitHit {
			break
		}
		count += c.pageSize
	}

	c.logger.Debug().
		Str("detector", q.Detector).
		Int("matches", len(out)).
		Msg("search query completed")
	return out, nil
}

// Ping runs a trivial one-result search to confirm the collaborator is
// reachable and the token (if any) is accepted.
func (c *Client) Ping(ctx context.Context) error {
	_, _, err := c.searchOnce(ctx, Query{Fragment: "publish"}, 1)
	return err
}

// FileContent fetches one file's full contents, used to parse payload
// class declarations during schema enrichment.
func (c *Client) FileContent(ctx context.Context, repository, filePath string) (string, error) {
	var result struct {
		Repository *struct {
			Commit *struct {
				File *struct {
					Content string `json:"content"`
				} `json:"file"`
			} `json:"commit"`
		} `json:"repository"`
	}
	vars := map[string]string{"repo": repository, "path": filePath}
	if err := c.graphQL(ctx, fileContentGraphQL, vars, &result); err != nil {
		return "", err
	}
	if result.Repository == nil || result.Repository.Commit == nil || result.Repository.Commit.File == nil {
		return "", fmt.Errorf("%w: %s/%s", ErrNotFound, repository, filePath)
	}
	return result.Repository.Commit.File.Content, nil
}

func (c *Client) searchOnce(ctx context.Context, q Query, count int) ([]core.RawMatch, bool, error) {
	var result struct {
		Search struct {
			Results struct {
				LimitHit bool `json:"limitHit"`
				Results  []struct {
					Typename   string `json:"__typename"`
					Repository struct {
						Name string `json:"name"`
					} `json:"repository"`
					File struct {
						Path string `json:"path"`
					} `json:"file"`
					LineMatches []struct {
						Preview    string `json:"preview"`
						LineNumber int    `json:"lineNumber"`
					} `json:"lineMatches"`
				} `json:"results"`
			} `json:"results"`
		} `json:"search"`
	}
	vars := map[string]string{"query": fmt.Sprintf("%s count:%d", q.String(), count)}
	if err := c.graphQL(ctx, searchGraphQL, vars, &result); err != nil {
		return nil, false, err
	}

	var matches []core.RawMatch
	for _, r := range result.Search.Results.Results {
		if r.Typename != "FileMatch" {
			continue
		}
		for _, lm := range r.LineMatches {
			matches = append(matches, core.RawMatch{
				RepositoryID:     r.Repository.Name,
				FilePath:         r.File.Path,
				LineNumber:       lm.LineNumber + 1, // collaborator lines are zero-based
				SourceLanguage:   guessLanguage(r.File.Path),
				CodeSnippet:      lm.Preview,
				MatchedPatternID: q.Detector,
			})
		}
	}
	return matches, result.Search.Results.LimitHit, nil
}

func (c *Client) graphQL(ctx context.Context, query string, variables map[string]string, out interface{}) error {
	body, err := json.Marshal(map[string]interface{}{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("encoding search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint+"/.api/graphql", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "eventscout/1.0")
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return err
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decoding search response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("%w: %s", ErrUnavailable, envelope.Errors[0].Message)
	}
	if len(envelope.Data) == 0 {
		return nil
	}
	return json.Unmarshal(envelope.Data, out)
}

func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func classifyStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: HTTP %d", ErrRateLimited, code)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: HTTP %d", ErrNotFound, code)
	case code >= 500:
		return fmt.Errorf("%w: HTTP %d", ErrUnavailable, code)
	default:
		return fmt.Errorf("search: unexpected HTTP %d", code)
	}
}

var extLanguages = map[string]string{
	".py":    "python",
	".js":    "javascript",
	".ts":    "typescript",
	".java":  "java",
	".go":    "go",
	".cs":    "csharp",
	".rb":    "ruby",
	".scala": "scala",
	".kt":    "kotlin",
}

func guessLanguage(filePath string) string {
	return extLanguages[strings.ToLower(path.Ext(filePath))]
}
