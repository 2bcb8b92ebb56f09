package trivia

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"sync"
	"time"

	"trivia-host-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

const DefaultBaseURL = "https://opentdb.com"

// Category is one entry of the upstream category dictionary.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type questionsResponse struct {
	ResponseCode int `json:"response_code"`
	Results      []struct {
		Category         string   `json:"category"`
		Question         string   `json:"question"`
		CorrectAnswer    string   `json:"correct_answer"`
		IncorrectAnswers []string `json:"incorrect_answers"`
		Difficulty       string   `json:"difficulty"`
		Type             string   `json:"type"`
	} `json:"results"`
}

type categoriesResponse struct {
	TriviaCategories []Category `json:"trivia_categories"`
}

// Client talks to an Open Trivia DB compatible question bank over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	sf      singleflight.Group

	mu         sync.RWMutex
	categories []Category
	catExpiry  time.Time
	catTTL     time.Duration
}

func NewClient(baseURL string, catTTL time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		catTTL:  catTTL,
	}
}

// FetchQuestions downloads amount questions for a category. Fewer results than
// requested, a non-zero upstream response code, or any transport failure all
// surface as UPSTREAM_UNAVAILABLE.
func (c *Client) FetchQuestions(ctx context.Context, categoryID, amount int) ([]domain.SourceQuestion, error) {
	endpoint := fmt.Sprintf("%s/api.php?category=%d&amount=%d", c.baseURL, categoryID, amount)

	var decoded questionsResponse
	if err := c.getJSON(ctx, endpoint, &decoded); err != nil {
		return nil, domain.NewError(domain.UpstreamUnavailable, fmt.Sprintf("question source unreachable: %v", err))
	}
	if decoded.ResponseCode != 0 || len(decoded.Results) < amount {
		return nil, domain.NewError(domain.UpstreamUnavailable,
			fmt.Sprintf("question source returned %d of %d questions for category %d", len(decoded.Results), amount, categoryID))
	}

	questions := make([]domain.SourceQuestion, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		incorrect := make([]string, 0, len(r.IncorrectAnswers))
		for _, a := range r.IncorrectAnswers {
			incorrect = append(incorrect, html.UnescapeString(a))
		}
		questions = append(questions, domain.SourceQuestion{
			Category:         html.UnescapeString(r.Category),
			Text:             html.UnescapeString(r.Question),
			CorrectAnswer:    html.UnescapeString(r.CorrectAnswer),
			IncorrectAnswers: incorrect,
		})
	}
	return questions, nil
}

// Categories returns the upstream category dictionary, cached with a TTL.
// Concurrent cache misses collapse into one upstream request.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	c.mu.RLock()
	if c.categories != nil && time.Now().Before(c.catExpiry) {
		cats := c.categories
		c.mu.RUnlock()
		return cats, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("categories", func() (interface{}, error) {
		c.mu.RLock()
		if c.categories != nil && time.Now().Before(c.catExpiry) {
			cats := c.categories
			c.mu.RUnlock()
			return cats, nil
		}
		c.mu.RUnlock()

		var decoded categoriesResponse
		if err := c.getJSON(ctx, c.baseURL+"/api_category.php", &decoded); err != nil {
			return nil, domain.NewError(domain.UpstreamUnavailable, fmt.Sprintf("category list unreachable: %v", err))
		}

		c.mu.Lock()
		c.categories = decoded.TriviaCategories
		c.catExpiry = time.Now().Add(c.catTTL)
		c.mu.Unlock()
		return decoded.TriviaCategories, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]Category), nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
