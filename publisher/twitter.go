package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
	"go.uber.org/zap"
)

const (
	defaultTwitterBaseURL = "https://api.twitter.com"
	createTweetPath       = "/2/tweets"

	defaultRateLimitWait = time.Minute
	maxRateLimitWait     = 15 * time.Minute
	maxRateLimitWaits    = 3
)

// Credentials are the five values the X API needs for user-context posting.
type Credentials struct {
	BearerToken       string `yaml:"bearer_token"`
	ConsumerKey       string `yaml:"consumer_key"`
	ConsumerSecret    string `yaml:"consumer_secret"`
	AccessToken       string `yaml:"access_token"`
	AccessTokenSecret string `yaml:"access_token_secret"`
}

// Missing names the credentials that are empty.
func (c Credentials) Missing() []string {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"bearer_token", c.BearerToken},
		{"consumer_key", c.ConsumerKey},
		{"consumer_secret", c.ConsumerSecret},
		{"access_token", c.AccessToken},
		{"access_token_secret", c.AccessTokenSecret},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

type createTweetReq struct {
	Text string `json:"text"`
}

type createTweetResp struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// TwitterPoster posts through the X API v2, signing requests with OAuth 1.0a user context.
// On 429 it waits for the rate-limit window to reset and retries.
type TwitterPoster struct {
	baseURL         string
	client          *http.Client
	waitOnRateLimit bool
	logger          *zap.Logger
	now             func() time.Time
	sleep           func(ctx context.Context, d time.Duration) error
}

// NewTwitterPoster builds a poster. base carries the transport timeout; nil means 60s.
func NewTwitterPoster(creds Credentials, baseURL string, base *http.Client, logger *zap.Logger) (*TwitterPoster, error) {
	if missing := creds.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrDisabled, strings.Join(missing, ", "))
	}
	if base == nil {
		base = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultTwitterBaseURL
	}

	config := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret)
	ctx := context.WithValue(context.Background(), oauth1.HTTPClient, base)
	client := config.Client(ctx, token)
	client.Timeout = base.Timeout

	return &TwitterPoster{
		baseURL:         baseURL,
		client:          client,
		waitOnRateLimit: true,
		logger:          logger,
		now:             time.Now,
		sleep:           sleepCtx,
	}, nil
}

func (t *TwitterPoster) Platform() string { return "twitter" }

func (t *TwitterPoster) Post(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(createTweetReq{Text: text})
	if err != nil {
		return "", err
	}

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+createTweetPath, bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := t.client.Do(req)
		if err != nil {
			return "", fmt.Errorf("failed to post: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			reset := resp.Header.Get("x-rate-limit-reset")
			resp.Body.Close()
			if !t.waitOnRateLimit || attempt >= maxRateLimitWaits {
				return "", ErrRateLimited
			}
			wait := t.rateLimitWait(reset)
			t.logger.Warn("rate limit exceeded, waiting for reset", zap.Duration("wait", wait), zap.Int("attempt", attempt+1))
			if err := t.sleep(ctx, wait); err != nil {
				return "", err
			}
			continue
		}

		id, err := decodeCreateTweet(resp)
		resp.Body.Close()
		return id, err
	}
}

func decodeCreateTweet(resp *http.Response) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", err
	}
	var data createTweetResp
	decodeErr := json.Unmarshal(raw, &data)

	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{Status: resp.StatusCode, Title: data.Title, Detail: data.Detail}
		if apiErr.Title == "" {
			apiErr.Title = http.StatusText(resp.StatusCode)
		}
		if apiErr.Detail == "" && len(data.Errors) > 0 {
			apiErr.Detail = data.Errors[0].Message
		}
		return "", apiErr
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode response: %w", decodeErr)
	}
	if data.Data.ID == "" {
		return "", errors.New("failed to post: response carries no post id")
	}
	return data.Data.ID, nil
}

// rateLimitWait turns the x-rate-limit-reset header (unix seconds) into a bounded delay.
func (t *TwitterPoster) rateLimitWait(reset string) time.Duration {
	secs, err := strconv.ParseInt(strings.TrimSpace(reset), 10, 64)
	if err != nil {
		return defaultRateLimitWait
	}
	wait := time.Unix(secs, 0).Sub(t.now()) + time.Second
	if wait < time.Second {
		wait = time.Second
	}
	if wait > maxRateLimitWait {
		wait = maxRateLimitWait
	}
	return wait
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
