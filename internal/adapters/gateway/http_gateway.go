package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/habitloop/stats-engine/internal/core/domain"
)

var (
	_ domain.RemoteGateway  = (*Client)(nil)
	_ domain.SnapshotMirror = (*Client)(nil)
)

const defaultRequestTimeout = 15 * time.Second

// Client talks to the platform API over HTTP. Every response decodes
// through tagged wire records so defaults and validation happen here,
// before anything reaches the core.
type Client struct {
	baseURL  string
	token    string
	http     *http.Client
	validate *validator.Validate
	logger   *zap.Logger
}

func NewClient(baseURL, token string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		http:     &http.Client{Timeout: timeout},
		validate: validator.New(),
		logger:   logger,
	}
}

type habitRecord struct {
	ID           string     `json:"id" validate:"required"`
	UserID       string     `json:"user_id"`
	Title        string     `json:"title"`
	Kind         string     `json:"kind"`
	TargetValue  int        `json:"target_value"`
	Frequency    string     `json:"frequency"`
	Weekdays     []int      `json:"weekdays"`
	IntervalDays int        `json:"interval_days"`
	StartDate    *time.Time `json:"start_date"`
	CreatedAt    time.Time  `json:"created_at" validate:"required"`
	ArchivedAt   *time.Time `json:"archived_at"`
}

type completionRecord struct {
	ID         string    `json:"id"`
	HabitID    string    `json:"habit_id" validate:"required"`
	UserID     string    `json:"user_id"`
	Date       time.Time `json:"date" validate:"required"`
	Value      int       `json:"value"`
	RecordedAt time.Time `json:"recorded_at"`
}

type habitsResponse struct {
	UserID string        `json:"user_id" validate:"required"`
	Habits []habitRecord `json:"habits"`
}

type completionsResponse struct {
	Completions []completionRecord `json:"completions"`
}

type cachePayload struct {
	UserID     string                    `json:"user_id"`
	Scope      domain.Scope              `json:"scope"`
	Date       string                    `json:"date"`
	Stats      domain.ComputedStatistics `json:"stats"`
	ValidUntil time.Time                 `json:"valid_until"`
}

func (c *Client) FetchHabits(ctx context.Context) ([]domain.Habit, string, error) {
	var payload habitsResponse
	if err := c.get(ctx, "/api/v1/habits", nil, &payload); err != nil {
		return nil, "", err
	}
	if err := c.validate.Struct(payload); err != nil {
		return nil, "", fmt.Errorf("%w: habits payload: %v", domain.ErrServerError, err)
	}

	habits := make([]domain.Habit, 0, len(payload.Habits))
	for _, rec := range payload.Habits {
		if err := c.validate.Struct(rec); err != nil {
			c.logger.Warn("dropping invalid habit record", zap.String("habit_id", rec.ID), zap.Error(err))
			continue
		}

		h := rec.toDomain()
		h.Normalize()
		habits = append(habits, h)
	}

	c.logger.Debug("fetched habits", zap.Int("count", len(habits)), zap.String("user_id", payload.UserID))
	return habits, payload.UserID, nil
}

func (c *Client) FetchCompletions(ctx context.Context, since time.Time) ([]domain.Completion, error) {
	query := url.Values{}
	if !since.IsZero() {
		query.Set("since", since.UTC().Format(time.RFC3339))
	}

	var payload completionsResponse
	if err := c.get(ctx, "/api/v1/completions", query, &payload); err != nil {
		return nil, err
	}

	completions := make([]domain.Completion, 0, len(payload.Completions))
	for _, rec := range payload.Completions {
		if err := c.validate.Struct(rec); err != nil {
			c.logger.Warn("dropping invalid completion record", zap.String("id", rec.ID), zap.Error(err))
			continue
		}
		completions = append(completions, rec.toDomain())
	}

	c.logger.Debug("fetched completions", zap.Int("count", len(completions)), zap.Time("since", since))
	return completions, nil
}

func (c *Client) SetServerCache(ctx context.Context, ownerID string, scope domain.Scope, dateKey string, stats domain.ComputedStatistics, validUntil time.Time) error {
	body, err := json.Marshal(cachePayload{
		UserID:     ownerID,
		Scope:      scope,
		Date:       dateKey,
		Stats:      stats,
		ValidUntil: validUntil,
	})
	if err != nil {
		return fmt.Errorf("encode cache payload: %w", err)
	}

	return c.send(ctx, http.MethodPost, "/api/v1/stats-cache", body)
}

func (c *Client) Ping(ctx context.Context) error {
	return c.send(ctx, http.MethodGet, "/health", nil)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", domain.ErrServerError, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body []byte) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUnreachable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return classifyStatus(resp.StatusCode)
}

func (c *Client) decorate(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// classifyStatus folds HTTP statuses into the gateway error taxonomy:
// 401 means the session is invalid, anything else above 399 is the
// server's problem.
func classifyStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return domain.ErrUnauthenticated
	case status >= 400:
		return fmt.Errorf("%w: status %d", domain.ErrServerError, status)
	}
	return nil
}

func (r habitRecord) toDomain() domain.Habit {
	h := domain.Habit{
		ID:           r.ID,
		UserID:       r.UserID,
		Title:        r.Title,
		Kind:         r.Kind,
		TargetValue:  r.TargetValue,
		Frequency:    r.Frequency,
		Weekdays:     r.Weekdays,
		IntervalDays: r.IntervalDays,
		CreatedAt:    r.CreatedAt,
		ArchivedAt:   r.ArchivedAt,
	}
	if r.StartDate != nil {
		h.StartDate = *r.StartDate
	}
	return h
}

func (r completionRecord) toDomain() domain.Completion {
	return domain.Completion{
		ID:         r.ID,
		HabitID:    r.HabitID,
		UserID:     r.UserID,
		Date:       domain.NormalizeDay(r.Date),
		Value:      r.Value,
		RecordedAt: r.RecordedAt,
	}
}
