package medapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/md-rashed-zaman/medportal/libs/httpx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
	// RatePerSecond caps outgoing calls; zero disables the limit.
	RatePerSecond float64
	Burst         int
	// Transport overrides the default transport (tests).
	Transport http.RoundTripper
}

// Client talks to the remote medical REST API. Every call is scoped to the
// bearer token of the patient it acts for.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("medapi: invalid base url %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(httpx.RequestIDTransport{Base: transport}),
		},
		limiter: rate.NewLimiter(limit, cfg.Burst),
	}, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var out LoginResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", body, &out); err != nil {
		return LoginResult{}, err
	}
	if out.Token == "" {
		return LoginResult{}, errors.New("medapi: login response without token")
	}
	return out, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	if req.Role == "" {
		req.Role = "user"
	}
	return c.do(ctx, http.MethodPost, "/api/auth/register", "", req, nil)
}

// Me resolves the user behind token.
func (c *Client) Me(ctx context.Context, token string) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", token, nil, &out); err != nil {
		return User{}, err
	}
	return out.User, nil
}

// Doctors accepts both a bare array and a {"doctors": [...]} envelope.
func (c *Client) Doctors(ctx context.Context, token string) ([]Doctor, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/doctor", token, nil, &raw); err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	if raw[0] == '[' {
		var doctors []Doctor
		if err := json.Unmarshal(raw, &doctors); err != nil {
			return nil, fmt.Errorf("medapi: decode doctors: %w", err)
		}
		return doctors, nil
	}
	var envelope struct {
		Doctors []Doctor `json:"doctors"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("medapi: decode doctors: %w", err)
	}
	return envelope.Doctors, nil
}

func (c *Client) Doctor(ctx context.Context, token, id string) (Doctor, error) {
	var out Doctor
	err := c.do(ctx, http.MethodGet, "/api/doctor/"+url.PathEscape(id), token, nil, &out)
	return out, err
}

// DoctorAppointments lists every appointment booked with a doctor.
func (c *Client) DoctorAppointments(ctx context.Context, token, doctorID string) ([]Appointment, error) {
	var out []Appointment
	err := c.do(ctx, http.MethodGet, "/api/appointment/doctor/"+url.PathEscape(doctorID), token, nil, &out)
	return out, err
}

func (c *Client) UserAppointments(ctx context.Context, token, userID string) ([]Appointment, error) {
	var out []Appointment
	err := c.do(ctx, http.MethodGet, "/api/appointment/user/"+url.PathEscape(userID), token, nil, &out)
	return out, err
}

func (c *Client) CreateAppointment(ctx context.Context, token string, req CreateAppointmentRequest) (Appointment, error) {
	var out Appointment
	if err := c.do(ctx, http.MethodPost, "/api/appointment/", token, req, &out); err != nil {
		return Appointment{}, err
	}
	return out, nil
}

func (c *Client) CancelAppointment(ctx context.Context, token, appointmentID, requesterID, requesterRole string) error {
	body := map[string]string{"requesterId": requesterID, "requesterRole": requesterRole}
	return c.do(ctx, http.MethodPut, "/api/appointment/"+url.PathEscape(appointmentID)+"/cancel", token, body, nil)
}

func (c *Client) DeleteAppointment(ctx context.Context, token, appointmentID string) error {
	return c.do(ctx, http.MethodDelete, "/api/appointment/"+url.PathEscape(appointmentID), token, nil, nil)
}

func (c *Client) GetUser(ctx context.Context, token, userID string) (User, error) {
	var out User
	err := c.do(ctx, http.MethodGet, "/api/user/"+url.PathEscape(userID), token, nil, &out)
	return out, err
}

func (c *Client) UpdateUser(ctx context.Context, token, userID string, update ProfileUpdate) error {
	return c.do(ctx, http.MethodPut, "/api/user/"+url.PathEscape(userID), token, update, nil)
}

func (c *Client) DeleteUser(ctx context.Context, token, userID string) error {
	return c.do(ctx, http.MethodDelete, "/api/user/"+url.PathEscape(userID), token, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("medapi: rate limit: %w", err)
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("medapi: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("medapi: read %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("medapi: decode %s: %w", path, err)
	}
	return nil
}
