package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	appLog "freerooms/internal/log"
	"freerooms/internal/model"
)

// ErrFetch marks an upstream calendar that could not be retrieved.
var ErrFetch = errors.New("calendar fetch failed")

// DefaultURLTemplate is the anonymous ADE export. {id}, {first} and {last}
// are substituted per request.
const DefaultURLTemplate = "https://adeapp.bordeaux-inp.fr/jsp/custom/modules/plannings/anonymous_cal.jsp?resources={id}&projectId=1&calType=ical&firstDate={first}&lastDate={last}&displayConfigId=71"

// Source returns the raw calendar text of one room.
type Source interface {
	Fetch(ctx context.Context, res model.Resource) (string, error)
}

// ADEConfig configures an ADESource. Zero values get defaults.
type ADEConfig struct {
	URLTemplate       string
	WindowDays        int
	Timeout           time.Duration
	RequestsPerSecond float64
}

// ADESource fetches room calendars from the ADE planning server.
type ADESource struct {
	client     *http.Client
	template   string
	windowDays int
	limiter    *rate.Limiter
	now        func() time.Time
}

// NewADESource creates a source with its own HTTP client and request pacing.
func NewADESource(cfg ADEConfig) *ADESource {
	if cfg.URLTemplate == "" {
		cfg.URLTemplate = DefaultURLTemplate
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &ADESource{
		client:     &http.Client{Timeout: cfg.Timeout},
		template:   cfg.URLTemplate,
		windowDays: cfg.WindowDays,
		limiter:    rate.NewLimiter(limit, 1),
		now:        time.Now,
	}
}

// Window returns the first and last dates (local calendar days) requested.
func (s *ADESource) Window() (string, string) {
	today := s.now()
	return today.Format(time.DateOnly), today.AddDate(0, 0, s.windowDays).Format(time.DateOnly)
}

// URL renders the request URL for an upstream id.
func (s *ADESource) URL(id int) string {
	first, last := s.Window()
	return strings.NewReplacer(
		"{id}", strconv.Itoa(id),
		"{first}", first,
		"{last}", last,
	).Replace(s.template)
}

// Fetch performs one GET. A timeout or cancelled context is a fetch failure,
// never a partial body.
func (s *ADESource) Fetch(ctx context.Context, res model.Resource) (string, error) {
	if !res.Fetchable() {
		return "", fmt.Errorf("%w: room %s has no upstream calendar", ErrFetch, res.ShortCode)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFetch, res.ShortCode, err)
	}

	u := s.URL(res.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFetch, res.ShortCode, err)
	}

	appLog.Debug("ics fetch start", "room", res.ShortCode, "url", redactURL(u))

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFetch, res.ShortCode, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s: %s", ErrFetch, res.ShortCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %s: read body: %v", ErrFetch, res.ShortCode, err)
	}

	appLog.Info("ics fetch success", "room", res.ShortCode, "bytes", len(body))
	return string(body), nil
}

// redactURL keeps scheme and host only, since templates may embed tokens.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "ics://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
