package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ghusers/ghusers/internal/search"
)

const (
	defaultHTTPAddr      = ":8080"
	defaultGitHubAPIURL  = "https://api.github.com"
	defaultGitHubTimeout = 10 * time.Second
	defaultQuietPeriod   = 500 * time.Millisecond
)

type Config struct {
	GitHubToken       string
	GitHubAPIURL      string
	GitHubTimeout     time.Duration
	HTTPAddr          string
	MetricsAddr       string
	SearchQuietPeriod time.Duration
	DefaultPageSize   int
}

func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, err
		}
	}

	cfg := Config{
		GitHubToken:       strings.TrimSpace(os.Getenv("GITHUB_TOKEN")),
		GitHubAPIURL:      strings.TrimRight(getenvDefault("GITHUB_API_URL", defaultGitHubAPIURL), "/"),
		GitHubTimeout:     getenvDurationDefault("GITHUB_TIMEOUT", defaultGitHubTimeout),
		HTTPAddr:          getenvDefault("HTTP_ADDR", defaultHTTPAddr),
		MetricsAddr:       strings.TrimSpace(os.Getenv("METRICS_ADDR")),
		SearchQuietPeriod: getenvDurationDefault("SEARCH_QUIET_PERIOD", defaultQuietPeriod),
		DefaultPageSize:   search.DefaultPageSize,
	}

	if v := strings.TrimSpace(os.Getenv("DEFAULT_PAGE_SIZE")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || search.ClampPageSize(n) != n {
			return cfg, fmt.Errorf("DEFAULT_PAGE_SIZE must be one of %v", search.PageSizes)
		}
		cfg.DefaultPageSize = n
	}

	u, err := url.Parse(cfg.GitHubAPIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return cfg, errors.New("GITHUB_API_URL must be an absolute http(s) URL")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvDurationDefault(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
