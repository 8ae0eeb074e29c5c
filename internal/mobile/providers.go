package mobile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shenikar/incident-response-core/internal/models"
	"github.com/shenikar/incident-response-core/internal/ratelimit"
)

// STTProvider transcribes an audio reference into text. It is a
// pluggable interface so the concrete backend (a cloud speech API, a
// local model) never leaks into the pipeline (spec.md §4.5).
type STTProvider interface {
	Transcribe(ctx context.Context, audioFileRef string) (models.VoiceTranscript, error)
}

// HTTPSTTProvider calls an HTTP speech-to-text endpoint.
type HTTPSTTProvider struct {
	endpoint string
	client   *http.Client
	limiter  *ratelimit.Limiter
}

func NewHTTPSTTProvider(endpoint string, client *http.Client, limiter *ratelimit.Limiter) *HTTPSTTProvider {
	return &HTTPSTTProvider{endpoint: endpoint, client: client, limiter: limiter}
}

func (p *HTTPSTTProvider) Transcribe(ctx context.Context, audioFileRef string) (models.VoiceTranscript, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return models.VoiceTranscript{}, fmt.Errorf("stt rate limiter: %w", err)
		}
	}

	body, err := json.Marshal(map[string]string{"audio_file_ref": audioFileRef})
	if err != nil {
		return models.VoiceTranscript{}, fmt.Errorf("marshal stt request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return models.VoiceTranscript{}, fmt.Errorf("build stt request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return models.VoiceTranscript{}, fmt.Errorf("call stt provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.VoiceTranscript{}, fmt.Errorf("stt provider returned status %d", resp.StatusCode)
	}

	var transcript models.VoiceTranscript
	if err := json.NewDecoder(resp.Body).Decode(&transcript); err != nil {
		return models.VoiceTranscript{}, fmt.Errorf("decode stt response: %w", err)
	}
	return transcript, nil
}

// WeatherConditions is the subset of a current-conditions response the
// pipeline needs to decide weather_unverified.
type WeatherConditions struct {
	Summary     string  `json:"summary"`
	TemperatureC float64 `json:"temperature_c"`
	Severe      bool    `json:"severe"`
}

// WeatherProvider resolves current conditions for a coordinate.
type WeatherProvider interface {
	CurrentConditions(ctx context.Context, lat, lon float64) (WeatherConditions, error)
}

type weatherCacheEntry struct {
	conditions WeatherConditions
	expiresAt  time.Time
}

// CachedHTTPWeatherProvider wraps an HTTP current-conditions API with
// an in-process TTL cache keyed by rounded coordinates, matching
// spec.md §4.5's "cache results for 10 minutes keyed by rounded
// coordinates".
type CachedHTTPWeatherProvider struct {
	endpoint string
	client   *http.Client
	ttl      time.Duration
	limiter  *ratelimit.Limiter

	mu    sync.Mutex
	cache map[string]weatherCacheEntry
}

func NewCachedHTTPWeatherProvider(endpoint string, client *http.Client, ttl time.Duration, limiter *ratelimit.Limiter) *CachedHTTPWeatherProvider {
	return &CachedHTTPWeatherProvider{
		endpoint: endpoint,
		client:   client,
		ttl:      ttl,
		limiter:  limiter,
		cache:    make(map[string]weatherCacheEntry),
	}
}

func (p *CachedHTTPWeatherProvider) CurrentConditions(ctx context.Context, lat, lon float64) (WeatherConditions, error) {
	key := fmt.Sprintf("%.2f,%.2f", lat, lon)

	p.mu.Lock()
	if entry, ok := p.cache[key]; ok && entry.expiresAt.After(time.Now()) {
		p.mu.Unlock()
		return entry.conditions, nil
	}
	p.mu.Unlock()

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return WeatherConditions{}, fmt.Errorf("weather rate limiter: %w", err)
		}
	}

	url := fmt.Sprintf("%s?lat=%f&lon=%f", p.endpoint, lat, lon)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return WeatherConditions{}, fmt.Errorf("build weather request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return WeatherConditions{}, fmt.Errorf("call weather provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return WeatherConditions{}, fmt.Errorf("weather provider returned status %d", resp.StatusCode)
	}

	var conditions WeatherConditions
	if err := json.NewDecoder(resp.Body).Decode(&conditions); err != nil {
		return WeatherConditions{}, fmt.Errorf("decode weather response: %w", err)
	}

	p.mu.Lock()
	p.cache[key] = weatherCacheEntry{conditions: conditions, expiresAt: time.Now().Add(p.ttl)}
	p.mu.Unlock()

	return conditions, nil
}
