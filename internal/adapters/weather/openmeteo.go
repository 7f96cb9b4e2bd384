package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ev-route-service/internal/domain"
)

// OpenMeteoSource implements WeatherSource against the open-meteo current
// weather endpoint. No API key is required.
type OpenMeteoSource struct {
	session *http.Client
	baseURL string
}

func NewOpenMeteoSource() *OpenMeteoSource {
	return &OpenMeteoSource{
		session: &http.Client{Timeout: 10 * time.Second},
		baseURL: "https://api.open-meteo.com",
	}
}

type openMeteoResponse struct {
	Current struct {
		Temperature   float64 `json:"temperature_2m"`
		WindSpeed     float64 `json:"wind_speed_10m"`
		Precipitation float64 `json:"precipitation"`
	} `json:"current"`
}

func (s *OpenMeteoSource) Conditions(ctx context.Context, at domain.GeoPoint) (domain.WeatherSample, error) {
	if err := at.Validate(); err != nil {
		return domain.WeatherSample{}, fmt.Errorf("weather conditions: %w", err)
	}

	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", at.Lat))
	q.Set("longitude", fmt.Sprintf("%.4f", at.Lon))
	q.Set("current", "temperature_2m,wind_speed_10m,precipitation")
	q.Set("wind_speed_unit", "kmh")

	endpoint := fmt.Sprintf("%s/v1/forecast?%s", s.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.WeatherSample{}, fmt.Errorf("weather conditions: create request: %w", err)
	}

	resp, err := s.session.Do(req)
	if err != nil {
		return domain.WeatherSample{}, fmt.Errorf("weather conditions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return domain.WeatherSample{}, fmt.Errorf(
			"weather conditions: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var parsed openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.WeatherSample{}, fmt.Errorf("weather conditions: decode response: %w", err)
	}

	sample := domain.WeatherSample{
		TemperatureC:      parsed.Current.Temperature,
		WindSpeedKmh:      parsed.Current.WindSpeed,
		PrecipitationMmHr: parsed.Current.Precipitation,
	}
	sample.Summary = summarize(sample)
	return sample, nil
}

func summarize(w domain.WeatherSample) string {
	var parts []string
	switch {
	case w.TemperatureC <= 0:
		parts = append(parts, "freezing")
	case w.TemperatureC < 10:
		parts = append(parts, "cold")
	default:
		parts = append(parts, "mild")
	}
	if w.PrecipitationMmHr > 0.5 {
		parts = append(parts, "precipitation")
	}
	if w.WindSpeedKmh > 30 {
		parts = append(parts, "windy")
	}
	return strings.Join(parts, ", ")
}
