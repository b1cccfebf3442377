package domain

import (
	"time"

	"github.com/google/uuid"
)

// WeatherUpdate is a point-in-time observation for a garden. Snapshots are
// append only.
type WeatherUpdate struct {
	Entity
	Owner        string    `json:"owner"`
	GardenID     string    `json:"gardenId"`
	ObservedAt   time.Time `json:"observedAt"`
	TemperatureF float64   `json:"temperatureF"`
	Humidity     float64   `json:"humidity"`
	RainInches   float64   `json:"rainInches"`
	Description  string    `json:"description,omitempty"`
}

type WeatherFields struct {
	ObservedAt   time.Time `json:"observedAt"`
	TemperatureF float64   `json:"temperatureF"`
	Humidity     float64   `json:"humidity"`
	RainInches   float64   `json:"rainInches"`
	Description  string    `json:"description"`
}

func NewWeatherUpdate(owner string, garden RelatedEntity, f WeatherFields) (*WeatherUpdate, error) {
	if garden.ID == "" {
		return nil, invalidf("garden id is required")
	}
	if f.Humidity < 0 || f.Humidity > 100 {
		return nil, invalidf("humidity must be a percentage")
	}
	if f.RainInches < 0 {
		return nil, invalidf("rain cannot be negative")
	}
	observed := f.ObservedAt
	if observed.IsZero() {
		observed = now()
	}
	w := &WeatherUpdate{
		Entity:       newEntity(uuid.NewString()),
		Owner:        owner,
		GardenID:     garden.ID,
		ObservedAt:   observed.UTC(),
		TemperatureF: f.TemperatureF,
		Humidity:     f.Humidity,
		RainInches:   f.RainInches,
		Description:  f.Description,
	}
	garden.Type = EntityGarden
	w.raiseCreated(NewEvent(WeatherRecorded, w, &garden))
	return w, nil
}

func (w *WeatherUpdate) EntityType() EntityType { return EntityWeatherUpdate }
func (w *WeatherUpdate) Partition() string      { return w.Owner }
