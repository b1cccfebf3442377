package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserProfile is keyed by the identity provider subject, which is also
// its partition.
type UserProfile struct {
	Entity
	UserName  string    `json:"userName"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserProfileFields struct {
	UserName  string `json:"userName"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

func (f UserProfileFields) validate() error {
	if strings.TrimSpace(f.UserName) == "" {
		return invalidf("user name is required")
	}
	if f.Email != "" && !strings.Contains(f.Email, "@") {
		return invalidf("email %q is malformed", f.Email)
	}
	return nil
}

func NewUserProfile(userID string, f UserProfileFields) (*UserProfile, error) {
	if userID == "" {
		return nil, invalidf("user id is required")
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	p := &UserProfile{
		Entity:    newEntity(userID),
		UserName:  strings.TrimSpace(f.UserName),
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Email:     strings.ToLower(f.Email),
		CreatedAt: now().UTC(),
	}
	p.raiseCreated(NewEvent(UserProfileCreated, p, nil))
	return p, nil
}

func (p *UserProfile) EntityType() EntityType { return EntityUserProfile }
func (p *UserProfile) Partition() string      { return p.ID }

func (p *UserProfile) Update(f UserProfileFields) error {
	if err := f.validate(); err != nil {
		return err
	}
	hook := func(string) { p.raiseCoalesced(NewEvent(UserProfileUpdated, p, nil)) }
	TrackField(&p.Entity, &p.UserName, strings.TrimSpace(f.UserName), "UserName", hook)
	TrackField(&p.Entity, &p.FirstName, f.FirstName, "FirstName", hook)
	TrackField(&p.Entity, &p.LastName, f.LastName, "LastName", hook)
	TrackField(&p.Entity, &p.Email, strings.ToLower(f.Email), "Email", hook)
	return nil
}

// Garden is a growing location. Weather snapshots and harvest cycles
// reference it.
type Garden struct {
	Entity
	Owner          string     `json:"owner"`
	Name           string     `json:"name"`
	City           string     `json:"city,omitempty"`
	StateCode      string     `json:"stateCode,omitempty"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	LastFrostDate  *time.Time `json:"lastFrostDate,omitempty"`
	FirstFrostDate *time.Time `json:"firstFrostDate,omitempty"`
	Notes          string     `json:"notes,omitempty"`
}

type GardenFields struct {
	Name           string     `json:"name"`
	City           string     `json:"city"`
	StateCode      string     `json:"stateCode"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	LastFrostDate  *time.Time `json:"lastFrostDate"`
	FirstFrostDate *time.Time `json:"firstFrostDate"`
	Notes          string     `json:"notes"`
}

func (f GardenFields) validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return invalidf("garden name is required")
	}
	if f.Latitude < -90 || f.Latitude > 90 || f.Longitude < -180 || f.Longitude > 180 {
		return invalidf("garden coordinates out of range")
	}
	return nil
}

func NewGarden(owner string, f GardenFields) (*Garden, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	g := &Garden{
		Entity:         newEntity(uuid.NewString()),
		Owner:          owner,
		Name:           strings.TrimSpace(f.Name),
		City:           f.City,
		StateCode:      strings.ToUpper(f.StateCode),
		Latitude:       f.Latitude,
		Longitude:      f.Longitude,
		LastFrostDate:  copyTime(f.LastFrostDate),
		FirstFrostDate: copyTime(f.FirstFrostDate),
		Notes:          f.Notes,
	}
	g.raiseCreated(NewEvent(GardenCreated, g, nil))
	return g, nil
}

func (g *Garden) EntityType() EntityType { return EntityGarden }
func (g *Garden) Partition() string      { return g.Owner }

func (g *Garden) Update(f GardenFields) error {
	if err := f.validate(); err != nil {
		return err
	}
	hook := func(string) { g.raiseCoalesced(NewEvent(GardenUpdated, g, nil)) }
	TrackField(&g.Entity, &g.Name, strings.TrimSpace(f.Name), "Name", hook)
	TrackField(&g.Entity, &g.City, f.City, "City", hook)
	TrackField(&g.Entity, &g.StateCode, strings.ToUpper(f.StateCode), "StateCode", hook)
	TrackField(&g.Entity, &g.Latitude, f.Latitude, "Latitude", hook)
	TrackField(&g.Entity, &g.Longitude, f.Longitude, "Longitude", hook)
	TrackOptionalTime(&g.Entity, &g.LastFrostDate, f.LastFrostDate, "LastFrostDate", hook)
	TrackOptionalTime(&g.Entity, &g.FirstFrostDate, f.FirstFrostDate, "FirstFrostDate", hook)
	TrackField(&g.Entity, &g.Notes, f.Notes, "Notes", hook)
	return nil
}

func (g *Garden) MarkDeleted() {
	g.markModified()
	g.raise(NewEvent(GardenDeleted, g, nil))
}
