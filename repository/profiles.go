package repository

import (
	"context"
	"sort"
	"time"

	"gardenlog/docstore"
	"gardenlog/domain"
	"gardenlog/work"
)

type UserProfiles struct {
	*Repository[domain.UserProfile, *domain.UserProfile]
}

func NewUserProfiles(uow *work.UnitOfWork) (*UserProfiles, error) {
	r, err := newRepository[domain.UserProfile, *domain.UserProfile](uow, UserProfilesCollection, domain.EntityUserProfile)
	if err != nil {
		return nil, err
	}
	return &UserProfiles{r}, nil
}

// Get loads the profile of userID. Profiles are their own partition.
func (r *UserProfiles) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	return r.GetByID(ctx, userID, userID)
}

type Gardens struct {
	*Repository[domain.Garden, *domain.Garden]
}

func NewGardens(uow *work.UnitOfWork) (*Gardens, error) {
	r, err := newRepository[domain.Garden, *domain.Garden](uow, GardensCollection, domain.EntityGarden)
	if err != nil {
		return nil, err
	}
	return &Gardens{r}, nil
}

// sortableTime renders t so that string order is time order.
const sortableTime = "2006-01-02T15:04:05.000000000Z"

type WeatherUpdates struct {
	*Repository[domain.WeatherUpdate, *domain.WeatherUpdate]
}

func NewWeatherUpdates(uow *work.UnitOfWork) (*WeatherUpdates, error) {
	r, err := newRepository[domain.WeatherUpdate, *domain.WeatherUpdate](uow, WeatherUpdatesCollection, domain.EntityWeatherUpdate,
		docstore.WithIndex("GardenID", func(w *domain.WeatherUpdate) string { return w.GardenID }),
		docstore.WithIndex("ObservedAt", func(w *domain.WeatherUpdate) string { return w.ObservedAt.UTC().Format(sortableTime) }),
	)
	if err != nil {
		return nil, err
	}
	return &WeatherUpdates{r}, nil
}

// Since returns the garden's snapshots observed at or after since, oldest
// first.
func (r *WeatherUpdates) Since(ctx context.Context, owner, gardenID string, since time.Time) ([]*domain.WeatherUpdate, error) {
	q := docstore.Query{PartitionKey: owner}.
		Where("GardenID", docstore.Eq, gardenID).
		Where("ObservedAt", docstore.Ge, since.UTC().Format(sortableTime))
	out, err := r.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ObservedAt.Before(out[j].ObservedAt) })
	return out, nil
}
