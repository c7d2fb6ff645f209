package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yachtly/charter-service/internal/config"
	"github.com/yachtly/charter-service/internal/constants"
	"github.com/yachtly/charter-service/internal/models"
	"github.com/yachtly/charter-service/internal/repositories"
	"github.com/yachtly/charter-service/internal/search"
	"github.com/yachtly/charter-service/internal/utils"
	"golang.org/x/sync/errgroup"
)

type BoatSearchService interface {
	// Search never fails. Store errors are logged and come back as an empty
	// result so the page shell still renders.
	Search(ctx context.Context, f search.Filter) *search.Result
	// GetBoat returns nil, nil for unknown or inactive boats.
	GetBoat(ctx context.Context, id uuid.UUID) (*models.Boat, error)
	// InvalidateCache forgets cached search results after catalog changes.
	InvalidateCache(ctx context.Context) error
}

type boatSearchService struct {
	boats    repositories.BoatRepository
	cache    search.Cache
	pageSize int
	ref      search.Point
}

func NewBoatSearchService(cfg *config.Config, boats repositories.BoatRepository, cache search.Cache) BoatSearchService {
	if cache == nil {
		cache = search.NewNoopCache()
	}
	pageSize := cfg.SearchPageSize
	if pageSize <= 0 {
		pageSize = config.DefaultSearchPageSize
	}
	ref := search.DefaultReference
	if cfg.MapReferenceLat != 0 || cfg.MapReferenceLng != 0 {
		ref = search.Point{Lat: cfg.MapReferenceLat, Lng: cfg.MapReferenceLng}
	}
	return &boatSearchService{boats: boats, cache: cache, pageSize: pageSize, ref: ref}
}

func (s *boatSearchService) Search(ctx context.Context, f search.Filter) *search.Result {
	f.Sort = search.ParseSort(string(f.Sort))
	if f.Page < 1 {
		f.Page = 1
	}

	if cached, ok := s.cache.Get(ctx, f); ok {
		return cached
	}

	where := search.Build(f)
	offset := search.Offset(f.Page, s.pageSize)

	qctx, cancel := context.WithTimeout(ctx, constants.SearchQueryTimeout)
	defer cancel()

	var (
		boats []*models.Boat
		count int
	)
	g, gctx := errgroup.WithContext(qctx)
	g.Go(func() error {
		var err error
		boats, err = s.boats.Search(gctx, where, f.Sort, s.pageSize, offset)
		return err
	})
	g.Go(func() error {
		var err error
		count, err = s.boats.Count(gctx, where)
		return err
	})
	if err := g.Wait(); err != nil {
		utils.Logger.WithError(err).WithFields(logrus.Fields{
			"page": f.Page,
			"sort": f.Sort,
		}).Error("Boat search failed, returning empty result")
		return search.EmptyResult()
	}

	if boats == nil {
		boats = []*models.Boat{}
	}
	res := &search.Result{
		Boats:      boats,
		TotalCount: count,
		TotalPages: search.TotalPages(count, s.pageSize),
		Locations:  search.BuildMarkers(boats, s.ref),
	}
	s.cache.Set(ctx, f, res)
	return res
}

func (s *boatSearchService) GetBoat(ctx context.Context, id uuid.UUID) (*models.Boat, error) {
	return s.boats.GetActiveByID(ctx, id)
}

func (s *boatSearchService) InvalidateCache(ctx context.Context) error {
	return s.cache.Invalidate(ctx)
}
