package repositories

import (
	"context"
	"time"

	"github.com/yoockh/brdextractor/internal/cache"
	"github.com/yoockh/brdextractor/internal/models"
	"github.com/yoockh/brdextractor/internal/utils"
)

type cacheResultRepo struct {
	c   cache.Cache
	ttl time.Duration
}

func NewCacheResultRepo(c cache.Cache, ttl time.Duration) ResultRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &cacheResultRepo{c: c, ttl: ttl}
}

func resultKey(id string) string { return "result:" + id }

func (r *cacheResultRepo) Save(ctx context.Context, res *models.Result) error {
	if res == nil || res.ID == "" {
		return utils.E(utils.CodeInvalidArgument, "cacheResultRepo.Save", "result id is required", nil)
	}
	return r.c.SetJSON(ctx, resultKey(res.ID), res, r.ttl)
}

func (r *cacheResultRepo) Get(ctx context.Context, id string) (*models.Result, error) {
	var out models.Result
	hit, err := r.c.GetJSON(ctx, resultKey(id), &out)
	if err != nil {
		return nil, err
	}
	if !hit {
		return nil, utils.ErrNotFound
	}
	return &out, nil
}
