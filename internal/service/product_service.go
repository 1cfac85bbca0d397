package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/dto"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/model"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const searchCacheTTL = 60 * time.Second

type ProductService interface {
	Search(ctx context.Context, filter dto.ProductSearchFilter) ([]dto.SellableVariantResponse, error)
	FindByBarcode(ctx context.Context, barcode, storeID string) (*dto.SellableVariantResponse, error)
}

type productService struct {
	repo      repository.ProductRepository
	storeRepo repository.StoreRepository
	rdb       *redis.Client
}

func NewProductService(repo repository.ProductRepository, storeRepo repository.StoreRepository, rdb *redis.Client) ProductService {
	return &productService{repo: repo, storeRepo: storeRepo, rdb: rdb}
}

// Search resolves catalog hits and decorates them with live stock. The catalog
// part of the answer is cached in Redis per normalized query; stock quantities
// are always read fresh so the POS never shows a stale count.
func (s *productService) Search(ctx context.Context, filter dto.ProductSearchFilter) ([]dto.SellableVariantResponse, error) {
	storeID, err := uuid.Parse(filter.StoreID)
	if err != nil {
		return nil, fmt.Errorf("invalid store_id: %w", err)
	}
	store, err := s.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		return nil, ErrStoreNotFound
	}

	variants, err := s.searchCatalog(ctx, filter.Query, filter.Limit)
	if err != nil {
		return nil, err
	}

	var stock map[uuid.UUID]int
	if store.MainWarehouseID != nil {
		ids := make([]uuid.UUID, 0, len(variants))
		for _, v := range variants {
			if v.TrackStock {
				ids = append(ids, v.ID)
			}
		}
		stock, err = s.repo.StockFor(ctx, ids, *store.MainWarehouseID)
		if err != nil {
			return nil, err
		}
	}

	out := make([]dto.SellableVariantResponse, 0, len(variants))
	for _, v := range variants {
		resp := variantToResponse(&v)
		if store.MainWarehouseID != nil && v.TrackStock {
			qty := stock[v.ID] // missing level row reads as zero
			resp.Stock = &qty
		}
		out = append(out, *resp)
	}
	return out, nil
}

func (s *productService) FindByBarcode(ctx context.Context, barcode, storeIDStr string) (*dto.SellableVariantResponse, error) {
	storeID, err := uuid.Parse(storeIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid store_id: %w", err)
	}
	store, err := s.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		return nil, ErrStoreNotFound
	}
	variant, err := s.repo.FindVariantByBarcode(ctx, barcode)
	if err != nil {
		return nil, ErrVariantNotFound
	}
	resp := variantToResponse(variant)
	if store.MainWarehouseID != nil && variant.TrackStock {
		stock, err := s.repo.StockFor(ctx, []uuid.UUID{variant.ID}, *store.MainWarehouseID)
		if err != nil {
			return nil, err
		}
		qty := stock[variant.ID]
		resp.Stock = &qty
	}
	return resp, nil
}

// searchCatalog returns catalog rows, served from Redis when the same query
// was answered in the last minute.
func (s *productService) searchCatalog(ctx context.Context, query string, limit int) ([]model.ProductVariant, error) {
	if s.rdb == nil {
		return s.repo.Search(ctx, query, limit)
	}

	key := fmt.Sprintf("product:search:%s:%d", strings.ToLower(strings.TrimSpace(query)), limit)
	if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
		var variants []model.ProductVariant
		if err := json.Unmarshal([]byte(cached), &variants); err == nil {
			return variants, nil
		}
	}

	variants, err := s.repo.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(variants); err == nil {
		if err := s.rdb.Set(ctx, key, payload, searchCacheTTL).Err(); err != nil {
			log.Debug().Err(err).Msg("product: search cache write failed")
		}
	}
	return variants, nil
}

func variantToResponse(v *model.ProductVariant) *dto.SellableVariantResponse {
	return &dto.SellableVariantResponse{
		VariantID: v.ID.String(),
		SKU:       v.SKU,
		Name:      v.Name,
		Barcode:   v.Barcode,
		UnitPrice: v.UnitPrice,
		TaxRate:   v.TaxRate,
	}
}
