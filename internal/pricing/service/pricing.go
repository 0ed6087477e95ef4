package service

import (
	"context"
	"fmt"
	"time"

	coachrepo "courtside/internal/coaches/repository"
	courtrepo "courtside/internal/courts/repository"
	equipmentrepo "courtside/internal/equipment/repository"
	"courtside/internal/pricing"
	rulerepo "courtside/internal/pricing/repository"
	apperrors "courtside/pkg/errors"
	"courtside/pkg/logger"
	"courtside/pkg/model"
)

// PricingService resolves the records a quote depends on and hands them to
// the pure calculation. All store access happens here so the calculation
// itself stays deterministic and testable.
type PricingService interface {
	Quote(ctx context.Context, courtID, coachID string, equipment []model.EquipmentLine, start, end time.Time) (*pricing.Quote, error)
}

type pricingService struct {
	courts    courtrepo.CourtRepository
	coaches   coachrepo.CoachRepository
	equipment equipmentrepo.EquipmentRepository
	rules     rulerepo.RuleRepository
	log       *logger.Logger
}

func NewPricingService(
	courts courtrepo.CourtRepository,
	coaches coachrepo.CoachRepository,
	equipment equipmentrepo.EquipmentRepository,
	rules rulerepo.RuleRepository,
	log *logger.Logger,
) PricingService {
	return &pricingService{
		courts:    courts,
		coaches:   coaches,
		equipment: equipment,
		rules:     rules,
		log:       log,
	}
}

func (s *pricingService) Quote(ctx context.Context, courtID, coachID string, equipment []model.EquipmentLine, start, end time.Time) (*pricing.Quote, error) {
	input, err := s.resolveInput(ctx, courtID, coachID, equipment, start, end)
	if err != nil {
		return nil, err
	}

	ruleModels, err := s.rules.FindActive(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to load pricing rules", err)
	}

	rules, skipped := pricing.RulesFromModels(ruleModels)
	for _, ruleErr := range skipped {
		s.log.Warn("Skipping pricing rule with unparseable condition", "error", ruleErr)
	}

	quote := pricing.Calculate(*input, rules)
	s.log.Debug("Quote computed",
		"court_id", courtID,
		"final_price", quote.FinalPrice,
		"adjustments", len(quote.Breakdown.Adjustments),
	)

	return &quote, nil
}

func (s *pricingService) resolveInput(ctx context.Context, courtID, coachID string, equipment []model.EquipmentLine, start, end time.Time) (*pricing.Input, error) {
	court, err := s.courts.FindByID(ctx, courtID)
	if err != nil {
		return nil, apperrors.Internal("failed to load court", err)
	}
	if court == nil {
		return nil, apperrors.NotFoundWithID("court", courtID)
	}

	var coach *model.Coach
	if coachID != "" {
		coach, err = s.coaches.FindByID(ctx, coachID)
		if err != nil {
			return nil, apperrors.Internal("failed to load coach", err)
		}
		if coach == nil {
			return nil, apperrors.NotFoundWithID("coach", coachID)
		}
	}

	items := make([]pricing.EquipmentItem, 0, len(equipment))
	for _, line := range equipment {
		inv, err := s.equipment.FindInventoryByID(ctx, line.InventoryID)
		if err != nil {
			return nil, apperrors.Internal("failed to load equipment inventory", err)
		}
		if inv == nil {
			return nil, apperrors.NotFoundWithID("equipment inventory", line.InventoryID)
		}

		catalog, err := s.equipment.FindCatalogByID(ctx, inv.CatalogID)
		if err != nil {
			return nil, apperrors.Internal("failed to load equipment catalog item", err)
		}
		if catalog == nil {
			return nil, apperrors.Internal(
				fmt.Sprintf("inventory %s references missing catalog item %s", inv.ID, inv.CatalogID), nil)
		}

		items = append(items, pricing.EquipmentItem{Catalog: catalog, Qty: line.Qty})
	}

	return &pricing.Input{
		Court:     court,
		Coach:     coach,
		Equipment: items,
		StartTime: start,
		EndTime:   end,
	}, nil
}
