package handlers

import (
	"net/http"
	"strconv"

	"auction-keeper/internal/domain"
	"auction-keeper/pkg/logger"

	"github.com/labstack/echo/v4"
)

const defaultRecentLimit = 20

// KeeperHandler serves the read side of the keeper: decision history and
// the set of auctions under watch. Bidding itself never goes through HTTP.
type KeeperHandler struct {
	outcomeRepo domain.OutcomeRepository
	auctionRepo domain.AuctionRepository
	log         logger.Logger
}

func NewKeeperHandler(outcomeRepo domain.OutcomeRepository, auctionRepo domain.AuctionRepository,
	log logger.Logger) *KeeperHandler {
	return &KeeperHandler{
		outcomeRepo: outcomeRepo,
		auctionRepo: auctionRepo,
		log:         log,
	}
}

func (h *KeeperHandler) GetLotOutcomes(c echo.Context) error {
	lotID := c.Param("lotID")
	h.log.Info("GetLotOutcomes endpoint called", "lot_id", lotID)

	outcomes, err := h.outcomeRepo.GetOutcomeHistory(c.Request().Context(), lotID)
	if err != nil {
		h.log.Error("Failed to load outcome history", "lot_id", lotID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load outcomes"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"lot_id":   lotID,
		"outcomes": outcomes,
	})
}

func (h *KeeperHandler) GetRecentOutcomes(c echo.Context) error {
	limit := defaultRecentLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Limit must be a positive integer"})
		}
		limit = parsed
	}

	outcomes, err := h.outcomeRepo.GetRecentOutcomes(c.Request().Context(), limit)
	if err != nil {
		h.log.Error("Failed to load recent outcomes", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load outcomes"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"outcomes": outcomes,
	})
}

func (h *KeeperHandler) GetWatchedAuctions(c echo.Context) error {
	auctions, err := h.auctionRepo.GetWatchedAuctions(c.Request().Context())
	if err != nil {
		h.log.Error("Failed to load watched auctions", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load auctions"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"auctions": auctions,
	})
}

func (h *KeeperHandler) GetAuction(c echo.Context) error {
	auctionID := c.Param("id")

	auction, err := h.auctionRepo.GetAuction(c.Request().Context(), auctionID)
	if err != nil {
		h.log.Error("Failed to load auction", "auction_id", auctionID, "error", err)
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Auction not found"})
	}

	return c.JSON(http.StatusOK, auction)
}
