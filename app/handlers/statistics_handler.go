// Package handlers provides the HTTP handler layer for the API surface
package handlers

import (
	"log"

	"call-flow-processor/app/dto"
	"call-flow-processor/repository"
	"github.com/gofiber/fiber/v3"
)

type StatisticsHandlerInterface interface {
	CallsSummary(c fiber.Ctx) error
	OperatorStats(c fiber.Ctx) error
}

// StatisticsHandler serves read-only aggregations over ingested call data
type StatisticsHandler struct {
	callRepo     repository.CallRepository
	operatorRepo repository.OperatorRepository
}

func NewStatisticsHandler(callRepo repository.CallRepository, operatorRepo repository.OperatorRepository) StatisticsHandlerInterface {
	return &StatisticsHandler{callRepo: callRepo, operatorRepo: operatorRepo}
}

// CallsSummary returns totals over all finished calls
func (h *StatisticsHandler) CallsSummary(c fiber.Ctx) error {
	summary, err := h.callRepo.Summary(c.Context())
	if err != nil {
		log.Println("Calls summary failed", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to aggregate calls")
	}
	return c.JSON(dto.CallsSummaryResponse{
		TotalCalls:           summary.TotalCalls,
		AnsweredCalls:        summary.AnsweredCalls,
		AvgDurationSeconds:   summary.AvgDurationSeconds,
		TotalDurationSeconds: summary.TotalDurationSeconds,
	})
}

// OperatorStats returns per-operator call counts and average durations,
// including operators with no calls yet
func (h *StatisticsHandler) OperatorStats(c fiber.Ctx) error {
	stats, err := h.operatorRepo.CallStats(c.Context())
	if err != nil {
		log.Println("Operator stats failed", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to aggregate operators")
	}
	items := make([]dto.OperatorStatsItem, 0, len(stats))
	for _, s := range stats {
		items = append(items, dto.OperatorStatsItem{
			OperatorName:           s.OperatorName,
			CallCount:              s.CallCount,
			AvgCallDurationSeconds: s.AvgCallDurationSeconds,
		})
	}
	return c.JSON(items)
}
