// internal/server/tools.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"go.uber.org/zap"

	"meal-sync/internal/config"
	"meal-sync/internal/mealsync"
	"meal-sync/internal/models"
)

type SyncDietPlanParams struct {
	Dates     []string `json:"dates,omitempty" description:"Explicit dates to sync (YYYY-MM-DD)"`
	StartDate string   `json:"start_date,omitempty" description:"First date of an inclusive range (YYYY-MM-DD)"`
	EndDate   string   `json:"end_date,omitempty" description:"Last date of an inclusive range (YYYY-MM-DD)"`
}

type GetDeliveriesParams struct {
	Date string `json:"date" description:"Delivery date (YYYY-MM-DD)"`
}

// SyncDietPlanResult is returned by sync_diet_plan.
type SyncDietPlanResult struct {
	mealsync.Report
	Failed int `json:"failed"`
}

// GetDeliveriesResult is returned by get_deliveries.
type GetDeliveriesResult struct {
	Date       string            `json:"date"`
	Deliveries []models.Delivery `json:"deliveries"`
}

// extractParams safely extracts parameters from the request arguments
func extractParams(req *protocol.CallToolRequest, target interface{}) error {
	jsonBytes, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal arguments: %v", errInvalidParams, err)
	}

	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}

	return nil
}

func validDate(date string) error {
	if _, err := time.Parse(config.DateLayout, date); err != nil {
		return fmt.Errorf("%w: date %q must be YYYY-MM-DD", errInvalidParams, date)
	}
	return nil
}

// resolveDates applies the same selection rules as the configuration. An empty
// selection falls back to the configured dates.
func (s *SyncServer) resolveDates(params SyncDietPlanParams) ([]string, error) {
	var dateRange *config.DateRange
	start, end := strings.TrimSpace(params.StartDate), strings.TrimSpace(params.EndDate)
	switch {
	case start != "" && end != "":
		dateRange = &config.DateRange{Start: start, End: end}
		if err := validDate(start); err != nil {
			return nil, err
		}
		if err := validDate(end); err != nil {
			return nil, err
		}
	case start != "" || end != "":
		return nil, fmt.Errorf("%w: start_date and end_date must be given together", errInvalidParams)
	}

	for _, date := range params.Dates {
		if err := validDate(date); err != nil {
			return nil, err
		}
	}

	dates, err := config.SelectDates(params.Dates, dateRange)
	if err != nil {
		if errors.Is(err, config.ErrConflictingDateSelection) {
			return nil, fmt.Errorf("%w: give either dates or start_date/end_date", errInvalidParams)
		}
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	if len(dates) == 0 && s.config != nil {
		dates = append([]string(nil), s.config.DefaultDates...)
	}
	return dates, nil
}

// handleSyncDietPlan runs the pipeline for the requested dates.
func (s *SyncServer) handleSyncDietPlan(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params SyncDietPlanParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	dates, err := s.resolveDates(params)
	if err != nil {
		return nil, err
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.logger.Info("sync requested", zap.Strings("dates", dates))
	report, err := s.runner.Run(ctx, dates)
	if err != nil {
		return nil, fmt.Errorf("failed to sync diet plan: %w", err)
	}

	return s.createJSONResponse(SyncDietPlanResult{Report: report, Failed: report.Failed()})
}

// handleGetDeliveries lists the order's deliveries on one date.
func (s *SyncServer) handleGetDeliveries(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params GetDeliveriesParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	params.Date = strings.TrimSpace(params.Date)
	if params.Date == "" {
		return nil, fmt.Errorf("%w: date is required", errInvalidParams)
	}
	if err := validDate(params.Date); err != nil {
		return nil, err
	}

	deliveries, err := s.runner.Deliveries(ctx, params.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve deliveries: %w", err)
	}
	if deliveries == nil {
		deliveries = []models.Delivery{}
	}

	return s.createJSONResponse(GetDeliveriesResult{Date: params.Date, Deliveries: deliveries})
}

func (s *SyncServer) registerTools() error {
	s.tools = map[string]toolHandler{
		"sync_diet_plan": s.handleSyncDietPlan,
		"get_deliveries": s.handleGetDeliveries,
	}

	for name := range s.tools {
		s.logger.Debug("registered tool", zap.String("tool", name))
	}

	return nil
}
