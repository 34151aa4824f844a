package usage

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
)

const maxGatewayRequestIDLength = 128

// normalizeReport validates a report and canonicalizes its tool slug
func normalizeReport(report entity.UsageReport) (entity.UsageReport, error) {
	if report.UserID == 0 {
		return report, errs.NewValidationError(errs.ErrInvalidUserID, "userId", "must be positive")
	}

	report.ToolSlug = slug.Make(report.ToolSlug)
	if report.ToolSlug == "" {
		return report, errs.NewValidationError(errs.ErrInvalidUsageReport, "toolSlug", "is empty")
	}

	report.ModelID = strings.TrimSpace(report.ModelID)
	if report.ModelID == "" {
		return report, errs.NewValidationError(errs.ErrInvalidUsageReport, "modelId", "is empty")
	}

	if report.PromptTokens < 0 {
		return report, errs.NewValidationError(errs.ErrInvalidUsageReport, "promptTokens", "must not be negative")
	}
	if report.CompletionTokens < 0 {
		return report, errs.NewValidationError(errs.ErrInvalidUsageReport, "completionTokens", "must not be negative")
	}

	report.GatewayRequestID = strings.TrimSpace(report.GatewayRequestID)
	if report.GatewayRequestID == "" {
		return report, errs.NewValidationError(errs.ErrInvalidUsageReport, "gatewayRequestId", "is empty")
	}
	if len(report.GatewayRequestID) > maxGatewayRequestIDLength {
		return report, errs.NewValidationError(errs.ErrInvalidUsageReport, "gatewayRequestId",
			fmt.Sprintf("exceeds %d characters", maxGatewayRequestIDLength))
	}
	return report, nil
}

// rejectionError rebuilds the error a rejected event was recorded with
func rejectionError(event *entity.UsageEvent) error {
	switch event.RejectReason {
	case entity.RejectRateNotFound:
		return fmt.Errorf("%w: model %q has no rate for request %s", errs.ErrRateNotFound, event.ModelID, event.GatewayRequestID)
	case entity.RejectInsufficientFunds:
		return fmt.Errorf("%w: request %s costs %d micro and no funding source covers it",
			errs.ErrInsufficientFunds, event.GatewayRequestID, event.CostMicro)
	}
	return nil
}

// sameReport reports whether a stored event was recorded for the same usage report.
// The report is already normalized.
func sameReport(stored *entity.UsageEvent, report entity.UsageReport) bool {
	return stored.UserID == report.UserID &&
		stored.ModelID == report.ModelID &&
		stored.ToolSlug == report.ToolSlug &&
		stored.PromptTokens == report.PromptTokens &&
		stored.CompletionTokens == report.CompletionTokens
}
