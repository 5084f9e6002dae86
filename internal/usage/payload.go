package usage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/janekbaraniewski/codexswitch/internal/core"
	"github.com/janekbaraniewski/codexswitch/internal/parsers"
)

// statusPayload is the body of GET /wham/usage.
type statusPayload struct {
	PlanType  string            `json:"plan_type"`
	RateLimit *rateLimitDetails `json:"rate_limit,omitempty"`
	Credits   *creditDetails    `json:"credits,omitempty"`
}

type rateLimitDetails struct {
	PrimaryWindow   *rateLimitWindow `json:"primary_window,omitempty"`
	SecondaryWindow *rateLimitWindow `json:"secondary_window,omitempty"`
}

type rateLimitWindow struct {
	UsedPercent        float64 `json:"used_percent"`
	LimitWindowSeconds *int64  `json:"limit_window_seconds,omitempty"`
	ResetAt            *int64  `json:"reset_at,omitempty"`
}

type creditDetails struct {
	HasCredits bool `json:"has_credits"`
	Unlimited  bool `json:"unlimited"`
	// Sent as a number or a numeric string depending on backend version.
	Balance json.RawMessage `json:"balance,omitempty"`
}

func parseStatusPayload(body []byte) (*statusPayload, error) {
	var payload *statusPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parsing usage response: %w", err)
	}
	if payload == nil {
		return nil, errors.New("parsing usage response: empty body")
	}
	return payload, nil
}

// WindowMinutes converts a window length to whole minutes, rounding up.
func WindowMinutes(seconds int64) int64 {
	if seconds <= 0 {
		return 0
	}
	return (seconds + 59) / 60
}

func toUsageInfo(accountID string, payload *statusPayload) core.UsageInfo {
	info := core.UsageInfo{
		AccountID: accountID,
		PlanType:  lo.EmptyableToPtr(payload.PlanType),
	}

	if payload.RateLimit != nil {
		if w := payload.RateLimit.PrimaryWindow; w != nil {
			info.PrimaryUsedPercent = lo.ToPtr(w.UsedPercent)
			info.PrimaryWindowMinutes = windowMinutesPtr(w.LimitWindowSeconds)
			info.PrimaryResetsAt = w.ResetAt
		}
		if w := payload.RateLimit.SecondaryWindow; w != nil {
			info.SecondaryUsedPercent = lo.ToPtr(w.UsedPercent)
			info.SecondaryWindowMinutes = windowMinutesPtr(w.LimitWindowSeconds)
			info.SecondaryResetsAt = w.ResetAt
		}
	}

	if c := payload.Credits; c != nil {
		info.HasCredits = lo.ToPtr(c.HasCredits)
		info.UnlimitedCredits = lo.ToPtr(c.Unlimited)
		info.CreditsBalance = parsers.ParseNumber(c.Balance)
	}

	return info
}

func windowMinutesPtr(seconds *int64) *int64 {
	if seconds == nil {
		return nil
	}
	return lo.ToPtr(WindowMinutes(*seconds))
}
