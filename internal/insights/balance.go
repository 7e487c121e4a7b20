package insights

import "fmt"

// Balance categories.
const (
	BalanceNone      = "none"
	BalanceSingle    = "single"
	BalanceDominated = "dominated"
	BalanceLed       = "led"
	BalanceBalanced  = "balanced"
)

const (
	dominatedShare = 70.0
	ledShare       = 60.0
)

// Balance describes how evenly a conversation was shared.
type Balance struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// ConversationBalance classifies the conversation by the share of its top
// speaker. stats must be ordered as returned by SpeakerStats.
func ConversationBalance(stats []SpeakerStat) Balance {
	switch len(stats) {
	case 0:
		return Balance{Category: BalanceNone, Message: "No conversation"}
	case 1:
		return Balance{Category: BalanceSingle, Message: "Single speaker"}
	}

	top := stats[0]
	switch {
	case top.Percentage > dominatedShare:
		return Balance{
			Category: BalanceDominated,
			Message:  fmt.Sprintf("Conversation dominated by %s (%.0f%%)", SpeakerName(top.Speaker), top.Percentage),
		}
	case top.Percentage > ledShare:
		return Balance{
			Category: BalanceLed,
			Message:  fmt.Sprintf("Conversation led by %s (%.0f%%)", SpeakerName(top.Speaker), top.Percentage),
		}
	default:
		return Balance{Category: BalanceBalanced, Message: "Balanced conversation"}
	}
}
