package pipeline

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dennismutuku2005/WaProtect/pkg/ai"
	"github.com/dennismutuku2005/WaProtect/pkg/spam"
)

// Resolve combines the local analysis and the AI verdict into a final action.
// A nil verdict is replaced by the deterministic fallback, so resolution with
// no AI tier behaves exactly like resolution after a classifier failure.
//
// Precedence, first match wins:
//  1. delete_and_remove: AI says delete_immediate, or critical risk, or local
//     score at the removal threshold
//  2. delete: AI says delete, or high risk, or local score at the deletion
//     threshold
//  3. warn: AI says warn, or medium risk on a suspicious message
//  4. monitor: locally suspicious but nothing above matched
//  5. allow
func Resolve(local spam.Analysis, verdict *ai.Analysis) Decision {
	if verdict == nil {
		verdict = ai.Fallback(local, nil)
	}

	var action Action
	switch {
	case verdict.Action == ai.ActionDeleteImmediate ||
		verdict.RiskLevel == ai.RiskCritical ||
		local.Score >= spam.ThresholdRemove:
		action = ActionDeleteAndRemove
	case verdict.Action == ai.ActionDelete ||
		verdict.RiskLevel == ai.RiskHigh ||
		local.Score >= spam.ThresholdDelete:
		action = ActionDelete
	case verdict.Action == ai.ActionWarn ||
		(verdict.RiskLevel == ai.RiskMedium && local.Score >= spam.ThresholdSuspicious):
		action = ActionWarn
	case local.IsSuspicious:
		action = ActionMonitor
	default:
		action = ActionAllow
	}

	reasons := make([]string, 0, len(local.Evidence)+1)
	if verdict.Reason != "" {
		reasons = append(reasons, verdict.Reason)
	}
	reasons = append(reasons, local.Evidence...)
	if len(reasons) == 0 {
		reasons = append(reasons, fmt.Sprintf("local score %d", local.Score))
	}

	return Decision{
		EventID: uuid.NewString(),
		Action:  action,
		Reasons: reasons,
		Local:   local,
		AI:      verdict,
	}
}
