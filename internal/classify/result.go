package classify

import (
	"github.com/linkshield/linkshield-go/internal/enrich"
	"github.com/linkshield/linkshield-go/internal/features"
)

// Classification values on the wire. The core model only emits MALICIOUS or
// SAFE; SUSPICIOUS is reserved for advisory escalations by later stages.
const (
	ClassMalicious  = "MALICIOUS"
	ClassSuspicious = "SUSPICIOUS"
	ClassSafe       = "SAFE"
)

// Result is the verdict shared across all pipeline stages and adapters.
type Result struct {
	URL            string                  `json:"url"`
	Classification string                  `json:"classification"`
	Label          string                  `json:"label"` // "malicious" or "benign", from the model
	Confidence     float64                 `json:"confidence"`
	Score          float64                 `json:"score"` // raw malicious probability
	Signals        []string                `json:"signals,omitempty"`
	Attack         *features.AttackContext `json:"attack_context,omitempty"`
	Classifier     string                  `json:"classifier"` // stage that produced the final call
	Reason         string                  `json:"reason,omitempty"`
	Domain         *enrich.DomainInfo      `json:"domain,omitempty"`
	ResponseTimeMs float64                 `json:"response_time_ms,omitempty"`
}
