package domain

import "time"

// Phase statuses for the decision pipeline state machine.
const (
	PhasePending = "pending"
	PhasePassed  = "passed"
	PhaseFailed  = "failed"
	PhaseBlocked = "blocked"
)

// Canonical phase names, in execution order.
const (
	PhaseGovernanceGate          = "governance-gate"
	PhaseDataReadiness           = "data-readiness"
	PhaseModelBundleSelected     = "model-bundle-selected"
	PhaseConsultantGate          = "consultant-gate"
	PhaseCaseMethodLayer         = "case-method-layer"
	PhaseRegionalKernelGate      = "regional-kernel-gate"
	PhaseOrchestrationRun        = "orchestration-run"
	PhaseControlsBound           = "controls-bound"
	PhaseDecisionPacketAssembled = "decision-packet-assembled"
)

// Packet modes. A run is online when an external data source is
// configured and reachable; offline runs fall back to bundled baselines.
const (
	ModeOnline  = "online"
	ModeOffline = "offline"
)

// ScenarioSummary frames the request the packet decides on; document
// generators read it verbatim.
type ScenarioSummary struct {
	Type          string   `json:"type"`
	Location      string   `json:"location,omitempty"`
	Intent        []string `json:"intent"`
	RequiredFeeds []string `json:"requiredFeeds"`
	GateOK        bool     `json:"gateOk"`
	Blockers      []string `json:"blockers,omitempty"`
}

// PhaseResult records what happened at one pipeline phase. Remediation
// is non-empty whenever the status is blocked or failed.
type PhaseResult struct {
	Phase       string    `json:"phase"`
	Status      string    `json:"status"`
	Detail      string    `json:"detail,omitempty"`
	Remediation []string  `json:"remediation,omitempty"`
	CompletedAt time.Time `json:"completedAt"`
}

// ControlRule binds one monitored risk metric to a trigger threshold.
type ControlRule struct {
	Metric    string `json:"metric"`
	Threshold string `json:"threshold"`
	Action    string `json:"action"`
}

// RiskEntry pairs a tracked risk with its current metric reading and the
// standing mitigation; the register rides next to the control rules.
type RiskEntry struct {
	Risk       string `json:"risk"`
	Metric     string `json:"metric"`
	Mitigation string `json:"mitigation"`
}

// ActionItem is one step on the post-decision roadmap.
type ActionItem struct {
	Horizon string `json:"horizon"`
	Owner   string `json:"owner"`
	Step    string `json:"step"`
}

// PacketScores projects the headline numbers out of the report payload.
type PacketScores struct {
	SPI               float64 `json:"spi"`
	RROI              float64 `json:"rroi"`
	SymbioticFit      float64 `json:"symbioticFit"`
	SupplyChainRisk   float64 `json:"supplyChainRisk"`
	OverallConfidence float64 `json:"overallConfidence"`
}

// ExportReadiness states which downstream artifacts the packet can feed.
type ExportReadiness struct {
	LOIReady    bool     `json:"loiReady"`
	ReportReady bool     `json:"reportReady"`
	Blockers    []string `json:"blockers,omitempty"`
}

// DecisionPacket is the terminal artifact of a pipeline run: the gated
// phase trail plus the distilled decision surface.
type DecisionPacket struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"tenantId"`
	RequestID   string          `json:"requestId"`
	Mode        string          `json:"mode"`
	Scenario    ScenarioSummary `json:"scenario"`
	Phases      []PhaseResult   `json:"phases"`
	Scores      PacketScores    `json:"scores"`
	Controls    []ControlRule   `json:"controls"`
	Risks       []RiskEntry     `json:"risks"`
	Actions     []ActionItem    `json:"actions"`
	Evidence    []string        `json:"evidence"`
	Exports     ExportReadiness `json:"exports"`
	Payload     *ReportPayload  `json:"payload,omitempty"`
	Blocked     bool            `json:"blocked"`
	AssembledAt time.Time       `json:"assembledAt"`
}

// CurrentPhase returns the last recorded phase result, or nil when the
// packet has no trail yet.
func (p *DecisionPacket) CurrentPhase() *PhaseResult {
	if len(p.Phases) == 0 {
		return nil
	}
	return &p.Phases[len(p.Phases)-1]
}
