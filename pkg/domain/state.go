package domain

// Field identifies a State field that a node can own and update.
type Field string

const (
	FieldTokens         Field = "tokens"
	FieldMarketData     Field = "market_data"
	FieldResearchReport Field = "research_report"
	FieldAnalysisInfo   Field = "analysis_info"
	FieldTradeDecision  Field = "trade_decision"
	FieldConfidence     Field = "confidence"
)

// Pipeline node names. They double as checkpoint positions.
const (
	NodeFetchMarketData = "fetch_market_data"
	NodeResearch        = "research"
	NodeAnalysis        = "analysis"
	NodeTradeDecision   = "trade_decision"

	// PositionEnd marks a checkpoint taken after the last node completed.
	PositionEnd = "end"
)

// Ownership maps each node to the State fields it is allowed to write.
// Apply enforces this at merge time; a write outside the set is a
// ValidationError regardless of what the node computed.
var Ownership = map[string][]Field{
	NodeFetchMarketData: {FieldTokens, FieldMarketData},
	NodeResearch:        {FieldResearchReport},
	NodeAnalysis:        {FieldAnalysisInfo},
	NodeTradeDecision:   {FieldTradeDecision, FieldConfidence},
}

// State is the shared record of one pipeline run. The executor is the only
// writer; nodes receive a copy and return partial updates. Payload fields
// are nil until their producing node has run, which distinguishes "not yet
// computed" from "computed as empty".
type State struct {
	MarketID       string          `json:"market_id"`
	Tokens         []Token         `json:"tokens,omitempty"`
	MarketData     *MarketData     `json:"market_data,omitempty"`
	ResearchReport *ResearchReport `json:"research_report,omitempty"`
	AnalysisInfo   *AnalysisInfo   `json:"analysis_info,omitempty"`
	TradeDecision  *TradeDecision  `json:"trade_decision,omitempty"`
	Confidence     float64         `json:"confidence"`
	LoopStep       int             `json:"loop_step"`
}

// NewState creates the initial state for a run. Tokens may be nil, in which
// case FetchMarketData populates them.
func NewState(marketID string, tokens []Token) *State {
	return &State{
		MarketID: marketID,
		Tokens:   append([]Token(nil), tokens...),
	}
}

// Clone returns a deep copy. Nodes and checkpoints always operate on copies
// so no consumer can mutate the executor's view by pointer.
func (s *State) Clone() *State {
	c := *s
	c.Tokens = append([]Token(nil), s.Tokens...)
	if s.MarketData != nil {
		md := *s.MarketData
		md.Outcomes = append([]string(nil), s.MarketData.Outcomes...)
		c.MarketData = &md
	}
	if s.ResearchReport != nil {
		rr := *s.ResearchReport
		rr.Findings = append([]string(nil), s.ResearchReport.Findings...)
		rr.Sources = append([]Source(nil), s.ResearchReport.Sources...)
		c.ResearchReport = &rr
	}
	if s.AnalysisInfo != nil {
		ai := *s.AnalysisInfo
		ai.KeyFactors = append([]string(nil), s.AnalysisInfo.KeyFactors...)
		ai.Risks = append([]string(nil), s.AnalysisInfo.Risks...)
		c.AnalysisInfo = &ai
	}
	if s.TradeDecision != nil {
		td := *s.TradeDecision
		c.TradeDecision = &td
	}
	return &c
}

// Update is a partial state mutation returned by a node. Only set fields are
// merged; merge is a field-level replace, never a deep merge.
type Update struct {
	Tokens         []Token         `json:"tokens,omitempty" mapstructure:"tokens"`
	MarketData     *MarketData     `json:"market_data,omitempty" mapstructure:"market_data"`
	ResearchReport *ResearchReport `json:"research_report,omitempty" mapstructure:"research_report"`
	AnalysisInfo   *AnalysisInfo   `json:"analysis_info,omitempty" mapstructure:"analysis_info"`
	TradeDecision  *TradeDecision  `json:"trade_decision,omitempty" mapstructure:"trade_decision"`
	Confidence     *float64        `json:"confidence,omitempty" mapstructure:"confidence"`
}

// Fields reports which fields the update sets.
func (u Update) Fields() []Field {
	var fields []Field
	if u.Tokens != nil {
		fields = append(fields, FieldTokens)
	}
	if u.MarketData != nil {
		fields = append(fields, FieldMarketData)
	}
	if u.ResearchReport != nil {
		fields = append(fields, FieldResearchReport)
	}
	if u.AnalysisInfo != nil {
		fields = append(fields, FieldAnalysisInfo)
	}
	if u.TradeDecision != nil {
		fields = append(fields, FieldTradeDecision)
	}
	if u.Confidence != nil {
		fields = append(fields, FieldConfidence)
	}
	return fields
}

// Apply merges an update owned by the named node and returns a new state
// with LoopStep incremented. The receiver is never mutated. It fails with a
// ValidationError if the owner is unknown or sets a field outside its
// ownership set.
func (s *State) Apply(owner string, u Update) (*State, error) {
	owned, ok := Ownership[owner]
	if !ok {
		return nil, &ValidationError{Node: owner, Reason: "unknown node"}
	}
	ownedSet := make(map[Field]bool, len(owned))
	for _, f := range owned {
		ownedSet[f] = true
	}
	for _, f := range u.Fields() {
		if !ownedSet[f] {
			return nil, &ValidationError{Node: owner, Field: f, Reason: "field outside ownership set"}
		}
	}

	next := s.Clone()
	if u.Tokens != nil {
		next.Tokens = append([]Token(nil), u.Tokens...)
	}
	if u.MarketData != nil {
		next.MarketData = u.MarketData
	}
	if u.ResearchReport != nil {
		next.ResearchReport = u.ResearchReport
	}
	if u.AnalysisInfo != nil {
		next.AnalysisInfo = u.AnalysisInfo
	}
	if u.TradeDecision != nil {
		next.TradeDecision = u.TradeDecision
	}
	if u.Confidence != nil {
		next.Confidence = *u.Confidence
	}
	next.LoopStep = s.LoopStep + 1
	return next, nil
}
