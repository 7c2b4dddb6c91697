package ptl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"solvo/internal/domain/team"
)

const DefaultNarrativeTimeout = 30 * time.Second

// RiskContext is what the narrator sees: the computed report and who it is about.
type RiskContext struct {
	MemberName string
	Role       string
	Report     team.PtlReport
}

type Narrative struct {
	Analysis   string   `json:"analysis"`
	Mitigation []string `json:"mitigation"`
}

// Narrator produces free text for a computed report. Configured reports
// whether a call can be attempted at all.
type Narrator interface {
	Configured() bool
	RiskAnalysis(ctx context.Context, in RiskContext) (Narrative, error)
}

// Assessment is the deterministic report plus, at most, one of a narrative
// or the reason the narrative is missing.
type Assessment struct {
	Report         team.PtlReport `json:"report"`
	Narrative      *Narrative     `json:"narrative,omitempty"`
	NarrativeError string         `json:"narrativeError,omitempty"`
}

type Assessor struct {
	narrator Narrator
	timeout  time.Duration
	cache    *lru.Cache[string, Narrative]
	logger   *zap.Logger
	now      func() time.Time
}

type AssessorOption func(*Assessor)

// WithClock sets the clock tenure and leave windows are measured against.
func WithClock(now func() time.Time) AssessorOption {
	return func(a *Assessor) { a.now = now }
}

func NewAssessor(narrator Narrator, timeout time.Duration, cacheSize int, logger *zap.Logger, opts ...AssessorOption) (*Assessor, error) {
	if timeout <= 0 {
		timeout = DefaultNarrativeTimeout
	}
	if cacheSize <= 0 {
		cacheSize = 128
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, err := lru.New[string, Narrative](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create narrative cache: %w", err)
	}
	a := &Assessor{
		narrator: narrator,
		timeout:  timeout,
		cache:    cache,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Assess computes the report and asks the narrator for text. The report is
// identical whether or not the narrative succeeds.
func (a *Assessor) Assess(ctx context.Context, member team.TeamMember, tasks []team.Task, clients []team.Client) Assessment {
	report := Compute(member, tasks, clients, a.now())
	out := Assessment{Report: report}

	narrative, err := a.narrate(ctx, member, report)
	if err != nil {
		a.logger.Warn("ptl narrative unavailable",
			zap.String("member_id", member.ID),
			zap.Error(err),
		)
		out.NarrativeError = NarrativeMessage(err)
		return out
	}

	out.Narrative = &narrative
	out.Report.Summary = narrative.Analysis
	out.Report.Mitigation = append([]string(nil), narrative.Mitigation...)
	return out
}

func (a *Assessor) narrate(ctx context.Context, member team.TeamMember, report team.PtlReport) (Narrative, error) {
	if a.narrator == nil || !a.narrator.Configured() {
		return Narrative{}, ErrNarrativeNotConfigured
	}
	key := cacheKey(member, report)
	if cached, ok := a.cache.Get(key); ok {
		return cached, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	type result struct {
		narrative Narrative
		err       error
	}
	done := make(chan result, 1)
	go func() {
		n, err := a.narrator.RiskAnalysis(callCtx, RiskContext{
			MemberName: member.Name,
			Role:       member.Role,
			Report:     report,
		})
		done <- result{narrative: n, err: err}
	}()

	select {
	case <-callCtx.Done():
		return Narrative{}, callCtx.Err()
	case r := <-done:
		if r.err != nil {
			return Narrative{}, r.err
		}
		if strings.TrimSpace(r.narrative.Analysis) == "" {
			return Narrative{}, errors.New("narrative response was empty")
		}
		a.cache.Add(key, r.narrative)
		return r.narrative, nil
	}
}

// NarrativeMessage renders a narrator failure for display.
func NarrativeMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "AI narrative timed out"
	case errors.Is(err, context.Canceled):
		return "AI narrative was cancelled"
	default:
		return err.Error()
	}
}

func cacheKey(member team.TeamMember, report team.PtlReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%s|%d|%s", member.ID, member.Name, member.Role, report.RiskScore, report.RiskLevel)
	for _, f := range report.Factors {
		fmt.Fprintf(&b, "|%s=%s:%s", f.Name, f.Value, f.Impact)
	}
	return b.String()
}
