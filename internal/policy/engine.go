package policy

import (
	"encoding/json"
	"regexp"
	"sort"
	"sync"
)

type Decision string

const (
	Allow   Decision = "allow"
	Deny    Decision = "deny"
	AskUser Decision = "ask_user"
)

// Rule matches a tool call by name and, optionally, by a pattern applied
// to its JSON-encoded arguments. An empty ToolName matches every tool.
type Rule struct {
	ToolName    string
	ArgsPattern *regexp.Regexp
	Decision    Decision
	Priority    int
}

type Config struct {
	Rules           []Rule
	DefaultDecision Decision
	// NonInteractive turns AskUser into Deny
	NonInteractive bool
}

type Engine struct {
	mu              sync.RWMutex
	rules           []Rule
	defaultDecision Decision
	nonInteractive  bool
}

func NewEngine(cfg Config) *Engine {
	e := &Engine{
		defaultDecision: cfg.DefaultDecision,
		nonInteractive:  cfg.NonInteractive,
	}
	if e.defaultDecision == "" {
		e.defaultDecision = AskUser
	}
	for _, rule := range cfg.Rules {
		e.addLocked(rule)
	}
	return e
}

func (e *Engine) AddRule(rule Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.addLocked(rule)
}

// AllowTool records an "always allow" rule for one tool
func (e *Engine) AllowTool(toolName string) {
	e.AddRule(Rule{ToolName: toolName, Decision: Allow, Priority: 100})
}

func (e *Engine) addLocked(rule Rule) {
	e.rules = append(e.rules, rule)
	sort.SliceStable(e.rules, func(i, j int) bool {
		return e.rules[i].Priority > e.rules[j].Priority
	})
}

// Check returns the decision of the highest priority matching rule, or the
// default decision
func (e *Engine) Check(toolName string, args map[string]any) Decision {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var encodedArgs string
	for _, rule := range e.rules {
		if rule.ToolName != "" && rule.ToolName != toolName {
			continue
		}
		if rule.ArgsPattern != nil {
			if encodedArgs == "" {
				data, _ := json.Marshal(args)
				encodedArgs = string(data)
			}
			if !rule.ArgsPattern.MatchString(encodedArgs) {
				continue
			}
		}
		return e.finalize(rule.Decision)
	}
	return e.finalize(e.defaultDecision)
}

func (e *Engine) finalize(d Decision) Decision {
	if d == AskUser && e.nonInteractive {
		return Deny
	}
	return d
}
