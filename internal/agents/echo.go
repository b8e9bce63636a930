// ABOUTME: Echo agent: keyword-dispatched utility responses with no model dependency.
// ABOUTME: Useful for connectivity checks, demos, and exercising the agent plumbing.

package agents

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/2389/quorum-hub/internal/agent"
)

var echoFacts = []string{
	"Did you know? Octopuses have three hearts!",
	"Fun fact: Honey never spoils - it can last thousands of years!",
	"Interesting: A group of flamingos is called a 'flamboyance'!",
	"Cool fact: Bananas are berries, but strawberries aren't!",
	"Amazing: There are more possible games of chess than atoms in the observable universe!",
}

const echoHelp = `Echo agent commands:
- Greetings: say "hello", "hi", or "hey"
- Facts: ask for a "fact" or something "random"
- Echo: say "echo <text>" to get it back
- Math: "calculate 2 + 2" or any expression over + - * /
- Status: ask for "status" or "info"
- Farewell: say "bye" or "goodbye"`

// EchoAgent answers a small command vocabulary without any model behind it.
// Every input maps to exactly one deterministic response.
type EchoAgent struct {
	*agent.Core

	mu      sync.Mutex
	started time.Time
}

var _ agent.Agent = (*EchoAgent)(nil)

// NewEchoAgent builds the utility echo agent.
func NewEchoAgent(deps Deps) *EchoAgent {
	core := agent.NewCore(agent.Info{
		ID:            "echo_agent",
		Name:          "Echo Agent",
		Description:   "A lightweight utility agent for connectivity checks, demos, and system validation",
		Type:          "utility",
		Capabilities:  []string{"echo", "random_facts", "math_calculations", "greeting", "system_info"},
		ModelProvider: "built-in",
		ModelName:     "echo_v1",
	}, agent.CoreConfig{Logger: deps.Logger, MaxMessages: deps.MaxHistory})
	return &EchoAgent{Core: core}
}

// Initialize records the start time for uptime reporting.
func (a *EchoAgent) Initialize(ctx context.Context) error {
	a.mu.Lock()
	if a.started.IsZero() {
		a.started = time.Now()
	}
	a.mu.Unlock()
	return a.Core.Initialize(ctx)
}

// Process dispatches on keywords in the message and answers from fixed
// templates, so the same input always yields the same category of response.
func (a *EchoAgent) Process(ctx context.Context, message, sessionID string, extra map[string]any) (*agent.Response, error) {
	start, err := a.Begin(sessionID, message)
	if err != nil {
		return nil, err
	}

	content, capability := a.dispatch(message)
	resp := &agent.Response{
		Content:  content,
		Metadata: map[string]any{"capability": capability},
	}
	return a.Finish(resp, sessionID, start, nil)
}

// Dispatch order matters: a message mentioning both "echo" and "status"
// takes the first matching branch.
func (a *EchoAgent) dispatch(message string) (content, capability string) {
	trimmed := strings.TrimSpace(message)
	lower := strings.ToLower(trimmed)
	words := wordSet(lower)

	switch {
	case containsAnyWord(words, "hello", "hi", "hey", "greetings"):
		return `Hello! I'm the echo agent. Say "help" to see what I can do.`, "greeting"
	case containsAnyWord(words, "bye", "goodbye", "farewell"):
		return "Goodbye! Thanks for stopping by.", "greeting"
	case strings.Contains(lower, "fact") || strings.Contains(lower, "random"):
		return echoFacts[len(trimmed)%len(echoFacts)], "random_facts"
	case strings.Contains(lower, "echo"):
		text := strings.TrimSpace(trimmed[strings.Index(lower, "echo")+len("echo"):])
		if text == "" {
			return "Echo: (no text provided)", "echo"
		}
		return "Echo: " + text, "echo"
	case looksLikeMath(lower):
		return a.handleMath(message), "math_calculations"
	case strings.Contains(lower, "status") || strings.Contains(lower, "info"):
		return a.statusReport(), "system_info"
	case strings.Contains(lower, "help"):
		return echoHelp, "system_info"
	default:
		return fmt.Sprintf("I received your message: %q. Try a greeting, ask for a fact, say \"echo <text>\", do some math, or ask for help.", message), "general"
	}
}

func (a *EchoAgent) handleMath(message string) string {
	expr := extractExpression(message)
	if !strings.ContainsAny(expr, "0123456789") {
		return "I didn't find a math expression. Try something like 'calculate 2 + 2'."
	}
	result, err := evalArithmetic(expr)
	if err != nil {
		return "Sorry, I couldn't calculate that. Try simple expressions like '2 + 2' or '10 * 5'."
	}
	return fmt.Sprintf("Math result: %s = %s", expr, strconv.FormatFloat(result, 'f', -1, 64))
}

func (a *EchoAgent) statusReport() string {
	a.mu.Lock()
	started := a.started
	a.mu.Unlock()

	stats := a.Stats()
	return fmt.Sprintf(
		"Echo agent status:\n- ID: %s\n- Uptime: %s\n- Interactions: %d\n- Average processing time: %.3fs\n- Capabilities: %s",
		a.ID(),
		time.Since(started).Round(time.Second),
		stats.InteractionCount,
		stats.AverageProcessingTime,
		strings.Join(a.Info().Capabilities, ", "),
	)
}

func wordSet(s string) map[string]bool {
	words := make(map[string]bool)
	for _, f := range strings.Fields(s) {
		words[strings.Trim(f, ".,!?;:'\"")] = true
	}
	return words
}

func containsAnyWord(words map[string]bool, candidates ...string) bool {
	for _, c := range candidates {
		if words[c] {
			return true
		}
	}
	return false
}

// Operator characters alone are not enough: "well-known" is not arithmetic.
// A digit somewhere in the message must accompany them.
func looksLikeMath(lower string) bool {
	if strings.Contains(lower, "calculate") || strings.Contains(lower, "math") {
		return true
	}
	return strings.ContainsAny(lower, "+-*/") && strings.ContainsAny(lower, "0123456789")
}

// extractExpression keeps only the characters an arithmetic expression can
// contain, dropping the surrounding prose.
func extractExpression(message string) string {
	var b strings.Builder
	for _, r := range message {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' || r == '-' || r == '*' || r == '/' || r == '.' || r == ' ':
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), " .")
}

// evalArithmetic evaluates a flat expression over + - * / with the usual
// precedence. No parentheses.
func evalArithmetic(expr string) (float64, error) {
	nums, ops, err := parseExpression(expr)
	if err != nil {
		return 0, err
	}

	// Multiplication and division reduce in place; the survivors fold
	// left to right.
	vals := []float64{nums[0]}
	var adds []byte
	for i, op := range ops {
		rhs := nums[i+1]
		switch op {
		case '*':
			vals[len(vals)-1] *= rhs
		case '/':
			if rhs == 0 {
				return 0, errors.New("division by zero")
			}
			vals[len(vals)-1] /= rhs
		default:
			vals = append(vals, rhs)
			adds = append(adds, op)
		}
	}

	result := vals[0]
	for i, op := range adds {
		if op == '+' {
			result += vals[i+1]
		} else {
			result -= vals[i+1]
		}
	}
	return result, nil
}

func parseExpression(expr string) ([]float64, []byte, error) {
	var nums []float64
	var ops []byte

	i := 0
	for i < len(expr) {
		c := expr[i]
		switch {
		case c == ' ':
			i++
		case (c == '+' || c == '*' || c == '/') || (c == '-' && len(nums) == len(ops)+1):
			if len(nums) != len(ops)+1 {
				return nil, nil, fmt.Errorf("unexpected operator %q", string(c))
			}
			ops = append(ops, c)
			i++
		default:
			// A number, possibly signed.
			j := i
			if expr[j] == '-' {
				j++
			}
			digits := j
			for j < len(expr) && (expr[j] == '.' || (expr[j] >= '0' && expr[j] <= '9')) {
				j++
			}
			if j == digits {
				return nil, nil, fmt.Errorf("unexpected character %q", string(c))
			}
			n, err := strconv.ParseFloat(expr[i:j], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("bad number %q", expr[i:j])
			}
			nums = append(nums, n)
			i = j
		}
	}

	if len(nums) == 0 || len(nums) != len(ops)+1 {
		return nil, nil, errors.New("incomplete expression")
	}
	return nums, ops, nil
}
