// ABOUTME: Admin CLI for quorum-hub tool routing and agent management.
// ABOUTME: Talks to the hub's JSON API with bearer token authentication.

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/2389/quorum-hub/internal/tool"
)

const banner = `
                                                                _             _
  __ _  _   _   ___   _ __  _   _  _ __ ___           __ _   __| | _ __ ___  (_) _ __
 / _' || | | | / _ \ | '__|| | | || '_ ' _ \  _____  / _' | / _' || '_ ' _ \ | || '_ \
| (_| || |_| || (_) || |   | |_| || | | | | ||_____|| (_| || (_| || | | | | || || | | |
 \__, | \__,_| \___/ |_|    \__,_||_| |_| |_|        \__,_| \__,_||_| |_| |_||_||_| |_|
    |_|
`

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := loadConfig(adminConfigPath())
	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}

	baseURL := os.Getenv("QUORUM_HUB_URL")
	if baseURL == "" {
		baseURL = cfg.Hub.URL
	}
	if baseURL == "" {
		baseURL = "http://localhost:8420"
	}

	token := os.Getenv("QUORUM_TOKEN")
	if token == "" {
		token = cfg.Hub.Token
	}
	if token == "" {
		token = readTokenFile()
	}

	client := newAPIClient(baseURL, token)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "status":
		err = cmdStatus(ctx, client)
	case "servers":
		err = cmdServers(ctx, client)
	case "tools":
		err = cmdTools(ctx, client, args)
	case "exec":
		err = cmdExec(ctx, client, args)
	case "health":
		err = cmdHealth(ctx, client)
	case "agents":
		err = cmdAgents(ctx, client, args)
	case "discover":
		err = cmdDiscover(ctx, client, args)
	case "stats":
		err = cmdStats(ctx, client)
	case "history":
		err = cmdHistory(ctx, client, args)
	case "token":
		err = cmdToken(ctx, client, args)
	case "chat":
		err = cmdChat(ctx, client, cfg.Chat.Agent, args)
	case "help", "-h", "--help":
		printUsage()
		err = nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: quorum-admin <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  status                  Show hub reachability and readiness")
	fmt.Println("  servers                 List tool servers")
	fmt.Println("  tools [--server <n>]    List routable tools")
	fmt.Println("  exec <tool> [args]      Execute a tool (--param k=v, --json <object>)")
	fmt.Println("  health                  Show the tool manager health report")
	fmt.Println("  agents                  List registered agents")
	fmt.Println("  agents info <id>        Show one agent with its stats")
	fmt.Println("  agents reload <id>      Reinitialize an agent")
	fmt.Println("  discover <query>        Rank agents for a task description")
	fmt.Println("  stats                   Show agent and tool usage statistics")
	fmt.Println("  history <session-id>    Print a session transcript")
	fmt.Println("  token create --name <n> Mint an API token")
	fmt.Println("  token list              List token metadata")
	fmt.Println("  token revoke <id>       Revoke a token")
	fmt.Println("  chat [agent-id] [msg]   Chat with an agent (REPL if no message)")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  QUORUM_HUB_URL          Hub base URL (default: http://localhost:8420)")
	fmt.Println("  QUORUM_TOKEN            Bearer token (falls back to ~/.config/quorum/token)")
	fmt.Println("  QUORUM_ADMIN_CONFIG     Config file (default: ~/.config/quorum/admin.toml)")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  quorum-admin tools")
	fmt.Println("  quorum-admin exec web_search --param query=\"golang sqlite\"")
	fmt.Println("  quorum-admin discover \"summarize a document\"")
	fmt.Println("  quorum-admin chat general_assistant")
	fmt.Println()
}

// cmdStatus shows hub reachability, readiness, and the tool manager
// summary.
func cmdStatus(ctx context.Context, client *apiClient) error {
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()

	code, _, err := client.healthText(ctx, "/health")
	if err != nil {
		yellow.Printf("  Hub:      ")
		color.Red("UNREACHABLE (%v)\n", err)
		fmt.Println()
		return nil
	}
	if code != http.StatusOK {
		yellow.Printf("  Hub:      ")
		color.Red("unhealthy (status %d)\n", code)
		fmt.Println()
		return nil
	}
	green.Printf("  Hub:      ")
	fmt.Printf("connected to %s\n", client.baseURL)

	code, ready, err := client.healthText(ctx, "/health/ready")
	if err == nil && code == http.StatusOK {
		green.Printf("  Agents:   ")
		fmt.Println(ready)
	} else {
		yellow.Printf("  Agents:   ")
		fmt.Println(ready)
	}

	health, err := client.MCPHealth(ctx)
	if err != nil {
		yellow.Printf("  Servers:  ")
		color.Red("%v\n", err)
	} else {
		green.Printf("  Servers:  ")
		fmt.Printf("%d (%d tools, %s)\n", health.TotalServers, health.TotalTools, health.ManagerStatus)
	}

	if client.token != "" {
		green.Printf("  Token:    ")
		fmt.Println("configured")
	} else {
		yellow.Printf("  Token:    ")
		fmt.Println("(none - set QUORUM_TOKEN if auth is enabled)")
	}
	fmt.Println()

	return nil
}

// cmdServers lists registered tool servers.
func cmdServers(ctx context.Context, client *apiClient) error {
	servers, err := client.Servers(ctx)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Tool Servers")
	cyan.Println("  ------------")

	if len(servers) == 0 {
		fmt.Println("  (no servers registered)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  NAME\tSTATUS\tTOOLS\tCHECKED\tDESCRIPTION")
	fmt.Fprintln(w, "  ----\t------\t-----\t-------\t-----------")

	for _, s := range servers {
		checked := ""
		if !s.LastHealthCheck.IsZero() {
			checked = s.LastHealthCheck.Format("Jan 02 15:04")
		}
		fmt.Fprintf(w, "  %s\t%s\t%d\t%s\t%s\n", s.Name, s.Status, len(s.Tools), checked, truncate(s.Description, 40))
	}
	w.Flush()
	fmt.Println()

	return nil
}

// cmdTools lists routable tools, optionally filtered to one server.
func cmdTools(ctx context.Context, client *apiClient, args []string) error {
	var server string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--server", "-s":
			if i+1 >= len(args) {
				return fmt.Errorf("--server requires a name")
			}
			i++
			server = args[i]
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	tools, err := client.Tools(ctx, server)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Routable Tools")
	cyan.Println("  --------------")

	if len(tools) == 0 {
		fmt.Println("  (no tools available)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  NAME\tSERVER\tCAPABILITIES\tDESCRIPTION")
	fmt.Fprintln(w, "  ----\t------\t------------\t-----------")

	for _, info := range tools {
		caps := truncate(strings.Join(info.Capabilities, ","), 24)
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", info.Name, info.ServerName, caps, truncate(info.Description, 40))
	}
	w.Flush()
	fmt.Println()

	return nil
}

// cmdExec executes one tool and prints the result envelope.
func cmdExec(ctx context.Context, client *apiClient, args []string) error {
	if len(args) < 1 || strings.HasPrefix(args[0], "-") {
		return fmt.Errorf("usage: exec <tool> [--param key=value ...] [--json <object>]")
	}
	toolName := args[0]
	params := map[string]any{}

	for i := 1; i < len(args); i++ {
		switch args[i] {
		case "--param", "-p":
			if i+1 >= len(args) {
				return fmt.Errorf("--param requires key=value")
			}
			i++
			key, value, ok := strings.Cut(args[i], "=")
			if !ok || key == "" {
				return fmt.Errorf("invalid --param %q, want key=value", args[i])
			}
			params[key] = value
		case "--json", "-j":
			if i+1 >= len(args) {
				return fmt.Errorf("--json requires an object")
			}
			i++
			if err := json.Unmarshal([]byte(args[i]), &params); err != nil {
				return fmt.Errorf("invalid --json value: %w", err)
			}
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	resp, err := client.Execute(ctx, &tool.Request{ToolName: toolName, Parameters: params})
	if err != nil {
		return err
	}

	if !resp.Success {
		return fmt.Errorf("%s failed: %s", toolName, resp.Error)
	}

	green := color.New(color.FgGreen)
	green.Printf("✓ %s", toolName)
	if server, ok := resp.Metadata["server_name"].(string); ok {
		fmt.Printf("  (%.3fs via %s)", resp.ExecutionTime, server)
	}
	fmt.Println()

	switch v := resp.Result.(type) {
	case nil:
	case string:
		fmt.Println(v)
	default:
		pretty, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			fmt.Printf("%v\n", v)
		} else {
			fmt.Println(string(pretty))
		}
	}

	return nil
}

// cmdHealth prints the tool manager health report.
func cmdHealth(ctx context.Context, client *apiClient) error {
	health, err := client.MCPHealth(ctx)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Tool Manager")
	cyan.Println("  ------------")
	fmt.Printf("  Status:   %s\n", health.ManagerStatus)
	fmt.Printf("  Servers:  %d\n", health.TotalServers)
	fmt.Printf("  Tools:    %d\n", health.TotalTools)
	fmt.Println()

	if len(health.Servers) == 0 {
		return nil
	}

	names := make([]string, 0, len(health.Servers))
	for name := range health.Servers {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  SERVER\tSTATUS\tTOOLS\tERROR")
	fmt.Fprintln(w, "  ------\t------\t-----\t-----")
	for _, name := range names {
		sh := health.Servers[name]
		fmt.Fprintf(w, "  %s\t%s\t%d\t%s\n", name, sh.Status, sh.ToolsCount, sh.Error)
	}
	w.Flush()
	fmt.Println()

	return nil
}

// cmdAgents handles agent subcommands.
func cmdAgents(ctx context.Context, client *apiClient, args []string) error {
	// Default to list
	subcmd := "list"
	if len(args) > 0 {
		subcmd = args[0]
		args = args[1:]
	}

	switch subcmd {
	case "list", "ls":
		return cmdAgentsList(ctx, client, args)
	case "info", "show":
		if len(args) < 1 {
			return fmt.Errorf("usage: agents info <agent-id>")
		}
		return cmdAgentInfo(ctx, client, args[0])
	case "reload":
		if len(args) < 1 {
			return fmt.Errorf("usage: agents reload <agent-id>")
		}
		return cmdAgentReload(ctx, client, args[0])
	default:
		return fmt.Errorf("unknown agents subcommand: %s (use list, info, reload)", subcmd)
	}
}

// cmdAgentsList lists registered agents.
func cmdAgentsList(ctx context.Context, client *apiClient, args []string) error {
	var typeFilter, statusFilter string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--type", "-t":
			if i+1 >= len(args) {
				return fmt.Errorf("--type requires a value")
			}
			i++
			typeFilter = args[i]
		case "--status", "-s":
			if i+1 >= len(args) {
				return fmt.Errorf("--status requires a value")
			}
			i++
			statusFilter = args[i]
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	agents, err := client.Agents(ctx, typeFilter, statusFilter)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Agents")
	cyan.Println("  ------")

	if len(agents) == 0 {
		fmt.Println("  (no agents registered)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tNAME\tTYPE\tSTATUS\tCAPABILITIES")
	fmt.Fprintln(w, "  --\t----\t----\t------\t------------")

	for _, a := range agents {
		caps := truncate(strings.Join(a.Capabilities, ","), 32)
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n", a.ID, truncate(a.Name, 24), a.Type, a.Status, caps)
	}
	w.Flush()
	fmt.Println()

	return nil
}

// cmdAgentInfo shows one agent and its processing stats.
func cmdAgentInfo(ctx context.Context, client *apiClient, id string) error {
	snap, stats, err := client.AgentDetail(ctx, id)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Agent")
	cyan.Println("  -----")
	fmt.Printf("  ID:            %s\n", snap.ID)
	fmt.Printf("  Name:          %s\n", snap.Name)
	fmt.Printf("  Type:          %s\n", snap.Type)
	fmt.Printf("  Status:        %s\n", snap.Status)
	fmt.Printf("  Description:   %s\n", snap.Description)
	if len(snap.Capabilities) > 0 {
		fmt.Printf("  Capabilities:  %s\n", strings.Join(snap.Capabilities, ", "))
	}
	if snap.ModelProvider != "" {
		fmt.Printf("  Model:         %s/%s\n", snap.ModelProvider, snap.ModelName)
	}
	fmt.Printf("  Streaming:     %t\n", snap.SupportsStreaming)
	fmt.Printf("  Multimodal:    %t\n", snap.SupportsMultimodal)

	if stats != nil {
		fmt.Println()
		cyan.Println("  Stats")
		cyan.Println("  -----")
		fmt.Printf("  Interactions:  %d\n", stats.InteractionCount)
		fmt.Printf("  Total time:    %.2fs\n", stats.TotalProcessingTime)
		fmt.Printf("  Average time:  %.2fs\n", stats.AverageProcessingTime)
		fmt.Printf("  Sessions:      %d\n", stats.ActiveSessions)
	}
	fmt.Println()

	return nil
}

// cmdAgentReload reinitializes one agent.
func cmdAgentReload(ctx context.Context, client *apiClient, id string) error {
	if err := client.ReloadAgent(ctx, id); err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("✓ Reloaded agent: %s\n", id)

	return nil
}

// cmdDiscover ranks agents against a task description.
func cmdDiscover(ctx context.Context, client *apiClient, args []string) error {
	var parts []string
	limit := 0

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--limit", "-l":
			if i+1 >= len(args) {
				return fmt.Errorf("--limit requires a number")
			}
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid limit: %s", args[i])
			}
			limit = n
		default:
			parts = append(parts, args[i])
		}
	}

	query := strings.TrimSpace(strings.Join(parts, " "))
	if query == "" {
		return fmt.Errorf("usage: discover <query> [--limit <n>]")
	}

	agents, err := client.Discover(ctx, query, limit)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Printf("  Agents for %q\n", query)
	cyan.Println("  ----------------")

	if len(agents) == 0 {
		fmt.Println("  (no matching agents)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tNAME\tTYPE\tDESCRIPTION")
	fmt.Fprintln(w, "  --\t----\t----\t-----------")
	for _, a := range agents {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", a.ID, truncate(a.Name, 24), a.Type, truncate(a.Description, 40))
	}
	w.Flush()
	fmt.Println()

	return nil
}

// cmdStats prints agent activity and tool usage.
func cmdStats(ctx context.Context, client *apiClient) error {
	stats, err := client.Stats(ctx)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Agent Activity")
	cyan.Println("  --------------")

	if len(stats.Agents) == 0 {
		fmt.Println("  (no interactions yet)")
	} else {
		ids := make([]string, 0, len(stats.Agents))
		for id := range stats.Agents {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  AGENT\tINTERACTIONS\tAVG TIME\tSESSIONS")
		fmt.Fprintln(w, "  -----\t------------\t--------\t--------")
		for _, id := range ids {
			s := stats.Agents[id]
			fmt.Fprintf(w, "  %s\t%d\t%.2fs\t%d\n", id, s.InteractionCount, s.AverageProcessingTime, s.ActiveSessions)
		}
		w.Flush()
	}
	fmt.Println()

	cyan.Println("  Tool Usage")
	cyan.Println("  ----------")

	if len(stats.Tools) == 0 {
		fmt.Println("  (no executions recorded)")
	} else {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  TOOL\tRUNS\tFAILURES\tAVG MS")
		fmt.Fprintln(w, "  ----\t----\t--------\t------")
		for _, u := range stats.Tools {
			fmt.Fprintf(w, "  %s\t%d\t%d\t%.1f\n", u.ToolName, u.Executions, u.Failures, u.AvgDurationMS)
		}
		w.Flush()
	}
	fmt.Println()

	fmt.Printf("  Active sessions: %d\n", stats.ActiveSessions)
	fmt.Println()

	return nil
}

// cmdHistory prints a session transcript.
func cmdHistory(ctx context.Context, client *apiClient, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: history <session-id>")
	}

	msgs, err := client.History(ctx, args[0])
	if err != nil {
		return err
	}

	gray := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	fmt.Println()
	for _, m := range msgs {
		ts := m.Timestamp
		if t, err := time.Parse(time.RFC3339, m.Timestamp); err == nil {
			ts = t.Format("Jan 02 15:04:05")
		}
		gray.Printf("  %s ", ts)

		if m.Role == "user" {
			green.Printf("%s: ", m.Role)
		} else {
			label := m.Role
			if id, ok := m.Metadata["agent_id"].(string); ok {
				label = id
			}
			cyan.Printf("%s: ", label)
		}
		fmt.Println(m.Content)
	}
	fmt.Println()

	return nil
}

// cmdToken handles token subcommands.
func cmdToken(ctx context.Context, client *apiClient, args []string) error {
	subcmd := ""
	if len(args) > 0 {
		subcmd = args[0]
		args = args[1:]
	}

	switch subcmd {
	case "create":
		return cmdTokenCreate(ctx, client, args)
	case "list", "ls":
		return cmdTokenList(ctx, client)
	case "revoke", "rm", "delete":
		if len(args) < 1 {
			return fmt.Errorf("usage: token revoke <token-id>")
		}
		return cmdTokenRevoke(ctx, client, args[0])
	default:
		return fmt.Errorf("usage: token create --name <name> | token list | token revoke <id>")
	}
}

// cmdTokenCreate mints a new API token.
func cmdTokenCreate(ctx context.Context, client *apiClient, args []string) error {
	var name string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--name", "-n":
			if i+1 >= len(args) {
				return fmt.Errorf("--name requires a value")
			}
			i++
			name = args[i]
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	if name == "" {
		return fmt.Errorf("usage: token create --name <name>")
	}

	minted, err := client.MintToken(ctx, name)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	fmt.Println()
	green.Println("  Token created successfully")
	fmt.Println()
	cyan.Println("  Name:    " + minted.Name)
	cyan.Println("  ID:      " + minted.ID)
	cyan.Println("  Prefix:  " + minted.Prefix)
	fmt.Println()
	fmt.Println("  Token (keep this secret!):")
	fmt.Println()
	fmt.Println("  " + minted.Token)
	fmt.Println()

	return nil
}

// cmdTokenList lists token metadata.
func cmdTokenList(ctx context.Context, client *apiClient) error {
	tokens, err := client.ListTokens(ctx)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  API Tokens")
	cyan.Println("  ----------")

	if len(tokens) == 0 {
		fmt.Println("  (no tokens)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tNAME\tPREFIX\tCREATED\tLAST USED")
	fmt.Fprintln(w, "  --\t----\t------\t-------\t---------")

	for _, tok := range tokens {
		created := tok.CreatedAt
		if t, err := time.Parse(time.RFC3339, tok.CreatedAt); err == nil {
			created = t.Format("Jan 02 15:04")
		}
		lastUsed := "never"
		if tok.LastUsedAt != "" {
			lastUsed = tok.LastUsedAt
			if t, err := time.Parse(time.RFC3339, tok.LastUsedAt); err == nil {
				lastUsed = t.Format("Jan 02 15:04")
			}
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n", truncate(tok.ID, 12), truncate(tok.Name, 24), tok.Prefix, created, lastUsed)
	}
	w.Flush()
	fmt.Println()

	return nil
}

// cmdTokenRevoke revokes one token by ID.
func cmdTokenRevoke(ctx context.Context, client *apiClient, id string) error {
	if err := client.RevokeToken(ctx, id); err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("✓ Revoked token: %s\n", id)

	return nil
}

// cmdChat provides one-shot or interactive chat with an agent.
func cmdChat(ctx context.Context, client *apiClient, defaultAgent string, args []string) error {
	agentID := defaultAgent
	if len(args) > 0 {
		agentID = args[0]
		args = args[1:]
	}
	if agentID == "" {
		return fmt.Errorf("usage: chat <agent-id> [message] (or set chat.agent in config)")
	}

	if len(args) > 0 {
		// One-shot mode
		message := strings.Join(args, " ")
		_, err := chatSend(ctx, client, agentID, "", message)
		return err
	}

	return chatREPL(ctx, client, agentID)
}

// chatSend streams one message, printing deltas as they arrive, and
// returns the session ID the hub assigned. Agents without streaming
// support answer over the plain chat endpoint instead.
func chatSend(ctx context.Context, client *apiClient, agentID, sessionID, message string) (string, error) {
	req := chatRequest{AgentID: agentID, Message: message, SessionID: sessionID}

	gotSession := sessionID
	err := client.ChatStream(ctx, req, func(ev streamEvent) error {
		switch ev.Event {
		case "started":
			var started struct {
				SessionID string `json:"session_id"`
			}
			if err := json.Unmarshal(ev.Data, &started); err == nil && started.SessionID != "" {
				gotSession = started.SessionID
			}
		case "chunk":
			var chunk struct {
				Delta string `json:"delta"`
			}
			if err := json.Unmarshal(ev.Data, &chunk); err != nil {
				return fmt.Errorf("decoding chunk: %w", err)
			}
			fmt.Print(chunk.Delta)
		case "done":
			fmt.Println()
		case "error":
			var fail struct {
				Error string `json:"error"`
			}
			if err := json.Unmarshal(ev.Data, &fail); err == nil && fail.Error != "" {
				return fmt.Errorf("%s", fail.Error)
			}
			return fmt.Errorf("stream failed")
		}
		return nil
	})
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest && strings.Contains(apiErr.Message, "streaming") {
			resp, chatErr := client.Chat(ctx, req)
			if chatErr != nil {
				return gotSession, chatErr
			}
			fmt.Println(resp.Content)
			return resp.SessionID, nil
		}
		return gotSession, err
	}
	return gotSession, nil
}

// chatREPL runs an interactive read-eval-print loop. The session ID
// from the first exchange carries through so the agent keeps context.
func chatREPL(ctx context.Context, client *apiClient, agentID string) error {
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	cyan.Printf("Chat with agent %s (Ctrl+D to exit)\n\n", agentID)

	sessionID := ""
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), 1024*1024) // 1MB max input
	for {
		green.Print("> ")
		if !scanner.Scan() {
			// EOF (Ctrl+D) or error
			fmt.Println()
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		sid, err := chatSend(ctx, client, agentID, sessionID, line)
		if sid != "" {
			sessionID = sid
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		fmt.Println()
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// readTokenFile reads the token saved by `quorum-hub bootstrap`.
func readTokenFile() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	data, err := os.ReadFile(filepath.Join(configDir, "quorum", "token"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
