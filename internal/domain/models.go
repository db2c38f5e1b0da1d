package domain

import (
	"encoding/json"
	"time"
)

// =============================================================================
// Core Configuration
// =============================================================================

type Config struct {
	LLM       LLMConfig       `json:"llm"`
	Database  DatabaseConfig  `json:"database"`
	Templates TemplatesConfig `json:"templates"`
	Forecast  ForecastConfig  `json:"forecast"`
	Infra     InfraConfig     `json:"infra"`
}

type LLMConfig struct {
	Provider  string `json:"provider"` // "anthropic" | "scripted"
	Model     string `json:"model"`
	APIKeyEnv string `json:"apiKeyEnv"` // env var holding the API key, never the key itself
	MaxTurns  int    `json:"maxTurns"`  // tool-call round trips per conversation turn
}

type DatabaseConfig struct {
	URL string `json:"url"` // "file:trips.db" or a remote libsql:// URL
}

type TemplatesConfig struct {
	Dir   string `json:"dir"`   // directory of checklist template .md files
	Watch bool   `json:"watch"` // reload templates when files change
}

// ForecastConfig controls the background refresh of cached forecasts for
// upcoming trips.
type ForecastConfig struct {
	RefreshCron string `json:"refreshCron"` // cron expression, e.g. "0 6 * * *"
}

type InfraConfig struct {
	LogFormat string `json:"logFormat"` // "json" | "text"
	LogLevel  string `json:"logLevel"`
}

// =============================================================================
// Tool Dispatch Domain
// =============================================================================

// ToolDefinition is the declarative record advertised to the LLM
// function-calling API: a unique name, a natural-language description, and the
// JSON Schema of the tool's input.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// ToolInvocation is one request to run a tool, extracted from a model
// response. ID is a caller-supplied correlation identifier, unique within a
// batch; the argument shape is not checked until dispatch.
type ToolInvocation struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

// ToolResult is the uniform outcome record for one invocation. Exactly one of
// Value and ErrorMessage is set; ElapsedMillis is always present and
// non-negative.
type ToolResult struct {
	InvocationID  string          `json:"invocationId"`
	ToolName      string          `json:"toolName"`
	Value         json.RawMessage `json:"value,omitempty"`
	ErrorMessage  string          `json:"errorMessage,omitempty"`
	ElapsedMillis int64           `json:"elapsedMillis"`
}

// OK reports whether the invocation succeeded.
func (r ToolResult) OK() bool { return r.ErrorMessage == "" }

// =============================================================================
// Trip Planning Domain
// =============================================================================

type Trip struct {
	ID          int64     `json:"id"`
	Destination string    `json:"destination"`
	StartDate   string    `json:"startDate"` // YYYY-MM-DD
	EndDate     string    `json:"endDate"`   // YYYY-MM-DD
	Travelers   int       `json:"travelers"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Checklist struct {
	ID        int64     `json:"id"`
	TripID    *int64    `json:"tripId,omitempty"` // nil for a free-standing checklist
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

type ChecklistItem struct {
	ID          int64     `json:"id"`
	ChecklistID int64     `json:"checklistId"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DayForecast is one day of weather for a location.
type DayForecast struct {
	Date             string  `json:"date"` // YYYY-MM-DD
	HighC            float64 `json:"highC"`
	LowC             float64 `json:"lowC"`
	Condition        string  `json:"condition"`
	PrecipitationPct int     `json:"precipitationPct"`
	HumidityPct      int     `json:"humidityPct"`
}

// =============================================================================
// Conversation Domain
// =============================================================================

// ChatMessage is one turn of a tool-calling conversation. An assistant
// message may carry ToolCalls alongside its text; the following user message
// carries the matching ToolResults.
type ChatMessage struct {
	Role        string           `json:"role"` // "user" | "assistant"
	Text        string           `json:"text,omitempty"`
	ToolCalls   []ToolInvocation `json:"toolCalls,omitempty"`
	ToolResults []ToolResult     `json:"toolResults,omitempty"`
}

// ChatReply is the provider's answer to one Chat call.
type ChatReply struct {
	Text       string           `json:"text"`
	ToolCalls  []ToolInvocation `json:"toolCalls,omitempty"`
	StopReason string           `json:"stopReason"` // e.g. "end_turn", "tool_use"
}
