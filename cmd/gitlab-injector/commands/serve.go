package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lmazure/GitLabInjector/pkg/engine"
	"github.com/lmazure/GitLabInjector/pkg/gitlab"
	"github.com/lmazure/GitLabInjector/pkg/types"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

// JSON-RPC 2.0 types for MCP protocol
type jsonRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type jsonRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *jsonRPCError   `json:"error,omitempty"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// MCP protocol types
type mcpInitializeResult struct {
	ProtocolVersion string          `json:"protocolVersion"`
	Capabilities    mcpCapabilities `json:"capabilities"`
	ServerInfo      mcpServerInfo   `json:"serverInfo"`
}

type mcpCapabilities struct {
	Tools *struct{} `json:"tools,omitempty"`
}

type mcpServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type mcpToolsListResult struct {
	Tools []mcpToolDef `json:"tools"`
}

type mcpToolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

type mcpToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type mcpToolCallResult struct {
	Content []mcpContent `json:"content"`
	IsError bool         `json:"isError,omitempty"`
}

type mcpContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const documentSchema = `{
      "type": "object",
      "description": "The structure definition: users plus a tree of groups with labels, epics, iterations, milestones, members, projects and subgroups",
      "properties": {
        "users": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "id": {"type": "string"},
              "username": {"type": "string"}
            },
            "required": ["id", "username"]
          }
        },
        "groups": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "name": {"type": "string"},
              "description": {"type": "string"},
              "labels": {"type": "array", "items": {"type": "object"}},
              "epics": {"type": "array", "items": {"type": "object"}},
              "iterations": {"type": "array", "items": {"type": "object"}},
              "milestones": {"type": "array", "items": {"type": "object"}},
              "members": {"type": "array", "items": {"type": "object"}},
              "projects": {"type": "array", "items": {"type": "object"}},
              "subgroups": {"type": "array", "items": {"type": "object"}}
            },
            "required": ["name"]
          }
        }
      },
      "required": ["groups"]
    }`

var injectToolSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "document": ` + documentSchema + `,
    "parent_group": {"type": "string", "description": "Full path of an existing group to nest top-level groups under"},
    "dry_run": {"type": "boolean", "description": "Walk the document without creating anything"}
  },
  "required": ["document"]
}`)

var validateToolSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "document": ` + documentSchema + `
  },
  "required": ["document"]
}`)

type injectToolArgs struct {
	Document    types.Document `json:"document"`
	ParentGroup string         `json:"parent_group"`
	DryRun      bool           `json:"dry_run"`
}

func handleMCPRequest(req jsonRPCRequest) jsonRPCResponse {
	switch req.Method {
	case "initialize":
		return jsonRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: mcpInitializeResult{
				ProtocolVersion: "2024-11-05",
				Capabilities:    mcpCapabilities{Tools: &struct{}{}},
				ServerInfo:      mcpServerInfo{Name: "gitlab-injector", Version: Version},
			},
		}

	case "notifications/initialized":
		// Client acknowledgment, no response needed (notification, no ID)
		return jsonRPCResponse{}

	case "tools/list":
		return jsonRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: mcpToolsListResult{
				Tools: []mcpToolDef{
					{
						Name:        "inject_structure",
						Description: "Takes a structure definition describing groups, projects, labels, epics, iterations, milestones, issues and members, and creates it on the configured GitLab instance.",
						InputSchema: injectToolSchema,
					},
					{
						Name:        "validate_structure",
						Description: "Validates a structure definition without making any changes.",
						InputSchema: validateToolSchema,
					},
				},
			},
		}

	case "tools/call":
		return handleToolCall(req)

	default:
		return jsonRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &jsonRPCError{Code: -32601, Message: fmt.Sprintf("method not found: %s", req.Method)},
		}
	}
}

func handleToolCall(req jsonRPCRequest) jsonRPCResponse {
	var params mcpToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return jsonRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &jsonRPCError{Code: -32602, Message: fmt.Sprintf("invalid params: %v", err)},
		}
	}

	switch params.Name {
	case "inject_structure":
		return handleInjectTool(req, params.Arguments)
	case "validate_structure":
		return handleValidateTool(req, params.Arguments)
	default:
		return jsonRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: mcpToolCallResult{
				Content: []mcpContent{{Type: "text", Text: fmt.Sprintf("unknown tool: %s", params.Name)}},
				IsError: true,
			},
		}
	}
}

func handleInjectTool(req jsonRPCRequest, arguments json.RawMessage) jsonRPCResponse {
	var args injectToolArgs
	if err := json.Unmarshal(arguments, &args); err != nil {
		return toolError(req, fmt.Sprintf("failed to parse structure definition: %v", err))
	}

	var client engine.GitLabClient
	if !args.DryRun {
		token := viper.GetString("token")
		if token == "" {
			return toolError(req, "a GitLab token is required (GITLAB_INJECTOR_TOKEN)")
		}
		gl, err := gitlab.NewClient(viper.GetString("url"), token)
		if err != nil {
			return toolError(req, fmt.Sprintf("failed to create gitlab client: %v", err))
		}
		client = gl
	}

	report, err := engine.Inject(context.Background(), client, args.Document, engine.Options{
		ParentGroup: args.ParentGroup,
		DryRun:      args.DryRun,
	})
	if err != nil {
		return toolError(req, fmt.Sprintf("injection failed: %v", err))
	}

	reportJSON, _ := json.Marshal(report)
	return jsonRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: mcpToolCallResult{
			Content: []mcpContent{{Type: "text", Text: string(reportJSON)}},
			IsError: report.HasFailures(),
		},
	}
}

func handleValidateTool(req jsonRPCRequest, arguments json.RawMessage) jsonRPCResponse {
	var args struct {
		Document types.Document `json:"document"`
	}
	if err := json.Unmarshal(arguments, &args); err != nil {
		return toolError(req, fmt.Sprintf("failed to parse structure definition: %v", err))
	}

	errs := engine.ValidateDocument(args.Document)
	if len(errs) > 0 {
		return jsonRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: mcpToolCallResult{
				Content: []mcpContent{{Type: "text", Text: "validation failed:\n" + strings.Join(errs, "\n")}},
				IsError: true,
			},
		}
	}
	return jsonRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: mcpToolCallResult{
			Content: []mcpContent{{Type: "text", Text: "structure definition is valid"}},
		},
	}
}

func toolError(req jsonRPCRequest, message string) jsonRPCResponse {
	return jsonRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: mcpToolCallResult{
			Content: []mcpContent{{Type: "text", Text: message}},
			IsError: true,
		},
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server over stdio",
	Long:  `Run the MCP server to allow AI agents to drive structure injection via the Model Context Protocol over stdin/stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scanner := bufio.NewScanner(os.Stdin)
		// Increase buffer for large structure payloads (1 MB)
		scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
		encoder := json.NewEncoder(os.Stdout)

		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var req jsonRPCRequest
			if err := json.Unmarshal(line, &req); err != nil {
				resp := jsonRPCResponse{
					JSONRPC: "2.0",
					Error:   &jsonRPCError{Code: -32700, Message: fmt.Sprintf("parse error: %v", err)},
				}
				encoder.Encode(resp)
				continue
			}

			resp := handleMCPRequest(req)
			// Notifications (no ID) don't get a response
			if resp.JSONRPC == "" {
				continue
			}
			encoder.Encode(resp)
		}

		return scanner.Err()
	},
}
