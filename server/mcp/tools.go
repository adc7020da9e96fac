package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kasuganosora/gridsource/pkg/logger"
	"github.com/kasuganosora/gridsource/pkg/resource/application"
	"github.com/kasuganosora/gridsource/pkg/resource/domain"
	"github.com/kasuganosora/gridsource/pkg/window"
)

// ToolDeps holds shared dependencies for MCP tool handlers
type ToolDeps struct {
	Datasets *application.Registry
	Resolver *window.Resolver
	Limits   window.Limits
	Logger   logger.Logger
}

// RowsResult is the JSON rendered by get_rows
type RowsResult struct {
	Dataset  string       `json:"dataset"`
	StartRow int          `json:"startRow"`
	EndRow   int          `json:"endRow"`
	Rows     []domain.Row `json:"rows"`
	RowCount int64        `json:"rowCount"`
}

// HandleListDatasets lists the registered datasets and their columns
func (d *ToolDeps) HandleListDatasets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list := d.Datasets.List()
	infos := make([]application.Info, 0, len(list))
	for _, ds := range list {
		infos = append(infos, ds.Info())
	}
	return jsonResult(infos)
}

// HandleGetRows resolves one data window of a dataset
func (d *ToolDeps) HandleGetRows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("dataset", "")
	if name == "" {
		return mcp.NewToolResultError("dataset parameter is required"), nil
	}

	ds, err := d.Datasets.Get(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := domain.WindowRequest{
		StartRow: request.GetInt("start_row", 0),
		EndRow:   request.GetInt("end_row", 0),
	}
	args := request.GetArguments()
	if err := decodeArgument(args, "filter_model", &req.FilterModel); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid filter_model: %v", err)), nil
	}
	if err := decodeArgument(args, "sort_model", &req.SortModel); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid sort_model: %v", err)), nil
	}

	if err := d.Limits.Check(&req); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := d.Resolver.Resolve(ctx, ds.Source, &req)
	if err != nil {
		d.Logger.Warn("[MCP] get_rows %s failed: %v", name, err)
		return mcp.NewToolResultError(fmt.Sprintf("get_rows failed: %v", err)), nil
	}

	rows := result.Rows
	if rows == nil {
		rows = []domain.Row{}
	}
	d.Logger.Debug("[MCP] get_rows %s [%d, %d) matched=%d pushdown=%v", name, req.StartRow, req.EndRow, result.RowCount, result.Stats.Pushdown)

	return jsonResult(RowsResult{
		Dataset:  ds.Name,
		StartRow: req.StartRow,
		EndRow:   req.EndRow,
		Rows:     rows,
		RowCount: result.RowCount,
	})
}

// HandleUpdateRow sets one field of one row of a writable dataset
func (d *ToolDeps) HandleUpdateRow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("dataset", "")
	field := request.GetString("field", "")
	args := request.GetArguments()
	id, hasID := args["id"]
	if name == "" || field == "" || !hasID || id == nil {
		return mcp.NewToolResultError("dataset, id and field parameters are required"), nil
	}

	ds, err := d.Datasets.Get(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	row, err := ds.Update(ctx, id, field, args["value"])
	if err != nil {
		d.Logger.Warn("[MCP] update_row %s/%v failed: %v", name, id, err)
		return mcp.NewToolResultError(fmt.Sprintf("update_row failed: %v", err)), nil
	}
	d.Logger.Info("[MCP] updated %s row %v field %s", name, id, field)
	return jsonResult(row)
}

// decodeArgument 参数可以是 JSON 对象，也可以是 JSON 字符串
func decodeArgument(args map[string]any, key string, v interface{}) error {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil
	}

	var data []byte
	if s, isString := raw.(string); isString {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		data = []byte(s)
	} else {
		var err error
		if data, err = json.Marshal(raw); err != nil {
			return err
		}
	}
	return json.Unmarshal(data, v)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
