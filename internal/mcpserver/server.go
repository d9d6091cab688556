// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the catalog for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/biblioteca/internal/apperr"
	"github.com/starford/biblioteca/internal/catalog"
	"github.com/starford/biblioteca/internal/models"
)

const defaultSearchLimit = 100

// fieldKeys maps each column to its tool argument name.
var fieldKeys = map[string]string{
	models.ColDate:           "date",
	models.ColID:             "id",
	models.ColAuthor:         "author",
	models.ColTitle:          "title",
	models.ColPlace:          "place",
	models.ColPublisher:      "publisher",
	models.ColEdition:        "edition",
	models.ColVolume:         "volume",
	models.ColNumber:         "number",
	models.ColYear:           "year",
	models.ColCopy:           "copy",
	models.ColQuantity:       "quantity",
	models.ColSource:         "source",
	models.ColCutter:         "cutter",
	models.ColClassification: "classification",
	models.ColSubjects:       "subjects",
	models.ColCategory:       "category",
	models.ColNote:           "note",
}

// Server wraps the MCP server with catalog tools.
type Server struct {
	mcp *server.MCPServer
	svc *catalog.Service
}

// New creates a new MCP server with all catalog tools registered.
func New(svc *catalog.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Biblioteca",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_records",
		mcp.WithDescription("Case-insensitive search over record id, author and title across all categories. "+
			"An empty query lists every record."),
		mcp.WithString("query", mcp.Description("Substring to look for (empty for all)")),
		mcp.WithNumber("limit", mcp.Description("Maximum records returned (default 100)")),
	), s.searchRecords)

	s.mcp.AddTool(mcp.NewTool("get_record",
		mcp.WithDescription("Read one record by category and id."),
		mcp.WithString("category", mcp.Required(), mcp.Enum(models.Categories...), mcp.Description("Record category")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id (Registro), e.g. 00007")),
	), s.getRecord)

	addOpts := []mcp.ToolOption{
		mcp.WithDescription("Add a record to its category. The id is assigned by the catalog. " +
			"Read the biblioteca://schema resource for the field rules."),
	}
	addOpts = append(addOpts, fieldOptions(true)...)
	s.mcp.AddTool(mcp.NewTool("add_record", addOpts...), s.addRecord)

	updateOpts := []mcp.ToolOption{
		mcp.WithDescription("Edit a record. Only the fields given are changed; the id never changes. " +
			"Giving new_category moves the record to that category under the same id."),
		mcp.WithString("category", mcp.Required(), mcp.Enum(models.Categories...), mcp.Description("Current category")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
		mcp.WithString("new_category", mcp.Enum(models.Categories...), mcp.Description("Target category for a move")),
	}
	updateOpts = append(updateOpts, fieldOptions(false)...)
	s.mcp.AddTool(mcp.NewTool("update_record", updateOpts...), s.updateRecord)

	s.mcp.AddTool(mcp.NewTool("delete_record",
		mcp.WithDescription("Delete one record by category and id."),
		mcp.WithString("category", mcp.Required(), mcp.Enum(models.Categories...), mcp.Description("Record category")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
	), s.deleteRecord)

	s.mcp.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("List every category with its spreadsheet file and record count."),
	), s.listCategories)

	s.mcp.AddTool(mcp.NewTool("export_catalog",
		mcp.WithDescription("Write every record to the consolidated spreadsheet and return its path."),
	), s.exportCatalog)

	s.mcp.AddResource(
		mcp.NewResource(SchemaURI, "Record Schema",
			mcp.WithResourceDescription("Columns, categories and validation rules of catalog records."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSchemaResource,
	)

	return s
}

// fieldOptions declares one string argument per column. forAdd makes title
// and category required and exposes the advisory id.
func fieldOptions(forAdd bool) []mcp.ToolOption {
	var opts []mcp.ToolOption
	for _, c := range models.Columns {
		key := fieldKeys[c]
		switch c {
		case models.ColCategory:
			if forAdd {
				opts = append(opts, mcp.WithString(key, mcp.Required(), mcp.Enum(models.Categories...), mcp.Description(c)))
			}
		case models.ColTitle:
			if forAdd {
				opts = append(opts, mcp.WithString(key, mcp.Required(), mcp.Description(c)))
			} else {
				opts = append(opts, mcp.WithString(key, mcp.Description(c)))
			}
		case models.ColID:
			if forAdd {
				opts = append(opts, mcp.WithString(key, mcp.Description("Advisory; replaced by the next id")))
			}
		default:
			opts = append(opts, mcp.WithString(key, mcp.Description(c)))
		}
	}
	return opts
}

// ServeStdio serves MCP on the given streams until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	limit := req.GetInt("limit", defaultSearchLimit)
	records := s.svc.Search(ctx, query)
	total := len(records)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return jsonResult(map[string]any{"total": total, "records": records})
}

func (s *Server) getRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category, id, errResult := address(req)
	if errResult != nil {
		return errResult, nil
	}
	rec, err := s.svc.Get(ctx, category, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rec)
}

func (s *Server) addRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var rec models.Record
	applyArgs(&rec, req.GetArguments(), true)
	stored, replaced, err := s.svc.Insert(ctx, rec)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"record": stored, "id_replaced": replaced})
}

func (s *Server) updateRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category, id, errResult := address(req)
	if errResult != nil {
		return errResult, nil
	}
	rec, err := s.svc.Get(ctx, category, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := req.GetArguments()
	applyArgs(&rec, args, false)
	rec.Category = category
	if target := req.GetString("new_category", ""); target != "" {
		c, ok := models.LookupCategory(target)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown category: %s", target)), nil
		}
		rec.Category = c
	}

	updated, err := s.svc.Update(ctx, category, id, rec)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(updated)
}

func (s *Server) deleteRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category, id, errResult := address(req)
	if errResult != nil {
		return errResult, nil
	}
	if err := s.svc.Delete(ctx, category, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s %s", category, id)), nil
}

func (s *Server) listCategories(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	infos, err := s.svc.Categories(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(infos)
}

func (s *Server) exportCatalog(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := s.svc.Export(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("exported: %s", path)), nil
}

func (s *Server) readSchemaResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      SchemaURI,
			MIMEType: "text/markdown",
			Text:     RecordSchemaContract,
		},
	}, nil
}

// address resolves the (category, id) pair of a request.
func address(req mcp.CallToolRequest) (string, string, *mcp.CallToolResult) {
	raw, err := req.RequireString("category")
	if err != nil {
		return "", "", mcp.NewToolResultError(err.Error())
	}
	category, ok := models.LookupCategory(raw)
	if !ok {
		return "", "", mcp.NewToolResultError(fmt.Sprintf("%v: unknown category %q", apperr.ErrValidation, raw))
	}
	id, err := req.RequireString("id")
	if err != nil {
		return "", "", mcp.NewToolResultError(err.Error())
	}
	return category, id, nil
}

// applyArgs copies the column arguments present in args onto rec.
func applyArgs(rec *models.Record, args map[string]any, withIDAndCategory bool) {
	for _, c := range models.Columns {
		if !withIDAndCategory && (c == models.ColID || c == models.ColCategory) {
			continue
		}
		v, ok := args[fieldKeys[c]]
		if !ok {
			continue
		}
		value := argString(v)
		if c == models.ColCategory {
			if canonical, ok := models.LookupCategory(value); ok {
				value = canonical
			}
		}
		_ = rec.Set(c, value)
	}
}

func argString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
