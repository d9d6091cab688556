package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/biblioteca/internal/catalog"
	"github.com/starford/biblioteca/internal/models"
	"github.com/starford/biblioteca/internal/testutil"
)

func testServer(t *testing.T) (*Server, *catalog.Service) {
	t.Helper()
	_, store := testutil.TestStore(t)
	svc := catalog.NewService(store, catalog.WithJournal(testutil.TestJournal(t)))
	return New(svc), svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handlers are
	// called directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_records":
		result, err = srv.searchRecords(ctx, req)
	case "get_record":
		result, err = srv.getRecord(ctx, req)
	case "add_record":
		result, err = srv.addRecord(ctx, req)
	case "update_record":
		result, err = srv.updateRecord(ctx, req)
	case "delete_record":
		result, err = srv.deleteRecord(ctx, req)
	case "list_categories":
		result, err = srv.listCategories(ctx, req)
	case "export_catalog":
		result, err = srv.exportCatalog(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestAddAndGetRecord(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "add_record", map[string]interface{}{
		"title":    "Vidas Secas",
		"author":   "Graciliano Ramos",
		"category": "livro",
		"number":   2.0,
		"id":       "123",
	})
	if r.IsError {
		t.Fatalf("add_record failed: %s", resultText(r))
	}
	var added struct {
		Record     models.Record `json:"record"`
		IDReplaced bool          `json:"id_replaced"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &added); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if added.Record.ID != "00001" || added.Record.Category != "Livro" || !added.IDReplaced {
		t.Errorf("added = %+v", added)
	}
	if added.Record.Number.String() != "2" {
		t.Errorf("number = %q", added.Record.Number.String())
	}

	r = callTool(t, srv, "get_record", map[string]interface{}{"category": "Livro", "id": "00001"})
	if r.IsError || !strings.Contains(resultText(r), "Graciliano Ramos") {
		t.Errorf("get_record = %s", resultText(r))
	}
}

func TestAddRecordValidation(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "add_record", map[string]interface{}{
		"title":    "Sem data válida",
		"date":     "31/02/2024",
		"category": "Livro",
	})
	if !r.IsError {
		t.Error("expected validation error")
	}
}

func TestUpdateRecordPartial(t *testing.T) {
	srv, svc := testServer(t)
	ctx := context.Background()
	if _, _, err := svc.Insert(ctx, models.Record{Title: "A", Author: "Autor", Category: "Livro"}); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "update_record", map[string]interface{}{
		"category": "Livro",
		"id":       "00001",
		"title":    "A revisto",
	})
	if r.IsError {
		t.Fatalf("update_record failed: %s", resultText(r))
	}
	rec, err := svc.Get(ctx, "Livro", "00001")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Title != "A revisto" || rec.Author != "Autor" {
		t.Errorf("record = %+v", rec)
	}
}

func TestUpdateRecordMove(t *testing.T) {
	srv, svc := testServer(t)
	ctx := context.Background()
	if _, _, err := svc.Insert(ctx, models.Record{Title: "A", Category: "Livro"}); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "update_record", map[string]interface{}{
		"category":     "Livro",
		"id":           "00001",
		"new_category": "Obras Raras",
	})
	if r.IsError {
		t.Fatalf("move failed: %s", resultText(r))
	}
	if _, err := svc.Get(ctx, "Obras Raras", "00001"); err != nil {
		t.Errorf("record not in destination: %v", err)
	}
}

func TestDeleteRecordMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "delete_record", map[string]interface{}{"category": "Livro", "id": "00001"})
	if !r.IsError {
		t.Error("expected error for missing record")
	}
	r = callTool(t, srv, "delete_record", map[string]interface{}{"category": "Mapas", "id": "00001"})
	if !r.IsError {
		t.Error("expected error for unknown category")
	}
}

func TestSearchRecords(t *testing.T) {
	srv, svc := testServer(t)
	ctx := context.Background()
	for _, title := range []string{"Dom Casmurro", "Memórias Póstumas", "Quincas Borba"} {
		if _, _, err := svc.Insert(ctx, models.Record{Title: title, Author: "Machado de Assis", Category: "Livro"}); err != nil {
			t.Fatal(err)
		}
	}

	r := callTool(t, srv, "search_records", map[string]interface{}{"query": "casmurro"})
	var res struct {
		Total   int             `json:"total"`
		Records []models.Record `json:"records"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Total != 1 || res.Records[0].Title != "Dom Casmurro" {
		t.Errorf("search = %+v", res)
	}

	r = callTool(t, srv, "search_records", map[string]interface{}{"limit": 2})
	_ = json.Unmarshal([]byte(resultText(r)), &res)
	if res.Total != 3 || len(res.Records) != 2 {
		t.Errorf("limited search: total=%d len=%d", res.Total, len(res.Records))
	}
}

func TestExportAndCategories(t *testing.T) {
	srv, svc := testServer(t)
	r := callTool(t, srv, "export_catalog", nil)
	if !r.IsError {
		t.Error("expected error exporting an empty catalog")
	}

	if _, _, err := svc.Insert(context.Background(), models.Record{Title: "A", Category: "Multimeios"}); err != nil {
		t.Fatal(err)
	}
	r = callTool(t, srv, "export_catalog", nil)
	if r.IsError || !strings.HasPrefix(resultText(r), "exported: ") {
		t.Errorf("export = %s", resultText(r))
	}

	r = callTool(t, srv, "list_categories", nil)
	if r.IsError || !strings.Contains(resultText(r), "biblioteca_multimeios.xlsx") {
		t.Errorf("list_categories = %s", resultText(r))
	}
}

func TestSchemaContract(t *testing.T) {
	for _, c := range models.Columns {
		if !strings.Contains(RecordSchemaContract, c) {
			t.Errorf("contract misses column %s", c)
		}
	}
	srv, _ := testServer(t)
	contents, err := srv.readSchemaResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
}
