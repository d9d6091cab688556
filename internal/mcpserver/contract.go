package mcpserver

import (
	"fmt"
	"strings"

	"github.com/starford/biblioteca/internal/models"
)

// SchemaURI is the resource holding RecordSchemaContract.
const SchemaURI = "biblioteca://schema"

// RecordSchemaContract describes the record fields and the rules the
// catalog enforces, for LLM consumers adding or editing records.
var RecordSchemaContract = buildContract()

func buildContract() string {
	var b strings.Builder
	b.WriteString("# Biblioteca Record Schema\n\n")
	b.WriteString("Every category is stored in its own spreadsheet with these columns, in this order:\n\n")
	for i, c := range models.Columns {
		fmt.Fprintf(&b, "%d. %s (`%s`)\n", i+1, c, fieldKeys[c])
	}
	b.WriteString("\n## Categories\n\n")
	for _, c := range models.Categories {
		fmt.Fprintf(&b, "- %s → %s\n", c, models.FileName(c))
	}
	b.WriteString(`
## Rules

1. **title is required.**
2. **date** is empty or a calendar-valid DD/MM/YYYY date (two-digit day and month).
3. **category** must be one of the categories above; it selects the spreadsheet.
4. **id** (Registro) is assigned by the catalog on insert: the next number in the
   category, zero-padded to at least 5 digits. A supplied id is only advisory.
   It never changes afterwards, not even when the record moves to another category.
5. **number** accepts "," or "." as decimal separator: "10,0" is stored as "10",
   "10,5" as "10.5", anything non-numeric verbatim.
6. A record is addressed by the pair (category, id); ids repeat across categories.
`)
	return b.String()
}
