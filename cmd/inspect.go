package cmd

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/cursor-chat-browser/internal"
	"github.com/spf13/cobra"
)

var (
	inspectSchema     bool
	inspectSampleRows int
	inspectLevel      string
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <key> | --schema [database-path]",
	Short: "Inspect a record or the schema of a store",
	Long: `Print one record of the global store by key: its row id, the stored JSON
and, for bubbleId records, the normalized record.

With --schema print the tables, columns, row counts and sample rows of a
store instead; without a path the global store is inspected.

Examples:
  cursor-chat-browser inspect bubbleId:<conversation-id>:<bubble-id>
  cursor-chat-browser inspect composerData:<composer-id>
  cursor-chat-browser inspect --schema --sample 5`,
	Args: func(cmd *cobra.Command, args []string) error {
		if inspectSchema {
			return cobra.MaximumNArgs(1)(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if inspectSchema {
			dbPath := cfg.GlobalDBPath()
			if len(args) == 1 {
				dbPath = internal.ExpandHome(args[0])
			}
			return inspectDatabase(cmd.Context(), out, dbPath)
		}

		level, err := internal.ParseMetadataLevel(inspectLevel)
		if err != nil {
			return err
		}
		store, err := internal.OpenRecordStore(cmd.Context(), cfg.GlobalDBPath())
		if err != nil {
			return err
		}
		defer store.Close()

		raw, ok, err := store.GetByKey(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("record not found: %s", args[0])
		}
		return printRecord(out, raw, level)
	},
}

func printRecord(w io.Writer, raw internal.RawRecord, level internal.MetadataLevel) error {
	fmt.Fprintln(w, headerStyle.Render(raw.Key))
	fmt.Fprintf(w, "rowid: %d\n\n", raw.RowID)

	var value any
	if err := json.Unmarshal([]byte(raw.Value), &value); err != nil {
		fmt.Fprintln(w, warningStyle.Render("value is not JSON: "+err.Error()))
		fmt.Fprintln(w, raw.Value)
	} else {
		fmt.Fprintln(w, sectionStyle.Render("Stored value"))
		if err := writeJSON(w, value); err != nil {
			return err
		}
	}

	if !strings.HasPrefix(raw.Key, internal.BubblePrefix) {
		return nil
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, sectionStyle.Render("Normalized"))
	rec, err := internal.Normalize(raw, now())
	if err != nil {
		fmt.Fprintln(w, errorStyle.Render(err.Error()))
		return nil
	}
	return writeJSON(w, internal.NewRecordView(rec, level))
}

func inspectDatabase(ctx context.Context, w io.Writer, dbPath string) error {
	db, err := internal.OpenDatabase(ctx, dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	tables, err := getTables(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to get tables: %w", err)
	}

	fmt.Fprintf(w, "Database: %s\n", pathStyle.Render(dbPath))
	if len(tables) == 0 {
		fmt.Fprintln(w, warningStyle.Render("No tables found in database"))
		return nil
	}
	fmt.Fprintf(w, "Found %d table(s)\n\n", len(tables))

	for _, tableName := range tables {
		if err := inspectTable(ctx, w, db, tableName); err != nil {
			fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("Error inspecting table %s: %v", tableName, err)))
		}
		fmt.Fprintln(w)
	}
	return nil
}

func getTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type='table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			continue
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

type columnInfo struct {
	Name       string
	Type       string
	NotNull    bool
	PrimaryKey bool
}

// quoteIdent quotes a table or column name read from sqlite_master.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func inspectTable(ctx context.Context, w io.Writer, db *sql.DB, tableName string) error {
	fmt.Fprintln(w, sectionStyle.Render("Table: "+tableName))

	var rowCount int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(tableName)).Scan(&rowCount); err != nil {
		return fmt.Errorf("failed to get row count: %w", err)
	}
	fmt.Fprintf(w, "Rows: %d\n", rowCount)

	columns, err := getTableSchema(ctx, db, tableName)
	if err != nil {
		return fmt.Errorf("failed to get schema: %w", err)
	}
	fmt.Fprintln(w, "Schema:")
	for _, col := range columns {
		var extra string
		if col.NotNull {
			extra += " NOT NULL"
		}
		if col.PrimaryKey {
			extra += " [PRIMARY KEY]"
		}
		fmt.Fprintf(w, "  • %s: %s%s\n", col.Name, col.Type, extra)
	}

	if rowCount > 0 && inspectSampleRows > 0 {
		if err := showSampleData(ctx, w, db, tableName, columns, inspectSampleRows); err != nil {
			fmt.Fprintln(w, warningStyle.Render("Error showing sample data: "+err.Error()))
		}
	}
	return nil
}

func getTableSchema(ctx context.Context, db *sql.DB, tableName string) ([]columnInfo, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+quoteIdent(tableName)+")")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []columnInfo
	for rows.Next() {
		var col columnInfo
		var cid, notNull, pk int
		var defaultValue sql.NullString
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &defaultValue, &pk); err != nil {
			continue
		}
		col.NotNull = notNull == 1
		col.PrimaryKey = pk == 1
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func showSampleData(ctx context.Context, w io.Writer, db *sql.DB, tableName string, columns []columnInfo, limit int) error {
	if len(columns) == 0 {
		return errors.New("no columns")
	}
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = quoteIdent(col.Name)
	}

	query := fmt.Sprintf("SELECT %s FROM %s LIMIT %d", strings.Join(names, ", "), quoteIdent(tableName), limit)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	fmt.Fprintf(w, "Sample data (first %d rows):\n", limit)
	rowNum := 0
	for rows.Next() {
		rowNum++
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			fmt.Fprintf(w, "  Row %d: error scanning: %v\n", rowNum, err)
			continue
		}

		fmt.Fprintf(w, "  Row %d:\n", rowNum)
		for i, col := range columns {
			fmt.Fprintf(w, "    %s: %s\n", col.Name, sampleValue(values[i]))
		}
	}
	return rows.Err()
}

// sampleValue renders a column value on one line of at most 200 runes.
func sampleValue(v any) string {
	var s string
	switch val := v.(type) {
	case nil:
		return "<NULL>"
	case []byte:
		s = string(val)
	default:
		s = fmt.Sprint(val)
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + "..."
	}
	if r := []rune(s); len(r) > 200 {
		s = string(r[:200]) + "..."
	}
	return s
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolVar(&inspectSchema, "schema", false, "Inspect tables instead of a record")
	inspectCmd.Flags().IntVar(&inspectSampleRows, "sample", 3, "Number of sample rows per table with --schema")
	inspectCmd.Flags().StringVar(&inspectLevel, "metadata-level", "raw", "Normalized record detail: basic, full or raw")
}
