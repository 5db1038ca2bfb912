package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/syssam/actian/dialect/ingres"
	"github.com/syssam/actian/internal/config"
)

func newCapabilitiesCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "capabilities",
		Short: "Print the server capability map",
		Example: `  iiinspect capabilities --dsn "DSN=iidbdb"
  iiinspect capabilities -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (rerr error) {
			s, err := r.connect(cmd)
			if err != nil {
				return err
			}
			defer func() { rerr = joinClose(rerr, s) }()
			caps, err := s.dialect.Capabilities()
			if err != nil {
				return err
			}
			// An unregistered DBMS_TYPE is reported, not fatal, since the
			// map is still useful to see.
			sub := "unknown"
			if sd, err := s.dialect.SubDialect(); err == nil {
				sub = sd.String()
			}
			if s.cfg.Output != config.OutputTable {
				return renderData(s.out, s.cfg.Output, capabilitiesDoc{SubDialect: sub, Capabilities: caps.Map()})
			}
			rows := make([]table.Row, 0, caps.Len())
			for _, name := range caps.Names() {
				v, _ := caps.Lookup(name)
				rows = append(rows, table.Row{name, v})
			}
			renderTable(s.out, "Capabilities ("+sub+")", table.Row{"Name", "Value"}, rows)
			return nil
		},
	}
}

type capabilitiesDoc struct {
	SubDialect   string            `json:"sub_dialect" yaml:"sub_dialect"`
	Capabilities map[string]string `json:"capabilities" yaml:"capabilities"`
}

func newTablesCmd(r *runner) *cobra.Command {
	var views, sequences bool
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the tables of a schema",
		Example: `  iiinspect tables --schema app
  iiinspect tables --views --sequences -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (rerr error) {
			s, err := r.connect(cmd)
			if err != nil {
				return err
			}
			defer func() { rerr = joinClose(rerr, s) }()
			ctx := cmd.Context()
			var doc tablesDoc
			if doc.Tables, err = s.insp.TableNames(ctx, s.cfg.Schema); err != nil {
				return err
			}
			if views {
				if doc.Views, err = s.insp.ViewNames(ctx, s.cfg.Schema); err != nil {
					return err
				}
			}
			if sequences {
				if doc.Sequences, err = s.insp.SequenceNames(ctx, s.cfg.Schema); err != nil {
					return err
				}
			}
			if s.cfg.Output != config.OutputTable {
				return renderData(s.out, s.cfg.Output, doc)
			}
			var rows []table.Row
			for _, kind := range []struct {
				name  string
				names []string
			}{{"TABLE", doc.Tables}, {"VIEW", doc.Views}, {"SEQUENCE", doc.Sequences}} {
				for _, n := range kind.names {
					rows = append(rows, table.Row{kind.name, n})
				}
			}
			renderTable(s.out, "Objects", table.Row{"Kind", "Name"}, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&views, "views", false, "include views")
	cmd.Flags().BoolVar(&sequences, "sequences", false, "include sequences")
	return cmd
}

type tablesDoc struct {
	Tables    []string `json:"tables" yaml:"tables"`
	Views     []string `json:"views,omitempty" yaml:"views,omitempty"`
	Sequences []string `json:"sequences,omitempty" yaml:"sequences,omitempty"`
}

func newDescribeCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <table>",
		Short: "Describe the columns, keys and indexes of a table",
		Example: `  iiinspect describe users
  iiinspect describe users --schema app -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (rerr error) {
			s, err := r.connect(cmd)
			if err != nil {
				return err
			}
			defer func() { rerr = joinClose(rerr, s) }()
			doc, err := s.describe(s.scope(cmd.Context()), args[0])
			if err != nil {
				return err
			}
			if s.cfg.Output != config.OutputTable {
				return renderData(s.out, s.cfg.Output, doc)
			}
			s.renderDescription(doc)
			return nil
		},
	}
}

type describeDoc struct {
	Table       string          `json:"table" yaml:"table"`
	Schema      string          `json:"schema,omitempty" yaml:"schema,omitempty"`
	Comment     string          `json:"comment,omitempty" yaml:"comment,omitempty"`
	Columns     []columnDoc     `json:"columns" yaml:"columns"`
	PrimaryKey  *keyDoc         `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	Uniques     []keyDoc        `json:"unique,omitempty" yaml:"unique,omitempty"`
	ForeignKeys []foreignKeyDoc `json:"foreign_keys,omitempty" yaml:"foreign_keys,omitempty"`
	Indexes     []indexDoc      `json:"indexes,omitempty" yaml:"indexes,omitempty"`
}

type columnDoc struct {
	Name     string  `json:"name" yaml:"name"`
	Type     string  `json:"type" yaml:"type"`
	Nullable bool    `json:"nullable" yaml:"nullable"`
	Default  *string `json:"default,omitempty" yaml:"default,omitempty"`
	Identity string  `json:"identity,omitempty" yaml:"identity,omitempty"`
	Comment  string  `json:"comment,omitempty" yaml:"comment,omitempty"`
}

type keyDoc struct {
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"`
	Columns []string `json:"columns" yaml:"columns"`
}

type foreignKeyDoc struct {
	Name       string   `json:"name" yaml:"name"`
	Columns    []string `json:"columns" yaml:"columns"`
	RefTable   string   `json:"ref_table" yaml:"ref_table"`
	RefColumns []string `json:"ref_columns" yaml:"ref_columns"`
}

type indexDoc struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []string `json:"columns" yaml:"columns"`
	Unique  bool     `json:"unique,omitempty" yaml:"unique,omitempty"`
}

func (s *session) describe(ctx context.Context, name string) (*describeDoc, error) {
	insp, sch := s.insp, s.cfg.Schema
	ok, err := insp.HasTable(ctx, name, sch)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("table %q not found", name)
	}
	doc := &describeDoc{Table: name, Schema: sch}
	cols, err := insp.Columns(ctx, name, sch)
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		native, err := s.dialect.Types().Native(c.Type)
		if err != nil {
			native = c.Native
		}
		cd := columnDoc{Name: c.Name, Type: native, Nullable: c.Nullable, Default: c.Default, Comment: c.Comment}
		if c.Identity != ingres.IdentityNone {
			cd.Identity = c.Identity.String()
		}
		doc.Columns = append(doc.Columns, cd)
	}
	pk, err := insp.PrimaryKey(ctx, name, sch)
	if err != nil {
		return nil, err
	}
	if pk != nil {
		doc.PrimaryKey = &keyDoc{Name: pk.Name, Columns: pk.Columns}
	}
	uniques, err := insp.UniqueConstraints(ctx, name, sch)
	if err != nil {
		return nil, err
	}
	for _, u := range uniques {
		doc.Uniques = append(doc.Uniques, keyDoc{Name: u.Name, Columns: u.Columns})
	}
	fks, err := insp.ForeignKeys(ctx, name, sch)
	if err != nil {
		return nil, err
	}
	for _, fk := range fks {
		ref := fk.RefTable
		if fk.RefSchema != "" {
			ref = fk.RefSchema + "." + ref
		}
		doc.ForeignKeys = append(doc.ForeignKeys, foreignKeyDoc{Name: fk.Name, Columns: fk.Columns, RefTable: ref, RefColumns: fk.RefColumns})
	}
	indexes, err := insp.Indexes(ctx, name, sch)
	if err != nil {
		return nil, err
	}
	for _, idx := range indexes {
		doc.Indexes = append(doc.Indexes, indexDoc{Name: idx.Name, Columns: idx.Columns, Unique: idx.Unique})
	}
	if doc.Comment, err = insp.TableComment(ctx, name, sch); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *session) renderDescription(doc *describeDoc) {
	title := doc.Table
	if doc.Comment != "" {
		title += " (" + doc.Comment + ")"
	}
	cols := make([]table.Row, 0, len(doc.Columns))
	for _, c := range doc.Columns {
		def := ""
		if c.Default != nil {
			def = *c.Default
		}
		cols = append(cols, table.Row{c.Name, c.Type, yesNo(c.Nullable), def, c.Identity, c.Comment})
	}
	renderTable(s.out, title, table.Row{"Column", "Type", "Null", "Default", "Identity", "Comment"}, cols)

	var keys []table.Row
	if pk := doc.PrimaryKey; pk != nil {
		keys = append(keys, table.Row{"PRIMARY KEY", pk.Name, strings.Join(pk.Columns, ", "), ""})
	}
	for _, u := range doc.Uniques {
		keys = append(keys, table.Row{"UNIQUE", u.Name, strings.Join(u.Columns, ", "), ""})
	}
	for _, fk := range doc.ForeignKeys {
		keys = append(keys, table.Row{"FOREIGN KEY", fk.Name, strings.Join(fk.Columns, ", "),
			fk.RefTable + " (" + strings.Join(fk.RefColumns, ", ") + ")"})
	}
	renderTable(s.out, "Keys", table.Row{"Kind", "Name", "Columns", "References"}, keys)

	idx := make([]table.Row, 0, len(doc.Indexes))
	for _, i := range doc.Indexes {
		idx = append(idx, table.Row{i.Name, strings.Join(i.Columns, ", "), yesNo(i.Unique)})
	}
	renderTable(s.out, "Indexes", table.Row{"Name", "Columns", "Unique"}, idx)
}

func newDDLCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "ddl <table>...",
		Short: "Regenerate CREATE TABLE statements from the catalog",
		Example: `  iiinspect ddl users pets --schema app`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (rerr error) {
			s, err := r.connect(cmd)
			if err != nil {
				return err
			}
			defer func() { rerr = joinClose(rerr, s) }()
			ctx := s.scope(cmd.Context())
			for _, name := range args {
				ok, err := s.insp.HasTable(ctx, name, s.cfg.Schema)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("table %q not found", name)
				}
				t, err := s.insp.InspectTable(ctx, name, s.cfg.Schema)
				if err != nil {
					return err
				}
				plan, err := s.dialect.DDL().CreateTable(t)
				if err != nil {
					return err
				}
				for _, stmt := range plan.Statements() {
					if _, err := fmt.Fprintf(s.out, "%s;\n", stmt); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
}

// joinClose closes s and keeps the first error.
func joinClose(err error, s *session) error {
	if cerr := s.Close(); err == nil {
		return cerr
	}
	return err
}
