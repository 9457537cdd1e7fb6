package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/solatis/fieldkeeper/internal/core/config"
	"github.com/solatis/fieldkeeper/internal/core/service"
	"github.com/solatis/fieldkeeper/internal/core/store"
	"github.com/solatis/fieldkeeper/internal/types"
	"github.com/solatis/fieldkeeper/internal/visibility"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "Manage custom field definitions",
}

var fieldsImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Create or update field definitions from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runFieldsImport,
}

var fieldsListCmd = &cobra.Command{
	Use:   "list <entity-type>",
	Short: "List the fields of an entity type",
	Args:  cobra.ExactArgs(1),
	RunE:  runFieldsList,
}

var fieldsDeleteCmd = &cobra.Command{
	Use:   "delete <entity-type> <code>",
	Short: "Delete a field definition",
	Args:  cobra.ExactArgs(2),
	RunE:  runFieldsDelete,
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
	fieldsCmd.AddCommand(fieldsImportCmd, fieldsListCmd, fieldsDeleteCmd)
	fieldsImportCmd.Flags().String("entity", "", "entity type for fields that do not name one")
}

// newService wires a service over the configured database for one-shot
// commands.
func newService(ctx context.Context) (*service.Service, *store.Store, func(), error) {
	logger, err := newLogger()
	if err != nil {
		return nil, nil, nil, err
	}
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	database, queries, err := openDatabase()
	if err != nil {
		return nil, nil, nil, err
	}
	if err := requireMigrated(ctx, database); err != nil {
		database.Close()
		return nil, nil, nil, err
	}

	engine := visibility.NewEngine(logger)
	st := store.New(queries, engine, logger, store.Limits{
		MaxFieldsPerEntity: cfg.MaxFieldsPerEntity,
		MaxBatchSize:       cfg.MaxBatchSize,
	})
	return service.New(st, engine, nil, logger), st, func() { database.Close() }, nil
}

func runFieldsImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	entity, _ := cmd.Flags().GetString("entity")

	fields, err := loadFieldsFile(args[0], types.EntityType(entity))
	if err != nil {
		return err
	}

	svc, _, closeDB, err := newService(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	res, err := svc.ImportFields(ctx, fields)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "imported %d fields\n", len(res.Fields))
	for _, issue := range res.Issues {
		fmt.Fprintf(out, "warning: %s: %s\n", issue.Field, issue.Message)
	}
	for entity, cycles := range res.Cycles {
		for _, cycle := range cycles {
			fmt.Fprintf(out, "warning: %s: dependency cycle %v\n", entity, cycle)
		}
	}
	return nil
}

func runFieldsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	svc, _, closeDB, err := newService(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	fields, err := svc.Fields(ctx, types.EntityType(args[0]))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tTYPE\tORDER\tVISIBILITY")
	for _, f := range fields {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", f.Code, f.Type, f.SortOrder, f.Policy)
	}
	return w.Flush()
}

func runFieldsDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	_, st, closeDB, err := newService(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := st.Fields.DeleteField(ctx, types.EntityType(args[0]), args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s/%s\n", args[0], args[1])
	return nil
}
