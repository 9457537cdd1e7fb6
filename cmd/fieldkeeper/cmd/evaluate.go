package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/solatis/fieldkeeper/internal/core/api"
	"github.com/solatis/fieldkeeper/internal/core/service"
	"github.com/solatis/fieldkeeper/internal/types"
	"github.com/solatis/fieldkeeper/internal/visibility"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate field visibility offline against a values file",
	Long: `Evaluate compiles the fields in --fields and decides the visibility of each
against the record in --values. No database is needed.`,
	RunE: runEvaluate,
}

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Print the reactive dependency map of a fields file",
	RunE:  runDeps,
}

func init() {
	rootCmd.AddCommand(evaluateCmd, depsCmd)

	evaluateCmd.Flags().String("fields", "", "fields YAML file (required)")
	evaluateCmd.Flags().String("values", "", "record values file, .json or YAML (required)")
	evaluateCmd.Flags().String("entity", "", "entity type to evaluate when the file holds several")
	_ = evaluateCmd.MarkFlagRequired("fields")
	_ = evaluateCmd.MarkFlagRequired("values")

	depsCmd.Flags().String("fields", "", "fields YAML file (required)")
	depsCmd.Flags().String("entity", "", "entity type to inspect when the file holds several")
	_ = depsCmd.MarkFlagRequired("fields")
}

// offlineSchema loads a fields file and compiles the fields of one entity
// type in display order.
func offlineSchema(cmd *cobra.Command) (types.EntityType, *visibility.Schema, error) {
	logger, err := newLogger()
	if err != nil {
		return "", nil, err
	}
	path, _ := cmd.Flags().GetString("fields")
	entityFlag, _ := cmd.Flags().GetString("entity")

	fields, err := loadFieldsFile(path, types.EntityType(entityFlag))
	if err != nil {
		return "", nil, err
	}
	entity, fields, err := selectEntity(fields, types.EntityType(entityFlag))
	if err != nil {
		return "", nil, err
	}
	sort.SliceStable(fields, func(i, j int) bool {
		if fields[i].SortOrder != fields[j].SortOrder {
			return fields[i].SortOrder < fields[j].SortOrder
		}
		return fields[i].Code < fields[j].Code
	})

	engine := visibility.NewEngine(logger)
	engine.LintAll(fields)
	bound := engine.BindAll(fields)
	return entity, engine.Schema(visibility.AsFields(bound)), nil
}

// selectEntity keeps the fields of one entity type. Without a preference
// the file must hold exactly one.
func selectEntity(fields []types.Field, want types.EntityType) (types.EntityType, []types.Field, error) {
	if want == "" {
		for _, f := range fields {
			if want == "" {
				want = f.EntityType
			} else if f.EntityType != want {
				return "", nil, fmt.Errorf("fields file holds several entity types (%s, %s): pass --entity", want, f.EntityType)
			}
		}
	}
	var out []types.Field
	for _, f := range fields {
		if f.EntityType == want {
			if err := f.Validate(); err != nil {
				return "", nil, fmt.Errorf("field %s/%s: %w", f.EntityType, f.Code, err)
			}
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return "", nil, fmt.Errorf("no fields for entity type %q", want)
	}
	return want, out, nil
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	entity, schema, err := offlineSchema(cmd)
	if err != nil {
		return err
	}
	valuesPath, _ := cmd.Flags().GetString("values")
	values, err := loadValuesFile(valuesPath)
	if err != nil {
		return err
	}

	record := visibility.NewJSONRecord(values)
	ev := service.NewEvaluation(schema.DecideLive(record.Value))
	return writeJSON(cmd, api.NewEvaluateResponse(entity, ev))
}

func runDeps(cmd *cobra.Command, args []string) error {
	entity, schema, err := offlineSchema(cmd)
	if err != nil {
		return err
	}
	deps := &service.Dependencies{
		Reactive: schema.Reactive(),
		Live:     schema.LiveCodes(),
		Cycles:   schema.Cycles(),
	}
	for _, cycle := range deps.Cycles {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: dependency cycle %v\n", cycle)
	}
	return writeJSON(cmd, api.NewDependenciesResponse(entity, deps))
}
