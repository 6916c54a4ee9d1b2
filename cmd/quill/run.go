package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mgomes/quill/quill"
)

func newRunCmd(a *app) *cobra.Command {
	var className, methodName string
	cmd := &cobra.Command{
		Use:   "run <program.yaml> [args...]",
		Short: "Invoke a method and print its result",
		Long: `Loads the program, invokes Class.method with the remaining arguments
as String values and prints a non-null result.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), args[0], className, methodName, args[1:])
		},
	}
	cmd.Flags().StringVar(&className, "class", "Main", "class declaring the method")
	cmd.Flags().StringVar(&methodName, "method", "main", "method to invoke")
	return cmd
}

func (a *app) run(ctx context.Context, path, className, methodName string, rawArgs []string) error {
	reg, _, err := a.load(path)
	if err != nil {
		return err
	}
	engine, err := a.newEngine()
	if err != nil {
		return err
	}

	args := make([]quill.Value, len(rawArgs))
	for i, raw := range rawArgs {
		args[i] = quill.NewString(raw)
	}

	ctx, cancel := a.execContext(ctx)
	defer cancel()

	result, err := engine.Invoke(ctx, reg, className, methodName, args)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	if !result.IsNull() {
		fmt.Fprintln(a.stdout, result.String())
	}
	return nil
}
