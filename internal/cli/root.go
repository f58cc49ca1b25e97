package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Handle and Interpolation override the preferences of loaded scenes.
	Handle        string
	Interpolation string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the keyframe CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "keyframe",
		Short: "keyframe - keyframe insertion engine",
		Long: `Insert keyframes into animation curves of a scene.

Scenes are CUE or YAML files describing objects, their animatable
properties, existing curves and NLA strips. Keys can be inserted from the
command line, over HTTP, or from scenario files with assertions.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Handle, "handle", "", "handle type for new keys, overriding scene preferences")
	cmd.PersistentFlags().StringVar(&opts.Interpolation, "interpolation", "", "interpolation for new keys, overriding scene preferences")

	cmd.AddCommand(NewInsertCommand(opts))
	cmd.AddCommand(NewRemapCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
