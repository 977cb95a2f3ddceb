package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Output formats shared by the listing commands.
var outputFormats = []string{"table", "json", "yaml"}

// OutputFlags provides consistent output flag definitions across commands
type OutputFlags struct {
	Format string
}

// AddOutputFlags adds --format to a command
func AddOutputFlags(cmd *cobra.Command) *OutputFlags {
	flags := &OutputFlags{}
	cmd.Flags().StringVarP(&flags.Format, "format", "f", "table", "Output format (table|json|yaml)")

	AddFlagValidation(cmd, "format", func(format string) error {
		return ValidateFormat(format, outputFormats)
	})
	return flags
}

// Write renders v as JSON or YAML, or calls table for the table format.
func (f *OutputFlags) Write(w io.Writer, v interface{}, table func(io.Writer) error) error {
	switch f.Format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return err
		}
		return encoder.Close()
	case "table", "":
		return table(w)
	default:
		return fmt.Errorf("unsupported format: %s", f.Format)
	}
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidateFormat checks format against the supported formats
func ValidateFormat(format string, valid []string) error {
	for _, candidate := range valid {
		if format == candidate {
			return nil
		}
	}
	return fmt.Errorf("invalid format %s, must be one of: %s", format, strings.Join(valid, ", "))
}
