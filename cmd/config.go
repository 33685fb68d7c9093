package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/finnorm-cli/internal/config"
	"github.com/KaramelBytes/finnorm-cli/internal/normalize"
	"github.com/KaramelBytes/finnorm-cli/internal/store"
	"github.com/KaramelBytes/finnorm-cli/internal/utils"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set finnorm configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := utils.PrettyYAML(currentConfig())
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], strings.TrimSpace(args[1])
		// start from the stored file, not from flag overrides
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return err
		}
		switch key {
		case "locale":
			l, err := normalize.ParseLocale(val)
			if err != nil {
				return err
			}
			c.Locale = l.String()
		case "date_order":
			o, err := normalize.ParseDateOrder(val)
			if err != nil {
				return err
			}
			c.DateOrder = o.String()
		case "detect_threshold":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f <= 0 || f > 1 {
				return fmt.Errorf("invalid float for detect_threshold: %v (use a value in (0,1])", val)
			}
			c.DetectThreshold = f
		case "default_agg_func":
			fn := strings.ToLower(val)
			known := store.New().Aggregators()
			ok := false
			for _, k := range known {
				if k == fn {
					ok = true
					break
				}
			}
			if !ok {
				return fmt.Errorf("invalid default_agg_func: %s (use %s)", val, strings.Join(known, "|"))
			}
			c.DefaultAggFunc = fn
		case "preview_rows", "max_rows":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for %s: %v", key, val)
			}
			if key == "preview_rows" {
				c.PreviewRows = i
			} else {
				c.MaxRows = i
			}
		case "output_format":
			c.OutputFormat = strings.ToLower(val)
		case "csv_delimiter":
			c.CSVDelimiter = args[1]
		case "log_level":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		cfg = c
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
