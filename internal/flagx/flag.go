// Package flagx lets several independent flag sets share one command line.
// Each consumer filters os.Args down to the flags it owns before parsing, so
// unknown flags belonging to another consumer never cause a parse error.
package flagx

import (
	"flag"
	"strings"
)

// Filter describes the flags a consumer owns. Value flags take an argument
// ("-d dsn" or "-d=dsn"); bool flags never consume the following token.
type Filter struct {
	Value []string
	Bool  []string
}

// Apply returns the subset of args that belongs to the filter, preserving order.
//
// Supported forms:
//  1. flag and value as separate arguments:  -c conf.json
//  2. flag and value joined with '=':        --config=conf.json
//  3. bare bool flag:                        -x
func (f Filter) Apply(args []string) []string {
	value := toSet(f.Value)
	boolean := toSet(f.Bool)

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		if name, _, ok := strings.Cut(arg, "="); ok {
			if _, known := value[name]; known {
				filtered = append(filtered, arg)
			} else if _, known := boolean[name]; known {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, known := boolean[arg]; known {
			filtered = append(filtered, arg)
			continue
		}

		if _, known := value[arg]; known {
			filtered = append(filtered, arg)
			// the next token is the value unless it looks like another flag
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// FilterArgs is Filter{Value: allowedFlags}.Apply(args).
func FilterArgs(args []string, allowedFlags []string) []string {
	return Filter{Value: allowedFlags}.Apply(args)
}

// ConfigFile extracts the config file path given with -c or -config.
// The last occurrence wins; "" means no file was requested.
func ConfigFile(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config", "--config"}))

	return path
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
