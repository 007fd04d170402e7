package commands

import (
	"fmt"
	"strconv"
	"strings"
)

// flagSet is a minimal hand-rolled flag scanner, in the spirit of the
// teacher's own manual "-o"/"--output" argument loops (see
// generateDocs in cmd/sentra/main.go) rather than a library's flag.FlagSet:
// it recognizes "-name value" and "-name=value" pairs for named flags and
// collects everything else as positional arguments.
type flagSet struct {
	name   string
	ints   map[string]*int64
	bools  map[string]*bool
	strs   map[string]*string
	ints32 map[string]*int
	pos    []string
}

func newFlagSet(name string) *flagSet {
	return &flagSet{
		name:   name,
		ints:   make(map[string]*int64),
		bools:  make(map[string]*bool),
		strs:   make(map[string]*string),
		ints32: make(map[string]*int),
	}
}

func (f *flagSet) Int64(name string, def int64, usage string) *int64 {
	v := new(int64)
	*v = def
	f.ints[name] = v
	return v
}

func (f *flagSet) Int(name string, def int, usage string) *int {
	v := new(int)
	*v = def
	f.ints32[name] = v
	return v
}

func (f *flagSet) Bool(name string, def bool, usage string) *bool {
	v := new(bool)
	*v = def
	f.bools[name] = v
	return v
}

func (f *flagSet) String(name string, def string, usage string) *string {
	v := new(string)
	*v = def
	f.strs[name] = v
	return v
}

// parse scans args for "-name[=value]" flags, in any order relative to
// positional arguments, and stashes the remaining positional arguments for
// arg/nargs to read.
func (f *flagSet) parse(args []string) error {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			f.pos = append(f.pos, arg)
			continue
		}
		name := strings.TrimLeft(arg, "-")
		var value string
		hasValue := false
		if eq := strings.Index(name, "="); eq >= 0 {
			value = name[eq+1:]
			name = name[:eq]
			hasValue = true
		}

		if bp, ok := f.bools[name]; ok {
			if hasValue {
				b, err := strconv.ParseBool(value)
				if err != nil {
					return fmt.Errorf("%s: invalid value for -%s: %v", f.name, name, err)
				}
				*bp = b
			} else {
				*bp = true
			}
			continue
		}

		if !hasValue {
			if i+1 >= len(args) {
				return fmt.Errorf("%s: flag -%s requires a value", f.name, name)
			}
			i++
			value = args[i]
		}

		switch {
		case f.ints[name] != nil:
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("%s: invalid value for -%s: %v", f.name, name, err)
			}
			*f.ints[name] = n
		case f.ints32[name] != nil:
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("%s: invalid value for -%s: %v", f.name, name, err)
			}
			*f.ints32[name] = n
		case f.strs[name] != nil:
			*f.strs[name] = value
		default:
			return fmt.Errorf("%s: unknown flag -%s", f.name, name)
		}
	}
	return nil
}

func (f *flagSet) nargs() int { return len(f.pos) }

func (f *flagSet) arg(i int) string {
	if i >= len(f.pos) {
		return ""
	}
	return f.pos[i]
}
