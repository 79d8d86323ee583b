package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// envSource resolves `env` struct tags. A variable prefixed with the service
// name (COURSE_SERVICE_DB_HOST) wins over the shared one (DB_HOST), so the four
// services can share a single .env file.
type envSource struct {
	prefix string
	lookup func(string) (string, bool)
}

func newEnvSource(kind ServiceKind) envSource {
	return envSource{prefix: envPrefix(kind), lookup: os.LookupEnv}
}

// envPrefix turns "course-service" into "COURSE_SERVICE_".
func envPrefix(kind ServiceKind) string {
	if kind == "" {
		return ""
	}
	return strings.ToUpper(strings.ReplaceAll(string(kind), "-", "_")) + "_"
}

func (e envSource) get(name string) (string, string, bool) {
	if e.prefix != "" {
		if v, ok := e.lookup(e.prefix + name); ok {
			return e.prefix + name, v, true
		}
	}
	v, ok := e.lookup(name)
	return name, v, ok
}

// apply overrides every tagged field of the struct pointed to by target.
// Tags take the form `env:"NAME"` or `env:"NAME,duration"`; the latter keeps
// the value as a string but rejects anything time.ParseDuration refuses.
func (e envSource) apply(target interface{}) error {
	val := reflect.ValueOf(target)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		if field.Kind() == reflect.Struct {
			if err := e.apply(field.Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		tag := typ.Field(i).Tag.Get("env")
		if tag == "" {
			continue
		}
		name, opt, _ := strings.Cut(tag, ",")
		variable, raw, ok := e.get(name)
		if !ok {
			continue
		}
		if err := setEnvValue(field, raw, opt); err != nil {
			return fmt.Errorf("%s: %w", variable, err)
		}
	}
	return nil
}

func setEnvValue(field reflect.Value, raw, opt string) error {
	if !field.CanSet() {
		return fmt.Errorf("field cannot be set")
	}

	switch field.Kind() {
	case reflect.String:
		if opt == "duration" {
			if _, err := time.ParseDuration(raw); err != nil {
				return fmt.Errorf("invalid duration %q", raw)
			}
		}
		field.SetString(raw)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer %q", raw)
		}
		field.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", raw)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}
	return nil
}
