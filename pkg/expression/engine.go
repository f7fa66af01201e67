package expression

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/nexuscrm/backoffice/pkg/constants"
	"github.com/nexuscrm/backoffice/pkg/utils"
)

// Engine compiles and evaluates boolean record filters written in expr
type Engine struct {
	programCache map[string]*vm.Program
	functions    map[string]func(params ...interface{}) (interface{}, error)
	mu           sync.RWMutex
}

// NewEngine creates a new expression engine
func NewEngine() *Engine {
	return &Engine{
		programCache: make(map[string]*vm.Program),
		functions:    make(map[string]func(params ...interface{}) (interface{}, error)),
	}
}

// RegisterFunction registers a custom function
func (e *Engine) RegisterFunction(name string, fn func(params ...interface{}) (interface{}, error)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.functions[name] = fn
	// Clear cache as available functions changed
	e.programCache = make(map[string]*vm.Program)
}

// Compile checks that an expression is a valid filter
func (e *Engine) Compile(expression string) error {
	_, err := e.getProgram(expression)
	return err
}

// Match evaluates a filter expression against a record. Fields missing from
// the record evaluate to nil.
func (e *Engine) Match(expression string, record map[string]interface{}) (bool, error) {
	program, err := e.getProgram(expression)
	if err != nil {
		return false, err
	}

	output, err := expr.Run(program, RecordEnv(record))
	if err != nil {
		return false, err
	}
	matched, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("filter must evaluate to a boolean, got %T", output)
	}
	return matched, nil
}

// RecordEnv flattens a record into an evaluation environment: default values
// and custom values become top-level variables, default values winning on
// name clashes. The nested customFields map stays reachable.
func RecordEnv(record map[string]interface{}) map[string]interface{} {
	env := make(map[string]interface{}, len(record)+8)
	if custom, ok := utils.ToStringMap(record[constants.FieldCustomFields]); ok {
		for k, v := range custom {
			env[k] = v
		}
	}
	for k, v := range record {
		env[k] = v
	}
	return env
}

func (e *Engine) getProgram(expression string) (*vm.Program, error) {
	e.mu.RLock()
	if prog, ok := e.programCache[expression]; ok {
		e.mu.RUnlock()
		return prog, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double check
	if prog, ok := e.programCache[expression]; ok {
		return prog, nil
	}

	options := []expr.Option{
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
		expr.Function("TODAY", func(params ...interface{}) (interface{}, error) {
			return time.Now().Format("2006-01-02"), nil
		}),
		expr.Function("LOWER", func(params ...interface{}) (interface{}, error) {
			if len(params) != 1 {
				return nil, fmt.Errorf("LOWER requires 1 argument")
			}
			return strings.ToLower(utils.ToString(params[0])), nil
		}),
		expr.Function("UPPER", func(params ...interface{}) (interface{}, error) {
			if len(params) != 1 {
				return nil, fmt.Errorf("UPPER requires 1 argument")
			}
			return strings.ToUpper(utils.ToString(params[0])), nil
		}),
		expr.Function("NUM", func(params ...interface{}) (interface{}, error) {
			if len(params) != 1 {
				return nil, fmt.Errorf("NUM requires 1 argument")
			}
			f, _ := utils.ToFloat(params[0])
			return f, nil
		}),
		expr.Function("DAYS_SINCE", func(params ...interface{}) (interface{}, error) {
			if len(params) != 1 {
				return nil, fmt.Errorf("DAYS_SINCE requires 1 argument")
			}
			t, ok := utils.ToTime(params[0])
			if !ok {
				return nil, fmt.Errorf("DAYS_SINCE argument must be a date")
			}
			return int(time.Since(t).Hours() / 24), nil
		}),
		expr.Function("EMPTY", func(params ...interface{}) (interface{}, error) {
			if len(params) != 1 {
				return nil, fmt.Errorf("EMPTY requires 1 argument")
			}
			return utils.IsEmpty(params[0]), nil
		}),
	}

	for name, fn := range e.functions {
		options = append(options, expr.Function(name, fn))
	}

	program, err := expr.Compile(expression, options...)
	if err != nil {
		return nil, err
	}

	e.programCache[expression] = program
	return program, nil
}
