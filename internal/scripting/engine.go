package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM used to evaluate scripted filter terms.
// Single-goroutine access only.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads helper scripts from scriptsDir.
// An empty scriptsDir starts a bare VM.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if scriptsDir == "" {
		return e, nil
	}

	// shared helpers first, then filter helpers that may use them
	for _, sub := range []string{"core", "filter"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// ItemFacts is what a scripted term can see of an item, exposed to Lua as
// the global table item.
type ItemFacts struct {
	Name     string
	Category string
	Material string
	Volume   int
	Weight   int
	Charges  int
	Liquid   bool
	Contents []string // names of direct contents
}

// Expr is a compiled boolean expression bound to its engine.
type Expr struct {
	e    *Engine
	src  string
	proc *lua.LFunction
}

// Compile turns a Lua expression such as `item.weight > 500` into a callable
// predicate. Syntax errors are reported here, not at match time.
func (e *Engine) Compile(src string) (*Expr, error) {
	fn, err := e.vm.LoadString("return (" + src + ")")
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", src, err)
	}
	return &Expr{e: e, src: src, proc: fn}, nil
}

// Source returns the expression text.
func (x *Expr) Source() string { return x.src }

// Match evaluates the expression for one item. Lua truthiness applies: only
// nil and false are false.
func (x *Expr) Match(f ItemFacts) (bool, error) {
	vm := x.e.vm
	vm.SetGlobal("item", x.e.factsTable(f))
	defer vm.SetGlobal("item", lua.LNil)

	if err := vm.CallByParam(lua.P{
		Fn:      x.proc,
		NRet:    1,
		Protect: true,
	}); err != nil {
		x.e.log.Debug("lua filter error", zap.String("expr", x.src), zap.Error(err))
		return false, fmt.Errorf("eval %q: %w", x.src, err)
	}

	result := vm.Get(-1)
	vm.Pop(1)
	return lua.LVAsBool(result), nil
}

func (e *Engine) factsTable(f ItemFacts) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("name", lua.LString(f.Name))
	t.RawSetString("category", lua.LString(f.Category))
	t.RawSetString("material", lua.LString(f.Material))
	t.RawSetString("volume", lua.LNumber(f.Volume))
	t.RawSetString("weight", lua.LNumber(f.Weight))
	t.RawSetString("charges", lua.LNumber(f.Charges))
	t.RawSetString("liquid", lua.LBool(f.Liquid))

	contents := e.vm.NewTable()
	for _, name := range f.Contents {
		contents.Append(lua.LString(name))
	}
	t.RawSetString("contents", contents)
	return t
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
