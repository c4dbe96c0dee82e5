package config

import (
	lua "github.com/yuin/gopher-lua"
)

// sandboxLuaVM removes every global that reaches outside the VM: the os, io
// and debug libraries and all code loaders. string, table, math and the
// basic functions stay available.
func sandboxLuaVM(L *lua.LState) {
	for _, name := range []string{
		"os",
		"io",
		"debug",
		"require",
		"module",
		"dofile",
		"loadfile",
		"load",
		"loadstring",
	} {
		L.SetGlobal(name, lua.LNil)
	}
	L.SetGlobal("package", lua.LNil)
}

// newSandboxedVM creates a Lua VM with sandboxing applied.
func newSandboxedVM() *lua.LState {
	L := lua.NewState()
	sandboxLuaVM(L)
	return L
}
